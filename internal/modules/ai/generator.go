package ai

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/avencic/storycircle/internal/modules/novel"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

const (
	// Enough story tail to keep the model coherent without blowing the
	// prompt up on long novels.
	contextSegments = 20

	maxChoiceLength = 500
)

// GeminiChoiceGenerator produces narrative continuations for a novel
// from its premise and the tail of its text log.
type GeminiChoiceGenerator struct {
	client *genai.Client
	model  string
	db     *sql.DB
	novels *novel.Store
}

func NewGeminiChoiceGenerator(
	ctx context.Context,
	apiKey string,
	model string,
	db *sql.DB,
	novels *novel.Store,
) (*GeminiChoiceGenerator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiChoiceGenerator{
		client: client,
		model:  model,
		db:     db,
		novels: novels,
	}, nil
}

func (g *GeminiChoiceGenerator) Close() error {
	return g.client.Close()
}

func (g *GeminiChoiceGenerator) Model() string {
	return g.model
}

func (g *GeminiChoiceGenerator) GenerateChoices(ctx context.Context, novelID uuid.UUID, count int) ([]string, error) {
	n, err := g.novels.Get(ctx, g.db, novelID)
	if err != nil {
		return nil, err
	}

	segments, err := g.novels.RecentSegments(ctx, g.db, novelID, contextSegments)
	if err != nil {
		return nil, err
	}

	prompt := buildPrompt(n.Title, n.Description, n.Setting, n.Genres, segments, count)

	model := g.client.GenerativeModel(g.model)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	choices := parseChoices(resp, count)
	if len(choices) == 0 {
		return nil, fmt.Errorf("model returned no usable choices")
	}

	return choices, nil
}

func buildPrompt(title, description, setting string, genres []string, segments []string, count int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are co-writing a collaborative novel titled %q.\n", title)
	if description != "" {
		fmt.Fprintf(&b, "Premise: %s\n", description)
	}
	if setting != "" {
		fmt.Fprintf(&b, "Setting: %s\n", setting)
	}
	if len(genres) > 0 {
		fmt.Fprintf(&b, "Genres: %s\n", strings.Join(genres, ", "))
	}

	if len(segments) > 0 {
		b.WriteString("\nThe story so far (most recent last):\n")
		for _, segment := range segments {
			b.WriteString(segment)
			b.WriteString("\n")
		}
	} else {
		b.WriteString("\nThe story has not started yet. Propose opening passages.\n")
	}

	fmt.Fprintf(&b,
		"\nPropose exactly %d distinct short continuations of the story, one per line. "+
			"Each continuation is one to three sentences of prose that could be appended "+
			"directly to the story. No numbering, no commentary, no blank lines.\n",
		count,
	)

	return b.String()
}

// parseChoices flattens the candidate text parts and takes one choice
// per non-empty line, stripping the list markers models add anyway.
func parseChoices(resp *genai.GenerateContentResponse, count int) []string {
	var text strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text.WriteString(string(t))
				text.WriteString("\n")
			}
		}
		break
	}

	var choices []string
	for _, line := range strings.Split(text.String(), "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•0123456789. )")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = truncateChoice(line, maxChoiceLength)
		choices = append(choices, line)
		if len(choices) == count {
			break
		}
	}

	return choices
}

// truncateChoice caps a choice at max bytes without splitting a rune,
// since a torn multibyte sequence is not valid UTF-8 and postgres
// rejects it on insert.
func truncateChoice(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
