package ai

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/require"
)

func Test_ParseChoices_Strips_List_Markers_And_Caps_Count(t *testing.T) {
	// Arrange
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []genai.Part{
						genai.Text("1. The door creaks open.\n\n- A cold wind rises.\n* She turns back.\nNothing happens.\n"),
					},
				},
			},
		},
	}

	// Act
	choices := parseChoices(resp, 3)

	// Assert
	require.Equal(t, []string{
		"The door creaks open.",
		"A cold wind rises.",
		"She turns back.",
	}, choices)
}

func Test_TruncateChoice_Keeps_Valid_UTF8(t *testing.T) {
	// Arrange
	// The leading byte shifts every following 2-byte rune off an even
	// offset, so the cap lands in the middle of a rune.
	line := "x" + strings.Repeat("é", maxChoiceLength)

	// Act
	truncated := truncateChoice(line, maxChoiceLength)

	// Assert
	require.True(t, utf8.ValidString(truncated))
	require.LessOrEqual(t, len(truncated), maxChoiceLength)
	require.Equal(t, "x"+strings.Repeat("é", (maxChoiceLength-1)/2), truncated)
}

func Test_TruncateChoice_Leaves_Short_Lines_Untouched(t *testing.T) {
	// Arrange
	line := "A short continuation."

	// Act
	truncated := truncateChoice(line, maxChoiceLength)

	// Assert
	require.Equal(t, line, truncated)
}
