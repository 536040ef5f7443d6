package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	StatePlanned    = "planned"
	StateInProgress = "in_progress"
	StateCompleted  = "completed"
	StateAbandoned  = "abandoned"
)

var knownGenres = map[string]struct{}{
	"horror": {}, "drama": {}, "tragedy": {}, "comedy": {}, "romance": {},
	"fantasy": {}, "science_fiction": {}, "mystery": {}, "thriller": {},
	"historical": {}, "adventure": {}, "slice_of_life": {}, "dystopian": {},
	"magical_realism": {}, "steampunk": {}, "noir": {}, "crime": {},
	"young_adult": {}, "biography": {},
}

func ValidateGenres(genres []string) error {
	for _, g := range genres {
		if _, ok := knownGenres[g]; !ok {
			return fmt.Errorf("unknown genre: '%s'", g)
		}
	}

	return nil
}

// Novel is the shared document collaborative sessions append to. The
// actual prose lives in the append-only text_segment log.
type Novel struct {
	ID              uuid.UUID      `db:"id" json:"novel_id"`
	OriginalID      *uuid.UUID     `db:"original_id" json:"original_id,omitempty"`
	AuthorID        uuid.UUID      `db:"author_id" json:"author_id"`
	Title           string         `db:"title" json:"title"`
	Description     string         `db:"description" json:"description"`
	Setting         string         `db:"setting" json:"setting"`
	Genres          pq.StringArray `db:"genres" json:"genres"`
	IsPublic        bool           `db:"is_public" json:"is_public"`
	State           string         `db:"state" json:"state"`
	CurrentPosition *uuid.UUID     `db:"current_position" json:"current_position,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
	EndedAt         *time.Time     `db:"ended_at" json:"ended_at,omitempty"`
}

type TextSegment struct {
	ID        uuid.UUID  `db:"id" json:"segment_id"`
	NovelID   uuid.UUID  `db:"novel_id" json:"novel_id"`
	AuthorID  *uuid.UUID `db:"author_id" json:"author_id,omitempty"`
	Content   string     `db:"content" json:"content"`
	Seq       int64      `db:"seq" json:"-"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

const (
	CharacterRolePlayer = "player"
	CharacterRoleNPC    = "npc"
)

type Character struct {
	ID         uuid.UUID  `db:"id" json:"character_id"`
	NovelID    uuid.UUID  `db:"novel_id" json:"novel_id"`
	UserID     *uuid.UUID `db:"user_id" json:"user_id,omitempty"`
	Role       string     `db:"role" json:"role"`
	Name       string     `db:"name" json:"name"`
	Appearance string     `db:"appearance" json:"appearance"`
	Backstory  string     `db:"backstory" json:"backstory"`
	Traits     string     `db:"traits" json:"traits"`
}
