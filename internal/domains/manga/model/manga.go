package model

import (
	"fmt"
	"time"

	"mangazinho-backend/internal/shared/utils"
)

// Manga statuses. Anything else is rejected at the boundary and by a
// CHECK constraint on the table.
const (
	StatusOngoing   = "ongoing"
	StatusCompleted = "completed"
	StatusPaused    = "paused"
)

type Manga struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Synopsis  string    `json:"synopsis,omitempty"`
	CoverURL  string    `json:"coverUrl,omitempty"`
	Genres    []string  `json:"genres"`
	Status    string    `json:"status"`
	Slug      string    `json:"slug,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DirToken resolves the storage directory token for this manga: the
// filesystem-safe slug, or "manga_<id>" when no slug was derivable.
func (m *Manga) DirToken() string {
	return utils.SafeDirToken(m.Slug, m.ID)
}

// Dir is the manga's directory relative to the storage root.
func (m *Manga) Dir() string {
	return fmt.Sprintf("mangas/%s", m.DirToken())
}

func ValidStatus(status string) bool {
	switch status {
	case StatusOngoing, StatusCompleted, StatusPaused:
		return true
	}
	return false
}
