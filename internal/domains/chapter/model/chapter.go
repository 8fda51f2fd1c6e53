package model

import (
	"fmt"
	"time"
)

type Chapter struct {
	ID        int64     `json:"id"`
	MangaID   int64     `json:"mangaId"`
	Number    int       `json:"number"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Page is a single image in a chapter's reading sequence. Order is the
// position, unique and contiguous per chapter starting at 1.
type Page struct {
	ID        int64     `json:"id"`
	ChapterID int64     `json:"chapterId"`
	Filename  string    `json:"filename"`
	URL       string    `json:"url"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChapterDir is a chapter's directory relative to the storage root.
// Token is the manga's filesystem-safe directory token.
func ChapterDir(token string, number int) string {
	return fmt.Sprintf("mangas/%s/Cap_%d", token, number)
}

// PageURL is the public URL of a stored page file.
func PageURL(token string, number int, filename string) string {
	return fmt.Sprintf("/files/mangas/%s/Cap_%d/%s", token, number, filename)
}

// PageFilename derives the on-disk name from the allocated order value,
// so names continue across batches and never collide: order 4 with ".png"
// becomes "004.png".
func PageFilename(order int, ext string) string {
	return fmt.Sprintf("%03d%s", order, ext)
}
