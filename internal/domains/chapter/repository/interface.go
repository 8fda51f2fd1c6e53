package repository

import (
	"context"

	"mangazinho-backend/internal/domains/chapter/model"
)

// PageWriter persists the file bytes for an allocated order value and
// returns the stored filename and public URL. It runs while the chapter
// row is locked, so a failed write rolls the allocation back and the
// order sequence stays gap-free.
type PageWriter func(order int) (filename, url string, err error)

type Repository interface {
	// Create inserts a chapter. Returns model.ErrChapterExists when the
	// (mangaID, number) pair is taken and model.ErrMangaNotFound when
	// the manga is gone.
	Create(ctx context.Context, ch *model.Chapter) error

	GetByMangaAndNumber(ctx context.Context, mangaID int64, number int) (*model.Chapter, error)

	// ListByManga returns the manga's chapters ascending by number.
	ListByManga(ctx context.Context, mangaID int64) ([]model.Chapter, error)

	// Delete removes the chapter and its pages in one transaction.
	Delete(ctx context.Context, id int64) error

	// AppendPage allocates the next order value for the chapter
	// (max+1, or 1 for an empty chapter), invokes write with it, and
	// inserts the page record. Allocation and insert happen inside a
	// transaction holding a row lock on the chapter, which serializes
	// concurrent uploads to the same chapter.
	AppendPage(ctx context.Context, chapterID int64, write PageWriter) (*model.Page, error)

	// ListPages returns the chapter's pages ascending by order.
	ListPages(ctx context.Context, chapterID int64) ([]model.Page, error)

	// ListPageFilenames returns just the stored filenames of a chapter,
	// used by the storage reconciliation sweep.
	ListPageFilenames(ctx context.Context, chapterID int64) ([]string, error)
}
