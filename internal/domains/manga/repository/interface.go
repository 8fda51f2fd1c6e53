package repository

import (
	"context"

	"mangazinho-backend/internal/domains/manga/model"
)

type Repository interface {
	// Create inserts a manga and fills ID/CreatedAt/UpdatedAt.
	// Returns model.ErrSlugExists when the derived slug is taken.
	Create(ctx context.Context, m *model.Manga) error

	GetByID(ctx context.Context, id int64) (*model.Manga, error)

	// List returns all mangas, newest first.
	List(ctx context.Context) ([]model.Manga, error)

	// Update persists metadata fields (title, synopsis, genres, status).
	// The slug column is never touched.
	Update(ctx context.Context, m *model.Manga) error

	UpdateCoverURL(ctx context.Context, id int64, coverURL string) error

	// Delete removes the manga together with its chapters and pages in
	// one transaction. A delete that leaves children behind must not
	// commit.
	Delete(ctx context.Context, id int64) error
}
