package repository

import (
	"context"
	"errors"
	"fmt"

	"mangazinho-backend/internal/domains/manga/model"
	"mangazinho-backend/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

// postgresRepository - raw SQL with pgxpool.
type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

const mangaColumns = `id, title, COALESCE(synopsis, ''), COALESCE(cover_url, ''),
	genres, status, COALESCE(slug, ''), created_at, updated_at`

func scanManga(row pgx.Row) (*model.Manga, error) {
	var m model.Manga
	err := row.Scan(
		&m.ID, &m.Title, &m.Synopsis, &m.CoverURL,
		pq.Array(&m.Genres), &m.Status, &m.Slug, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *postgresRepository) Create(ctx context.Context, m *model.Manga) error {
	// Empty slug is stored as NULL so the unique index only applies to
	// mangas that actually have one.
	query := `
		INSERT INTO mangas (title, synopsis, cover_url, genres, status, slug)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, NULLIF($6, ''))
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		m.Title, m.Synopsis, m.CoverURL, pq.Array(m.Genres), m.Status, m.Slug,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)

	if isUniqueViolation(err) {
		return model.ErrSlugExists
	}
	if err != nil {
		return fmt.Errorf("failed to create manga: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*model.Manga, error) {
	query := fmt.Sprintf(`SELECT %s FROM mangas WHERE id = $1`, mangaColumns)

	m, err := scanManga(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrMangaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get manga: %w", err)
	}
	return m, nil
}

func (r *postgresRepository) List(ctx context.Context) ([]model.Manga, error) {
	query := fmt.Sprintf(`SELECT %s FROM mangas ORDER BY created_at DESC, id DESC`, mangaColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list mangas: %w", err)
	}
	defer rows.Close()

	var mangas []model.Manga
	for rows.Next() {
		m, err := scanManga(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan manga: %w", err)
		}
		mangas = append(mangas, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return mangas, nil
}

func (r *postgresRepository) Update(ctx context.Context, m *model.Manga) error {
	query := `
		UPDATE mangas
		SET title = $2, synopsis = NULLIF($3, ''), genres = $4, status = $5,
		    updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		m.ID, m.Title, m.Synopsis, pq.Array(m.Genres), m.Status,
	).Scan(&m.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrMangaNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update manga: %w", err)
	}
	return nil
}

func (r *postgresRepository) UpdateCoverURL(ctx context.Context, id int64, coverURL string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE mangas SET cover_url = $2, updated_at = now() WHERE id = $1`,
		id, coverURL,
	)
	if err != nil {
		return fmt.Errorf("failed to update cover url: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrMangaNotFound
	}
	return nil
}

// Delete removes pages, chapters and the manga inside one transaction.
// The explicit child deletes make the cascade independent of FK hooks.
func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			DELETE FROM pages
			USING chapters
			WHERE pages.chapter_id = chapters.id AND chapters.manga_id = $1
		`, id); err != nil {
			return fmt.Errorf("failed to delete pages: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`DELETE FROM chapters WHERE manga_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete chapters: %w", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM mangas WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete manga: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return model.ErrMangaNotFound
		}
		return nil
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
