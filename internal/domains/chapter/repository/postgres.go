package repository

import (
	"context"
	"errors"
	"fmt"

	"mangazinho-backend/internal/domains/chapter/model"
	"mangazinho-backend/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) Create(ctx context.Context, ch *model.Chapter) error {
	query := `
		INSERT INTO chapters (manga_id, number, title)
		VALUES ($1, $2, NULLIF($3, ''))
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query, ch.MangaID, ch.Number, ch.Title).
		Scan(&ch.ID, &ch.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // uniq_manga_chapter_number
			return model.ErrChapterExists
		case "23503": // manga_id FK
			return model.ErrMangaNotFound
		}
	}
	if err != nil {
		return fmt.Errorf("failed to create chapter: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByMangaAndNumber(ctx context.Context, mangaID int64, number int) (*model.Chapter, error) {
	query := `
		SELECT id, manga_id, number, COALESCE(title, ''), created_at
		FROM chapters
		WHERE manga_id = $1 AND number = $2
	`

	var ch model.Chapter
	err := r.pool.QueryRow(ctx, query, mangaID, number).
		Scan(&ch.ID, &ch.MangaID, &ch.Number, &ch.Title, &ch.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrChapterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chapter: %w", err)
	}
	return &ch, nil
}

func (r *postgresRepository) ListByManga(ctx context.Context, mangaID int64) ([]model.Chapter, error) {
	query := `
		SELECT id, manga_id, number, COALESCE(title, ''), created_at
		FROM chapters
		WHERE manga_id = $1
		ORDER BY number ASC
	`

	rows, err := r.pool.Query(ctx, query, mangaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	defer rows.Close()

	var chapters []model.Chapter
	for rows.Next() {
		var ch model.Chapter
		if err := rows.Scan(&ch.ID, &ch.MangaID, &ch.Number, &ch.Title, &ch.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chapter: %w", err)
		}
		chapters = append(chapters, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return chapters, nil
}

func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM pages WHERE chapter_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete pages: %w", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM chapters WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete chapter: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return model.ErrChapterNotFound
		}
		return nil
	})
}

// AppendPage serializes order allocation per chapter with SELECT ... FOR
// UPDATE on the chapter row. The disk write runs inside the transaction:
// if it fails, the allocation rolls back and no gap is left behind. The
// reverse failure (write succeeded, insert failed) orphans one file,
// which the reconciliation sweep removes later.
func (r *postgresRepository) AppendPage(ctx context.Context, chapterID int64, write PageWriter) (*model.Page, error) {
	return database.WithTransactionResult(ctx, r.pool, func(tx pgx.Tx) (*model.Page, error) {
		var locked int64
		err := tx.QueryRow(ctx,
			`SELECT id FROM chapters WHERE id = $1 FOR UPDATE`, chapterID,
		).Scan(&locked)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrChapterNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to lock chapter: %w", err)
		}

		var next int
		err = tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(page_order), 0) + 1 FROM pages WHERE chapter_id = $1`,
			chapterID,
		).Scan(&next)
		if err != nil {
			return nil, fmt.Errorf("failed to allocate page order: %w", err)
		}

		filename, url, err := write(next)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrStorageWrite, err)
		}

		page := &model.Page{
			ChapterID: chapterID,
			Filename:  filename,
			URL:       url,
			Order:     next,
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO pages (chapter_id, filename, url, page_order)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at
		`, chapterID, filename, url, next).Scan(&page.ID, &page.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to create page record: %w", err)
		}

		return page, nil
	})
}

func (r *postgresRepository) ListPages(ctx context.Context, chapterID int64) ([]model.Page, error) {
	query := `
		SELECT id, chapter_id, filename, url, page_order, created_at
		FROM pages
		WHERE chapter_id = $1
		ORDER BY page_order ASC
	`

	rows, err := r.pool.Query(ctx, query, chapterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	var pages []model.Page
	for rows.Next() {
		var p model.Page
		if err := rows.Scan(&p.ID, &p.ChapterID, &p.Filename, &p.URL, &p.Order, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		pages = append(pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return pages, nil
}

func (r *postgresRepository) ListPageFilenames(ctx context.Context, chapterID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT filename FROM pages WHERE chapter_id = $1`, chapterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list page filenames: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan filename: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return names, nil
}
