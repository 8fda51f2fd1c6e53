package database

import (
	"context"
	"fmt"
	"log"
)

// migrations run in order on startup. Every statement is idempotent so the
// API and the worker can both call Migrate safely.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS mangas (
		id         BIGSERIAL PRIMARY KEY,
		title      TEXT NOT NULL,
		synopsis   TEXT,
		cover_url  TEXT,
		genres     TEXT[] NOT NULL DEFAULT '{}',
		status     TEXT NOT NULL DEFAULT 'ongoing'
		           CHECK (status IN ('ongoing', 'completed', 'paused')),
		slug       TEXT UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS chapters (
		id         BIGSERIAL PRIMARY KEY,
		manga_id   BIGINT NOT NULL REFERENCES mangas(id) ON DELETE CASCADE,
		number     INT NOT NULL,
		title      TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT uniq_manga_chapter_number UNIQUE (manga_id, number)
	)`,

	// page_order is unique per chapter; allocation happens under a row
	// lock on the owning chapter (see chapter repository).
	`CREATE TABLE IF NOT EXISTS pages (
		id         BIGSERIAL PRIMARY KEY,
		chapter_id BIGINT NOT NULL REFERENCES chapters(id) ON DELETE CASCADE,
		filename   TEXT NOT NULL,
		url        TEXT NOT NULL,
		page_order INT NOT NULL CHECK (page_order > 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT uniq_chapter_page_order UNIQUE (chapter_id, page_order)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_chapters_manga_id ON chapters(manga_id)`,
	`CREATE INDEX IF NOT EXISTS idx_pages_chapter_id ON pages(chapter_id)`,
}

// Migrate applies the schema. The FK cascades are a backstop only; the
// repositories delete children explicitly inside a transaction.
func (db *PostgresDB) Migrate(ctx context.Context) error {
	if db.Pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	for i, stmt := range migrations {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	log.Printf("[DATABASE] Schema migration complete (%d statements)", len(migrations))
	return nil
}
