package job

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	chapterRepo "mangazinho-backend/internal/domains/chapter/repository"
	mangaRepo "mangazinho-backend/internal/domains/manga/repository"
	"mangazinho-backend/internal/infrastructure/storage"
	"mangazinho-backend/internal/shared"
	"mangazinho-backend/pkg/logger"

	"github.com/hibiken/asynq"
)

// ReconcileHandler sweeps the storage tree for files the database does
// not know about. Orphans appear when a page insert fails after the disk
// write, or when a process dies between the two. Only files older than
// the payload's minimum age are touched, so in-flight uploads are never
// swept.
type ReconcileHandler struct {
	mangas   mangaRepo.Repository
	chapters chapterRepo.Repository
	storage  *storage.LocalStorage
}

func NewReconcileHandler(
	mangas mangaRepo.Repository,
	chapters chapterRepo.Repository,
	store *storage.LocalStorage,
) *ReconcileHandler {
	return &ReconcileHandler{
		mangas:   mangas,
		chapters: chapters,
		storage:  store,
	}
}

func (h *ReconcileHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload shared.ReconcilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid %s payload: %w", shared.TypeStorageReconcile, err)
	}
	if payload.MinAgeMinutes <= 0 {
		payload.MinAgeMinutes = 60
	}
	cutoff := time.Now().Add(-time.Duration(payload.MinAgeMinutes) * time.Minute)

	mangas, err := h.mangas.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list mangas: %w", err)
	}

	removed := 0
	for _, m := range mangas {
		n, err := h.reconcileManga(ctx, m.Dir(), m.ID, cutoff)
		if err != nil {
			logger.Error(fmt.Sprintf("reconcile failed for manga %d", m.ID), err)
			continue
		}
		removed += n
	}

	logger.Info("storage reconciliation finished", map[string]interface{}{
		"mangas":  len(mangas),
		"removed": removed,
	})
	return nil
}

// reconcileManga diffs each chapter directory under mangaDir against the
// page records for that chapter. Directories that do not match the
// Cap_<n> layout are left alone, as are cover files at the manga level.
func (h *ReconcileHandler) reconcileManga(ctx context.Context, mangaDir string, mangaID int64, cutoff time.Time) (int, error) {
	chapters, err := h.chapters.ListByManga(ctx, mangaID)
	if err != nil {
		return 0, err
	}
	byNumber := make(map[int]int64, len(chapters))
	for _, ch := range chapters {
		byNumber[ch.Number] = ch.ID
	}

	dirs, err := h.storage.ListDirs(mangaDir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, dir := range dirs {
		number, ok := chapterNumber(dir)
		if !ok {
			continue
		}

		chapterDir := path.Join(mangaDir, dir)
		chapterID, exists := byNumber[number]

		var known map[string]bool
		if exists {
			names, err := h.chapters.ListPageFilenames(ctx, chapterID)
			if err != nil {
				return removed, err
			}
			known = make(map[string]bool, len(names))
			for _, name := range names {
				known[name] = true
			}
		}

		files, err := h.storage.ListFiles(chapterDir)
		if err != nil {
			return removed, err
		}
		for _, f := range files {
			if known[f.Name] || f.ModTime.After(cutoff) {
				continue
			}
			if err := h.storage.RemoveFile(path.Join(chapterDir, f.Name)); err != nil {
				logger.Error("failed to remove orphan file", err)
				continue
			}
			removed++
		}
	}
	return removed, nil
}

// chapterNumber parses a Cap_<n> directory name.
func chapterNumber(dir string) (int, bool) {
	rest, ok := strings.CutPrefix(dir, "Cap_")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
