package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"mangazinho-backend/internal/domains/manga/model"
	"mangazinho-backend/internal/domains/manga/repository"
	"mangazinho-backend/internal/infrastructure/storage"
	"mangazinho-backend/internal/shared/utils"
	"mangazinho-backend/pkg/cache"
	"mangazinho-backend/pkg/logger"
)

type ServiceInterface interface {
	CreateManga(ctx context.Context, req model.CreateMangaRequest) (*model.Manga, error)
	GetManga(ctx context.Context, id int64) (*model.Manga, error)
	ListMangas(ctx context.Context) ([]model.Manga, error)
	UpdateManga(ctx context.Context, id int64, req model.UpdateMangaRequest) (*model.Manga, error)
	DeleteManga(ctx context.Context, id int64) error
	UploadCover(ctx context.Context, id int64, filename string, data []byte) (*model.CoverUploadResponse, error)
}

// TaskEnqueuer schedules background storage work; deferred so an HTTP
// delete never blocks on filesystem teardown.
type TaskEnqueuer interface {
	EnqueueRemoveTree(ctx context.Context, dir string) error
}

type mangaService struct {
	repo         repository.Repository
	storage      *storage.LocalStorage
	cache        cache.Cache
	tasks        TaskEnqueuer
	maxCoverSize int64
}

func NewMangaService(
	repo repository.Repository,
	store *storage.LocalStorage,
	c cache.Cache,
	tasks TaskEnqueuer,
	maxCoverSize int64,
) ServiceInterface {
	return &mangaService{
		repo:         repo,
		storage:      store,
		cache:        c,
		tasks:        tasks,
		maxCoverSize: maxCoverSize,
	}
}

const mangaDetailTTL = 10 * time.Minute

func mangaDetailCacheKey(id int64) string {
	return fmt.Sprintf("manga:%d:detail", id)
}

func (s *mangaService) CreateManga(ctx context.Context, req model.CreateMangaRequest) (*model.Manga, error) {
	status := req.Status
	if status == "" {
		status = model.StatusOngoing
	}

	genres := req.Genres
	if genres == nil {
		genres = []string{}
	}

	m := &model.Manga{
		Title:    req.Title,
		Synopsis: req.Synopsis,
		Genres:   genres,
		Status:   status,
		Slug:     utils.GenerateSlug(req.Title),
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	logger.Info("manga created", map[string]interface{}{
		"manga_id": m.ID,
		"slug":     m.Slug,
	})
	return m, nil
}

func (s *mangaService) GetManga(ctx context.Context, id int64) (*model.Manga, error) {
	key := mangaDetailCacheKey(id)

	var cached model.Manga
	if found, err := s.cache.Get(ctx, key, &cached); err != nil {
		logger.Error("manga cache read failed", err)
	} else if found {
		return &cached, nil
	}

	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, m, mangaDetailTTL); err != nil {
		logger.Error("manga cache write failed", err)
	}
	return m, nil
}

func (s *mangaService) ListMangas(ctx context.Context) ([]model.Manga, error) {
	return s.repo.List(ctx)
}

func (s *mangaService) UpdateManga(ctx context.Context, id int64, req model.UpdateMangaRequest) (*model.Manga, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		m.Title = *req.Title
	}
	if req.Synopsis != nil {
		m.Synopsis = *req.Synopsis
	}
	if req.Genres != nil {
		m.Genres = req.Genres
	}
	if req.Status != nil {
		if !model.ValidStatus(*req.Status) {
			return nil, model.ErrInvalidStatus
		}
		m.Status = *req.Status
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	return m, nil
}

// DeleteManga removes the record set transactionally, then schedules the
// storage directory removal. Storage teardown failing (or the process
// dying first) leaves files without records; the reconciliation sweep
// picks those up.
func (s *mangaService) DeleteManga(ctx context.Context, id int64) error {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.tasks.EnqueueRemoveTree(ctx, m.Dir()); err != nil {
		logger.Error("failed to enqueue storage cleanup", err)
	}

	s.invalidate(ctx, id)

	logger.Info("manga deleted", map[string]interface{}{
		"manga_id": id,
		"dir":      m.Dir(),
	})
	return nil
}

func (s *mangaService) UploadCover(ctx context.Context, id int64, filename string, data []byte) (*model.CoverUploadResponse, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, model.ErrCoverMissing
	}
	if int64(len(data)) > s.maxCoverSize {
		return nil, model.ErrCoverTooLarge
	}
	if !storage.IsAllowedCoverMIME(storage.DetectMIME(data)) {
		return nil, model.ErrCoverBadFormat
	}

	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}

	coverName := "cover" + ext
	if err := s.storage.WriteFile(path.Join(m.Dir(), coverName), data); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStorageWrite, err)
	}

	// Thumbnail is best effort: webp covers cannot be decoded and simply
	// ship without one.
	if thumb, err := storage.CoverThumbnail(data, 300); err != nil {
		logger.Info("cover thumbnail skipped", map[string]interface{}{
			"manga_id": id,
			"reason":   err.Error(),
		})
	} else if err := s.storage.WriteFile(path.Join(m.Dir(), "cover_thumb.jpg"), thumb); err != nil {
		logger.Error("failed to write cover thumbnail", err)
	}

	coverURL := "/files/" + path.Join(m.Dir(), coverName)
	if err := s.repo.UpdateCoverURL(ctx, id, coverURL); err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	return &model.CoverUploadResponse{OK: true, CoverURL: coverURL}, nil
}

func (s *mangaService) invalidate(ctx context.Context, id int64) {
	if err := s.cache.DeletePattern(ctx, fmt.Sprintf("manga:%d:*", id)); err != nil {
		logger.Error("cache invalidation failed", err)
	}
}
