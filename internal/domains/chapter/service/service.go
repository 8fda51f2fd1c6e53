package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"mangazinho-backend/internal/domains/chapter/model"
	"mangazinho-backend/internal/domains/chapter/repository"
	mangaRepo "mangazinho-backend/internal/domains/manga/repository"
	"mangazinho-backend/internal/infrastructure/storage"
	"mangazinho-backend/pkg/cache"
	"mangazinho-backend/pkg/logger"
)

type ServiceInterface interface {
	CreateChapter(ctx context.Context, mangaID int64, req model.CreateChapterRequest) (*model.Chapter, error)
	ListChapters(ctx context.Context, mangaID int64) ([]model.Chapter, error)
	DeleteChapter(ctx context.Context, mangaID int64, number int) error

	// UploadPages is the ingestion pipeline: validate the batch, write
	// files, allocate orders, create page records.
	UploadPages(ctx context.Context, mangaID int64, number int, files []model.UploadFile) (*model.PageListResponse, error)

	ListPages(ctx context.Context, mangaID int64, number int) (*model.PageListResponse, error)
}

// TaskEnqueuer schedules background storage teardown after deletes.
type TaskEnqueuer interface {
	EnqueueRemoveTree(ctx context.Context, dir string) error
}

// UploadLimits are the batch constraints enforced before any write.
type UploadLimits struct {
	MaxFiles    int
	MaxFileSize int64
}

type chapterService struct {
	repo    repository.Repository
	mangas  mangaRepo.Repository
	storage *storage.LocalStorage
	cache   cache.Cache
	tasks   TaskEnqueuer
	limits  UploadLimits
}

func NewChapterService(
	repo repository.Repository,
	mangas mangaRepo.Repository,
	store *storage.LocalStorage,
	c cache.Cache,
	tasks TaskEnqueuer,
	limits UploadLimits,
) ServiceInterface {
	return &chapterService{
		repo:    repo,
		mangas:  mangas,
		storage: store,
		cache:   c,
		tasks:   tasks,
		limits:  limits,
	}
}

const pageListTTL = 10 * time.Minute

func pageListCacheKey(mangaID int64, number int) string {
	return fmt.Sprintf("manga:%d:chapter:%d:pages", mangaID, number)
}

func (s *chapterService) CreateChapter(ctx context.Context, mangaID int64, req model.CreateChapterRequest) (*model.Chapter, error) {
	if _, err := s.mangas.GetByID(ctx, mangaID); err != nil {
		return nil, model.ErrMangaNotFound
	}

	ch := &model.Chapter{
		MangaID: mangaID,
		Number:  req.Number,
		Title:   req.Title,
	}
	if err := s.repo.Create(ctx, ch); err != nil {
		return nil, err
	}

	logger.Info("chapter created", map[string]interface{}{
		"manga_id": mangaID,
		"number":   ch.Number,
	})
	return ch, nil
}

func (s *chapterService) ListChapters(ctx context.Context, mangaID int64) ([]model.Chapter, error) {
	if _, err := s.mangas.GetByID(ctx, mangaID); err != nil {
		return nil, model.ErrMangaNotFound
	}
	return s.repo.ListByManga(ctx, mangaID)
}

func (s *chapterService) DeleteChapter(ctx context.Context, mangaID int64, number int) error {
	manga, err := s.mangas.GetByID(ctx, mangaID)
	if err != nil {
		return model.ErrMangaNotFound
	}

	ch, err := s.repo.GetByMangaAndNumber(ctx, mangaID, number)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, ch.ID); err != nil {
		return err
	}

	dir := model.ChapterDir(manga.DirToken(), number)
	if err := s.tasks.EnqueueRemoveTree(ctx, dir); err != nil {
		logger.Error("failed to enqueue storage cleanup", err)
	}

	s.invalidatePages(ctx, mangaID, number)
	return nil
}

// UploadPages runs the batch through four stages: preconditions, batch
// validation (nothing written on failure), directory materialization,
// and per-file persistence. Each file commits independently: a failure
// at file k leaves files 1..k-1 stored and visible, per the upload
// contract — there is no batch rollback.
func (s *chapterService) UploadPages(ctx context.Context, mangaID int64, number int, files []model.UploadFile) (*model.PageListResponse, error) {
	manga, err := s.mangas.GetByID(ctx, mangaID)
	if err != nil {
		return nil, model.ErrMangaNotFound
	}

	ch, err := s.repo.GetByMangaAndNumber(ctx, mangaID, number)
	if err != nil {
		return nil, err
	}

	if err := s.validateBatch(files); err != nil {
		return nil, err
	}

	token := manga.DirToken()
	dir := model.ChapterDir(token, number)
	if err := s.storage.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStorageWrite, err)
	}

	for i, f := range files {
		ext := fileExt(f.Filename)

		_, err := s.repo.AppendPage(ctx, ch.ID, func(order int) (string, string, error) {
			name := model.PageFilename(order, ext)
			if err := s.storage.WriteFile(path.Join(dir, name), f.Data); err != nil {
				return "", "", err
			}
			return name, model.PageURL(token, number, name), nil
		})
		if err != nil {
			// Files before index i are already committed and stay.
			logger.Error(fmt.Sprintf("upload batch failed at file %d/%d", i+1, len(files)), err)
			return nil, err
		}
	}

	s.invalidatePages(ctx, mangaID, number)

	pages, err := s.repo.ListPages(ctx, ch.ID)
	if err != nil {
		return nil, err
	}

	logger.Info("pages uploaded", map[string]interface{}{
		"manga_id":   mangaID,
		"chapter":    number,
		"batch_size": len(files),
		"total":      len(pages),
	})
	return &model.PageListResponse{
		ChapterID: ch.ID,
		Total:     len(pages),
		Images:    pages,
	}, nil
}

func (s *chapterService) ListPages(ctx context.Context, mangaID int64, number int) (*model.PageListResponse, error) {
	if _, err := s.mangas.GetByID(ctx, mangaID); err != nil {
		return nil, model.ErrMangaNotFound
	}

	ch, err := s.repo.GetByMangaAndNumber(ctx, mangaID, number)
	if err != nil {
		return nil, err
	}

	key := pageListCacheKey(mangaID, number)
	var cached model.PageListResponse
	if found, err := s.cache.Get(ctx, key, &cached); err != nil {
		logger.Error("page list cache read failed", err)
	} else if found {
		return &cached, nil
	}

	pages, err := s.repo.ListPages(ctx, ch.ID)
	if err != nil {
		return nil, err
	}
	if pages == nil {
		pages = []model.Page{}
	}

	res := &model.PageListResponse{
		ChapterID: ch.ID,
		Total:     len(pages),
		Images:    pages,
	}
	if err := s.cache.Set(ctx, key, res, pageListTTL); err != nil {
		logger.Error("page list cache write failed", err)
	}
	return res, nil
}

// validateBatch enforces the pre-write contract: batch present and below
// the file-count limit, every file below the size limit and sniffing as
// jpeg/png/webp. One bad file rejects the whole batch.
func (s *chapterService) validateBatch(files []model.UploadFile) error {
	if len(files) == 0 {
		return model.ErrNoFiles
	}
	if len(files) > s.limits.MaxFiles {
		return model.ErrTooManyFiles
	}

	var invalid []model.BatchValidationError
	for i, f := range files {
		if int64(len(f.Data)) > s.limits.MaxFileSize {
			invalid = append(invalid, model.BatchValidationError{
				Index:    i,
				Filename: f.Filename,
				Reason:   fmt.Sprintf("file exceeds %d MB", s.limits.MaxFileSize>>20),
			})
			continue
		}

		// The declared part header is client-controlled; the sniffed type
		// is authoritative. A generic or absent declaration is ignored,
		// an explicit wrong one fails fast.
		if f.MIME != "" && f.MIME != "application/octet-stream" && !storage.IsAllowedPageMIME(f.MIME) {
			invalid = append(invalid, model.BatchValidationError{
				Index:    i,
				Filename: f.Filename,
				Reason:   fmt.Sprintf("type %s not allowed (use jpg/png/webp)", f.MIME),
			})
			continue
		}

		mime := storage.DetectMIME(f.Data)
		if !storage.IsAllowedPageMIME(mime) {
			invalid = append(invalid, model.BatchValidationError{
				Index:    i,
				Filename: f.Filename,
				Reason:   fmt.Sprintf("type %s not allowed (use jpg/png/webp)", mime),
			})
		}
	}

	if len(invalid) > 0 {
		return &model.BatchValidationErrors{Errors: invalid}
	}
	return nil
}

func (s *chapterService) invalidatePages(ctx context.Context, mangaID int64, number int) {
	if err := s.cache.Delete(ctx, pageListCacheKey(mangaID, number)); err != nil {
		logger.Error("cache invalidation failed", err)
	}
}

func fileExt(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	return ext
}
