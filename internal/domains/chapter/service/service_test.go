package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangazinho-backend/internal/domains/chapter/model"
	"mangazinho-backend/internal/domains/chapter/repository"
	mangaModel "mangazinho-backend/internal/domains/manga/model"
	"mangazinho-backend/internal/infrastructure/storage"
)

// ----------------------------------------
// Fakes
// ----------------------------------------

type fakeMangaRepo struct {
	mu     sync.Mutex
	mangas map[int64]*mangaModel.Manga
}

func (r *fakeMangaRepo) Create(ctx context.Context, m *mangaModel.Manga) error { return nil }

func (r *fakeMangaRepo) GetByID(ctx context.Context, id int64) (*mangaModel.Manga, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.mangas[id]
	if !ok {
		return nil, mangaModel.ErrMangaNotFound
	}
	copied := *m
	return &copied, nil
}

func (r *fakeMangaRepo) List(ctx context.Context) ([]mangaModel.Manga, error) { return nil, nil }
func (r *fakeMangaRepo) Update(ctx context.Context, m *mangaModel.Manga) error {
	return nil
}
func (r *fakeMangaRepo) UpdateCoverURL(ctx context.Context, id int64, coverURL string) error {
	return nil
}
func (r *fakeMangaRepo) Delete(ctx context.Context, id int64) error { return nil }

// fakeChapterRepo keeps chapters and pages in memory. AppendPage holds a
// mutex for the whole allocate-write-insert sequence, mirroring the row
// lock the real repository takes.
type fakeChapterRepo struct {
	mu       sync.Mutex
	nextID   int64
	chapters map[int64]*model.Chapter
	pages    map[int64][]model.Page

	// failAppendAfter >= 0 makes the n+1th append fail before allocating,
	// to exercise mid-batch failure. -1 disables.
	failAppendAfter int
	appends         int
}

func newFakeChapterRepo() *fakeChapterRepo {
	return &fakeChapterRepo{
		chapters:        make(map[int64]*model.Chapter),
		pages:           make(map[int64][]model.Page),
		failAppendAfter: -1,
	}
}

func (r *fakeChapterRepo) Create(ctx context.Context, ch *model.Chapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.chapters {
		if existing.MangaID == ch.MangaID && existing.Number == ch.Number {
			return model.ErrChapterExists
		}
	}
	r.nextID++
	ch.ID = r.nextID
	ch.CreatedAt = time.Now()
	copied := *ch
	r.chapters[ch.ID] = &copied
	return nil
}

func (r *fakeChapterRepo) GetByMangaAndNumber(ctx context.Context, mangaID int64, number int) (*model.Chapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ch := range r.chapters {
		if ch.MangaID == mangaID && ch.Number == number {
			copied := *ch
			return &copied, nil
		}
	}
	return nil, model.ErrChapterNotFound
}

func (r *fakeChapterRepo) ListByManga(ctx context.Context, mangaID int64) ([]model.Chapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Chapter
	for _, ch := range r.chapters {
		if ch.MangaID == mangaID {
			out = append(out, *ch)
		}
	}
	return out, nil
}

func (r *fakeChapterRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.chapters[id]; !ok {
		return model.ErrChapterNotFound
	}
	delete(r.chapters, id)
	delete(r.pages, id)
	return nil
}

func (r *fakeChapterRepo) AppendPage(ctx context.Context, chapterID int64, write repository.PageWriter) (*model.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.chapters[chapterID]; !ok {
		return nil, model.ErrChapterNotFound
	}
	if r.failAppendAfter >= 0 && r.appends >= r.failAppendAfter {
		return nil, errors.New("insert failed")
	}

	next := len(r.pages[chapterID]) + 1
	filename, url, err := write(next)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStorageWrite, err)
	}

	r.nextID++
	r.appends++
	page := model.Page{
		ID:        r.nextID,
		ChapterID: chapterID,
		Filename:  filename,
		URL:       url,
		Order:     next,
		CreatedAt: time.Now(),
	}
	r.pages[chapterID] = append(r.pages[chapterID], page)
	return &page, nil
}

func (r *fakeChapterRepo) ListPages(ctx context.Context, chapterID int64) ([]model.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Page(nil), r.pages[chapterID]...), nil
}

func (r *fakeChapterRepo) ListPageFilenames(ctx context.Context, chapterID int64) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	for _, p := range r.pages[chapterID] {
		names = append(names, p.Filename)
	}
	return names, nil
}

type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
}

func newFakeCache() *fakeCache { return &fakeCache{store: make(map[string][]byte)} }

func (c *fakeCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = raw
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.store, k)
	}
	return nil
}

func (c *fakeCache) DeletePattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.store {
		if strings.HasPrefix(k, prefix) {
			delete(c.store, k)
		}
	}
	return nil
}

func (c *fakeCache) Ping(ctx context.Context) error { return nil }

type fakeEnqueuer struct {
	mu   sync.Mutex
	dirs []string
}

func (e *fakeEnqueuer) EnqueueRemoveTree(ctx context.Context, dir string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dirs = append(e.dirs, dir)
	return nil
}

// ----------------------------------------
// Fixtures
// ----------------------------------------

type fixture struct {
	svc      ServiceInterface
	mangas   *fakeMangaRepo
	chapters *fakeChapterRepo
	store    *storage.LocalStorage
	cache    *fakeCache
	tasks    *fakeEnqueuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	mangas := &fakeMangaRepo{mangas: map[int64]*mangaModel.Manga{
		1: {ID: 1, Title: "One Piece", Slug: "one-piece", Status: mangaModel.StatusOngoing},
	}}
	chapters := newFakeChapterRepo()
	c := newFakeCache()
	tasks := &fakeEnqueuer{}

	svc := NewChapterService(chapters, mangas, store, c, tasks, UploadLimits{
		MaxFiles:    10,
		MaxFileSize: 1 << 20,
	})

	return &fixture{svc: svc, mangas: mangas, chapters: chapters, store: store, cache: c, tasks: tasks}
}

func (f *fixture) createChapter(t *testing.T, number int) *model.Chapter {
	t.Helper()
	ch, err := f.svc.CreateChapter(context.Background(), 1, model.CreateChapterRequest{Number: number})
	require.NoError(t, err)
	return ch
}

func pngFile(t *testing.T, name string) model.UploadFile {
	t.Helper()
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return model.UploadFile{
		Filename: name,
		MIME:     "image/png",
		Size:     int64(buf.Len()),
		Data:     buf.Bytes(),
	}
}

// ----------------------------------------
// Chapter CRUD
// ----------------------------------------

func TestCreateChapter(t *testing.T) {
	f := newFixture(t)

	ch := f.createChapter(t, 1)
	assert.Equal(t, int64(1), ch.MangaID)
	assert.Equal(t, 1, ch.Number)

	_, err := f.svc.CreateChapter(context.Background(), 1, model.CreateChapterRequest{Number: 1})
	assert.ErrorIs(t, err, model.ErrChapterExists)

	_, err = f.svc.CreateChapter(context.Background(), 99, model.CreateChapterRequest{Number: 1})
	assert.ErrorIs(t, err, model.ErrMangaNotFound)
}

func TestDeleteChapterEnqueuesStorageCleanup(t *testing.T) {
	f := newFixture(t)
	f.createChapter(t, 3)

	require.NoError(t, f.svc.DeleteChapter(context.Background(), 1, 3))

	assert.Equal(t, []string{"mangas/one-piece/Cap_3"}, f.tasks.dirs)

	err := f.svc.DeleteChapter(context.Background(), 1, 3)
	assert.ErrorIs(t, err, model.ErrChapterNotFound)
}

// ----------------------------------------
// Page ingestion
// ----------------------------------------

func TestUploadPagesAllocatesSequentialOrders(t *testing.T) {
	f := newFixture(t)
	f.createChapter(t, 1)

	files := []model.UploadFile{
		pngFile(t, "scan_a.png"),
		pngFile(t, "scan_b.png"),
		pngFile(t, "scan_c.png"),
	}

	res, err := f.svc.UploadPages(context.Background(), 1, 1, files)
	require.NoError(t, err)
	require.Equal(t, 3, res.Total)

	for i, p := range res.Images {
		assert.Equal(t, i+1, p.Order)
		assert.Equal(t, fmt.Sprintf("%03d.png", i+1), p.Filename)
		assert.Equal(t, fmt.Sprintf("/files/mangas/one-piece/Cap_1/%03d.png", i+1), p.URL)
		assert.True(t, f.store.Exists(fmt.Sprintf("mangas/one-piece/Cap_1/%03d.png", i+1)))
	}
}

func TestUploadPagesSecondBatchContinuesNumbering(t *testing.T) {
	f := newFixture(t)
	f.createChapter(t, 1)

	_, err := f.svc.UploadPages(context.Background(), 1, 1, []model.UploadFile{
		pngFile(t, "a.png"), pngFile(t, "b.png"), pngFile(t, "c.png"),
	})
	require.NoError(t, err)

	res, err := f.svc.UploadPages(context.Background(), 1, 1, []model.UploadFile{
		pngFile(t, "d.png"), pngFile(t, "e.png"),
	})
	require.NoError(t, err)

	require.Equal(t, 5, res.Total)
	assert.Equal(t, "004.png", res.Images[3].Filename)
	assert.Equal(t, "005.png", res.Images[4].Filename)

	// The first batch's files were not overwritten.
	assert.True(t, f.store.Exists("mangas/one-piece/Cap_1/001.png"))
	assert.True(t, f.store.Exists("mangas/one-piece/Cap_1/005.png"))
}

func TestUploadPagesDefaultsExtensionToJpg(t *testing.T) {
	f := newFixture(t)
	f.createChapter(t, 1)

	res, err := f.svc.UploadPages(context.Background(), 1, 1, []model.UploadFile{
		pngFile(t, "no_extension"),
	})
	require.NoError(t, err)
	assert.Equal(t, "001.jpg", res.Images[0].Filename)
}

func TestUploadPagesRejectsBadFileWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.createChapter(t, 1)

	files := []model.UploadFile{
		pngFile(t, "good.png"),
		{Filename: "notes.txt", MIME: "image/png", Size: 9, Data: []byte("plain text")},
	}

	_, err := f.svc.UploadPages(context.Background(), 1, 1, files)

	var batchErr *model.BatchValidationErrors
	require.ErrorAs(t, err, &batchErr)
	require.Len(t, batchErr.Errors, 1)
	assert.Equal(t, 1, batchErr.Errors[0].Index)
	assert.Equal(t, "notes.txt", batchErr.Errors[0].Filename)

	// One bad file rejects the whole batch before any write.
	assert.False(t, f.store.Exists("mangas/one-piece/Cap_1/001.png"))
	pages, _ := f.chapters.ListPages(context.Background(), 1)
	assert.Empty(t, pages)
}

func TestUploadPagesDeclaredMIME(t *testing.T) {
	f := newFixture(t)
	f.createChapter(t, 1)

	// An explicitly wrong declared type fails even when the bytes are a
	// valid image.
	lying := pngFile(t, "doc.pdf")
	lying.MIME = "application/pdf"

	_, err := f.svc.UploadPages(context.Background(), 1, 1, []model.UploadFile{lying})
	var batchErr *model.BatchValidationErrors
	require.ErrorAs(t, err, &batchErr)
	assert.Contains(t, batchErr.Errors[0].Reason, "application/pdf")

	// A generic declaration defers to content sniffing.
	generic := pngFile(t, "scan.png")
	generic.MIME = "application/octet-stream"

	_, err = f.svc.UploadPages(context.Background(), 1, 1, []model.UploadFile{generic})
	require.NoError(t, err)
}

func TestUploadPagesRejectsOversizedFile(t *testing.T) {
	f := newFixture(t)
	f.createChapter(t, 1)

	big := pngFile(t, "big.png")
	big.Data = append(big.Data, make([]byte, 2<<20)...)

	_, err := f.svc.UploadPages(context.Background(), 1, 1, []model.UploadFile{big})

	var batchErr *model.BatchValidationErrors
	require.ErrorAs(t, err, &batchErr)
	assert.Contains(t, batchErr.Errors[0].Reason, "exceeds")
}

func TestUploadPagesBatchLimits(t *testing.T) {
	f := newFixture(t)
	f.createChapter(t, 1)

	_, err := f.svc.UploadPages(context.Background(), 1, 1, nil)
	assert.ErrorIs(t, err, model.ErrNoFiles)

	many := make([]model.UploadFile, 11)
	for i := range many {
		many[i] = pngFile(t, fmt.Sprintf("%d.png", i))
	}
	_, err = f.svc.UploadPages(context.Background(), 1, 1, many)
	assert.ErrorIs(t, err, model.ErrTooManyFiles)
}

func TestUploadPagesUnknownTargets(t *testing.T) {
	f := newFixture(t)
	f.createChapter(t, 1)

	_, err := f.svc.UploadPages(context.Background(), 99, 1, []model.UploadFile{pngFile(t, "a.png")})
	assert.ErrorIs(t, err, model.ErrMangaNotFound)

	_, err = f.svc.UploadPages(context.Background(), 1, 99, []model.UploadFile{pngFile(t, "a.png")})
	assert.ErrorIs(t, err, model.ErrChapterNotFound)
}

// A failure at file k leaves files 1..k-1 committed and visible; there
// is no batch rollback.
func TestUploadPagesPartialFailure(t *testing.T) {
	f := newFixture(t)
	f.createChapter(t, 1)
	f.chapters.failAppendAfter = 2

	files := []model.UploadFile{
		pngFile(t, "a.png"), pngFile(t, "b.png"), pngFile(t, "c.png"), pngFile(t, "d.png"),
	}

	_, err := f.svc.UploadPages(context.Background(), 1, 1, files)
	require.Error(t, err)

	pages, _ := f.chapters.ListPages(context.Background(), 1)
	require.Len(t, pages, 2)
	assert.Equal(t, "001.png", pages[0].Filename)
	assert.Equal(t, "002.png", pages[1].Filename)
	assert.True(t, f.store.Exists("mangas/one-piece/Cap_1/002.png"))
	assert.False(t, f.store.Exists("mangas/one-piece/Cap_1/003.png"))
}

// Two concurrent batches must interleave without duplicate or skipped
// orders: the union is exactly 1..total.
func TestUploadPagesConcurrentBatches(t *testing.T) {
	f := newFixture(t)
	f.createChapter(t, 1)

	batchA := []model.UploadFile{pngFile(t, "a1.png"), pngFile(t, "a2.png"), pngFile(t, "a3.png")}
	batchB := []model.UploadFile{pngFile(t, "b1.png"), pngFile(t, "b2.png"), pngFile(t, "b3.png"), pngFile(t, "b4.png")}

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, batch := range [][]model.UploadFile{batchA, batchB} {
		wg.Add(1)
		go func(files []model.UploadFile) {
			defer wg.Done()
			_, err := f.svc.UploadPages(context.Background(), 1, 1, files)
			errs <- err
		}(batch)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	pages, _ := f.chapters.ListPages(context.Background(), 1)
	require.Len(t, pages, 7)

	seen := make(map[int]bool)
	for _, p := range pages {
		assert.False(t, seen[p.Order], "duplicate order %d", p.Order)
		seen[p.Order] = true
	}
	for order := 1; order <= 7; order++ {
		assert.True(t, seen[order], "missing order %d", order)
	}
}

// ----------------------------------------
// Page listing
// ----------------------------------------

func TestListPagesOrderedAndCached(t *testing.T) {
	f := newFixture(t)
	f.createChapter(t, 1)

	_, err := f.svc.UploadPages(context.Background(), 1, 1, []model.UploadFile{
		pngFile(t, "a.png"), pngFile(t, "b.png"),
	})
	require.NoError(t, err)

	res, err := f.svc.ListPages(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.Images[0].Order)
	assert.Equal(t, 2, res.Images[1].Order)

	// Second read is served from cache: mutating the repo behind the
	// cache's back is not reflected.
	f.chapters.mu.Lock()
	f.chapters.pages[1] = f.chapters.pages[1][:1]
	f.chapters.mu.Unlock()

	cached, err := f.svc.ListPages(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, cached.Total)
}

func TestListPagesEmptyChapter(t *testing.T) {
	f := newFixture(t)
	f.createChapter(t, 1)

	res, err := f.svc.ListPages(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
	assert.NotNil(t, res.Images)
}

func TestUploadInvalidatesPageListCache(t *testing.T) {
	f := newFixture(t)
	f.createChapter(t, 1)

	_, err := f.svc.UploadPages(context.Background(), 1, 1, []model.UploadFile{pngFile(t, "a.png")})
	require.NoError(t, err)

	res, err := f.svc.ListPages(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)

	_, err = f.svc.UploadPages(context.Background(), 1, 1, []model.UploadFile{pngFile(t, "b.png")})
	require.NoError(t, err)

	res, err = f.svc.ListPages(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
}
