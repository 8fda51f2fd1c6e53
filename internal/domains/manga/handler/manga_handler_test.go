package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangazinho-backend/internal/domains/manga/model"
)

type stubService struct {
	manga       *model.Manga
	cover       *model.CoverUploadResponse
	err         error
	gotID       int64
	gotFilename string
	gotData     []byte
}

func (s *stubService) CreateManga(ctx context.Context, req model.CreateMangaRequest) (*model.Manga, error) {
	return s.manga, s.err
}

func (s *stubService) GetManga(ctx context.Context, id int64) (*model.Manga, error) {
	s.gotID = id
	return s.manga, s.err
}

func (s *stubService) ListMangas(ctx context.Context) ([]model.Manga, error) {
	return nil, s.err
}

func (s *stubService) UpdateManga(ctx context.Context, id int64, req model.UpdateMangaRequest) (*model.Manga, error) {
	s.gotID = id
	return s.manga, s.err
}

func (s *stubService) DeleteManga(ctx context.Context, id int64) error {
	s.gotID = id
	return s.err
}

func (s *stubService) UploadCover(ctx context.Context, id int64, filename string, data []byte) (*model.CoverUploadResponse, error) {
	s.gotID = id
	s.gotFilename = filename
	s.gotData = data
	return s.cover, s.err
}

func newTestRouter(svc *stubService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc)

	r := gin.New()
	mangas := r.Group("/mangas")
	{
		mangas.POST("", h.Create)
		mangas.GET("", h.List)
		mangas.GET("/:mangaId", h.GetByID)
		mangas.PUT("/:mangaId", h.Update)
		mangas.DELETE("/:mangaId", h.Delete)
	}
	r.POST("/upload/mangas/:mangaId/cover", h.UploadCover)
	return r
}

func TestCreateMangaHandler(t *testing.T) {
	svc := &stubService{manga: &model.Manga{ID: 1, Title: "One Piece", Slug: "one-piece"}}
	r := newTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/mangas", strings.NewReader(`{"title":"One Piece"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateMangaHandlerValidation(t *testing.T) {
	svc := &stubService{}
	r := newTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/mangas", strings.NewReader(`{"title":""}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateMangaHandlerSlugConflict(t *testing.T) {
	svc := &stubService{err: model.ErrSlugExists}
	r := newTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/mangas", strings.NewReader(`{"title":"One Piece"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetMangaHandlerNotFound(t *testing.T) {
	svc := &stubService{err: model.ErrMangaNotFound}
	r := newTestRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/mangas/9", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, int64(9), svc.gotID)
}

func TestDeleteMangaHandler(t *testing.T) {
	svc := &stubService{}
	r := newTestRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/mangas/3", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, int64(3), svc.gotID)
}

func TestUploadCoverHandler(t *testing.T) {
	svc := &stubService{cover: &model.CoverUploadResponse{OK: true, CoverURL: "/files/mangas/one-piece/cover.png"}}
	r := newTestRouter(svc)

	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("cover", "art.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("cover bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload/mangas/1/cover", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "art.png", svc.gotFilename)
	assert.Equal(t, []byte("cover bytes"), svc.gotData)

	var env struct {
		Data model.CoverUploadResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.True(t, env.Data.OK)
	assert.Equal(t, "/files/mangas/one-piece/cover.png", env.Data.CoverURL)
}

func TestUploadCoverHandlerMissingField(t *testing.T) {
	svc := &stubService{}
	r := newTestRouter(svc)

	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload/mangas/1/cover", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
