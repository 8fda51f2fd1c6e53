package handler

import (
	"io"
	"net/http"
	"strconv"

	"mangazinho-backend/internal/domains/manga/model"
	"mangazinho-backend/internal/domains/manga/service"
	"mangazinho-backend/internal/shared/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service service.ServiceInterface
}

func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{service: service}
}

func parseMangaID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("mangaId"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid manga id")
		return 0, false
	}
	return id, true
}

// Create - POST /mangas
func (h *Handler) Create(c *gin.Context) {
	var req model.CreateMangaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid manga payload", err)
		return
	}

	m, err := h.service.CreateManga(c.Request.Context(), req)
	if model.HandleMangaError(c, err) {
		return
	}
	response.Success(c, http.StatusCreated, m)
}

// List - GET /mangas
func (h *Handler) List(c *gin.Context) {
	mangas, err := h.service.ListMangas(c.Request.Context())
	if model.HandleMangaError(c, err) {
		return
	}
	if mangas == nil {
		mangas = []model.Manga{}
	}
	response.Success(c, http.StatusOK, mangas)
}

// GetByID - GET /mangas/:mangaId
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseMangaID(c)
	if !ok {
		return
	}

	m, err := h.service.GetManga(c.Request.Context(), id)
	if model.HandleMangaError(c, err) {
		return
	}
	response.Success(c, http.StatusOK, m)
}

// Update - PUT /mangas/:mangaId
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseMangaID(c)
	if !ok {
		return
	}

	var req model.UpdateMangaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid manga payload", err)
		return
	}

	m, err := h.service.UpdateManga(c.Request.Context(), id, req)
	if model.HandleMangaError(c, err) {
		return
	}
	response.Success(c, http.StatusOK, m)
}

// Delete - DELETE /mangas/:mangaId
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseMangaID(c)
	if !ok {
		return
	}

	err := h.service.DeleteManga(c.Request.Context(), id)
	if model.HandleMangaError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadCover - POST /upload/mangas/:mangaId/cover
// Accepts a single multipart file under the field "cover".
func (h *Handler) UploadCover(c *gin.Context) {
	id, ok := parseMangaID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("cover")
	if err != nil {
		response.BadRequest(c, "file field 'cover' is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, "failed to read uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.BadRequest(c, "failed to read uploaded file")
		return
	}

	res, err := h.service.UploadCover(c.Request.Context(), id, fileHeader.Filename, data)
	if model.HandleMangaError(c, err) {
		return
	}
	response.Success(c, http.StatusOK, res)
}
