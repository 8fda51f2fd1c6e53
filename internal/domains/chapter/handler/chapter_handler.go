package handler

import (
	"io"
	"net/http"
	"strconv"

	"mangazinho-backend/internal/domains/chapter/model"
	"mangazinho-backend/internal/domains/chapter/service"
	"mangazinho-backend/internal/shared/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service service.ServiceInterface
}

func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{service: service}
}

func parseIDs(c *gin.Context) (mangaID int64, number int, ok bool) {
	mangaID, err := strconv.ParseInt(c.Param("mangaId"), 10, 64)
	if err != nil || mangaID <= 0 {
		response.BadRequest(c, "invalid manga id")
		return 0, 0, false
	}

	number, err = strconv.Atoi(c.Param("number"))
	if err != nil || number <= 0 {
		response.BadRequest(c, "invalid chapter number")
		return 0, 0, false
	}
	return mangaID, number, true
}

// Create - POST /mangas/:mangaId/chapters
func (h *Handler) Create(c *gin.Context) {
	mangaID, err := strconv.ParseInt(c.Param("mangaId"), 10, 64)
	if err != nil || mangaID <= 0 {
		response.BadRequest(c, "invalid manga id")
		return
	}

	var req model.CreateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "field 'number' is required and must be numeric")
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid chapter payload", err)
		return
	}

	ch, err := h.service.CreateChapter(c.Request.Context(), mangaID, req)
	if model.HandleChapterError(c, err) {
		return
	}
	response.Success(c, http.StatusCreated, ch)
}

// List - GET /mangas/:mangaId/chapters
func (h *Handler) List(c *gin.Context) {
	mangaID, err := strconv.ParseInt(c.Param("mangaId"), 10, 64)
	if err != nil || mangaID <= 0 {
		response.BadRequest(c, "invalid manga id")
		return
	}

	chapters, err := h.service.ListChapters(c.Request.Context(), mangaID)
	if model.HandleChapterError(c, err) {
		return
	}
	if chapters == nil {
		chapters = []model.Chapter{}
	}
	response.Success(c, http.StatusOK, chapters)
}

// Delete - DELETE /mangas/:mangaId/chapters/:number
func (h *Handler) Delete(c *gin.Context) {
	mangaID, number, ok := parseIDs(c)
	if !ok {
		return
	}

	err := h.service.DeleteChapter(c.Request.Context(), mangaID, number)
	if model.HandleChapterError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadPages - POST /mangas/:mangaId/chapters/:number/pages
// Multipart batch under the field "pages".
func (h *Handler) UploadPages(c *gin.Context) {
	mangaID, number, ok := parseIDs(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		response.BadRequest(c, "send files in the 'pages' field")
		return
	}

	headers := form.File["pages"]
	files := make([]model.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			response.BadRequest(c, "failed to read uploaded file")
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			response.BadRequest(c, "failed to read uploaded file")
			return
		}

		files = append(files, model.UploadFile{
			Filename: fh.Filename,
			MIME:     fh.Header.Get("Content-Type"),
			Size:     fh.Size,
			Data:     data,
		})
	}

	res, err := h.service.UploadPages(c.Request.Context(), mangaID, number, files)
	if model.HandleChapterError(c, err) {
		return
	}
	response.Success(c, http.StatusCreated, res)
}

// ListPages - GET /mangas/:mangaId/chapters/:number/pages
func (h *Handler) ListPages(c *gin.Context) {
	mangaID, number, ok := parseIDs(c)
	if !ok {
		return
	}

	res, err := h.service.ListPages(c.Request.Context(), mangaID, number)
	if model.HandleChapterError(c, err) {
		return
	}
	response.Success(c, http.StatusOK, res)
}
