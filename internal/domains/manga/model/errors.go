package model

import (
	"errors"
	"net/http"

	"mangazinho-backend/internal/shared/response"
	"mangazinho-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

var (
	ErrMangaNotFound  = errors.New("manga not found")
	ErrSlugExists     = errors.New("a manga with a similar title already exists")
	ErrInvalidStatus  = errors.New("status must be one of: ongoing, completed, paused")
	ErrCoverMissing   = errors.New("file field 'cover' is required")
	ErrCoverTooLarge  = errors.New("cover image exceeds the size limit")
	ErrCoverBadFormat = errors.New("cover must be a jpeg, png, webp or gif image")
	ErrStorageWrite   = errors.New("failed to write file to storage")
)

var mangaErrorMap = map[error]struct {
	Status  int
	Code    string
	Message string
}{
	ErrMangaNotFound:  {http.StatusNotFound, "NOT_FOUND", "Manga not found"},
	ErrSlugExists:     {http.StatusConflict, "CONFLICT", "A manga with a similar title already exists"},
	ErrInvalidStatus:  {http.StatusBadRequest, "VALIDATION_ERROR", "Invalid manga status"},
	ErrCoverMissing:   {http.StatusBadRequest, "VALIDATION_ERROR", "File field 'cover' is required"},
	ErrCoverTooLarge:  {http.StatusBadRequest, "VALIDATION_ERROR", "Cover image is too large"},
	ErrCoverBadFormat: {http.StatusBadRequest, "VALIDATION_ERROR", "Cover must be a jpeg, png, webp or gif image"},
	ErrStorageWrite:   {http.StatusInternalServerError, "STORAGE_ERROR", "Failed to store file"},
}

// HandleMangaError maps a domain error to an HTTP response. Returns true
// when an error response was written.
func HandleMangaError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	for domainErr, m := range mangaErrorMap {
		if errors.Is(err, domainErr) {
			response.ErrorResponse(c, m.Status, m.Code, m.Message)
			return true
		}
	}

	// Unknown error: log details server-side, keep the body generic.
	logger.Error("unhandled manga error", err)
	response.InternalServerError(c, "Internal server error")
	return true
}
