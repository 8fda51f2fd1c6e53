package model

import (
	"errors"
	"fmt"
	"net/http"

	"mangazinho-backend/internal/shared/response"
	"mangazinho-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

var (
	ErrMangaNotFound   = errors.New("manga not found")
	ErrChapterNotFound = errors.New("chapter not found")
	ErrChapterExists   = errors.New("chapter number already exists for this manga")
	ErrNoFiles         = errors.New("send files in the 'pages' field")
	ErrTooManyFiles    = errors.New("too many files in one batch")
	ErrStorageWrite    = errors.New("failed to write file to storage")
)

// BatchValidationError pinpoints the file that failed pre-write
// validation. The whole batch is rejected before anything is written.
type BatchValidationError struct {
	Index    int    `json:"index"`
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

type BatchValidationErrors struct {
	Errors []BatchValidationError `json:"errors"`
}

func (e *BatchValidationErrors) Error() string {
	return fmt.Sprintf("upload batch rejected: %d invalid file(s)", len(e.Errors))
}

var chapterErrorMap = map[error]struct {
	Status  int
	Code    string
	Message string
}{
	ErrMangaNotFound:   {http.StatusNotFound, "NOT_FOUND", "Manga not found"},
	ErrChapterNotFound: {http.StatusNotFound, "NOT_FOUND", "Chapter not found"},
	ErrChapterExists:   {http.StatusConflict, "CONFLICT", "Chapter number already exists for this manga"},
	ErrNoFiles:         {http.StatusBadRequest, "VALIDATION_ERROR", "Send files in the 'pages' field"},
	ErrTooManyFiles:    {http.StatusBadRequest, "VALIDATION_ERROR", "Too many files in one batch"},
	ErrStorageWrite:    {http.StatusInternalServerError, "STORAGE_ERROR", "Failed to store uploaded pages"},
}

// HandleChapterError maps a domain error to an HTTP response. Returns
// true when an error response was written.
func HandleChapterError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var batchErr *BatchValidationErrors
	if errors.As(err, &batchErr) {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR",
			"One or more files are invalid; nothing was uploaded", batchErr.Errors)
		return true
	}

	for domainErr, m := range chapterErrorMap {
		if errors.Is(err, domainErr) {
			response.ErrorResponse(c, m.Status, m.Code, m.Message)
			return true
		}
	}

	logger.Error("unhandled chapter error", err)
	response.InternalServerError(c, "Internal server error")
	return true
}
