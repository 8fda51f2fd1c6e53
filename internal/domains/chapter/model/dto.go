package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type CreateChapterRequest struct {
	Number int    `json:"number" binding:"required"`
	Title  string `json:"title,omitempty"`
}

func (r CreateChapterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Number,
			validation.Required.Error("number is required"),
			validation.Min(1).Error("number must be a positive integer"),
		),
		validation.Field(&r.Title,
			validation.Length(0, 255),
		),
	)
}

// UploadFile is one file of an upload batch as handed from the HTTP
// handler to the ingestion pipeline.
type UploadFile struct {
	Filename string
	MIME     string // declared Content-Type of the multipart part
	Size     int64
	Data     []byte
}

// PageListResponse is the payload for both the upload result and the
// page listing: the chapter's full page set in reading order.
type PageListResponse struct {
	ChapterID int64  `json:"chapterId"`
	Total     int    `json:"total"`
	Images    []Page `json:"images"`
}
