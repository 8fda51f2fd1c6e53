package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type CreateMangaRequest struct {
	Title    string   `json:"title" binding:"required"`
	Synopsis string   `json:"synopsis,omitempty"`
	Genres   []string `json:"genres,omitempty"`
	Status   string   `json:"status,omitempty"`
}

func (r CreateMangaRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title,
			validation.Required.Error("title is required"),
			validation.Length(1, 255),
		),
		validation.Field(&r.Synopsis,
			validation.Length(0, 5000),
		),
		validation.Field(&r.Genres,
			validation.Each(validation.Length(1, 50)),
		),
		validation.Field(&r.Status,
			validation.In(StatusOngoing, StatusCompleted, StatusPaused).
				Error("status must be one of: ongoing, completed, paused"),
		),
	)
}

// UpdateMangaRequest carries metadata changes only. The slug is derived
// once at creation and never regenerated, so stored page and cover URLs
// stay valid.
type UpdateMangaRequest struct {
	Title    *string  `json:"title,omitempty"`
	Synopsis *string  `json:"synopsis,omitempty"`
	Genres   []string `json:"genres,omitempty"`
	Status   *string  `json:"status,omitempty"`
}

func (r UpdateMangaRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title,
			validation.NilOrNotEmpty.Error("title must not be empty"),
			validation.Length(1, 255),
		),
		validation.Field(&r.Genres,
			validation.Each(validation.Length(1, 50)),
		),
		validation.Field(&r.Status,
			validation.When(r.Status != nil,
				validation.By(func(value interface{}) error {
					if s, ok := value.(*string); ok && s != nil && !ValidStatus(*s) {
						return ErrInvalidStatus
					}
					return nil
				}),
			),
		),
	)
}

// CoverUploadResponse mirrors the original public contract for cover
// uploads.
type CoverUploadResponse struct {
	OK       bool   `json:"ok"`
	CoverURL string `json:"coverUrl"`
}
