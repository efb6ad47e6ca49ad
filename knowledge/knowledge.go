package knowledge

import (
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/serenitystar/core"
)

// Status is the processing state of an uploaded knowledge item.
type Status string

const (
	StatusAnalyzing Status = "analyzing"
	StatusInvalid   Status = "invalid"
	StatusSuccess   Status = "success"
	StatusError     Status = "error"
	StatusExpired   Status = "expired"
)

// Ready reports whether the item has been processed and can be used.
func (s Status) Ready() bool { return s == StatusSuccess }

// Final reports whether the item reached a state it will not leave.
func (s Status) Final() bool { return s != StatusAnalyzing }

// UploadRequest carries the payload of one upload. Exactly one of Content or
// File must be set; File requires FileName.
type UploadRequest struct {
	Content     string
	File        io.Reader
	FileName    string
	CallbackURL string
}

// Validate checks the request without touching the network.
func (r UploadRequest) Validate() error {
	hasContent := r.Content != ""
	hasFile := r.File != nil
	switch {
	case hasContent && hasFile:
		return core.NewValidationError("upload", "content and file are mutually exclusive")
	case !hasContent && !hasFile:
		return core.NewValidationError("upload", "either content or file must be provided")
	case hasFile && r.FileName == "":
		return core.NewValidationError("fileName", "a file name is required when uploading a file")
	case hasFile:
		if _, err := ContentType(r.FileName); err != nil {
			return err
		}
	}
	return nil
}

// UploadOptions controls server side processing of an upload.
type UploadOptions struct {
	// ProcessEmbeddings asks the service to embed the content. Defaults to true.
	ProcessEmbeddings bool
	// NoExpiration keeps the item until it is deleted explicitly.
	NoExpiration bool
	// ExpirationDays overrides the default retention.
	ExpirationDays *int
}

// DefaultUploadOptions returns the options used when none are given.
func DefaultUploadOptions() UploadOptions {
	return UploadOptions{ProcessEmbeddings: true}
}

// Knowledge describes an uploaded item.
type Knowledge struct {
	ID             uuid.UUID  `json:"id"`
	ExpirationDate *time.Time `json:"expirationDate,omitempty"`
	Status         Status     `json:"status"`
	FileName       string     `json:"fileName,omitempty"`
	FileSize       *int64     `json:"fileSize,omitempty"`
	FileID         *uuid.UUID `json:"fileId,omitempty"`
	Error          string     `json:"error,omitempty"`
}
