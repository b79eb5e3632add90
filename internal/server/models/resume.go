package models

import "time"

// Resume upload statuses.
const (
	UploadPending  = "pending"
	UploadUploaded = "uploaded"
)

// Resume is the metadata row for an uploaded resume artifact. The file body
// lives in object storage under StorageKey; this record only carries the
// display fields joined into session summaries.
type Resume struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	Filename     string    `json:"filename"`
	StorageKey   string    `json:"-"`
	MimeType     string    `json:"mime_type,omitempty"`
	SizeBytes    int64     `json:"size_bytes,omitempty"`
	UploadStatus string    `json:"upload_status"`
	CreatedAt    time.Time `json:"created_at"`
}
