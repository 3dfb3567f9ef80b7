package models

import (
	"time"
)

// DocumentRef describes an uploaded file attached to a proposal. The bytes
// live in the file store under StoredRef.
type DocumentRef struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Checksum    string    `json:"checksum"`
	StoredRef   string    `json:"stored_ref"`
	UploadedBy  string    `json:"uploaded_by"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// IsPDF reports whether the descriptor carries a PDF content type.
func (d DocumentRef) IsPDF() bool {
	return d.ContentType == "application/pdf"
}
