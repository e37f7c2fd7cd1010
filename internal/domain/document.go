package domain

import (
	"path"
	"strings"
	"time"
)

// Document represents one distinct content version in the registry.
// ContentHash is its identity; Filename is display-only and may be shared by
// multiple versions.
type Document struct {
	ContentHash    string
	Filename       string
	FileSize       int64
	ChunkCount     int
	ConversationID string // empty means unscoped
	UploadedAt     time.Time
	LastIndexedAt  time.Time
}

// FileKind classifies an upload for chunking purposes.
type FileKind string

const (
	// FileKindStructured covers formats whose parser preserves headings and
	// page locations. These go through the structured loader.
	FileKindStructured FileKind = "structured"
	// FileKindPlainText covers flat text, split by a sliding window.
	FileKindPlainText FileKind = "plain_text"
)

var structuredExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
}

var plainTextExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}

// ClassifyFilename returns the chunking classification for a filename, or
// ErrUnsupportedFileType if the extension is not recognized.
func ClassifyFilename(filename string) (FileKind, error) {
	ext := strings.ToLower(path.Ext(filename))
	switch {
	case structuredExtensions[ext]:
		return FileKindStructured, nil
	case plainTextExtensions[ext]:
		return FileKindPlainText, nil
	default:
		return "", ErrUnsupportedFileType
	}
}

// SupportedExtensions lists the upload extensions accepted at the API boundary.
func SupportedExtensions() []string {
	return []string{".pdf", ".doc", ".docx", ".xls", ".xlsx", ".txt", ".md"}
}

// ValidateDocument validates a Document instance before registry writes.
func ValidateDocument(d *Document) error {
	if d == nil {
		return NewDomainError(ErrCodeValidation, "document cannot be nil")
	}
	if d.ContentHash == "" {
		return ErrMissingContentHash
	}
	if d.Filename == "" {
		return ErrMissingFilename
	}
	if d.FileSize < 0 {
		return NewDomainError(ErrCodeValidation, "file size cannot be negative")
	}
	if d.ChunkCount < 0 {
		return NewDomainError(ErrCodeValidation, "chunk count cannot be negative")
	}
	return nil
}
