package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     FileKind
		wantErr  bool
	}{
		{name: "pdf is structured", filename: "report.pdf", want: FileKindStructured},
		{name: "docx is structured", filename: "notes.docx", want: FileKindStructured},
		{name: "xlsx is structured", filename: "budget.xlsx", want: FileKindStructured},
		{name: "uppercase extension", filename: "REPORT.PDF", want: FileKindStructured},
		{name: "txt is plain text", filename: "readme.txt", want: FileKindPlainText},
		{name: "md is plain text", filename: "design.md", want: FileKindPlainText},
		{name: "nested path uses last extension", filename: "a/b/c.report.txt", want: FileKindPlainText},
		{name: "unknown extension rejected", filename: "image.png", wantErr: true},
		{name: "no extension rejected", filename: "Makefile", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ClassifyFilename(tt.filename)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFileType)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateDocument(t *testing.T) {
	valid := func() *Document {
		return &Document{
			ContentHash:    "abc123",
			Filename:       "report.pdf",
			FileSize:       1024,
			ChunkCount:     4,
			ConversationID: "conv-1",
			UploadedAt:     time.Now().UTC(),
			LastIndexedAt:  time.Now().UTC(),
		}
	}

	t.Run("valid document", func(t *testing.T) {
		assert.NoError(t, ValidateDocument(valid()))
	})

	t.Run("nil document", func(t *testing.T) {
		assert.Error(t, ValidateDocument(nil))
	})

	t.Run("missing hash", func(t *testing.T) {
		d := valid()
		d.ContentHash = ""
		assert.ErrorIs(t, ValidateDocument(d), ErrMissingContentHash)
	})

	t.Run("missing filename", func(t *testing.T) {
		d := valid()
		d.Filename = ""
		assert.ErrorIs(t, ValidateDocument(d), ErrMissingFilename)
	})

	t.Run("negative size", func(t *testing.T) {
		d := valid()
		d.FileSize = -1
		assert.Error(t, ValidateDocument(d))
	})

	t.Run("empty conversation scope is allowed", func(t *testing.T) {
		d := valid()
		d.ConversationID = ""
		assert.NoError(t, ValidateDocument(d))
	})
}

func TestValidateChunkMetadata(t *testing.T) {
	valid := func() ChunkMetadata {
		return ChunkMetadata{
			SchemaVersion:  ChunkMetadataSchemaVersion,
			ContentHash:    "abc123",
			Filename:       "report.pdf",
			ConversationID: "conv-1",
			BatchID:        "batch-1",
			ChunkIndex:     0,
		}
	}

	t.Run("valid metadata", func(t *testing.T) {
		assert.NoError(t, ValidateChunkMetadata(valid()))
	})

	t.Run("wrong schema version", func(t *testing.T) {
		m := valid()
		m.SchemaVersion = 99
		assert.ErrorIs(t, ValidateChunkMetadata(m), ErrInvalidMetadataSchema)
	})

	t.Run("missing content hash", func(t *testing.T) {
		m := valid()
		m.ContentHash = ""
		assert.ErrorIs(t, ValidateChunkMetadata(m), ErrMissingContentHash)
	})
}

func TestDomainError(t *testing.T) {
	t.Run("formats code and message", func(t *testing.T) {
		err := NewDomainError("TEST_CODE", "something happened")
		assert.Equal(t, "[TEST_CODE] something happened", err.Error())
	})

	t.Run("wraps cause", func(t *testing.T) {
		cause := assert.AnError
		err := NewReadError(cause)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, ErrCodeReadFailure, err.Code)
	})
}
