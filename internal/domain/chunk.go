package domain

import "time"

// ChunkMetadataSchemaVersion identifies the current shape of ChunkMetadata as
// stored in the chunk store. Bump when fields change meaning, so stale rows
// can be recognized instead of silently misread.
const ChunkMetadataSchemaVersion = 1

// ChunkMetadata mirrors the owning Document's registry fields into the chunk
// store, plus chunk-local structure. It is the typed boundary contract: chunk
// store adapters persist exactly these fields, never loose key-value blobs.
type ChunkMetadata struct {
	SchemaVersion  int
	ContentHash    string
	Filename       string
	ConversationID string
	// BatchID identifies the ingestion run that produced the chunk. Race
	// losers delete their own writes by this ID.
	BatchID       string
	ChunkIndex    int
	Headings      []string
	Page          int // 0 when the source has no pages
	UploadedAt    time.Time
	LastIndexedAt time.Time
}

// Chunk is one retrievable unit: content, its embedding vector, and the
// metadata that scopes it.
type Chunk struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  ChunkMetadata
}

// ValidateChunkMetadata rejects metadata the chunk store should never see.
func ValidateChunkMetadata(m ChunkMetadata) error {
	if m.SchemaVersion != ChunkMetadataSchemaVersion {
		return ErrInvalidMetadataSchema
	}
	if m.ContentHash == "" {
		return ErrMissingContentHash
	}
	if m.Filename == "" {
		return ErrMissingFilename
	}
	return nil
}
