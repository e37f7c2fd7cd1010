package vectorstore

import (
	"context"

	"github.com/cloo-solutions/docvault/internal/domain"
)

// Filter narrows chunk-store operations to chunks whose metadata matches
// every set field. ContentHash, Filename and BatchID are ignored when empty.
// The conversation match only applies when InConversation is true, because
// an empty ConversationID is itself meaningful: it selects globally scoped
// chunks rather than skipping the filter.
type Filter struct {
	ContentHash    string
	Filename       string
	BatchID        string
	ConversationID string
	InConversation bool
}

// Match is a retrieved chunk with its similarity score, higher is better.
type Match struct {
	Chunk domain.Chunk
	Score float64
}

// ChunkStore is the vector side of the dual-store layout. Implementations
// must apply conversation scoping inside the store so no caller can widen
// a query past its scope by accident.
type ChunkStore interface {
	Insert(ctx context.Context, chunks []domain.Chunk) error
	DeleteWhere(ctx context.Context, f Filter) (int64, error)
	Query(ctx context.Context, embedding []float32, topK int, f Filter) ([]Match, error)
}
