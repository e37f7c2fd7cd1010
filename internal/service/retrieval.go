package service

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/docvault/internal/telemetry"
	"github.com/cloo-solutions/docvault/internal/vectorstore"
)

// DefaultTopK is the number of chunks returned when the caller does not
// override it. MaxTopK caps caller-supplied values before they reach the
// store's LIMIT.
const (
	DefaultTopK = 5
	MaxTopK     = 50
)

// RetrievedChunk is one ranked result of a retrieval query.
type RetrievedChunk struct {
	Content     string
	Score       float64
	ContentHash string
	Filename    string
	ChunkIndex  int
	Headings    []string
	Page        int
}

// RetrievalService embeds a query and runs a conversation-scoped
// similarity search against the chunk store.
type RetrievalService struct {
	chunkStore vectorstore.ChunkStore
	embedder   EmbeddingClientInterface
}

func NewRetrievalService(chunkStore vectorstore.ChunkStore, embedder EmbeddingClientInterface) *RetrievalService {
	return &RetrievalService{chunkStore: chunkStore, embedder: embedder}
}

// Retrieve returns the topK chunks nearest to query within the
// conversation scope. The scope filter is applied inside the chunk store;
// an empty scope yields an empty result, never an error.
func (s *RetrievalService) Retrieve(ctx context.Context, query, conversationID string, topK int) ([]RetrievedChunk, error) {
	ctx, span := telemetry.StartSpan(ctx, "RetrievalService.Retrieve", telemetry.SpanAttributes{
		ConversationID: conversationID,
		Operation:      "retrieve",
	})
	defer span.End()

	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}

	embedding, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := s.chunkStore.Query(ctx, embedding, topK, vectorstore.Filter{
		ConversationID: conversationID,
		InConversation: true,
	})
	if err != nil {
		return nil, fmt.Errorf("chunk store query failed: %w", err)
	}

	results := make([]RetrievedChunk, 0, len(matches))
	for _, m := range matches {
		results = append(results, RetrievedChunk{
			Content:     m.Chunk.Content,
			Score:       m.Score,
			ContentHash: m.Chunk.Metadata.ContentHash,
			Filename:    m.Chunk.Metadata.Filename,
			ChunkIndex:  m.Chunk.Metadata.ChunkIndex,
			Headings:    m.Chunk.Metadata.Headings,
			Page:        m.Chunk.Metadata.Page,
		})
	}
	return results, nil
}
