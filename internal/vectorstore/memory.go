package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/cloo-solutions/docvault/internal/domain"
)

// MemoryChunkStore is an in-memory ChunkStore used by unit tests and by
// the CLI when no vector database is configured.
type MemoryChunkStore struct {
	mu     sync.RWMutex
	chunks []domain.Chunk
}

func NewMemoryChunkStore() *MemoryChunkStore {
	return &MemoryChunkStore{}
}

func (s *MemoryChunkStore) Insert(ctx context.Context, chunks []domain.Chunk) error {
	for i := range chunks {
		if err := domain.ValidateChunkMetadata(chunks[i].Metadata); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, chunks...)
	return nil
}

func (s *MemoryChunkStore) DeleteWhere(ctx context.Context, f Filter) (int64, error) {
	if isEmptyFilter(f) {
		return 0, domain.NewDomainError(domain.ErrCodeValidation, "refusing unfiltered chunk delete")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.chunks[:0]
	var deleted int64
	for _, c := range s.chunks {
		if matchesFilter(c.Metadata, f) {
			deleted++
			continue
		}
		kept = append(kept, c)
	}
	s.chunks = kept
	return deleted, nil
}

func (s *MemoryChunkStore) Query(ctx context.Context, embedding []float32, topK int, f Filter) ([]Match, error) {
	if topK <= 0 {
		topK = defaultTopK
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]Match, 0, topK)
	for _, c := range s.chunks {
		if !matchesFilter(c.Metadata, f) {
			continue
		}
		matches = append(matches, Match{Chunk: c, Score: cosineSimilarity(embedding, c.Embedding)})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Len reports the number of stored chunks.
func (s *MemoryChunkStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

func isEmptyFilter(f Filter) bool {
	return f.ContentHash == "" && f.Filename == "" && f.BatchID == "" && !f.InConversation
}

func matchesFilter(m domain.ChunkMetadata, f Filter) bool {
	if f.ContentHash != "" && m.ContentHash != f.ContentHash {
		return false
	}
	if f.Filename != "" && m.Filename != f.Filename {
		return false
	}
	if f.BatchID != "" && m.BatchID != f.BatchID {
		return false
	}
	if f.InConversation && m.ConversationID != f.ConversationID {
		return false
	}
	return true
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
