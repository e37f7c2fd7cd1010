package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cloo-solutions/docvault/internal/domain"
	"github.com/cloo-solutions/docvault/internal/pagination"
)

// MemoryDocumentRepository is an in-memory registry with the same atomicity
// guarantees as the Postgres implementation. It backs unit tests and local
// development without a database.
type MemoryDocumentRepository struct {
	mu   sync.RWMutex
	docs map[string]*domain.Document // keyed by content hash
}

func NewMemoryDocumentRepository() *MemoryDocumentRepository {
	return &MemoryDocumentRepository{
		docs: make(map[string]*domain.Document),
	}
}

// Create is atomic with respect to concurrent creators: exactly one caller
// registers a given hash, the rest observe ErrDuplicateDocument.
func (r *MemoryDocumentRepository) Create(_ context.Context, d *domain.Document) error {
	if err := domain.ValidateDocument(d); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.docs[d.ContentHash]; exists {
		return domain.ErrDuplicateDocument
	}

	clone := *d
	r.docs[d.ContentHash] = &clone
	return nil
}

func (r *MemoryDocumentRepository) GetByHash(_ context.Context, hash string) (*domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.docs[hash]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	clone := *d
	return &clone, nil
}

func (r *MemoryDocumentRepository) ListByFilename(_ context.Context, filename string) ([]*domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*domain.Document
	for _, d := range r.docs {
		if d.Filename == filename {
			clone := *d
			results = append(results, &clone)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].UploadedAt.Before(results[j].UploadedAt)
	})
	return results, nil
}

func (r *MemoryDocumentRepository) ListByConversation(_ context.Context, conversationID string) ([]*domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*domain.Document
	for _, d := range r.docs {
		if d.ConversationID == conversationID {
			clone := *d
			results = append(results, &clone)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].UploadedAt.After(results[j].UploadedAt)
	})
	return results, nil
}

func (r *MemoryDocumentRepository) ListByConversationPage(ctx context.Context, conversationID string, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.Document], error) {
	if limit <= 0 {
		limit = 20
	}

	all, err := r.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].UploadedAt.Equal(all[j].UploadedAt) {
			return all[i].UploadedAt.After(all[j].UploadedAt)
		}
		return all[i].ContentHash > all[j].ContentHash
	})

	var docs []*domain.Document
	for _, d := range all {
		if cursor != nil {
			if d.UploadedAt.After(cursor.Timestamp) {
				continue
			}
			if d.UploadedAt.Equal(cursor.Timestamp) && d.ContentHash >= cursor.LastID {
				continue
			}
		}
		docs = append(docs, d)
		if len(docs) > limit {
			break
		}
	}

	hasMore := len(docs) > limit
	if hasMore {
		docs = docs[:limit]
	}

	var nextCursor string
	if hasMore && len(docs) > 0 {
		last := docs[len(docs)-1]
		nextCursor = pagination.EncodeCursor(last.ContentHash, last.UploadedAt)
	}

	return &pagination.PageResult[*domain.Document]{
		Items:   docs,
		Cursor:  nextCursor,
		HasMore: hasMore,
	}, nil
}

func (r *MemoryDocumentRepository) Update(_ context.Context, hash string, chunkCount int, lastIndexed time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.docs[hash]
	if !ok {
		return domain.ErrDocumentNotFound
	}
	d.ChunkCount = chunkCount
	d.LastIndexedAt = lastIndexed
	return nil
}

func (r *MemoryDocumentRepository) Delete(_ context.Context, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[hash]; !ok {
		return domain.ErrDocumentNotFound
	}
	delete(r.docs, hash)
	return nil
}
