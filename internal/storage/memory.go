package storage

import (
	"context"
	"sync"

	"github.com/cloo-solutions/docvault/internal/domain"
)

// MemoryArchive is an in-memory archive used by tests and by the CLI
// when no object storage is configured.
type MemoryArchive struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{objects: make(map[string][]byte)}
}

func (a *MemoryArchive) Put(ctx context.Context, key string, content []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	stored := make([]byte, len(content))
	copy(stored, content)
	a.objects[key] = stored
	return nil
}

func (a *MemoryArchive) Get(ctx context.Context, key string) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	content, ok := a.objects[key]
	if !ok {
		return nil, domain.ErrArchiveNotFound
	}
	out := make([]byte, len(content))
	copy(out, content)
	return out, nil
}

func (a *MemoryArchive) Delete(ctx context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.objects, key)
	return nil
}

// Len reports the number of stored objects.
func (a *MemoryArchive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.objects)
}
