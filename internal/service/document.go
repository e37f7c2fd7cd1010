package service

import (
	"context"
	"log"

	"github.com/cloo-solutions/docvault/internal/domain"
	"github.com/cloo-solutions/docvault/internal/pagination"
	"github.com/cloo-solutions/docvault/internal/telemetry"
	"github.com/cloo-solutions/docvault/internal/vectorstore"
)

// ArchivePresigner is implemented by archive backends that can hand out
// direct download URLs for archived originals.
type ArchivePresigner interface {
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
}

type ListDocumentsInput struct {
	ConversationID string
	Cursor         string
	Limit          int
}

type ListDocumentsOutput struct {
	Documents []*domain.Document
	Cursor    string
	HasMore   bool
}

// DocumentService serves the registry's read surface and full document
// removal.
type DocumentService struct {
	registry   DocumentRegistryInterface
	chunkStore vectorstore.ChunkStore
	archive    ArchiveStorageInterface
}

func NewDocumentService(registry DocumentRegistryInterface, chunkStore vectorstore.ChunkStore, archive ArchiveStorageInterface) *DocumentService {
	return &DocumentService{registry: registry, chunkStore: chunkStore, archive: archive}
}

func (s *DocumentService) GetByHash(ctx context.Context, hash string) (*domain.Document, error) {
	return s.registry.GetByHash(ctx, hash)
}

// ListByConversation lists the registered documents visible to a scope.
func (s *DocumentService) ListByConversation(ctx context.Context, conversationID string) ([]*domain.Document, error) {
	return s.registry.ListByConversation(ctx, conversationID)
}

// ListDocuments pages through a scope's registered documents, newest
// upload first.
func (s *DocumentService) ListDocuments(ctx context.Context, input ListDocumentsInput) (*ListDocumentsOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.ListDocuments", telemetry.SpanAttributes{
		ConversationID: input.ConversationID,
		Operation:      "list",
	})
	defer span.End()

	cursor, _ := pagination.DecodeCursor(input.Cursor)
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	result, err := s.registry.ListByConversationPage(ctx, input.ConversationID, cursor, limit)
	if err != nil {
		return nil, err
	}

	return &ListDocumentsOutput{
		Documents: result.Items,
		Cursor:    result.Cursor,
		HasMore:   result.HasMore,
	}, nil
}

// Versions lists every registered content version of a filename, oldest
// first.
func (s *DocumentService) Versions(ctx context.Context, filename string) ([]*domain.Document, error) {
	return s.registry.ListByFilename(ctx, filename)
}

// DownloadURL returns a direct URL for the archived original of a
// document, when the archive backend supports it.
func (s *DocumentService) DownloadURL(ctx context.Context, hash string) (string, error) {
	doc, err := s.registry.GetByHash(ctx, hash)
	if err != nil {
		return "", err
	}

	presigner, ok := s.archive.(ArchivePresigner)
	if !ok {
		return "", domain.NewDomainError(domain.ErrCodeValidation, "archive storage does not support downloads")
	}
	return presigner.GenerateDownloadURL(ctx, ArchiveKey(hash, doc.Filename))
}

// Delete removes a document completely: chunks first, then the registry
// row, then the archived original. The chunk delete is the one that must
// succeed; losing the registry row or the archive copy afterwards is
// logged and tolerated.
func (s *DocumentService) Delete(ctx context.Context, hash string) error {
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.Delete", telemetry.SpanAttributes{
		ContentHash: hash,
		Operation:   "delete",
	})
	defer span.End()

	doc, err := s.registry.GetByHash(ctx, hash)
	if err != nil {
		return err
	}

	if _, err := s.chunkStore.DeleteWhere(ctx, vectorstore.Filter{ContentHash: hash}); err != nil {
		return err
	}

	if err := s.registry.Delete(ctx, hash); err != nil && !domain.IsNotFound(err) {
		log.Printf("document: failed to remove registry record %s (chunks are gone): %v", hash, err)
	}

	if s.archive != nil {
		if err := s.archive.Delete(ctx, ArchiveKey(hash, doc.Filename)); err != nil {
			log.Printf("document: failed to remove archived original for %s: %v", hash, err)
		}
	}

	return nil
}
