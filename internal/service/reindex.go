package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cloo-solutions/docvault/internal/domain"
	"github.com/cloo-solutions/docvault/internal/telemetry"
	"github.com/cloo-solutions/docvault/internal/vectorstore"
)

// ReindexJobRepositoryInterface defines the queue of pending reindex work.
type ReindexJobRepositoryInterface interface {
	Create(ctx context.Context, job *domain.ReindexJob) error
	GetByID(ctx context.Context, id string) (*domain.ReindexJob, error)
}

// ReindexService rebuilds a document's chunk set from its archived
// original, picking up splitter, parser or embedding changes without a
// fresh upload.
type ReindexService struct {
	registry   DocumentRegistryInterface
	chunkStore vectorstore.ChunkStore
	archive    ArchiveStorageInterface
	jobRepo    ReindexJobRepositoryInterface
	ingest     *IngestService
	uuidGen    UUIDGenerator
}

func NewReindexService(
	registry DocumentRegistryInterface,
	chunkStore vectorstore.ChunkStore,
	archive ArchiveStorageInterface,
	jobRepo ReindexJobRepositoryInterface,
	ingest *IngestService,
) *ReindexService {
	return &ReindexService{
		registry:   registry,
		chunkStore: chunkStore,
		archive:    archive,
		jobRepo:    jobRepo,
		ingest:     ingest,
		uuidGen:    &DefaultUUIDGenerator{},
	}
}

// NewReindexServiceWithUUIDGen creates a ReindexService with a custom
// UUID generator (for testing).
func NewReindexServiceWithUUIDGen(
	registry DocumentRegistryInterface,
	chunkStore vectorstore.ChunkStore,
	archive ArchiveStorageInterface,
	jobRepo ReindexJobRepositoryInterface,
	ingest *IngestService,
	uuidGen UUIDGenerator,
) *ReindexService {
	s := NewReindexService(registry, chunkStore, archive, jobRepo, ingest)
	s.uuidGen = uuidGen
	return s
}

// Queue registers a pending reindex job for a document. The document must
// exist and archive storage must be configured, otherwise there is
// nothing to rebuild from.
func (s *ReindexService) Queue(ctx context.Context, hash string) (*domain.ReindexJob, error) {
	if s.archive == nil {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "archive storage is not configured, reindexing is unavailable")
	}

	doc, err := s.registry.GetByHash(ctx, hash)
	if err != nil {
		return nil, err
	}

	job := &domain.ReindexJob{
		ID:             s.uuidGen.NewString(),
		ContentHash:    doc.ContentHash,
		ConversationID: doc.ConversationID,
		Status:         domain.ReindexJobStatusPending,
		CreatedAt:      time.Now().UTC(),
	}
	if err := domain.ValidateReindexJob(job); err != nil {
		return nil, err
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to queue reindex job: %w", err)
	}
	return job, nil
}

// GetJob returns a reindex job by ID.
func (s *ReindexService) GetJob(ctx context.Context, id string) (*domain.ReindexJob, error) {
	return s.jobRepo.GetByID(ctx, id)
}

// Rebuild re-chunks and re-embeds a document from its archived bytes,
// replaces its live chunk set and refreshes the registry bookkeeping.
// Called by the background worker.
func (s *ReindexService) Rebuild(ctx context.Context, hash string) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "ReindexService.Rebuild", telemetry.SpanAttributes{
		ContentHash: hash,
		Operation:   "reindex",
	})
	defer span.End()

	doc, err := s.registry.GetByHash(ctx, hash)
	if err != nil {
		return 0, err
	}

	content, err := s.archive.Get(ctx, ArchiveKey(hash, doc.Filename))
	if err != nil {
		return 0, err
	}

	kind, err := domain.ClassifyFilename(doc.Filename)
	if err != nil {
		return 0, err
	}

	chunks, err := s.ingest.buildChunks(ctx, content, IngestInput{
		Filename:       doc.Filename,
		ConversationID: doc.ConversationID,
	}, kind, hash)
	if err != nil {
		return 0, err
	}

	// The old chunk set goes first so the replacement cannot double the
	// document's footprint on success.
	if _, err := s.chunkStore.DeleteWhere(ctx, vectorstore.Filter{ContentHash: hash}); err != nil {
		return 0, fmt.Errorf("failed to delete stale chunks: %w", err)
	}

	if err := s.chunkStore.Insert(ctx, chunks); err != nil {
		return 0, domain.NewChunkStoreError(err)
	}

	if err := s.registry.Update(ctx, hash, len(chunks), time.Now().UTC()); err != nil {
		return len(chunks), fmt.Errorf("chunks rebuilt but registry refresh failed: %w", err)
	}
	return len(chunks), nil
}
