package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/cloo-solutions/docvault/internal/domain"
	"github.com/cloo-solutions/docvault/internal/hasher"
	"github.com/cloo-solutions/docvault/internal/loader"
	"github.com/cloo-solutions/docvault/internal/pagination"
	"github.com/cloo-solutions/docvault/internal/splitter"
	"github.com/cloo-solutions/docvault/internal/telemetry"
	"github.com/cloo-solutions/docvault/internal/vectorstore"
	"github.com/google/uuid"
)

// DocumentRegistryInterface defines the registry side of the dual-store
// layout: structured metadata keyed by content hash.
type DocumentRegistryInterface interface {
	Create(ctx context.Context, d *domain.Document) error
	GetByHash(ctx context.Context, hash string) (*domain.Document, error)
	ListByFilename(ctx context.Context, filename string) ([]*domain.Document, error)
	ListByConversation(ctx context.Context, conversationID string) ([]*domain.Document, error)
	ListByConversationPage(ctx context.Context, conversationID string, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.Document], error)
	Update(ctx context.Context, hash string, chunkCount int, lastIndexedAt time.Time) error
	Delete(ctx context.Context, hash string) error
}

// EmbeddingClientInterface defines the embedding collaborator. The same
// client embeds documents at ingest time and queries at retrieval time.
type EmbeddingClientInterface interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// DocumentLoaderInterface is the structure-aware parser for PDF and
// office formats.
type DocumentLoaderInterface interface {
	Load(ctx context.Context, content []byte, filename string) ([]loader.Segment, error)
}

// ArchiveStorageInterface stores the raw uploaded bytes so documents can
// be re-chunked and re-embedded without a fresh upload.
type ArchiveStorageInterface interface {
	Put(ctx context.Context, key string, content []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// Outcome classifies what an ingestion did.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeSkipped Outcome = "duplicate"
)

// IngestInput represents one document submission.
type IngestInput struct {
	Content        io.Reader
	Filename       string
	ConversationID string
}

// IngestResult reports what happened to a submission.
type IngestResult struct {
	Outcome     Outcome
	ContentHash string
	Filename    string
	ChunkCount  int
	FileSize    int64
}

// IngestService runs the ingestion pipeline: hash, duplicate check,
// supersession, chunk, embed, store.
type IngestService struct {
	registry   DocumentRegistryInterface
	chunkStore vectorstore.ChunkStore
	embedder   EmbeddingClientInterface
	docLoader  DocumentLoaderInterface
	splitter   *splitter.Splitter
	archive    ArchiveStorageInterface
	uuidGen    UUIDGenerator
}

// NewIngestService creates an IngestService. docLoader and archive may be
// nil: without a loader, structured formats are rejected; without archive
// storage, originals are not retained and reindexing is unavailable.
func NewIngestService(
	registry DocumentRegistryInterface,
	chunkStore vectorstore.ChunkStore,
	embedder EmbeddingClientInterface,
	docLoader DocumentLoaderInterface,
	archive ArchiveStorageInterface,
) *IngestService {
	return &IngestService{
		registry:   registry,
		chunkStore: chunkStore,
		embedder:   embedder,
		docLoader:  docLoader,
		splitter:   splitter.New(splitter.DefaultConfig()),
		archive:    archive,
		uuidGen:    &DefaultUUIDGenerator{},
	}
}

// NewIngestServiceWithUUIDGen creates an IngestService with a custom UUID
// generator (for testing).
func NewIngestServiceWithUUIDGen(
	registry DocumentRegistryInterface,
	chunkStore vectorstore.ChunkStore,
	embedder EmbeddingClientInterface,
	docLoader DocumentLoaderInterface,
	archive ArchiveStorageInterface,
	uuidGen UUIDGenerator,
) *IngestService {
	s := NewIngestService(registry, chunkStore, embedder, docLoader, archive)
	s.uuidGen = uuidGen
	return s
}

// Ingest runs the full pipeline for one submission.
//
// Failure policy: a read failure or a chunk-store insert failure is fatal
// and aborts the ingestion with no registry write. Registry writes and
// chunk deletions are best-effort: the chunk store is the source of truth
// for indexed content, so a registry outage degrades bookkeeping, not
// retrieval.
func (s *IngestService) Ingest(ctx context.Context, input IngestInput) (*IngestResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.Ingest", telemetry.SpanAttributes{
		ConversationID: input.ConversationID,
		Filename:       input.Filename,
		Operation:      "ingest",
	})
	defer span.End()

	kind, err := domain.ClassifyFilename(input.Filename)
	if err != nil {
		return nil, err
	}
	if kind == domain.FileKindStructured && s.docLoader == nil {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "structured document parsing is not configured")
	}

	content, err := io.ReadAll(input.Content)
	if err != nil {
		return nil, domain.NewReadError(err)
	}
	if len(content) == 0 {
		return nil, domain.ErrEmptyDocument
	}

	hash := hasher.HashBytes(content)
	fileSize := int64(len(content))

	// Identical bytes already indexed for this scope: nothing to do.
	existing, err := s.registry.GetByHash(ctx, hash)
	if err != nil && !domain.IsNotFound(err) {
		log.Printf("ingest: registry lookup for %s failed, proceeding without duplicate check: %v", hash, err)
	}
	if existing != nil && existing.ConversationID == input.ConversationID {
		return &IngestResult{
			Outcome:     OutcomeSkipped,
			ContentHash: hash,
			Filename:    existing.Filename,
			ChunkCount:  existing.ChunkCount,
			FileSize:    existing.FileSize,
		}, nil
	}

	// Same filename in the same scope with a different hash means this
	// upload supersedes those versions. Their chunks are removed before
	// re-indexing; a failed delete is logged and the update proceeds,
	// duplicate stale chunks being preferable to blocking the upload.
	superseded := s.supersedePriors(ctx, hash, input.Filename, input.ConversationID)

	chunks, err := s.buildChunks(ctx, content, input, kind, hash)
	if err != nil {
		return nil, err
	}

	if err := s.chunkStore.Insert(ctx, chunks); err != nil {
		return nil, domain.NewChunkStoreError(err)
	}

	if s.archive != nil {
		if archiveErr := s.archive.Put(ctx, ArchiveKey(hash, input.Filename), content); archiveErr != nil {
			log.Printf("ingest: failed to archive original for %s: %v", hash, archiveErr)
		}
	}

	outcome := s.writeRegistry(ctx, existing, superseded, hash, input, fileSize, len(chunks))
	if outcome == OutcomeSkipped {
		// A concurrent ingestion of the same bytes won the registry
		// race. Our chunk batch is redundant; remove it.
		batchID := chunks[0].Metadata.BatchID
		if _, delErr := s.chunkStore.DeleteWhere(ctx, vectorstore.Filter{BatchID: batchID}); delErr != nil {
			log.Printf("ingest: failed to remove redundant chunk batch %s: %v", batchID, delErr)
		}
		winner, getErr := s.registry.GetByHash(ctx, hash)
		if getErr == nil {
			return &IngestResult{
				Outcome:     OutcomeSkipped,
				ContentHash: hash,
				Filename:    winner.Filename,
				ChunkCount:  winner.ChunkCount,
				FileSize:    winner.FileSize,
			}, nil
		}
		return &IngestResult{Outcome: OutcomeSkipped, ContentHash: hash, Filename: input.Filename, ChunkCount: len(chunks), FileSize: fileSize}, nil
	}

	return &IngestResult{
		Outcome:     outcome,
		ContentHash: hash,
		Filename:    input.Filename,
		ChunkCount:  len(chunks),
		FileSize:    fileSize,
	}, nil
}

// supersedePriors removes the chunks of prior versions sharing the
// filename and scope, and reports their hashes.
func (s *IngestService) supersedePriors(ctx context.Context, newHash, filename, conversationID string) []string {
	priors, err := s.registry.ListByFilename(ctx, filename)
	if err != nil {
		log.Printf("ingest: prior-version lookup for %q failed, skipping supersession: %v", filename, err)
		return nil
	}

	var superseded []string
	for _, prior := range priors {
		if prior.ConversationID != conversationID || prior.ContentHash == newHash {
			continue
		}
		_, err := s.chunkStore.DeleteWhere(ctx, vectorstore.Filter{
			ContentHash:    prior.ContentHash,
			Filename:       filename,
			ConversationID: conversationID,
			InConversation: true,
		})
		if err != nil {
			log.Printf("ingest: failed to delete superseded chunks for %s: %v", prior.ContentHash, err)
		}
		superseded = append(superseded, prior.ContentHash)
	}
	return superseded
}

// buildChunks splits or parses the content and embeds every piece.
func (s *IngestService) buildChunks(ctx context.Context, content []byte, input IngestInput, kind domain.FileKind, hash string) ([]domain.Chunk, error) {
	now := time.Now().UTC()
	batchID := s.uuidGen.NewString()

	var segments []loader.Segment
	if kind == domain.FileKindStructured {
		parsed, err := s.docLoader.Load(ctx, content, input.Filename)
		if err != nil {
			return nil, fmt.Errorf("failed to parse structured document: %w", err)
		}
		segments = parsed
	} else {
		for _, piece := range s.splitter.Split(string(content)) {
			segments = append(segments, loader.Segment{Text: piece})
		}
	}
	if len(segments) == 0 {
		return nil, domain.ErrEmptyDocument
	}

	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}

	embeddings, err := s.embedder.GenerateEmbeddings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed document chunks: %w", err)
	}

	chunks := make([]domain.Chunk, len(segments))
	for i, seg := range segments {
		chunks[i] = domain.Chunk{
			ID:        s.uuidGen.NewString(),
			Content:   seg.Text,
			Embedding: embeddings[i],
			Metadata: domain.ChunkMetadata{
				SchemaVersion:  domain.ChunkMetadataSchemaVersion,
				ContentHash:    hash,
				Filename:       input.Filename,
				ConversationID: input.ConversationID,
				BatchID:        batchID,
				ChunkIndex:     i,
				Headings:       seg.Headings,
				Page:           seg.Page,
				UploadedAt:     now,
				LastIndexedAt:  now,
			},
		}
	}
	return chunks, nil
}

// writeRegistry records the ingestion after the chunk store accepted the
// batch. All registry failures here are logged and swallowed, except the
// duplicate-hash signal which marks a lost race.
func (s *IngestService) writeRegistry(ctx context.Context, existing *domain.Document, superseded []string, hash string, input IngestInput, fileSize int64, chunkCount int) Outcome {
	now := time.Now().UTC()

	// Same hash already registered under another scope: the content was
	// re-indexed for this scope, refresh the bookkeeping on the row. The
	// superseded rows still have to go; their chunks are already gone.
	if existing != nil {
		if err := s.registry.Update(ctx, hash, chunkCount, now); err != nil {
			log.Printf("ingest: failed to refresh registry record for %s: %v", hash, err)
		}
		s.removeSupersededRows(ctx, superseded)
		return OutcomeUpdated
	}

	doc := &domain.Document{
		ContentHash:    hash,
		Filename:       input.Filename,
		FileSize:       fileSize,
		ChunkCount:     chunkCount,
		ConversationID: input.ConversationID,
		UploadedAt:     now,
		LastIndexedAt:  now,
	}
	if err := s.registry.Create(ctx, doc); err != nil {
		if domain.IsDuplicate(err) {
			return OutcomeSkipped
		}
		log.Printf("ingest: failed to register document %s (chunks are indexed): %v", hash, err)
	}

	s.removeSupersededRows(ctx, superseded)

	if len(superseded) > 0 {
		return OutcomeUpdated
	}
	return OutcomeCreated
}

// removeSupersededRows clears the registry rows of versions whose chunks
// were deleted during supersession. A surviving row would advertise
// content with no live chunk set and hijack later duplicate checks.
func (s *IngestService) removeSupersededRows(ctx context.Context, superseded []string) {
	for _, priorHash := range superseded {
		if err := s.registry.Delete(ctx, priorHash); err != nil && !domain.IsNotFound(err) {
			log.Printf("ingest: failed to remove superseded registry record %s: %v", priorHash, err)
		}
	}
}

// ArchiveKey is the storage key for a document's original bytes.
func ArchiveKey(hash, filename string) string {
	return fmt.Sprintf("docs/%s/%s", hash, filename)
}
