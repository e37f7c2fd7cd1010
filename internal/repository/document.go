package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloo-solutions/docvault/internal/domain"
	"github.com/cloo-solutions/docvault/internal/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DocumentRepository is the registry of record for ingested content
// versions, keyed by content hash.
type DocumentRepository struct {
	db dbtx
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: pool}
}

func NewDocumentRepositoryWithTx(tx pgx.Tx) *DocumentRepository {
	return &DocumentRepository{db: tx}
}

// Create registers a new content version. The unique index on content_hash
// makes this the arbitration point for concurrent ingestions of identical
// bytes: exactly one Create wins, the rest observe ErrDuplicateDocument.
func (r *DocumentRepository) Create(ctx context.Context, d *domain.Document) error {
	if err := domain.ValidateDocument(d); err != nil {
		return err
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO documents (content_hash, filename, file_size, chunk_count, conversation_id, upload_timestamp, last_indexed_timestamp)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ContentHash, d.Filename, d.FileSize, d.ChunkCount, nullableString(d.ConversationID), d.UploadedAt, d.LastIndexedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateDocument
	}
	return err
}

func (r *DocumentRepository) GetByHash(ctx context.Context, hash string) (*domain.Document, error) {
	row := r.db.QueryRow(ctx,
		`SELECT content_hash, filename, file_size, chunk_count, conversation_id, upload_timestamp, last_indexed_timestamp
		 FROM documents WHERE content_hash = $1`,
		hash,
	)
	d, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	return d, nil
}

// ListByFilename returns every registered version carrying the filename,
// oldest first, for version auditing.
func (r *DocumentRepository) ListByFilename(ctx context.Context, filename string) ([]*domain.Document, error) {
	rows, err := r.db.Query(ctx,
		`SELECT content_hash, filename, file_size, chunk_count, conversation_id, upload_timestamp, last_indexed_timestamp
		 FROM documents WHERE filename = $1 ORDER BY upload_timestamp ASC`,
		filename,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocumentRows(rows)
}

func (r *DocumentRepository) ListByConversation(ctx context.Context, conversationID string) ([]*domain.Document, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if conversationID == "" {
		rows, err = r.db.Query(ctx,
			`SELECT content_hash, filename, file_size, chunk_count, conversation_id, upload_timestamp, last_indexed_timestamp
			 FROM documents WHERE conversation_id IS NULL ORDER BY upload_timestamp DESC`,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT content_hash, filename, file_size, chunk_count, conversation_id, upload_timestamp, last_indexed_timestamp
			 FROM documents WHERE conversation_id = $1 ORDER BY upload_timestamp DESC`,
			conversationID,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocumentRows(rows)
}

// ListByConversationPage pages a scope's documents newest first, keyed on
// (upload_timestamp, content_hash).
func (r *DocumentRepository) ListByConversationPage(ctx context.Context, conversationID string, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.Document], error) {
	if limit <= 0 {
		limit = 20
	}

	scopeCond := `conversation_id = $1`
	args := []interface{}{conversationID}
	if conversationID == "" {
		scopeCond = `conversation_id IS NULL`
		args = nil
	}

	query := `SELECT content_hash, filename, file_size, chunk_count, conversation_id, upload_timestamp, last_indexed_timestamp
		 FROM documents WHERE ` + scopeCond
	if cursor != nil {
		query += fmt.Sprintf(` AND (upload_timestamp, content_hash) < ($%d, $%d)`, len(args)+1, len(args)+2)
		args = append(args, cursor.Timestamp, cursor.LastID)
	}
	query += fmt.Sprintf(` ORDER BY upload_timestamp DESC, content_hash DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit+1)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs, err := scanDocumentRows(rows)
	if err != nil {
		return nil, err
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

// Update refreshes the mutable indexing fields for an existing hash. The
// hash itself is immutable identity and is never rewritten.
func (r *DocumentRepository) Update(ctx context.Context, hash string, chunkCount int, lastIndexed time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE documents SET chunk_count = $1, last_indexed_timestamp = $2 WHERE content_hash = $3`,
		chunkCount, lastIndexed, hash,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *DocumentRepository) Delete(ctx context.Context, hash string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM documents WHERE content_hash = $1`, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var d domain.Document
	var conversationID *string
	err := row.Scan(&d.ContentHash, &d.Filename, &d.FileSize, &d.ChunkCount, &conversationID, &d.UploadedAt, &d.LastIndexedAt)
	if err != nil {
		return nil, err
	}
	if conversationID != nil {
		d.ConversationID = *conversationID
	}
	return &d, nil
}

func scanDocumentRows(rows pgx.Rows) ([]*domain.Document, error) {
	var results []*domain.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, d)
	}
	return results, rows.Err()
}
