package vectorstore

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/docvault/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

const defaultTopK = 5

// PgVectorStore keeps chunks and their embeddings in a Postgres instance
// with the pgvector extension. It runs on its own pool so the chunk store
// and the registry can fail independently.
type PgVectorStore struct {
	pool *pgxpool.Pool
}

func NewPgVectorStore(pool *pgxpool.Pool) *PgVectorStore {
	return &PgVectorStore{pool: pool}
}

func (s *PgVectorStore) Insert(ctx context.Context, chunks []domain.Chunk) error {
	for _, c := range chunks {
		if err := domain.ValidateChunkMetadata(c.Metadata); err != nil {
			return err
		}
		_, err := s.pool.Exec(ctx,
			`INSERT INTO document_chunks
				(id, content, embedding, schema_version, content_hash, filename, conversation_id, batch_id, chunk_index, headings, page, uploaded_at, last_indexed_at)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			c.ID,
			c.Content,
			pgvector.NewVector(c.Embedding),
			c.Metadata.SchemaVersion,
			c.Metadata.ContentHash,
			c.Metadata.Filename,
			nullableConversation(c.Metadata.ConversationID),
			c.Metadata.BatchID,
			c.Metadata.ChunkIndex,
			c.Metadata.Headings,
			c.Metadata.Page,
			c.Metadata.UploadedAt,
			c.Metadata.LastIndexedAt,
		)
		if err != nil {
			return domain.NewChunkStoreError(err)
		}
	}
	return nil
}

func (s *PgVectorStore) DeleteWhere(ctx context.Context, f Filter) (int64, error) {
	where, args := compileFilter(f, 1)
	if where == "" {
		return 0, domain.NewDomainError(domain.ErrCodeValidation, "refusing unfiltered chunk delete")
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM document_chunks WHERE `+where, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PgVectorStore) Query(ctx context.Context, embedding []float32, topK int, f Filter) ([]Match, error) {
	if topK <= 0 {
		topK = defaultTopK
	}

	vec := pgvector.NewVector(embedding)
	where, filterArgs := compileFilter(f, 2)
	args := append([]interface{}{vec}, filterArgs...)

	query := `
		SELECT id, content, schema_version, content_hash, filename, conversation_id, batch_id, chunk_index, headings, page, uploaded_at, last_indexed_at,
		       1.0 / (1.0 + (embedding <=> $1)) AS score
		FROM document_chunks`
	if where != "" {
		query += ` WHERE ` + where
	}
	query += fmt.Sprintf(` ORDER BY score DESC LIMIT %d`, topK)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]Match, 0, topK)
	for rows.Next() {
		var m Match
		var conversationID *string
		if err := rows.Scan(
			&m.Chunk.ID,
			&m.Chunk.Content,
			&m.Chunk.Metadata.SchemaVersion,
			&m.Chunk.Metadata.ContentHash,
			&m.Chunk.Metadata.Filename,
			&conversationID,
			&m.Chunk.Metadata.BatchID,
			&m.Chunk.Metadata.ChunkIndex,
			&m.Chunk.Metadata.Headings,
			&m.Chunk.Metadata.Page,
			&m.Chunk.Metadata.UploadedAt,
			&m.Chunk.Metadata.LastIndexedAt,
			&m.Score,
		); err != nil {
			return nil, err
		}
		if conversationID != nil {
			m.Chunk.Metadata.ConversationID = *conversationID
		}
		matches = append(matches, m)
	}

	return matches, rows.Err()
}

// compileFilter renders the set fields of f as an AND-joined WHERE fragment
// with placeholders starting at argOffset.
func compileFilter(f Filter, argOffset int) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	add := func(column string, value interface{}) {
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, argOffset+len(args)))
		args = append(args, value)
	}

	if f.ContentHash != "" {
		add("content_hash", f.ContentHash)
	}
	if f.Filename != "" {
		add("filename", f.Filename)
	}
	if f.BatchID != "" {
		add("batch_id", f.BatchID)
	}
	if f.InConversation {
		if f.ConversationID == "" {
			clauses = append(clauses, "conversation_id IS NULL")
		} else {
			add("conversation_id", f.ConversationID)
		}
	}

	if len(clauses) == 0 {
		return "", nil
	}

	where := clauses[0]
	for _, c := range clauses[1:] {
		where += " AND " + c
	}
	return where, args
}

func nullableConversation(conversationID string) *string {
	if conversationID == "" {
		return nil
	}
	return &conversationID
}
