package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cloo-solutions/docvault/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReindexJobRepository struct {
	db dbtx
}

func NewReindexJobRepository(pool *pgxpool.Pool) *ReindexJobRepository {
	return &ReindexJobRepository{db: pool}
}

func NewReindexJobRepositoryWithTx(tx pgx.Tx) *ReindexJobRepository {
	return &ReindexJobRepository{db: tx}
}

func (r *ReindexJobRepository) Create(ctx context.Context, job *domain.ReindexJob) error {
	if err := domain.ValidateReindexJob(job); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO reindex_jobs (id, content_hash, conversation_id, status, retries, error, created_at, processed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		job.ID, job.ContentHash, nullableString(job.ConversationID), job.Status, job.Retries, job.Error, job.CreatedAt, job.ProcessedAt,
	)
	return err
}

func (r *ReindexJobRepository) GetByID(ctx context.Context, id string) (*domain.ReindexJob, error) {
	var job domain.ReindexJob
	var conversationID, errMsg pgtype.Text
	err := r.db.QueryRow(ctx,
		`SELECT id, content_hash, conversation_id, status, retries, error, created_at, processed_at
		 FROM reindex_jobs WHERE id = $1`,
		id,
	).Scan(&job.ID, &job.ContentHash, &conversationID, &job.Status, &job.Retries, &errMsg, &job.CreatedAt, &job.ProcessedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReindexJobNotFound
		}
		return nil, err
	}
	if conversationID.Valid {
		job.ConversationID = conversationID.String
	}
	if errMsg.Valid {
		job.Error = errMsg.String
	}
	return &job, nil
}

// GetPendingJobs claims up to limit pending jobs by flipping them to
// processing in the same statement, so concurrent workers never double-claim.
func (r *ReindexJobRepository) GetPendingJobs(ctx context.Context, limit int) ([]*domain.ReindexJob, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.Query(ctx,
		`WITH cte AS (
			 SELECT id
			 FROM reindex_jobs
			 WHERE status = $1
			 ORDER BY created_at ASC
			 FOR UPDATE SKIP LOCKED
			 LIMIT $2
		 )
		 UPDATE reindex_jobs
		 SET status = $3,
		     error = '',
		     processed_at = NULL
		 FROM cte
		 WHERE reindex_jobs.id = cte.id
		 RETURNING reindex_jobs.id, reindex_jobs.content_hash, reindex_jobs.conversation_id, reindex_jobs.status,
		           reindex_jobs.retries, reindex_jobs.error, reindex_jobs.created_at, reindex_jobs.processed_at`,
		domain.ReindexJobStatusPending, limit, domain.ReindexJobStatusProcessing,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.ReindexJob
	for rows.Next() {
		var job domain.ReindexJob
		var conversationID, errMsg pgtype.Text
		if err := rows.Scan(&job.ID, &job.ContentHash, &conversationID, &job.Status, &job.Retries, &errMsg, &job.CreatedAt, &job.ProcessedAt); err != nil {
			return nil, err
		}
		if conversationID.Valid {
			job.ConversationID = conversationID.String
		}
		if errMsg.Valid {
			job.Error = errMsg.String
		}
		jobs = append(jobs, &job)
	}
	return jobs, rows.Err()
}

func (r *ReindexJobRepository) UpdateJobStatus(ctx context.Context, jobID string, status domain.ReindexJobStatus, errMsg string) error {
	now := time.Now().UTC()
	tag, err := r.db.Exec(ctx,
		`UPDATE reindex_jobs SET status = $1, error = $2, processed_at = $3 WHERE id = $4`,
		status, errMsg, now, jobID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReindexJobNotFound
	}
	return nil
}

func (r *ReindexJobRepository) IncrementRetries(ctx context.Context, jobID string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE reindex_jobs SET retries = retries + 1 WHERE id = $1`,
		jobID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReindexJobNotFound
	}
	return nil
}
