package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/cloo-solutions/docvault/internal/domain"
)

const (
	// MaxRetries is the maximum number of retries for a failed job
	MaxRetries = 3

	// claimBatchSize caps how many pending jobs one poll claims
	claimBatchSize = 10
)

// ReindexJobRepository defines the interface for reindex job persistence
type ReindexJobRepository interface {
	// GetPendingJobs retrieves and claims pending reindex jobs
	GetPendingJobs(ctx context.Context, limit int) ([]*domain.ReindexJob, error)

	// UpdateJobStatus updates the status of a reindex job
	UpdateJobStatus(ctx context.Context, jobID string, status domain.ReindexJobStatus, errMsg string) error

	// IncrementRetries increments the retry count for a job
	IncrementRetries(ctx context.Context, jobID string) error
}

// ReindexRunner rebuilds a document's chunk set from its archived bytes.
type ReindexRunner interface {
	Rebuild(ctx context.Context, contentHash string) (int, error)
}

// ReindexWorker processes reindex jobs
type ReindexWorker struct {
	repo    ReindexJobRepository
	service ReindexRunner
}

// NewReindexWorker creates a new ReindexWorker instance
func NewReindexWorker(repo ReindexJobRepository, service ReindexRunner) *ReindexWorker {
	return &ReindexWorker{
		repo:    repo,
		service: service,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *ReindexWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.repo.GetPendingJobs(ctx, claimBatchSize)
	if err != nil {
		return fmt.Errorf("failed to fetch pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		return nil
	}

	log.Printf("Processing %d pending reindex jobs", len(jobs))

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			log.Printf("Error processing job %s: %v", job.ID, err)
		}
	}

	return nil
}

func (w *ReindexWorker) processJob(ctx context.Context, job *domain.ReindexJob) error {
	log.Printf("Processing job %s for document %s", job.ID, job.ContentHash)

	chunkCount, err := w.service.Rebuild(ctx, job.ContentHash)
	if err != nil {
		return w.handleJobFailure(ctx, job, err)
	}

	if err := w.repo.UpdateJobStatus(ctx, job.ID, domain.ReindexJobStatusCompleted, ""); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}

	log.Printf("Job %s completed: %d chunks rebuilt for %s", job.ID, chunkCount, job.ContentHash)
	return nil
}

// handleJobFailure handles a failed job with retry logic
func (w *ReindexWorker) handleJobFailure(ctx context.Context, job *domain.ReindexJob, jobErr error) error {
	log.Printf("Job %s failed: %v", job.ID, jobErr)

	if err := w.repo.IncrementRetries(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to increment retries: %w", err)
	}

	if job.Retries+1 >= MaxRetries {
		log.Printf("Job %s exceeded max retries (%d), marking as failed", job.ID, MaxRetries)
		errMsg := fmt.Sprintf("max retries exceeded: %v", jobErr)
		if err := w.repo.UpdateJobStatus(ctx, job.ID, domain.ReindexJobStatusFailed, errMsg); err != nil {
			return fmt.Errorf("failed to update job status to failed: %w", err)
		}
		return nil
	}

	// Reset to pending for retry
	log.Printf("Job %s will be retried (attempt %d/%d)", job.ID, job.Retries+1, MaxRetries)
	errMsg := fmt.Sprintf("retry %d: %v", job.Retries+1, jobErr)
	if err := w.repo.UpdateJobStatus(ctx, job.ID, domain.ReindexJobStatusPending, errMsg); err != nil {
		return fmt.Errorf("failed to reset job status to pending: %w", err)
	}

	return nil
}
