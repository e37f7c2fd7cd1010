package domain

import (
	"fmt"
	"time"
)

// ReindexJobStatus represents the status of a reindex job
type ReindexJobStatus string

const (
	ReindexJobStatusPending    ReindexJobStatus = "pending"
	ReindexJobStatusProcessing ReindexJobStatus = "processing"
	ReindexJobStatusCompleted  ReindexJobStatus = "completed"
	ReindexJobStatusFailed     ReindexJobStatus = "failed"
)

// ReindexJob represents an async re-chunk/re-embed job for an already
// registered content version. The worker pulls the archived original bytes,
// rebuilds the chunk set, and refreshes the registry row.
type ReindexJob struct {
	ID             string
	ContentHash    string
	ConversationID string
	Status         ReindexJobStatus
	Retries        int32
	Error          string
	CreatedAt      time.Time
	ProcessedAt    *time.Time
}

// ValidateReindexJob validates a ReindexJob instance
func ValidateReindexJob(j *ReindexJob) error {
	if j == nil {
		return fmt.Errorf("reindex job cannot be nil")
	}

	if j.ID == "" {
		return fmt.Errorf("reindex job ID is required")
	}

	if j.ContentHash == "" {
		return fmt.Errorf("reindex job ContentHash is required")
	}

	if !isValidReindexJobStatus(j.Status) {
		return fmt.Errorf("reindex job Status is invalid: %s", j.Status)
	}

	if j.Retries < 0 {
		return fmt.Errorf("reindex job Retries cannot be negative")
	}

	return nil
}

// isValidReindexJobStatus checks if a ReindexJobStatus is valid
func isValidReindexJobStatus(s ReindexJobStatus) bool {
	switch s {
	case ReindexJobStatusPending, ReindexJobStatusProcessing, ReindexJobStatusCompleted, ReindexJobStatusFailed:
		return true
	default:
		return false
	}
}
