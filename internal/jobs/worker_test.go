package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cloo-solutions/docvault/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockJobProcessor is a mock implementation of JobProcessor
type MockJobProcessor struct {
	mock.Mock
}

func (m *MockJobProcessor) ProcessJobs(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockReindexJobRepository is a mock implementation of ReindexJobRepository
type MockReindexJobRepository struct {
	mock.Mock
}

func (m *MockReindexJobRepository) GetPendingJobs(ctx context.Context, limit int) ([]*domain.ReindexJob, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ReindexJob), args.Error(1)
}

func (m *MockReindexJobRepository) UpdateJobStatus(ctx context.Context, jobID string, status domain.ReindexJobStatus, errMsg string) error {
	args := m.Called(ctx, jobID, status, errMsg)
	return args.Error(0)
}

func (m *MockReindexJobRepository) IncrementRetries(ctx context.Context, jobID string) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}

// MockReindexRunner is a mock implementation of ReindexRunner
type MockReindexRunner struct {
	mock.Mock
}

func (m *MockReindexRunner) Rebuild(ctx context.Context, contentHash string) (int, error) {
	args := m.Called(ctx, contentHash)
	return args.Int(0), args.Error(1)
}

// TestWorker_StartStop tests the worker start and stop functionality
func TestWorker_StartStop(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start worker in goroutine
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	// Let it run for a bit
	time.Sleep(250 * time.Millisecond)

	// Stop worker
	worker.Stop()
	wg.Wait()

	// Verify ProcessJobs was called at least once
	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestWorker_ContextCancellation tests worker stops on context cancellation
func TestWorker_ContextCancellation(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())

	// Start worker in goroutine
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	// Let it run for a bit
	time.Sleep(150 * time.Millisecond)

	// Cancel context
	cancel()
	wg.Wait()

	// Verify ProcessJobs was called
	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestReindexWorker_ProcessJobs_NoPendingJobs tests when there are no pending jobs
func TestReindexWorker_ProcessJobs_NoPendingJobs(t *testing.T) {
	mockRepo := new(MockReindexJobRepository)
	mockRunner := new(MockReindexRunner)

	mockRepo.On("GetPendingJobs", mock.Anything, claimBatchSize).Return([]*domain.ReindexJob{}, nil)

	worker := NewReindexWorker(mockRepo, mockRunner)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockRunner.AssertNotCalled(t, "Rebuild", mock.Anything, mock.Anything)
}

// TestReindexWorker_ProcessJobs_Success tests successful job processing
func TestReindexWorker_ProcessJobs_Success(t *testing.T) {
	mockRepo := new(MockReindexJobRepository)
	mockRunner := new(MockReindexRunner)

	job := &domain.ReindexJob{
		ID:          "job-1",
		ContentHash: "hash-1",
		Status:      domain.ReindexJobStatusPending,
		Retries:     0,
	}

	mockRepo.On("GetPendingJobs", mock.Anything, claimBatchSize).Return([]*domain.ReindexJob{job}, nil)
	mockRunner.On("Rebuild", mock.Anything, "hash-1").Return(7, nil)
	mockRepo.On("UpdateJobStatus", mock.Anything, "job-1", domain.ReindexJobStatusCompleted, "").Return(nil)

	worker := NewReindexWorker(mockRepo, mockRunner)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockRunner.AssertExpectations(t)
}

// TestReindexWorker_ProcessJobs_FailureWithRetry tests job failure with retry
func TestReindexWorker_ProcessJobs_FailureWithRetry(t *testing.T) {
	mockRepo := new(MockReindexJobRepository)
	mockRunner := new(MockReindexRunner)

	job := &domain.ReindexJob{
		ID:          "job-1",
		ContentHash: "hash-1",
		Status:      domain.ReindexJobStatusPending,
		Retries:     0,
	}

	mockRepo.On("GetPendingJobs", mock.Anything, claimBatchSize).Return([]*domain.ReindexJob{job}, nil)
	mockRunner.On("Rebuild", mock.Anything, "hash-1").Return(0, errors.New("archive unreachable"))
	mockRepo.On("IncrementRetries", mock.Anything, "job-1").Return(nil)
	mockRepo.On("UpdateJobStatus", mock.Anything, "job-1", domain.ReindexJobStatusPending, mock.MatchedBy(func(msg string) bool {
		return msg != ""
	})).Return(nil)

	worker := NewReindexWorker(mockRepo, mockRunner)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockRunner.AssertExpectations(t)
}

// TestReindexWorker_ProcessJobs_MaxRetriesExceeded tests job failure after max retries
func TestReindexWorker_ProcessJobs_MaxRetriesExceeded(t *testing.T) {
	mockRepo := new(MockReindexJobRepository)
	mockRunner := new(MockReindexRunner)

	job := &domain.ReindexJob{
		ID:          "job-1",
		ContentHash: "hash-1",
		Status:      domain.ReindexJobStatusPending,
		Retries:     2, // Already retried twice
	}

	mockRepo.On("GetPendingJobs", mock.Anything, claimBatchSize).Return([]*domain.ReindexJob{job}, nil)
	mockRunner.On("Rebuild", mock.Anything, "hash-1").Return(0, errors.New("archive unreachable"))
	mockRepo.On("IncrementRetries", mock.Anything, "job-1").Return(nil)
	mockRepo.On("UpdateJobStatus", mock.Anything, "job-1", domain.ReindexJobStatusFailed, mock.MatchedBy(func(msg string) bool {
		return msg != ""
	})).Return(nil)

	worker := NewReindexWorker(mockRepo, mockRunner)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockRunner.AssertExpectations(t)
}

// TestReindexWorker_ProcessJobs_MultipleJobs tests processing multiple jobs
func TestReindexWorker_ProcessJobs_MultipleJobs(t *testing.T) {
	mockRepo := new(MockReindexJobRepository)
	mockRunner := new(MockReindexRunner)

	jobs := []*domain.ReindexJob{
		{
			ID:          "job-1",
			ContentHash: "hash-1",
			Status:      domain.ReindexJobStatusPending,
			Retries:     0,
		},
		{
			ID:          "job-2",
			ContentHash: "hash-2",
			Status:      domain.ReindexJobStatusPending,
			Retries:     0,
		},
	}

	mockRepo.On("GetPendingJobs", mock.Anything, claimBatchSize).Return(jobs, nil)

	// Job 1 succeeds
	mockRunner.On("Rebuild", mock.Anything, "hash-1").Return(3, nil)
	mockRepo.On("UpdateJobStatus", mock.Anything, "job-1", domain.ReindexJobStatusCompleted, "").Return(nil)

	// Job 2 succeeds
	mockRunner.On("Rebuild", mock.Anything, "hash-2").Return(5, nil)
	mockRepo.On("UpdateJobStatus", mock.Anything, "job-2", domain.ReindexJobStatusCompleted, "").Return(nil)

	worker := NewReindexWorker(mockRepo, mockRunner)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockRunner.AssertExpectations(t)
}

// TestReindexWorker_ProcessJobs_RepositoryError tests repository error handling
func TestReindexWorker_ProcessJobs_RepositoryError(t *testing.T) {
	mockRepo := new(MockReindexJobRepository)
	mockRunner := new(MockReindexRunner)

	mockRepo.On("GetPendingJobs", mock.Anything, claimBatchSize).Return(nil, errors.New("database error"))

	worker := NewReindexWorker(mockRepo, mockRunner)
	err := worker.ProcessJobs(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch pending jobs")
	mockRepo.AssertExpectations(t)
}
