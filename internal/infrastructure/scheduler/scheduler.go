// Package scheduler runs balance audits of contracts on a bounded worker pool.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hirepurchase/ledger/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// JobStatus represents the status of an audit job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Job is the audit of one contract. With Repair set a drifted contract is
// reconciled as part of the same job.
type Job struct {
	ID          uuid.UUID
	ContractID  uuid.UUID
	Repair      bool
	Status      JobStatus
	Error       string
	Drifted     bool
	Reconciled  bool
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
}

// NewJob creates a new job instance
func NewJob(contractID uuid.UUID, repair bool, maxRetries int) *Job {
	return &Job{
		ID:         uuid.New(),
		ContractID: contractID,
		Repair:     repair,
		Status:     JobStatusPending,
		MaxRetries: maxRetries,
	}
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete marks the job as successful
func (j *Job) Complete() {
	now := time.Now()
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the job should be retried
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry puts the job back to pending for another attempt
func (j *Job) ScheduleRetry() {
	j.RetryCount++
	j.Status = JobStatusPending
	j.Error = ""
}

// JobExecutor executes audit jobs
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	Workers       int
	QueueSize     int
	JobTimeout    time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// DefaultSchedulerConfig returns default scheduler configuration
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Workers:       2,
		QueueSize:     1024,
		JobTimeout:    time.Minute,
		RetryAttempts: 3,
		RetryDelay:    30 * time.Second,
	}
}

func (c SchedulerConfig) validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("%w: queue size must be positive", ErrInvalidConfig)
	}
	if c.JobTimeout <= 0 {
		return fmt.Errorf("%w: job timeout must be positive", ErrInvalidConfig)
	}
	if c.RetryAttempts < 0 || c.RetryDelay < 0 {
		return fmt.Errorf("%w: retry settings cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// Scheduler runs submitted audit jobs on a fixed pool of workers
type Scheduler struct {
	config   SchedulerConfig
	executor JobExecutor
	logger   *zap.Logger

	onJobFinished func(job *Job)

	jobs      chan *Job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	inflight  sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewScheduler creates a new scheduler instance
func NewScheduler(config SchedulerConfig, executor JobExecutor, log *zap.Logger) (*Scheduler, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &Scheduler{
		config:   config,
		executor: executor,
		logger:   log,
	}, nil
}

// SetOnJobFinishedCallback sets a callback invoked once per job after its last attempt
func (s *Scheduler) SetOnJobFinishedCallback(cb func(job *Job)) {
	s.onJobFinished = cb
}

// Start starts the workers. Starting a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	s.isRunning = true
	s.jobs = make(chan *Job, s.config.QueueSize)

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i, s.jobs)
	}

	s.logger.Info("Audit scheduler started",
		zap.Int("workers", s.config.Workers),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop stops accepting jobs, cancels running ones and waits for the workers
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	close(s.jobs)
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Audit scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Audit scheduler stop timed out")
		return ctx.Err()
	}
}

// SubmitJob queues a job without blocking
func (s *Scheduler) SubmitJob(job *Job) error {
	s.inflight.Add(1)
	if err := s.enqueue(job); err != nil {
		s.inflight.Done()
		return err
	}
	s.logger.Debug("Audit job submitted",
		zap.String("job_id", job.ID.String()),
		zap.String("contract_id", job.ContractID.String()),
	)
	return nil
}

// ScheduleAudits submits one job per contract and returns how many were queued.
// It stops at the first rejected submission.
func (s *Scheduler) ScheduleAudits(contractIDs []uuid.UUID, repair bool) (int, error) {
	for i, id := range contractIDs {
		if err := s.SubmitJob(NewJob(id, repair, s.config.RetryAttempts)); err != nil {
			return i, err
		}
	}
	return len(contractIDs), nil
}

// Drain waits until every submitted job has finished its last attempt
func (s *Scheduler) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// enqueue sends under the lock so it never races Stop closing the channel
func (s *Scheduler) enqueue(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return ErrSchedulerNotRunning
	}
	select {
	case s.jobs <- job:
		return nil
	default:
		return ErrJobQueueFull
	}
}

func (s *Scheduler) worker(ctx context.Context, workerID int, jobs <-chan *Job) {
	defer s.wg.Done()

	s.logger.Debug("Worker started", zap.Int("worker_id", workerID))

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Worker stopping", zap.Int("worker_id", workerID))
			return
		case job, ok := <-jobs:
			if !ok {
				s.logger.Debug("Job channel closed", zap.Int("worker_id", workerID))
				return
			}
			s.processJob(ctx, job, workerID)
		}
	}
}

func (s *Scheduler) processJob(ctx context.Context, job *Job, workerID int) {
	job.Start()

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()
	jobCtx = logger.WithContext(logger.WithRequestID(jobCtx, job.ID.String()), s.logger)

	err := s.executor.Execute(jobCtx, job)
	if err == nil {
		job.Complete()
		s.logger.Debug("Audit job completed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("contract_id", job.ContractID.String()),
			zap.Bool("drifted", job.Drifted),
		)
		s.finish(job)
		return
	}

	job.Fail(err.Error())
	s.logger.Error("Audit job failed",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("contract_id", job.ContractID.String()),
		zap.Error(err),
	)

	if !job.ShouldRetry() || ctx.Err() != nil {
		s.finish(job)
		return
	}

	job.ScheduleRetry()
	s.logger.Info("Audit job scheduled for retry",
		zap.String("job_id", job.ID.String()),
		zap.Int("retry_count", job.RetryCount),
		zap.Int("max_retries", job.MaxRetries),
	)
	time.AfterFunc(s.config.RetryDelay, func() {
		if err := s.enqueue(job); err != nil {
			s.logger.Warn("Failed to re-queue audit job for retry",
				zap.String("job_id", job.ID.String()),
				zap.Error(err),
			)
			s.finish(job)
		}
	})
}

func (s *Scheduler) finish(job *Job) {
	if s.onJobFinished != nil {
		s.onJobFinished(job)
	}
	s.inflight.Done()
}
