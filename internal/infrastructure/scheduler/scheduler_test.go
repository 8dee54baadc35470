package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hirepurchase/ledger/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// funcExecutor runs fn and counts calls per contract
type funcExecutor struct {
	mu    sync.Mutex
	calls map[uuid.UUID]int
	fn    func(ctx context.Context, job *Job, attempt int) error
}

func newFuncExecutor(fn func(ctx context.Context, job *Job, attempt int) error) *funcExecutor {
	return &funcExecutor{calls: make(map[uuid.UUID]int), fn: fn}
}

func (e *funcExecutor) Execute(ctx context.Context, job *Job) error {
	e.mu.Lock()
	e.calls[job.ContractID]++
	attempt := e.calls[job.ContractID]
	e.mu.Unlock()
	if e.fn == nil {
		return nil
	}
	return e.fn(ctx, job, attempt)
}

func (e *funcExecutor) callsFor(id uuid.UUID) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls[id]
}

func testConfig() SchedulerConfig {
	return SchedulerConfig{
		Workers:       2,
		QueueSize:     16,
		JobTimeout:    time.Second,
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
	}
}

// finishedJobs collects jobs as they finish their last attempt
type finishedJobs struct {
	mu   sync.Mutex
	jobs []*Job
}

func (f *finishedJobs) add(job *Job) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
}

func (f *finishedJobs) all() []*Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Job(nil), f.jobs...)
}

func startScheduler(t *testing.T, cfg SchedulerConfig, executor JobExecutor) (*Scheduler, *finishedJobs) {
	t.Helper()
	s, err := NewScheduler(cfg, executor, zaptest.NewLogger(t))
	require.NoError(t, err)
	finished := &finishedJobs{}
	s.SetOnJobFinishedCallback(finished.add)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })
	return s, finished
}

func drain(t *testing.T, s *Scheduler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Drain(ctx))
}

func TestNewScheduler_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*SchedulerConfig)
	}{
		{"no workers", func(c *SchedulerConfig) { c.Workers = 0 }},
		{"no queue", func(c *SchedulerConfig) { c.QueueSize = 0 }},
		{"no timeout", func(c *SchedulerConfig) { c.JobTimeout = 0 }},
		{"negative retries", func(c *SchedulerConfig) { c.RetryAttempts = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.modify(&cfg)
			_, err := NewScheduler(cfg, newFuncExecutor(nil), zaptest.NewLogger(t))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestScheduler_SubmitRequiresRunning(t *testing.T) {
	s, err := NewScheduler(testConfig(), newFuncExecutor(nil), zaptest.NewLogger(t))
	require.NoError(t, err)

	err = s.SubmitJob(NewJob(uuid.New(), false, 0))
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))

	err = s.SubmitJob(NewJob(uuid.New(), false, 0))
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestScheduler_RunsEveryAudit(t *testing.T) {
	executor := newFuncExecutor(nil)
	s, finished := startScheduler(t, testConfig(), executor)

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	queued, err := s.ScheduleAudits(ids, true)
	require.NoError(t, err)
	assert.Equal(t, len(ids), queued)

	drain(t, s)

	jobs := finished.all()
	require.Len(t, jobs, len(ids))
	for _, job := range jobs {
		assert.Equal(t, JobStatusSuccess, job.Status)
		assert.True(t, job.Repair)
		assert.NotNil(t, job.CompletedAt)
	}
	for _, id := range ids {
		assert.Equal(t, 1, executor.callsFor(id))
	}
}

func TestScheduler_RetriesFailedAudit(t *testing.T) {
	executor := newFuncExecutor(func(_ context.Context, _ *Job, attempt int) error {
		if attempt == 1 {
			return errors.New("database unavailable")
		}
		return nil
	})
	s, finished := startScheduler(t, testConfig(), executor)

	id := uuid.New()
	require.NoError(t, s.SubmitJob(NewJob(id, false, 2)))
	drain(t, s)

	jobs := finished.all()
	require.Len(t, jobs, 1)
	assert.Equal(t, JobStatusSuccess, jobs[0].Status)
	assert.Equal(t, 1, jobs[0].RetryCount)
	assert.Equal(t, 2, executor.callsFor(id))
}

func TestScheduler_GivesUpAfterRetryAttempts(t *testing.T) {
	executor := newFuncExecutor(func(context.Context, *Job, int) error {
		return errors.New("database unavailable")
	})
	s, finished := startScheduler(t, testConfig(), executor)

	id := uuid.New()
	require.NoError(t, s.SubmitJob(NewJob(id, false, 2)))
	drain(t, s)

	jobs := finished.all()
	require.Len(t, jobs, 1)
	assert.Equal(t, JobStatusFailed, jobs[0].Status)
	assert.Equal(t, "database unavailable", jobs[0].Error)
	assert.Equal(t, 2, jobs[0].RetryCount)
	assert.Equal(t, 3, executor.callsFor(id))
}

func TestScheduler_RejectsWhenQueueFull(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	executor := newFuncExecutor(func(context.Context, *Job, int) error {
		started <- struct{}{}
		<-release
		return nil
	})
	cfg := testConfig()
	cfg.Workers = 1
	cfg.QueueSize = 1
	s, _ := startScheduler(t, cfg, executor)

	require.NoError(t, s.SubmitJob(NewJob(uuid.New(), false, 0)))
	<-started

	require.NoError(t, s.SubmitJob(NewJob(uuid.New(), false, 0)))
	err := s.SubmitJob(NewJob(uuid.New(), false, 0))
	assert.ErrorIs(t, err, ErrJobQueueFull)

	close(release)
	<-started
	drain(t, s)
}

func TestScheduler_JobContextCarriesLoggerAndJobID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	executor := newFuncExecutor(func(ctx context.Context, job *Job, _ int) error {
		logger.L(ctx).Info("auditing", zap.String("contract_id", job.ContractID.String()))
		return nil
	})
	s, err := NewScheduler(testConfig(), executor, zap.New(core))
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	job := NewJob(uuid.New(), false, 0)
	require.NoError(t, s.SubmitJob(job))
	drain(t, s)

	entries := logs.FilterMessage("auditing").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, job.ID.String(), fields["request_id"])
	assert.Equal(t, job.ContractID.String(), fields["contract_id"])
}

func TestJob_Lifecycle(t *testing.T) {
	job := NewJob(uuid.New(), true, 1)
	assert.Equal(t, JobStatusPending, job.Status)

	job.Start()
	assert.Equal(t, JobStatusRunning, job.Status)
	assert.NotNil(t, job.StartedAt)

	job.Fail("boom")
	assert.True(t, job.ShouldRetry())

	job.ScheduleRetry()
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Empty(t, job.Error)

	job.Start()
	job.Fail("boom")
	assert.False(t, job.ShouldRetry())
}
