package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ContractLister lists the contracts a sweep should audit
type ContractLister interface {
	ListContractIDs(ctx context.Context) ([]uuid.UUID, error)
}

// SweepConfig holds configuration for the periodic audit sweep
type SweepConfig struct {
	// Interval between sweeps
	Interval time.Duration

	// Repair reconciles drifted contracts instead of only reporting them
	Repair bool
}

// SweepTrigger periodically submits an audit job for every contract
type SweepTrigger struct {
	config    SweepConfig
	scheduler *Scheduler
	lister    ContractLister
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	sweeping  bool
	lastRun   time.Time
}

// NewSweepTrigger creates a new sweep trigger
func NewSweepTrigger(config SweepConfig, scheduler *Scheduler, lister ContractLister, logger *zap.Logger) *SweepTrigger {
	return &SweepTrigger{
		config:    config,
		scheduler: scheduler,
		lister:    lister,
		logger:    logger,
	}
}

// Start starts the periodic sweep
func (t *SweepTrigger) Start(ctx context.Context) error {
	if t.config.Interval <= 0 {
		return fmt.Errorf("%w: sweep interval must be positive", ErrInvalidConfig)
	}

	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Audit sweep started",
		zap.Duration("interval", t.config.Interval),
		zap.Bool("repair", t.config.Repair),
	)
	return nil
}

// Stop stops the periodic sweep. Jobs already submitted keep running on the scheduler.
func (t *SweepTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Audit sweep stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *SweepTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := t.RunSweep(ctx); err != nil {
				t.logger.Error("Audit sweep failed", zap.Error(err))
			}
		}
	}
}

// RunSweep lists every contract and submits its audit job, returning how many
// jobs were queued. It does not wait for the audits to finish.
func (t *SweepTrigger) RunSweep(ctx context.Context) (int, error) {
	t.mu.Lock()
	if t.sweeping {
		t.mu.Unlock()
		return 0, ErrSweepInProgress
	}
	t.sweeping = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.sweeping = false
		t.lastRun = time.Now()
		t.mu.Unlock()
	}()

	ids, err := t.lister.ListContractIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list contracts: %w", err)
	}

	queued, err := t.scheduler.ScheduleAudits(ids, t.config.Repair)
	t.logger.Info("Audit sweep submitted",
		zap.Int("contracts", len(ids)),
		zap.Int("queued", queued),
	)
	if err != nil {
		return queued, fmt.Errorf("failed to submit audits: %w", err)
	}
	return queued, nil
}

// LastRun returns when the last sweep finished, zero if none has
func (t *SweepTrigger) LastRun() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastRun
}
