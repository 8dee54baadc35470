package unitofwork

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hirepurchase/ledger/internal/domain/shared"
)

// RetryObserver is notified before every retry of a conflicted unit of work
type RetryObserver func(ctx context.Context, attempt int, err error)

// Retrier re-runs a unit of work that lost a serialization race.
// Only shared.ErrConcurrencyConflict is retried; any other error stops at once.
type Retrier struct {
	maxRetries int
	initial    time.Duration
	observer   RetryObserver
}

// NewRetrier creates a Retrier. maxRetries is the number of attempts after the
// first one; initial is the first backoff interval.
func NewRetrier(maxRetries int, initial time.Duration) *Retrier {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if initial <= 0 {
		initial = 10 * time.Millisecond
	}
	return &Retrier{maxRetries: maxRetries, initial: initial}
}

// WithObserver returns a copy of the Retrier that reports retries to fn
func (r *Retrier) WithObserver(fn RetryObserver) *Retrier {
	c := *r
	c.observer = fn
	return &c
}

// MaxRetries returns the configured number of retries
func (r *Retrier) MaxRetries() int {
	if r == nil {
		return 0
	}
	return r.maxRetries
}

// Do runs op until it succeeds, fails with a non-conflict error, the retries run
// out or ctx is done. When the retries run out the last conflict is returned.
// A nil Retrier runs op once.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	if r == nil {
		return op(ctx)
	}
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = r.initial
	exp.MaxInterval = 50 * r.initial
	exp.MaxElapsedTime = 0

	attempt := 0
	operation := func() error {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, _ time.Duration) {
		if r.observer != nil {
			r.observer(ctx, attempt, err)
		}
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(r.maxRetries)), ctx)
	return backoff.RetryNotify(operation, policy, notify)
}
