package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/hirepurchase/ledger/internal/domain/shared"
)

// InMemoryIdentifierAllocator allocates identifiers from process-local counters.
// Only one process may allocate against a database with it; counters are lost on exit
// and are re-seeded from the stored identifiers by Warm.
type InMemoryIdentifierAllocator struct {
	mu       sync.Mutex
	counters map[string]int64
	seed     SeedFunc
}

// NewInMemoryIdentifierAllocator creates an in-memory allocator.
// A nil seed starts every sequence at its floor.
func NewInMemoryIdentifierAllocator(seed SeedFunc) *InMemoryIdentifierAllocator {
	return &InMemoryIdentifierAllocator{counters: make(map[string]int64), seed: seed}
}

// Warm seeds the given sequences up front, so that the seed query never runs
// inside a caller's transaction
func (a *InMemoryIdentifierAllocator) Warm(ctx context.Context, seqs ...shared.Sequence) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, seq := range seqs {
		if err := a.ensureSeeded(ctx, seq); err != nil {
			return err
		}
	}
	return nil
}

// Next returns the next identifier of seq
func (a *InMemoryIdentifierAllocator) Next(ctx context.Context, seq shared.Sequence) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.ensureSeeded(ctx, seq); err != nil {
		return 0, err
	}
	a.counters[seq.Name]++
	return a.counters[seq.Name], nil
}

// ensureSeeded must be called with mu held
func (a *InMemoryIdentifierAllocator) ensureSeeded(ctx context.Context, seq shared.Sequence) error {
	if _, ok := a.counters[seq.Name]; ok {
		return nil
	}
	start := seq.Floor
	if a.seed != nil {
		v, err := a.seed(ctx, seq)
		if err != nil {
			return fmt.Errorf("failed to seed sequence %s: %w", seq.Name, err)
		}
		if v > start {
			start = v
		}
	}
	a.counters[seq.Name] = start
	return nil
}

// Ensure InMemoryIdentifierAllocator implements IdentifierAllocator
var _ shared.IdentifierAllocator = (*InMemoryIdentifierAllocator)(nil)
