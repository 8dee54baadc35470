package shared

import "context"

// Sequence names a monotonically increasing numeric identifier space.
// The first identifier handed out is Floor+1.
type Sequence struct {
	Name  string
	Floor int64
}

// IdentifierAllocator hands out identifiers from a Sequence.
// Implementations never return the same identifier twice for one Sequence.
type IdentifierAllocator interface {
	// Next returns the next identifier of the sequence
	Next(ctx context.Context, seq Sequence) (int64, error)
}
