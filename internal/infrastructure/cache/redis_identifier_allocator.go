package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/hirepurchase/ledger/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const defaultSequenceKeyPrefix = "hpl:sequence:"

// SeedFunc returns the value a sequence counter starts from when its key is
// missing, typically the highest identifier already stored
type SeedFunc func(ctx context.Context, seq shared.Sequence) (int64, error)

// RedisIdentifierAllocator allocates identifiers with INCR on one key per sequence.
// It runs outside database transactions: an identifier taken by a unit of work
// that later rolls back is not reused, so the sequence may have gaps.
type RedisIdentifierAllocator struct {
	client    *redis.Client
	keyPrefix string
	seed      SeedFunc

	mu     sync.Mutex
	seeded map[string]bool
}

// NewRedisIdentifierAllocator creates an allocator on an existing client.
// A nil seed starts every sequence at its floor.
func NewRedisIdentifierAllocator(client *redis.Client, keyPrefix string, seed SeedFunc) *RedisIdentifierAllocator {
	if keyPrefix == "" {
		keyPrefix = defaultSequenceKeyPrefix
	}
	return &RedisIdentifierAllocator{
		client:    client,
		keyPrefix: keyPrefix,
		seed:      seed,
		seeded:    make(map[string]bool),
	}
}

// Next returns the next identifier of seq
func (a *RedisIdentifierAllocator) Next(ctx context.Context, seq shared.Sequence) (int64, error) {
	key := a.keyPrefix + seq.Name
	if err := a.ensureSeeded(ctx, key, seq); err != nil {
		return 0, err
	}

	next, err := a.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to advance sequence %s: %w", seq.Name, err)
	}
	if next <= seq.Floor {
		return 0, fmt.Errorf("sequence %s is below its floor: %d", seq.Name, next)
	}
	return next, nil
}

// Warm seeds the given sequences up front, so that the seed query never runs
// inside a caller's transaction
func (a *RedisIdentifierAllocator) Warm(ctx context.Context, seqs ...shared.Sequence) error {
	for _, seq := range seqs {
		if err := a.ensureSeeded(ctx, a.keyPrefix+seq.Name, seq); err != nil {
			return err
		}
	}
	return nil
}

// ensureSeeded creates the counter with SETNX so concurrent seeders cannot move it back
func (a *RedisIdentifierAllocator) ensureSeeded(ctx context.Context, key string, seq shared.Sequence) error {
	a.mu.Lock()
	done := a.seeded[key]
	a.mu.Unlock()
	if done {
		return nil
	}

	exists, err := a.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to check sequence %s: %w", seq.Name, err)
	}
	if exists == 0 {
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
		if err := a.client.SetNX(ctx, key, start, 0).Err(); err != nil {
			return fmt.Errorf("failed to seed sequence %s: %w", seq.Name, err)
		}
	}

	a.mu.Lock()
	a.seeded[key] = true
	a.mu.Unlock()
	return nil
}

// Close closes the Redis client
func (a *RedisIdentifierAllocator) Close() error {
	return a.client.Close()
}

// Ensure RedisIdentifierAllocator implements IdentifierAllocator
var _ shared.IdentifierAllocator = (*RedisIdentifierAllocator)(nil)
