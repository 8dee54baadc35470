package cache

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/hirepurchase/ledger/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newRedisClient starts a throwaway Redis container. Set HPL_INTEGRATION=1 to run.
func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() || os.Getenv("HPL_INTEGRATION") == "" {
		t.Skip("set HPL_INTEGRATION=1 to run Redis integration tests")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	require.NoError(t, client.Ping(ctx).Err())
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisIdentifierAllocator(t *testing.T) {
	client := newRedisClient(t)
	ctx := context.Background()
	seq := shared.Sequence{Name: "customer", Floor: 1_000_000}

	t.Run("seed moves the start past existing identifiers", func(t *testing.T) {
		seed := func(context.Context, shared.Sequence) (int64, error) { return 1_000_040, nil }
		a := NewRedisIdentifierAllocator(client, "test:seed:", seed)

		v, err := a.Next(ctx, seq)
		require.NoError(t, err)
		assert.Equal(t, int64(1_000_041), v)
	})

	t.Run("concurrent allocations are distinct", func(t *testing.T) {
		a := NewRedisIdentifierAllocator(client, "test:concurrent:", nil)
		const n = 50
		var (
			mu   sync.Mutex
			seen = make(map[int64]bool)
			wg   sync.WaitGroup
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := a.Next(ctx, seq)
				if assert.NoError(t, err) {
					mu.Lock()
					seen[v] = true
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Len(t, seen, n)
	})

	t.Run("warm seeds once before the first allocation", func(t *testing.T) {
		calls := 0
		seed := func(context.Context, shared.Sequence) (int64, error) {
			calls++
			return 0, nil
		}
		a := NewRedisIdentifierAllocator(client, "test:warm:", seed)
		require.NoError(t, a.Warm(ctx, seq))

		v, err := a.Next(ctx, seq)
		require.NoError(t, err)
		assert.Equal(t, int64(1_000_001), v)
		assert.Equal(t, 1, calls)
	})
}
