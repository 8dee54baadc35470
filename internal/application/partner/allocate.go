package partner

import (
	"context"
	"errors"
	"fmt"

	"github.com/hirepurchase/ledger/internal/application/unitofwork"
	"github.com/hirepurchase/ledger/internal/domain/shared"
	"github.com/hirepurchase/ledger/internal/infrastructure/telemetry"
)

// insertFunc stores a new party under uid using the repositories of the running unit of work
type insertFunc func(ctx context.Context, repos unitofwork.Repositories, uid int64) error

// allocateAndInsert takes the next identifier of seq and runs insert in the same
// unit of work. Lost races are retried; when the retries run out the caller gets
// ErrConcurrentAllocation, never a duplicate identifier.
func allocateAndInsert(
	ctx context.Context,
	scope unitofwork.Scope,
	retrier *unitofwork.Retrier,
	metrics *telemetry.LedgerMetrics,
	seq shared.Sequence,
	insert insertFunc,
) (int64, error) {
	telemetry.SetAttributes(telemetry.SpanFromContext(ctx), telemetry.SpanAttrSequence, seq.Name)

	var uid int64
	err := retrier.Do(ctx, func(ctx context.Context) error {
		return scope.Execute(ctx, func(repos unitofwork.Repositories) error {
			next, err := repos.Sequences().Next(ctx, seq)
			if err != nil {
				return err
			}
			if insert != nil {
				if err := insert(ctx, repos, next); err != nil {
					return err
				}
			}
			uid = next
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			return 0, shared.ErrConcurrentAllocation.WithMessage(
				fmt.Sprintf("Could not allocate a %s identifier after %d retries", seq.Name, retrier.MaxRetries()),
			)
		}
		return 0, err
	}
	metrics.RecordAllocation(ctx, seq.Name)
	return uid, nil
}

// toDomainFilter applies the list defaults
func toDomainFilter(search string, page, pageSize int, orderBy, orderDir string) shared.Filter {
	filter := shared.DefaultFilter()
	if page > 0 {
		filter.Page = page
	}
	if pageSize > 0 {
		filter.PageSize = pageSize
	}
	if orderBy != "" {
		filter.OrderBy = orderBy
	}
	if orderDir != "" {
		filter.OrderDir = orderDir
	}
	filter.Search = search
	return filter
}
