package telemetry

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// MeterName is the instrumentation scope for ledger metrics
const MeterName = "hp-ledger"

// LedgerMetrics records business activity of the payment ledger and the account binder.
// A nil *LedgerMetrics is valid and records nothing.
type LedgerMetrics struct {
	paymentsTotal      *Counter
	paymentAmountMinor *Counter
	balanceExceeded    *Counter
	concurrencyRetries *Counter
	balanceDrift       *Counter
	identifiers        *Counter
	accountsTotal      *Counter
	operationDuration  *Histogram
}

// PaymentOperation labels payment counters.
type PaymentOperation string

const (
	PaymentRecorded PaymentOperation = "record"
	PaymentAmended  PaymentOperation = "amend"
	PaymentReversed PaymentOperation = "reverse"
)

// AccountOperation labels account counters.
type AccountOperation string

const (
	AccountBound    AccountOperation = "bind"
	AccountAttached AccountOperation = "attach"
	AccountClosed   AccountOperation = "close"
	AccountReopened AccountOperation = "reopen"
	AccountDeleted  AccountOperation = "delete"
)

// NewLedgerMetrics creates the ledger instruments on the given meter.
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	lm := &LedgerMetrics{}
	var err error

	if lm.paymentsTotal, err = NewCounter(meter,
		"hpl_payments_total",
		"Payment events applied to contract balances",
		"{payments}",
	); err != nil {
		return nil, err
	}
	if lm.paymentAmountMinor, err = NewCounter(meter,
		"hpl_payment_amount_minor_total",
		"Absolute amount moved by payment events in minor currency units",
		"{minor_units}",
	); err != nil {
		return nil, err
	}
	if lm.balanceExceeded, err = NewCounter(meter,
		"hpl_balance_exceeded_total",
		"Payments rejected because they exceed the remaining balance",
		"{payments}",
	); err != nil {
		return nil, err
	}
	if lm.concurrencyRetries, err = NewCounter(meter,
		"hpl_concurrency_retries_total",
		"Units of work retried after a serialization failure or lost version check",
		"{retries}",
	); err != nil {
		return nil, err
	}
	if lm.balanceDrift, err = NewCounter(meter,
		"hpl_balance_drift_total",
		"Contracts whose stored balances differ from the recomputation",
		"{contracts}",
	); err != nil {
		return nil, err
	}
	if lm.identifiers, err = NewCounter(meter,
		"hpl_identifiers_allocated_total",
		"Party identifiers allocated",
		"{identifiers}",
	); err != nil {
		return nil, err
	}
	if lm.accountsTotal, err = NewCounter(meter,
		"hpl_accounts_total",
		"Account lifecycle events",
		"{accounts}",
	); err != nil {
		return nil, err
	}
	if lm.operationDuration, err = NewHistogram(meter,
		"hpl_operation_duration_seconds",
		"Duration of ledger units of work including retries",
		"s",
		LedgerDurationBuckets,
	); err != nil {
		return nil, err
	}

	return lm, nil
}

// NewNoopLedgerMetrics returns metrics backed by the no-op meter.
func NewNoopLedgerMetrics() *LedgerMetrics {
	lm, _ := NewLedgerMetrics(noop.NewMeterProvider().Meter(MeterName))
	return lm
}

// RecordPayment counts a payment event and the amount it moved.
func (lm *LedgerMetrics) RecordPayment(ctx context.Context, op PaymentOperation, amount decimal.Decimal) {
	if lm == nil {
		return
	}
	lm.paymentsTotal.Inc(ctx, AttrOperation.String(string(op)))
	lm.paymentAmountMinor.Add(ctx, amount.Abs().Shift(2).IntPart(), AttrOperation.String(string(op)))
}

// RecordBalanceExceeded counts a payment rejected by the capacity check.
func (lm *LedgerMetrics) RecordBalanceExceeded(ctx context.Context, policy string) {
	if lm == nil {
		return
	}
	lm.balanceExceeded.Inc(ctx, AttrPolicy.String(policy))
}

// RecordRetry counts one retry of the named operation.
func (lm *LedgerMetrics) RecordRetry(ctx context.Context, operation string) {
	if lm == nil {
		return
	}
	lm.concurrencyRetries.Inc(ctx, AttrOperation.String(operation))
}

// RecordDrift counts a contract found with stale balances.
func (lm *LedgerMetrics) RecordDrift(ctx context.Context) {
	if lm == nil {
		return
	}
	lm.balanceDrift.Inc(ctx)
}

// RecordAllocation counts an identifier handed out from a sequence.
func (lm *LedgerMetrics) RecordAllocation(ctx context.Context, sequence string) {
	if lm == nil {
		return
	}
	lm.identifiers.Inc(ctx, AttrSequence.String(sequence))
}

// RecordAccount counts an account lifecycle event.
func (lm *LedgerMetrics) RecordAccount(ctx context.Context, op AccountOperation) {
	if lm == nil {
		return
	}
	lm.accountsTotal.Inc(ctx, AttrOperation.String(string(op)))
}

// ObserveOperation records how long a unit of work took and whether it succeeded.
func (lm *LedgerMetrics) ObserveOperation(ctx context.Context, operation string, started time.Time, err error) {
	if lm == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	lm.operationDuration.RecordDuration(ctx, time.Since(started),
		AttrOperation.String(operation),
		AttrOutcome.String(outcome),
	)
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewLedgerMetrics", Err: "meter cannot be nil"}

// MetricsError represents an error in metrics operations.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
