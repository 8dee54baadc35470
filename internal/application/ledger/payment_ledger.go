package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hirepurchase/ledger/internal/application/unitofwork"
	"github.com/hirepurchase/ledger/internal/application/validation"
	"github.com/hirepurchase/ledger/internal/domain/hirepurchase"
	"github.com/hirepurchase/ledger/internal/domain/shared"
	"github.com/hirepurchase/ledger/internal/infrastructure/logger"
	"github.com/hirepurchase/ledger/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Policy holds the ledger rules that are configurable per deployment
type Policy struct {
	// Capacity decides which balance bounds a forward payment
	Capacity hirepurchase.CapacityPolicy
	// StrictTerms bounds the down payment by the cash value as well as the hire value
	StrictTerms bool
}

// DefaultPolicy checks payments against the hire balance and applies strict terms
func DefaultPolicy() Policy {
	return Policy{Capacity: hirepurchase.CapacityHire, StrictTerms: true}
}

// PaymentLedger applies and reverses payments against contract balances.
// Every balance change runs in one unit of work that locks the contract row,
// moves the balances, checks the version and writes the payment row, so the
// payment and its effect on the balances commit or roll back together.
type PaymentLedger struct {
	scope   unitofwork.Scope
	retrier *unitofwork.Retrier
	policy  Policy
	metrics *telemetry.LedgerMetrics
	logger  *zap.Logger
}

// NewPaymentLedger creates a new PaymentLedger
func NewPaymentLedger(scope unitofwork.Scope, retrier *unitofwork.Retrier, policy Policy, metrics *telemetry.LedgerMetrics, log *zap.Logger) *PaymentLedger {
	if policy.Capacity == "" {
		policy.Capacity = hirepurchase.CapacityHire
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PaymentLedger{
		scope:   scope,
		retrier: retrier,
		policy:  policy,
		metrics: metrics,
		logger:  log,
	}
}

// RecordPayment records a new installment and deducts it from both balances.
// Fails with ErrDuplicateReceipt when the receipt is taken and with
// ErrBalanceExceeded when the amount is more than the capacity policy allows.
func (l *PaymentLedger) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*PaymentResponse, error) {
	started := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, "payment_ledger", "record_payment")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrContractID, req.ContractID,
		telemetry.SpanAttrReceiptID, req.ReceiptID,
		telemetry.SpanAttrAmount, req.Amount,
	)

	result, err := l.recordPayment(ctx, req)
	l.metrics.ObserveOperation(ctx, "record_payment", started, err)
	if err != nil {
		l.recordFailure(ctx, span, err)
		return nil, err
	}

	l.metrics.RecordPayment(ctx, telemetry.PaymentRecorded, result.Amount)
	logger.WithLogger(ctx, l.logger).Info("Payment recorded",
		logger.Contract(result.ContractID),
		zap.String("receipt_id", result.ReceiptID),
		logger.Amount("amount", result.Amount),
		logger.Amount("hire_balance", result.Balance.HireBalance),
		logger.Amount("cash_balance", result.Balance.CashBalance),
	)
	return result, nil
}

func (l *PaymentLedger) recordPayment(ctx context.Context, req RecordPaymentRequest) (*PaymentResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	payment, err := hirepurchase.NewPayment(req.ContractID, req.Amount, req.Date, req.ReceiptID, req.Remark)
	if err != nil {
		return nil, err
	}

	var result *PaymentResponse
	err = l.retrier.Do(ctx, func(ctx context.Context) error {
		return l.scope.Execute(ctx, func(repos unitofwork.Repositories) error {
			contract, err := lockContract(ctx, repos, payment.ContractID)
			if err != nil {
				return err
			}

			taken, err := repos.Payments().ExistsByReceiptID(ctx, payment.ReceiptID)
			if err != nil {
				return fmt.Errorf("failed to check receipt: %w", err)
			}
			if taken {
				return shared.ErrDuplicateReceipt.
					WithMessage(fmt.Sprintf("Receipt %s is already recorded", payment.ReceiptID)).
					WithField("receipt_id")
			}

			if err := contract.ApplyPayment(payment.Amount, l.policy.Capacity); err != nil {
				return err
			}
			if err := repos.Contracts().SaveWithLock(ctx, contract); err != nil {
				return fmt.Errorf("failed to save contract balances: %w", err)
			}
			if err := repos.Payments().Create(ctx, payment); err != nil {
				return err
			}

			result = withBalance(payment, contract)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AmendPayment changes the amount of a recorded payment and moves both balances
// by the difference. Only an increase is checked against capacity.
func (l *PaymentLedger) AmendPayment(ctx context.Context, paymentID uuid.UUID, newAmount decimal.Decimal) (*PaymentResponse, error) {
	started := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, "payment_ledger", "amend_payment")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrPaymentID, paymentID,
		telemetry.SpanAttrAmount, newAmount,
	)

	if err := hirepurchase.ValidateAmount(newAmount); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		result    *PaymentResponse
		oldAmount decimal.Decimal
	)
	err := l.retrier.Do(ctx, func(ctx context.Context) error {
		return l.scope.Execute(ctx, func(repos unitofwork.Repositories) error {
			payment, contract, err := lockPayment(ctx, repos, paymentID)
			if err != nil {
				return err
			}
			old, err := payment.ChangeAmount(newAmount)
			if err != nil {
				return err
			}
			if err := contract.AmendPayment(old, newAmount, l.policy.Capacity); err != nil {
				return err
			}
			if err := repos.Contracts().SaveWithLock(ctx, contract); err != nil {
				return fmt.Errorf("failed to save contract balances: %w", err)
			}
			if err := repos.Payments().UpdateAmount(ctx, payment); err != nil {
				return fmt.Errorf("failed to update payment amount: %w", err)
			}
			oldAmount = old
			result = withBalance(payment, contract)
			return nil
		})
	})
	l.metrics.ObserveOperation(ctx, "amend_payment", started, err)
	if err != nil {
		l.recordFailure(ctx, span, err)
		return nil, err
	}

	l.metrics.RecordPayment(ctx, telemetry.PaymentAmended, newAmount.Sub(oldAmount))
	logger.WithLogger(ctx, l.logger).Info("Payment amended",
		logger.Contract(result.ContractID),
		zap.String("receipt_id", result.ReceiptID),
		logger.Amount("old_amount", oldAmount),
		logger.Amount("new_amount", newAmount),
		logger.Amount("hire_balance", result.Balance.HireBalance),
	)
	return result, nil
}

// ReversePayment removes a payment and restores its amount to both balances.
// Reversal is always permitted.
func (l *PaymentLedger) ReversePayment(ctx context.Context, paymentID uuid.UUID) (*BalanceResponse, error) {
	started := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, "payment_ledger", "reverse_payment")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrPaymentID, paymentID)

	var (
		result  BalanceResponse
		removed *hirepurchase.Payment
	)
	err := l.retrier.Do(ctx, func(ctx context.Context) error {
		return l.scope.Execute(ctx, func(repos unitofwork.Repositories) error {
			payment, contract, err := lockPayment(ctx, repos, paymentID)
			if err != nil {
				return err
			}
			if err := contract.ReversePayment(payment.Amount); err != nil {
				return err
			}
			if err := repos.Contracts().SaveWithLock(ctx, contract); err != nil {
				return fmt.Errorf("failed to save contract balances: %w", err)
			}
			if err := repos.Payments().Delete(ctx, payment.ID); err != nil {
				return fmt.Errorf("failed to delete payment: %w", err)
			}
			removed = payment
			result = toBalanceResponse(contract)
			return nil
		})
	})
	l.metrics.ObserveOperation(ctx, "reverse_payment", started, err)
	if err != nil {
		l.recordFailure(ctx, span, err)
		return nil, err
	}

	l.metrics.RecordPayment(ctx, telemetry.PaymentReversed, removed.Amount)
	logger.WithLogger(ctx, l.logger).Info("Payment reversed",
		logger.Contract(result.ContractID),
		zap.String("receipt_id", removed.ReceiptID),
		logger.Amount("amount", removed.Amount),
		logger.Amount("hire_balance", result.HireBalance),
	)
	return &result, nil
}

// GetContractBalance returns the current balances of a contract
func (l *PaymentLedger) GetContractBalance(ctx context.Context, contractID uuid.UUID) (*BalanceResponse, error) {
	var result BalanceResponse
	err := l.scope.Query(ctx, func(repos unitofwork.Repositories) error {
		contract, err := findContract(ctx, repos, contractID)
		if err != nil {
			return err
		}
		result = toBalanceResponse(contract)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetPaymentHistory lists the payments of a contract ordered by date, ties by creation time
func (l *PaymentLedger) GetPaymentHistory(ctx context.Context, contractID uuid.UUID) ([]PaymentResponse, error) {
	var payments []hirepurchase.Payment
	err := l.scope.Query(ctx, func(repos unitofwork.Repositories) error {
		if _, err := findContract(ctx, repos, contractID); err != nil {
			return err
		}
		var err error
		payments, err = repos.Payments().FindByContract(ctx, contractID)
		if err != nil {
			return fmt.Errorf("failed to list payments: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	history := make([]PaymentResponse, len(payments))
	for i := range payments {
		history[i] = ToPaymentResponse(&payments[i])
	}
	return history, nil
}

// GetPaymentByReceipt finds a payment by its receipt identifier
func (l *PaymentLedger) GetPaymentByReceipt(ctx context.Context, receiptID string) (*PaymentResponse, error) {
	receipt, err := hirepurchase.NormalizeReceiptID(receiptID)
	if err != nil {
		return nil, err
	}
	var payment *hirepurchase.Payment
	err = l.scope.Query(ctx, func(repos unitofwork.Repositories) error {
		var err error
		payment, err = repos.Payments().FindByReceiptID(ctx, receipt)
		return namedNotFound(err, "payment", receipt)
	})
	if err != nil {
		return nil, err
	}
	response := ToPaymentResponse(payment)
	return &response, nil
}

// ListContractIDs returns the ids of every contract, oldest first
func (l *PaymentLedger) ListContractIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := l.scope.Query(ctx, func(repos unitofwork.Repositories) error {
		var err error
		ids, err = repos.Contracts().ListIDs(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// AuditContract recomputes the balances of a contract from its payments and
// reports whether the stored balances drifted. Nothing is written.
func (l *PaymentLedger) AuditContract(ctx context.Context, contractID uuid.UUID) (*AuditResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment_ledger", "audit_contract")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrContractID, contractID)

	var result AuditResponse
	err := l.scope.Query(ctx, func(repos unitofwork.Repositories) error {
		contract, err := findContract(ctx, repos, contractID)
		if err != nil {
			return err
		}
		totalPaid, err := repos.Payments().SumByContract(ctx, contractID)
		if err != nil {
			return fmt.Errorf("failed to sum payments: %w", err)
		}
		result = toAuditResponse(contract, contract.Audit(totalPaid))
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if result.Drifted {
		l.metrics.RecordDrift(ctx)
		l.logDrift(ctx, result)
	}
	telemetry.SetAttributes(span, "drifted", result.Drifted)
	return &result, nil
}

// ReconcileContract rewrites the stored balances from the terms and the payment set
func (l *PaymentLedger) ReconcileContract(ctx context.Context, contractID uuid.UUID) (*AuditResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment_ledger", "reconcile_contract")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrContractID, contractID)

	var result AuditResponse
	err := l.retrier.Do(ctx, func(ctx context.Context) error {
		return l.scope.Execute(ctx, func(repos unitofwork.Repositories) error {
			contract, err := lockContract(ctx, repos, contractID)
			if err != nil {
				return err
			}
			totalPaid, err := repos.Payments().SumByContract(ctx, contractID)
			if err != nil {
				return fmt.Errorf("failed to sum payments: %w", err)
			}
			result = toAuditResponse(contract, contract.Audit(totalPaid))
			if !contract.Reconcile(totalPaid) {
				return nil
			}
			if err := repos.Contracts().SaveWithLock(ctx, contract); err != nil {
				return fmt.Errorf("failed to save contract balances: %w", err)
			}
			result.Reconciled = true
			return nil
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if result.Reconciled {
		l.metrics.RecordDrift(ctx)
		l.logDrift(ctx, result)
		logger.WithLogger(ctx, l.logger).Info("Contract balances reconciled",
			logger.Contract(contractID),
			logger.Amount("cash_balance", result.ExpectedCash),
			logger.Amount("hire_balance", result.ExpectedHire),
		)
	}
	return &result, nil
}

// ReviseTerms replaces the terms of a contract and re-derives its balances from
// the payments recorded so far
func (l *PaymentLedger) ReviseTerms(ctx context.Context, contractID uuid.UUID, req TermsRequest) (*ContractResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment_ledger", "revise_terms")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrContractID, contractID)

	if err := validation.Struct(req); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var result ContractResponse
	err := l.retrier.Do(ctx, func(ctx context.Context) error {
		return l.scope.Execute(ctx, func(repos unitofwork.Repositories) error {
			contract, err := lockContract(ctx, repos, contractID)
			if err != nil {
				return err
			}
			totalPaid, err := repos.Payments().SumByContract(ctx, contractID)
			if err != nil {
				return fmt.Errorf("failed to sum payments: %w", err)
			}
			if err := contract.ReviseTerms(req.terms(), totalPaid, l.policy.StrictTerms, l.policy.Capacity); err != nil {
				return err
			}
			if err := repos.Contracts().SaveWithLock(ctx, contract); err != nil {
				return fmt.Errorf("failed to save contract terms: %w", err)
			}
			result = ToContractResponse(contract)
			return nil
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	logger.WithLogger(ctx, l.logger).Info("Contract terms revised",
		logger.Contract(contractID),
		logger.Account(result.AccountNumber),
		logger.Amount("hire_balance", result.HireBalance),
	)
	return &result, nil
}

func (l *PaymentLedger) recordFailure(ctx context.Context, span trace.Span, err error) {
	telemetry.RecordError(span, err)
	if errors.Is(err, shared.ErrBalanceExceeded) {
		l.metrics.RecordBalanceExceeded(ctx, string(l.policy.Capacity))
	}
	if errors.Is(err, shared.ErrConcurrencyConflict) {
		logger.WithLogger(ctx, l.logger).Warn("Payment gave up after concurrent updates",
			zap.Int("max_retries", l.retrier.MaxRetries()),
			zap.Error(err),
		)
	}
}

func (l *PaymentLedger) logDrift(ctx context.Context, audit AuditResponse) {
	logger.WithLogger(ctx, l.logger).Warn("Contract balance drift detected",
		logger.Contract(audit.ContractID),
		logger.Account(audit.AccountNumber),
		logger.Amount("total_paid", audit.TotalPaid),
		logger.Amount("expected_hire_balance", audit.ExpectedHire),
		logger.Amount("stored_hire_balance", audit.StoredHire),
		logger.Amount("expected_cash_balance", audit.ExpectedCash),
		logger.Amount("stored_cash_balance", audit.StoredCash),
	)
}

// lockContract loads a contract and holds its row lock for the rest of the unit of work
func lockContract(ctx context.Context, repos unitofwork.Repositories, id uuid.UUID) (*hirepurchase.Contract, error) {
	contract, err := repos.Contracts().FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, namedNotFound(err, "contract", id)
	}
	return contract, nil
}

// lockPayment locks the contract a payment belongs to, then reads the payment
// again so that its amount is the one the lock protects
func lockPayment(ctx context.Context, repos unitofwork.Repositories, paymentID uuid.UUID) (*hirepurchase.Payment, *hirepurchase.Contract, error) {
	payment, err := repos.Payments().FindByID(ctx, paymentID)
	if err != nil {
		return nil, nil, namedNotFound(err, "payment", paymentID)
	}
	contract, err := lockContract(ctx, repos, payment.ContractID)
	if err != nil {
		return nil, nil, err
	}
	payment, err = repos.Payments().FindByID(ctx, paymentID)
	if err != nil {
		return nil, nil, namedNotFound(err, "payment", paymentID)
	}
	return payment, contract, nil
}

func findContract(ctx context.Context, repos unitofwork.Repositories, id uuid.UUID) (*hirepurchase.Contract, error) {
	contract, err := repos.Contracts().FindByID(ctx, id)
	if err != nil {
		return nil, namedNotFound(err, "contract", id)
	}
	return contract, nil
}

// namedNotFound replaces a bare not-found error with one naming the entity and id
func namedNotFound(err error, entity string, id any) error {
	if err == nil {
		return nil
	}
	var de *shared.DomainError
	if errors.As(err, &de) && de.Kind == shared.KindNotFound && de.Entity == "" {
		return shared.NewNotFoundError(entity, id)
	}
	return err
}
