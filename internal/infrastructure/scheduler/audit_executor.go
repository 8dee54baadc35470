package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/hirepurchase/ledger/internal/application/ledger"
	"github.com/hirepurchase/ledger/internal/domain/shared"
	"github.com/hirepurchase/ledger/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ContractAuditor audits and repairs contract balances
type ContractAuditor interface {
	AuditContract(ctx context.Context, contractID uuid.UUID) (*ledger.AuditResponse, error)
	ReconcileContract(ctx context.Context, contractID uuid.UUID) (*ledger.AuditResponse, error)
}

// AuditStats counts audit outcomes since the executor was created
type AuditStats struct {
	Audited    int64
	Drifted    int64
	Reconciled int64
	Skipped    int64
}

// AuditExecutor implements JobExecutor on top of the payment ledger.
// It logs through the logger the scheduler attaches to the job context.
type AuditExecutor struct {
	auditor ContractAuditor

	audited    atomic.Int64
	drifted    atomic.Int64
	reconciled atomic.Int64
	skipped    atomic.Int64
}

// NewAuditExecutor creates a new audit executor
func NewAuditExecutor(auditor ContractAuditor) *AuditExecutor {
	return &AuditExecutor{auditor: auditor}
}

// Execute audits the job's contract and reconciles it when the job asks for repair.
// A contract deleted after it was listed is skipped.
func (e *AuditExecutor) Execute(ctx context.Context, job *Job) error {
	result, err := e.auditor.AuditContract(ctx, job.ContractID)
	if errors.Is(err, shared.ErrNotFound) {
		e.skipped.Add(1)
		logger.L(ctx).Debug("Contract gone before its audit",
			zap.String("contract_id", job.ContractID.String()),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to audit contract: %w", err)
	}
	e.audited.Add(1)

	job.Drifted = result.Drifted
	if !result.Drifted {
		return nil
	}
	e.drifted.Add(1)
	logger.L(ctx).Warn("Contract balances drifted",
		zap.String("contract_id", job.ContractID.String()),
		zap.String("expected_hire", result.ExpectedHire.String()),
		zap.String("stored_hire", result.StoredHire.String()),
		zap.Bool("repair", job.Repair),
	)
	if !job.Repair {
		return nil
	}

	repaired, err := e.auditor.ReconcileContract(ctx, job.ContractID)
	if errors.Is(err, shared.ErrNotFound) {
		e.skipped.Add(1)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to reconcile contract: %w", err)
	}
	job.Reconciled = repaired.Reconciled
	if repaired.Reconciled {
		e.reconciled.Add(1)
	}
	return nil
}

// Stats returns a snapshot of the outcome counters
func (e *AuditExecutor) Stats() AuditStats {
	return AuditStats{
		Audited:    e.audited.Load(),
		Drifted:    e.drifted.Load(),
		Reconciled: e.reconciled.Load(),
		Skipped:    e.skipped.Load(),
	}
}

// Ensure AuditExecutor implements JobExecutor
var _ JobExecutor = (*AuditExecutor)(nil)

// Ensure the payment ledger can drive the executor
var _ ContractAuditor = (*ledger.PaymentLedger)(nil)
