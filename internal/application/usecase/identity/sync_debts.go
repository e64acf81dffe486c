package identity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/opsledger/backend/internal/application/adapter"
	"github.com/opsledger/backend/internal/application/resilience"
	"github.com/opsledger/backend/internal/domain/entity"
)

// RowMerger receives rows pulled from other tenants.
type RowMerger interface {
	MergeRows(rows []*entity.Transaction)
}

// SyncGlobalDebtsInput represents the input for the cross-tenant debt pull.
type SyncGlobalDebtsInput struct {
	Party entity.Party
}

// SyncGlobalDebtsOutput represents the output of the cross-tenant debt pull.
type SyncGlobalDebtsOutput struct {
	Debts          []*entity.Transaction
	Counterparties []*entity.Counterparty
}

// SyncGlobalDebtsUseCase pulls pending rows recorded in any tenant under a
// counterparty whose phone matches the party's.
type SyncGlobalDebtsUseCase struct {
	transactionRepo  adapter.TransactionRepository
	counterpartyRepo adapter.CounterpartyRepository
	policy           resilience.Policy
}

// NewSyncGlobalDebtsUseCase creates a new SyncGlobalDebtsUseCase instance.
func NewSyncGlobalDebtsUseCase(
	transactionRepo adapter.TransactionRepository,
	counterpartyRepo adapter.CounterpartyRepository,
	policy resilience.Policy,
) *SyncGlobalDebtsUseCase {
	return &SyncGlobalDebtsUseCase{
		transactionRepo:  transactionRepo,
		counterpartyRepo: counterpartyRepo,
		policy:           policy,
	}
}

// Execute pulls the debts and merges them into ledger.
func (uc *SyncGlobalDebtsUseCase) Execute(ctx context.Context, ledger RowMerger, input SyncGlobalDebtsInput) (*SyncGlobalDebtsOutput, error) {
	output := &SyncGlobalDebtsOutput{}

	phone := CleanPhone(input.Party.Phone)
	if len(phone) < MinPhoneOverlap {
		return output, nil
	}

	records, err := resilience.Do(ctx, uc.policy, "find_counterparties_by_phone", func(ctx context.Context) ([]*entity.Counterparty, error) {
		return uc.counterpartyRepo.FindByPhone(ctx, phone)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find counterparties by phone: %w", err)
	}

	type key struct {
		tenantID uuid.UUID
		name     string
	}
	seen := make(map[key]struct{})

	for _, c := range records {
		if !PhonesOverlap(phone, CleanPhone(c.Phone)) {
			continue
		}
		output.Counterparties = append(output.Counterparties, c)

		k := key{tenantID: c.TenantID, name: c.Name}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}

		debts, err := resilience.Do(ctx, uc.policy, "find_pending_by_counterparty", func(ctx context.Context) ([]*entity.Transaction, error) {
			return uc.transactionRepo.FindPendingByCounterparty(ctx, c.TenantID, c.Name)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch debts of counterparty: %w", err)
		}
		output.Debts = append(output.Debts, debts...)
	}

	ledger.MergeRows(output.Debts)

	slog.InfoContext(ctx, "global debts synced",
		"tenant_id", input.Party.TenantID,
		"counterparties", len(output.Counterparties),
		"debts", len(output.Debts),
	)
	return output, nil
}
