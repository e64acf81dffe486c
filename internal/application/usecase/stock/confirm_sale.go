package stock

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/opsledger/backend/internal/application/adapter"
	"github.com/opsledger/backend/internal/application/resilience"
	"github.com/opsledger/backend/internal/domain/entity"
	domainerror "github.com/opsledger/backend/internal/domain/error"
)

// LedgerWriter is the part of the ledger store a sale needs.
type LedgerWriter interface {
	AddBatch(ctx context.Context, entries []*entity.Transaction) ([]*entity.Transaction, error)
}

// ConfirmSaleInput represents the input for sale confirmation.
type ConfirmSaleInput struct {
	TenantID      uuid.UUID
	SellingPoolID uuid.UUID
	Entries       []*entity.Transaction
}

// ConfirmSaleOutput represents the output of sale confirmation.
type ConfirmSaleOutput struct {
	Transactions []*entity.Transaction
	Deductions   []Deduction
	StockSaved   bool
}

// ConfirmSaleUseCase records a sale and deducts the sold quantities from stock.
type ConfirmSaleUseCase struct {
	configRepo adapter.ConfigurationRepository
	policy     resilience.Policy
}

// NewConfirmSaleUseCase creates a new ConfirmSaleUseCase instance.
func NewConfirmSaleUseCase(configRepo adapter.ConfigurationRepository, policy resilience.Policy) *ConfirmSaleUseCase {
	return &ConfirmSaleUseCase{configRepo: configRepo, policy: policy}
}

// Execute adds the batch, fetches a fresh configuration, resolves the stock
// cascade and saves the configuration once if anything was deducted.
func (uc *ConfirmSaleUseCase) Execute(ctx context.Context, ledger LedgerWriter, input ConfirmSaleInput) (*ConfirmSaleOutput, error) {
	stored, err := ledger.AddBatch(ctx, input.Entries)
	if err != nil {
		return nil, fmt.Errorf("failed to record sale: %w", err)
	}

	output := &ConfirmSaleOutput{Transactions: stored}

	sold := SoldItemsFromTransactions(stored)
	if len(sold) == 0 {
		return output, nil
	}

	cfg, err := resilience.Do(ctx, uc.policy, "fetch_configuration", func(ctx context.Context) (*entity.TenantConfiguration, error) {
		return uc.configRepo.FindByTenant(ctx, input.TenantID)
	})
	if err != nil {
		return nil, domainerror.NewStockError(
			domainerror.ErrCodeStockSaveFailed,
			"sale recorded but stock could not be updated",
			err,
		)
	}

	result, err := ResolveCascade(cfg, input.SellingPoolID, sold)
	if err != nil {
		return nil, err
	}
	output.Deductions = result.Deductions
	if !result.Changed {
		return output, nil
	}

	err = resilience.Exec(ctx, uc.policy, "save_configuration", func(ctx context.Context) error {
		return uc.configRepo.Save(ctx, result.Configuration)
	})
	if err != nil {
		return nil, domainerror.NewStockError(
			domainerror.ErrCodeStockSaveFailed,
			"sale recorded but stock could not be updated",
			err,
		)
	}
	output.StockSaved = true

	slog.InfoContext(ctx, "stock deducted",
		"tenant_id", input.TenantID,
		"pool_id", input.SellingPoolID,
		"deductions", len(result.Deductions),
	)
	return output, nil
}
