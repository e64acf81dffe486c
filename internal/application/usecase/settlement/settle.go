package settlement

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// SettleInput represents the input for a full settlement.
type SettleInput struct {
	CounterpartyName string
	TransactionIDs   []uuid.UUID
}

// SettleOutput represents the output of a full settlement.
type SettleOutput struct {
	Settled int64
}

// SettleUseCase marks a batch of debts as paid. Values are left untouched and
// re-settling a settled row is a no-op.
type SettleUseCase struct{}

// NewSettleUseCase creates a new SettleUseCase instance.
func NewSettleUseCase() *SettleUseCase {
	return &SettleUseCase{}
}

// Execute performs the full settlement.
func (uc *SettleUseCase) Execute(ctx context.Context, ledger Ledger, input SettleInput) (*SettleOutput, error) {
	n, err := ledger.SetPending(ctx, input.TransactionIDs, false)
	if err != nil {
		return nil, fmt.Errorf("failed to settle debts: %w", err)
	}

	slog.InfoContext(ctx, "debts settled",
		"counterparty", input.CounterpartyName,
		"transactions", len(input.TransactionIDs),
		"settled", n,
	)
	return &SettleOutput{Settled: n}, nil
}
