package counterparty

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/opsledger/backend/internal/application/adapter"
)

// DeleteCounterpartyInput represents the input for counterparty deletion.
type DeleteCounterpartyInput struct {
	TenantID       uuid.UUID
	CounterpartyID uuid.UUID
}

// DeleteCounterpartyUseCase removes a counterparty from the directory.
// Ledger rows that mention its name are left untouched.
type DeleteCounterpartyUseCase struct {
	counterpartyRepo adapter.CounterpartyRepository
}

// NewDeleteCounterpartyUseCase creates a new DeleteCounterpartyUseCase instance.
func NewDeleteCounterpartyUseCase(counterpartyRepo adapter.CounterpartyRepository) *DeleteCounterpartyUseCase {
	return &DeleteCounterpartyUseCase{
		counterpartyRepo: counterpartyRepo,
	}
}

// Execute performs the counterparty deletion.
func (uc *DeleteCounterpartyUseCase) Execute(ctx context.Context, input DeleteCounterpartyInput) error {
	if _, err := findCounterparty(ctx, uc.counterpartyRepo, input.TenantID, input.CounterpartyID); err != nil {
		return err
	}
	if err := uc.counterpartyRepo.Delete(ctx, input.TenantID, input.CounterpartyID); err != nil {
		return fmt.Errorf("failed to delete counterparty: %w", err)
	}
	return nil
}
