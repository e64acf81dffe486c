package counterparty

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/opsledger/backend/internal/application/adapter"
	"github.com/opsledger/backend/internal/domain/entity"
)

// ListCounterpartiesInput represents the input for listing counterparties.
type ListCounterpartiesInput struct {
	TenantID uuid.UUID
}

// ListCounterpartiesOutput represents the output of listing counterparties.
type ListCounterpartiesOutput struct {
	Counterparties []*entity.Counterparty
}

// ListCounterpartiesUseCase lists the counterparties of a tenant.
type ListCounterpartiesUseCase struct {
	counterpartyRepo adapter.CounterpartyRepository
}

// NewListCounterpartiesUseCase creates a new ListCounterpartiesUseCase instance.
func NewListCounterpartiesUseCase(counterpartyRepo adapter.CounterpartyRepository) *ListCounterpartiesUseCase {
	return &ListCounterpartiesUseCase{
		counterpartyRepo: counterpartyRepo,
	}
}

// Execute lists the counterparties.
func (uc *ListCounterpartiesUseCase) Execute(ctx context.Context, input ListCounterpartiesInput) (*ListCounterpartiesOutput, error) {
	counterparties, err := uc.counterpartyRepo.FindByTenant(ctx, input.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list counterparties: %w", err)
	}
	if counterparties == nil {
		counterparties = []*entity.Counterparty{}
	}
	return &ListCounterpartiesOutput{Counterparties: counterparties}, nil
}
