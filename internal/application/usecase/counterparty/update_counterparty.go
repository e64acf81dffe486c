package counterparty

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/opsledger/backend/internal/application/adapter"
	"github.com/opsledger/backend/internal/application/usecase/identity"
	"github.com/opsledger/backend/internal/domain/entity"
	domainerror "github.com/opsledger/backend/internal/domain/error"
)

// UpdateCounterpartyInput represents the input for counterparty update.
type UpdateCounterpartyInput struct {
	TenantID       uuid.UUID
	CounterpartyID uuid.UUID
	Name           *string // Optional
	Phone          *string // Optional
}

// UpdateCounterpartyOutput represents the output of counterparty update.
type UpdateCounterpartyOutput struct {
	Counterparty *entity.Counterparty
}

// UpdateCounterpartyUseCase handles counterparty update logic.
type UpdateCounterpartyUseCase struct {
	counterpartyRepo adapter.CounterpartyRepository
}

// NewUpdateCounterpartyUseCase creates a new UpdateCounterpartyUseCase instance.
func NewUpdateCounterpartyUseCase(counterpartyRepo adapter.CounterpartyRepository) *UpdateCounterpartyUseCase {
	return &UpdateCounterpartyUseCase{
		counterpartyRepo: counterpartyRepo,
	}
}

// Execute performs the counterparty update.
func (uc *UpdateCounterpartyUseCase) Execute(ctx context.Context, input UpdateCounterpartyInput) (*UpdateCounterpartyOutput, error) {
	counterparty, err := findCounterparty(ctx, uc.counterpartyRepo, input.TenantID, input.CounterpartyID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name, err := validateName(*input.Name)
		if err != nil {
			return nil, err
		}
		counterparty.Name = name
	}
	if input.Phone != nil {
		counterparty.Phone = identity.CleanPhone(*input.Phone)
	}

	if err := uc.counterpartyRepo.Update(ctx, counterparty); err != nil {
		return nil, fmt.Errorf("failed to update counterparty: %w", err)
	}

	return &UpdateCounterpartyOutput{
		Counterparty: counterparty,
	}, nil
}

func findCounterparty(ctx context.Context, repo adapter.CounterpartyRepository, tenantID, id uuid.UUID) (*entity.Counterparty, error) {
	counterparty, err := repo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, domainerror.ErrCounterpartyNotFound) {
			return nil, domainerror.NewCounterpartyError(
				domainerror.ErrCodeCounterpartyNotFound,
				"counterparty not found",
				domainerror.ErrCounterpartyNotFound,
			)
		}
		return nil, fmt.Errorf("failed to find counterparty: %w", err)
	}
	return counterparty, nil
}
