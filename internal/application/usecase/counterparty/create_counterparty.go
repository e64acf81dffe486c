// Package counterparty contains counterparty directory use cases.
package counterparty

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/opsledger/backend/internal/application/adapter"
	"github.com/opsledger/backend/internal/application/usecase/identity"
	"github.com/opsledger/backend/internal/domain/entity"
	domainerror "github.com/opsledger/backend/internal/domain/error"
)

// MaxCounterpartyNameLength is the maximum allowed length for counterparty names.
const MaxCounterpartyNameLength = 80

// CreateCounterpartyInput represents the input for counterparty creation.
type CreateCounterpartyInput struct {
	TenantID uuid.UUID
	Name     string
	Phone    string // Optional
}

// CreateCounterpartyOutput represents the output of counterparty creation.
type CreateCounterpartyOutput struct {
	Counterparty *entity.Counterparty
}

// CreateCounterpartyUseCase handles counterparty creation logic.
type CreateCounterpartyUseCase struct {
	counterpartyRepo adapter.CounterpartyRepository
}

// NewCreateCounterpartyUseCase creates a new CreateCounterpartyUseCase instance.
func NewCreateCounterpartyUseCase(counterpartyRepo adapter.CounterpartyRepository) *CreateCounterpartyUseCase {
	return &CreateCounterpartyUseCase{
		counterpartyRepo: counterpartyRepo,
	}
}

// Execute performs the counterparty creation.
func (uc *CreateCounterpartyUseCase) Execute(ctx context.Context, input CreateCounterpartyInput) (*CreateCounterpartyOutput, error) {
	name, err := validateName(input.Name)
	if err != nil {
		return nil, err
	}

	counterparty := entity.NewCounterparty(input.TenantID, name, identity.CleanPhone(input.Phone))
	if err := uc.counterpartyRepo.Create(ctx, counterparty); err != nil {
		return nil, fmt.Errorf("failed to create counterparty: %w", err)
	}

	return &CreateCounterpartyOutput{
		Counterparty: counterparty,
	}, nil
}

// validateName trims the name and checks it is present and short enough.
func validateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", domainerror.NewCounterpartyError(
			domainerror.ErrCodeMissingCounterpartyName,
			"counterparty name is required",
			domainerror.ErrMissingCounterpartyName,
		)
	}
	if utf8.RuneCountInString(name) > MaxCounterpartyNameLength {
		return "", domainerror.NewCounterpartyError(
			domainerror.ErrCodeCounterpartyNameTooLong,
			fmt.Sprintf("counterparty name must not exceed %d characters", MaxCounterpartyNameLength),
			domainerror.ErrCounterpartyNameTooLong,
		)
	}
	return name, nil
}
