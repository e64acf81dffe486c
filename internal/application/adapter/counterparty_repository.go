package adapter

import (
	"context"

	"github.com/google/uuid"

	"github.com/opsledger/backend/internal/domain/entity"
)

// CounterpartyRepository defines the interface for counterparty persistence operations.
type CounterpartyRepository interface {
	// Create creates a new counterparty.
	Create(ctx context.Context, counterparty *entity.Counterparty) error

	// FindByID retrieves a counterparty of the tenant by ID.
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*entity.Counterparty, error)

	// FindByTenant retrieves every counterparty of a tenant ordered by name.
	FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]*entity.Counterparty, error)

	// FindByPhone retrieves counterparties of any tenant whose phone contains the digits.
	FindByPhone(ctx context.Context, digits string) ([]*entity.Counterparty, error)

	// Update updates an existing counterparty.
	Update(ctx context.Context, counterparty *entity.Counterparty) error

	// Delete removes a counterparty.
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
