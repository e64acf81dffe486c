package adapter

import (
	"context"

	"github.com/google/uuid"

	"github.com/opsledger/backend/internal/domain/entity"
)

// ConfigurationRepository defines the interface for tenant configuration persistence.
type ConfigurationRepository interface {
	// FindByTenant retrieves the tenant configuration with pools ordered by position.
	// Returns an empty configuration when the tenant has none.
	FindByTenant(ctx context.Context, tenantID uuid.UUID) (*entity.TenantConfiguration, error)

	// Save persists every pool of the configuration in a single transaction.
	Save(ctx context.Context, cfg *entity.TenantConfiguration) error
}
