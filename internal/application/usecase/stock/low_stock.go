package stock

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/opsledger/backend/internal/application/adapter"
	"github.com/opsledger/backend/internal/application/resilience"
	"github.com/opsledger/backend/internal/domain/entity"
)

// LowStockItem is a stock item at or below its minimum.
type LowStockItem struct {
	PoolID   uuid.UUID
	PoolName string
	Item     entity.StockItem
}

// LowStock lists every item at or below its minimum, in pool order.
func LowStock(cfg *entity.TenantConfiguration) []LowStockItem {
	var out []LowStockItem
	for _, p := range cfg.Pools {
		for _, item := range p.Items {
			if item.IsLow() {
				out = append(out, LowStockItem{PoolID: p.ID, PoolName: p.Name, Item: item})
			}
		}
	}
	return out
}

// GetLowStockInput represents the input for the low stock report.
type GetLowStockInput struct {
	TenantID uuid.UUID
}

// GetLowStockOutput represents the output of the low stock report.
type GetLowStockOutput struct {
	Items []LowStockItem
}

// GetLowStockUseCase reports low stock items from a fresh configuration.
type GetLowStockUseCase struct {
	configRepo adapter.ConfigurationRepository
	policy     resilience.Policy
}

// NewGetLowStockUseCase creates a new GetLowStockUseCase instance.
func NewGetLowStockUseCase(configRepo adapter.ConfigurationRepository, policy resilience.Policy) *GetLowStockUseCase {
	return &GetLowStockUseCase{configRepo: configRepo, policy: policy}
}

// Execute builds the low stock report.
func (uc *GetLowStockUseCase) Execute(ctx context.Context, input GetLowStockInput) (*GetLowStockOutput, error) {
	cfg, err := resilience.Do(ctx, uc.policy, "fetch_configuration", func(ctx context.Context) (*entity.TenantConfiguration, error) {
		return uc.configRepo.FindByTenant(ctx, input.TenantID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch configuration: %w", err)
	}
	return &GetLowStockOutput{Items: LowStock(cfg)}, nil
}
