package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opsledger/backend/internal/application/adapter"
	"github.com/opsledger/backend/internal/domain/entity"
	"github.com/opsledger/backend/internal/integration/persistence/model"
)

// configurationRepository implements the adapter.ConfigurationRepository interface.
type configurationRepository struct {
	db       *gorm.DB
	notifier changeNotifier
}

// NewConfigurationRepository creates a new configuration repository instance.
func NewConfigurationRepository(db *gorm.DB, publisher adapter.ChangePublisher) adapter.ConfigurationRepository {
	return &configurationRepository{
		db:       db,
		notifier: changeNotifier{publisher: publisher},
	}
}

// FindByTenant retrieves the tenant configuration with pools ordered by position.
func (r *configurationRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*entity.TenantConfiguration, error) {
	var models []model.InventoryPoolModel
	result := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("position ASC, name ASC").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	cfg := &entity.TenantConfiguration{
		TenantID: tenantID,
		Pools:    make([]*entity.InventoryPool, len(models)),
	}
	for i := range models {
		cfg.Pools[i] = models[i].ToEntity()
	}
	return cfg, nil
}

// Save replaces the tenant's pools with the given configuration in one transaction.
func (r *configurationRepository) Save(ctx context.Context, cfg *entity.TenantConfiguration) error {
	keep := make([]uuid.UUID, 0, len(cfg.Pools))
	var removed []uuid.UUID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, pool := range cfg.Pools {
			if pool.ID == uuid.Nil {
				pool.ID = uuid.New()
			}
			pool.TenantID = cfg.TenantID
			keep = append(keep, pool.ID)
			if err := tx.Save(model.InventoryPoolFromEntity(pool)).Error; err != nil {
				return err
			}
		}

		stale := tx.Model(&model.InventoryPoolModel{}).Where("tenant_id = ?", cfg.TenantID)
		if len(keep) > 0 {
			stale = stale.Where("id NOT IN ?", keep)
		}
		if err := stale.Pluck("id", &removed).Error; err != nil {
			return err
		}
		if len(removed) == 0 {
			return nil
		}
		return tx.Where("id IN ?", removed).Delete(&model.InventoryPoolModel{}).Error
	})
	if err != nil {
		return err
	}

	events := make([]entity.ChangeEvent, 0, len(cfg.Pools)+len(removed))
	for _, pool := range cfg.Pools {
		events = append(events, entity.ChangeEvent{
			Table:    entity.TableConfiguration,
			Kind:     entity.ChangeUpdate,
			TenantID: cfg.TenantID,
			RowID:    pool.ID,
			Pool:     pool.Clone(),
		})
	}
	for _, id := range removed {
		events = append(events, entity.ChangeEvent{
			Table:    entity.TableConfiguration,
			Kind:     entity.ChangeDelete,
			TenantID: cfg.TenantID,
			RowID:    id,
		})
	}
	r.notifier.notify(ctx, events...)
	return nil
}
