package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opsledger/backend/internal/application/adapter"
	"github.com/opsledger/backend/internal/domain/entity"
	domainerror "github.com/opsledger/backend/internal/domain/error"
	"github.com/opsledger/backend/internal/integration/persistence/model"
)

// counterpartyRepository implements the adapter.CounterpartyRepository interface.
type counterpartyRepository struct {
	db       *gorm.DB
	notifier changeNotifier
}

// NewCounterpartyRepository creates a new counterparty repository instance.
func NewCounterpartyRepository(db *gorm.DB, publisher adapter.ChangePublisher) adapter.CounterpartyRepository {
	return &counterpartyRepository{
		db:       db,
		notifier: changeNotifier{publisher: publisher},
	}
}

// Create creates a new counterparty in the database.
func (r *counterpartyRepository) Create(ctx context.Context, counterparty *entity.Counterparty) error {
	if err := r.db.WithContext(ctx).Create(model.CounterpartyFromEntity(counterparty)).Error; err != nil {
		return err
	}
	r.notifier.notify(ctx, counterpartyEvent(entity.ChangeInsert, counterparty))
	return nil
}

// FindByID retrieves a counterparty of the tenant by its ID.
func (r *counterpartyRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*entity.Counterparty, error) {
	var counterpartyModel model.CounterpartyModel
	result := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&counterpartyModel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domainerror.ErrCounterpartyNotFound
		}
		return nil, result.Error
	}
	return counterpartyModel.ToEntity(), nil
}

// FindByTenant retrieves every counterparty of a tenant ordered by name.
func (r *counterpartyRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]*entity.Counterparty, error) {
	var models []model.CounterpartyModel
	result := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}
	return counterpartiesToEntities(models), nil
}

// FindByPhone retrieves counterparties of any tenant whose phone contains the digits.
func (r *counterpartyRepository) FindByPhone(ctx context.Context, digits string) ([]*entity.Counterparty, error) {
	if digits == "" {
		return []*entity.Counterparty{}, nil
	}
	var models []model.CounterpartyModel
	result := r.db.WithContext(ctx).
		Where("phone <> '' AND (phone LIKE ? OR ? LIKE '%' || phone || '%')", "%"+digits+"%", digits).
		Order("tenant_id ASC, name ASC").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}
	return counterpartiesToEntities(models), nil
}

// Update updates an existing counterparty in the database.
func (r *counterpartyRepository) Update(ctx context.Context, counterparty *entity.Counterparty) error {
	result := r.db.WithContext(ctx).
		Model(&model.CounterpartyModel{}).
		Where("id = ? AND tenant_id = ?", counterparty.ID, counterparty.TenantID).
		Updates(map[string]interface{}{
			"name":  counterparty.Name,
			"phone": counterparty.Phone,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerror.ErrCounterpartyNotFound
	}
	r.notifier.notify(ctx, counterpartyEvent(entity.ChangeUpdate, counterparty))
	return nil
}

// Delete removes a counterparty from the database.
func (r *counterpartyRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.CounterpartyModel{}, "id = ? AND tenant_id = ?", id, tenantID)
	if result.Error != nil {
		return result.Error
	}
	r.notifier.notify(ctx, entity.ChangeEvent{
		Table:    entity.TableCounterparties,
		Kind:     entity.ChangeDelete,
		TenantID: tenantID,
		RowID:    id,
	})
	return nil
}

func counterpartyEvent(kind entity.ChangeKind, c *entity.Counterparty) entity.ChangeEvent {
	cp := *c
	return entity.ChangeEvent{
		Table:        entity.TableCounterparties,
		Kind:         kind,
		TenantID:     c.TenantID,
		RowID:        c.ID,
		Counterparty: &cp,
	}
}

func counterpartiesToEntities(models []model.CounterpartyModel) []*entity.Counterparty {
	counterparties := make([]*entity.Counterparty, len(models))
	for i := range models {
		counterparties[i] = models[i].ToEntity()
	}
	return counterparties
}
