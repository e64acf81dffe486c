// Package persistence implements repository interfaces for database operations.
package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opsledger/backend/internal/application/adapter"
	"github.com/opsledger/backend/internal/domain/entity"
	domainerror "github.com/opsledger/backend/internal/domain/error"
	"github.com/opsledger/backend/internal/integration/persistence/model"
)

const newestFirst = "recorded_at DESC, id DESC"

// transactionRepository implements the adapter.TransactionRepository interface.
type transactionRepository struct {
	db       *gorm.DB
	notifier changeNotifier
}

// NewTransactionRepository creates a new transaction repository instance.
// Committed writes are announced through publisher when it is not nil.
func NewTransactionRepository(db *gorm.DB, publisher adapter.ChangePublisher) adapter.TransactionRepository {
	return &transactionRepository{
		db:       db,
		notifier: changeNotifier{publisher: publisher},
	}
}

// FindRecentByTenant retrieves the newest transactions of a tenant.
func (r *transactionRepository) FindRecentByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]*entity.Transaction, error) {
	var models []model.TransactionModel
	query := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order(newestFirst)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return model.TransactionsToEntities(models), nil
}

// FindPendingByTenant retrieves every pending transaction of a tenant.
func (r *transactionRepository) FindPendingByTenant(ctx context.Context, tenantID uuid.UUID) ([]*entity.Transaction, error) {
	var models []model.TransactionModel
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_pending = ?", tenantID, true).
		Order(newestFirst).
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}
	return model.TransactionsToEntities(models), nil
}

// FindPendingByCounterparty retrieves pending transactions recorded under a counterparty name.
func (r *transactionRepository) FindPendingByCounterparty(ctx context.Context, tenantID uuid.UUID, name string) ([]*entity.Transaction, error) {
	var models []model.TransactionModel
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_pending = ? AND counterparty_name = ?", tenantID, true, name).
		Order(newestFirst).
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}
	return model.TransactionsToEntities(models), nil
}

// InsertBatch persists the batch in a single statement.
func (r *transactionRepository) InsertBatch(ctx context.Context, transactions []*entity.Transaction) ([]*entity.Transaction, error) {
	if len(transactions) == 0 {
		return []*entity.Transaction{}, nil
	}

	models := make([]model.TransactionModel, len(transactions))
	for i, t := range transactions {
		models[i] = *model.TransactionFromEntity(t)
	}
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		return nil, err
	}

	stored := model.TransactionsToEntities(models)
	events := make([]entity.ChangeEvent, len(stored))
	for i, t := range stored {
		events[i] = transactionEvent(entity.ChangeInsert, t)
	}
	r.notifier.notify(ctx, events...)
	return stored, nil
}

// UpdateFields persists only the fields carried by the patch.
func (r *transactionRepository) UpdateFields(ctx context.Context, tenantID, id uuid.UUID, patch entity.TransactionPatch) (*entity.Transaction, error) {
	updates := map[string]interface{}{"updated_at": time.Now().UTC()}
	if patch.Value != nil {
		updates["value"] = entity.RoundMoney(*patch.Value)
	}
	if patch.Quantity != nil {
		updates["quantity"] = *patch.Quantity
	}
	if patch.IsPending != nil {
		updates["is_pending"] = *patch.IsPending
	}
	if patch.Item != nil {
		updates["item"] = *patch.Item
	}

	var stored model.TransactionModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.TransactionModel{}).
			Where("id = ? AND tenant_id = ?", id, tenantID).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerror.ErrTransactionNotFound
		}
		return tx.Where("id = ?", id).First(&stored).Error
	})
	if err != nil {
		return nil, err
	}

	updated := stored.ToEntity()
	r.notifier.notify(ctx, transactionEvent(entity.ChangeUpdate, updated))
	return updated, nil
}

// SetPending sets is_pending on every listed transaction of the tenant.
func (r *transactionRepository) SetPending(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID, pending bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var stored []model.TransactionModel
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.TransactionModel{}).
			Where("tenant_id = ? AND id IN ?", tenantID, ids).
			Updates(map[string]interface{}{
				"is_pending": pending,
				"updated_at": time.Now().UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		return tx.Where("tenant_id = ? AND id IN ?", tenantID, ids).Find(&stored).Error
	})
	if err != nil {
		return 0, err
	}

	events := make([]entity.ChangeEvent, len(stored))
	for i := range stored {
		events[i] = transactionEvent(entity.ChangeUpdate, stored[i].ToEntity())
	}
	r.notifier.notify(ctx, events...)
	return affected, nil
}

// Delete removes a transaction.
func (r *transactionRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&model.TransactionModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerror.ErrTransactionNotFound
	}

	r.notifier.notify(ctx, entity.ChangeEvent{
		Table:    entity.TableTransactions,
		Kind:     entity.ChangeDelete,
		TenantID: tenantID,
		RowID:    id,
	})
	return nil
}

// DeleteSettledSince removes settled transactions recorded at or after since.
func (r *transactionRepository) DeleteSettledSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int64, error) {
	return r.deleteWhere(ctx, tenantID, "tenant_id = ? AND is_pending = ? AND recorded_at >= ?", tenantID, false, since.UTC())
}

// DeleteAll removes every transaction of the tenant.
func (r *transactionRepository) DeleteAll(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return r.deleteWhere(ctx, tenantID, "tenant_id = ?", tenantID)
}

// deleteWhere removes the rows matched by the condition and announces each deletion.
func (r *transactionRepository) deleteWhere(ctx context.Context, tenantID uuid.UUID, query string, args ...interface{}) (int64, error) {
	var ids []uuid.UUID
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.TransactionModel{}).Where(query, args...).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		result := tx.Where("id IN ?", ids).Delete(&model.TransactionModel{})
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}

	events := make([]entity.ChangeEvent, len(ids))
	for i, id := range ids {
		events[i] = entity.ChangeEvent{
			Table:    entity.TableTransactions,
			Kind:     entity.ChangeDelete,
			TenantID: tenantID,
			RowID:    id,
		}
	}
	r.notifier.notify(ctx, events...)
	return affected, nil
}

// ApplyPartialSettlement reduces the original balance and inserts the receipt
// in one database transaction. The reduction is a compare-and-set on the
// balance the caller observed; a lost race is reported as a conflict.
// Replaying a settlement whose receipt already exists is a no-op.
func (r *transactionRepository) ApplyPartialSettlement(ctx context.Context, settlement adapter.PartialSettlement) error {
	if settlement.Receipt == nil {
		return errors.New("partial settlement requires a receipt")
	}

	var original model.TransactionModel
	var replayed bool
	receipt := model.TransactionFromEntity(settlement.Receipt)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The receipt id is stamped by the caller, so an existing receipt means
		// this settlement already committed.
		var existing int64
		if err := tx.Model(&model.TransactionModel{}).
			Where("id = ? AND tenant_id = ?", receipt.ID, settlement.TenantID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			replayed = true
			return nil
		}

		result := tx.Model(&model.TransactionModel{}).
			Where("id = ? AND tenant_id = ? AND is_pending = ? AND value = ?",
				settlement.OriginalID, settlement.TenantID, true, entity.RoundMoney(settlement.ExpectedValue)).
			Updates(map[string]interface{}{
				"value":      entity.RoundMoney(settlement.Remaining),
				"updated_at": time.Now().UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerror.NewRemoteError(domainerror.RemoteKindConflict, "apply_partial_settlement",
				errors.New("balance changed since it was read"))
		}
		if err := tx.Create(receipt).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", settlement.OriginalID).First(&original).Error
	})
	if err != nil {
		return err
	}
	if replayed {
		return nil
	}

	r.notifier.notify(ctx,
		transactionEvent(entity.ChangeUpdate, original.ToEntity()),
		transactionEvent(entity.ChangeInsert, receipt.ToEntity()),
	)
	return nil
}
