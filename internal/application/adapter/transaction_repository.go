// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opsledger/backend/internal/domain/entity"
)

// PartialSettlement describes the two writes of a partial debt payoff.
// ExpectedValue is the balance the caller observed; the remote store refuses
// the write with a conflict when the stored balance no longer matches it.
type PartialSettlement struct {
	OriginalID    uuid.UUID
	TenantID      uuid.UUID
	ExpectedValue decimal.Decimal
	Remaining     decimal.Decimal
	Receipt       *entity.Transaction
}

// TransactionRepository defines the interface for transaction persistence operations.
type TransactionRepository interface {
	// FindRecentByTenant retrieves the newest transactions of a tenant, capped at limit.
	FindRecentByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]*entity.Transaction, error)

	// FindPendingByTenant retrieves every pending transaction of a tenant.
	FindPendingByTenant(ctx context.Context, tenantID uuid.UUID) ([]*entity.Transaction, error)

	// FindPendingByCounterparty retrieves pending transactions recorded under a counterparty name.
	FindPendingByCounterparty(ctx context.Context, tenantID uuid.UUID, name string) ([]*entity.Transaction, error)

	// InsertBatch persists a batch in one call and returns the stored rows.
	InsertBatch(ctx context.Context, transactions []*entity.Transaction) ([]*entity.Transaction, error)

	// UpdateFields persists only the mutable fields carried by the patch.
	UpdateFields(ctx context.Context, tenantID, id uuid.UUID, patch entity.TransactionPatch) (*entity.Transaction, error)

	// SetPending sets is_pending on every listed transaction of the tenant.
	// Returns the count of matched transactions.
	SetPending(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID, pending bool) (int64, error)

	// Delete removes a transaction.
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	// DeleteSettledSince removes settled transactions recorded at or after since.
	DeleteSettledSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int64, error)

	// DeleteAll removes every transaction of the tenant.
	DeleteAll(ctx context.Context, tenantID uuid.UUID) (int64, error)

	// ApplyPartialSettlement reduces the original balance and inserts the receipt atomically.
	ApplyPartialSettlement(ctx context.Context, settlement PartialSettlement) error
}
