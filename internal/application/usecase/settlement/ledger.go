// Package settlement contains debt settlement and audited edit use cases.
package settlement

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opsledger/backend/internal/domain/entity"
)

// Ledger is the part of the ledger store settlements go through.
type Ledger interface {
	Find(id uuid.UUID) (*entity.Transaction, bool)
	AddBatch(ctx context.Context, entries []*entity.Transaction) ([]*entity.Transaction, error)
	Update(ctx context.Context, id uuid.UUID, patch entity.TransactionPatch) (*entity.Transaction, error)
	SetPending(ctx context.Context, ids []uuid.UUID, pending bool) (int64, error)
	ApplyPartialSettlement(ctx context.Context, original *entity.Transaction, remaining decimal.Decimal, receipt *entity.Transaction) (*entity.Transaction, *entity.Transaction, error)
}
