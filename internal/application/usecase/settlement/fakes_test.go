package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opsledger/backend/internal/domain/entity"
)

// fakeLedger keeps rows in a map and applies writes immediately.
type fakeLedger struct {
	rows map[uuid.UUID]*entity.Transaction

	addErr     error
	updateErr  error
	partialErr error
}

func newFakeLedger(rows ...*entity.Transaction) *fakeLedger {
	l := &fakeLedger{rows: make(map[uuid.UUID]*entity.Transaction)}
	for _, t := range rows {
		l.rows[t.ID] = t.Clone()
	}
	return l
}

func (l *fakeLedger) Find(id uuid.UUID) (*entity.Transaction, bool) {
	t, ok := l.rows[id]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

func (l *fakeLedger) AddBatch(ctx context.Context, entries []*entity.Transaction) ([]*entity.Transaction, error) {
	if l.addErr != nil {
		return nil, l.addErr
	}
	out := make([]*entity.Transaction, len(entries))
	for i, e := range entries {
		c := e.Clone()
		c.ID = uuid.New()
		c.Timestamp = time.Now()
		l.rows[c.ID] = c
		out[i] = c.Clone()
	}
	return out, nil
}

func (l *fakeLedger) Update(ctx context.Context, id uuid.UUID, patch entity.TransactionPatch) (*entity.Transaction, error) {
	if l.updateErr != nil {
		return nil, l.updateErr
	}
	l.rows[id] = patch.Apply(l.rows[id])
	return l.rows[id].Clone(), nil
}

func (l *fakeLedger) SetPending(ctx context.Context, ids []uuid.UUID, pending bool) (int64, error) {
	var n int64
	for _, id := range ids {
		if t, ok := l.rows[id]; ok {
			t.IsPending = pending
			n++
		}
	}
	return n, nil
}

func (l *fakeLedger) ApplyPartialSettlement(ctx context.Context, original *entity.Transaction, remaining decimal.Decimal, receipt *entity.Transaction) (*entity.Transaction, *entity.Transaction, error) {
	if l.partialErr != nil {
		return nil, nil, l.partialErr
	}
	reduced := l.rows[original.ID].Clone()
	reduced.Value = remaining
	l.rows[original.ID] = reduced

	r := receipt.Clone()
	r.ID = uuid.New()
	l.rows[r.ID] = r
	return reduced.Clone(), r.Clone(), nil
}

func debt(value string) *entity.Transaction {
	q := decimal.NewFromInt(2)
	return &entity.Transaction{
		ID:               uuid.New(),
		TenantID:         uuid.New(),
		Timestamp:        time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		Category:         "Snacks",
		SubCategory:      entity.SubCategoryReceivable,
		Item:             "Coxinha",
		Value:            decimal.RequireFromString(value),
		Quantity:         &q,
		PaymentMethod:    entity.PaymentMethodDeferred,
		CounterpartyName: "Maria Silva",
		IsPending:        true,
		CreatedBy:        "Ana",
	}
}
