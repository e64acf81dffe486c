// Package ledger holds the in-memory view of a tenant's transactions and the
// loop that keeps it converged with the remote store.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opsledger/backend/internal/application/adapter"
	"github.com/opsledger/backend/internal/application/resilience"
	"github.com/opsledger/backend/internal/domain/entity"
	domainerror "github.com/opsledger/backend/internal/domain/error"
)

// Store is the authoritative in-memory view of the active tenant's transactions.
// Rows are always kept newest first. Rows of other tenants pulled in through
// MergeRows survive a tenant fetch.
type Store struct {
	repo          adapter.TransactionRepository
	policy        resilience.Policy
	historyWindow int
	now           func() time.Time

	mu       sync.RWMutex
	tenantID uuid.UUID
	rows     []*entity.Transaction

	inflight atomic.Int32
}

// NewStore creates a new Store instance.
func NewStore(repo adapter.TransactionRepository, policy resilience.Policy, historyWindow int) *Store {
	return &Store{
		repo:          repo,
		policy:        policy,
		historyWindow: historyWindow,
		now:           time.Now,
	}
}

// SetClock overrides the clock used to stamp new rows and compute clear ranges.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// TenantID returns the active tenant.
func (s *Store) TenantID() uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tenantID
}

// Snapshot returns a copy of every cached row, newest first.
func (s *Store) Snapshot() []*entity.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entity.Transaction, len(s.rows))
	for i, t := range s.rows {
		out[i] = t.Clone()
	}
	return out
}

// Find returns a copy of the cached row with the given id.
func (s *Store) Find(id uuid.UUID) (*entity.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.rows {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return nil, false
}

// FetchByTenant loads the recent history window and every pending row of the
// tenant and replaces that tenant's cached rows with their union. While a
// fetch is in flight further calls are no-ops unless force is set. The
// returned flag reports whether a fetch ran.
func (s *Store) FetchByTenant(ctx context.Context, tenantID uuid.UUID, force bool) (bool, error) {
	if force {
		s.inflight.Add(1)
	} else if !s.inflight.CompareAndSwap(0, 1) {
		slog.DebugContext(ctx, "fetch already in flight, skipping", "tenant_id", tenantID)
		return false, nil
	}
	defer s.inflight.Add(-1)

	recent, err := resilience.Do(ctx, s.policy, "fetch_recent", func(ctx context.Context) ([]*entity.Transaction, error) {
		return s.repo.FindRecentByTenant(ctx, tenantID, s.historyWindow)
	})
	if err != nil {
		return true, fmt.Errorf("failed to fetch recent transactions: %w", err)
	}

	pending, err := resilience.Do(ctx, s.policy, "fetch_pending", func(ctx context.Context) ([]*entity.Transaction, error) {
		return s.repo.FindPendingByTenant(ctx, tenantID)
	})
	if err != nil {
		return true, fmt.Errorf("failed to fetch pending transactions: %w", err)
	}

	fetched := mergeByID(recent, pending...)

	s.mu.Lock()
	s.tenantID = tenantID
	others := make([]*entity.Transaction, 0, len(s.rows))
	for _, t := range s.rows {
		if t.TenantID != tenantID {
			others = append(others, t)
		}
	}
	s.rows = mergeByID(others, fetched...)
	s.mu.Unlock()

	slog.InfoContext(ctx, "ledger fetched",
		"tenant_id", tenantID,
		"recent", len(recent),
		"pending", len(pending),
		"rows", len(fetched),
	)
	return true, nil
}

// AddBatch validates, stamps and persists a batch in one remote call. The
// rows are visible locally before the call returns and are removed again if
// the call fails.
func (s *Store) AddBatch(ctx context.Context, entries []*entity.Transaction) ([]*entity.Transaction, error) {
	if len(entries) == 0 {
		return nil, domainerror.NewTransactionError(
			domainerror.ErrCodeEmptyBatch,
			"batch cannot be empty",
			domainerror.ErrEmptyBatch,
		)
	}

	tenantID := s.TenantID()
	now := s.now()
	batch := make([]*entity.Transaction, len(entries))
	for i, e := range entries {
		t := e.Clone()
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
		if t.TenantID == uuid.Nil {
			t.TenantID = tenantID
		}
		if t.Timestamp.IsZero() {
			t.Timestamp = now
		}
		t.Value = entity.RoundMoney(t.Value)
		if err := validateTransaction(t); err != nil {
			return nil, err
		}
		batch[i] = t
	}

	ids := make([]uuid.UUID, len(batch))
	for i, t := range batch {
		ids[i] = t.ID
	}
	pre := s.apply(ids, func(rows []*entity.Transaction) []*entity.Transaction {
		return mergeByID(rows, cloneAll(batch)...)
	})

	stored, err := resilience.Do(ctx, s.policy, "insert_batch", func(ctx context.Context) ([]*entity.Transaction, error) {
		return s.repo.InsertBatch(ctx, batch)
	})
	if errors.Is(err, domainerror.ErrConflict) {
		// Ids are stamped here, so a conflict means an earlier attempt landed.
		slog.WarnContext(ctx, "batch already stored", "tenant_id", tenantID, "rows", len(batch))
		return cloneAll(batch), nil
	}
	if err != nil {
		s.compensate(pre)
		return nil, fmt.Errorf("failed to add transactions: %w", err)
	}

	s.mu.Lock()
	s.rows = mergeByID(s.rows, cloneAll(stored)...)
	s.mu.Unlock()

	slog.InfoContext(ctx, "transactions added", "tenant_id", tenantID, "rows", len(stored))
	return stored, nil
}

// Update persists the mutable fields carried by patch.
func (s *Store) Update(ctx context.Context, id uuid.UUID, patch entity.TransactionPatch) (*entity.Transaction, error) {
	if patch.IsEmpty() {
		return nil, domainerror.NewTransactionError(
			domainerror.ErrCodeEmptyPatch,
			"update carries no changes",
			domainerror.ErrEmptyPatch,
		)
	}
	if patch.Value != nil && patch.Value.IsNegative() {
		return nil, domainerror.NewTransactionError(
			domainerror.ErrCodeInvalidTransactionValue,
			"value cannot be negative",
			domainerror.ErrInvalidTransactionValue,
		)
	}
	if patch.Value != nil {
		v := entity.RoundMoney(*patch.Value)
		patch.Value = &v
	}

	tenantID := s.TenantID()
	if current, ok := s.Find(id); ok {
		tenantID = current.TenantID
		if err := validateTransaction(patch.Apply(current)); err != nil {
			return nil, err
		}
	}

	pre := s.apply([]uuid.UUID{id}, func(rows []*entity.Transaction) []*entity.Transaction {
		for i, t := range rows {
			if t.ID == id {
				rows[i] = patch.Apply(t)
			}
		}
		return rows
	})

	updated, err := resilience.Do(ctx, s.policy, "update_transaction", func(ctx context.Context) (*entity.Transaction, error) {
		return s.repo.UpdateFields(ctx, tenantID, id, patch)
	})
	if err != nil {
		s.compensate(pre)
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	s.mu.Lock()
	s.rows = mergeByID(s.rows, updated.Clone())
	s.mu.Unlock()
	return updated, nil
}

// Delete removes the row locally, then remotely. On failure the full
// previous row is put back. A missing row on a retry counts as deleted.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tenantID := s.TenantID()
	if current, ok := s.Find(id); ok {
		tenantID = current.TenantID
	}

	pre := s.apply([]uuid.UUID{id}, func(rows []*entity.Transaction) []*entity.Transaction {
		return removeByID(rows, id)
	})

	attempts := 0
	err := resilience.Exec(ctx, s.policy, "delete_transaction", func(ctx context.Context) error {
		attempts++
		err := s.repo.Delete(ctx, tenantID, id)
		// A timed out earlier attempt may still have removed the row.
		if attempts > 1 && errors.Is(err, domainerror.ErrTransactionNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		s.compensate(pre)
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	slog.InfoContext(ctx, "transaction deleted", "tenant_id", tenantID, "transaction_id", id)
	return nil
}

// SetPending sets the pending flag on every listed row of the active tenant.
func (s *Store) SetPending(ctx context.Context, ids []uuid.UUID, pending bool) (int64, error) {
	if len(ids) == 0 {
		return 0, domainerror.NewTransactionError(
			domainerror.ErrCodeEmptyTransactionIDs,
			"transaction IDs list cannot be empty",
			domainerror.ErrEmptyTransactionIDs,
		)
	}

	tenantID := s.TenantID()
	pre := s.apply(ids, func(rows []*entity.Transaction) []*entity.Transaction {
		set := make(map[uuid.UUID]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		for i, t := range rows {
			if _, ok := set[t.ID]; ok && t.TenantID == tenantID {
				c := t.Clone()
				c.IsPending = pending
				rows[i] = c
			}
		}
		return rows
	})

	count, err := resilience.Do(ctx, s.policy, "set_pending", func(ctx context.Context) (int64, error) {
		return s.repo.SetPending(ctx, tenantID, ids, pending)
	})
	if err != nil {
		s.compensate(pre)
		return 0, fmt.Errorf("failed to update pending flag: %w", err)
	}
	return count, nil
}

// ApplyPartialSettlement lowers the original row to remaining and records the
// receipt row, both locally and remotely. The remote store applies both writes
// in one transaction and refuses them when the balance changed meanwhile.
func (s *Store) ApplyPartialSettlement(ctx context.Context, original *entity.Transaction, remaining decimal.Decimal, receipt *entity.Transaction) (*entity.Transaction, *entity.Transaction, error) {
	receipt = receipt.Clone()
	if receipt.ID == uuid.Nil {
		receipt.ID = uuid.New()
	}
	if receipt.Timestamp.IsZero() {
		receipt.Timestamp = s.now()
	}
	receipt.Value = entity.RoundMoney(receipt.Value)
	if err := validateTransaction(receipt); err != nil {
		return nil, nil, err
	}

	reduced := original.Clone()
	reduced.Value = entity.RoundMoney(remaining)

	pre := s.apply([]uuid.UUID{original.ID, receipt.ID}, func(rows []*entity.Transaction) []*entity.Transaction {
		return mergeByID(rows, reduced.Clone(), receipt.Clone())
	})

	err := resilience.Exec(ctx, s.policy, "partial_settlement", func(ctx context.Context) error {
		return s.repo.ApplyPartialSettlement(ctx, adapter.PartialSettlement{
			OriginalID:    original.ID,
			TenantID:      original.TenantID,
			ExpectedValue: original.Value,
			Remaining:     reduced.Value,
			Receipt:       receipt,
		})
	})
	if err != nil {
		s.compensate(pre)
		return nil, nil, fmt.Errorf("failed to apply partial settlement: %w", err)
	}

	slog.InfoContext(ctx, "partial settlement applied",
		"tenant_id", original.TenantID,
		"transaction_id", original.ID,
		"remaining", reduced.Value.StringFixed(2),
		"paid", receipt.Value.StringFixed(2),
	)
	return reduced, receipt, nil
}

// Clear deletes rows of the tenant in the given period and refetches.
// Bounded periods only remove settled rows.
func (s *Store) Clear(ctx context.Context, tenantID uuid.UUID, period entity.ClearPeriod) (int64, error) {
	if !period.IsValid() {
		return 0, domainerror.NewTransactionError(
			domainerror.ErrCodeInvalidClearPeriod,
			"period must be: DAY, WEEK, MONTH or ALL",
			domainerror.ErrInvalidClearPeriod,
		)
	}

	var (
		count int64
		err   error
	)
	if period == entity.ClearPeriodAll {
		count, err = resilience.Do(ctx, s.policy, "clear_all", func(ctx context.Context) (int64, error) {
			return s.repo.DeleteAll(ctx, tenantID)
		})
	} else {
		since := ClearRangeStart(period, s.now())
		count, err = resilience.Do(ctx, s.policy, "clear_settled", func(ctx context.Context) (int64, error) {
			return s.repo.DeleteSettledSince(ctx, tenantID, since)
		})
	}
	if err != nil {
		return 0, fmt.Errorf("failed to clear transactions: %w", err)
	}

	slog.InfoContext(ctx, "transactions cleared", "tenant_id", tenantID, "period", period, "rows", count)

	if _, err := s.FetchByTenant(ctx, tenantID, true); err != nil {
		return count, err
	}
	return count, nil
}

// ClearRangeStart returns the earliest timestamp removed by a bounded clear.
func ClearRangeStart(period entity.ClearPeriod, now time.Time) time.Time {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch period {
	case entity.ClearPeriodWeek:
		return now.AddDate(0, 0, -7)
	case entity.ClearPeriodMonth:
		return now.AddDate(0, -1, 0)
	default:
		return midnight
	}
}

// MergeRealtimeEvent applies a pushed transaction change and reports whether
// the cached rows changed. Inserts of known ids and updates of unknown ids
// are ignored.
func (s *Store) MergeRealtimeEvent(event entity.ChangeEvent) bool {
	if event.Table != entity.TableTransactions {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := event.RowID
	if event.Transaction != nil {
		id = event.Transaction.ID
	}
	known := false
	for _, t := range s.rows {
		if t.ID == id {
			known = true
			break
		}
	}

	switch event.Kind {
	case entity.ChangeInsert:
		if known || event.Transaction == nil {
			return false
		}
		s.rows = mergeByID(s.rows, event.Transaction.Clone())
	case entity.ChangeUpdate:
		if !known || event.Transaction == nil {
			return false
		}
		s.rows = mergeByID(s.rows, event.Transaction.Clone())
	case entity.ChangeDelete:
		if !known {
			return false
		}
		s.rows = removeByID(s.rows, id)
	default:
		return false
	}
	return true
}

// MergeRows merges externally pulled rows by id. Incoming rows win.
func (s *Store) MergeRows(rows []*entity.Transaction) {
	if len(rows) == 0 {
		return
	}
	s.mu.Lock()
	s.rows = mergeByID(s.rows, cloneAll(rows)...)
	s.mu.Unlock()
}

// Reset drops every cached row and makes tenantID the active tenant.
func (s *Store) Reset(tenantID uuid.UUID) {
	s.mu.Lock()
	s.tenantID = tenantID
	s.rows = nil
	s.mu.Unlock()
}

// apply captures the pre-image of ids and mutates the cached rows.
func (s *Store) apply(ids []uuid.UUID, mutate func([]*entity.Transaction) []*entity.Transaction) preimage {
	s.mu.Lock()
	defer s.mu.Unlock()

	pre := preimage{}
	pre.capture(s.rows, ids...)
	rows := make([]*entity.Transaction, len(s.rows))
	copy(rows, s.rows)
	s.rows = mutate(rows)
	return pre
}

func (s *Store) compensate(pre preimage) {
	s.mu.Lock()
	s.rows = pre.restore(s.rows)
	s.mu.Unlock()
}

func validateTransaction(t *entity.Transaction) error {
	if t.Item == "" {
		return domainerror.NewTransactionError(
			domainerror.ErrCodeMissingItem,
			"item is required",
			domainerror.ErrMissingItem,
		)
	}
	if t.Value.IsNegative() {
		return domainerror.NewTransactionError(
			domainerror.ErrCodeInvalidTransactionValue,
			"value cannot be negative",
			domainerror.ErrInvalidTransactionValue,
		)
	}
	switch t.PaymentMethod {
	case entity.PaymentMethodImmediate, entity.PaymentMethodDeferred, entity.PaymentMethodSystem:
	default:
		return domainerror.NewTransactionError(
			domainerror.ErrCodeInvalidPaymentMethod,
			"invalid payment method",
			domainerror.ErrInvalidPaymentMethod,
		)
	}
	if t.IsPending && t.PaymentMethod != entity.PaymentMethodDeferred {
		return domainerror.NewTransactionError(
			domainerror.ErrCodePendingRequiresDeferred,
			"pending entries must use deferred payment",
			domainerror.ErrPendingRequiresDeferred,
		)
	}
	return nil
}

func cloneAll(rows []*entity.Transaction) []*entity.Transaction {
	out := make([]*entity.Transaction, len(rows))
	for i, t := range rows {
		out[i] = t.Clone()
	}
	return out
}
