package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opsledger/backend/internal/application/adapter"
	"github.com/opsledger/backend/internal/application/resilience"
	"github.com/opsledger/backend/internal/domain/entity"
	domainerror "github.com/opsledger/backend/internal/domain/error"
)

var testPolicy = resilience.Policy{MaxAttempts: 1}

// fakeTransactionRepo is an in-memory TransactionRepository with error injection.
type fakeTransactionRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*entity.Transaction

	recentGate chan struct{}
	gateTenant uuid.UUID
	recentHits int

	insertErr  error
	updateErr  error
	deleteErr  error
	pendingErr error
	partialErr error

	// slowFirst delays the first Delete or ApplyPartialSettlement past the
	// caller's timeout before it commits.
	slowFirst time.Duration
	mutations int
}

func newFakeTransactionRepo(rows ...*entity.Transaction) *fakeTransactionRepo {
	r := &fakeTransactionRepo{rows: make(map[uuid.UUID]*entity.Transaction)}
	for _, t := range rows {
		r.rows[t.ID] = t.Clone()
	}
	return r
}

func (r *fakeTransactionRepo) FindRecentByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]*entity.Transaction, error) {
	r.mu.Lock()
	r.recentHits++
	gate := r.recentGate
	if r.gateTenant != uuid.Nil && r.gateTenant != tenantID {
		gate = nil
	}
	r.mu.Unlock()
	if gate != nil {
		<-gate
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Transaction
	for _, t := range r.rows {
		if t.TenantID == tenantID {
			out = append(out, t.Clone())
		}
	}
	sortNewestFirst(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeTransactionRepo) FindPendingByTenant(ctx context.Context, tenantID uuid.UUID) ([]*entity.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Transaction
	for _, t := range r.rows {
		if t.TenantID == tenantID && t.IsPending {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

func (r *fakeTransactionRepo) FindPendingByCounterparty(ctx context.Context, tenantID uuid.UUID, name string) ([]*entity.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Transaction
	for _, t := range r.rows {
		if t.TenantID == tenantID && t.IsPending && t.CounterpartyName == name {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

func (r *fakeTransactionRepo) InsertBatch(ctx context.Context, transactions []*entity.Transaction) ([]*entity.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return nil, r.insertErr
	}
	for _, t := range transactions {
		if _, ok := r.rows[t.ID]; ok {
			return nil, domainerror.NewRemoteError(domainerror.RemoteKindConflict, "insert_batch", nil)
		}
	}
	out := make([]*entity.Transaction, len(transactions))
	for i, t := range transactions {
		r.rows[t.ID] = t.Clone()
		out[i] = t.Clone()
	}
	return out, nil
}

func (r *fakeTransactionRepo) UpdateFields(ctx context.Context, tenantID, id uuid.UUID, patch entity.TransactionPatch) (*entity.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	t, ok := r.rows[id]
	if !ok || t.TenantID != tenantID {
		return nil, domainerror.ErrTransactionNotFound
	}
	r.rows[id] = patch.Apply(t)
	return r.rows[id].Clone(), nil
}

func (r *fakeTransactionRepo) SetPending(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID, pending bool) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pendingErr != nil {
		return 0, r.pendingErr
	}
	var n int64
	for _, id := range ids {
		if t, ok := r.rows[id]; ok && t.TenantID == tenantID {
			t.IsPending = pending
			n++
		}
	}
	return n, nil
}

func (r *fakeTransactionRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	r.stall()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if t, ok := r.rows[id]; !ok || t.TenantID != tenantID {
		return domainerror.ErrTransactionNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *fakeTransactionRepo) DeleteSettledSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, t := range r.rows {
		if t.TenantID == tenantID && !t.IsPending && !t.Timestamp.Before(since) {
			delete(r.rows, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeTransactionRepo) DeleteAll(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, t := range r.rows {
		if t.TenantID == tenantID {
			delete(r.rows, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeTransactionRepo) ApplyPartialSettlement(ctx context.Context, s adapter.PartialSettlement) error {
	r.stall()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.partialErr != nil {
		return r.partialErr
	}
	if _, ok := r.rows[s.Receipt.ID]; ok {
		return nil
	}
	t, ok := r.rows[s.OriginalID]
	if !ok || !t.Value.Equal(s.ExpectedValue) {
		return domainerror.NewRemoteError(domainerror.RemoteKindConflict, "partial_settlement", nil)
	}
	t.Value = s.Remaining
	r.rows[s.Receipt.ID] = s.Receipt.Clone()
	return nil
}

func (r *fakeTransactionRepo) hits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recentHits
}

func (r *fakeTransactionRepo) stall() {
	r.mu.Lock()
	r.mutations++
	first := r.mutations == 1
	r.mu.Unlock()
	if first && r.slowFirst > 0 {
		time.Sleep(r.slowFirst)
	}
}

func (r *fakeTransactionRepo) get(id uuid.UUID) (*entity.Transaction, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[id]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

type fakeConfigRepo struct {
	mu  sync.Mutex
	cfg map[uuid.UUID]*entity.TenantConfiguration
}

func (r *fakeConfigRepo) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*entity.TenantConfiguration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.cfg[tenantID]; ok {
		return c.Clone(), nil
	}
	return &entity.TenantConfiguration{TenantID: tenantID}, nil
}

func (r *fakeConfigRepo) Save(ctx context.Context, cfg *entity.TenantConfiguration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cfg == nil {
		r.cfg = make(map[uuid.UUID]*entity.TenantConfiguration)
	}
	r.cfg[cfg.TenantID] = cfg.Clone()
	return nil
}

type fakeCounterpartyRepo struct {
	mu   sync.Mutex
	rows []*entity.Counterparty
}

func (r *fakeCounterpartyRepo) Create(ctx context.Context, c *entity.Counterparty) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, c)
	return nil
}

func (r *fakeCounterpartyRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*entity.Counterparty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.rows {
		if c.ID == id && c.TenantID == tenantID {
			return c, nil
		}
	}
	return nil, domainerror.ErrCounterpartyNotFound
}

func (r *fakeCounterpartyRepo) FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]*entity.Counterparty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Counterparty
	for _, c := range r.rows {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCounterpartyRepo) FindByPhone(ctx context.Context, digits string) ([]*entity.Counterparty, error) {
	return nil, nil
}

func (r *fakeCounterpartyRepo) Update(ctx context.Context, c *entity.Counterparty) error { return nil }

func (r *fakeCounterpartyRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error { return nil }

// fakeFeed hands out subscriptions backed by plain channels.
type fakeFeed struct {
	mu   sync.Mutex
	subs map[uuid.UUID][]*fakeSubscription
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{subs: make(map[uuid.UUID][]*fakeSubscription)}
}

func (f *fakeFeed) Subscribe(ctx context.Context, tenantID uuid.UUID) (adapter.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &fakeSubscription{events: make(chan entity.ChangeEvent, 16)}
	f.subs[tenantID] = append(f.subs[tenantID], s)
	return s, nil
}

func (f *fakeFeed) send(tenantID uuid.UUID, ev entity.ChangeEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subs[tenantID] {
		if !s.isClosed() {
			s.events <- ev
		}
	}
}

func (f *fakeFeed) latest(tenantID uuid.UUID) *fakeSubscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	subs := f.subs[tenantID]
	if len(subs) == 0 {
		return nil
	}
	return subs[len(subs)-1]
}

type fakeSubscription struct {
	mu     sync.Mutex
	events chan entity.ChangeEvent
	closed bool
}

func (s *fakeSubscription) Events() <-chan entity.ChangeEvent { return s.events }

func (s *fakeSubscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSubscription) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
