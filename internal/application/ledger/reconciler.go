package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opsledger/backend/internal/application/adapter"
	"github.com/opsledger/backend/internal/application/resilience"
	"github.com/opsledger/backend/internal/domain/entity"
)

// signal is one unit of work for the reconciler loop: either a pushed change
// event or a revalidation request.
type signal struct {
	tenantID   uuid.UUID
	event      *entity.ChangeEvent
	revalidate bool
	done       chan error
}

// Reconciler merges pushed change events and revalidation requests into a
// Store from a single loop, so merges happen in the order they were received.
// It also keeps the session's configuration and counterparty caches current.
type Reconciler struct {
	store          *Store
	feed           adapter.ChangeFeed
	configRepo     adapter.ConfigurationRepository
	counterparties adapter.CounterpartyRepository
	policy         resilience.Policy
	interval       time.Duration

	inbox chan signal

	mu       sync.RWMutex
	tenantID uuid.UUID
	sub      adapter.Subscription
	stop     context.CancelFunc
	config   *entity.TenantConfiguration
	parties  map[uuid.UUID]*entity.Counterparty
}

// NewReconciler creates a new Reconciler instance.
func NewReconciler(
	store *Store,
	feed adapter.ChangeFeed,
	configRepo adapter.ConfigurationRepository,
	counterpartyRepo adapter.CounterpartyRepository,
	policy resilience.Policy,
	interval time.Duration,
	bufferSize int,
) *Reconciler {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Reconciler{
		store:          store,
		feed:           feed,
		configRepo:     configRepo,
		counterparties: counterpartyRepo,
		policy:         policy,
		interval:       interval,
		inbox:          make(chan signal, bufferSize),
		parties:        make(map[uuid.UUID]*entity.Counterparty),
	}
}

// Run consumes the inbox until ctx is done. A non-positive interval disables
// periodic revalidation.
func (r *Reconciler) Run(ctx context.Context) {
	var tick <-chan time.Time
	if r.interval > 0 {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	slog.InfoContext(ctx, "reconciler started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.closeSubscription()
			slog.InfoContext(ctx, "reconciler stopped")
			return
		case <-tick:
			if err := r.revalidate(ctx); err != nil {
				slog.ErrorContext(ctx, "periodic revalidation failed", "error", err)
			}
		case sig := <-r.inbox:
			err := r.process(ctx, sig)
			if sig.done != nil {
				sig.done <- err
			}
		}
	}
}

// SwitchTenant tears down the current subscription, subscribes to tenantID
// and waits for the loop to run a forced revalidation. Only subscription
// failures are returned; a failed first fetch is logged and left to the next
// revalidation. Run must be running.
func (r *Reconciler) SwitchTenant(ctx context.Context, tenantID uuid.UUID) error {
	r.closeSubscription()

	sub, err := r.feed.Subscribe(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to subscribe to tenant changes: %w", err)
	}

	fwdCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	r.mu.Lock()
	r.tenantID = tenantID
	r.sub = sub
	r.stop = cancel
	r.config = nil
	r.parties = make(map[uuid.UUID]*entity.Counterparty)
	r.mu.Unlock()

	r.store.Reset(tenantID)
	go r.forward(fwdCtx, tenantID, sub)

	slog.InfoContext(ctx, "subscribed to tenant changes", "tenant_id", tenantID)

	if err := r.RevalidateAndWait(ctx); err != nil {
		slog.WarnContext(ctx, "initial fetch failed", "tenant_id", tenantID, "error", err)
	}
	return nil
}

// Revalidate queues a forced refetch, used when a client regains focus.
func (r *Reconciler) Revalidate(ctx context.Context) error {
	return r.enqueue(ctx, signal{tenantID: r.TenantID(), revalidate: true})
}

// RevalidateAndWait queues a forced refetch and waits for the loop to run it.
func (r *Reconciler) RevalidateAndWait(ctx context.Context) error {
	done := make(chan error, 1)
	if err := r.enqueue(ctx, signal{tenantID: r.TenantID(), revalidate: true, done: done}); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TenantID returns the tenant the reconciler is subscribed to.
func (r *Reconciler) TenantID() uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tenantID
}

// Configuration returns a copy of the cached tenant configuration, or nil
// before the first revalidation.
func (r *Reconciler) Configuration() *entity.TenantConfiguration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.config == nil {
		return nil
	}
	return r.config.Clone()
}

// Counterparties returns the cached counterparties ordered by name.
func (r *Reconciler) Counterparties() []*entity.Counterparty {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.Counterparty, 0, len(r.parties))
	for _, c := range r.parties {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Reconciler) enqueue(ctx context.Context, sig signal) error {
	select {
	case r.inbox <- sig:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// forward moves subscription events into the inbox until the subscription ends.
func (r *Reconciler) forward(ctx context.Context, tenantID uuid.UUID, sub adapter.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := r.enqueue(ctx, signal{tenantID: tenantID, event: &ev}); err != nil {
				return
			}
		}
	}
}

func (r *Reconciler) closeSubscription() {
	r.mu.Lock()
	sub, stop := r.sub, r.stop
	r.sub, r.stop = nil, nil
	r.mu.Unlock()

	if stop != nil {
		stop()
	}
	if sub != nil {
		if err := sub.Close(); err != nil {
			slog.Warn("failed to close subscription", "error", err)
		}
	}
}

func (r *Reconciler) process(ctx context.Context, sig signal) error {
	if sig.tenantID != r.TenantID() {
		slog.DebugContext(ctx, "dropping signal for previous tenant", "tenant_id", sig.tenantID)
		return nil
	}
	if sig.revalidate {
		return r.revalidate(ctx)
	}
	if sig.event != nil {
		r.apply(ctx, *sig.event)
	}
	return nil
}

func (r *Reconciler) apply(ctx context.Context, ev entity.ChangeEvent) {
	switch ev.Table {
	case entity.TableTransactions:
		changed := r.store.MergeRealtimeEvent(ev)
		slog.DebugContext(ctx, "realtime transaction merged",
			"tenant_id", ev.TenantID,
			"kind", ev.Kind,
			"transaction_id", ev.RowID,
			"changed", changed,
		)
	case entity.TableConfiguration:
		r.applyConfiguration(ev)
	case entity.TableCounterparties:
		r.applyCounterparty(ev)
	}
}

func (r *Reconciler) applyConfiguration(ev entity.ChangeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.config == nil {
		r.config = &entity.TenantConfiguration{TenantID: r.tenantID}
	}
	pools := make([]*entity.InventoryPool, 0, len(r.config.Pools)+1)
	for _, p := range r.config.Pools {
		if p.ID != ev.RowID {
			pools = append(pools, p)
		}
	}
	if ev.Kind != entity.ChangeDelete && ev.Pool != nil {
		pools = append(pools, ev.Pool.Clone())
	}
	r.config.Pools = pools
	r.config.SortByOrder()
}

func (r *Reconciler) applyCounterparty(ev entity.ChangeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ev.Kind == entity.ChangeDelete {
		delete(r.parties, ev.RowID)
		return
	}
	if ev.Counterparty != nil {
		cp := *ev.Counterparty
		r.parties[cp.ID] = &cp
	}
}

func (r *Reconciler) revalidate(ctx context.Context) error {
	tenantID := r.TenantID()
	if tenantID == uuid.Nil {
		return nil
	}

	if _, err := r.store.FetchByTenant(ctx, tenantID, true); err != nil {
		return err
	}

	cfg, err := resilience.Do(ctx, r.policy, "fetch_configuration", func(ctx context.Context) (*entity.TenantConfiguration, error) {
		return r.configRepo.FindByTenant(ctx, tenantID)
	})
	if err != nil {
		return fmt.Errorf("failed to fetch configuration: %w", err)
	}

	parties, err := resilience.Do(ctx, r.policy, "fetch_counterparties", func(ctx context.Context) ([]*entity.Counterparty, error) {
		return r.counterparties.FindByTenant(ctx, tenantID)
	})
	if err != nil {
		return fmt.Errorf("failed to fetch counterparties: %w", err)
	}

	r.mu.Lock()
	if r.tenantID == tenantID {
		r.config = cfg
		r.parties = make(map[uuid.UUID]*entity.Counterparty, len(parties))
		for _, c := range parties {
			r.parties[c.ID] = c
		}
	}
	r.mu.Unlock()
	return nil
}
