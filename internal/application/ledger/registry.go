package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/opsledger/backend/config"
	"github.com/opsledger/backend/internal/application/adapter"
	"github.com/opsledger/backend/internal/application/resilience"
)

// Session is the ledger state kept for one tenant: its Store and the
// Reconciler feeding it.
type Session struct {
	TenantID   uuid.UUID
	Store      *Store
	Reconciler *Reconciler

	cancel context.CancelFunc
	done   chan struct{}
}

// Close stops the session's reconciler loop and waits for it to exit.
func (s *Session) Close() {
	s.cancel()
	<-s.done
}

// Registry hands out one Session per tenant, creating it on first use.
type Registry struct {
	txRepo           adapter.TransactionRepository
	configRepo       adapter.ConfigurationRepository
	counterpartyRepo adapter.CounterpartyRepository
	feed             adapter.ChangeFeed
	syncCfg          config.SyncConfig
	bufferSize       int

	opening singleflight.Group

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	closed   bool
}

// NewRegistry creates a new Registry instance.
func NewRegistry(
	txRepo adapter.TransactionRepository,
	configRepo adapter.ConfigurationRepository,
	counterpartyRepo adapter.CounterpartyRepository,
	feed adapter.ChangeFeed,
	syncCfg config.SyncConfig,
	realtimeCfg config.RealtimeConfig,
) *Registry {
	return &Registry{
		txRepo:           txRepo,
		configRepo:       configRepo,
		counterpartyRepo: counterpartyRepo,
		feed:             feed,
		syncCfg:          syncCfg,
		bufferSize:       realtimeCfg.BufferSize,
		sessions:         make(map[uuid.UUID]*Session),
	}
}

// Get returns the tenant's session. A new session subscribes to the tenant's
// changes and runs its first fetch before it is returned. Concurrent callers
// for the same tenant share one opening; other tenants are never blocked by it.
func (r *Registry) Get(ctx context.Context, tenantID uuid.UUID) (*Session, error) {
	if s, ok := r.lookup(tenantID); ok {
		return s, nil
	}

	v, err, _ := r.opening.Do(tenantID.String(), func() (interface{}, error) {
		if s, ok := r.lookup(tenantID); ok {
			return s, nil
		}
		session, err := r.open(ctx, tenantID)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			session.Close()
			return nil, errors.New("ledger registry is closed")
		}
		r.sessions[tenantID] = session
		r.mu.Unlock()

		slog.InfoContext(ctx, "ledger session opened", "tenant_id", tenantID)
		return session, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (r *Registry) lookup(tenantID uuid.UUID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[tenantID]
	return s, ok
}

// open starts a reconciler for the tenant and waits for its first fetch.
func (r *Registry) open(ctx context.Context, tenantID uuid.UUID) (*Session, error) {
	policy := resilience.NewPolicy(r.syncCfg)
	store := NewStore(r.txRepo, policy, r.syncCfg.HistoryWindow)
	reconciler := NewReconciler(store, r.feed, r.configRepo, r.counterpartyRepo, policy, r.syncCfg.RevalidateInterval, r.bufferSize)

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	session := &Session{
		TenantID:   tenantID,
		Store:      store,
		Reconciler: reconciler,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	go func() {
		defer close(session.done)
		reconciler.Run(loopCtx)
	}()

	if err := reconciler.SwitchTenant(ctx, tenantID); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to open ledger session: %w", err)
	}
	return session, nil
}

// Close stops every session.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	sessions := r.sessions
	r.sessions = make(map[uuid.UUID]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
