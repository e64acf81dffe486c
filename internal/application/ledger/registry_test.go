package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/opsledger/backend/config"
)

func newTestRegistry(repo *fakeTransactionRepo) *Registry {
	return NewRegistry(
		repo,
		&fakeConfigRepo{},
		&fakeCounterpartyRepo{},
		newFakeFeed(),
		config.SyncConfig{MaxAttempts: 1, HistoryWindow: 150},
		config.RealtimeConfig{BufferSize: 16},
	)
}

func TestRegistry_OpeningDoesNotBlockOtherTenants(t *testing.T) {
	slow := uuid.New()
	ready := uuid.New()
	repo := newFakeTransactionRepo()
	registry := newTestRegistry(repo)
	defer registry.Close()

	existing, err := registry.Get(context.Background(), ready)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gate := make(chan struct{})
	repo.mu.Lock()
	repo.recentGate = gate
	repo.gateTenant = slow
	repo.mu.Unlock()

	type result struct {
		session *Session
		err     error
	}
	opened := make(chan result, 2)
	for i := 0; i < 2; i++ {
		go func() {
			s, err := registry.Get(context.Background(), slow)
			opened <- result{s, err}
		}()
	}
	waitFor(t, func() bool { return repo.hits() == 2 })

	got := make(chan *Session, 1)
	go func() {
		s, _ := registry.Get(context.Background(), ready)
		got <- s
	}()
	select {
	case s := <-got:
		if s != existing {
			t.Error("expected the existing session")
		}
	case <-time.After(time.Second):
		t.Fatal("lookup of an open session blocked behind another tenant's first fetch")
	}

	close(gate)
	first := <-opened
	second := <-opened
	if first.err != nil || second.err != nil {
		t.Fatalf("unexpected errors: %v, %v", first.err, second.err)
	}
	if first.session != second.session {
		t.Error("expected concurrent callers to share one session")
	}
	if first.session.TenantID != slow {
		t.Errorf("expected tenant %s, got %s", slow, first.session.TenantID)
	}
	if got := repo.hits(); got != 2 {
		t.Errorf("expected one first fetch per tenant, got %d remote queries", got)
	}
}

func TestRegistry_GetAfterClose(t *testing.T) {
	registry := newTestRegistry(newFakeTransactionRepo())
	registry.Close()

	if _, err := registry.Get(context.Background(), uuid.New()); err == nil {
		t.Fatal("expected an error from a closed registry")
	}
}
