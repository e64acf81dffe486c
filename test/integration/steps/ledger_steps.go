package steps

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cucumber/godog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opsledger/backend/internal/application/adapter"
	"github.com/opsledger/backend/internal/application/ledger"
	"github.com/opsledger/backend/internal/application/resilience"
	"github.com/opsledger/backend/internal/domain/entity"
)

// registerLedgerSteps registers tenant, sign-in and ledger state steps.
func registerLedgerSteps(ctx *godog.ScenarioContext) {
	ctx.Step(`^tenant "([^"]*)" exists$`, tenantExists)
	ctx.Step(`^I am signed in as the owner of tenant "([^"]*)"$`, iAmSignedInAsTheOwnerOfTenant)
	ctx.Step(`^I am signed in as "([^"]*)" with phone "([^"]*)" in tenant "([^"]*)"$`, iAmSignedInAsWithPhoneInTenant)
	ctx.Step(`^tenant "([^"]*)" should have a (pending|settled) row of value "([^"]*)" for "([^"]*)"$`, tenantShouldHaveARowOfValueFor)
	ctx.Step(`^tenant "([^"]*)" should have (\d+) rows?$`, tenantShouldHaveRows)
}

// registerStockSteps registers inventory configuration steps.
func registerStockSteps(ctx *godog.ScenarioContext) {
	ctx.Step(`^tenant "([^"]*)" has a "(STOCK|PRODUCTION|STALL)" pool "([^"]*)" in "(GLOBAL|LOCAL)" mode$`, tenantHasAPoolInMode)
	ctx.Step(`^pool "([^"]*)" stocks "([^"]*)" at (\d+)$`, poolStocksAt)
	ctx.Step(`^pool "([^"]*)" is linked to pool "([^"]*)"$`, poolIsLinkedToPool)
	ctx.Step(`^the configuration of tenant "([^"]*)" is saved$`, theConfigurationOfTenantIsSaved)
	ctx.Step(`^pool "([^"]*)" should have "([^"]*)" at (\d+)$`, poolShouldHaveAt)
}

// registerIdentitySteps registers counterparty fixtures.
func registerIdentitySteps(ctx *godog.ScenarioContext) {
	ctx.Step(`^tenant "([^"]*)" has a counterparty "([^"]*)" with phone "([^"]*)"$`, tenantHasACounterpartyWithPhone)
	ctx.Step(`^tenant "([^"]*)" has a pending debt "([^"]*)" of value "([^"]*)" for "([^"]*)"$`, tenantHasAPendingDebtOfValueFor)
}

// registerFetchSteps registers the concurrent fetch steps.
func registerFetchSteps(ctx *godog.ScenarioContext) {
	ctx.Step(`^tenant "([^"]*)" has (\d+) settled sales? recorded$`, tenantHasSettledSalesRecorded)
	ctx.Step(`^a fetch for tenant "([^"]*)" is in flight$`, aFetchForTenantIsInFlight)
	ctx.Step(`^another sale is recorded for tenant "([^"]*)"$`, anotherSaleIsRecordedForTenant)
	ctx.Step(`^a second fetch for tenant "([^"]*)" is requested$`, aSecondFetchForTenantIsRequested)
	ctx.Step(`^the second fetch should be skipped$`, theSecondFetchShouldBeSkipped)
	ctx.Step(`^once the first fetch completes the ledger should hold (\d+) rows?$`, onceTheFirstFetchCompletesTheLedgerShouldHoldRows)
}

func (tc *TestContext) tenant(name string) uuid.UUID {
	id, ok := tc.tenants[name]
	if !ok {
		id = uuid.New()
		tc.tenants[name] = id
	}
	return id
}

func tenantExists(ctx context.Context, name string) (context.Context, error) {
	tc := GetTestContext(ctx)
	tc.tenant(name)
	return SetTestContext(ctx, tc), nil
}

func iAmSignedInAsTheOwnerOfTenant(ctx context.Context, name string) (context.Context, error) {
	tc := GetTestContext(ctx)
	token, err := tc.tokens.IssueAccessToken(adapter.TokenClaims{
		TenantID: tc.tenant(name),
		Name:     "Owner",
		IsOwner:  true,
	}, time.Hour)
	if err != nil {
		return ctx, fmt.Errorf("failed to issue token: %w", err)
	}
	tc.accessToken = token
	return SetTestContext(ctx, tc), nil
}

func iAmSignedInAsWithPhoneInTenant(ctx context.Context, displayName, phone, name string) (context.Context, error) {
	tc := GetTestContext(ctx)
	token, err := tc.tokens.IssueAccessToken(adapter.TokenClaims{
		TenantID: tc.tenant(name),
		Name:     displayName,
		Phone:    phone,
	}, time.Hour)
	if err != nil {
		return ctx, fmt.Errorf("failed to issue token: %w", err)
	}
	tc.accessToken = token
	return SetTestContext(ctx, tc), nil
}

func (tc *TestContext) storedRows(ctx context.Context, name string) ([]*entity.Transaction, error) {
	rows, err := tc.transactionRepo.FindRecentByTenant(ctx, tc.tenant(name), 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load rows of tenant %s: %w", name, err)
	}
	return rows, nil
}

func tenantShouldHaveARowOfValueFor(ctx context.Context, name, state, value, counterparty string) error {
	tc := GetTestContext(ctx)
	rows, err := tc.storedRows(ctx, name)
	if err != nil {
		return err
	}

	want := decimal.RequireFromString(value)
	pending := state == "pending"
	for _, t := range rows {
		if t.CounterpartyName == counterparty && t.IsPending == pending && t.Value.Equal(want) {
			return nil
		}
	}
	return fmt.Errorf("no %s row of value %s for %q among %d rows", state, value, counterparty, len(rows))
}

func tenantShouldHaveRows(ctx context.Context, name string, count int) error {
	tc := GetTestContext(ctx)
	rows, err := tc.storedRows(ctx, name)
	if err != nil {
		return err
	}
	if len(rows) != count {
		return fmt.Errorf("tenant %s has %d rows, want %d", name, len(rows), count)
	}
	return nil
}

func tenantHasAPoolInMode(ctx context.Context, name, kind, pool, mode string) (context.Context, error) {
	tc := GetTestContext(ctx)
	tc.pools[pool] = &entity.InventoryPool{
		ID:       uuid.New(),
		TenantID: tc.tenant(name),
		Name:     pool,
		Kind:     entity.PoolKind(kind),
		Order:    len(tc.pools),
		Mode:     entity.StockMode(mode),
	}
	return SetTestContext(ctx, tc), nil
}

func poolStocksAt(ctx context.Context, pool, item string, stock int) (context.Context, error) {
	tc := GetTestContext(ctx)
	p, ok := tc.pools[pool]
	if !ok {
		return ctx, fmt.Errorf("unknown pool %q", pool)
	}
	p.Items = append(p.Items, entity.StockItem{
		ID:           uuid.NewString(),
		Name:         item,
		CurrentStock: decimal.NewFromInt(int64(stock)),
	})
	return SetTestContext(ctx, tc), nil
}

func poolIsLinkedToPool(ctx context.Context, pool, other string) (context.Context, error) {
	tc := GetTestContext(ctx)
	p, ok := tc.pools[pool]
	if !ok {
		return ctx, fmt.Errorf("unknown pool %q", pool)
	}
	o, ok := tc.pools[other]
	if !ok {
		return ctx, fmt.Errorf("unknown pool %q", other)
	}
	linked := o.ID
	p.LinkedPoolID = &linked
	return SetTestContext(ctx, tc), nil
}

func theConfigurationOfTenantIsSaved(ctx context.Context, name string) error {
	tc := GetTestContext(ctx)
	tenantID := tc.tenant(name)

	cfg := &entity.TenantConfiguration{TenantID: tenantID}
	for _, p := range tc.pools {
		if p.TenantID == tenantID {
			cfg.Pools = append(cfg.Pools, p.Clone())
		}
	}
	cfg.SortByOrder()

	if err := tc.configRepo.Save(ctx, cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	return nil
}

func poolShouldHaveAt(ctx context.Context, pool, item string, stock int) error {
	tc := GetTestContext(ctx)
	p, ok := tc.pools[pool]
	if !ok {
		return fmt.Errorf("unknown pool %q", pool)
	}

	cfg, err := tc.configRepo.FindByTenant(ctx, p.TenantID)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	stored := cfg.Pool(p.ID)
	if stored == nil {
		return fmt.Errorf("pool %q not stored", pool)
	}
	idx := stored.ItemIndex(item)
	if idx < 0 {
		return fmt.Errorf("pool %q has no item %q", pool, item)
	}
	if got := stored.Items[idx].CurrentStock; !got.Equal(decimal.NewFromInt(int64(stock))) {
		return fmt.Errorf("pool %q has %s %s, want %d", pool, got, item, stock)
	}
	return nil
}

func tenantHasACounterpartyWithPhone(ctx context.Context, name, counterparty, phone string) error {
	tc := GetTestContext(ctx)
	if err := tc.counterpartyRepo.Create(ctx, entity.NewCounterparty(tc.tenant(name), counterparty, phone)); err != nil {
		return fmt.Errorf("failed to create counterparty: %w", err)
	}
	return nil
}

func tenantHasAPendingDebtOfValueFor(ctx context.Context, name, item, value, counterparty string) error {
	tc := GetTestContext(ctx)
	_, err := tc.transactionRepo.InsertBatch(ctx, []*entity.Transaction{{
		ID:               uuid.New(),
		TenantID:         tc.tenant(name),
		Timestamp:        time.Now().UTC(),
		Category:         "Kitchen",
		SubCategory:      entity.SubCategoryReceivable,
		Item:             item,
		Value:            decimal.RequireFromString(value),
		PaymentMethod:    entity.PaymentMethodDeferred,
		CounterpartyName: counterparty,
		IsPending:        true,
	}})
	if err != nil {
		return fmt.Errorf("failed to insert debt: %w", err)
	}
	return nil
}

// gatedRepository holds the first recent-rows read until released.
type gatedRepository struct {
	adapter.TransactionRepository

	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (r *gatedRepository) FindRecentByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]*entity.Transaction, error) {
	if r.calls.Add(1) == 1 {
		close(r.entered)
		<-r.release
	}
	return r.TransactionRepository.FindRecentByTenant(ctx, tenantID, limit)
}

type fetchResult struct {
	ran bool
	err error
}

type fetchState struct {
	repo        *gatedRepository
	store       *ledger.Store
	first       chan fetchResult
	second      *fetchResult
	release     sync.Once
}

func (f *fetchState) releaseOnce() {
	f.release.Do(func() { close(f.repo.release) })
}

func insertSale(ctx context.Context, tc *TestContext, tenantID uuid.UUID, item string) error {
	_, err := tc.transactionRepo.InsertBatch(ctx, []*entity.Transaction{{
		ID:            uuid.New(),
		TenantID:      tenantID,
		Timestamp:     tc.clock.Now().UTC(),
		Category:      "Kitchen",
		SubCategory:   entity.SubCategorySales,
		Item:          item,
		Value:         decimal.NewFromInt(5),
		PaymentMethod: entity.PaymentMethodImmediate,
	}})
	tc.clock.Advance(time.Second)
	return err
}

func tenantHasSettledSalesRecorded(ctx context.Context, name string, count int) error {
	tc := GetTestContext(ctx)
	tenantID := tc.tenant(name)
	for i := 0; i < count; i++ {
		if err := insertSale(ctx, tc, tenantID, fmt.Sprintf("Sale %d", i+1)); err != nil {
			return fmt.Errorf("failed to insert sale: %w", err)
		}
	}
	return nil
}

func aFetchForTenantIsInFlight(ctx context.Context, name string) (context.Context, error) {
	tc := GetTestContext(ctx)
	tenantID := tc.tenant(name)

	repo := &gatedRepository{
		TransactionRepository: tc.transactionRepo,
		entered:               make(chan struct{}),
		release:               make(chan struct{}),
	}
	store := ledger.NewStore(repo, resilience.NewPolicy(tc.cfg.Sync), tc.cfg.Sync.HistoryWindow)
	store.SetClock(tc.clock.Now)
	tc.fetch = &fetchState{repo: repo, store: store, first: make(chan fetchResult, 1)}

	go func() {
		ran, err := store.FetchByTenant(context.Background(), tenantID, false)
		tc.fetch.first <- fetchResult{ran: ran, err: err}
	}()

	select {
	case <-repo.entered:
	case <-time.After(5 * time.Second):
		return ctx, fmt.Errorf("first fetch never reached the remote store")
	}
	return SetTestContext(ctx, tc), nil
}

func anotherSaleIsRecordedForTenant(ctx context.Context, name string) error {
	tc := GetTestContext(ctx)
	return insertSale(ctx, tc, tc.tenant(name), "Late sale")
}

func aSecondFetchForTenantIsRequested(ctx context.Context, name string) (context.Context, error) {
	tc := GetTestContext(ctx)
	if tc.fetch == nil {
		return ctx, fmt.Errorf("no fetch in flight")
	}
	ran, err := tc.fetch.store.FetchByTenant(ctx, tc.tenant(name), false)
	tc.fetch.second = &fetchResult{ran: ran, err: err}
	return SetTestContext(ctx, tc), nil
}

func theSecondFetchShouldBeSkipped(ctx context.Context) error {
	tc := GetTestContext(ctx)
	if tc.fetch == nil || tc.fetch.second == nil {
		return fmt.Errorf("second fetch was not requested")
	}
	if tc.fetch.second.err != nil {
		return fmt.Errorf("second fetch failed: %w", tc.fetch.second.err)
	}
	if tc.fetch.second.ran {
		return fmt.Errorf("second fetch ran while the first was in flight")
	}
	if n := tc.fetch.repo.calls.Load(); n != 1 {
		return fmt.Errorf("remote store was read %d times, want 1", n)
	}
	return nil
}

func onceTheFirstFetchCompletesTheLedgerShouldHoldRows(ctx context.Context, count int) error {
	tc := GetTestContext(ctx)
	if tc.fetch == nil {
		return fmt.Errorf("no fetch in flight")
	}
	tc.fetch.releaseOnce()

	select {
	case res := <-tc.fetch.first:
		if res.err != nil {
			return fmt.Errorf("first fetch failed: %w", res.err)
		}
		if !res.ran {
			return fmt.Errorf("first fetch did not run")
		}
	case <-time.After(5 * time.Second):
		return fmt.Errorf("first fetch did not complete")
	}

	if n := len(tc.fetch.store.Snapshot()); n != count {
		return fmt.Errorf("ledger holds %d rows, want %d", n, count)
	}
	if n := tc.fetch.repo.calls.Load(); n != 1 {
		return fmt.Errorf("remote store was read %d times, want 1", n)
	}
	return nil
}
