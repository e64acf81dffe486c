package stock

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opsledger/backend/internal/domain/entity"
	domainerror "github.com/opsledger/backend/internal/domain/error"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func pool(kind entity.PoolKind, mode entity.StockMode, order int, items map[string]string) *entity.InventoryPool {
	p := &entity.InventoryPool{ID: uuid.New(), Name: string(kind), Kind: kind, Mode: mode, Order: order}
	for name, stock := range items {
		p.Items = append(p.Items, entity.StockItem{ID: uuid.NewString(), Name: name, CurrentStock: dec(stock)})
	}
	return p
}

func stockOf(t *testing.T, cfg *entity.TenantConfiguration, poolID uuid.UUID, name string) decimal.Decimal {
	t.Helper()
	p := cfg.Pool(poolID)
	if p == nil {
		t.Fatalf("pool %s not found", poolID)
	}
	idx := p.ItemIndex(name)
	if idx < 0 {
		t.Fatalf("item %q not found in pool %s", name, p.Name)
	}
	return p.Items[idx].CurrentStock
}

func TestResolveCascade_Precedence(t *testing.T) {
	t.Run("global pool wins over a linked local pool", func(t *testing.T) {
		global := pool(entity.PoolKindStock, entity.StockModeGlobal, 0, map[string]string{"Coxinha": "100"})
		local := pool(entity.PoolKindStock, entity.StockModeLocal, 1, map[string]string{"Coxinha": "50"})
		stall := pool(entity.PoolKindStall, entity.StockModeLocal, 2, nil)
		stall.LinkedPoolID = &local.ID
		cfg := &entity.TenantConfiguration{Pools: []*entity.InventoryPool{global, local, stall}}

		result, err := ResolveCascade(cfg, stall.ID, []SoldItem{{Name: "Coxinha", Quantity: dec("10")}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := stockOf(t, result.Configuration, global.ID, "Coxinha"); !got.Equal(dec("90")) {
			t.Errorf("expected global stock 90, got %s", got)
		}
		if got := stockOf(t, result.Configuration, local.ID, "Coxinha"); !got.Equal(dec("50")) {
			t.Errorf("expected local stock 50, got %s", got)
		}
		if !result.Changed {
			t.Error("expected the configuration to be marked changed")
		}
	})

	t.Run("linked pool wins over the selling pool", func(t *testing.T) {
		linked := pool(entity.PoolKindStock, entity.StockModeLocal, 0, map[string]string{"Kibe": "30"})
		selling := pool(entity.PoolKindProduction, entity.StockModeLocal, 1, map[string]string{"Kibe": "20"})
		selling.LinkedPoolID = &linked.ID
		cfg := &entity.TenantConfiguration{Pools: []*entity.InventoryPool{linked, selling}}

		result, err := ResolveCascade(cfg, selling.ID, []SoldItem{{Name: "Kibe", Quantity: dec("5")}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := stockOf(t, result.Configuration, linked.ID, "Kibe"); !got.Equal(dec("25")) {
			t.Errorf("expected linked stock 25, got %s", got)
		}
		if got := stockOf(t, result.Configuration, selling.ID, "Kibe"); !got.Equal(dec("20")) {
			t.Errorf("expected selling stock 20, got %s", got)
		}
	})

	t.Run("global pool that lacks the item falls through", func(t *testing.T) {
		global := pool(entity.PoolKindStock, entity.StockModeGlobal, 0, map[string]string{"Coxinha": "100"})
		selling := pool(entity.PoolKindStall, entity.StockModeLocal, 1, map[string]string{"Pastel": "8"})
		cfg := &entity.TenantConfiguration{Pools: []*entity.InventoryPool{global, selling}}

		result, err := ResolveCascade(cfg, selling.ID, []SoldItem{{Name: "Pastel", Quantity: dec("3")}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := stockOf(t, result.Configuration, selling.ID, "Pastel"); !got.Equal(dec("5")) {
			t.Errorf("expected selling stock 5, got %s", got)
		}
	})

	t.Run("only the first global stock pool is used", func(t *testing.T) {
		first := pool(entity.PoolKindStock, entity.StockModeGlobal, 0, map[string]string{"Coxinha": "10"})
		second := pool(entity.PoolKindStock, entity.StockModeGlobal, 1, map[string]string{"Coxinha": "10"})
		cfg := &entity.TenantConfiguration{Pools: []*entity.InventoryPool{first, second}}

		result, err := ResolveCascade(cfg, uuid.Nil, []SoldItem{{Name: "Coxinha", Quantity: dec("4")}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := stockOf(t, result.Configuration, first.ID, "Coxinha"); !got.Equal(dec("6")) {
			t.Errorf("expected first pool stock 6, got %s", got)
		}
		if got := stockOf(t, result.Configuration, second.ID, "Coxinha"); !got.Equal(dec("10")) {
			t.Errorf("expected second pool stock 10, got %s", got)
		}
	})
}

func TestResolveCascade_Deduction(t *testing.T) {
	tests := []struct {
		name     string
		stock    string
		sold     string
		expected string
		changed  bool
	}{
		{"subtracts the sold quantity", "12", "5", "7", true},
		{"clamps at zero", "3", "10", "0", true},
		{"fractional quantities", "2.5", "0.75", "1.75", true},
		{"zero quantity is ignored", "4", "0", "4", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := pool(entity.PoolKindStock, entity.StockModeGlobal, 0, map[string]string{"Coxinha": tt.stock})
			cfg := &entity.TenantConfiguration{Pools: []*entity.InventoryPool{p}}

			result, err := ResolveCascade(cfg, uuid.Nil, []SoldItem{{Name: "Coxinha", Quantity: dec(tt.sold)}})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := stockOf(t, result.Configuration, p.ID, "Coxinha"); !got.Equal(dec(tt.expected)) {
				t.Errorf("expected stock %s, got %s", tt.expected, got)
			}
			if result.Changed != tt.changed {
				t.Errorf("expected changed=%v, got %v", tt.changed, result.Changed)
			}
		})
	}
}

func TestResolveCascade_UntrackedItemsAreSkipped(t *testing.T) {
	p := pool(entity.PoolKindStock, entity.StockModeGlobal, 0, map[string]string{"Coxinha": "10"})
	cfg := &entity.TenantConfiguration{Pools: []*entity.InventoryPool{p}}

	result, err := ResolveCascade(cfg, uuid.Nil, []SoldItem{{Name: "Refrigerante", Quantity: dec("2")}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Changed {
		t.Error("expected no change for untracked items")
	}
	if len(result.Deductions) != 0 {
		t.Errorf("expected no deductions, got %d", len(result.Deductions))
	}
}

func TestResolveCascade_DoesNotModifyInput(t *testing.T) {
	p := pool(entity.PoolKindStock, entity.StockModeGlobal, 0, map[string]string{"Coxinha": "10"})
	cfg := &entity.TenantConfiguration{Pools: []*entity.InventoryPool{p}}

	if _, err := ResolveCascade(cfg, uuid.Nil, []SoldItem{{Name: "Coxinha", Quantity: dec("4")}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := stockOf(t, cfg, p.ID, "Coxinha"); !got.Equal(dec("10")) {
		t.Errorf("expected input stock to stay 10, got %s", got)
	}
}

func TestResolveCascade_Errors(t *testing.T) {
	p := pool(entity.PoolKindStock, entity.StockModeGlobal, 0, map[string]string{"Coxinha": "10"})
	cfg := &entity.TenantConfiguration{Pools: []*entity.InventoryPool{p}}

	if _, err := ResolveCascade(cfg, uuid.New(), nil); !errors.Is(err, domainerror.ErrPoolNotFound) {
		t.Errorf("expected ErrPoolNotFound, got %v", err)
	}
	if _, err := ResolveCascade(cfg, uuid.Nil, []SoldItem{{Name: "Coxinha", Quantity: dec("-1")}}); !errors.Is(err, domainerror.ErrInvalidQuantity) {
		t.Errorf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestSoldItemsFromTransactions(t *testing.T) {
	q := dec("3")
	rows := []*entity.Transaction{
		{Item: "Coxinha", Quantity: &q, SubCategory: entity.SubCategorySales},
		{Item: "Oil", Quantity: &q, SubCategory: entity.SubCategoryExpenses},
		{Item: "LOG: Coxinha", Quantity: &q, Category: entity.CategoryAudit},
		{Item: "Tip", SubCategory: entity.SubCategorySales},
	}

	got := SoldItemsFromTransactions(rows)
	if len(got) != 1 || got[0].Name != "Coxinha" || !got[0].Quantity.Equal(q) {
		t.Errorf("expected only the sold Coxinha line, got %+v", got)
	}
}

func TestLowStock(t *testing.T) {
	p := &entity.InventoryPool{
		ID:   uuid.New(),
		Name: "Main",
		Items: []entity.StockItem{
			{Name: "Coxinha", CurrentStock: dec("2"), MinStock: dec("5")},
			{Name: "Kibe", CurrentStock: dec("5"), MinStock: dec("5")},
			{Name: "Pastel", CurrentStock: dec("9"), MinStock: dec("5")},
			{Name: "Water", CurrentStock: dec("0")},
		},
	}
	got := LowStock(&entity.TenantConfiguration{Pools: []*entity.InventoryPool{p}})
	if len(got) != 2 {
		t.Fatalf("expected 2 low items, got %d", len(got))
	}
	if got[0].Item.Name != "Coxinha" || got[1].Item.Name != "Kibe" {
		t.Errorf("unexpected low items: %+v", got)
	}
}
