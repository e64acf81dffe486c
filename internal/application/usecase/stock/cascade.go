// Package stock contains inventory pool use cases.
package stock

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opsledger/backend/internal/domain/entity"
	domainerror "github.com/opsledger/backend/internal/domain/error"
)

// SoldItem is one sold line of a sale.
type SoldItem struct {
	Name     string
	Quantity decimal.Decimal
}

// Deduction records a stock change applied by the cascade.
type Deduction struct {
	Item   string
	PoolID uuid.UUID
	Before decimal.Decimal
	After  decimal.Decimal
}

// CascadeResult is the outcome of resolving a sale against a configuration.
type CascadeResult struct {
	Configuration *entity.TenantConfiguration
	Changed       bool
	Deductions    []Deduction
}

// ResolveCascade deducts every sold item from exactly one pool: the global
// stock pool, else the pool linked to the selling pool, else the selling pool
// itself. Items no pool tracks are skipped. Stock is clamped at zero. The
// input configuration is not modified; callers must pass a freshly fetched
// snapshot and persist the result once.
func ResolveCascade(cfg *entity.TenantConfiguration, sellingPoolID uuid.UUID, sold []SoldItem) (*CascadeResult, error) {
	out := cfg.Clone()

	var selling *entity.InventoryPool
	if sellingPoolID != uuid.Nil {
		selling = out.Pool(sellingPoolID)
		if selling == nil {
			return nil, domainerror.NewStockError(
				domainerror.ErrCodePoolNotFound,
				"inventory pool not found",
				domainerror.ErrPoolNotFound,
			)
		}
	}

	var linked *entity.InventoryPool
	if selling != nil && selling.LinkedPoolID != nil {
		linked = out.Pool(*selling.LinkedPoolID)
	}
	global := out.GlobalPool()

	result := &CascadeResult{Configuration: out}
	for _, s := range sold {
		if s.Quantity.IsNegative() {
			return nil, domainerror.NewStockError(
				domainerror.ErrCodeInvalidQuantity,
				"quantity cannot be negative",
				domainerror.ErrInvalidQuantity,
			)
		}
		if !s.Quantity.IsPositive() {
			continue
		}

		pool, idx := locate(s.Name, global, linked, selling)
		if pool == nil {
			continue
		}

		item := &pool.Items[idx]
		before := item.CurrentStock
		after := decimal.Max(decimal.Zero, before.Sub(s.Quantity))
		item.CurrentStock = after

		result.Changed = true
		result.Deductions = append(result.Deductions, Deduction{
			Item:   item.Name,
			PoolID: pool.ID,
			Before: before,
			After:  after,
		})
	}
	return result, nil
}

// locate returns the first candidate pool stocking name.
func locate(name string, candidates ...*entity.InventoryPool) (*entity.InventoryPool, int) {
	for _, p := range candidates {
		if p == nil {
			continue
		}
		if idx := p.ItemIndex(name); idx >= 0 {
			return p, idx
		}
	}
	return nil, -1
}

// SoldItemsFromTransactions extracts the sold quantities of a batch. Expenses,
// internal rows and rows without a quantity never move stock.
func SoldItemsFromTransactions(rows []*entity.Transaction) []SoldItem {
	var out []SoldItem
	for _, t := range rows {
		if t.IsExpense() || t.IsInternal() || t.Quantity == nil {
			continue
		}
		out = append(out, SoldItem{Name: t.Item, Quantity: *t.Quantity})
	}
	return out
}
