package entity

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockMode decides whether one pool serves every sales surface.
type StockMode string

const (
	StockModeGlobal StockMode = "GLOBAL"
	StockModeLocal  StockMode = "LOCAL"
)

// PoolKind is the role a pool plays in the tenant's layout.
type PoolKind string

const (
	PoolKindStock      PoolKind = "STOCK"
	PoolKindProduction PoolKind = "PRODUCTION"
	PoolKindStall      PoolKind = "STALL"
)

// StockItem is a stock-tracked item inside a pool.
type StockItem struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	CurrentStock   decimal.Decimal `json:"current_stock"`
	MinStock       decimal.Decimal `json:"min_stock"`
	PriceImmediate decimal.Decimal `json:"price_immediate"`
	PriceDeferred  decimal.Decimal `json:"price_deferred"`
}

// IsLow reports whether the item has reached its configured minimum.
func (i StockItem) IsLow() bool {
	return i.MinStock.IsPositive() && i.CurrentStock.LessThanOrEqual(i.MinStock)
}

// CatalogItem is a priced expense line offered by a pool.
type CatalogItem struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// InventoryPool is a section of the tenant configuration holding stock-tracked items.
type InventoryPool struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Name         string
	Kind         PoolKind
	Order        int
	Items        []StockItem
	Expenses     []CatalogItem
	Mode         StockMode
	LinkedPoolID *uuid.UUID
}

// ItemIndex returns the index of the item with the given name, or -1.
func (p *InventoryPool) ItemIndex(name string) int {
	for i := range p.Items {
		if p.Items[i].Name == name {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the pool.
func (p *InventoryPool) Clone() *InventoryPool {
	c := *p
	c.Items = append([]StockItem(nil), p.Items...)
	c.Expenses = append([]CatalogItem(nil), p.Expenses...)
	if p.LinkedPoolID != nil {
		id := *p.LinkedPoolID
		c.LinkedPoolID = &id
	}
	return &c
}

// TenantConfiguration is the ordered set of pools owned by a tenant.
type TenantConfiguration struct {
	TenantID uuid.UUID
	Pools    []*InventoryPool
}

// Clone returns a deep copy of the configuration.
func (c *TenantConfiguration) Clone() *TenantConfiguration {
	out := &TenantConfiguration{TenantID: c.TenantID, Pools: make([]*InventoryPool, len(c.Pools))}
	for i, p := range c.Pools {
		out.Pools[i] = p.Clone()
	}
	return out
}

// Pool returns the pool with the given id, or nil.
func (c *TenantConfiguration) Pool(id uuid.UUID) *InventoryPool {
	for _, p := range c.Pools {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// GlobalPool returns the first stock pool operating in GLOBAL mode, or nil.
func (c *TenantConfiguration) GlobalPool() *InventoryPool {
	for _, p := range c.Pools {
		if p.Kind == PoolKindStock && p.Mode == StockModeGlobal {
			return p
		}
	}
	return nil
}

// SortByOrder orders the pools by their configured position.
func (c *TenantConfiguration) SortByOrder() {
	sort.SliceStable(c.Pools, func(i, j int) bool {
		return c.Pools[i].Order < c.Pools[j].Order
	})
}
