package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/opsledger/backend/internal/domain/entity"
)

// StockItemsJSON represents the JSONB structure for pool items.
type StockItemsJSON []entity.StockItem

// Value implements the driver.Valuer interface.
func (s StockItemsJSON) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface.
func (s *StockItemsJSON) Scan(value interface{}) error {
	return scanJSON(value, s)
}

// CatalogItemsJSON represents the JSONB structure for pool expense catalogs.
type CatalogItemsJSON []entity.CatalogItem

// Value implements the driver.Valuer interface.
func (c CatalogItemsJSON) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface.
func (c *CatalogItemsJSON) Scan(value interface{}) error {
	return scanJSON(value, c)
}

func scanJSON(value interface{}, dest any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	}
	return errors.New("type assertion to []byte failed")
}

// InventoryPoolModel represents the inventory_pools table in the database.
type InventoryPoolModel struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey"`
	TenantID     uuid.UUID        `gorm:"type:uuid;not null;index"`
	Name         string           `gorm:"type:varchar(100);not null"`
	Kind         string           `gorm:"type:varchar(20);not null"`
	Position     int              `gorm:"not null;default:0"`
	Items        StockItemsJSON   `gorm:"type:jsonb;not null"`
	Expenses     CatalogItemsJSON `gorm:"type:jsonb;not null"`
	Mode         string           `gorm:"type:varchar(10);not null;default:'LOCAL'"`
	LinkedPoolID *uuid.UUID       `gorm:"type:uuid"`
	CreatedAt    time.Time        `gorm:"not null"`
	UpdatedAt    time.Time        `gorm:"not null"`
}

// TableName returns the table name for the InventoryPoolModel.
func (InventoryPoolModel) TableName() string {
	return "inventory_pools"
}

// ToEntity converts an InventoryPoolModel to a domain InventoryPool entity.
func (m *InventoryPoolModel) ToEntity() *entity.InventoryPool {
	return &entity.InventoryPool{
		ID:           m.ID,
		TenantID:     m.TenantID,
		Name:         m.Name,
		Kind:         entity.PoolKind(m.Kind),
		Order:        m.Position,
		Items:        append([]entity.StockItem(nil), m.Items...),
		Expenses:     append([]entity.CatalogItem(nil), m.Expenses...),
		Mode:         entity.StockMode(m.Mode),
		LinkedPoolID: m.LinkedPoolID,
	}
}

// InventoryPoolFromEntity creates an InventoryPoolModel from a domain InventoryPool entity.
func InventoryPoolFromEntity(pool *entity.InventoryPool) *InventoryPoolModel {
	mode := pool.Mode
	if mode == "" {
		mode = entity.StockModeLocal
	}
	return &InventoryPoolModel{
		ID:           pool.ID,
		TenantID:     pool.TenantID,
		Name:         pool.Name,
		Kind:         string(pool.Kind),
		Position:     pool.Order,
		Items:        StockItemsJSON(pool.Items),
		Expenses:     CatalogItemsJSON(pool.Expenses),
		Mode:         string(mode),
		LinkedPoolID: pool.LinkedPoolID,
	}
}
