package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/opsledger/backend/internal/domain/entity"
)

// CounterpartyModel represents the counterparties table in the database.
type CounterpartyModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(80);not null"`
	Phone     string    `gorm:"type:varchar(20);index"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the CounterpartyModel.
func (CounterpartyModel) TableName() string {
	return "counterparties"
}

// ToEntity converts a CounterpartyModel to a domain Counterparty entity.
func (m *CounterpartyModel) ToEntity() *entity.Counterparty {
	return &entity.Counterparty{
		ID:        m.ID,
		TenantID:  m.TenantID,
		Name:      m.Name,
		Phone:     m.Phone,
		CreatedAt: m.CreatedAt,
	}
}

// CounterpartyFromEntity creates a CounterpartyModel from a domain Counterparty entity.
func CounterpartyFromEntity(counterparty *entity.Counterparty) *CounterpartyModel {
	return &CounterpartyModel{
		ID:        counterparty.ID,
		TenantID:  counterparty.TenantID,
		Name:      counterparty.Name,
		Phone:     counterparty.Phone,
		CreatedAt: counterparty.CreatedAt,
	}
}
