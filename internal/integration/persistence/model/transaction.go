// Package model defines database models for persistence layer.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opsledger/backend/internal/domain/entity"
)

// TransactionModel represents the transactions table in the database.
type TransactionModel struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey"`
	TenantID         uuid.UUID        `gorm:"type:uuid;not null;index:idx_transactions_tenant_recorded"`
	RecordedAt       time.Time        `gorm:"not null;index:idx_transactions_tenant_recorded"`
	Category         string           `gorm:"type:varchar(100);not null;index"`
	SubCategory      string           `gorm:"type:varchar(50)"`
	Item             string           `gorm:"type:varchar(255);not null"`
	Value            decimal.Decimal  `gorm:"type:decimal(15,2);not null"`
	Quantity         *decimal.Decimal `gorm:"type:decimal(15,3)"`
	PaymentMethod    string           `gorm:"type:varchar(20);not null"`
	CounterpartyName string           `gorm:"type:varchar(255);index"`
	IsPending        bool             `gorm:"not null;default:false;index"`
	CreatedBy        string           `gorm:"type:varchar(255)"`
	InitialStock     *decimal.Decimal `gorm:"type:decimal(15,3)"`
	LeftoverStock    *decimal.Decimal `gorm:"type:decimal(15,3)"`
	UnitPrice        *decimal.Decimal `gorm:"type:decimal(15,2)"`
	CreatedAt        time.Time        `gorm:"not null"`
	UpdatedAt        time.Time        `gorm:"not null"`
}

// TableName returns the table name for the TransactionModel.
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToEntity converts a TransactionModel to a domain Transaction entity.
func (m *TransactionModel) ToEntity() *entity.Transaction {
	return &entity.Transaction{
		ID:               m.ID,
		TenantID:         m.TenantID,
		Timestamp:        m.RecordedAt,
		Category:         m.Category,
		SubCategory:      m.SubCategory,
		Item:             m.Item,
		Value:            entity.RoundMoney(m.Value),
		Quantity:         m.Quantity,
		PaymentMethod:    entity.PaymentMethod(m.PaymentMethod),
		CounterpartyName: m.CounterpartyName,
		IsPending:        m.IsPending,
		CreatedBy:        m.CreatedBy,
		InitialStock:     m.InitialStock,
		LeftoverStock:    m.LeftoverStock,
		UnitPrice:        m.UnitPrice,
	}
}

// TransactionFromEntity creates a TransactionModel from a domain Transaction entity.
func TransactionFromEntity(transaction *entity.Transaction) *TransactionModel {
	return &TransactionModel{
		ID:               transaction.ID,
		TenantID:         transaction.TenantID,
		RecordedAt:       transaction.Timestamp.UTC(),
		Category:         transaction.Category,
		SubCategory:      transaction.SubCategory,
		Item:             transaction.Item,
		Value:            entity.RoundMoney(transaction.Value),
		Quantity:         transaction.Quantity,
		PaymentMethod:    string(transaction.PaymentMethod),
		CounterpartyName: transaction.CounterpartyName,
		IsPending:        transaction.IsPending,
		CreatedBy:        transaction.CreatedBy,
		InitialStock:     transaction.InitialStock,
		LeftoverStock:    transaction.LeftoverStock,
		UnitPrice:        transaction.UnitPrice,
	}
}

// TransactionsToEntities converts a slice of models.
func TransactionsToEntities(models []TransactionModel) []*entity.Transaction {
	transactions := make([]*entity.Transaction, len(models))
	for i := range models {
		transactions[i] = models[i].ToEntity()
	}
	return transactions
}
