package entity

import (
	"time"

	"github.com/google/uuid"
)

// Counterparty is a named customer or supplier recorded by a tenant.
// It carries no monetary data and is only used to build alias sets.
type Counterparty struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Name      string
	Phone     string
	CreatedAt time.Time
}

// NewCounterparty creates a new Counterparty entity.
func NewCounterparty(tenantID uuid.UUID, name, phone string) *Counterparty {
	return &Counterparty{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      name,
		Phone:     phone,
		CreatedAt: time.Now().UTC(),
	}
}

// Party is the signed-in identity looking at the ledger.
type Party struct {
	TenantID    uuid.UUID
	DisplayName string
	Email       string
	Phone       string
	IsOwner     bool
}
