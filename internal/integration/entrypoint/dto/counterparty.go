package dto

import (
	"time"

	"github.com/opsledger/backend/internal/domain/entity"
)

// CreateCounterpartyRequest represents the request body for counterparty creation.
type CreateCounterpartyRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone,omitempty" binding:"omitempty,max=30"`
}

// UpdateCounterpartyRequest represents the request body for counterparty update.
type UpdateCounterpartyRequest struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty" binding:"omitempty,max=30"`
}

// CounterpartyResponse represents a counterparty in API responses.
type CounterpartyResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone,omitempty"`
	CreatedAt string `json:"created_at"`
}

// CounterpartyListResponse represents a list of counterparties.
type CounterpartyListResponse struct {
	Counterparties []CounterpartyResponse `json:"counterparties"`
}

// ToCounterpartyResponse converts a domain Counterparty entity to a CounterpartyResponse DTO.
func ToCounterpartyResponse(c *entity.Counterparty) CounterpartyResponse {
	return CounterpartyResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		Phone:     c.Phone,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

// ToCounterpartyListResponse converts a list of counterparties.
func ToCounterpartyListResponse(counterparties []*entity.Counterparty) CounterpartyListResponse {
	out := make([]CounterpartyResponse, len(counterparties))
	for i, c := range counterparties {
		out[i] = ToCounterpartyResponse(c)
	}
	return CounterpartyListResponse{Counterparties: out}
}
