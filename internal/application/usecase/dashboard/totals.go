package dashboard

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opsledger/backend/internal/domain/entity"
)

// GetTotalsInput represents the input for the period totals.
type GetTotalsInput struct {
	TenantID    uuid.UUID
	Category    string
	SubCategory string
	Rows        []*entity.Transaction
}

// GetTotalsOutput represents the output of the period totals.
type GetTotalsOutput struct {
	Totals entity.PeriodTotals
	Window Window
}

// GetTotalsUseCase sums settled values of a category over the daily, weekly
// and monthly windows. It reads the ledger snapshot it is given and keeps no
// state between calls. Windows start at midnight in the display location.
type GetTotalsUseCase struct {
	now      func() time.Time
	location *time.Location
}

// NewGetTotalsUseCase creates a new GetTotalsUseCase instance. A nil location
// means time.Local.
func NewGetTotalsUseCase(location *time.Location) *GetTotalsUseCase {
	if location == nil {
		location = time.Local
	}
	return &GetTotalsUseCase{now: time.Now, location: location}
}

// Execute computes the totals.
func (uc *GetTotalsUseCase) Execute(input GetTotalsInput) *GetTotalsOutput {
	now := uc.now()
	if uc.location != nil {
		now = now.In(uc.location)
	}
	window := WindowStarts(now)
	return &GetTotalsOutput{
		Totals: CalculateTotals(input.Rows, input.TenantID, input.Category, input.SubCategory, window),
		Window: window,
	}
}

// CalculateTotals sums the value of settled rows of the tenant matching
// category, and subCategory when it is not empty, over each window.
func CalculateTotals(rows []*entity.Transaction, tenantID uuid.UUID, category, subCategory string, w Window) entity.PeriodTotals {
	totals := entity.PeriodTotals{Daily: decimal.Zero, Weekly: decimal.Zero, Monthly: decimal.Zero}
	for _, t := range rows {
		if t.IsPending || t.Category != category {
			continue
		}
		if tenantID != uuid.Nil && t.TenantID != tenantID {
			continue
		}
		if subCategory != "" && t.SubCategory != subCategory {
			continue
		}
		if !t.Timestamp.Before(w.Daily) {
			totals.Daily = totals.Daily.Add(t.Value)
		}
		if !t.Timestamp.Before(w.Weekly) {
			totals.Weekly = totals.Weekly.Add(t.Value)
		}
		if !t.Timestamp.Before(w.Monthly) {
			totals.Monthly = totals.Monthly.Add(t.Value)
		}
	}
	return totals
}
