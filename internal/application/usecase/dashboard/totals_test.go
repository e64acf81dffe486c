package dashboard

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opsledger/backend/internal/domain/entity"
)

func TestWindowStarts(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	now := time.Date(2026, 3, 10, 1, 30, 0, 0, loc)

	w := WindowStarts(now)

	if expected := time.Date(2026, 3, 10, 0, 0, 0, 0, loc); !w.Daily.Equal(expected) {
		t.Errorf("Daily = %v, want %v", w.Daily, expected)
	}
	if expected := time.Date(2026, 3, 3, 0, 0, 0, 0, loc); !w.Weekly.Equal(expected) {
		t.Errorf("Weekly = %v, want %v", w.Weekly, expected)
	}
	if expected := time.Date(2026, 2, 8, 0, 0, 0, 0, loc); !w.Monthly.Equal(expected) {
		t.Errorf("Monthly = %v, want %v", w.Monthly, expected)
	}
}

func TestCalculateTotals(t *testing.T) {
	tenant := uuid.New()
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	w := WindowStarts(now)

	entry := func(ago time.Duration, value string, category, sub string, pending bool) *entity.Transaction {
		return &entity.Transaction{
			ID:          uuid.New(),
			TenantID:    tenant,
			Timestamp:   now.Add(-ago),
			Category:    category,
			SubCategory: sub,
			Value:       decimal.RequireFromString(value),
			IsPending:   pending,
		}
	}

	rows := []*entity.Transaction{
		entry(time.Hour, "10.00", "Snacks", entity.SubCategorySales, false),
		entry(3*24*time.Hour, "20.00", "Snacks", entity.SubCategorySales, false),
		entry(20*24*time.Hour, "30.00", "Snacks", entity.SubCategorySales, false),
		entry(40*24*time.Hour, "40.00", "Snacks", entity.SubCategorySales, false),
		entry(time.Hour, "50.00", "Snacks", entity.SubCategorySales, true),
		entry(time.Hour, "60.00", "Drinks", entity.SubCategorySales, false),
		entry(time.Hour, "5.00", "Snacks", entity.SubCategoryExpenses, false),
	}
	foreign := entry(time.Hour, "99.00", "Snacks", entity.SubCategorySales, false)
	foreign.TenantID = uuid.New()
	rows = append(rows, foreign)

	tests := []struct {
		name                    string
		sub                     string
		daily, weekly, monthly string
	}{
		{"whole category", "", "15.00", "35.00", "65.00"},
		{"sub-category only", entity.SubCategorySales, "10.00", "30.00", "60.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateTotals(rows, tenant, "Snacks", tt.sub, w)
			if !got.Daily.Equal(decimal.RequireFromString(tt.daily)) {
				t.Errorf("Daily = %s, want %s", got.Daily, tt.daily)
			}
			if !got.Weekly.Equal(decimal.RequireFromString(tt.weekly)) {
				t.Errorf("Weekly = %s, want %s", got.Weekly, tt.weekly)
			}
			if !got.Monthly.Equal(decimal.RequireFromString(tt.monthly)) {
				t.Errorf("Monthly = %s, want %s", got.Monthly, tt.monthly)
			}
		})
	}
}

func TestCalculateTotals_WindowsNest(t *testing.T) {
	tenant := uuid.New()
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	w := WindowStarts(now)

	// Every row counted daily must also be counted weekly and monthly.
	for h := 0; h < 40*24; h += 7 {
		row := &entity.Transaction{
			TenantID:  tenant,
			Timestamp: now.Add(-time.Duration(h) * time.Hour),
			Category:  "Snacks",
			Value:     decimal.NewFromInt(1),
		}
		got := CalculateTotals([]*entity.Transaction{row}, tenant, "Snacks", "", w)
		if got.Daily.IsPositive() && (!got.Weekly.IsPositive() || !got.Monthly.IsPositive()) {
			t.Fatalf("row %dh ago counted daily but not in wider windows", h)
		}
		if got.Weekly.IsPositive() && !got.Monthly.IsPositive() {
			t.Fatalf("row %dh ago counted weekly but not monthly", h)
		}
	}
}

func TestGetTotalsUseCase_Execute(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	uc := &GetTotalsUseCase{now: func() time.Time { return now }}
	tenant := uuid.New()

	out := uc.Execute(GetTotalsInput{
		TenantID: tenant,
		Category: "Snacks",
		Rows: []*entity.Transaction{
			{TenantID: tenant, Timestamp: now, Category: "Snacks", Value: decimal.RequireFromString("7.25")},
		},
	})
	if !out.Totals.Daily.Equal(decimal.RequireFromString("7.25")) {
		t.Errorf("expected daily 7.25, got %s", out.Totals.Daily)
	}
	if !out.Window.Daily.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected window start %v", out.Window.Daily)
	}
}

func TestGetTotalsUseCase_DisplayLocation(t *testing.T) {
	brt := time.FixedZone("BRT", -3*60*60)
	// 22:30 on March 9 in BRT.
	now := time.Date(2026, 3, 10, 1, 30, 0, 0, time.UTC)
	uc := NewGetTotalsUseCase(brt)
	uc.now = func() time.Time { return now }
	tenant := uuid.New()

	out := uc.Execute(GetTotalsInput{
		TenantID: tenant,
		Category: "Snacks",
		Rows: []*entity.Transaction{
			{TenantID: tenant, Timestamp: time.Date(2026, 3, 9, 4, 0, 0, 0, time.UTC), Category: "Snacks", Value: decimal.RequireFromString("5.00")},
			{TenantID: tenant, Timestamp: time.Date(2026, 3, 9, 2, 0, 0, 0, time.UTC), Category: "Snacks", Value: decimal.RequireFromString("3.00")},
		},
	})

	if !out.Window.Daily.Equal(time.Date(2026, 3, 9, 3, 0, 0, 0, time.UTC)) {
		t.Errorf("expected the day to start at BRT midnight, got %v", out.Window.Daily.UTC())
	}
	if !out.Totals.Daily.Equal(decimal.RequireFromString("5.00")) {
		t.Errorf("expected daily 5.00, got %s", out.Totals.Daily)
	}
	if !out.Totals.Weekly.Equal(decimal.RequireFromString("8.00")) {
		t.Errorf("expected weekly 8.00, got %s", out.Totals.Weekly)
	}
}
