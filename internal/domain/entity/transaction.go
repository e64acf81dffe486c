// Package entity defines the core business entities for the domain layer.
package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod represents how a transaction is paid.
type PaymentMethod string

const (
	PaymentMethodImmediate PaymentMethod = "IMMEDIATE"
	PaymentMethodDeferred  PaymentMethod = "DEFERRED"
	// PaymentMethodSystem marks informational rows written by the ledger itself.
	PaymentMethodSystem PaymentMethod = "SYSTEM"
)

// Internal categories never shown to counterparties.
const (
	CategorySystem = "SYSTEM"
	CategoryAudit  = "AUDIT"
)

// Well-known sub-categories.
const (
	SubCategorySales      = "SALES"
	SubCategoryReceivable = "RECEIVABLE"
	SubCategoryExpenses   = "EXPENSES"
	SubCategoryEdit       = "EDIT"
)

// EditedMarker is appended to the item name of a manually corrected entry.
const EditedMarker = " *"

// PartialReceiptSuffix annotates the receipt row produced by a partial settlement.
const PartialReceiptSuffix = " (Partial)"

// Transaction is the atomic ledger entry.
type Transaction struct {
	ID               uuid.UUID
	TenantID         uuid.UUID
	Timestamp        time.Time
	Category         string
	SubCategory      string
	Item             string
	Value            decimal.Decimal
	Quantity         *decimal.Decimal
	PaymentMethod    PaymentMethod
	CounterpartyName string
	IsPending        bool
	CreatedBy        string

	// Stock snapshot used by sell-by-count workflows.
	InitialStock  *decimal.Decimal
	LeftoverStock *decimal.Decimal
	UnitPrice     *decimal.Decimal
}

// RoundMoney rounds a monetary value to the nearest cent.
func RoundMoney(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// IsInternal reports whether the row is system-generated bookkeeping.
func (t *Transaction) IsInternal() bool {
	return t.Category == CategorySystem || t.Category == CategoryAudit
}

// IsExpense reports whether the row is an expense-type entry.
func (t *Transaction) IsExpense() bool {
	return t.SubCategory == SubCategoryExpenses
}

// IsEdited reports whether the item already carries the edit marker.
func (t *Transaction) IsEdited() bool {
	return strings.HasSuffix(t.Item, strings.TrimSpace(EditedMarker))
}

// QuantityOrZero returns the quantity, or zero when none was recorded.
func (t *Transaction) QuantityOrZero() decimal.Decimal {
	if t.Quantity == nil {
		return decimal.Zero
	}
	return *t.Quantity
}

// Clone returns a deep copy of the transaction.
func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	c := *t
	c.Quantity = cloneDecimal(t.Quantity)
	c.InitialStock = cloneDecimal(t.InitialStock)
	c.LeftoverStock = cloneDecimal(t.LeftoverStock)
	c.UnitPrice = cloneDecimal(t.UnitPrice)
	return &c
}

// TransactionPatch carries the mutable fields of a transaction. Nil fields are left untouched.
type TransactionPatch struct {
	Value     *decimal.Decimal
	Quantity  *decimal.Decimal
	IsPending *bool
	Item      *string
}

// IsEmpty reports whether the patch changes nothing.
func (p TransactionPatch) IsEmpty() bool {
	return p.Value == nil && p.Quantity == nil && p.IsPending == nil && p.Item == nil
}

// Apply returns a copy of t with the patch applied. Values are rounded to the cent.
func (p TransactionPatch) Apply(t *Transaction) *Transaction {
	out := t.Clone()
	if p.Value != nil {
		out.Value = RoundMoney(*p.Value)
	}
	if p.Quantity != nil {
		q := *p.Quantity
		out.Quantity = &q
	}
	if p.IsPending != nil {
		out.IsPending = *p.IsPending
	}
	if p.Item != nil {
		out.Item = *p.Item
	}
	return out
}

// PeriodTotals holds derived sums over the daily, weekly and monthly windows.
type PeriodTotals struct {
	Daily   decimal.Decimal
	Weekly  decimal.Decimal
	Monthly decimal.Decimal
}

// ClearPeriod selects which rows a bulk clear removes.
type ClearPeriod string

const (
	ClearPeriodDay   ClearPeriod = "DAY"
	ClearPeriodWeek  ClearPeriod = "WEEK"
	ClearPeriodMonth ClearPeriod = "MONTH"
	ClearPeriodAll   ClearPeriod = "ALL"
)

// IsValid reports whether the period is one of the known values.
func (p ClearPeriod) IsValid() bool {
	switch p {
	case ClearPeriodDay, ClearPeriodWeek, ClearPeriodMonth, ClearPeriodAll:
		return true
	}
	return false
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
