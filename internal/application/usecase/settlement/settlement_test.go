package settlement

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opsledger/backend/internal/domain/entity"
	domainerror "github.com/opsledger/backend/internal/domain/error"
)

func TestSettleUseCase_Execute(t *testing.T) {
	a, b := debt("10.00"), debt("25.50")
	ledger := newFakeLedger(a, b)
	uc := NewSettleUseCase()

	out, err := uc.Execute(context.Background(), ledger, SettleInput{
		CounterpartyName: "Maria Silva",
		TransactionIDs:   []uuid.UUID{a.ID, b.ID},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Settled != 2 {
		t.Errorf("expected 2 settled, got %d", out.Settled)
	}
	for _, orig := range []*entity.Transaction{a, b} {
		got, _ := ledger.Find(orig.ID)
		if got.IsPending {
			t.Errorf("expected %s to be settled", orig.ID)
		}
		if !got.Value.Equal(orig.Value) {
			t.Errorf("expected value %s to be unchanged, got %s", orig.Value, got.Value)
		}
	}

	// Settling again is a no-op.
	if _, err := uc.Execute(context.Background(), ledger, SettleInput{TransactionIDs: []uuid.UUID{a.ID}}); err != nil {
		t.Fatalf("unexpected error on re-settle: %v", err)
	}
	got, _ := ledger.Find(a.ID)
	if got.IsPending || !got.Value.Equal(a.Value) {
		t.Error("expected re-settling to leave the row unchanged")
	}
}

func TestPartialSettleUseCase_Execute(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		paid      string
		remaining string
	}{
		{"scenario from a deferred sale", "50.00", "20.00", "30.00"},
		{"cents", "10.10", "3.33", "6.77"},
		{"sub-cent payment is rounded first", "1.00", "0.005", "0.99"},
		{"one cent left", "7.50", "7.49", "0.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := debt(tt.value)
			ledger := newFakeLedger(original)
			uc := NewPartialSettleUseCase()

			out, err := uc.Execute(context.Background(), ledger, PartialSettleInput{
				TransactionID: original.ID,
				AmountPaid:    decimal.RequireFromString(tt.paid),
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !out.Remaining.Value.Equal(decimal.RequireFromString(tt.remaining)) {
				t.Errorf("expected remaining %s, got %s", tt.remaining, out.Remaining.Value)
			}
			if !out.Remaining.IsPending {
				t.Error("expected the remaining balance to stay pending")
			}
			if out.Receipt.IsPending {
				t.Error("expected the receipt to be settled")
			}
			sum := out.Remaining.Value.Add(out.Receipt.Value)
			if !sum.Equal(entity.RoundMoney(original.Value)) {
				t.Errorf("expected remaining + receipt = %s, got %s", original.Value, sum)
			}
		})
	}
}

func TestPartialSettleUseCase_Receipt(t *testing.T) {
	original := debt("50.00")
	ledger := newFakeLedger(original)

	out, err := NewPartialSettleUseCase().Execute(context.Background(), ledger, PartialSettleInput{
		TransactionID: original.ID,
		AmountPaid:    decimal.RequireFromString("20.00"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := out.Receipt
	if r.Item != "Coxinha"+entity.PartialReceiptSuffix {
		t.Errorf("unexpected receipt item %q", r.Item)
	}
	if r.Category != original.Category || r.SubCategory != original.SubCategory {
		t.Error("expected the receipt to keep the original category")
	}
	if r.CounterpartyName != original.CounterpartyName || r.CreatedBy != original.CreatedBy {
		t.Error("expected the receipt to keep counterparty and creator")
	}
	if r.PaymentMethod != entity.PaymentMethodImmediate {
		t.Errorf("expected an immediate payment, got %s", r.PaymentMethod)
	}
	if r.TenantID != original.TenantID {
		t.Error("expected the receipt to stay in the original tenant")
	}
}

func TestPartialSettleUseCase_Preconditions(t *testing.T) {
	tests := []struct {
		name     string
		paid     string
		pending  bool
		expected error
	}{
		{"zero amount", "0", true, domainerror.ErrInvalidPartialAmount},
		{"negative amount", "-5", true, domainerror.ErrInvalidPartialAmount},
		{"amount equal to balance", "50.00", true, domainerror.ErrPaymentCoversBalance},
		{"amount above balance", "80.00", true, domainerror.ErrPaymentCoversBalance},
		{"settled entry", "10.00", false, domainerror.ErrNotPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := debt("50.00")
			original.IsPending = tt.pending
			ledger := newFakeLedger(original)

			_, err := NewPartialSettleUseCase().Execute(context.Background(), ledger, PartialSettleInput{
				TransactionID: original.ID,
				AmountPaid:    decimal.RequireFromString(tt.paid),
			})
			if !errors.Is(err, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, err)
			}
			got, _ := ledger.Find(original.ID)
			if !got.Value.Equal(original.Value) || len(ledger.rows) != 1 {
				t.Error("expected the ledger to be untouched")
			}
		})
	}

	t.Run("unknown transaction", func(t *testing.T) {
		_, err := NewPartialSettleUseCase().Execute(context.Background(), newFakeLedger(), PartialSettleInput{
			TransactionID: uuid.New(),
			AmountPaid:    decimal.NewFromInt(1),
		})
		if !errors.Is(err, domainerror.ErrTransactionNotFound) {
			t.Errorf("expected ErrTransactionNotFound, got %v", err)
		}
	})

	t.Run("remote failure is surfaced", func(t *testing.T) {
		original := debt("50.00")
		ledger := newFakeLedger(original)
		ledger.partialErr = domainerror.NewRemoteError(domainerror.RemoteKindConflict, "partial_settlement", nil)

		_, err := NewPartialSettleUseCase().Execute(context.Background(), ledger, PartialSettleInput{
			TransactionID: original.ID,
			AmountPaid:    decimal.NewFromInt(10),
		})
		var setErr *domainerror.SettlementError
		if !errors.As(err, &setErr) || setErr.Code != domainerror.ErrCodeSettlementFailed {
			t.Fatalf("expected SettlementError %s, got %v", domainerror.ErrCodeSettlementFailed, err)
		}
		if !errors.Is(err, domainerror.ErrConflict) {
			t.Error("expected the conflict to stay visible")
		}
	})
}

func TestEditUseCase_Execute(t *testing.T) {
	t.Run("updates, marks and audits", func(t *testing.T) {
		original := debt("15.00")
		ledger := newFakeLedger(original)
		v := decimal.RequireFromString("10.00")
		q := decimal.NewFromInt(1)

		out, err := NewEditUseCase().Execute(context.Background(), ledger, EditInput{
			TransactionID: original.ID,
			Value:         &v,
			Quantity:      &q,
			Editor:        "Bruno",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if out.Transaction.Item != "Coxinha *" {
			t.Errorf("expected edited marker, got %q", out.Transaction.Item)
		}
		if !out.Transaction.Value.Equal(v) {
			t.Errorf("expected value 10.00, got %s", out.Transaction.Value)
		}

		a := out.Audit
		if a.Category != entity.CategoryAudit || a.SubCategory != entity.SubCategoryEdit {
			t.Errorf("unexpected audit category %s/%s", a.Category, a.SubCategory)
		}
		if !a.Value.IsZero() || a.IsPending || a.PaymentMethod != entity.PaymentMethodSystem {
			t.Errorf("expected a zero-value settled system row, got %+v", a)
		}
		if a.CreatedBy != "Bruno" {
			t.Errorf("expected editor Bruno, got %q", a.CreatedBy)
		}
		expected := "LOG: Coxinha | qty 2 -> 1 | value 15.00 -> 10.00 | by Bruno"
		if a.Item != expected {
			t.Errorf("expected audit note %q, got %q", expected, a.Item)
		}
		if a.CounterpartyName != "" {
			t.Error("audit rows must not carry a counterparty")
		}
	})

	t.Run("does not stack edit markers", func(t *testing.T) {
		original := debt("15.00")
		original.Item = "Coxinha *"
		ledger := newFakeLedger(original)
		v := decimal.RequireFromString("12.00")

		out, err := NewEditUseCase().Execute(context.Background(), ledger, EditInput{TransactionID: original.ID, Value: &v, Editor: "Bruno"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Transaction.Item != "Coxinha *" {
			t.Errorf("expected a single marker, got %q", out.Transaction.Item)
		}
		if !strings.HasPrefix(out.Audit.Item, "LOG: Coxinha |") {
			t.Errorf("expected the marker stripped in the note, got %q", out.Audit.Item)
		}
	})

	t.Run("requires an editor", func(t *testing.T) {
		v := decimal.NewFromInt(1)
		_, err := NewEditUseCase().Execute(context.Background(), newFakeLedger(), EditInput{TransactionID: uuid.New(), Value: &v})
		if !errors.Is(err, domainerror.ErrMissingEditor) {
			t.Errorf("expected ErrMissingEditor, got %v", err)
		}
	})

	t.Run("failed update writes no audit row", func(t *testing.T) {
		original := debt("15.00")
		ledger := newFakeLedger(original)
		ledger.updateErr = errors.New("boom")
		v := decimal.NewFromInt(1)

		if _, err := NewEditUseCase().Execute(context.Background(), ledger, EditInput{TransactionID: original.ID, Value: &v, Editor: "Bruno"}); err == nil {
			t.Fatal("expected an error")
		}
		if len(ledger.rows) != 1 {
			t.Errorf("expected no audit row, got %d rows", len(ledger.rows))
		}
	})
}
