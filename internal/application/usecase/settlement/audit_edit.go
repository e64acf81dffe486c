package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opsledger/backend/internal/domain/entity"
	domainerror "github.com/opsledger/backend/internal/domain/error"
)

// AuditLogPrefix starts the item name of every audit row.
const AuditLogPrefix = "LOG: "

// EditInput represents the input for a manual correction.
type EditInput struct {
	TransactionID uuid.UUID
	Value         *decimal.Decimal
	Quantity      *decimal.Decimal
	Editor        string
}

// EditOutput represents the output of a manual correction.
type EditOutput struct {
	Transaction *entity.Transaction
	Audit       *entity.Transaction
}

// EditUseCase corrects the value or quantity of an entry, marks it as edited
// and appends a zero-value audit row describing the change.
type EditUseCase struct{}

// NewEditUseCase creates a new EditUseCase instance.
func NewEditUseCase() *EditUseCase {
	return &EditUseCase{}
}

// Execute performs the audited edit.
func (uc *EditUseCase) Execute(ctx context.Context, ledger Ledger, input EditInput) (*EditOutput, error) {
	if strings.TrimSpace(input.Editor) == "" {
		return nil, domainerror.NewSettlementError(
			domainerror.ErrCodeMissingEditor,
			"editor is required",
			domainerror.ErrMissingEditor,
		)
	}
	if input.Value == nil && input.Quantity == nil {
		return nil, domainerror.NewTransactionError(
			domainerror.ErrCodeEmptyPatch,
			"update carries no changes",
			domainerror.ErrEmptyPatch,
		)
	}

	original, ok := ledger.Find(input.TransactionID)
	if !ok {
		return nil, domainerror.NewTransactionError(
			domainerror.ErrCodeTransactionNotFound,
			"transaction not found",
			domainerror.ErrTransactionNotFound,
		)
	}

	patch := entity.TransactionPatch{Value: input.Value, Quantity: input.Quantity}
	if !original.IsEdited() {
		item := original.Item + entity.EditedMarker
		patch.Item = &item
	}

	updated, err := ledger.Update(ctx, original.ID, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to edit transaction: %w", err)
	}

	one := decimal.NewFromInt(1)
	audit := &entity.Transaction{
		TenantID:      original.TenantID,
		Category:      entity.CategoryAudit,
		SubCategory:   entity.SubCategoryEdit,
		Item:          AuditNote(original, updated, input.Editor),
		Value:         decimal.Zero,
		Quantity:      &one,
		PaymentMethod: entity.PaymentMethodSystem,
		IsPending:     false,
		CreatedBy:     input.Editor,
	}
	stored, err := ledger.AddBatch(ctx, []*entity.Transaction{audit})
	if err != nil {
		return nil, fmt.Errorf("failed to record audit entry: %w", err)
	}

	slog.InfoContext(ctx, "transaction edited",
		"tenant_id", original.TenantID,
		"transaction_id", original.ID,
		"editor", input.Editor,
	)
	return &EditOutput{Transaction: updated, Audit: stored[0]}, nil
}

// AuditNote describes an edit, for example
// "LOG: Coxinha | qty 3 -> 2 | value 15.00 -> 10.00 | by Ana".
func AuditNote(before, after *entity.Transaction, editor string) string {
	name := strings.TrimSuffix(before.Item, entity.EditedMarker)
	return fmt.Sprintf("%s%s | qty %s -> %s | value %s -> %s | by %s",
		AuditLogPrefix,
		name,
		before.QuantityOrZero().String(),
		after.QuantityOrZero().String(),
		before.Value.StringFixed(2),
		after.Value.StringFixed(2),
		editor,
	)
}
