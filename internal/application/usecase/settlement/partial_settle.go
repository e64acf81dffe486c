package settlement

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opsledger/backend/internal/domain/entity"
	domainerror "github.com/opsledger/backend/internal/domain/error"
)

// PartialSettleInput represents the input for a partial settlement.
type PartialSettleInput struct {
	TransactionID uuid.UUID
	AmountPaid    decimal.Decimal
}

// PartialSettleOutput represents the output of a partial settlement.
type PartialSettleOutput struct {
	Remaining *entity.Transaction
	Receipt   *entity.Transaction
}

// PartialSettleUseCase lowers a debt by the amount paid and records a
// settled receipt for that amount. The two rows always add up to the
// original balance.
type PartialSettleUseCase struct{}

// NewPartialSettleUseCase creates a new PartialSettleUseCase instance.
func NewPartialSettleUseCase() *PartialSettleUseCase {
	return &PartialSettleUseCase{}
}

// Execute performs the partial settlement. An amount that covers the whole
// balance is rejected with ErrPaymentCoversBalance; callers decide whether to
// run a full settlement instead.
func (uc *PartialSettleUseCase) Execute(ctx context.Context, ledger Ledger, input PartialSettleInput) (*PartialSettleOutput, error) {
	original, ok := ledger.Find(input.TransactionID)
	if !ok {
		return nil, domainerror.NewTransactionError(
			domainerror.ErrCodeTransactionNotFound,
			"transaction not found",
			domainerror.ErrTransactionNotFound,
		)
	}
	if !original.IsPending {
		return nil, domainerror.NewSettlementError(
			domainerror.ErrCodeNotPending,
			"transaction is not pending",
			domainerror.ErrNotPending,
		)
	}

	paid := entity.RoundMoney(input.AmountPaid)
	if !paid.IsPositive() {
		return nil, domainerror.NewSettlementError(
			domainerror.ErrCodeInvalidPartialAmount,
			"amount paid must be greater than zero",
			domainerror.ErrInvalidPartialAmount,
		)
	}
	if paid.GreaterThanOrEqual(original.Value) {
		return nil, domainerror.NewSettlementError(
			domainerror.ErrCodePaymentCoversBalance,
			"amount paid covers the full balance",
			domainerror.ErrPaymentCoversBalance,
		)
	}

	remaining := entity.RoundMoney(original.Value.Sub(paid))
	receipt := &entity.Transaction{
		TenantID:         original.TenantID,
		Category:         original.Category,
		SubCategory:      original.SubCategory,
		Item:             original.Item + entity.PartialReceiptSuffix,
		Value:            paid,
		Quantity:         original.Quantity,
		PaymentMethod:    entity.PaymentMethodImmediate,
		CounterpartyName: original.CounterpartyName,
		IsPending:        false,
		CreatedBy:        original.CreatedBy,
	}

	reduced, stored, err := ledger.ApplyPartialSettlement(ctx, original, remaining, receipt)
	if err != nil {
		return nil, domainerror.NewSettlementError(
			domainerror.ErrCodeSettlementFailed,
			domainerror.UserMessage(err),
			fmt.Errorf("failed to apply partial settlement: %w", err),
		)
	}

	return &PartialSettleOutput{Remaining: reduced, Receipt: stored}, nil
}
