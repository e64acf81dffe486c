package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opsledger/backend/internal/application/usecase/dashboard"
	"github.com/opsledger/backend/internal/application/usecase/identity"
	"github.com/opsledger/backend/internal/application/usecase/stock"
	"github.com/opsledger/backend/internal/domain/entity"
)

// TransactionEntryRequest represents one entry of a batch add.
type TransactionEntryRequest struct {
	Category         string           `json:"category" binding:"required,max=100"`
	SubCategory      string           `json:"sub_category,omitempty" binding:"omitempty,max=50"`
	Item             string           `json:"item" binding:"required,min=1,max=255"`
	Value            decimal.Decimal  `json:"value"`
	Quantity         *decimal.Decimal `json:"quantity,omitempty"`
	PaymentMethod    string           `json:"payment_method" binding:"required,oneof=IMMEDIATE DEFERRED"`
	CounterpartyName string           `json:"counterparty_name,omitempty" binding:"omitempty,max=255"`
	IsPending        bool             `json:"is_pending,omitempty"`
	InitialStock     *decimal.Decimal `json:"initial_stock,omitempty"`
	LeftoverStock    *decimal.Decimal `json:"leftover_stock,omitempty"`
	UnitPrice        *decimal.Decimal `json:"unit_price,omitempty"`
}

// AddTransactionsRequest represents the request body for a batch add.
type AddTransactionsRequest struct {
	Entries []TransactionEntryRequest `json:"entries" binding:"required,min=1,dive"`
}

// EditTransactionRequest represents the request body for an audited edit.
type EditTransactionRequest struct {
	Value    *decimal.Decimal `json:"value,omitempty"`
	Quantity *decimal.Decimal `json:"quantity,omitempty"`
}

// ConfirmSaleRequest represents the request body for a sale with stock deduction.
type ConfirmSaleRequest struct {
	SellingPoolID string                    `json:"selling_pool_id" binding:"required,uuid"`
	Entries       []TransactionEntryRequest `json:"entries" binding:"required,min=1,dive"`
}

// SettleRequest represents the request body for a full settlement.
type SettleRequest struct {
	CounterpartyName string   `json:"counterparty_name,omitempty"`
	TransactionIDs   []string `json:"transaction_ids" binding:"required,min=1"`
}

// PartialSettleRequest represents the request body for a partial settlement.
type PartialSettleRequest struct {
	TransactionID string          `json:"transaction_id" binding:"required,uuid"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
}

// TransactionResponse represents a single ledger row in API responses.
type TransactionResponse struct {
	ID               string  `json:"id"`
	TenantID         string  `json:"tenant_id"`
	Timestamp        string  `json:"timestamp"`
	Category         string  `json:"category"`
	SubCategory      string  `json:"sub_category,omitempty"`
	Item             string  `json:"item"`
	Value            string  `json:"value"`
	Quantity         *string `json:"quantity,omitempty"`
	PaymentMethod    string  `json:"payment_method"`
	CounterpartyName string  `json:"counterparty_name,omitempty"`
	IsPending        bool    `json:"is_pending"`
	CreatedBy        string  `json:"created_by,omitempty"`
}

// TransactionListResponse represents a list of ledger rows.
type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
}

// EditTransactionResponse represents the result of an audited edit.
type EditTransactionResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Audit       TransactionResponse `json:"audit"`
}

// DeductionResponse represents one stock deduction.
type DeductionResponse struct {
	Item   string `json:"item"`
	PoolID string `json:"pool_id"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// ConfirmSaleResponse represents the result of a confirmed sale.
type ConfirmSaleResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Deductions   []DeductionResponse   `json:"deductions"`
	StockSaved   bool                  `json:"stock_saved"`
}

// SettleResponse represents the result of a full settlement.
type SettleResponse struct {
	Settled int64 `json:"settled"`
}

// PartialSettleResponse represents the result of a partial settlement.
// Settled is set instead when the payment covered the whole balance.
type PartialSettleResponse struct {
	Remaining *TransactionResponse `json:"remaining,omitempty"`
	Receipt   *TransactionResponse `json:"receipt,omitempty"`
	Settled   int64                `json:"settled,omitempty"`
}

// ClearResponse represents the result of a bulk clear.
type ClearResponse struct {
	Deleted int64 `json:"deleted"`
}

// TotalsResponse represents the period totals of a category.
type TotalsResponse struct {
	Category    string `json:"category"`
	SubCategory string `json:"sub_category,omitempty"`
	Daily       string `json:"daily"`
	Weekly      string `json:"weekly"`
	Monthly     string `json:"monthly"`
	DailyFrom   string `json:"daily_from"`
	WeeklyFrom  string `json:"weekly_from"`
	MonthlyFrom string `json:"monthly_from"`
}

// ReceiptResponse represents rows sharing one timestamp.
type ReceiptResponse struct {
	Timestamp    string                `json:"timestamp"`
	Transactions []TransactionResponse `json:"transactions"`
	Total        string                `json:"total"`
}

// DateGroupResponse represents the receipts of one day.
type DateGroupResponse struct {
	Date     string            `json:"date"`
	Receipts []ReceiptResponse `json:"receipts"`
	Total    string            `json:"total"`
}

// PartyViewResponse represents the debts or history of the signed-in party.
type PartyViewResponse struct {
	Aliases []string            `json:"aliases"`
	Groups  []DateGroupResponse `json:"groups"`
	Total   string              `json:"total"`
}

// LowStockItemResponse represents an item at or below its minimum.
type LowStockItemResponse struct {
	PoolID       string `json:"pool_id"`
	PoolName     string `json:"pool_name"`
	Item         string `json:"item"`
	CurrentStock string `json:"current_stock"`
	MinStock     string `json:"min_stock"`
}

// LowStockResponse represents the low stock report.
type LowStockResponse struct {
	Items []LowStockItemResponse `json:"items"`
}

// ToTransactionEntity converts an entry request into an unsaved ledger row.
func (r TransactionEntryRequest) ToTransactionEntity(tenantID uuid.UUID, createdBy string) *entity.Transaction {
	return &entity.Transaction{
		TenantID:         tenantID,
		Category:         r.Category,
		SubCategory:      r.SubCategory,
		Item:             r.Item,
		Value:            r.Value,
		Quantity:         r.Quantity,
		PaymentMethod:    entity.PaymentMethod(r.PaymentMethod),
		CounterpartyName: r.CounterpartyName,
		IsPending:        r.IsPending,
		CreatedBy:        createdBy,
		InitialStock:     r.InitialStock,
		LeftoverStock:    r.LeftoverStock,
		UnitPrice:        r.UnitPrice,
	}
}

// ToTransactionEntities converts a list of entry requests.
func ToTransactionEntities(entries []TransactionEntryRequest, tenantID uuid.UUID, createdBy string) []*entity.Transaction {
	out := make([]*entity.Transaction, len(entries))
	for i, e := range entries {
		out[i] = e.ToTransactionEntity(tenantID, createdBy)
	}
	return out
}

// ToTransactionResponse converts a ledger row to a TransactionResponse DTO.
func ToTransactionResponse(t *entity.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:               t.ID.String(),
		TenantID:         t.TenantID.String(),
		Timestamp:        t.Timestamp.Format(time.RFC3339),
		Category:         t.Category,
		SubCategory:      t.SubCategory,
		Item:             t.Item,
		Value:            t.Value.StringFixed(2),
		PaymentMethod:    string(t.PaymentMethod),
		CounterpartyName: t.CounterpartyName,
		IsPending:        t.IsPending,
		CreatedBy:        t.CreatedBy,
	}
	if t.Quantity != nil {
		q := t.Quantity.String()
		resp.Quantity = &q
	}
	return resp
}

// ToTransactionResponsePtr converts a ledger row, or returns nil.
func ToTransactionResponsePtr(t *entity.Transaction) *TransactionResponse {
	if t == nil {
		return nil
	}
	resp := ToTransactionResponse(t)
	return &resp
}

// ToTransactionListResponse converts a list of ledger rows.
func ToTransactionListResponse(rows []*entity.Transaction) TransactionListResponse {
	out := make([]TransactionResponse, len(rows))
	for i, t := range rows {
		out[i] = ToTransactionResponse(t)
	}
	return TransactionListResponse{Transactions: out}
}

// ToConfirmSaleResponse converts the output of a confirmed sale.
func ToConfirmSaleResponse(output *stock.ConfirmSaleOutput) ConfirmSaleResponse {
	deductions := make([]DeductionResponse, len(output.Deductions))
	for i, d := range output.Deductions {
		deductions[i] = DeductionResponse{
			Item:   d.Item,
			PoolID: d.PoolID.String(),
			Before: d.Before.String(),
			After:  d.After.String(),
		}
	}
	return ConfirmSaleResponse{
		Transactions: ToTransactionListResponse(output.Transactions).Transactions,
		Deductions:   deductions,
		StockSaved:   output.StockSaved,
	}
}

// ToTotalsResponse converts the period totals.
func ToTotalsResponse(category, subCategory string, output *dashboard.GetTotalsOutput) TotalsResponse {
	return TotalsResponse{
		Category:    category,
		SubCategory: subCategory,
		Daily:       output.Totals.Daily.StringFixed(2),
		Weekly:      output.Totals.Weekly.StringFixed(2),
		Monthly:     output.Totals.Monthly.StringFixed(2),
		DailyFrom:   output.Window.Daily.Format(time.RFC3339),
		WeeklyFrom:  output.Window.Weekly.Format(time.RFC3339),
		MonthlyFrom: output.Window.Monthly.Format(time.RFC3339),
	}
}

// ToPartyViewResponse converts a debts or history view.
func ToPartyViewResponse(output *identity.PartyViewOutput) PartyViewResponse {
	groups := make([]DateGroupResponse, len(output.Groups))
	for i, g := range output.Groups {
		receipts := make([]ReceiptResponse, len(g.Receipts))
		for j, r := range g.Receipts {
			receipts[j] = ReceiptResponse{
				Timestamp:    r.Timestamp.Format(time.RFC3339),
				Transactions: ToTransactionListResponse(r.Rows).Transactions,
				Total:        r.Total.StringFixed(2),
			}
		}
		groups[i] = DateGroupResponse{Date: g.Date, Receipts: receipts, Total: g.Total.StringFixed(2)}
	}
	aliases := output.Aliases
	if aliases == nil {
		aliases = []string{}
	}
	return PartyViewResponse{
		Aliases: aliases,
		Groups:  groups,
		Total:   output.Total.StringFixed(2),
	}
}

// ToLowStockResponse converts the low stock report.
func ToLowStockResponse(output *stock.GetLowStockOutput) LowStockResponse {
	items := make([]LowStockItemResponse, len(output.Items))
	for i, it := range output.Items {
		items[i] = LowStockItemResponse{
			PoolID:       it.PoolID.String(),
			PoolName:     it.PoolName,
			Item:         it.Item.Name,
			CurrentStock: it.Item.CurrentStock.String(),
			MinStock:     it.Item.MinStock.String(),
		}
	}
	return LowStockResponse{Items: items}
}
