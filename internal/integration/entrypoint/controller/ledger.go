package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/opsledger/backend/internal/application/ledger"
	"github.com/opsledger/backend/internal/application/usecase/dashboard"
	"github.com/opsledger/backend/internal/application/usecase/identity"
	"github.com/opsledger/backend/internal/application/usecase/settlement"
	"github.com/opsledger/backend/internal/application/usecase/stock"
	"github.com/opsledger/backend/internal/domain/entity"
	domainerror "github.com/opsledger/backend/internal/domain/error"
	"github.com/opsledger/backend/internal/integration/entrypoint/dto"
	"github.com/opsledger/backend/internal/integration/entrypoint/middleware"
)

// SessionProvider returns the ledger session of a tenant.
type SessionProvider interface {
	Get(ctx context.Context, tenantID uuid.UUID) (*ledger.Session, error)
}

// LedgerController handles ledger endpoints.
type LedgerController struct {
	sessions        SessionProvider
	confirmSale     *stock.ConfirmSaleUseCase
	lowStock        *stock.GetLowStockUseCase
	settle          *settlement.SettleUseCase
	partialSettle   *settlement.PartialSettleUseCase
	edit            *settlement.EditUseCase
	totals          *dashboard.GetTotalsUseCase
	debts           *identity.GetPartyDebtsUseCase
	history         *identity.GetPartyHistoryUseCase
	syncGlobalDebts *identity.SyncGlobalDebtsUseCase
	displayLocation *time.Location
}

// NewLedgerController creates a new ledger controller instance.
func NewLedgerController(
	sessions SessionProvider,
	confirmSale *stock.ConfirmSaleUseCase,
	lowStock *stock.GetLowStockUseCase,
	settle *settlement.SettleUseCase,
	partialSettle *settlement.PartialSettleUseCase,
	edit *settlement.EditUseCase,
	totals *dashboard.GetTotalsUseCase,
	debts *identity.GetPartyDebtsUseCase,
	history *identity.GetPartyHistoryUseCase,
	syncGlobalDebts *identity.SyncGlobalDebtsUseCase,
	displayLocation *time.Location,
) *LedgerController {
	if displayLocation == nil {
		displayLocation = time.Local
	}
	return &LedgerController{
		sessions:        sessions,
		confirmSale:     confirmSale,
		lowStock:        lowStock,
		settle:          settle,
		partialSettle:   partialSettle,
		edit:            edit,
		totals:          totals,
		debts:           debts,
		history:         history,
		syncGlobalDebts: syncGlobalDebts,
		displayLocation: displayLocation,
	}
}

// session resolves the caller and its tenant session, writing the error response on failure.
func (c *LedgerController) session(ctx *gin.Context) (*entity.Party, *ledger.Session, bool) {
	party, ok := middleware.GetPartyFromContext(ctx)
	if !ok {
		unauthenticated(ctx)
		return nil, nil, false
	}
	session, err := c.sessions.Get(ctx.Request.Context(), party.TenantID)
	if err != nil {
		handleError(ctx, err)
		return nil, nil, false
	}
	return party, session, true
}

// List handles GET /ledger/transactions requests.
func (c *LedgerController) List(ctx *gin.Context) {
	_, session, ok := c.session(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, dto.ToTransactionListResponse(session.Store.Snapshot()))
}

// Add handles POST /ledger/transactions requests.
func (c *LedgerController) Add(ctx *gin.Context) {
	party, session, ok := c.session(ctx)
	if !ok {
		return
	}

	var req dto.AddTransactionsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request body", string(domainerror.ErrCodeMissingTransactionFields))
		return
	}

	stored, err := session.Store.AddBatch(ctx.Request.Context(), dto.ToTransactionEntities(req.Entries, party.TenantID, party.DisplayName))
	if err != nil {
		handleError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.ToTransactionListResponse(stored))
}

// Edit handles PATCH /ledger/transactions/:id requests.
func (c *LedgerController) Edit(ctx *gin.Context) {
	party, session, ok := c.session(ctx)
	if !ok {
		return
	}

	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		badRequest(ctx, "Invalid transaction ID", string(domainerror.ErrCodeTransactionNotFound))
		return
	}

	var req dto.EditTransactionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request body", string(domainerror.ErrCodeMissingTransactionFields))
		return
	}

	output, err := c.edit.Execute(ctx.Request.Context(), session.Store, settlement.EditInput{
		TransactionID: id,
		Value:         req.Value,
		Quantity:      req.Quantity,
		Editor:        party.DisplayName,
	})
	if err != nil {
		handleError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.EditTransactionResponse{
		Transaction: dto.ToTransactionResponse(output.Transaction),
		Audit:       dto.ToTransactionResponse(output.Audit),
	})
}

// Delete handles DELETE /ledger/transactions/:id requests.
func (c *LedgerController) Delete(ctx *gin.Context) {
	_, session, ok := c.session(ctx)
	if !ok {
		return
	}

	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		badRequest(ctx, "Invalid transaction ID", string(domainerror.ErrCodeTransactionNotFound))
		return
	}

	if err := session.Store.Delete(ctx.Request.Context(), id); err != nil {
		handleError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Clear handles DELETE /ledger/transactions?period= requests.
func (c *LedgerController) Clear(ctx *gin.Context) {
	party, session, ok := c.session(ctx)
	if !ok {
		return
	}

	period := entity.ClearPeriod(strings.ToUpper(ctx.Query("period")))
	deleted, err := session.Store.Clear(ctx.Request.Context(), party.TenantID, period)
	if err != nil {
		handleError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.ClearResponse{Deleted: deleted})
}

// Sync handles POST /ledger/sync requests.
func (c *LedgerController) Sync(ctx *gin.Context) {
	_, session, ok := c.session(ctx)
	if !ok {
		return
	}

	if err := session.Reconciler.RevalidateAndWait(ctx.Request.Context()); err != nil {
		handleError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.ToTransactionListResponse(session.Store.Snapshot()))
}

// ConfirmSale handles POST /ledger/sales requests.
func (c *LedgerController) ConfirmSale(ctx *gin.Context) {
	party, session, ok := c.session(ctx)
	if !ok {
		return
	}

	var req dto.ConfirmSaleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request body", string(domainerror.ErrCodeMissingTransactionFields))
		return
	}

	output, err := c.confirmSale.Execute(ctx.Request.Context(), session.Store, stock.ConfirmSaleInput{
		TenantID:      party.TenantID,
		SellingPoolID: uuid.MustParse(req.SellingPoolID),
		Entries:       dto.ToTransactionEntities(req.Entries, party.TenantID, party.DisplayName),
	})
	if err != nil {
		handleError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.ToConfirmSaleResponse(output))
}

// Settle handles POST /ledger/settlements requests.
func (c *LedgerController) Settle(ctx *gin.Context) {
	_, session, ok := c.session(ctx)
	if !ok {
		return
	}

	var req dto.SettleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request body", string(domainerror.ErrCodeEmptyTransactionIDs))
		return
	}
	ids, ok := parseIDs(req.TransactionIDs)
	if !ok {
		badRequest(ctx, "Invalid transaction ID", string(domainerror.ErrCodeTransactionNotFound))
		return
	}

	output, err := c.settle.Execute(ctx.Request.Context(), session.Store, settlement.SettleInput{
		CounterpartyName: req.CounterpartyName,
		TransactionIDs:   ids,
	})
	if err != nil {
		handleError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.SettleResponse{Settled: output.Settled})
}

// PartialSettle handles POST /ledger/settlements/partial requests.
// A payment that covers the whole balance settles the entry in full.
func (c *LedgerController) PartialSettle(ctx *gin.Context) {
	_, session, ok := c.session(ctx)
	if !ok {
		return
	}

	var req dto.PartialSettleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request body", string(domainerror.ErrCodeInvalidPartialAmount))
		return
	}
	id := uuid.MustParse(req.TransactionID)

	output, err := c.partialSettle.Execute(ctx.Request.Context(), session.Store, settlement.PartialSettleInput{
		TransactionID: id,
		AmountPaid:    req.AmountPaid,
	})
	if errors.Is(err, domainerror.ErrPaymentCoversBalance) {
		full, err := c.settle.Execute(ctx.Request.Context(), session.Store, settlement.SettleInput{
			TransactionIDs: []uuid.UUID{id},
		})
		if err != nil {
			handleError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, dto.PartialSettleResponse{Settled: full.Settled})
		return
	}
	if err != nil {
		handleError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.PartialSettleResponse{
		Remaining: dto.ToTransactionResponsePtr(output.Remaining),
		Receipt:   dto.ToTransactionResponsePtr(output.Receipt),
	})
}

// Totals handles GET /ledger/totals?category=&sub_category= requests.
func (c *LedgerController) Totals(ctx *gin.Context) {
	party, session, ok := c.session(ctx)
	if !ok {
		return
	}

	category := ctx.Query("category")
	if category == "" {
		badRequest(ctx, "category is required", string(domainerror.ErrCodeMissingTransactionFields))
		return
	}
	subCategory := ctx.Query("sub_category")

	output := c.totals.Execute(dashboard.GetTotalsInput{
		TenantID:    party.TenantID,
		Category:    category,
		SubCategory: subCategory,
		Rows:        session.Store.Snapshot(),
	})
	ctx.JSON(http.StatusOK, dto.ToTotalsResponse(category, subCategory, output))
}

// MyDebts handles GET /ledger/me/debts requests.
func (c *LedgerController) MyDebts(ctx *gin.Context) {
	party, session, ok := c.session(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, dto.ToPartyViewResponse(c.debts.Execute(c.partyView(ctx, party, session))))
}

// MyHistory handles GET /ledger/me/history requests.
func (c *LedgerController) MyHistory(ctx *gin.Context) {
	party, session, ok := c.session(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, dto.ToPartyViewResponse(c.history.Execute(c.partyView(ctx, party, session))))
}

// LowStock handles GET /ledger/stock/low requests.
func (c *LedgerController) LowStock(ctx *gin.Context) {
	party, ok := middleware.GetPartyFromContext(ctx)
	if !ok {
		unauthenticated(ctx)
		return
	}

	output, err := c.lowStock.Execute(ctx.Request.Context(), stock.GetLowStockInput{TenantID: party.TenantID})
	if err != nil {
		handleError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.ToLowStockResponse(output))
}

// partyView gathers the rows visible to the party: the tenant's ledger plus
// debts the party owes in other tenants. A failed cross-tenant pull is logged
// and the view falls back to the tenant's own rows.
func (c *LedgerController) partyView(ctx *gin.Context, party *entity.Party, session *ledger.Session) identity.PartyViewInput {
	rows := newViewRows(session.Store.Snapshot())
	counterparties := session.Reconciler.Counterparties()

	if !party.IsOwner && c.syncGlobalDebts != nil {
		synced, err := c.syncGlobalDebts.Execute(ctx.Request.Context(), rows, identity.SyncGlobalDebtsInput{Party: *party})
		if err != nil {
			slog.WarnContext(ctx.Request.Context(), "failed to sync global debts",
				"tenant_id", party.TenantID,
				"error", err,
			)
		} else {
			counterparties = append(counterparties, synced.Counterparties...)
		}
	}

	return identity.PartyViewInput{
		Party:          *party,
		Counterparties: counterparties,
		Rows:           rows.list,
		Location:       c.displayLocation,
	}
}

// viewRows collects rows for a single view without touching the shared session.
type viewRows struct {
	seen map[uuid.UUID]struct{}
	list []*entity.Transaction
}

func newViewRows(base []*entity.Transaction) *viewRows {
	v := &viewRows{seen: make(map[uuid.UUID]struct{}, len(base))}
	v.MergeRows(base)
	return v
}

// MergeRows appends rows not seen before.
func (v *viewRows) MergeRows(rows []*entity.Transaction) {
	for _, t := range rows {
		if _, ok := v.seen[t.ID]; ok {
			continue
		}
		v.seen[t.ID] = struct{}{}
		v.list = append(v.list, t)
	}
}

func parseIDs(raw []string) ([]uuid.UUID, bool) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}
