package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/opsledger/backend/internal/application/usecase/counterparty"
	domainerror "github.com/opsledger/backend/internal/domain/error"
	"github.com/opsledger/backend/internal/integration/entrypoint/dto"
	"github.com/opsledger/backend/internal/integration/entrypoint/middleware"
)

// CounterpartyController handles counterparty directory endpoints.
type CounterpartyController struct {
	listUseCase   *counterparty.ListCounterpartiesUseCase
	createUseCase *counterparty.CreateCounterpartyUseCase
	updateUseCase *counterparty.UpdateCounterpartyUseCase
	deleteUseCase *counterparty.DeleteCounterpartyUseCase
}

// NewCounterpartyController creates a new counterparty controller instance.
func NewCounterpartyController(
	listUseCase *counterparty.ListCounterpartiesUseCase,
	createUseCase *counterparty.CreateCounterpartyUseCase,
	updateUseCase *counterparty.UpdateCounterpartyUseCase,
	deleteUseCase *counterparty.DeleteCounterpartyUseCase,
) *CounterpartyController {
	return &CounterpartyController{
		listUseCase:   listUseCase,
		createUseCase: createUseCase,
		updateUseCase: updateUseCase,
		deleteUseCase: deleteUseCase,
	}
}

// List handles GET /counterparties requests.
func (c *CounterpartyController) List(ctx *gin.Context) {
	party, ok := middleware.GetPartyFromContext(ctx)
	if !ok {
		unauthenticated(ctx)
		return
	}

	output, err := c.listUseCase.Execute(ctx.Request.Context(), counterparty.ListCounterpartiesInput{TenantID: party.TenantID})
	if err != nil {
		handleError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.ToCounterpartyListResponse(output.Counterparties))
}

// Create handles POST /counterparties requests.
func (c *CounterpartyController) Create(ctx *gin.Context) {
	party, ok := middleware.GetPartyFromContext(ctx)
	if !ok {
		unauthenticated(ctx)
		return
	}

	var req dto.CreateCounterpartyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request body", string(domainerror.ErrCodeMissingCounterpartyName))
		return
	}

	output, err := c.createUseCase.Execute(ctx.Request.Context(), counterparty.CreateCounterpartyInput{
		TenantID: party.TenantID,
		Name:     req.Name,
		Phone:    req.Phone,
	})
	if err != nil {
		handleError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.ToCounterpartyResponse(output.Counterparty))
}

// Update handles PATCH /counterparties/:id requests.
func (c *CounterpartyController) Update(ctx *gin.Context) {
	party, ok := middleware.GetPartyFromContext(ctx)
	if !ok {
		unauthenticated(ctx)
		return
	}

	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		badRequest(ctx, "Invalid counterparty ID", string(domainerror.ErrCodeCounterpartyNotFound))
		return
	}

	var req dto.UpdateCounterpartyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request body", string(domainerror.ErrCodeMissingCounterpartyName))
		return
	}

	output, err := c.updateUseCase.Execute(ctx.Request.Context(), counterparty.UpdateCounterpartyInput{
		TenantID:       party.TenantID,
		CounterpartyID: id,
		Name:           req.Name,
		Phone:          req.Phone,
	})
	if err != nil {
		handleError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.ToCounterpartyResponse(output.Counterparty))
}

// Delete handles DELETE /counterparties/:id requests.
func (c *CounterpartyController) Delete(ctx *gin.Context) {
	party, ok := middleware.GetPartyFromContext(ctx)
	if !ok {
		unauthenticated(ctx)
		return
	}

	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		badRequest(ctx, "Invalid counterparty ID", string(domainerror.ErrCodeCounterpartyNotFound))
		return
	}

	if err := c.deleteUseCase.Execute(ctx.Request.Context(), counterparty.DeleteCounterpartyInput{
		TenantID:       party.TenantID,
		CounterpartyID: id,
	}); err != nil {
		handleError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
