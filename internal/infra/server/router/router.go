// Package router sets up the HTTP routing for the application.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/opsledger/backend/internal/integration/entrypoint/controller"
	"github.com/opsledger/backend/internal/integration/entrypoint/middleware"
)

// Router holds the Gin engine and controller dependencies.
type Router struct {
	engine                 *gin.Engine
	healthController       *controller.HealthController
	ledgerController       *controller.LedgerController
	counterpartyController *controller.CounterpartyController
	authMiddleware         *middleware.AuthMiddleware
}

// NewRouter creates a new router instance with all dependencies.
func NewRouter(
	healthController *controller.HealthController,
	ledgerController *controller.LedgerController,
	counterpartyController *controller.CounterpartyController,
	authMiddleware *middleware.AuthMiddleware,
) *Router {
	return &Router{
		healthController:       healthController,
		ledgerController:       ledgerController,
		counterpartyController: counterpartyController,
		authMiddleware:         authMiddleware,
	}
}

// Setup configures and returns the Gin engine with all routes.
func (r *Router) Setup(environment string) *gin.Engine {
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else if environment == "test" {
		gin.SetMode(gin.TestMode)
	}

	r.engine = gin.Default()

	r.setupHealthRoutes()
	r.setupAPIRoutes()

	return r.engine
}

// setupHealthRoutes configures health check endpoints.
func (r *Router) setupHealthRoutes() {
	r.engine.GET("/health", r.healthController.Check)
}

// setupAPIRoutes configures the main API routes.
func (r *Router) setupAPIRoutes() {
	v1 := r.engine.Group("/api/v1")
	{
		// Ledger routes (require authentication)
		if r.ledgerController != nil && r.authMiddleware != nil {
			ledger := v1.Group("/ledger")
			ledger.Use(r.authMiddleware.Authenticate())
			{
				ledger.GET("/transactions", r.ledgerController.List)
				ledger.POST("/transactions", r.ledgerController.Add)
				ledger.DELETE("/transactions", r.ledgerController.Clear)
				ledger.PATCH("/transactions/:id", r.ledgerController.Edit)
				ledger.DELETE("/transactions/:id", r.ledgerController.Delete)
				ledger.POST("/sync", r.ledgerController.Sync)
				ledger.POST("/sales", r.ledgerController.ConfirmSale)
				ledger.POST("/settlements", r.ledgerController.Settle)
				ledger.POST("/settlements/partial", r.ledgerController.PartialSettle)
				ledger.GET("/totals", r.ledgerController.Totals)
				ledger.GET("/me/debts", r.ledgerController.MyDebts)
				ledger.GET("/me/history", r.ledgerController.MyHistory)
				ledger.GET("/stock/low", r.ledgerController.LowStock)
			}
		}

		// Counterparty routes (require authentication)
		if r.counterpartyController != nil && r.authMiddleware != nil {
			counterparties := v1.Group("/counterparties")
			counterparties.Use(r.authMiddleware.Authenticate())
			{
				counterparties.GET("", r.counterpartyController.List)
				counterparties.POST("", r.counterpartyController.Create)
				counterparties.PATCH("/:id", r.counterpartyController.Update)
				counterparties.DELETE("/:id", r.counterpartyController.Delete)
			}
		}
	}
}

// Engine returns the underlying Gin engine.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
