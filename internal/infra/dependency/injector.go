// Package dependency provides dependency injection for the application.
package dependency

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/opsledger/backend/config"
	"github.com/opsledger/backend/internal/application/ledger"
	"github.com/opsledger/backend/internal/application/resilience"
	"github.com/opsledger/backend/internal/application/usecase/counterparty"
	"github.com/opsledger/backend/internal/application/usecase/dashboard"
	"github.com/opsledger/backend/internal/application/usecase/identity"
	"github.com/opsledger/backend/internal/application/usecase/settlement"
	"github.com/opsledger/backend/internal/application/usecase/stock"
	"github.com/opsledger/backend/internal/infra/server/router"
	"github.com/opsledger/backend/internal/integration/adapters"
	"github.com/opsledger/backend/internal/integration/entrypoint/controller"
	"github.com/opsledger/backend/internal/integration/entrypoint/middleware"
	"github.com/opsledger/backend/internal/integration/persistence"
	"github.com/opsledger/backend/internal/integration/realtime"
)

// Injector holds all application dependencies.
type Injector struct {
	Config   *config.Config
	DB       *gorm.DB
	Redis    *redis.Client
	Registry *ledger.Registry
	Router   *router.Router
}

// NewInjector creates a new dependency injector with all dependencies wired.
func NewInjector(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *Injector {
	// Realtime feed doubles as the repositories' change publisher
	feed := realtime.NewRedisFeed(rdb, cfg.Realtime.ChannelPrefix, cfg.Realtime.BufferSize)

	// Create repositories
	transactionRepo := persistence.NewTransactionRepository(db, feed)
	configurationRepo := persistence.NewConfigurationRepository(db, feed)
	counterpartyRepo := persistence.NewCounterpartyRepository(db, feed)

	// Create adapters/services
	policy := resilience.NewPolicy(cfg.Sync)
	tokenService := adapters.NewTokenService(cfg.JWT.Secret)
	registry := ledger.NewRegistry(transactionRepo, configurationRepo, counterpartyRepo, feed, cfg.Sync, cfg.Realtime)

	// Create stock use cases
	confirmSaleUseCase := stock.NewConfirmSaleUseCase(configurationRepo, policy)
	getLowStockUseCase := stock.NewGetLowStockUseCase(configurationRepo, policy)

	// Create settlement use cases
	settleUseCase := settlement.NewSettleUseCase()
	partialSettleUseCase := settlement.NewPartialSettleUseCase()
	editUseCase := settlement.NewEditUseCase()

	// Create identity use cases
	getPartyDebtsUseCase := identity.NewGetPartyDebtsUseCase()
	getPartyHistoryUseCase := identity.NewGetPartyHistoryUseCase()
	syncGlobalDebtsUseCase := identity.NewSyncGlobalDebtsUseCase(transactionRepo, counterpartyRepo, policy)

	// Create counterparty use cases
	listCounterpartiesUseCase := counterparty.NewListCounterpartiesUseCase(counterpartyRepo)
	createCounterpartyUseCase := counterparty.NewCreateCounterpartyUseCase(counterpartyRepo)
	updateCounterpartyUseCase := counterparty.NewUpdateCounterpartyUseCase(counterpartyRepo)
	deleteCounterpartyUseCase := counterparty.NewDeleteCounterpartyUseCase(counterpartyRepo)

	// Create controllers
	healthController := controller.NewHealthController(
		func() bool {
			sqlDB, err := db.DB()
			if err != nil {
				return false
			}
			return sqlDB.Ping() == nil
		},
		func() bool {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return rdb.Ping(ctx).Err() == nil
		},
	)

	displayLocation := loadLocation(cfg.Server.Timezone)
	ledgerController := controller.NewLedgerController(
		registry,
		confirmSaleUseCase,
		getLowStockUseCase,
		settleUseCase,
		partialSettleUseCase,
		editUseCase,
		dashboard.NewGetTotalsUseCase(displayLocation),
		getPartyDebtsUseCase,
		getPartyHistoryUseCase,
		syncGlobalDebtsUseCase,
		displayLocation,
	)

	counterpartyController := controller.NewCounterpartyController(
		listCounterpartiesUseCase,
		createCounterpartyUseCase,
		updateCounterpartyUseCase,
		deleteCounterpartyUseCase,
	)

	// Create middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	// Create router
	r := router.NewRouter(healthController, ledgerController, counterpartyController, authMiddleware)

	return &Injector{
		Config:   cfg,
		DB:       db,
		Redis:    rdb,
		Registry: registry,
		Router:   r,
	}
}

// Close stops every ledger session.
func (i *Injector) Close() {
	i.Registry.Close()
}

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		slog.Warn("Unknown display timezone, falling back to UTC", "timezone", name, "error", err)
		return time.UTC
	}
	return loc
}
