// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"smartsupply/internal/domain/gate"
	"smartsupply/internal/infrastructure/http/v1/handlers"
	"smartsupply/internal/infrastructure/http/v1/middleware"
	"smartsupply/internal/infrastructure/storage/postgres"
	"smartsupply/pkg/logger"
)

// StockQueries is everything the read endpoints need from the query service.
type StockQueries interface {
	handlers.StockReader
	handlers.HistoryReader
}

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	Engine         handlers.MovementExecutor
	Queries        StockQueries
	Catalog        handlers.CatalogService
	Reconciliation handlers.IssueLister

	// Idempotency is nil when the middleware is disabled.
	Idempotency middleware.IdempotencyStore

	// RequireConfirmation rejects gated operations without X-Confirm-Operation.
	RequireConfirmation bool

	AppName      string
	Version      string
	HealthChecks map[string]handlers.Pinger
	PoolStats    func() postgres.PoolStats
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	if cfg.Idempotency != nil {
		router.Use(middleware.Idempotency(cfg.Idempotency))
	}
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.AppName, cfg.Version, cfg.HealthChecks, cfg.PoolStats)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	v1 := router.Group("/api/v1")
	base := handlers.NewBaseHandler()
	guard := func(op string) gin.HandlerFunc {
		return middleware.Gate(op, cfg.RequireConfirmation)
	}

	registerMovementRoutes(v1, base, cfg, guard)
	registerStockRoutes(v1, base, cfg, guard)
	registerCatalogRoutes(v1, base, cfg, guard)

	gateHandler := handlers.NewGateHandler(base)
	v1.GET("/gate/:operation", gateHandler.Classify)

	if cfg.Reconciliation != nil {
		rh := handlers.NewReconciliationHandler(base, cfg.Reconciliation)
		v1.GET("/reconciliation/issues", rh.Issues)
	}

	return router
}

func registerMovementRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig, guard func(string) gin.HandlerFunc) {
	h := handlers.NewMovementHandler(base, cfg.Engine, cfg.Queries)
	movements := rg.Group("/movements")
	{
		movements.GET("", guard(gate.OpQueryMovementHistory), h.History)
		movements.POST("/inbound", guard(gate.OpInbound), h.Inbound)
		movements.POST("/outbound", guard(gate.OpOutbound), h.Outbound)
		movements.POST("/transfer", guard(gate.OpTransfer), h.Transfer)
		movements.POST("/damage", guard(gate.OpDamage), h.Damage)
	}
}

func registerStockRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig, guard func(string) gin.HandlerFunc) {
	h := handlers.NewStockHandler(base, cfg.Queries)
	stock := rg.Group("/stock")
	{
		stock.GET("", guard(gate.OpQueryStock), h.Stock)
		stock.GET("/details", guard(gate.OpQueryDetails), h.Details)
		stock.GET("/low", guard(gate.OpQueryLowStock), h.Low)
	}
}

func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig, guard func(string) gin.HandlerFunc) {
	h := handlers.NewCatalogHandler(base, cfg.Catalog)
	catalogs := rg.Group("/catalog")
	{
		catalogs.GET("/products", guard(gate.OpQueryProducts), h.ListProducts)
		catalogs.POST("/products", guard(gate.OpCreateProduct), h.CreateProduct)
		catalogs.GET("/warehouses", guard(gate.OpQueryWarehouses), h.ListWarehouses)
		catalogs.POST("/warehouses", guard(gate.OpCreateWarehouse), h.CreateWarehouse)
	}
}
