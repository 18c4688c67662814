package v1

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/catalogs/warehouse"
	"stockledger/internal/domain/documents"
	"stockledger/internal/infrastructure/http/v1/handlers"
	"stockledger/internal/infrastructure/http/v1/middleware"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/pkg/logger"
)

// RouterConfig holds the services behind the API.
type RouterConfig struct {
	// Pool is used by the health endpoints
	Pool *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// AuthService for authentication endpoints
	AuthService handlers.AuthService

	Products   handlers.ProductService
	Categories handlers.CategoryService
	Warehouses *warehouse.Service
	Documents  handlers.DocumentService
	Engine     handlers.Transitioner
	Stock      handlers.StockReader
	Ledger     handlers.LedgerReader
	Dashboard  handlers.Dashboard

	// History serves GET /:id/history on documents when set
	History handlers.HistoryReader

	// IdempotencyStore backs the Idempotency-Key header on POST requests;
	// nil disables it
	IdempotencyStore middleware.KeyStore

	// Version is reported by /health/info
	Version string

	// Debug switches gin to debug mode
	Debug bool
}

// documentKinds maps each document collection to its kind.
var documentKinds = []struct {
	path string
	kind documents.Kind
}{
	{"/receipts", documents.KindReceipt},
	{"/deliveries", documents.KindDelivery},
	{"/transfers", documents.KindTransfer},
	{"/adjustments", documents.KindAdjustment},
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	registerHealthRoutes(router, cfg)

	v1 := router.Group("/api/v1")
	{
		registerAuthRoutes(v1, cfg)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))
		if cfg.IdempotencyStore != nil {
			protected.Use(middleware.Idempotency(cfg.IdempotencyStore))
		}

		registerCatalogRoutes(protected, cfg)
		registerDocumentRoutes(protected, cfg)
		registerStockRoutes(protected, cfg)
		registerDashboardRoutes(protected, cfg)
	}

	return router
}

func registerHealthRoutes(router *gin.Engine, cfg RouterConfig) {
	if cfg.Pool == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Pool, cfg.Version)
	router.GET("/health", healthHandler.Ready)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}
}

// registerAuthRoutes registers authentication endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}

	authHandler := handlers.NewAuthHandler(handlers.NewBaseHandler(), cfg.AuthService)

	publicAuth := rg.Group("/auth")

	protectedAuth := rg.Group("/auth")
	protectedAuth.Use(middleware.Auth(cfg.JWTValidator))

	authHandler.RegisterRoutes(publicAuth, protectedAuth)
}

// registerCatalogRoutes registers the product and warehouse endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()

	if cfg.Products != nil {
		productHandler := handlers.NewProductHandler(baseHandler, cfg.Products)
		// stock.Service serves both the stock routes and product figures
		if productStock, ok := cfg.Stock.(handlers.ProductStock); ok {
			productHandler.WithStock(productStock)
		}

		products := rg.Group("/products")
		RegisterCatalogRoutes(products, productHandler)
		if cfg.Categories != nil {
			RegisterCategoryRoutes(products, productHandler.WithCategories(cfg.Categories))
		}
	}
	if cfg.Warehouses != nil {
		RegisterCatalogRoutes(rg.Group("/warehouses"), handlers.NewWarehouseHandler(baseHandler, cfg.Warehouses))
	}
}

// registerDocumentRoutes registers one collection per document kind.
func registerDocumentRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Documents == nil || cfg.Engine == nil {
		return
	}

	baseHandler := handlers.NewBaseHandler()
	for _, dk := range documentKinds {
		handler := handlers.NewDocumentHandler(baseHandler, dk.kind, cfg.Documents, cfg.Engine)
		if cfg.History != nil {
			handler.WithHistory(cfg.History)
		}
		RegisterDocumentRoutes(rg.Group(dk.path), handler)
	}
}

// registerStockRoutes registers the stock table and ledger endpoints.
func registerStockRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Stock == nil || cfg.Ledger == nil {
		return
	}

	stockHandler := handlers.NewStockHandler(handlers.NewBaseHandler(), cfg.Stock, cfg.Ledger)

	stockGroup := rg.Group("/stock")
	{
		stockGroup.GET("", stockHandler.List)
		stockGroup.GET("/reconcile", stockHandler.Reconcile)
		stockGroup.GET("/:productId/:warehouseId", stockHandler.Get)
	}
	rg.GET("/ledger", stockHandler.Ledger)
}

// registerDashboardRoutes registers the dashboard endpoints.
func registerDashboardRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Dashboard == nil {
		return
	}

	dashboardHandler := handlers.NewDashboardHandler(handlers.NewBaseHandler(), cfg.Dashboard)

	dashboard := rg.Group("/dashboard")
	{
		dashboard.GET("/kpis", dashboardHandler.KPIs)
		dashboard.GET("/low-stock", dashboardHandler.LowStock)
		dashboard.GET("/recent-activities", dashboardHandler.RecentActivities)
	}
}
