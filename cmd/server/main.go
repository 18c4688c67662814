// Package main is the entry point for the stock ledger API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockledger/internal/config"
	"stockledger/internal/domain/auth"
	"stockledger/internal/domain/catalogs/category"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/domain/catalogs/warehouse"
	"stockledger/internal/domain/documents"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/reports"
	"stockledger/internal/domain/stock"
	v1 "stockledger/internal/infrastructure/http/v1"
	"stockledger/internal/infrastructure/numerator"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/internal/infrastructure/storage/postgres/auth_repo"
	"stockledger/internal/infrastructure/storage/postgres/catalog_repo"
	"stockledger/internal/infrastructure/storage/postgres/document_repo"
	"stockledger/internal/infrastructure/storage/postgres/register_repo"
	"stockledger/internal/infrastructure/storage/postgres/report_repo"
	"stockledger/pkg/logger"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()
	log.Infow("starting stockledger server", "version", version, "adjustment_mode", cfg.Ledger.AdjustmentMode)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DB.ConnectionString())
	poolCfg.MaxConns = cfg.DB.MaxConns
	poolCfg.MinConns = cfg.DB.MinConns
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	if cfg.DB.Migrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatalw("failed to migrate database", "error", err)
		}
	}

	txManager := postgres.NewTxManager(pool, cfg.DB.StatementTimeout)

	routerCfg, err := wire(cfg, pool, txManager)
	if err != nil {
		log.Fatalw("failed to wire services", "error", err)
	}
	routerCfg.Logger = log

	router := v1.NewRouter(routerCfg)

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// wire builds repositories, services and the ledger engine.
func wire(cfg *config.Config, pool *postgres.Pool, txManager *postgres.TxManager) (v1.RouterConfig, error) {
	publisher := postgres.NewOutboxPublisher(txManager)
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		return v1.RouterConfig{}, err
	}

	numbers := numerator.NewWithSource(func(ctx context.Context) numerator.Querier {
		return txManager.GetQuerier(ctx)
	})

	productRepo := catalog_repo.NewProductRepo(txManager)
	warehouseRepo := catalog_repo.NewWarehouseRepo(txManager)
	documentRepo := document_repo.NewDocumentRepo(txManager)
	stockRepo := register_repo.NewStockRepo(txManager)
	ledgerRepo := register_repo.NewLedgerRepo(txManager)

	docService := documents.NewService(documents.Config{
		Repo:      documentRepo,
		Refs:      catalog_repo.NewReferences(productRepo, warehouseRepo),
		Stock:     stockRepo,
		Numerator: numbers,
		TxManager: txManager,
		Publisher: publisher,
		Audit:     auditService,
	})

	engine := ledger.NewEngine(ledger.Config{
		Documents: documentRepo,
		Stock:     stockRepo,
		Ledger:    ledgerRepo,
		TxManager: txManager,
		Publisher: publisher,
		Audit:     auditService,
		Mode:      ledger.AdjustmentMode(cfg.Ledger.AdjustmentMode),
	})

	rule, err := reports.CompileLowStockRule(cfg.Ledger.LowStockRule)
	if err != nil {
		return v1.RouterConfig{}, err
	}

	jwtConfig := auth.DefaultJWTConfig(cfg.JWT.Secret)
	if cfg.JWT.Issuer != "" {
		jwtConfig.Issuer = cfg.JWT.Issuer
	}
	if cfg.JWT.TTL > 0 {
		jwtConfig.AccessTokenTTL = cfg.JWT.TTL
	}
	jwtService := auth.NewJWTService(jwtConfig)
	authService := auth.NewService(auth_repo.NewUserRepo(txManager), txManager, jwtService, auth.DefaultServiceConfig())

	routerCfg := v1.RouterConfig{
		Pool:         pool,
		JWTValidator: jwtService,
		AuthService:  authService,
		Products:     product.NewService(productRepo, txManager, ledger.NewOpeningStock(docService, engine)),
		Categories:   category.NewService(catalog_repo.NewCategoryRepo(txManager)),
		Warehouses:   warehouse.NewService(warehouseRepo, txManager),
		Documents:    docService,
		Engine:       engine,
		Stock:        stock.NewService(stockRepo),
		Ledger:       engine,
		Dashboard:    reports.NewService(report_repo.NewReportRepo(txManager), ledgerRepo, rule),
		History:      auditService,
		Version:      version,
		Debug:        cfg.App.IsDevelopment(),
	}
	if cfg.HTTP.Idempotency {
		routerCfg.IdempotencyStore = postgres.NewIdempotencyStore(txManager, cfg.HTTP.IdempotencyTTL)
	}
	return routerCfg, nil
}
