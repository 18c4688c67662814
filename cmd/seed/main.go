// Package main provides a CLI tool for seeding the database with an admin
// account and optional demo data.
package main

import (
	"context"
	"fmt"
	"os"

	"stockledger/internal/config"
	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/auth"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/domain/catalogs/warehouse"
	"stockledger/internal/domain/documents"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/infrastructure/numerator"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/internal/infrastructure/storage/postgres/auth_repo"
	"stockledger/internal/infrastructure/storage/postgres/catalog_repo"
	"stockledger/internal/infrastructure/storage/postgres/document_repo"
	"stockledger/internal/infrastructure/storage/postgres/register_repo"
	"stockledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := logger.WithLogger(context.Background(), log)

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DB.ConnectionString()))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatalw("failed to migrate database", "error", err)
	}

	txManager := postgres.NewTxManager(pool, cfg.DB.StatementTimeout)
	s := newSeeder(cfg, txManager, log)

	admin, err := s.seedAdmin(ctx)
	if err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		ctx = appctx.WithUser(ctx, &appctx.UserContext{
			UserID:  admin.ID.String(),
			LoginID: admin.LoginID,
			Email:   admin.Email,
		})
		if err := s.seedDemoData(ctx); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

type seeder struct {
	users      *auth.Service
	userRepo   *auth_repo.UserRepo
	warehouses *warehouse.Service
	products   *product.Service
	log        *logger.Logger
}

func newSeeder(cfg *config.Config, txManager *postgres.TxManager, log *logger.Logger) *seeder {
	productRepo := catalog_repo.NewProductRepo(txManager)
	warehouseRepo := catalog_repo.NewWarehouseRepo(txManager)
	documentRepo := document_repo.NewDocumentRepo(txManager)
	stockRepo := register_repo.NewStockRepo(txManager)

	docs := documents.NewService(documents.Config{
		Repo:      documentRepo,
		Refs:      catalog_repo.NewReferences(productRepo, warehouseRepo),
		Stock:     stockRepo,
		Numerator: numerator.NewWithSource(func(ctx context.Context) numerator.Querier { return txManager.GetQuerier(ctx) }),
		TxManager: txManager,
		Publisher: postgres.NewOutboxPublisher(txManager),
	})
	engine := ledger.NewEngine(ledger.Config{
		Documents: documentRepo,
		Stock:     stockRepo,
		Ledger:    register_repo.NewLedgerRepo(txManager),
		TxManager: txManager,
		Publisher: postgres.NewOutboxPublisher(txManager),
		Mode:      ledger.AdjustmentMode(cfg.Ledger.AdjustmentMode),
	})

	userRepo := auth_repo.NewUserRepo(txManager)
	return &seeder{
		users:      auth.NewService(userRepo, txManager, auth.NewJWTService(auth.DefaultJWTConfig(cfg.JWT.Secret)), auth.DefaultServiceConfig()),
		userRepo:   userRepo,
		warehouses: warehouse.NewService(warehouseRepo, txManager),
		products:   product.NewService(productRepo, txManager, ledger.NewOpeningStock(docs, engine)),
		log:        log,
	}
}

func (s *seeder) seedAdmin(ctx context.Context) (*auth.User, error) {
	email := envOr("ADMIN_EMAIL", "admin@stockledger.local")
	login := envOr("ADMIN_LOGIN", "admin1")

	user, err := s.users.Signup(ctx, auth.SignupRequest{
		LoginID:  login,
		Email:    email,
		Password: envOr("ADMIN_PASSWORD", "Admin123!"),
		FullName: "System Admin",
	})
	if apperror.HasCode(err, apperror.CodeDuplicate) {
		existing, findErr := s.userRepo.GetByLogin(ctx, login)
		if findErr != nil {
			return nil, fmt.Errorf("find existing admin: %w", findErr)
		}
		s.log.Infow("admin user already exists", "login_id", login, "user_id", existing.ID)
		return existing, nil
	}
	if err != nil {
		return nil, err
	}

	s.log.Infow("admin user created", "login_id", login, "email", email, "user_id", user.ID)
	return user, nil
}

func (s *seeder) seedDemoData(ctx context.Context) error {
	s.log.Info("seeding demo data...")

	warehouses := []struct {
		code, name, location string
	}{
		{"WH-MAIN", "Main Warehouse", "Dock 1, Industrial Park"},
		{"WH-STORE", "Retail Store", "12 Market Street"},
		{"WH-TRANSIT", "Transit Hub", "Virtual"},
	}

	warehouseIDs := make(map[string]id.ID, len(warehouses))
	for _, w := range warehouses {
		wh := warehouse.NewWarehouse(w.code, w.name)
		wh.Location = w.location

		err := s.warehouses.Create(ctx, wh)
		if apperror.HasCode(err, apperror.CodeDuplicate) {
			existing, getErr := s.warehouses.GetByKey(ctx, w.code)
			if getErr != nil {
				return fmt.Errorf("get warehouse %s: %w", w.code, getErr)
			}
			warehouseIDs[w.code] = existing.ID
			continue
		}
		if err != nil {
			return fmt.Errorf("create warehouse %s: %w", w.code, err)
		}
		warehouseIDs[w.code] = wh.ID
	}

	products := []struct {
		sku, name, category, uom string
		reorder, opening         int64
	}{
		{"PAP-A4", "Office paper A4", "Stationery", "pack", 20, 120},
		{"PEN-BLU", "Ballpoint pen, blue", "Stationery", "pcs", 50, 400},
		{"STP-001", "Desk stapler", "Office equipment", "pcs", 5, 12},
		{"CLP-028", "Paper clips 28mm", "Stationery", "box", 10, 8},
		{"FOL-REG", "Lever arch file", "Stationery", "pcs", 15, 0},
	}

	mainID := warehouseIDs["WH-MAIN"]
	for _, p := range products {
		prod := product.NewProduct(p.sku, p.name)
		category := p.category
		prod.Category = &category
		prod.UnitOfMeasure = p.uom
		prod.ReorderLevel = p.reorder

		err := s.products.CreateWithStock(ctx, prod, &product.InitialStock{WarehouseID: mainID, Quantity: p.opening})
		if apperror.HasCode(err, apperror.CodeDuplicate) {
			s.log.Infow("product already exists", "sku", p.sku)
			continue
		}
		if err != nil {
			return fmt.Errorf("create product %s: %w", p.sku, err)
		}
		s.log.Infow("product seeded", "sku", p.sku, "opening_stock", p.opening)
	}

	s.log.Info("demo data seeded successfully")
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
