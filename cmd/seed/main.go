// Package main provides a CLI tool for seeding the database with a demo catalog.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"billing/internal/config"
	"billing/internal/core/apperror"
	"billing/internal/core/types"
	"billing/internal/domain/alert"
	"billing/internal/domain/auth"
	"billing/internal/domain/company"
	"billing/internal/domain/product"
	"billing/internal/domain/stock"
	"billing/internal/domain/units"
	"billing/internal/infrastructure/storage/postgres"
	"billing/internal/infrastructure/storage/postgres/auth_repo"
	"billing/internal/infrastructure/storage/postgres/company_repo"
	"billing/internal/infrastructure/storage/postgres/product_repo"
	"billing/internal/infrastructure/storage/postgres/stock_repo"
	"billing/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load configuration", "error", err)
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool)
	if err := postgres.Migrate(ctx, txm); err != nil {
		log.Fatalw("failed to apply migrations", "error", err)
	}
	log.Info("connected to database")

	authService := auth.NewService(
		auth_repo.NewCredentialRepo(txm),
		txm,
		auth.NewJWTService(auth.DefaultJWTConfig(cfg.JWTSecret)),
		auth.DefaultServiceConfig(),
	)
	if err := authService.EnsureDefaultAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalw("failed to seed admin credential", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") != "true" {
		log.Info("SEED_DEMO_DATA not set, only the admin credential was ensured")
		return
	}

	rule, err := alert.Compile(cfg.LowStockRule)
	if err != nil {
		log.Fatalw("invalid low stock rule", "error", err)
	}
	ledger := stock.NewLedger(stock_repo.NewLedgerRepo(txm), stock_repo.NewHistoryRepo(txm), txm)
	products := product.NewService(product_repo.NewProductRepo(txm), ledger, txm, rule)

	if err := seedProducts(ctx, products, log); err != nil {
		log.Fatalw("failed to seed products", "error", err)
	}
	if err := seedCompany(ctx, company.NewService(company_repo.NewCompanyRepo(txm)), log); err != nil {
		log.Fatalw("failed to seed company", "error", err)
	}

	log.Info("seeding completed successfully")
}

func seedProducts(ctx context.Context, svc *product.Service, log *logger.Logger) error {
	manufactured := time.Now().AddDate(0, -1, 0)
	expires := manufactured.AddDate(1, 0, 0)

	demo := []product.CreateInput{
		{
			Code:           "RICE-001",
			Name:           "Basmati Rice",
			Category:       "Grocery",
			Brand:          "Sharma Farms",
			MRP:            types.MustMoney("120"),
			SellerPrice:    types.MustMoney("90"),
			GSTCategory:    product.GSTCategoryNonGST,
			BaseUnit:       units.Kilogram,
			ConversionRate: decimal.NewFromInt(1),
			StockQuantity:  types.MustQuantity("50"),
			LowStockAlert:  types.MustQuantity("10"),
			SupplierName:   "Sharma Traders",
			BatchNumber:    "B-2024-01",
		},
		{
			Code:            "OIL-001",
			Name:            "Sunflower Oil",
			Category:        "Grocery",
			Brand:           "Sunrise",
			MRP:             types.MustMoney("180"),
			SellerPrice:     types.MustMoney("150"),
			GSTRate:         decimal.NewFromInt(5),
			GSTCategory:     product.GSTCategoryGST,
			BaseUnit:        units.Liter,
			ConversionRate:  decimal.NewFromInt(1),
			StockQuantity:   types.MustQuantity("20"),
			LowStockAlert:   types.MustQuantity("5"),
			SupplierName:    "Sunrise Distributors",
			BatchNumber:     "SO-17",
			ManufactureDate: &manufactured,
			ExpiryDate:      &expires,
		},
		{
			Code:           "SOAP-001",
			Name:           "Neem Soap",
			Category:       "Personal Care",
			Brand:          "Herbal",
			MRP:            types.MustMoney("40"),
			SellerPrice:    types.MustMoney("28"),
			GSTRate:        decimal.NewFromInt(18),
			GSTCategory:    product.GSTCategoryGST,
			BaseUnit:       units.Piece,
			SecondaryUnit:  units.Box,
			ConversionRate: decimal.NewFromInt(12),
			StockQuantity:  types.MustQuantity("144"),
			LowStockAlert:  types.MustQuantity("24"),
			SupplierName:   "Sunrise Distributors",
			BatchNumber:    "SO-17",
		},
	}

	for _, in := range demo {
		p, err := svc.Create(ctx, in)
		if apperror.HasCode(err, apperror.CodeDuplicate) {
			log.Infow("product already exists", "code", in.Code)
			continue
		}
		if err != nil {
			return fmt.Errorf("create %s: %w", in.Code, err)
		}
		log.Infow("product created", "code", p.Code, "stock", p.StockQuantity.String())
	}
	return nil
}

func seedCompany(ctx context.Context, svc *company.Service, log *logger.Logger) error {
	existing, err := svc.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Infow("company already registered", "count", len(existing))
		return nil
	}

	c, err := svc.Register(ctx, company.Company{
		BusinessName:     "Demo General Store",
		Email:            "owner@demo-store.example",
		PhoneNumber:      "9800000000",
		GSTIN:            "27aapfu0939f1zv",
		BusinessType:     "Retail",
		BusinessCategory: "Grocery",
		State:            "Maharashtra",
		Pincode:          "411001",
		Address:          "12 Market Road, Pune",
	})
	if err != nil {
		return err
	}
	log.Infow("company registered", "id", c.ID, "gstin", c.GSTIN)
	return nil
}
