// Package main is the entry point for the billing API server.
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

	"billing/internal/config"
	"billing/internal/domain/alert"
	"billing/internal/domain/auth"
	"billing/internal/domain/company"
	"billing/internal/domain/expense"
	"billing/internal/domain/payment"
	"billing/internal/domain/product"
	"billing/internal/domain/sellerbill"
	"billing/internal/domain/stock"
	"billing/internal/infrastructure/filestore"
	v1 "billing/internal/infrastructure/http/v1"
	"billing/internal/infrastructure/http/v1/handlers"
	"billing/internal/infrastructure/metrics"
	"billing/internal/infrastructure/storage/postgres"
	"billing/internal/infrastructure/storage/postgres/auth_repo"
	"billing/internal/infrastructure/storage/postgres/company_repo"
	"billing/internal/infrastructure/storage/postgres/product_repo"
	"billing/internal/infrastructure/storage/postgres/sellerbill_repo"
	"billing/internal/infrastructure/storage/postgres/stock_repo"
	"billing/internal/infrastructure/storage/redis"
	"billing/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Env == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	log.Infow("starting billing server", "env", cfg.Env)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = cfg.DBMaxConns
	if poolCfg.MinConns > poolCfg.MaxConns {
		poolCfg.MinConns = poolCfg.MaxConns
	}
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool)
	if err := postgres.Migrate(ctx, txm); err != nil {
		log.Fatalw("failed to apply migrations", "error", err)
	}
	log.Info("database ready")

	m := metrics.New("billing")
	m.RegisterPool("billing", pool)

	statsCtx, stopStats := context.WithCancel(ctx)
	defer stopStats()
	go logPoolStats(statsCtx, pool, poolStatsInterval)

	// --- Domain services ---
	ledger := stock.NewLedger(
		stock_repo.NewLedgerRepo(txm),
		stock_repo.NewHistoryRepo(txm),
		txm,
		stock.WithObserver(m),
	)

	lowStock, err := alert.Compile(cfg.LowStockRule)
	if err != nil {
		log.Fatalw("invalid low stock rule", "rule", cfg.LowStockRule, "error", err)
	}
	productService := product.NewService(product_repo.NewProductRepo(txm), ledger, txm, lowStock)
	expenseService := expense.NewService(product_repo.NewExpenseSource(txm))

	healthChecks := map[string]handlers.Pinger{"database": pool}

	var paymentStore payment.Store
	if cfg.RedisURL != "" {
		client, err := redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalw("failed to connect to redis", "error", err)
		}
		defer client.Close()
		paymentStore = redis.NewPaymentStore(client)
		healthChecks["redis"] = handlers.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		log.Info("payment statuses stored in redis")
	} else {
		paymentStore = payment.NewMemoryStore()
		log.Warn("REDIS_URL not set, payment statuses are kept in memory")
	}
	tracker := payment.NewTracker(paymentStore, expenseService, m)

	jwtCfg := auth.DefaultJWTConfig(cfg.JWTSecret)
	jwtCfg.AccessTokenTTL = cfg.JWTTTL
	jwtService := auth.NewJWTService(jwtCfg)
	authService := auth.NewService(auth_repo.NewCredentialRepo(txm), txm, jwtService, auth.DefaultServiceConfig())
	if err := authService.EnsureDefaultAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalw("failed to seed admin credential", "error", err)
	}

	files, err := filestore.New(cfg.BillsDir, sellerbill.TypeGST.Dir(), sellerbill.TypeNonGST.Dir())
	if err != nil {
		log.Fatalw("failed to prepare bill storage", "dir", cfg.BillsDir, "error", err)
	}
	billService := sellerbill.NewService(sellerbill_repo.NewBillRepo(txm), files, cfg.BillMaxBytes)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:            log,
		JWTValidator:      jwtService,
		AuthService:       authService,
		ProductService:    productService,
		ExpenseService:    expenseService,
		PaymentTracker:    tracker,
		CompanyService:    company.NewService(company_repo.NewCompanyRepo(txm)),
		SellerBillService: billService,
		BillMaxBytes:      cfg.BillMaxBytes,
		HealthChecks:      healthChecks,
		Metrics:           m,
		MetricsHandler:    m.Handler(),
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

const poolStatsInterval = 5 * time.Minute

// logPoolStats logs connection pool usage every interval until ctx is done.
func logPoolStats(ctx context.Context, pool *postgres.Pool, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pool.LogStats(ctx)
		}
	}
}
