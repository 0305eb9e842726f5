// Package v1 provides HTTP API version 1.
package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"billing/internal/core/apperror"
	"billing/internal/domain/auth"
	"billing/internal/domain/company"
	"billing/internal/domain/expense"
	"billing/internal/domain/payment"
	"billing/internal/domain/product"
	"billing/internal/domain/sellerbill"
	"billing/internal/infrastructure/http/v1/handlers"
	"billing/internal/infrastructure/http/v1/middleware"
	"billing/pkg/logger"
)

// RouterConfig holds the dependencies of the API.
type RouterConfig struct {
	Logger       *logger.Logger
	JWTValidator middleware.JWTValidator

	AuthService       *auth.Service
	ProductService    *product.Service
	ExpenseService    *expense.Service
	PaymentTracker    *payment.Tracker
	CompanyService    *company.Service
	SellerBillService *sellerbill.Service
	BillMaxBytes      int64

	// HealthChecks are pinged by /health/ready.
	HealthChecks map[string]handlers.Pinger

	// Metrics is optional; nil disables request metrics and /metrics.
	Metrics        middleware.HTTPRecorder
	MetricsHandler http.Handler
}

// NewRouter builds the gin engine.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// ErrorHandler wraps Recovery so recovered panics are rendered too.
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	if cfg.Metrics != nil {
		router.Use(middleware.Metrics(cfg.Metrics))
	}
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	health := handlers.NewHealthHandler(cfg.HealthChecks)
	router.GET("/health/live", health.Live)
	router.GET("/health/ready", health.Ready)
	if cfg.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	base := handlers.NewBaseHandler()

	// Every API route attaches the caller when a token is sent, so stock
	// history records who made a change.
	api := router.Group("/api/v1", middleware.OptionalAuth(cfg.JWTValidator))
	protected := api.Group("", middleware.Auth(cfg.JWTValidator))

	handlers.NewAuthHandler(base, cfg.AuthService).RegisterRoutes(api, protected)

	expenses := handlers.NewExpenseHandler(base, cfg.ExpenseService, cfg.PaymentTracker)
	handlers.NewProductHandler(base, cfg.ProductService).RegisterRoutes(api.Group("/products"), expenses)
	handlers.NewPaymentHandler(base, cfg.PaymentTracker).RegisterRoutes(api.Group("/payments"))
	handlers.NewCompanyHandler(base, cfg.CompanyService).RegisterRoutes(api.Group("/companies"))
	handlers.NewSellerBillHandler(base, cfg.SellerBillService, cfg.BillMaxBytes).RegisterRoutes(api.Group("/seller-bills"))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": apperror.CodeNotFound, "message": "route not found"})
	})
	return router
}
