// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"facturador/internal/domain/catalogs/client"
	"facturador/internal/domain/catalogs/issuer"
	"facturador/internal/domain/documents/invoice"
	"facturador/internal/domain/documents/quote"
	"facturador/internal/infrastructure/http/v1/handlers"
	"facturador/internal/infrastructure/http/v1/middleware"
	"facturador/internal/infrastructure/storage/postgres"
	"facturador/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Pool   *postgres.Pool
	Logger *logger.Logger

	// JWTValidator for token validation. Nil disables authentication
	// (development only).
	JWTValidator middleware.JWTValidator

	IssuerService  *issuer.Service
	ClientService  *client.Service
	InvoiceService *invoice.Service
	QuoteService   *quote.Service

	Development bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1
	api := router.Group("/api/v1")
	if cfg.JWTValidator != nil {
		api.Use(middleware.Auth(cfg.JWTValidator))
	}

	base := handlers.NewBaseHandler()

	issuerHandler := handlers.NewIssuerHandler(base, cfg.IssuerService)
	issuers := api.Group("/issuers")
	{
		issuers.POST("", issuerHandler.Create)
		issuers.GET("", issuerHandler.List)
		issuers.GET("/:id", issuerHandler.Get)
		issuers.PUT("/:id", issuerHandler.Update)
		issuers.DELETE("/:id", issuerHandler.Delete)
	}

	clientHandler := handlers.NewClientHandler(base, cfg.ClientService)
	clients := api.Group("/clients")
	{
		clients.POST("", clientHandler.Create)
		clients.GET("", clientHandler.List)
		clients.GET("/:id", clientHandler.Get)
		clients.PUT("/:id", clientHandler.Update)
		clients.DELETE("/:id", clientHandler.Delete)
	}

	invoiceHandler := handlers.NewInvoiceHandler(base, cfg.InvoiceService)
	invoices := api.Group("/invoices")
	{
		invoices.POST("", invoiceHandler.Create)
		invoices.GET("", invoiceHandler.List)
		invoices.GET("/:id", invoiceHandler.Get)
		invoices.PUT("/:id", invoiceHandler.Update)
		invoices.DELETE("/:id", invoiceHandler.Delete)
		invoices.POST("/:id/issue", invoiceHandler.Issue)
		invoices.POST("/:id/status", invoiceHandler.ChangeStatus)
	}

	quoteHandler := handlers.NewQuoteHandler(base, cfg.QuoteService)
	quotes := api.Group("/quotes")
	{
		quotes.POST("", quoteHandler.Create)
		quotes.GET("", quoteHandler.List)
		quotes.GET("/:id", quoteHandler.Get)
		quotes.PUT("/:id", quoteHandler.Update)
		quotes.DELETE("/:id", quoteHandler.Delete)
		quotes.POST("/:id/issue", quoteHandler.Issue)
		quotes.POST("/:id/status", quoteHandler.ChangeStatus)
		quotes.POST("/:id/convert", quoteHandler.Convert)
	}

	return router
}
