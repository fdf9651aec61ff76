// Package main is the entry point for the facturador API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"facturador/internal/config"
	"facturador/internal/domain/auth"
	"facturador/internal/domain/catalogs/client"
	"facturador/internal/domain/catalogs/issuer"
	"facturador/internal/domain/documents/invoice"
	"facturador/internal/domain/documents/quote"
	v1 "facturador/internal/infrastructure/http/v1"
	"facturador/internal/infrastructure/http/v1/middleware"
	"facturador/internal/infrastructure/numerator"
	"facturador/internal/infrastructure/storage/postgres"
	"facturador/internal/infrastructure/storage/postgres/catalog_repo"
	"facturador/internal/infrastructure/storage/postgres/document_repo"
	"facturador/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development || cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting facturador server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.ConnectionString())
	poolCfg.MaxConns = cfg.DB.MaxConns
	poolCfg.MinConns = cfg.DB.MinConns

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalw("failed to ping database", "error", err)
	}
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	issuerRepo := catalog_repo.NewIssuerRepo(txManager)
	clientRepo := catalog_repo.NewClientRepo(txManager)
	invoiceRepo := document_repo.NewInvoiceRepo(txManager)
	quoteRepo := document_repo.NewQuoteRepo(txManager)

	// --- Services ---
	authority := numerator.NewService(txManager)
	issuerService := issuer.NewService(issuerRepo)
	clientService := client.NewService(clientRepo)
	invoiceService := invoice.NewService(invoiceRepo, issuerRepo, authority, txManager)
	quoteService := quote.NewService(quoteRepo, invoiceRepo, issuerRepo, authority, txManager)

	// --- Auth ---
	var jwtValidator middleware.JWTValidator
	if cfg.Auth.JWTSecret != "" {
		jwtConfig := auth.DefaultJWTConfig(cfg.Auth.JWTSecret)
		jwtConfig.AccessTokenTTL = cfg.Auth.TokenTTL
		jwtValidator = auth.NewJWTService(jwtConfig)
	} else {
		log.Warn("AUTH_JWT_SECRET not set, API authentication disabled")
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:           pool,
		Logger:         log,
		JWTValidator:   jwtValidator,
		IssuerService:  issuerService,
		ClientService:  clientService,
		InvoiceService: invoiceService,
		QuoteService:   quoteService,
		Development:    cfg.IsDevelopment(),
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
