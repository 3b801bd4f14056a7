// Package main is the entry point for the WealthDesk portfolio tracker.
// It wires configuration, databases, services and the HTTP server, starts
// the background jobs and handles graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/wealthdesk/wealthdesk/internal/clientdata"
	"github.com/wealthdesk/wealthdesk/internal/clients/alphavantage"
	"github.com/wealthdesk/wealthdesk/internal/config"
	"github.com/wealthdesk/wealthdesk/internal/database"
	"github.com/wealthdesk/wealthdesk/internal/events"
	"github.com/wealthdesk/wealthdesk/internal/modules/analytics"
	analyticshandlers "github.com/wealthdesk/wealthdesk/internal/modules/analytics/handlers"
	"github.com/wealthdesk/wealthdesk/internal/modules/auth"
	authhandlers "github.com/wealthdesk/wealthdesk/internal/modules/auth/handlers"
	"github.com/wealthdesk/wealthdesk/internal/modules/portfolio"
	portfoliohandlers "github.com/wealthdesk/wealthdesk/internal/modules/portfolio/handlers"
	"github.com/wealthdesk/wealthdesk/internal/modules/risk"
	riskhandlers "github.com/wealthdesk/wealthdesk/internal/modules/risk/handlers"
	"github.com/wealthdesk/wealthdesk/internal/scheduler"
	"github.com/wealthdesk/wealthdesk/internal/server"
	"github.com/wealthdesk/wealthdesk/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting WealthDesk")

	// Main database: users, portfolios, holdings, transaction log.
	// The ledger profile trades write speed for durability.
	mainDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "main.db"),
		Profile: database.ProfileLedger,
		Name:    "main",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open main database")
	}
	defer mainDB.Close()

	// Cache database: quote cache, rebuildable from the API at any time
	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	for _, db := range []*database.DB{mainDB, cacheDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", db.Name()).Msg("Migration failed")
		}
	}
	log.Info().Msg("Databases ready")

	eventBus := events.NewBus(log)

	cacheRepo := clientdata.NewRepository(cacheDB.Conn())
	oracle := alphavantage.NewClient(cfg.AlphaVantageAPIKey, cfg.AlphaVantageURL, cacheRepo, log)

	// Auth
	authService := auth.NewService(
		auth.NewUserRepository(mainDB.Conn(), log),
		auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry),
		log,
	)

	// Portfolio
	portfolioService := portfolio.NewService(
		mainDB,
		portfolio.NewPortfolioRepository(mainDB.Conn(), log),
		portfolio.NewHoldingRepository(mainDB.Conn(), log),
		portfolio.NewTransactionRepository(mainDB.Conn(), log),
		portfolio.NewValuator(oracle, cfg.ValuationWorkers, log),
		eventBus,
		log,
	)

	// Risk
	riskService := risk.NewService(
		risk.NewAssessmentRepository(mainDB.Conn(), log),
		auth.NewUserRepository(mainDB.Conn(), log),
		risk.NewLocalScorer(),
		eventBus,
		log,
	)

	// Analytics
	analyticsService := analytics.NewService(oracle, log)

	// Background jobs
	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.QuoteRefreshSpec, scheduler.NewRefreshQuotesJob(portfolioService, oracle, eventBus, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register quote refresh job")
	}
	if err := sched.AddJob("@hourly", scheduler.NewCleanupCacheJob(cacheRepo, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cache cleanup job")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Log:              log,
		Cfg:              cfg,
		MainDB:           mainDB,
		CacheDB:          cacheDB,
		EventBus:         eventBus,
		AuthService:      authService,
		AuthHandler:      authhandlers.NewHandler(authService, log),
		PortfolioHandler: portfoliohandlers.NewHandler(portfolioService, log),
		RiskHandler:      riskhandlers.NewHandler(riskService, log),
		AnalyticsHandler: analyticshandlers.NewHandler(analyticsService, log),
		SystemHandlers:   server.NewSystemHandlers(mainDB, cacheDB, oracle, log),
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("WealthDesk stopped")
}
