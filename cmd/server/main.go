package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aristath/allocator/internal/config"
	"github.com/aristath/allocator/internal/database"
	"github.com/aristath/allocator/internal/modules/backtest"
	"github.com/aristath/allocator/internal/modules/charts"
	"github.com/aristath/allocator/internal/modules/optimization"
	"github.com/aristath/allocator/internal/modules/returns"
	"github.com/aristath/allocator/internal/scheduler"
	"github.com/aristath/allocator/internal/server"
	"github.com/aristath/allocator/pkg/logger"
)

func main() {
	// Load configuration first so the logger honors LOG_LEVEL
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info", Pretty: true})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting allocator")

	// Initialize databases
	historyDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "history.db"),
		Profile: database.ProfileStandard,
		Name:    "history",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer historyDB.Close()

	runsDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "runs.db"),
		Profile: database.ProfileStandard,
		Name:    "runs",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open runs database")
	}
	defer runsDB.Close()

	// Initialize repositories
	priceRepo, err := returns.NewRepository(historyDB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize price repository")
	}
	runRepo, err := optimization.NewRunRepository(runsDB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize run repository")
	}

	// Optional CSV import on startup
	if cfg.PricesCSV != "" {
		table, err := returns.LoadCSVFile(cfg.PricesCSV)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.PricesCSV).Msg("Failed to load price CSV")
		}
		if err := priceRepo.SaveTable(table); err != nil {
			log.Fatal().Err(err).Msg("Failed to import price CSV")
		}
		log.Info().
			Str("path", cfg.PricesCSV).
			Int("symbols", len(table.Symbols)).
			Int("days", len(table.Dates)).
			Msg("Imported price history")
	}

	// Initialize services
	optCfg := optimization.Config{
		RiskFreeRate:       cfg.RiskFreeRate,
		TradingDaysPerYear: cfg.TradingDaysPerYear,
	}
	optService := optimization.NewService(
		priceRepo,
		runRepo,
		optimization.NewSharpeOptimizer(optCfg, log),
		optCfg,
		log,
	)
	backtestService := backtest.NewService(backtest.Config{
		RiskFreeRate:       cfg.RiskFreeRate,
		TradingDaysPerYear: cfg.TradingDaysPerYear,
		SmoothingWindow:    20,
	}, log)
	chartsService := charts.NewService(log)

	// Initialize scheduler
	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.ReoptimizeSchedule, scheduler.NewReoptimizeJob(optService, log)); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.ReoptimizeSchedule).Msg("Failed to register re-optimization job")
	}
	sched.Start()
	defer sched.Stop()

	// Initialize HTTP server
	srv := server.New(server.Config{
		Log:                 log,
		Config:              cfg,
		OptimizationService: optService,
		BacktestService:     backtestService,
		ChartsService:       chartsService,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
