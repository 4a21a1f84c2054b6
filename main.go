package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	database "github.com/wanderplan/wanderplan/app/db"
	appLogger "github.com/wanderplan/wanderplan/app/logger"
	"github.com/wanderplan/wanderplan/app/observability/metrics"
	"github.com/wanderplan/wanderplan/app/tracer"
	"github.com/wanderplan/wanderplan/config"
	"github.com/wanderplan/wanderplan/internal/api/discovery"
	generativeAI "github.com/wanderplan/wanderplan/internal/api/generative_ai"
	"github.com/wanderplan/wanderplan/internal/api/planner"
	"github.com/wanderplan/wanderplan/internal/api/research"
	"github.com/wanderplan/wanderplan/internal/api/synthesis"
	"github.com/wanderplan/wanderplan/internal/router"
)

func main() {
	// Use standard log until slog is configured, in case godotenv fails
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	logger := setupLogger(cfg.Mode)
	slog.SetDefault(logger)

	tracer.InitTracingAndMetrics(cfg.Handlers.Prometheus.Port)
	metrics.InitAppMetrics()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Persistence (optional) ---
	// Plan history is best effort; without a configured Postgres host the
	// service runs stateless.
	var planRepo planner.Repository
	if cfg.Repositories.Postgres.Host != "" {
		dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
		if err != nil {
			logger.Error("Failed to generate database config", slog.Any("error", err))
			os.Exit(1)
		}

		if err := database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
			logger.Error("Failed to run database migrations", slog.Any("error", err))
			os.Exit(1)
		}

		pool, err := database.Init(dbConfig.ConnectionURL, logger)
		if err != nil {
			logger.Error("Failed to initialize database pool", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()

		if !database.WaitForDB(ctx, pool, logger) {
			logger.Error("Database not ready after waiting, exiting.")
			os.Exit(1)
		}
		planRepo = planner.NewRepository(pool, logger)
	} else {
		logger.Warn("No Postgres host configured, plan history is disabled")
	}

	// --- Outbound clients ---
	tavilyClient, err := research.NewTavilyClient(
		cfg.Planner.TavilyBaseURL, os.Getenv("TAVILY_API_KEY"),
		cfg.Planner.ClientTimeout, cfg.Planner.ClientRPS)
	if err != nil {
		logger.Error("Failed to create Tavily client", slog.Any("error", err))
		os.Exit(1)
	}

	placesClient, err := discovery.NewPlacesClient(
		cfg.Planner.PlacesBaseURL, os.Getenv("GOOGLE_PLACES_API_KEY"),
		cfg.Planner.ClientTimeout, cfg.Planner.ClientRPS)
	if err != nil {
		logger.Error("Failed to create Places client", slog.Any("error", err))
		os.Exit(1)
	}

	aiClient, err := generativeAI.NewAIClient(ctx, cfg.Planner.GeminiModel)
	if err != nil {
		logger.Error("Failed to create Gemini client", slog.Any("error", err))
		os.Exit(1)
	}

	// --- Services and handlers ---
	researchService := research.NewServiceImpl(tavilyClient, cfg.Planner.ResearchCacheTTL, logger)
	discoveryService := discovery.NewServiceImpl(placesClient, cfg.Planner.MaxResultsPerCategory, logger)
	synthesisService := synthesis.NewServiceImpl(aiClient, logger)
	plannerService := planner.NewServiceImpl(researchService, discoveryService, synthesisService, planRepo, logger)
	plannerHandler := planner.NewPlannerHandler(plannerService, metrics.Get(), logger)

	routerConfig := &router.Config{
		PlannerHandler: plannerHandler,
	}
	mainRouter := router.SetupRouter(routerConfig)

	mux := chi.NewMux()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(appLogger.StructuredLogger(logger))
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.StripSlashes)
	mux.Use(middleware.Timeout(cfg.Server.Timeout))
	mux.Use(middleware.Compress(5, "application/json"))
	mux.Mount("/", mainRouter)

	srv := &http.Server{
		Addr:         cfg.Server.HTTPPort,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("address", srv.Addr))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server ListenAndServe error", slog.Any("error", err))
			cancel()
		}
	}()

	<-ctx.Done()

	logger.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
	} else {
		logger.Info("HTTP server gracefully stopped")
	}

	logger.Info("Application shut down complete.")
}

// setupLogger configures and returns the application logger.
func setupLogger(mode string) *slog.Logger {
	var logger *slog.Logger
	if env := os.Getenv("APP_ENV"); env != "" {
		mode = env
	}

	if mode == "development" || mode == "" {
		// Colored logs for development
		tintOpts := &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}
		logger = slog.New(tint.NewHandler(os.Stdout, tintOpts))
		log.Println("Initialized development logger (tint)")
	} else {
		// JSON logs for production or other environments
		jsonOpts := &slog.HandlerOptions{
			Level:     slog.LevelInfo,
			AddSource: false,
		}
		logger = slog.New(slog.NewJSONHandler(os.Stdout, jsonOpts))
		log.Println("Initialized production logger (JSON)")
	}
	return logger
}
