package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/FACorreiaa/household-budget/internal/domain/categorization"
	"github.com/FACorreiaa/household-budget/internal/domain/import/categorizer"
	"github.com/FACorreiaa/household-budget/internal/domain/import/classifier"
	"github.com/FACorreiaa/household-budget/internal/domain/import/dedup"
	"github.com/FACorreiaa/household-budget/internal/domain/import/extractor"
	importhandler "github.com/FACorreiaa/household-budget/internal/domain/import/handler"
	"github.com/FACorreiaa/household-budget/internal/domain/import/parser"
	importrepo "github.com/FACorreiaa/household-budget/internal/domain/import/repository"
	importservice "github.com/FACorreiaa/household-budget/internal/domain/import/service"

	"github.com/FACorreiaa/household-budget/pkg/config"
	"github.com/FACorreiaa/household-budget/pkg/cron"
	"github.com/FACorreiaa/household-budget/pkg/db"
	"github.com/FACorreiaa/household-budget/pkg/interceptors"
	"github.com/FACorreiaa/household-budget/pkg/llm"
	"github.com/FACorreiaa/household-budget/pkg/metrics"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config  *config.Config
	DB      *db.DB
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// Repositories
	ImportRepo         *importrepo.Repository
	CategorizationRepo *categorization.Repository

	// Services
	CategorizationService *categorization.Service
	Classifier            *classifier.Classifier
	Generator             llm.Generator
	ImportService         *importservice.ImportService
	RateLimiter           *interceptors.RateLimiter
	Scheduler             *cron.Scheduler

	// Handlers
	ImportHandler *importhandler.ImportHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	}

	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := deps.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	if err := deps.initServices(ctx); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	if err := deps.initHandlers(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init handlers: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        int32(d.Config.Database.MaxConns),
		MinConns:        int32(d.Config.Database.MinConns),
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		d.DB.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initRepositories initializes all repository layer dependencies
func (d *Dependencies) initRepositories() error {
	d.ImportRepo = importrepo.NewRepository(d.DB.Pool, d.Logger)
	d.CategorizationRepo = categorization.NewRepository(d.DB.Pool)

	d.Logger.Info("repositories initialized")
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices(ctx context.Context) error {
	importCfg := d.Config.Import

	d.CategorizationService = categorization.NewService(d.CategorizationRepo, importCfg.MappingLookback, d.Logger)
	d.Classifier = classifier.New()

	gen, err := newCategorizationGenerator(ctx, d.Config.Gemini, importCfg.ModelCallTimeout, d.Metrics, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to init model client: %w", err)
	}
	d.Generator = gen

	detector := dedup.New(d.ImportRepo, d.Logger).
		WithWindow(importCfg.DedupWindowDays).
		WithSuspectDays(importCfg.SuspectDays)

	cat := categorizer.New(gen, categorizer.Options{
		BatchSize:       importCfg.BatchSize,
		ExampleMappings: importCfg.ExampleMappings,
	}, d.Logger, d.Metrics)

	d.ImportService = importservice.NewImportService(
		d.ImportRepo,
		d.CategorizationService,
		parser.New(d.Classifier, d.Logger),
		d.Classifier,
		detector,
		cat,
		extractor.New(gen, d.Logger),
		d.Logger,
		importservice.Options{MaxUploadBytes: importCfg.MaxUploadBytes},
	).WithRecorder(d.Metrics)

	d.RateLimiter = interceptors.NewRateLimiter(d.Config.Server.RateLimitPerSecond, d.Config.Server.RateLimitBurst)
	d.Scheduler = cron.NewScheduler(d.DB, d.Metrics, d.Logger).WithLimiterSweep(d.RateLimiter)

	d.Logger.Info("services initialized", slog.Bool("ai_enabled", gen != nil))
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() error {
	d.ImportHandler = importhandler.NewImportHandler(d.ImportService, d.Logger)

	d.Logger.Info("handlers initialized")
	return nil
}

// Router builds the API handler with the middleware chain applied.
func (d *Dependencies) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", d.healthz)
	d.ImportHandler.Register(mux)

	return interceptors.Chain(mux,
		interceptors.Recovery(d.Logger),
		interceptors.Logging(d.Logger),
		interceptors.Metrics(d.Metrics),
		interceptors.CORS(d.Config.Server.AllowedOrigins),
		d.RateLimiter.Middleware,
	)
}

func (d *Dependencies) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := d.DB.Ping(ctx); err != nil {
		d.Logger.Warn("health check failed", slog.Any("error", err))
		interceptors.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	interceptors.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
