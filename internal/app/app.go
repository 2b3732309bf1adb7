package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"student-manager/internal/config"
	"student-manager/internal/db"
	"student-manager/internal/health"
	"student-manager/internal/messaging"
	"student-manager/internal/metrics"
	"student-manager/internal/middleware"
	"student-manager/internal/student"
	"student-manager/internal/telemetry"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type App struct {
	config        *config.Config
	router        chi.Router
	server        *http.Server
	logger        *slog.Logger
	db            *bun.DB
	publisher     messaging.Publisher
	meterProvider *sdkmetric.MeterProvider
	students      *student.Service
}

// New connects the store, loads the working set and builds the router.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	logger.Info("initializing application")

	meterProvider, err := telemetry.Init(ctx, cfg.Telemetry.Enabled, cfg.Telemetry.Endpoint, ServiceName, Version, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry, continuing without metrics export", "error", err)
	}

	m, err := metrics.New(ServiceName, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	database, err := db.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	meter := otel.Meter(ServiceName)
	if err := m.Database.RegisterDB(database.DB, meter); err != nil {
		logger.Warn("failed to register connection pool metrics", "error", err)
	}
	if err := m.Health.RegisterDependencies(meter, health.DependencyDatabase); err != nil {
		logger.Warn("failed to register dependency metrics", "error", err)
	}
	if err := m.Health.RegisterServiceInfo(meter, ServiceName, Version, cfg.Env); err != nil {
		logger.Warn("failed to register service info metric", "error", err)
	}

	if err := student.Migrate(ctx, database); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	repo := student.NewRepository(database, m)
	if cfg.Database.SeedSampleData {
		if err := student.SeedIfEmpty(ctx, repo, logger); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to insert sample data: %w", err)
		}
	}

	publisher, err := messaging.New(cfg.Messaging, logger, m)
	if err != nil {
		logger.Warn("failed to initialize event publisher, events are dropped", "error", err)
		publisher = messaging.Noop{}
	}

	service := student.NewService(repo, publisher, logger, m)
	if err := service.Load(ctx); err != nil {
		publisher.Close()
		database.Close()
		return nil, err
	}

	a := &App{
		config:        cfg,
		router:        chi.NewRouter(),
		logger:        logger,
		db:            database,
		publisher:     publisher,
		meterProvider: meterProvider,
		students:      service,
	}

	a.router.Use(chimiddleware.RequestID)
	a.router.Use(chimiddleware.Recoverer)
	a.router.Use(middleware.CORS(cfg.Server.CORSOrigins))

	health.NewHandler(database, logger, m).RegisterRoutes(a.router)

	studentHandler := student.NewHandler(service, cfg.Majors, logger, m)
	a.router.Route("/api", func(r chi.Router) {
		studentHandler.RegisterRoutes(r)
	})

	logger.Info("application initialized successfully")
	return a, nil
}

// Handler is the root HTTP handler.
func (a *App) Handler() http.Handler { return a.router }

func (a *App) Run() error {
	a.server = &http.Server{
		Addr:         a.config.Server.Addr(),
		Handler:      a.router,
		ReadTimeout:  time.Duration(a.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(a.config.Server.IdleTimeout) * time.Second,
	}

	a.logger.Info("server starting", "addr", a.server.Addr)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server and releases the publisher, store and meter
// provider in that order.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down server")

	var errs []error
	if a.server != nil {
		errs = append(errs, a.server.Shutdown(ctx))
	}
	errs = append(errs,
		a.publisher.Close(),
		a.db.Close(),
		telemetry.Shutdown(ctx, a.meterProvider, a.logger),
	)
	return errors.Join(errs...)
}
