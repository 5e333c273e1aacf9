package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"gorm.io/gorm"

	inventoryserver "github.com/Apurer/inventory-service/go"
	inventoryredis "github.com/Apurer/inventory-service/internal/domains/inventory/adapters/cache/redis"
	inventorymemory "github.com/Apurer/inventory-service/internal/domains/inventory/adapters/memory"
	inventoryobs "github.com/Apurer/inventory-service/internal/domains/inventory/adapters/observability"
	inventorymysql "github.com/Apurer/inventory-service/internal/domains/inventory/adapters/persistence/mysql"
	inventorypostgres "github.com/Apurer/inventory-service/internal/domains/inventory/adapters/persistence/postgres"
	inventoryworkflows "github.com/Apurer/inventory-service/internal/domains/inventory/adapters/workflows"
	inventoryapp "github.com/Apurer/inventory-service/internal/domains/inventory/application"
	inventoryports "github.com/Apurer/inventory-service/internal/domains/inventory/ports"
	platformmysql "github.com/Apurer/inventory-service/internal/platform/mysql"
	platformobservability "github.com/Apurer/inventory-service/internal/platform/observability"
	platformpostgres "github.com/Apurer/inventory-service/internal/platform/postgres"
	platformredis "github.com/Apurer/inventory-service/internal/platform/redis"
	inventoryactivities "github.com/Apurer/inventory-service/internal/platform/temporal/activities/inventory"
	temporalworkflows "github.com/Apurer/inventory-service/internal/platform/temporal/workflows/inventory"
)

const serviceName = "inventory-api"

// Run boots the inventory HTTP API and blocks until ctx is cancelled or the
// server fails.
func Run(ctx context.Context, cfg Config) error {
	instruments, shutdown, err := platformobservability.Init(ctx, platformobservability.Settings{
		ServiceName:  serviceName,
		Environment:  cfg.Environment,
		LogLevel:     cfg.LogLevel,
		OTLPEndpoint: cfg.OTLPEndpoint,
		OTLPInsecure: cfg.OTLPInsecure,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	backend, db, cleanupBackend := buildBackend(ctx, cfg, logger)
	defer cleanupBackend()
	store := inventoryapp.NewStore(backend,
		inventoryapp.WithBackendTimeout(cfg.BackendTimeout),
		inventoryapp.WithLogger(logger),
	)
	if err := store.Load(ctx); err != nil {
		return fmt.Errorf("failed to load inventory: %w", err)
	}
	service := inventoryobs.New(
		store,
		inventoryobs.WithLogger(logger),
		inventoryobs.WithTracer(instruments.Tracer("internal.inventory.application")),
		inventoryobs.WithMeter(instruments.Meter("internal.inventory.application")),
	)
	keys, cleanupKeys := buildIdempotencyStore(ctx, cfg, db, logger)
	defer cleanupKeys()
	intake := inventoryapp.NewIntake(service, keys)

	var assembly inventoryports.WorkflowOrchestrator
	if temporalClient, err := connectTemporalClient(cfg, instruments); err != nil {
		logger.Warn("Temporal workflows unavailable, assembling products inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		assemblyWorker, err := startAssemblyWorker(temporalClient, service, intake)
		if err != nil {
			logger.Warn("Temporal worker failed to start, assembling products inline", slog.String("error", err.Error()))
		} else {
			defer assemblyWorker.Stop()
			assembly = inventoryworkflows.NewTemporalProductWorkflows(temporalClient)
			logger.Info("Temporal workflows enabled",
				slog.String("namespace", cfg.TemporalNamespace),
				slog.String("taskQueue", temporalworkflows.ProductAssemblyTaskQueue))
		}
	}

	handlers := inventoryserver.ApiHandleFunctions{
		IDAPI:      inventoryserver.NewIDAPI(service),
		PartAPI:    inventoryserver.NewPartAPI(service, intake),
		ProductAPI: inventoryserver.NewProductAPI(service, assembly, intake),
	}
	router := gin.New()
	router.Use(gin.Recovery(), otelgin.Middleware(serviceName))
	router = inventoryserver.NewRouterWithGinEngine(router, handlers)

	server := &http.Server{Addr: cfg.Addr(), Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Inventory API listening", slog.String("addr", server.Addr), slog.String("backend", cfg.Backend()))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("Inventory API server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
	}
	logger.Info("Inventory API shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildBackend connects the configured backend, falling back to memory when
// the connection fails. db is non-nil only for Postgres.
func buildBackend(ctx context.Context, cfg Config, logger *slog.Logger) (inventoryports.Backend, *gorm.DB, func()) {
	switch cfg.Backend() {
	case "postgres":
		db, err := platformpostgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			logger.Warn("failed to connect to postgres, falling back to memory", slog.String("error", err.Error()))
			return inventorymemory.NewBackend(), nil, func() {}
		}
		logger.Info("inventory backend configured with postgres")
		return inventorypostgres.NewBackend(db), db, func() { _ = platformpostgres.Close(db) }
	case "mysql":
		sqlDB, err := platformmysql.Connect(ctx, cfg.MySQLDSN)
		if err != nil {
			logger.Warn("failed to connect to mysql, falling back to memory", slog.String("error", err.Error()))
			return inventorymemory.NewBackend(), nil, func() {}
		}
		logger.Info("inventory backend configured with mysql")
		return inventorymysql.NewBackend(sqlDB), nil, func() { _ = sqlDB.Close() }
	default:
		logger.Warn("no database configured, inventory is kept in memory only")
		return inventorymemory.NewBackend(), nil, func() {}
	}
}

// buildIdempotencyStore prefers Redis, then the Postgres database, then memory.
func buildIdempotencyStore(ctx context.Context, cfg Config, db *gorm.DB, logger *slog.Logger) (inventoryports.IdempotencyStore, func()) {
	if cfg.RedisAddr != "" {
		client, err := platformredis.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err == nil {
			logger.Info("idempotency keys stored in redis", slog.String("addr", cfg.RedisAddr))
			return inventoryredis.NewIdempotencyStore(client), func() { _ = client.Close() }
		}
		logger.Warn("failed to connect to redis", slog.String("error", err.Error()))
	}
	if db != nil {
		logger.Info("idempotency keys stored in postgres")
		return inventorypostgres.NewIdempotencyStore(db), func() {}
	}
	return inventorymemory.NewIdempotencyStore(), func() {}
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{
		Tracer: instruments.Tracer("temporal-client"),
	})
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(instruments.Logger),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

// startAssemblyWorker runs the assembly worker inside the API process so its
// activities act on the same in-memory store as the HTTP handlers. The
// client's tracing interceptor also applies to the worker.
func startAssemblyWorker(c client.Client, service inventoryports.Service, intake *inventoryapp.Intake) (worker.Worker, error) {
	w := worker.New(c, temporalworkflows.ProductAssemblyTaskQueue, worker.Options{})
	temporalworkflows.Register(w, inventoryactivities.NewActivities(service, intake))
	if err := w.Start(); err != nil {
		return nil, err
	}
	return w, nil
}
