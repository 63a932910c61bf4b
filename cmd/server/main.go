package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/workforce-voice/internal/adapter/action"
	"github.com/seu-repo/workforce-voice/internal/adapter/cache"
	"github.com/seu-repo/workforce-voice/internal/adapter/grpc/server"
	"github.com/seu-repo/workforce-voice/internal/adapter/http/fiber/handlers"
	"github.com/seu-repo/workforce-voice/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/workforce-voice/internal/adapter/queue"
	"github.com/seu-repo/workforce-voice/internal/adapter/storage/postgres"
	"github.com/seu-repo/workforce-voice/internal/adapter/vault"
	wsAdapter "github.com/seu-repo/workforce-voice/internal/adapter/websocket"
	"github.com/seu-repo/workforce-voice/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/workforce-voice/internal/observability/telemetry"
	"github.com/seu-repo/workforce-voice/internal/ports"
	"github.com/seu-repo/workforce-voice/internal/service/health"
	"github.com/seu-repo/workforce-voice/internal/service/nlu"
	"github.com/seu-repo/workforce-voice/internal/service/registry"
	"github.com/seu-repo/workforce-voice/internal/service/voice"
	"github.com/seu-repo/workforce-voice/pkg/config"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	// 2. Initialize Logger
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer logger.Sync()

	logger.Info("Starting voice assistant",
		zap.String("service", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize OpenTelemetry (Distributed Tracing)
	if cfg.OpenTelemetry.Enabled {
		tracerProvider, err := telemetry.InitTracer(telemetry.TracerConfig{
			ServiceName:    cfg.OpenTelemetry.ServiceName,
			ServiceVersion: cfg.App.Version,
			Endpoint:       cfg.OpenTelemetry.Jaeger.Endpoint,
			SampleRate:     cfg.OpenTelemetry.Jaeger.SamplerParam,
		})
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	// 4. Resolve secrets from Vault
	var secrets *vault.SecretManager
	if cfg.Vault.Enabled {
		secrets, err = vault.NewSecretManager(cfg.Vault.Address, cfg.Vault.Token, cfg.Vault.Mount)
		if err != nil {
			logger.Fatal("Failed to create Vault client", zap.Error(err))
		}
		if cfg.Providers.UseVault {
			resolveAPIKeys(ctx, &cfg.Providers, secrets, logger)
		}
		if cfg.Database.URL == "" {
			if url, err := secrets.GetDatabaseURL(ctx); err == nil {
				cfg.Database.URL = url
			} else {
				logger.Warn("No database URL in Vault", zap.Error(err))
			}
		}
	}

	// 5. Initialize Cache (profiles)
	var profileCache ports.Cache
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(cfg.Redis.URL, cfg.Redis.KeyPrefix, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		profileCache = redisCache
	} else {
		profileCache = cache.NewLocalCache(time.Minute, logger)
	}
	defer profileCache.Close()

	// 6. Initialize Message Queue
	messageQueue, err := queue.New(cfg.Queue.Driver, cfg.Queue.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to message queue", zap.Error(err))
	}
	if messageQueue != nil {
		defer messageQueue.Close()
	}

	// 7. Load Command Registry
	var commandRepo ports.CommandRepository
	if cfg.Registry.Source == registry.SourceDatabase {
		db := openDatabase(cfg.Database, logger)
		defer postgres.Close(db)
		commandRepo = postgres.NewCommandRepository(db, logger)
	}
	reg, err := registry.Load(ctx, cfg.Registry.Source, cfg.Registry.Path, commandRepo)
	if err != nil {
		logger.Fatal("Failed to load command registry", zap.Error(err))
	}
	logger.Info("Command registry loaded",
		zap.String("source", cfg.Registry.Source),
		zap.Int("commands", reg.Len()),
	)

	// 8. Initialize Circuit Breakers and NLU Providers
	breakers := circuitbreaker.NewManager(circuitbreaker.Settings{
		MaxRequests:      cfg.CircuitBreaker.MaxRequests,
		Interval:         cfg.CircuitBreaker.Interval,
		Timeout:          cfg.CircuitBreaker.Timeout,
		FailureThreshold: cfg.CircuitBreaker.FailureThreshold,
	}, logger)

	providers, err := nlu.BuildProviders(providerOrder(cfg.Providers.Order), nlu.Deps{
		Models:        buildModels(cfg.Providers, logger),
		Breakers:      breakers,
		Triggers:      reg,
		RetryAttempts: cfg.Voice.RetryAttempts,
		RetryDelay:    cfg.Providers.RetryDelay,
		Log:           logger,
	})
	if err != nil {
		logger.Fatal("Failed to build NLU providers", zap.Error(err))
	}

	// 9. Initialize Action Executor
	executor, worker := buildExecutor(cfg, messageQueue, breakers, logger)
	if worker != nil {
		if err := worker.Start(); err != nil {
			logger.Fatal("Failed to start action worker", zap.Error(err))
		}
	}

	// 10. Initialize WebSocket Hub (for real-time updates)
	wsHub := wsAdapter.NewHub(logger)
	go wsHub.Run(ctx)

	// 11. Initialize Voice Sessions
	sessions := voice.NewSessionManager(voiceConfig(cfg.Voice), cfg.Business, voice.Dependencies{
		Registry:  reg,
		Providers: providers,
		Executor:  executor,
		Log:       logger,
	}, voice.ManagerOptions{
		Cache:       profileCache,
		Queue:       messageQueue,
		Broadcaster: wsHub,
		ProfileTTL:  cfg.Voice.ProfileTTL,
		IdleTimeout: cfg.Voice.SessionIdleTimeout,
		MaxSessions: cfg.Voice.MaxSessions,
	})
	sessions.StartSweeper(cfg.Voice.SessionSweepInterval)
	defer sessions.Close()

	// 12. Initialize Health Checks
	healthCfg := &health.Config{
		Version:  cfg.App.Version,
		Cache:    profileCache,
		Breakers: breakers,
	}
	if pinger, ok := messageQueue.(health.Pinger); ok {
		healthCfg.Queue = pinger
	}
	healthService := health.NewService(healthCfg, logger)

	// 13. Initialize Fiber HTTP Server
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		ServerHeader:          cfg.App.Name,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
		BodyLimit:             cfg.HTTP.BodyLimit,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	// Global Middleware
	app.Use(recover.New())
	app.Use(middleware.NewRequestID())
	app.Use(middleware.AccessLog(logger))
	if cfg.CORS.Enabled {
		app.Use(middleware.NewCORS(cfg.CORS))
	}
	if cfg.RateLimiting.Enabled {
		app.Use(middleware.NewRateLimiter(cfg.RateLimiting))
	}
	if cfg.CircuitBreaker.Enabled {
		app.Use(middleware.CircuitBreaker(cfg.CircuitBreaker, logger))
	}

	// Health Check Endpoints
	health.NewFiberHandler(healthService).RegisterRoutes(app)

	// Metrics endpoint for Prometheus
	if cfg.Prometheus.Enabled {
		metrics := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		app.Get(cfg.Prometheus.Path, func(c *fiber.Ctx) error {
			metrics(c.Context())
			return nil
		})
	}

	// API v1 Routes
	v1 := app.Group("/api/v1")
	handlers.NewVoiceHandler(sessions, logger).RegisterRoutes(v1)

	// WebSocket routes
	wsAdapter.SetupRoutes(app, wsAdapter.NewVoiceStreamHandler(sessions, logger), wsHub)

	// 14. Initialize gRPC Server (health and reflection)
	var grpcServer *server.GRPCServer
	if cfg.GRPC.Enabled {
		grpcServer = server.NewGRPCServer(logger)
		go grpcServer.WatchReadiness(ctx, cfg.GRPC.HealthInterval, func(ctx context.Context) bool {
			return healthService.Ready(ctx).Ready
		})
		go func() {
			logger.Info("Starting gRPC Server", zap.Int("port", cfg.GRPC.Port))
			lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPC.Port))
			if err != nil {
				logger.Fatal("Failed to listen for gRPC", zap.Error(err))
			}
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC Server stopped", zap.Error(err))
			}
		}()
	}

	// 15. Start HTTP Server
	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 16. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if grpcServer != nil {
		grpcServer.Stop()
	}

	logger.Info("Server exited gracefully")
}

func openDatabase(dc config.DatabaseConfig, logger *zap.Logger) *gorm.DB {
	db, err := postgres.NewConnection(dc.URL, postgres.PoolConfig{
		MaxIdleConns:    dc.MaxIdleConns,
		MaxOpenConns:    dc.MaxOpenConns,
		ConnMaxLifetime: dc.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if dc.AutoMigrate {
		if err := postgres.RunMigrations(db); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}
	return db
}

// buildExecutor picks the action executor for actions.mode. In queue mode a
// worker draining the actions subject is returned when one is configured.
func buildExecutor(cfg *config.Config, mq ports.MessageQueue, breakers *circuitbreaker.Manager, logger *zap.Logger) (ports.ActionExecutor, *action.Worker) {
	newHTTP := func() *action.HTTPExecutor {
		client := circuitbreaker.NewHTTPClient(
			&http.Client{Timeout: cfg.Actions.Timeout},
			breakers.Get("business-api"),
			logger,
		)
		return action.NewHTTPExecutor(cfg.Actions.BaseURL, client, cfg.Actions.Headers, logger)
	}

	switch strings.ToLower(cfg.Actions.Mode) {
	case "http":
		return newHTTP(), nil
	case "queue":
		if mq == nil {
			logger.Fatal("Queue action mode requires a message queue")
		}
		exec := action.NewQueueExecutor(mq, cfg.Queue.ActionsSubject, logger)
		if !cfg.Actions.Worker || cfg.Actions.BaseURL == "" {
			return exec, nil
		}
		return exec, action.NewWorker(mq, cfg.Queue.ActionsSubject, newHTTP(), cfg.Actions.Timeout, logger)
	default:
		return nil, nil
	}
}
