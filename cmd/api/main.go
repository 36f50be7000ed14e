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
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/applyforge/applyforge/internal/api"
	"github.com/applyforge/applyforge/internal/browser"
	"github.com/applyforge/applyforge/internal/config"
	"github.com/applyforge/applyforge/internal/escalation"
	"github.com/applyforge/applyforge/internal/observability"
	"github.com/applyforge/applyforge/internal/storage"
)

func main() {
	// Load .env if present; real deployments set the environment directly
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(string(cfg.Env), cfg.GetLogLevel())
	defer logger.Sync()

	logger.Info("Starting ApplyForge API",
		zap.String("version", cfg.App.Version),
		zap.String("environment", string(cfg.Env)),
	)

	metrics := observability.InitMetrics("applyforge")

	// Launch the browser once; pages are opened per pass
	runner, err := browser.NewRunner(cfg.Browser, logger)
	if err != nil {
		logger.Fatal("Failed to launch browser", zap.Error(err))
	}
	defer runner.Close()
	logger.Info("Browser launched", zap.Bool("headless", cfg.Browser.Headless))

	// Answer cache (optional)
	var cache *escalation.AnswerCache
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warn("Failed to connect to Redis, answer caching disabled", zap.Error(err))
			redisClient.Close()
		} else {
			cache = escalation.NewAnswerCache(redisClient, cfg.Redis.AnswerTTL)
			defer cache.Close()
			logger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr()))
		}
	}

	// Escalation client (optional in development)
	var escClient *escalation.Client
	var escRouter *escalation.Router
	if cfg.Claude.APIKey != "" {
		clientCfg := escalation.DefaultClientConfig()
		clientCfg.APIKey = cfg.Claude.APIKey
		clientCfg.Model = cfg.Claude.Model
		clientCfg.Timeout = cfg.Claude.Timeout
		clientCfg.RateLimitRPM = cfg.Claude.RateLimitRPM
		clientCfg.MaxRetries = cfg.Claude.MaxRetries

		client, err := escalation.NewClient(clientCfg)
		if err != nil {
			logger.Fatal("Failed to build escalation client", zap.Error(err))
		}
		escClient = client
		escRouter = escalation.NewRouter(client, cache, logger)
		logger.Info("Escalation enabled", zap.String("model", cfg.Claude.Model))
	} else {
		logger.Warn("No Anthropic API key configured, custom questions will go unanswered")
	}

	// Audit artifact store (optional)
	var audit *storage.AuditStore
	if cfg.Storage.Enabled {
		audit, err = storage.NewAuditStore(storage.MinIOConfig{
			Endpoint:        cfg.Storage.Endpoint,
			AccessKeyID:     cfg.Storage.AccessKey,
			SecretAccessKey: cfg.Storage.SecretKey,
			UseSSL:          cfg.Storage.UseSSL,
			BucketName:      cfg.Storage.Bucket,
		})
		if err != nil {
			logger.Warn("Failed to connect to object storage, auditing disabled", zap.Error(err))
			audit = nil
		} else if err := audit.EnsureBucket(context.Background()); err != nil {
			logger.Warn("Failed to ensure audit bucket, auditing disabled", zap.Error(err))
			audit = nil
		} else {
			logger.Info("Audit store ready", zap.String("bucket", cfg.Storage.Bucket))
		}
	}

	router := api.NewRouter(api.RouterConfig{
		Runner:      runner,
		Escalation:  escRouter,
		Cache:       cache,
		Audit:       audit,
		Metrics:     metrics,
		Logger:      logger,
		APIKey:      cfg.Security.APIKey,
		EnableCORS:  cfg.Security.CORSEnabled,
		RateLimit:   cfg.RateLimits.RequestsPerMin,
		Burst:       cfg.RateLimits.BurstSize,
		Development: cfg.IsDevelopment(),
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("API server listening", zap.String("addr", addr))
		if cfg.Security.TLSEnabled {
			serverErrors <- server.ListenAndServeTLS(cfg.Security.TLSCertFile, cfg.Security.TLSKeyFile)
		} else {
			serverErrors <- server.ListenAndServe()
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Fatal("Server error", zap.Error(err))

	case sig := <-shutdown:
		logger.Info("Shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown failed, forcing close", zap.Error(err))
			server.Close()
		}

		if escClient != nil {
			usage := escClient.GetMetrics()
			logger.Info("Escalation usage",
				zap.String("model", escClient.GetModel()),
				zap.Int64("requests", usage.TotalRequests),
				zap.Int64("failed", usage.FailedRequests),
				zap.Int64("tokens_in", usage.TotalTokensIn),
				zap.Int64("tokens_out", usage.TotalTokensOut),
			)
		}

		logger.Info("Server stopped gracefully")
	}
}

// initLogger creates a configured zap logger
func initLogger(env, level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	var config zap.Config
	if env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	config.Level = zap.NewAtomicLevelAt(zapLevel)

	logger, err := config.Build()
	if err != nil {
		// Fall back to basic logger
		logger, _ = zap.NewProduction()
	}

	return logger
}
