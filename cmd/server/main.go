package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nickym11111/forge-fall-25-project-sub000/internal/config"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/handlers"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/invite"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/logger"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/metrics"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/middleware"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/queue"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/services/oidc"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag
	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.Bool("invite_mock_mode", cfg.InviteMockMode),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	shutdownTracing, err := telemetry.Setup(context.Background(), telemetry.Options{
		Enabled:     cfg.OTELEnabled,
		ServiceName: telemetry.ServiceInviteAPI,
		Endpoint:    cfg.OTELEndpoint,
	})
	if err != nil {
		zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(ctx); err != nil {
				zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
			}
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewCollector(reg)

	checks := map[string]handlers.CheckFunc{}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("invalid_redis_url", zap.Error(err))
		}
		redisClient = redis.NewClient(opts)
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		zapLogger.Info("using_redis_rate_limit_store")
	}

	// Without a queue, invites are sent from the request goroutine
	var enqueuer invite.Enqueuer
	if cfg.RabbitMQURL != "" {
		jobQueue := connectQueue(cfg.RabbitMQURL, zapLogger)
		defer func() {
			if err := jobQueue.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
		enqueuer = jobQueue
		checks["queue"] = jobQueue.HealthCheck
	}

	var mailer invite.Mailer
	if cfg.InviteMockMode {
		mailer = invite.NewLogMailer(zapLogger)
	} else {
		mailer = invite.NewResendMailer(cfg.ResendAPIKey, cfg.InviteFromEmail, cfg.InviteFromName)
	}
	inviteService := invite.NewService(mailer, enqueuer, cfg.InviteAppURL, recorder, zapLogger)

	var verifier middleware.TokenVerifier
	if cfg.JWKSURL != "" {
		verifier = oidc.NewVerifier(oidc.NewJWKSManager(time.Hour, nil), cfg.JWKSURL, cfg.AuthIssuer)
	} else {
		zapLogger.Warn("jwks_url_not_configured_invites_are_unauthenticated")
	}

	rateLimit, err := middleware.RateLimit(cfg.RateLimit, redisClient, zapLogger)
	if err != nil {
		zapLogger.Fatal("invalid_rate_limit", zap.String("rate", cfg.RateLimit), zap.Error(err))
	}

	router := newRouter(routerDeps{
		logger:         zapLogger,
		invites:        handlers.NewInviteHandler(inviteService, zapLogger),
		health:         handlers.NewHealthChecker(checks),
		metrics:        metrics.Handler(reg),
		verifier:       verifier,
		rateLimit:      rateLimit,
		allowedOrigins: middleware.ParseOrigins(cfg.FrontendURL),
		enableHSTS:     cfg.EnableHSTS,
		requestTimeout: middleware.DefaultRequestTimeout,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      middleware.DefaultRequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// connectQueue retries with exponential backoff so the server survives RabbitMQ starting after it
func connectQueue(url string, zapLogger *zap.Logger) *queue.RabbitMQQueue {
	const (
		maxRetries   = 10
		initialDelay = 2 * time.Second
		maxDelay     = 30 * time.Second
	)

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		q, err := queue.NewRabbitMQQueue(url, zapLogger)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq", zap.Bool("delayed_retries", q.DelayedAvailable()))
			return q
		}
		lastErr = err

		delay := min(initialDelay<<attempt, maxDelay)
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Duration("retry_delay", delay),
			zap.Error(err),
		)
		time.Sleep(delay)
	}

	zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries", zap.Int("max_retries", maxRetries), zap.Error(lastErr))
	return nil
}
