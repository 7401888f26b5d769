package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nickym11111/forge-fall-25-project-sub000/internal/config"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/invite"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/logger"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/metrics"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/queue"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/workers"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ValidateWorker(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag
	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.Bool("invite_mock_mode", cfg.InviteMockMode),
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	// NotBefore is only honoured by the delayed exchange
	retryBase := cfg.RetryBackoff
	if !jobQueue.DelayedAvailable() {
		zapLogger.Warn("delayed_exchange_unavailable_retrying_without_backoff")
		retryBase = 0
	}

	var mailer invite.Mailer
	if cfg.InviteMockMode {
		mailer = invite.NewLogMailer(zapLogger)
	} else {
		mailer = invite.NewResendMailer(cfg.ResendAPIKey, cfg.InviteFromEmail, cfg.InviteFromName)
	}
	inviteService := invite.NewService(mailer, nil, cfg.InviteAppURL, metrics.Nop{}, zapLogger)
	sender := workers.NewInviteSender(inviteService, jobQueue, retryBase, zapLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming", zap.Error(err))
	}

	gc := queue.NewGarbageCollector(jobQueue, cfg.DLQGCInterval, cfg.DLQRetention, zapLogger)
	go func() {
		if err := gc.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			zapLogger.Error("dlq_garbage_collector_stopped", zap.Error(err))
		}
	}()

	go sender.Run(ctx, msgChan)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errChan:
				if !ok {
					return
				}
				zapLogger.Error("queue_error", zap.Error(err))
			}
		}
	}()

	zapLogger.Info("worker_started")

	<-sigChan
	zapLogger.Info("worker_stopping")
	cancel()
	zapLogger.Info("worker_stopped")
}
