// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"nyota-pay/internal/config"
	"nyota-pay/internal/domain/ports/adapter"
	"nyota-pay/internal/domain/ports/repository"
	payAdapters "nyota-pay/internal/infra/adapters/payment"
	"nyota-pay/internal/infra/logging"
	"nyota-pay/internal/infra/metrics"
	red "nyota-pay/internal/infra/redis"
	"nyota-pay/internal/infra/sched"
	"nyota-pay/internal/infra/web"
	"nyota-pay/internal/infra/worker"
	"nyota-pay/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "developer mode (noop gateway, console logs)")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Payment gateway ----
	var gateway adapter.PaymentGateway
	if cfg.Runtime.Dev {
		gateway = payAdapters.NewNoopPaymentGateway()
		logger.Info().Msg("payment gateway: noop (dev mode)")
	} else {
		gateway, err = payAdapters.NewSwiftPayGateway(cfg.SwiftPay.BaseURL, cfg.SwiftPay.APIKey, cfg.SwiftPay.TillID)
		if err != nil {
			log.Fatalf("swiftpay gateway: %v", err)
		}
		logger.Info().Str("base_url", cfg.SwiftPay.BaseURL).Msg("payment gateway: swiftpay")
	}

	// ---- Redis (optional: outcome cache, pending store, rate limiter) ----
	var (
		cache   repository.OutcomeCache
		pending repository.PendingCheckouts
		limiter web.RateLimiter
	)
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer redisClient.Close()
		cache = red.NewOutcomeCache(redisClient, cfg.Redis.TTL)
		pending = red.NewPendingCheckouts(redisClient, cfg.Redis.TTL)
		limiter = red.NewRateLimiter(redisClient)
	} else {
		logger.Warn().Msg("redis.url not set; running without outcome cache, reconciler and rate limiting")
	}

	// ---- Use case ----
	paymentUC := usecase.NewPaymentUseCase(gateway, cache, pending, logger).
		WithPollDefaults(cfg.Poll.MaxAttempts, cfg.Poll.Interval)

	// ---- Background reconciler ----
	var pool *worker.Pool
	if cfg.Reconciler.Enabled && pending != nil {
		pool = worker.NewPool(cfg.Reconciler.Workers, logger)
		pool.Start(ctx)
		rec := sched.NewOutcomeReconciler(paymentUC, pending, pool, cfg.Reconciler.Interval, logger)
		go rec.Start(ctx)
		logger.Info().Dur("interval", cfg.Reconciler.Interval).Msg("outcome reconciler started")
	}

	// ---- HTTP API ----
	srv := web.NewServer(paymentUC, limiter, cfg.RateLimit, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
	if pool != nil {
		// Let in-flight probes finish; their terminal outcomes still land
		// in the cache.
		pool.Stop()
	}
	cancel()
}
