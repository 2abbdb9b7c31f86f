package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	_ "orderservice/docs"
	"orderservice/pkg/config"
	"orderservice/pkg/events"
	"orderservice/pkg/logger"
	"orderservice/pkg/metrics"
	"orderservice/pkg/order"
	"orderservice/pkg/order/memory"
	"orderservice/pkg/otel"
	"orderservice/pkg/users"
)

// @title Order Service API
// @version 1.0.0
// @description RESTful API for Order Management
// @contact.name API Support
// @contact.email support@example.com
// @host localhost:3002
// @BasePath /
// @tag.name Orders
// @tag.description Order management endpoints
// @tag.name Health
// @tag.description Health check endpoints
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "order-service:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(os.Stdout, logger.ParseLevel(cfg.LogLevel), cfg.ServiceName, otel.GetTraceID)
	defer log.Sync()
	ctx := context.Background()

	tcfg := otel.Config{
		ServiceName:    cfg.ServiceName,
		Host:           cfg.OTELHost,
		ExcludedRoutes: map[string]struct{}{"/health": {}, "/metrics": {}},
		Probability:    cfg.TraceProbability,
	}
	if cfg.TraceStdout {
		tcfg.Stdout = os.Stdout
	}
	tp, shutdownTracing, err := otel.InitTracing(log, tcfg)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer shutdownTracing(context.Background())

	repo := memory.New()
	if cfg.SeedSampleData {
		seeded, err := repo.Seed(ctx, order.SampleOrders())
		if err != nil {
			return fmt.Errorf("seed orders: %w", err)
		}
		if seeded {
			log.Info(ctx, "sample order data initialized", "count", repo.Len())
		}
	}

	var verifier users.Verifier
	if cfg.VerifyUsers {
		verifier = users.NewClient(cfg.UserServiceURL, cfg.UserServiceTimeout)
		if cfg.RedisAddr != "" {
			rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
			defer rdb.Close()
			verifier = users.NewCachedVerifier(verifier, rdb, cfg.UserCacheTTL, log)
		}
		log.Info(ctx, "user verification enabled", "url", cfg.UserServiceURL, "cache", cfg.RedisAddr != "")
	}

	var publisher events.Publisher = events.Nop{}
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		publisher = events.NewKafka(events.NewKafkaWriter(brokers, cfg.KafkaTopic))
		log.Info(ctx, "event publishing enabled", "brokers", brokers, "topic", cfg.KafkaTopic)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error(ctx, "close publisher", "error", err)
		}
	}()

	var limiter *rateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = newRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	a := newApp(appConfig{
		Log:         log,
		Repo:        repo,
		Verifier:    verifier,
		Publisher:   publisher,
		Metrics:     metrics.NewServerMetrics("orders", "api"),
		Tracer:      tp.Tracer(cfg.ServiceName),
		Limiter:     limiter,
		CORSOrigins: cfg.CORSAllowedOrigins,
		ServiceName: cfg.ServiceName,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", "addr", srv.Addr, "docs", "/api-docs/")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		log.Info(ctx, "shutdown started", "signal", sig.String())
		ctx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			srv.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		log.Info(ctx, "shutdown complete")
	}
	return nil
}
