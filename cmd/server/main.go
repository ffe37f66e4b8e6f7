package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/HaikalHH/mugifumiapp-sub000/internal/config"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/database"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/events"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/handler"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/idempotency"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/logger"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/metrics"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/payment"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/router"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/service"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/ws"
)

const (
	serviceName     = "mugifumi-api"
	shutdownTimeout = 15 * time.Second
	webhookScope    = "payment-webhook"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "server stopped with error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DB.AutoMigrate {
		if err := database.Migrate(cfg.DB.URL); err != nil {
			return err
		}
		logg.Info(ctx, "migrations applied")
	}

	pool, err := database.Connect(ctx, cfg.DB.URL, cfg.DB.MaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewFulfillment(registry)

	hub := ws.NewHub()
	go hub.Run(ctx)

	publishers := events.Fanout{events.NewHubPublisher(hub)}
	if cfg.Kafka.Enabled() {
		kafkaPub := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, 0, logg)
		// Outlives the signal context so handlers draining during shutdown can
		// still publish; the deferred Close flushes it.
		kafkaPub.Start(context.Background())
		defer func() {
			kafkaPub.Close()
			kafkaPub.WaitClosed()
		}()
		publishers = append(publishers, kafkaPub)
		logg.Info(ctx, "kafka publisher enabled")
	}

	var guard handler.WebhookGuard
	if cfg.Redis.Enabled() {
		store, redisErr := idempotency.NewRedisStore(ctx, cfg.Redis.URL)
		if redisErr != nil {
			return redisErr
		}
		defer func() { err = multierr.Append(err, store.Close()) }()

		g, guardErr := idempotency.NewGuard(store, cfg.Redis.IdempotencyTTL, webhookScope)
		if guardErr != nil {
			return guardErr
		}
		guard = g
		logg.Info(ctx, "webhook idempotency guard enabled")
	}

	gateway, err := payment.NewClient(cfg.Payment.ServerKey,
		payment.WithBaseURL(cfg.Payment.BaseURL),
		payment.WithCallbacks(payment.Callbacks{
			Finish:  cfg.Payment.FinishURL,
			Pending: cfg.Payment.PendingURL,
			Error:   cfg.Payment.ErrorURL,
		}),
		payment.WithExpiryMinutes(cfg.Payment.ExpiryMinutes),
		payment.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	fees, err := cfg.FeeTable()
	if err != nil {
		return err
	}

	policy := cfg.Retry.Policy()
	policy.Metrics = m
	deps := service.Deps{Publisher: publishers, Logger: logg, Retry: policy}

	server := &http.Server{
		Addr: ":" + cfg.App.Port,
		Handler: router.New(router.Deps{
			Config:   cfg,
			Logger:   logg,
			Hub:      hub,
			Gatherer: registry,
			Metrics:  m,
			Guard:    guard,
			Services: router.NewServices(pool, gateway, fees, cfg, deps),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(ctx, "addr", server.Addr), "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
