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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/agency-leads/cmd/mainconfig"
	"github.com/wolfman30/agency-leads/internal/api/router"
	"github.com/wolfman30/agency-leads/internal/app/bootstrap"
	appconfig "github.com/wolfman30/agency-leads/internal/config"
	httpmiddleware "github.com/wolfman30/agency-leads/internal/http/middleware"
	"github.com/wolfman30/agency-leads/internal/leads"
	"github.com/wolfman30/agency-leads/internal/observability/metrics"
	"github.com/wolfman30/agency-leads/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting agency lead intake API",
		"env", cfg.Env,
		"port", cfg.Port,
		"lead_store", cfg.LeadStore,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	fmt.Println("Server exited gracefully")
}

func run(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) error {
	metricsHandler, leadMetrics := setupMetrics()

	awsClients, err := setupAWS(ctx, cfg)
	if err != nil {
		return err
	}

	redisClient := setupRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	services, err := bootstrap.BuildServices(ctx, cfg, bootstrap.ServicesDeps{
		AWS:     awsClients,
		Redis:   redisClient,
		Metrics: leadMetrics,
	}, logger)
	if err != nil {
		return err
	}
	defer services.Close()

	throttler := httpmiddleware.NewThrottler(cfg.GlobalRPS, cfg.GlobalBurst)
	throttler.StartJanitor(ctx, time.Minute)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(cfg, services, throttler, metricsHandler, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func newRouter(cfg *appconfig.Config, services *bootstrap.Services, throttler *httpmiddleware.Throttler, metricsHandler http.Handler, logger *logging.Logger) http.Handler {
	leadHandler := leads.NewHandler(services.Lead, services.Query, logger).
		WithMaxBody(cfg.MaxRequestBodySize).
		WithTrustForwardedFor(cfg.TrustForwardedFor)
	contactHandler := leads.NewHandler(services.Contact, services.Query, logger).
		WithMaxBody(cfg.MaxRequestBodySize).
		WithTrustForwardedFor(cfg.TrustForwardedFor)

	return router.New(&router.Config{
		Logger:             logger,
		LeadHandler:        leadHandler,
		ContactHandler:     contactHandler,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     metricsHandler,
		Metrics:            services.Metrics,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Throttler:          throttler,
		TrustForwardedFor:  cfg.TrustForwardedFor,
	})
}

func setupMetrics() (http.Handler, *metrics.LeadMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	leadMetrics := metrics.NewLeadMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), leadMetrics
}

func setupAWS(ctx context.Context, cfg *appconfig.Config) (*bootstrap.AWSClients, error) {
	if !cfg.NeedsAWS() {
		return nil, nil
	}
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return bootstrap.NewAWSClients(awsCfg, cfg.AWSEndpointOverride != ""), nil
}

func setupRedis(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *redis.Client {
	if cfg.RateLimitBackend != "redis" {
		return nil
	}
	return bootstrap.BuildRedisClient(ctx, cfg, logger, true)
}
