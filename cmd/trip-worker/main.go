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

	"trip-workers/internal/api"
	"trip-workers/internal/clients/genai"
	"trip-workers/internal/clients/payment"
	"trip-workers/internal/clients/unsplash"
	"trip-workers/internal/common/camunda"
	"trip-workers/internal/common/config"
	"trip-workers/internal/common/database"
	"trip-workers/internal/common/logger"
	"trip-workers/internal/common/observability"
	"trip-workers/internal/store"
	"trip-workers/internal/tripgen"
	apl "trip-workers/internal/workers/trip/attach-payment-link"
	gt "trip-workers/internal/workers/trip/generate-trip"
)

// retryWithBackoff retries operation with exponential backoff until it
// succeeds or maxRetries attempts have been made.
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		if err = operation(); err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying", operationName), map[string]interface{}{
				"error":       err,
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "trip-worker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).With(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting trip worker", map[string]interface{}{"environment": cfg.App.Environment})

	obs := observability.New(cfg.Observability, log)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			log.Warn("observability shutdown failed", map[string]interface{}{"error": err})
		}
	}()

	// --- PostgreSQL ---
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return err
	}
	defer pg.Close()

	if err := retryWithBackoff(ctx, func() error { return pg.Ping(ctx) }, 15, 2*time.Second, log, "PostgreSQL connection"); err != nil {
		return err
	}
	log.Info("PostgreSQL connected", nil)

	if cfg.Database.Postgres.AutoMigrate {
		applied, err := pg.Migrate(ctx)
		if err != nil {
			return err
		}
		log.Info("migrations applied", map[string]interface{}{"count": applied})
	}

	// --- Redis (image cache, optional) ---
	redisClient := database.NewRedis(cfg.Database.Redis)
	defer redisClient.Close()

	var rdb *redis.Client
	if redisClient != nil {
		if err := redisClient.Ping(ctx); err != nil {
			log.Warn("redis unavailable, image cache degraded", map[string]interface{}{"error": err})
		}
		rdb = redisClient.Client
	}

	// --- Adapters and pipeline ---
	genaiClient := genai.NewClient(&genai.Config{
		BaseURL:     cfg.APIs.GenAI.BaseURL,
		APIKey:      cfg.APIs.GenAI.APIKey,
		Model:       cfg.APIs.GenAI.Model,
		MaxTokens:   cfg.APIs.GenAI.MaxTokens,
		Temperature: cfg.APIs.GenAI.Temperature,
		Timeout:     config.GetDuration(cfg.APIs.GenAI.Timeout),
	}, log)

	imageClient := unsplash.NewClient(&unsplash.Config{
		BaseURL:   cfg.APIs.Unsplash.BaseURL,
		AccessKey: cfg.APIs.Unsplash.AccessKey,
		Timeout:   config.GetDuration(cfg.APIs.Unsplash.Timeout),
		CacheTTL:  time.Duration(cfg.APIs.Unsplash.CacheTTL) * time.Second,
	}, rdb, log)

	paymentClient := payment.NewClient(&payment.Config{
		SecretKey: cfg.APIs.Stripe.SecretKey,
		APIURL:    cfg.APIs.Stripe.BaseURL,
		Currency:  cfg.APIs.Stripe.Currency,
		SiteURL:   cfg.App.BaseURL,
		Timeout:   config.GetDuration(cfg.APIs.Stripe.Timeout),
	}, log)

	tripStore := store.NewPostgresStore(pg, log)

	orchestrator := tripgen.New(genaiClient, imageClient, paymentClient, tripStore, log,
		tripgen.WithImageLimit(cfg.APIs.Unsplash.PerPage),
		tripgen.WithObservability(obs),
	)

	checks := map[string]api.Checker{"postgres": pg.Ping}
	if redisClient != nil {
		checks["redis"] = redisClient.Ping
	}

	// --- Zeebe workers ---
	var workers []*camunda.Worker
	if cfg.Camunda.Enabled {
		zeebe, err := camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		}, log)
		if err != nil {
			return err
		}
		defer zeebe.Close()
		log.Info("Zeebe client connected", map[string]interface{}{"address": cfg.Camunda.BrokerAddress})

		checks["zeebe"] = zeebe.HealthCheck

		generateCfg := config.GetWorkerConfig(cfg, gt.TaskType)
		workers = append(workers, camunda.StartWorker(zeebe.GetClient(), gt.TaskType, generateCfg,
			gt.NewHandler(gt.LoadConfig(generateCfg), orchestrator, log), log))

		attachCfg := config.GetWorkerConfig(cfg, apl.TaskType)
		workers = append(workers, camunda.StartWorker(zeebe.GetClient(), apl.TaskType, attachCfg,
			apl.NewHandler(apl.LoadConfig(attachCfg), orchestrator, log), log))
	}

	// --- HTTP API ---
	var srv *http.Server
	serverErr := make(chan error, 1)
	if cfg.HTTP.Enabled {
		srv = &http.Server{
			Addr: cfg.HTTP.Address,
			Handler: api.NewRouter(orchestrator, tripStore, log, api.Options{
				AllowedOrigins: cfg.HTTP.AllowedOrigins,
				Checks:         checks,
			}),
			ReadTimeout:  config.GetDuration(cfg.HTTP.ReadTimeout),
			WriteTimeout: config.GetDuration(cfg.HTTP.WriteTimeout),
			IdleTimeout:  60 * time.Second,
		}

		go func() {
			log.Info("HTTP server listening", map[string]interface{}{"address": srv.Addr})
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
	}

	// --- Graceful shutdown ---
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received", nil)
	case err := <-serverErr:
		log.Error("HTTP server failed", map[string]interface{}{"error": err})
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.HTTP.ShutdownTimeout))
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown failed", map[string]interface{}{"error": err})
		}
	}
	for _, w := range workers {
		w.Stop()
	}

	log.Info("trip worker stopped", nil)
	return nil
}
