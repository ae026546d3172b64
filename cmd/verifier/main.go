// cmd/verifier/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"kyc-verifier/internal/common/config"
	"kyc-verifier/internal/common/database"
	"kyc-verifier/internal/common/httpclient"
	"kyc-verifier/internal/common/logger"
	"kyc-verifier/internal/common/observability"
	"kyc-verifier/internal/notify"
	"kyc-verifier/internal/pipeline"
	"kyc-verifier/internal/providers"
	"kyc-verifier/internal/providers/bgc"
	"kyc-verifier/internal/providers/docauth"
	"kyc-verifier/internal/providers/facematch"
	"kyc-verifier/internal/providers/liveness"
	"kyc-verifier/internal/providers/ocr"
	"kyc-verifier/internal/providers/registry"
	"kyc-verifier/internal/providers/stub"
	"kyc-verifier/internal/scoring"
	"kyc-verifier/internal/server"
	"kyc-verifier/internal/storage"
	"kyc-verifier/internal/store/verification"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting verifier",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.String("providerMode", cfg.Providers.Mode),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	var (
		gateways *providers.Gateways
		store    verification.Store
		evidence storage.EvidenceStore
		notifier notify.Notifier
	)

	if cfg.Providers.Mode == "live" {
		gateways, store, evidence, notifier = buildLive(ctx, cfg, zapLog, log)
	} else {
		zapLog.Info("stub provider mode active, no external services will be called")
		gateways = stub.Gateways()
		store = verification.NewMemoryStore()
		evidence = nil
		notifier = notify.Nop{}
	}

	orch := pipeline.NewOrchestrator(pipeline.Dependencies{
		Gateways: gateways,
		Scorer:   scoring.NewScorer(),
		Store:    store,
		Evidence: evidence,
		Notifier: notifier,
		Logger:   log,
	}, pipeline.Config{
		StageTimeout: config.GetDuration(cfg.Pipeline.StageTimeout),
	})

	handler, err := server.NewHandler(orch, store, cfg.Server.MaxUploadBytes, log)
	if err != nil {
		zapLog.Fatal("handler initialization failed", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.NewRouter(handler, cfg.Server.APIKey, log),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: config.GetDuration(cfg.Pipeline.RunTimeout) + 10*time.Second,
	}

	go func() {
		zapLog.Info("http server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLog.Info("shutdown signal received, draining...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}
	zapLog.Info("shutdown complete")
}

// buildLive wires the production provider set: postgres, redis,
// elasticsearch, Vision, Rekognition, BrasilAPI, GCS and SES/SNS.
func buildLive(ctx context.Context, cfg *config.Config, zapLog *zap.Logger, log logger.Logger) (*providers.Gateways, verification.Store, storage.EvidenceStore, notify.Notifier) {
	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err := retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	zapLog.Info("Redis connected successfully")

	// --- Provider gateways ---
	ocrClient, err := ocr.NewClient(ctx, cfg.Providers.Vision.CredentialsJSON, log)
	if err != nil {
		zapLog.Fatal("vision ocr client failed", zap.Error(err))
	}

	livenessClient, err := liveness.NewClient(ctx, cfg.Providers.Vision.CredentialsJSON, log)
	if err != nil {
		zapLog.Fatal("vision liveness client failed", zap.Error(err))
	}

	faceMatchClient, err := facematch.NewClient(ctx, cfg.Providers.Rekognition.Region, cfg.Providers.Rekognition.Threshold, log)
	if err != nil {
		zapLog.Fatal("rekognition client failed", zap.Error(err))
	}

	registryClient := registry.NewClient(
		httpclient.NewClient(config.GetDuration(cfg.Providers.Registry.Timeout)),
		cfg.Providers.Registry.BaseURL,
		redisClient.Client,
		time.Duration(cfg.Providers.Registry.CacheTTL)*time.Second,
		log,
	)

	screener := bgc.NewScreener(esClient.Client, bgc.Indices{
		Criminal:  cfg.Providers.BGC.CriminalIndex,
		Watchlist: cfg.Providers.BGC.WatchlistIndex,
		Warrant:   cfg.Providers.BGC.WarrantIndex,
	}, log)

	gateways := &providers.Gateways{
		OCR:             ocrClient,
		Liveness:        livenessClient,
		FaceMatch:       faceMatchClient,
		BackgroundCheck: screener,
		Registry:        registryClient,
		DocumentAuth:    docauth.NewInspector(log),
	}

	// --- Evidence storage ---
	var evidence storage.EvidenceStore
	if cfg.Storage.GCS.Bucket != "" {
		gcsStore, err := storage.NewGCSStore(ctx, cfg.Storage.GCS.Bucket, cfg.Storage.GCS.CredentialsJSON, log)
		if err != nil {
			zapLog.Fatal("gcs evidence store failed", zap.Error(err))
		}
		evidence = gcsStore
	}

	// --- Notifications ---
	var notifier notify.Notifier = notify.Nop{}
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		awsNotifier, err := notify.NewAWSNotifier(
			ctx,
			cfg.Notifications.AWS.Region,
			cfg.Notifications.Email.FromEmail,
			cfg.Notifications.Email.Enabled,
			cfg.Notifications.SMS.Enabled,
			log,
		)
		if err != nil {
			zapLog.Fatal("aws notifier failed", zap.Error(err))
		}
		notifier = awsNotifier
	}

	return gateways, verification.NewPostgresStore(pg.DB, log), evidence, notifier
}
