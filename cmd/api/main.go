package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/agriops/farmops-api/internal/api"
	"github.com/agriops/farmops-api/internal/api/handler"
	"github.com/agriops/farmops-api/internal/core/service"
	"github.com/agriops/farmops-api/internal/core/tenancy"
	"github.com/agriops/farmops-api/internal/infrastructure/config"
	mongodb "github.com/agriops/farmops-api/internal/infrastructure/db/mongo"
	redisdb "github.com/agriops/farmops-api/internal/infrastructure/db/redis"
	"github.com/agriops/farmops-api/internal/infrastructure/queue"
	"github.com/agriops/farmops-api/internal/pkg/fieldcrypt"
	"github.com/agriops/farmops-api/pkg/logger"
)

const usageCleanupInterval = time.Hour

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env == "development",
		Service: "farmops-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Infrastructure ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	animalRepo := mongodb.NewAnimalRepository(db)
	if err := animalRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure indexes")
	}

	var cipher *fieldcrypt.Cipher
	if cfg.Tenancy.FieldEncryptionKey != "" {
		cipher, err = fieldcrypt.NewFromBase64(cfg.Tenancy.FieldEncryptionKey)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid field encryption key")
		}
	}

	// --- Tenancy layer: one explicit instance of each, no globals ---
	cache := tenancy.NewTenantAwareCache(
		tenancy.WithMaxEntries(cfg.Tenancy.CacheMaxEntries),
		tenancy.WithDefaultTTL(cfg.Tenancy.CacheTTL),
	)
	audit := tenancy.NewTenantAuditLogger(cfg.Tenancy.AuditMaxPerTenant, log)
	usage := tenancy.NewTenantUsageMonitor()
	mw := tenancy.NewMiddleware(audit, log)
	dm := tenancy.NewDataManager(audit, log)

	// --- Usage metering pipeline ---
	meter := queue.NewDispatcher(cfg.Tenancy.MeterWorkers, usage, log)
	// Background context so workers drain on Stop instead of dying with the
	// signal context.
	meter.Start(context.Background())
	go runUsageCleanup(ctx, usage, cfg.Tenancy.UsageRetention, log)

	// --- Services and handlers ---
	animalSvc := service.NewAnimalService(animalRepo, cache, mw, usage, meter, cipher, log)
	dataSvc := service.NewDataService(dm, mw, animalRepo, cache, redisdb.NewImportDedup(rdb), meter, cipher, log)

	e := api.NewRouter(api.Deps{
		JWTSecret: cfg.JWTSecret,
		Logger:    log,
		Animals:   handler.NewAnimalHandler(animalSvc),
		Tenant:    handler.NewTenantHandler(usage, audit, cache, animalRepo),
		Data:      handler.NewDataHandler(dataSvc),
		Health:    handler.NewHealthHandler(),
		Ready:     handler.NewReadinessHandler(db, rdb),
	})

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	meter.Stop()
	log.Info().Msg("shutdown complete")
}

// runUsageCleanup periodically drops usage counters for tenants idle longer
// than the retention window.
func runUsageCleanup(ctx context.Context, usage *tenancy.TenantUsageMonitor, retention time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(usageCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := usage.CleanupOldData(retention); n > 0 {
				log.Info().Int("tenants", n).Msg("stale usage counters removed")
			}
		}
	}
}
