package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/photoalbum-backend/api/routes"
	"github.com/angelmondragon/photoalbum-backend/internal/media"
	"github.com/angelmondragon/photoalbum-backend/pkg/config"
	"github.com/angelmondragon/photoalbum-backend/pkg/db"
	"github.com/angelmondragon/photoalbum-backend/pkg/instance"
	"github.com/angelmondragon/photoalbum-backend/pkg/logger"
	"github.com/angelmondragon/photoalbum-backend/pkg/metrics"
	"github.com/angelmondragon/photoalbum-backend/pkg/migrate"
	"github.com/angelmondragon/photoalbum-backend/pkg/redis"
	"github.com/angelmondragon/photoalbum-backend/pkg/storage"
	"github.com/angelmondragon/photoalbum-backend/pkg/storage/gcs"
	"github.com/angelmondragon/photoalbum-backend/pkg/storage/local"
)

const serviceName = "photoalbum-api"

type closer struct {
	name string
	fn   func() error
}

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
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	var closers []closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if cerr := closers[i].fn(); cerr != nil {
				err = multierr.Append(err, cerr)
				logg.Error(logg.WithField(context.Background(), "resource", closers[i].name), "error closing resource", cerr)
			}
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	years := media.YearRange{Min: cfg.Media.MinYear, Max: cfg.Media.MaxYear}

	var store media.Store
	if cfg.DB.IsRelational() {
		dbClient, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return err
		}
		closers = append(closers, closer{"database", dbClient.Close})

		if err := migrate.MaybeAutoRun(ctx, cfg, logg, dbClient); err != nil {
			return err
		}
		store = media.NewRepository(dbClient.DB(), years)
	} else {
		logg.Warn(ctx, "using in-memory media store; records are lost on restart")
		store = media.NewMemoryStore(years)
	}
	store = media.NewCachedStore(store, cfg.Media.MetadataCacheLen, cfg.Media.MetadataCacheTTL, metrics.NewCacheMetrics(registry))

	blobs, blobCloser, err := newBlobStore(ctx, cfg, logg)
	if err != nil {
		return err
	}
	if blobCloser != nil {
		closers = append(closers, closer{"blob storage", blobCloser})
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		closers = append(closers, closer{"redis", redisClient.Close})
	} else {
		logg.Info(ctx, "redis not configured; upload rate limiting disabled")
	}

	mediaService, err := media.NewService(store, blobs, media.ServiceConfig{
		Years:        years,
		MaxFileBytes: cfg.Media.MaxFileBytes(),
	}, logg, metrics.NewIngestMetrics(registry))
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"addr":         addr,
		"instance":     instance.GetID(),
		"store_driver": cfg.DB.Driver,
		"blob_driver":  cfg.Media.BlobDriver,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, registry, mediaService, redisClient),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logg.Info(logCtx, "api server stopped")
	return nil
}

func newBlobStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (storage.Store, func() error, error) {
	if strings.EqualFold(cfg.Media.BlobDriver, config.BlobDriverGCS) {
		client, err := gcs.NewClient(ctx, cfg.GCS, logg)
		if err != nil {
			return nil, nil, err
		}
		return client, client.Close, nil
	}

	store, err := local.New(cfg.Media.UploadDir)
	if err != nil {
		return nil, nil, err
	}
	logg.Info(logg.WithField(ctx, "root", store.Root()), "storing media on local disk")
	return store, nil, nil
}
