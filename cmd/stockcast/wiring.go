package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/andresuchdata/stockcast/internal/ai"
	"github.com/andresuchdata/stockcast/internal/cache"
	"github.com/andresuchdata/stockcast/internal/config"
	"github.com/andresuchdata/stockcast/internal/ingest"
	"github.com/andresuchdata/stockcast/internal/modelstore"
	"github.com/andresuchdata/stockcast/internal/pipeline"
	"github.com/andresuchdata/stockcast/internal/repository/postgres"
	"github.com/andresuchdata/stockcast/internal/service"
	"github.com/andresuchdata/stockcast/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

type appKey struct{}

// app holds every opened connection and the services built on them.
type app struct {
	cfg      *config.Config
	db       *postgres.DB
	redis    *redis.Client
	objects  storage.ObjectStorage
	narrator ai.Narrator

	forecasts *service.ForecastService
	runs      pipeline.RunRepository
	runner    *pipeline.Runner
	importer  *ingest.Importer
}

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.db = db

	if cfg.Cache.Enabled || strings.EqualFold(cfg.ModelStore.Backend, "redis") {
		a.redis, err = cache.NewRedisClient(cfg.Cache)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
	}

	if cfg.ModelStore.S3Endpoint != "" {
		a.objects, err = storage.NewS3Client(storage.S3Config{
			Endpoint:  cfg.ModelStore.S3Endpoint,
			AccessKey: cfg.ModelStore.S3AccessKey,
			SecretKey: cfg.ModelStore.S3SecretKey,
			Bucket:    cfg.ModelStore.S3Bucket,
			Region:    cfg.ModelStore.S3Region,
			UseSSL:    cfg.ModelStore.S3UseSSL,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	blobs, err := modelstore.NewBlobStore(cfg.ModelStore, modelstore.Deps{DB: a.db, Redis: a.redis, Objects: a.objects})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open model store: %w", err)
	}
	log.Debug().Str("backend", cfg.ModelStore.Backend).Msg("model store ready")

	forecastCache, err := cache.NewForecastCache(cfg.Cache, a.redis)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open forecast cache: %w", err)
	}

	a.narrator, err = ai.NewNarrator(ctx, cfg.AI)
	if err != nil {
		// narration is optional, keep going without it
		log.Warn().Err(err).Msg("AI narrator unavailable")
		a.narrator = ai.Disabled{}
	}

	products := postgres.NewProductRepository(a.db)
	sales := postgres.NewSalesRepository(a.db)

	a.forecasts = service.NewForecastService(cfg.Forecast, service.Deps{
		Products: products,
		Sales:    sales,
		Models:   modelstore.NewRegistry(blobs),
		Cache:    forecastCache,
		Narrator: a.narrator,
	})
	a.runs = pipeline.NewPostgresRunRepository(a.db)
	a.runner = pipeline.NewRunner(products, a.forecasts, a.forecasts, a.runs,
		pipeline.Config{Workers: cfg.Forecast.Workers})
	a.importer = ingest.NewImporter(sales, forecastCache)

	return a, nil
}

func (a *app) Close() error {
	var errs []error
	if a.narrator != nil {
		errs = append(errs, a.narrator.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

func openApp(c *cli.Context) error {
	cfg := config.Load()
	if c.IsSet("workers") {
		cfg.Forecast.Workers = c.Int("workers")
	}
	a, err := buildApp(c.Context, cfg)
	if err != nil {
		return err
	}
	c.Context = context.WithValue(c.Context, appKey{}, a)
	return nil
}

func closeApp(c *cli.Context) error {
	if a, ok := c.Context.Value(appKey{}).(*app); ok && a != nil {
		return a.Close()
	}
	return nil
}

func fromContext(c *cli.Context) (*app, error) {
	a, ok := c.Context.Value(appKey{}).(*app)
	if !ok || a == nil {
		return nil, fmt.Errorf("application not initialised")
	}
	return a, nil
}
