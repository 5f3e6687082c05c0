// Package bootstrap assembles the pipeline dependency graph from config so
// the binaries share one wiring path.
package bootstrap

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/brandgate/creative-automation/internal/asset"
	"github.com/brandgate/creative-automation/internal/compliance"
	"github.com/brandgate/creative-automation/internal/composer"
	"github.com/brandgate/creative-automation/internal/config"
	"github.com/brandgate/creative-automation/internal/generation"
	"github.com/brandgate/creative-automation/internal/pipeline"
	"github.com/brandgate/creative-automation/internal/upload"
	"github.com/brandgate/creative-automation/pkg/logger"
)

// Dependencies holds everything a binary needs after wiring.
type Dependencies struct {
	Logger   *zap.Logger
	Config   *config.Config
	Cache    *redis.Client
	Pipeline *pipeline.Pipeline
}

// Initialize builds the full dependency graph. Optional pieces stay nil when
// unconfigured: the Redis index, the S3 uploader, and the live generation
// client, which falls back to deterministic placeholders.
func Initialize(cfg *config.Config) (*Dependencies, error) {
	log := logger.New(logger.Config{
		Environment: cfg.AppEnv,
		LogLevel:    cfg.LogLevel,
		ServiceName: cfg.AppName,
	})

	table, err := compliance.LoadTermTable(cfg.TermTablePath)
	if err != nil {
		return nil, fmt.Errorf("loading term table: %w", err)
	}
	gate, err := compliance.NewGate(compliance.NewScreener(table, compliance.MatchSubstring))
	if err != nil {
		return nil, err
	}

	var gen generation.Service
	if cfg.GenerationEndpoint != "" {
		client, err := generation.NewClient(log, generation.Config{
			Endpoint:   cfg.GenerationEndpoint,
			APIKey:     cfg.GenerationAPIKey,
			Timeout:    cfg.GenerationTimeout,
			MaxElapsed: cfg.GenerationMaxElapsed,
		})
		if err != nil {
			return nil, err
		}
		gen = client
	} else {
		log.Info("no generation endpoint configured, using placeholder art")
		gen = &generation.StaticService{}
	}

	var cache *redis.Client
	if cfg.RedisAddr != "" {
		cache = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}

	var uploader upload.Uploader
	if cfg.UploadEnabled {
		s3, err := upload.NewS3Uploader(log, upload.Config{
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			BasePath:  cfg.S3BasePath,
		})
		if err != nil {
			return nil, err
		}
		uploader = s3
	}

	assets := asset.NewManager(log, cfg.AssetsDir, cache, gen)
	p := pipeline.New(log, cfg, gen, assets, gate, composer.New(log), uploader)

	return &Dependencies{
		Logger:   log,
		Config:   cfg,
		Cache:    cache,
		Pipeline: p,
	}, nil
}

// Close releases held connections.
func (d *Dependencies) Close() {
	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			d.Logger.Warn("closing redis client", zap.Error(err))
		}
	}
}
