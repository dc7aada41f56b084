// Package setup is the composition root shared by the binaries.
package setup

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/redqct/redqct/internal/assets"
	"github.com/redqct/redqct/internal/card"
	"github.com/redqct/redqct/internal/fetcher"
	"github.com/redqct/redqct/internal/graph"
	"github.com/redqct/redqct/internal/redis"
	"github.com/redqct/redqct/internal/setup/config"
	"github.com/redqct/redqct/internal/setup/telemetry"
	"github.com/redqct/redqct/pkg/utils"
	"github.com/uptrace/uptrace-go/uptrace"
	"go.uber.org/zap"
)

// Version is reported to the tracing backend.
var Version = "dev"

// App bundles the dependencies every binary needs.
type App struct {
	Config       *config.Config
	ConfigDir    string
	Logger       *zap.Logger
	LogManager   *telemetry.Manager
	RedisManager *redis.Manager
	Pack         *assets.Pack
	Fetcher      *fetcher.Fetcher
	Cards        *card.Generator
	Graphs       *graph.Renderer
	LineOptions  card.LineOptions
	tracing      bool
}

// InitializeApp loads configuration from the default search paths and wires
// logging, tracing, the asset cache, the asset pack and the renderers.
func InitializeApp(ctx context.Context, service telemetry.ServiceType, logDir string) (*App, error) {
	cfg, configDir, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	return InitializeWithConfig(ctx, cfg, configDir, service, logDir)
}

// InitializeWithConfig wires the app from an already loaded configuration.
func InitializeWithConfig(
	ctx context.Context, cfg *config.Config, configDir string, service telemetry.ServiceType, logDir string,
) (*App, error) {
	logManager, err := telemetry.NewManager(service, logDir, &cfg.Common.Debug)
	if err != nil {
		return nil, err
	}

	logger, err := logManager.GetLogger()
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:     cfg,
		ConfigDir:  configDir,
		Logger:     logger,
		LogManager: logManager,
		LineOptions: card.LineOptions{
			MaxLength: cfg.Common.Card.LineMaxLength,
			Ellipsis:  cfg.Common.Card.Ellipsis,
		},
	}

	if cfg.Common.Tracing.DSN != "" {
		uptrace.ConfigureOpentelemetry(
			uptrace.WithDSN(cfg.Common.Tracing.DSN),
			uptrace.WithServiceName(serviceName(cfg, service)),
			uptrace.WithServiceVersion(Version),
		)
		app.tracing = true
		logger.Info("Tracing enabled", zap.String("service", serviceName(cfg, service)))
	}

	// A nil interface keeps the fetcher from touching Redis when caching is off.
	var cache fetcher.Cache
	if cfg.Common.Redis.Enabled {
		app.RedisManager = redis.NewManager(&cfg.Common.Redis, logger)

		assetCache, err := app.RedisManager.AssetCache()
		if err != nil {
			app.Cleanup(ctx)
			return nil, err
		}
		cache = assetCache
	}

	assetsCfg := cfg.Common.Assets
	pack, err := assets.Load(assetsCfg.Dir, assetsCfg.FontDir, assets.FontFiles{
		Regular:  assetsCfg.RegularFont,
		Bold:     assetsCfg.BoldFont,
		Heavy:    assetsCfg.HeavyFont,
		Fallback: assetsCfg.FallbackFont,
	})
	if err != nil {
		app.Cleanup(ctx)
		return nil, fmt.Errorf("failed to load assets: %w", err)
	}
	app.Pack = pack

	app.Fetcher = fetcher.New(&http.Client{}, cache, FetchOptions(cfg), logger)
	app.Cards = card.NewGenerator(pack, app.Fetcher, logger)
	app.Graphs = graph.NewRenderer(pack)

	return app, nil
}

// FetchOptions converts configuration into fetcher options.
func FetchOptions(cfg *config.Config) fetcher.Options {
	opts := fetcher.DefaultOptions()

	f := cfg.Common.Fetch
	if f.Timeout > 0 {
		opts.Timeout = f.TimeoutDuration()
	}
	if f.MaxBytes > 0 {
		opts.MaxBytes = f.MaxBytes
	}
	opts.RequestsPerSecond = f.RequestsPerSecond
	if f.Burst > 0 {
		opts.Burst = f.Burst
	}
	if f.Concurrency > 0 {
		opts.Concurrency = f.Concurrency
	}

	r := cfg.Common.Retry
	opts.Retry = utils.RetryOptions{
		MaxElapsedTime:  time.Duration(r.MaxElapsed) * time.Millisecond,
		InitialInterval: time.Duration(r.Delay) * time.Millisecond,
		MaxInterval:     time.Duration(r.MaxDelay) * time.Millisecond,
		MaxRetries:      r.MaxRetries,
	}
	if r.Delay == 0 && r.MaxDelay == 0 {
		opts.Retry = utils.GetFetchRetryOptions()
	}

	return opts
}

// Cleanup releases everything InitializeApp acquired, in reverse order.
// Failures are logged so that every component gets a chance to shut down.
func (s *App) Cleanup(ctx context.Context) {
	if s.tracing {
		if err := uptrace.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.Logger.Error("Failed to flush traces", zap.Error(err))
		}
	}

	if s.RedisManager != nil {
		s.RedisManager.Close()
	}

	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	s.LogManager.Close()
}

func serviceName(cfg *config.Config, service telemetry.ServiceType) string {
	name := cfg.Common.Tracing.ServiceName
	if name == "" {
		name = "redqct"
	}
	return name + "-" + service.String()
}
