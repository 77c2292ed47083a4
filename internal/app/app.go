// Package app assembles the optimizer and its adapters from Config.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"route-optimizer-service/internal/adapters/cache"
	"route-optimizer-service/internal/adapters/distance"
	"route-optimizer-service/internal/adapters/repositories"
	"route-optimizer-service/internal/config"
	"route-optimizer-service/internal/platform/db"
	"route-optimizer-service/internal/ports"
	"route-optimizer-service/internal/services"

	"go.uber.org/zap"
)

// App holds the wired pipeline. Close releases cache connections.
type App struct {
	Optimizer *services.Optimizer
	Matrices  *services.MatrixService
	// Nil unless the provider can geocode.
	Geocoder ports.Geocoder

	closers []func() error
}

// Build wires the configured cache backend and provider behind the optimizer.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{}

	matrixCache, geocodeCache, err := a.openCaches(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	var (
		matrices   ports.MatrixProvider
		directions ports.DirectionsProvider
	)
	switch cfg.Provider {
	case "ors":
		ors, err := distance.NewORSProvider(distance.ORSConfig{
			APIKey:            cfg.ORSAPIKey,
			BaseURL:           cfg.ORSBaseURL,
			Profile:           cfg.ORSProfile,
			MaxAttempts:       cfg.ORSMaxAttempts,
			RequestsPerMinute: cfg.ORSRatePerMinute,
		}, geocodeCache)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("build app: %w", err)
		}
		matrices, directions, a.Geocoder = ors, ors, ors
	case "haversine":
		h := distance.NewHaversineProvider(cfg.HaversineSpeedKPH)
		matrices, directions = h, h
	default:
		a.Close()
		return nil, fmt.Errorf("build app: unknown provider %q", cfg.Provider)
	}

	a.Matrices = services.NewMatrixService(matrices, matrixCache, cfg.ProviderTimeout)
	a.Optimizer = services.NewOptimizer(a.Matrices, directions, cfg.Tuning.Apply(services.DefaultOptimizerOptions()))

	zap.L().Info("optimizer ready",
		zap.String("provider", cfg.Provider),
		zap.String("cache", cfg.CacheBackend),
		zap.Bool("geocoding", a.Geocoder != nil))
	return a, nil
}

// openCaches returns a nil matrix cache for backend "none". The geocode cache is
// only persistent for the SQL backends.
func (a *App) openCaches(ctx context.Context, cfg config.Config) (ports.MatrixCache, ports.GeocodeCache, error) {
	switch cfg.CacheBackend {
	case "none":
		return nil, nil, nil
	case "memory":
		return cache.NewMemoryMatrixCache(cfg.CacheTTL), nil, nil
	case "redis":
		rdb, err := cache.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("build app: %w", err)
		}
		a.closers = append(a.closers, rdb.Close)
		return cache.NewRedisMatrixCache(rdb, cfg.CacheTTL), nil, nil
	case "sqlite":
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("build app: create %q: %w", dir, err)
			}
		}
		conn, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("build app: %w", err)
		}
		a.closers = append(a.closers, conn.Close)
		if err := repositories.InitSchema(ctx, conn, repositories.SQLite); err != nil {
			return nil, nil, fmt.Errorf("build app: %w", err)
		}
		return cache.NewSqliteMatrixCache(conn, cfg.CacheTTL), cache.NewSqliteGeocodeCache(conn), nil
	case "postgres":
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("build app: %w", err)
		}
		a.closers = append(a.closers, conn.Close)
		if err := repositories.InitSchema(ctx, conn, repositories.Postgres); err != nil {
			return nil, nil, fmt.Errorf("build app: %w", err)
		}
		return cache.NewSQLMatrixCache(conn, cfg.CacheTTL), cache.NewSQLGeocodeCache(conn), nil
	}
	return nil, nil, fmt.Errorf("build app: unknown cache backend %q", cfg.CacheBackend)
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
