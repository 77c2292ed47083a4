package app

import (
	"context"
	"path/filepath"
	"route-optimizer-service/internal/config"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/services"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() config.Config {
	return config.Config{
		Provider:          "haversine",
		HaversineSpeedKPH: 40,
		ProviderTimeout:   time.Second,
		CacheBackend:      "memory",
		CacheTTL:          time.Hour,
	}
}

func phoenixStops() []domain.Stop {
	return domain.NewStops([]domain.Coordinates{
		{Lat: 33.4484, Lon: -112.0740},
		{Lat: 33.4255, Lon: -111.9400},
		{Lat: 33.5387, Lon: -112.1860},
		{Lat: 33.3062, Lon: -111.8413},
	}, nil)
}

func runOnce(t *testing.T, a *App) services.OptimizeResult {
	t.Helper()
	res, err := a.Optimizer.Optimize(context.Background(), services.OptimizeRequest{Stops: phoenixStops(), Closed: true})
	require.NoError(t, err)
	return res
}

func TestBuildHaversineBackends(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := map[string]func(*config.Config){
		"memory": func(*config.Config) {},
		"none":   func(c *config.Config) { c.CacheBackend = "none" },
		"redis": func(c *config.Config) {
			c.CacheBackend = "redis"
			c.RedisURL = "redis://" + mr.Addr() + "/0"
		},
		"sqlite": func(c *config.Config) {
			c.CacheBackend = "sqlite"
			c.SQLitePath = filepath.Join(t.TempDir(), "nested", "cache.db")
		},
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := baseConfig()
			mutate(&cfg)

			a, err := Build(context.Background(), cfg)
			require.NoError(t, err)
			t.Cleanup(func() { assert.NoError(t, a.Close()) })

			assert.Nil(t, a.Geocoder)
			first := runOnce(t, a)
			second := runOnce(t, a)
			assert.Equal(t, first.Route.Stops, second.Route.Stops)
			require.NotNil(t, first.Manifest)
			assert.Len(t, first.Manifest.Legs, 4)
		})
	}
}

func TestBuildORSExposesGeocoder(t *testing.T) {
	cfg := baseConfig()
	cfg.Provider = "ors"
	cfg.ORSAPIKey = "test-key"

	a, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Geocoder)
	assert.NotNil(t, a.Optimizer)
}

func TestBuildErrors(t *testing.T) {
	tests := map[string]func(*config.Config){
		"unknown backend":  func(c *config.Config) { c.CacheBackend = "memcached" },
		"unknown provider": func(c *config.Config) { c.Provider = "osrm" },
		"ors without key":  func(c *config.Config) { c.Provider = "ors" },
		"redis down": func(c *config.Config) {
			c.CacheBackend = "redis"
			c.RedisURL = "redis://127.0.0.1:1/0"
		},
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := baseConfig()
			mutate(&cfg)
			_, err := Build(context.Background(), cfg)
			assert.Error(t, err)
		})
	}
}
