package config

import (
	"fmt"
	"os"
	"route-optimizer-service/internal/services"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Get returns the environment value for key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func GetInt(key string, fallback int) int {
	v := Get(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func GetFloat(key string, fallback float64) float64 {
	v := Get(key, "")
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

// GetDuration accepts Go duration strings ("750ms", "2m").
func GetDuration(key string, fallback time.Duration) time.Duration {
	v := Get(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// Tuning holds optimizer knobs that may be overlaid from a YAML file.
type Tuning struct {
	IterationFactor     int     `yaml:"iteration_factor"`
	MaxIterations       int     `yaml:"max_iterations"`
	OrOpt               *bool   `yaml:"or_opt"`
	Eps                 float64 `yaml:"eps"`
	ManifestConcurrency int     `yaml:"manifest_concurrency"`
	PricePerGallon      float64 `yaml:"price_per_gallon"`
	MPG                 float64 `yaml:"mpg"`
}

// Config is the service configuration assembled from the environment.
type Config struct {
	Port   string
	LogEnv string

	// "ors" or "haversine".
	Provider          string
	ORSAPIKey         string
	ORSBaseURL        string
	ORSProfile        string
	ORSRatePerMinute  int
	ORSMaxAttempts    int
	ProviderTimeout   time.Duration
	HaversineSpeedKPH float64
	RequestTimeout    time.Duration

	// "memory", "redis", "sqlite", "postgres" or "none".
	CacheBackend string
	CacheTTL     time.Duration
	RedisURL     string
	SQLitePath   string
	DatabaseURL  string

	TuningPath string
	Tuning     Tuning
}

// Load reads Config from the environment, then overlays the YAML tuning file
// named by OPTIMIZER_CONFIG when set.
func Load() (Config, error) {
	cfg := Config{
		Port:   Get("PORT", "8080"),
		LogEnv: Get("LOG_ENV", "production"),

		Provider:          strings.ToLower(Get("MATRIX_PROVIDER", "ors")),
		ORSAPIKey:         Get("ORS_API_KEY", ""),
		ORSBaseURL:        Get("ORS_BASE_URL", "https://api.openrouteservice.org"),
		ORSProfile:        Get("ORS_PROFILE", "driving-car"),
		ORSRatePerMinute:  GetInt("ORS_RATE_PER_MINUTE", 40),
		ORSMaxAttempts:    GetInt("ORS_MAX_ATTEMPTS", 3),
		ProviderTimeout:   GetDuration("PROVIDER_TIMEOUT", 10*time.Second),
		HaversineSpeedKPH: GetFloat("HAVERSINE_SPEED_KPH", 40),
		RequestTimeout:    GetDuration("REQUEST_TIMEOUT", 60*time.Second),

		CacheBackend: strings.ToLower(Get("CACHE_BACKEND", "memory")),
		CacheTTL:     GetDuration("CACHE_TTL", 24*time.Hour),
		RedisURL:     Get("REDIS_URL", "redis://localhost:6379/0"),
		SQLitePath:   Get("DB_PATH", "data/cache.db"),
		DatabaseURL:  Get("DATABASE_URL", ""),

		TuningPath: Get("OPTIMIZER_CONFIG", ""),
	}

	if cfg.TuningPath != "" {
		t, err := LoadTuning(cfg.TuningPath)
		if err != nil {
			return Config{}, err
		}
		cfg.Tuning = t
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Provider {
	case "ors":
		if c.ORSAPIKey == "" {
			return fmt.Errorf("config: ORS_API_KEY is required for the ors provider")
		}
	case "haversine":
	default:
		return fmt.Errorf("config: unknown MATRIX_PROVIDER %q", c.Provider)
	}

	switch c.CacheBackend {
	case "memory", "redis", "sqlite", "none":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required for the postgres cache")
		}
	default:
		return fmt.Errorf("config: unknown CACHE_BACKEND %q", c.CacheBackend)
	}
	return nil
}

func LoadTuning(path string) (Tuning, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("config: read tuning %q: %w", path, err)
	}

	var t Tuning
	if err := yaml.Unmarshal(b, &t); err != nil {
		return Tuning{}, fmt.Errorf("config: parse tuning %q: %w", path, err)
	}
	if t.IterationFactor < 0 || t.MaxIterations < 0 || t.Eps < 0 || t.ManifestConcurrency < 0 {
		return Tuning{}, fmt.Errorf("config: tuning %q: values must not be negative", path)
	}
	return t, nil
}

// Apply overlays the non-zero tuning values onto opts.
func (t Tuning) Apply(opts services.OptimizerOptions) services.OptimizerOptions {
	if t.IterationFactor > 0 {
		opts.Refine.IterationFactor = t.IterationFactor
	}
	if t.MaxIterations > 0 {
		opts.Refine.MaxIterations = t.MaxIterations
	}
	if t.OrOpt != nil {
		opts.Refine.OrOpt = *t.OrOpt
	}
	if t.Eps > 0 {
		opts.Refine.Eps = t.Eps
	}
	if t.ManifestConcurrency > 0 {
		opts.ManifestConcurrency = t.ManifestConcurrency
	}
	if t.PricePerGallon > 0 {
		opts.Fuel.PricePerGallon = t.PricePerGallon
	}
	if t.MPG > 0 {
		opts.Fuel.MPG = t.MPG
	}
	return opts
}
