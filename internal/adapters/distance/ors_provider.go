package distance

import (
	"context"
	"errors"
	"net/http"
	"route-optimizer-service/internal/ports"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultORSBaseURL = "https://api.openrouteservice.org"
	DefaultORSProfile = "driving-car"
)

// ORSConfig configures the OpenRouteService client. Zero values fall back to
// the defaults used by NewORSProvider.
type ORSConfig struct {
	APIKey  string
	BaseURL string
	Profile string
	// Per-attempt HTTP timeout.
	HTTPTimeout time.Duration
	MaxAttempts int
	BaseBackoff time.Duration
	// Client-side request budget; ORS free tier allows 40 matrix calls a minute.
	RequestsPerMinute int
	// boundary.country used for geocoding.
	Country string
}

// ORSProvider implements MatrixProvider, DirectionsProvider and Geocoder using
// OpenRouteService.
//
// It coordinates:
//   - Full N×N matrix requests
//   - Per-leg driving directions
//   - Address geocoding with an optional persistent cache
//   - External API calls with rate limiting, circuit breaking and retry/backoff
//
// The provider is safe for concurrent use.
type ORSProvider struct {
	session      *http.Client
	apiKey       string
	baseURL      string
	profile      string
	country      string
	maxAttempts  int
	baseBackoff  time.Duration
	limiter      *rate.Limiter
	breaker      *gobreaker.CircuitBreaker
	geocodeCache ports.GeocodeCache
}

var (
	_ ports.MatrixProvider     = (*ORSProvider)(nil)
	_ ports.DirectionsProvider = (*ORSProvider)(nil)
	_ ports.Geocoder           = (*ORSProvider)(nil)
	_ ports.MatrixSource       = (*ORSProvider)(nil)
)

func NewORSProvider(cfg ORSConfig, geocodeCache ports.GeocodeCache) (*ORSProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("ORS api key is empty")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultORSBaseURL
	}
	if cfg.Profile == "" {
		cfg.Profile = DefaultORSProfile
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 200 * time.Millisecond
	}
	if cfg.Country == "" {
		cfg.Country = "US"
	}

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMinute) / 60.0)
	}

	provider := &ORSProvider{
		session:      &http.Client{Timeout: cfg.HTTPTimeout},
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		profile:      cfg.Profile,
		country:      cfg.Country,
		maxAttempts:  cfg.MaxAttempts,
		baseBackoff:  cfg.BaseBackoff,
		limiter:      rate.NewLimiter(limit, 1),
		breaker:      newBreaker("ors"),
		geocodeCache: geocodeCache,
	}

	return provider, nil
}

// Source identifies the routing profile matrices are computed for.
func (o *ORSProvider) Source() string { return "ors/" + o.profile }

// newBreaker opens after five consecutive upstream failures and probes again
// after 30s. Rejected input and rate limiting do not count as failures.
func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			zap.L().Warn("circuit breaker state changed",
				zap.String("breaker", name), zap.Stringer("from", from), zap.Stringer("to", to))
		},
		IsSuccessful: func(err error) bool {
			if errors.Is(err, context.Canceled) {
				return true
			}
			// 429 is throttling, not an outage: it surfaces as RateLimited and
			// never trips the breaker.
			var he *httpStatusError
			if errors.As(err, &he) {
				return he.Code < 500
			}
			return err == nil
		},
	})
}

// normalize ensures consistent cache keys by collapsing whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
