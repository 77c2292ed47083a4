package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the service.
	Registry = prometheus.NewRegistry()

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "route", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "route"},
	)

	// Optimizations counts pipeline runs by outcome (ok, invalid_input, provider_<category>, error).
	Optimizations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "optimizations_total", Help: "Route optimization runs by outcome."},
		[]string{"outcome"},
	)
	// RefineMoves records accepted local-search moves per run.
	RefineMoves = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "refine_moves", Help: "Accepted local search moves per run.", Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100, 500}},
	)
	SavingsPercent = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "savings_percent", Help: "Percentage saving of optimized over user order.", Buckets: []float64{-10, 0, 5, 10, 20, 30, 40, 60}},
	)

	ProviderRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "provider_requests_total", Help: "External routing provider calls by endpoint and outcome."},
		[]string{"endpoint", "outcome"},
	)
	MatrixCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "matrix_cache_lookups_total", Help: "Matrix cache lookups by result (hit, miss, error)."},
		[]string{"result"},
	)
)

var regOnce sync.Once

// Register adds every collector to Registry. Safe to call more than once.
func Register() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(Optimizations)
		Registry.MustRegister(RefineMoves)
		Registry.MustRegister(SavingsPercent)
		Registry.MustRegister(ProviderRequests)
		Registry.MustRegister(MatrixCacheLookups)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}
