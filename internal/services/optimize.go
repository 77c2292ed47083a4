package services

import (
	"context"
	"errors"
	"fmt"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/platform/metrics"
	"route-optimizer-service/internal/platform/obs"
	"route-optimizer-service/internal/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OptimizerOptions configures a pipeline. Zero values fall back to defaults.
type OptimizerOptions struct {
	Refine              RefineOptions
	ManifestConcurrency int
	// Fuel pricing used when a request carries none.
	Fuel domain.FuelParams
}

func DefaultOptimizerOptions() OptimizerOptions {
	return OptimizerOptions{
		Refine:              DefaultRefineOptions(),
		ManifestConcurrency: defaultManifestConcurrency,
		Fuel:                domain.DefaultFuelParams,
	}
}

// OptimizeRequest is one run of the pipeline over a stop set.
type OptimizeRequest struct {
	Stops []domain.Stop
	// UserOrder is the driver's own visiting order; nil means input order.
	UserOrder []int
	// Start is the stop the optimized route begins at; nil means the first
	// stop of UserOrder.
	Start        *int
	Closed       bool
	Metric       domain.Metric
	Fuel         *domain.FuelParams
	SkipManifest bool
}

// OptimizeResult carries everything a run produced. Soft problems are reported in
// Status; only hard failures surface as errors.
type OptimizeResult struct {
	RunID      string
	Stops      []domain.Stop
	UserOrder  domain.Route
	Initial    domain.Route
	Route      domain.Route
	Refinement RefineResult
	Savings    domain.SavingsReport
	Manifest   *domain.Manifest
	Status     domain.Status
}

// Optimizer runs matrix → nearest neighbour → local search → savings → manifest
// for one request at a time. It holds no per-request state and is safe for
// concurrent use.
type Optimizer struct {
	matrices   ports.MatrixProvider
	directions ports.DirectionsProvider
	refiner    *Refiner
	opts       OptimizerOptions
}

// directions may be nil, in which case no manifest is produced.
func NewOptimizer(matrices ports.MatrixProvider, directions ports.DirectionsProvider, opts OptimizerOptions) *Optimizer {
	if opts.Fuel.MPG <= 0 {
		opts.Fuel = domain.DefaultFuelParams
	}
	if opts.ManifestConcurrency <= 0 {
		opts.ManifestConcurrency = defaultManifestConcurrency
	}
	return &Optimizer{
		matrices:   matrices,
		directions: directions,
		refiner:    NewRefiner(opts.Refine),
		opts:       opts,
	}
}

func (o *Optimizer) Optimize(ctx context.Context, req OptimizeRequest) (_ OptimizeResult, err error) {
	runID := uuid.NewString()
	if obs.RequestID(ctx) == "" {
		ctx = obs.WithRequestID(ctx, runID)
	}
	defer obs.Time(ctx, "optimize.Run")(&err)
	defer func() { metrics.Optimizations.WithLabelValues(outcomeLabel(err)).Inc() }()

	if o.matrices == nil {
		return OptimizeResult{}, errors.New("optimize: matrix provider is nil")
	}
	if err := domain.ValidateStops(req.Stops); err != nil {
		return OptimizeResult{}, fmt.Errorf("optimize: %w", err)
	}
	metric, err := domain.ParseMetric(string(req.Metric))
	if err != nil {
		return OptimizeResult{}, fmt.Errorf("optimize: %w", err)
	}

	n := len(req.Stops)
	userOrder := domain.IdentityRoute(n, req.Closed)
	if req.UserOrder != nil {
		userOrder = domain.Route{Stops: append([]int(nil), req.UserOrder...), Closed: req.Closed}
	}
	if err := userOrder.Validate(n); err != nil {
		return OptimizeResult{}, fmt.Errorf("optimize: user order: %w", err)
	}
	start := userOrder.Stops[0]
	if req.Start != nil {
		start = *req.Start
		if start < 0 || start >= n {
			return OptimizeResult{}, fmt.Errorf("%w: optimize: start %d outside [0, %d)", domain.ErrInvalidInput, start, n)
		}
	}

	m, err := o.matrices.GetMatrix(ctx, domain.StopCoordinates(req.Stops))
	if err != nil {
		return OptimizeResult{}, fmt.Errorf("optimize: %w", err)
	}
	w, err := m.Weights(metric)
	if err != nil {
		return OptimizeResult{}, fmt.Errorf("optimize: %w", err)
	}

	initial, err := NearestNeighborRoute(w, start, req.Closed)
	if err != nil {
		return OptimizeResult{}, fmt.Errorf("optimize: %w", err)
	}

	refined, err := o.refiner.Refine(w, initial)
	if err != nil {
		return OptimizeResult{}, fmt.Errorf("optimize: %w", err)
	}
	metrics.RefineMoves.Observe(float64(refined.Iterations))

	fuel := o.opts.Fuel
	if req.Fuel != nil {
		fuel = *req.Fuel
	}
	report, err := AnalyzeSavings(m, metric, userOrder, refined.Route, &fuel)
	if err != nil {
		return OptimizeResult{}, fmt.Errorf("optimize: %w", err)
	}
	userOrder.Degenerate = report.BaselineUnreachableLegs > 0
	if report.Comparable {
		metrics.SavingsPercent.Observe(report.PercentSaving)
	}

	res := OptimizeResult{
		RunID:      runID,
		Stops:      req.Stops,
		UserOrder:  userOrder,
		Initial:    initial,
		Route:      refined.Route,
		Refinement: refined,
		Savings:    report,
	}

	if o.directions != nil && !req.SkipManifest {
		manifest, err := GenerateManifest(ctx, req.Stops, refined.Route, m, o.directions, o.opts.ManifestConcurrency)
		if err != nil {
			return OptimizeResult{}, fmt.Errorf("optimize: %w", err)
		}
		res.Manifest = &manifest
	}

	res.Status = buildStatus(res)

	zap.L().Info("optimization complete",
		zap.String("run_id", runID),
		zap.String("req_id", obs.RequestID(ctx)),
		zap.Int("stops", n),
		zap.String("metric", string(metric)),
		zap.String("state", string(refined.State)),
		zap.Int("moves", refined.Iterations),
		zap.Float64("baseline_cost", report.BaselineCost),
		zap.Float64("optimized_cost", report.OptimizedCost),
		zap.Float64("percent_saving", report.PercentSaving),
		zap.Strings("warnings", res.Status.Warnings),
	)

	return res, nil
}

func buildStatus(res OptimizeResult) domain.Status {
	st := domain.Status{
		Degenerate: res.Route.Degenerate,
		Capped:     res.Refinement.State == StateCapped,
	}
	if res.Manifest != nil {
		st.PartialManifest = res.Manifest.Partial
	}

	if st.Degenerate {
		st.Warnings = append(st.Warnings,
			fmt.Sprintf("route crosses %d unreachable leg(s)", res.Savings.OptimizedUnreachableLegs))
	}
	if st.Capped {
		st.Warnings = append(st.Warnings,
			fmt.Sprintf("local search stopped after %d moves with improvements remaining", res.Refinement.Iterations))
	}
	if !res.Savings.Comparable {
		st.Warnings = append(st.Warnings, "savings are not comparable: a route needs an unreachable leg")
	}
	if st.PartialManifest {
		failed := 0
		for _, l := range res.Manifest.Legs {
			if l.Unavailable {
				failed++
			}
		}
		st.Warnings = append(st.Warnings, fmt.Sprintf("directions unavailable for %d leg(s)", failed))
	}
	return st
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if pe, ok := domain.AsProviderError(err); ok {
		return "provider_" + string(pe.Category)
	}
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	return "error"
}
