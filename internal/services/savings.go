package services

import (
	"fmt"
	"math"
	"route-optimizer-service/internal/domain"
)

const metersPerMile = 1609.344

// AnalyzeSavings prices the user's order and the optimized order on the same
// matrix and derives absolute and percentage savings.
//
// A negative saving means the heuristic did worse than the user's order; it is
// returned unchanged. A zero baseline yields 0%. When either route needs an
// unreachable leg the report is marked not comparable.
func AnalyzeSavings(
	m *domain.CostMatrix,
	metric domain.Metric,
	userOrder domain.Route,
	optimized domain.Route,
	fuel *domain.FuelParams,
) (domain.SavingsReport, error) {
	if m == nil {
		return domain.SavingsReport{}, fmt.Errorf("%w: analyze savings: matrix is nil", domain.ErrInvalidInput)
	}
	if err := userOrder.Validate(m.Size); err != nil {
		return domain.SavingsReport{}, fmt.Errorf("analyze savings: user order: %w", err)
	}
	if err := optimized.Validate(m.Size); err != nil {
		return domain.SavingsReport{}, fmt.Errorf("analyze savings: optimized route: %w", err)
	}
	if userOrder.Closed != optimized.Closed {
		return domain.SavingsReport{}, fmt.Errorf("%w: analyze savings: user order and optimized route disagree on closure", domain.ErrInvalidInput)
	}

	w, err := m.Weights(metric)
	if err != nil {
		return domain.SavingsReport{}, fmt.Errorf("analyze savings: %w", err)
	}
	if metric == "" {
		metric = domain.MetricDuration
	}

	report := domain.SavingsReport{
		Metric:                   metric,
		BaselineCost:             w.RouteCost(userOrder),
		OptimizedCost:            w.RouteCost(optimized),
		BaselineUnreachableLegs:  w.UnreachableLegs(userOrder),
		OptimizedUnreachableLegs: w.UnreachableLegs(optimized),
	}

	report.Comparable = !math.IsInf(report.BaselineCost, 0) && !math.IsInf(report.OptimizedCost, 0)
	if report.Comparable {
		report.Saving = report.BaselineCost - report.OptimizedCost
		report.PercentSaving = percent(report.Saving, report.BaselineCost)
	}

	if m.Distances != nil {
		dw := domain.Weights(m.Distances)
		base := dw.RouteCost(userOrder)
		opt := dw.RouteCost(optimized)
		if !math.IsInf(base, 0) && !math.IsInf(opt, 0) {
			report.BaselineDistanceMeters = &base
			report.OptimizedDistanceMeters = &opt

			if fuel != nil {
				fs, err := fuelSavings(base, opt, *fuel)
				if err != nil {
					return domain.SavingsReport{}, fmt.Errorf("analyze savings: %w", err)
				}
				report.Fuel = &fs
			}
		}
	}

	return report, nil
}

func percent(saving, baseline float64) float64 {
	if baseline == 0 {
		return 0
	}
	return saving / baseline * 100
}

func fuelSavings(baseMeters, optMeters float64, p domain.FuelParams) (domain.FuelSavings, error) {
	if p.MPG <= 0 || p.PricePerGallon < 0 {
		return domain.FuelSavings{}, fmt.Errorf("%w: fuel params mpg=%v price=%v", domain.ErrInvalidInput, p.MPG, p.PricePerGallon)
	}

	fs := domain.FuelSavings{
		BaselineGallons:  baseMeters / metersPerMile / p.MPG,
		OptimizedGallons: optMeters / metersPerMile / p.MPG,
	}
	fs.BaselineCost = fs.BaselineGallons * p.PricePerGallon
	fs.OptimizedCost = fs.OptimizedGallons * p.PricePerGallon
	fs.Saving = fs.BaselineCost - fs.OptimizedCost
	return fs, nil
}
