package services

import (
	"context"
	"fmt"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/platform/obs"
	"route-optimizer-service/internal/ports"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultManifestConcurrency = 4

// GenerateManifest maps the final route to per-leg directions.
//
// Lookups for different legs are independent and may run concurrently; each
// result is written to its own slot so the manifest keeps route order. A failed
// lookup marks only that leg unavailable (falling back to matrix figures) and
// sets Manifest.Partial. Only cancellation of ctx aborts the whole manifest.
func GenerateManifest(
	ctx context.Context,
	stops []domain.Stop,
	route domain.Route,
	m *domain.CostMatrix,
	directions ports.DirectionsProvider,
	concurrency int,
) (_ domain.Manifest, err error) {
	defer obs.Time(ctx, "manifest.Generate")(&err)

	if err := route.Validate(len(stops)); err != nil {
		return domain.Manifest{}, fmt.Errorf("generate manifest: %w", err)
	}
	if directions == nil {
		return domain.Manifest{}, fmt.Errorf("%w: generate manifest: directions provider is nil", domain.ErrInvalidInput)
	}
	if concurrency <= 0 {
		concurrency = defaultManifestConcurrency
	}

	routeLegs := route.Legs()
	legs := make([]domain.ManifestLeg, len(routeLegs))

	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, l := range routeLegs {
		g.Go(func() error {
			leg := domain.ManifestLeg{Seq: i + 1, FromStop: l.From, ToStop: l.To}

			d, lookupErr := directions.GetDirections(ctx, stops[l.From].Coordinates, stops[l.To].Coordinates)
			if lookupErr != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			if lookupErr != nil {
				zap.L().Warn("directions lookup failed",
					zap.Int("seq", leg.Seq), zap.Int("from", l.From), zap.Int("to", l.To), zap.Error(lookupErr))
				leg.Unavailable = true
				leg.Error = lookupErr.Error()
				leg.DurationSeconds, leg.DistanceMeters = matrixFallback(m, l)
			} else {
				leg.DistanceMeters = d.DistanceMeters
				leg.DurationSeconds = d.DurationSeconds
				leg.Instructions = d.Instructions
				leg.Geometry = d.Geometry
			}

			legs[i] = leg
			return nil
		})
	}
	// Lookups only fail the group on cancellation; other errors become
	// unavailable legs above.
	if err := g.Wait(); err != nil {
		return domain.Manifest{}, fmt.Errorf("generate manifest: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return domain.Manifest{}, fmt.Errorf("generate manifest: %w", err)
	}

	manifest := domain.Manifest{Legs: legs}
	for _, l := range legs {
		if l.Unavailable {
			manifest.Partial = true
			break
		}
	}
	return manifest, nil
}

func matrixFallback(m *domain.CostMatrix, l domain.Leg) (duration, distance float64) {
	if m == nil {
		return 0, 0
	}
	if v := m.Durations[l.From][l.To]; v != domain.Unreachable {
		duration = v
	}
	if m.Distances != nil {
		if v := m.Distances[l.From][l.To]; v != domain.Unreachable {
			distance = v
		}
	}
	return duration, distance
}
