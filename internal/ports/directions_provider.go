package ports

import (
	"context"
	"route-optimizer-service/internal/domain"
)

// Contract for per-leg turn-by-turn directions between two points.
type DirectionsProvider interface {
	GetDirections(ctx context.Context, from, to domain.Coordinates) (domain.LegDirections, error)
}
