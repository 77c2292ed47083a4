package ports

import (
	"context"
	"route-optimizer-service/internal/domain"
)

// Contract for obtaining an N×N travel cost matrix from an external routing source.
// Implementations return a complete matrix or a *domain.ProviderError; they never
// return a partially filled matrix.
type MatrixProvider interface {
	GetMatrix(ctx context.Context, coords []domain.Coordinates) (*domain.CostMatrix, error)
}

// MatrixSource is implemented by providers whose matrices depend on more than
// the stops (service, routing profile, speed model). Source must change whenever
// the same stops would be priced differently; cached matrices are keyed by it.
type MatrixSource interface {
	Source() string
}
