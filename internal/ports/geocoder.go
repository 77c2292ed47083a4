package ports

import (
	"context"
	"route-optimizer-service/internal/domain"
)

// Resolves free-text addresses to coordinates.
type Geocoder interface {
	// Return coordinates keyed by the normalized address.
	GeocodeMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error)
}

// Port: address -> coordinate cache.
type GeocodeCache interface {
	GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error)
	PutMany(ctx context.Context, results map[string]domain.Coordinates) error
}
