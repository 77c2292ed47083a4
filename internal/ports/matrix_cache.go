package ports

import (
	"context"
	"route-optimizer-service/internal/domain"
)

// Port: a fingerprint-keyed store of cost matrices.
// The fingerprint identifies an unordered stop set; matrices are stored in the
// canonical order that produced the fingerprint.
type MatrixCache interface {
	// Return the cached matrix, or ok=false on a miss.
	Get(ctx context.Context, fingerprint string) (m *domain.CostMatrix, ok bool, err error)
	Put(ctx context.Context, fingerprint string, m *domain.CostMatrix) error
	// Drop an entry, e.g. when a stop in the set was moved.
	Invalidate(ctx context.Context, fingerprint string) error
}
