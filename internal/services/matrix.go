package services

import (
	"context"
	"errors"
	"fmt"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/platform/metrics"
	"route-optimizer-service/internal/platform/obs"
	"route-optimizer-service/internal/ports"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultProviderTimeout bounds a single matrix fetch.
const DefaultProviderTimeout = 10 * time.Second

// MatrixService fronts a MatrixProvider with input validation, a timeout, a
// single-flight guard per stop set and an optional fingerprint-keyed cache.
//
// Matrices are fetched and cached in canonical stop order and permuted into the
// caller's order on the way out, so a cached entry serves any ordering of the
// same stops. The service is safe for concurrent use.
type MatrixService struct {
	provider ports.MatrixProvider
	// Folded into every fingerprint; see ports.MatrixSource.
	source  string
	cache   ports.MatrixCache
	timeout time.Duration
	group   singleflight.Group
}

func NewMatrixService(provider ports.MatrixProvider, cache ports.MatrixCache, timeout time.Duration) *MatrixService {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	var source string
	if ms, ok := provider.(ports.MatrixSource); ok {
		source = ms.Source()
	}
	return &MatrixService{provider: provider, source: source, cache: cache, timeout: timeout}
}

// GetMatrix returns the cost matrix for coords in the given order. The returned
// matrix is owned by the caller.
func (s *MatrixService) GetMatrix(ctx context.Context, coords []domain.Coordinates) (_ *domain.CostMatrix, err error) {
	defer obs.Time(ctx, "matrix.GetMatrix")(&err)

	if s.provider == nil {
		return nil, errors.New("get matrix: provider is nil")
	}
	if len(coords) < domain.MinStops || len(coords) > domain.MaxStops {
		return nil, fmt.Errorf("%w: get matrix: stop count %d outside [%d, %d]",
			domain.ErrInvalidInput, len(coords), domain.MinStops, domain.MaxStops)
	}
	for i, c := range coords {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("get matrix: stop %d: %w", i, err)
		}
	}

	fp, order := Fingerprint(s.source, coords)
	canonical := make([]domain.Coordinates, len(order))
	for p, idx := range order {
		canonical[p] = coords[idx]
	}

	// The shared fetch must outlive the first caller: detach it from that caller's
	// cancellation and give it its own deadline.
	loadCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(fp, func() (any, error) {
		return s.load(loadCtx, fp, canonical)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, contextError("get matrix", ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, fmt.Errorf("get matrix: %w", res.Err)
	}

	pos := make([]int, len(order))
	for p, idx := range order {
		pos[idx] = p
	}
	return res.Val.(*domain.CostMatrix).Permute(pos), nil
}

func (s *MatrixService) load(ctx context.Context, fp string, coords []domain.Coordinates) (*domain.CostMatrix, error) {
	if s.cache != nil {
		m, ok, err := s.cache.Get(ctx, fp)
		switch {
		case err != nil:
			metrics.MatrixCacheLookups.WithLabelValues("error").Inc()
			zap.L().Warn("matrix cache read failed", zap.String("fingerprint", fp), zap.Error(err))
		case ok && m.Size == len(coords) && m.Validate() == nil:
			metrics.MatrixCacheLookups.WithLabelValues("hit").Inc()
			return m, nil
		default:
			metrics.MatrixCacheLookups.WithLabelValues("miss").Inc()
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	m, err := s.provider.GetMatrix(ctx, coords)
	if err != nil {
		if _, ok := domain.AsProviderError(err); ok {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, contextError("fetch matrix", ctx.Err())
		}
		return nil, &domain.ProviderError{Category: domain.CategoryUnreachable, Op: "fetch matrix", Err: err}
	}

	if m == nil || m.Size != len(coords) {
		return nil, &domain.ProviderError{
			Category: domain.CategoryUnreachable,
			Op:       "fetch matrix",
			Err:      fmt.Errorf("provider returned matrix for %d stops, want %d", sizeOf(m), len(coords)),
		}
	}
	if err := m.Validate(); err != nil {
		return nil, &domain.ProviderError{Category: domain.CategoryUnreachable, Op: "fetch matrix", Err: err}
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, fp, m); err != nil {
			zap.L().Warn("matrix cache write failed", zap.String("fingerprint", fp), zap.Error(err))
		}
	}

	return m, nil
}

func sizeOf(m *domain.CostMatrix) int {
	if m == nil {
		return 0
	}
	return m.Size
}

// contextError turns a context failure into the caller-visible error: an expired
// deadline is a provider Timeout, a cancellation is returned as is.
func contextError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.ProviderError{Category: domain.Timeout, Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
