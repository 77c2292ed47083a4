package distance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/platform/obs"
)

type matrixRequest struct {
	Locations [][]float64 `json:"locations"`
	Metrics   []string    `json:"metrics"`
}

type matrixResponse struct {
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// GetMatrix retrieves the full N×N duration and distance matrix in one call to
// the OpenRouteService matrix endpoint. Cells ORS cannot route (null) become
// domain.Unreachable. A malformed response fails the whole call; no partial
// matrix is returned.
func (o *ORSProvider) GetMatrix(
	ctx context.Context,
	coords []domain.Coordinates,
) (_ *domain.CostMatrix, err error) {
	defer obs.Time(ctx, "ors.GetMatrix")(&err)

	if len(coords) < domain.MinStops || len(coords) > domain.MaxStops {
		return nil, fmt.Errorf("%w: ors matrix: stop count %d outside [%d, %d]",
			domain.ErrInvalidInput, len(coords), domain.MinStops, domain.MaxStops)
	}

	locations := make([][]float64, 0, len(coords))
	for i, c := range coords {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("ors matrix: stop %d: %w", i, err)
		}
		locations = append(locations, c.CoordsToList())
	}

	payload, err := json.Marshal(matrixRequest{
		Locations: locations,
		Metrics:   []string{"distance", "duration"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal matrix request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/matrix/%s", o.baseURL, o.profile)

	resp, err := o.doWithRetry(ctx, "matrix", func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return nil, fmt.Errorf("matrix request failed: %w", err)
	}
	defer resp.Body.Close()

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, &domain.ProviderError{
			Category: domain.CategoryUnreachable,
			Op:       "ors matrix",
			Err:      fmt.Errorf("decode matrix response: %w", err),
		}
	}

	n := len(coords)
	m := domain.NewCostMatrix(n, true)
	if err := fillGrid(m.Durations, mr.Durations, n); err != nil {
		return nil, &domain.ProviderError{Category: domain.CategoryUnreachable, Op: "ors matrix", Err: fmt.Errorf("durations: %w", err)}
	}
	if err := fillGrid(m.Distances, mr.Distances, n); err != nil {
		return nil, &domain.ProviderError{Category: domain.CategoryUnreachable, Op: "ors matrix", Err: fmt.Errorf("distances: %w", err)}
	}

	return m, nil
}

// fillGrid copies an ORS grid into dst, leaving null cells Unreachable.
func fillGrid(dst [][]float64, src [][]*float64, n int) error {
	if len(src) != n {
		return fmt.Errorf("expected %d rows, got %d", n, len(src))
	}
	for i, row := range src {
		if len(row) != n {
			return fmt.Errorf("row %d: expected %d columns, got %d", i, n, len(row))
		}
		for j, v := range row {
			if i == j || v == nil {
				continue
			}
			if *v < 0 {
				return fmt.Errorf("cell [%d][%d] is negative: %v", i, j, *v)
			}
			dst[i][j] = *v
		}
	}
	return nil
}
