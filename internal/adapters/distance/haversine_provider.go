package distance

import (
	"context"
	"fmt"
	"math"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/ports"
)

const earthRadiusMeters = 6371008.8

// HaversineProvider estimates travel costs offline from great-circle distance.
// Distances are stretched by RoadFactor to approximate the street network and
// durations assume a constant SpeedKPH. Useful without an ORS key.
type HaversineProvider struct {
	SpeedKPH   float64
	RoadFactor float64
}

var (
	_ ports.MatrixProvider     = (*HaversineProvider)(nil)
	_ ports.DirectionsProvider = (*HaversineProvider)(nil)
	_ ports.MatrixSource       = (*HaversineProvider)(nil)
)

func NewHaversineProvider(speedKPH float64) *HaversineProvider {
	if speedKPH <= 0 {
		speedKPH = 40
	}
	return &HaversineProvider{SpeedKPH: speedKPH, RoadFactor: 1.3}
}

// Source names the speed model, so cached matrices do not outlive a speed change.
func (h *HaversineProvider) Source() string {
	return fmt.Sprintf("haversine/%g/%g", h.SpeedKPH, h.RoadFactor)
}

func (h *HaversineProvider) GetMatrix(ctx context.Context, coords []domain.Coordinates) (*domain.CostMatrix, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(coords) < domain.MinStops || len(coords) > domain.MaxStops {
		return nil, fmt.Errorf("%w: haversine matrix: stop count %d outside [%d, %d]",
			domain.ErrInvalidInput, len(coords), domain.MinStops, domain.MaxStops)
	}
	for i, c := range coords {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("haversine matrix: stop %d: %w", i, err)
		}
	}

	m := domain.NewCostMatrix(len(coords), true)
	for i := range coords {
		for j := range coords {
			if i == j {
				continue
			}
			meters, seconds := h.leg(coords[i], coords[j])
			m.Distances[i][j] = meters
			m.Durations[i][j] = seconds
		}
	}
	return m, nil
}

func (h *HaversineProvider) GetDirections(ctx context.Context, from, to domain.Coordinates) (domain.LegDirections, error) {
	if err := ctx.Err(); err != nil {
		return domain.LegDirections{}, err
	}
	meters, seconds := h.leg(from, to)
	return domain.LegDirections{
		DistanceMeters:  meters,
		DurationSeconds: seconds,
		Instructions: []domain.Instruction{{
			Text:            fmt.Sprintf("Head to %s", to.Key()),
			DistanceMeters:  meters,
			DurationSeconds: seconds,
		}},
	}, nil
}

func (h *HaversineProvider) leg(a, b domain.Coordinates) (meters, seconds float64) {
	factor := h.RoadFactor
	if factor <= 0 {
		factor = 1
	}
	speed := h.SpeedKPH
	if speed <= 0 {
		speed = 40
	}
	meters = Haversine(a, b) * factor
	seconds = meters / (speed * 1000 / 3600)
	return meters, seconds
}

// Haversine returns the great-circle distance in meters.
func Haversine(a, b domain.Coordinates) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }

	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	lat1, lat2 := toRad(a.Lat), toRad(b.Lat)

	s := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(s)))
}
