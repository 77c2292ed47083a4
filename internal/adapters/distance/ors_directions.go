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

type directionsRequest struct {
	Coordinates  [][]float64 `json:"coordinates"`
	Instructions bool        `json:"instructions"`
	Units        string      `json:"units"`
}

type directionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
		Segments []struct {
			Steps []struct {
				Instruction string  `json:"instruction"`
				Name        string  `json:"name"`
				Distance    float64 `json:"distance"`
				Duration    float64 `json:"duration"`
			} `json:"steps"`
		} `json:"segments"`
		Geometry string `json:"geometry"`
	} `json:"routes"`
}

// GetDirections fetches turn-by-turn directions for a single leg.
func (o *ORSProvider) GetDirections(
	ctx context.Context,
	from domain.Coordinates,
	to domain.Coordinates,
) (_ domain.LegDirections, err error) {
	defer obs.Time(ctx, "ors.GetDirections")(&err)

	if err := from.Validate(); err != nil {
		return domain.LegDirections{}, fmt.Errorf("ors directions: origin: %w", err)
	}
	if err := to.Validate(); err != nil {
		return domain.LegDirections{}, fmt.Errorf("ors directions: destination: %w", err)
	}

	payload, err := json.Marshal(directionsRequest{
		Coordinates:  [][]float64{from.CoordsToList(), to.CoordsToList()},
		Instructions: true,
		Units:        "m",
	})
	if err != nil {
		return domain.LegDirections{}, fmt.Errorf("marshal directions request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/directions/%s/json", o.baseURL, o.profile)

	resp, err := o.doWithRetry(ctx, "directions", func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return domain.LegDirections{}, fmt.Errorf("directions request failed: %w", err)
	}
	defer resp.Body.Close()

	var dr directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return domain.LegDirections{}, fmt.Errorf("decode directions response: %w", err)
	}
	if len(dr.Routes) == 0 {
		return domain.LegDirections{}, &domain.ProviderError{
			Category: domain.CategoryUnreachable,
			Op:       "ors directions",
			Err:      fmt.Errorf("no route between %s and %s", from.Key(), to.Key()),
		}
	}

	route := dr.Routes[0]
	out := domain.LegDirections{
		DistanceMeters:  route.Summary.Distance,
		DurationSeconds: route.Summary.Duration,
		Geometry:        route.Geometry,
	}
	for _, seg := range route.Segments {
		for _, step := range seg.Steps {
			out.Instructions = append(out.Instructions, domain.Instruction{
				Text:            step.Instruction,
				Name:            step.Name,
				DistanceMeters:  step.Distance,
				DurationSeconds: step.Duration,
			})
		}
	}

	return out, nil
}
