package domain

import "fmt"

// Bounds on the stop set accepted for a single optimization run.
const (
	MinStops = 2
	MaxStops = 20
)

// Represents a single delivery stop. Index is its stable position (0..N-1) in the
// request; a Stop is never modified once a run has started.
type Stop struct {
	Index       int
	Coordinates Coordinates
	Label       string
}

// ValidateStops checks the stop-set size and every coordinate. It performs no I/O.
func ValidateStops(stops []Stop) error {
	if len(stops) < MinStops || len(stops) > MaxStops {
		return fmt.Errorf("%w: stop count %d outside [%d, %d]", ErrInvalidInput, len(stops), MinStops, MaxStops)
	}
	for i, s := range stops {
		if s.Index != i {
			return fmt.Errorf("%w: stop at position %d has index %d", ErrInvalidInput, i, s.Index)
		}
		if err := s.Coordinates.Validate(); err != nil {
			return fmt.Errorf("stop %d: %w", i, err)
		}
	}
	return nil
}

// NewStops assigns stable indices to a list of coordinates.
func NewStops(coords []Coordinates, labels []string) []Stop {
	stops := make([]Stop, len(coords))
	for i, c := range coords {
		stops[i] = Stop{Index: i, Coordinates: c}
		if i < len(labels) {
			stops[i].Label = labels[i]
		}
	}
	return stops
}

// StopCoordinates returns the coordinates of stops in index order.
func StopCoordinates(stops []Stop) []Coordinates {
	out := make([]Coordinates, len(stops))
	for i, s := range stops {
		out[i] = s.Coordinates
	}
	return out
}
