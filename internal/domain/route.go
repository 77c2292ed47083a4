package domain

import (
	"fmt"
	"slices"
)

// Represents an ordered visiting sequence over a stop set.
// Stops is a permutation of 0..N-1. A closed route returns from its last stop to
// Stops[0]. Each pipeline stage produces a new Route from its input rather than
// mutating a Route it does not own.
type Route struct {
	Stops  []int `json:"stops"`
	Closed bool  `json:"closed"`
	// Degenerate is set when the route is forced through at least one unreachable leg.
	Degenerate bool `json:"degenerate"`
}

// Leg is one directed hop between two stop indices.
type Leg struct {
	From int
	To   int
}

// IdentityRoute visits stops in input order.
func IdentityRoute(n int, closed bool) Route {
	stops := make([]int, n)
	for i := range stops {
		stops[i] = i
	}
	return Route{Stops: stops, Closed: closed}
}

func (r Route) Len() int { return len(r.Stops) }

// Clone returns a deep copy that shares no backing array with r.
func (r Route) Clone() Route {
	return Route{Stops: slices.Clone(r.Stops), Closed: r.Closed, Degenerate: r.Degenerate}
}

// Legs lists consecutive pairs, plus the closing pair when the route is closed.
func (r Route) Legs() []Leg {
	n := len(r.Stops)
	if n < 2 {
		return nil
	}
	legs := make([]Leg, 0, n)
	for i := 0; i < n-1; i++ {
		legs = append(legs, Leg{From: r.Stops[i], To: r.Stops[i+1]})
	}
	if r.Closed {
		legs = append(legs, Leg{From: r.Stops[n-1], To: r.Stops[0]})
	}
	return legs
}

// Validate checks that r covers each of 0..n-1 exactly once.
func (r Route) Validate(n int) error {
	if len(r.Stops) != n {
		return fmt.Errorf("%w: route has %d stops, want %d", ErrInvalidInput, len(r.Stops), n)
	}
	seen := make([]bool, n)
	for pos, s := range r.Stops {
		if s < 0 || s >= n {
			return fmt.Errorf("%w: route position %d references stop %d outside [0, %d)", ErrInvalidInput, pos, s, n)
		}
		if seen[s] {
			return fmt.Errorf("%w: route visits stop %d more than once", ErrInvalidInput, s)
		}
		seen[s] = true
	}
	return nil
}

// Equal compares visiting order and closure.
func (r Route) Equal(o Route) bool {
	return r.Closed == o.Closed && slices.Equal(r.Stops, o.Stops)
}
