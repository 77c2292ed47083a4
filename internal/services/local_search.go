package services

import (
	"fmt"
	"route-optimizer-service/internal/domain"
	"slices"
)

// RefineState tracks where a route is in local search.
type RefineState string

const (
	StateConstructed RefineState = "constructed"
	StateRefining    RefineState = "refining"
	// No improving move remains.
	StateConverged RefineState = "converged"
	// The move budget ran out while an improving move was still available.
	StateCapped RefineState = "capped"
)

// RefineOptions tunes the local search. Zero numeric fields fall back to defaults.
type RefineOptions struct {
	// Accepted-move budget is IterationFactor·N², bounded by MaxIterations.
	IterationFactor int
	MaxIterations   int
	OrOpt           bool
	Eps             float64
}

func DefaultRefineOptions() RefineOptions {
	return RefineOptions{
		IterationFactor: 10,
		MaxIterations:   5000,
		OrOpt:           true,
		Eps:             1e-9,
	}
}

func (o RefineOptions) budget(n int) int {
	factor := o.IterationFactor
	if factor <= 0 {
		factor = DefaultRefineOptions().IterationFactor
	}
	limit := o.MaxIterations
	if limit <= 0 {
		limit = DefaultRefineOptions().MaxIterations
	}
	return min(factor*n*n, limit)
}

// RefineResult is the outcome of one local search run.
type RefineResult struct {
	Route       domain.Route
	State       RefineState
	InitialCost float64
	FinalCost   float64
	Iterations  int
	TwoOptMoves int
	OrOptMoves  int
	Passes      int
}

// Refiner improves a route with 2-opt segment reversals followed by Or-opt
// single-stop relocations. The stop at position 0 (the depot) never moves.
// A Refiner holds only configuration and is safe for concurrent use.
type Refiner struct {
	opts RefineOptions
}

func NewRefiner(opts RefineOptions) *Refiner {
	if opts.Eps < 0 {
		opts.Eps = 0
	}
	return &Refiner{opts: opts}
}

// search is the per-run state. Unreachable legs are priced at penalty, which is
// larger than any route made only of reachable legs, so the search never trades
// a reachable leg for an unreachable one unless the unreachable count drops.
type search struct {
	w       domain.Weights
	penalty float64
	eps     float64
	budget  int

	state      RefineState
	stops      []int
	closed     bool
	cost       float64
	iterations int
	twoOpt     int
	orOpt      int
	passes     int
}

func newSearch(w domain.Weights, r domain.Route, opts RefineOptions) *search {
	penalty := 1.0
	for i := range w {
		for j := range w[i] {
			if i != j && w.Reachable(i, j) {
				penalty += w[i][j]
			}
		}
	}

	s := &search{
		w:       w,
		penalty: penalty,
		eps:     opts.Eps,
		budget:  opts.budget(w.Size()),
		state:   StateConstructed,
		stops:   slices.Clone(r.Stops),
		closed:  r.Closed,
	}
	s.cost = s.routeCost(s.stops)
	return s
}

func (s *search) leg(i, j int) float64 {
	if !s.w.Reachable(i, j) {
		return s.penalty
	}
	return s.w[i][j]
}

func (s *search) routeCost(stops []int) float64 {
	total := 0.0
	for i := 0; i < len(stops)-1; i++ {
		total += s.leg(stops[i], stops[i+1])
	}
	if s.closed && len(stops) > 1 {
		total += s.leg(stops[len(stops)-1], stops[0])
	}
	return total
}

// try applies candidate if it is strictly cheaper. capped reports that an
// improving move existed but the budget was already spent.
func (s *search) try(candidate []int) (applied, capped bool) {
	c := s.routeCost(candidate)
	if c >= s.cost-s.eps {
		return false, false
	}
	if s.iterations >= s.budget {
		return false, true
	}
	s.stops = candidate
	s.cost = c
	s.iterations++
	return true, false
}

// twoOptPass scans every segment [i..k], 1 ≤ i < k ≤ N-1, in ascending order and
// reverses it when that strictly lowers the full route cost. The full cost is
// recomputed so asymmetric matrices are priced correctly.
func (s *search) twoOptPass() (improved, capped bool) {
	n := len(s.stops)
	for i := 1; i < n-1; i++ {
		for k := i + 1; k < n; k++ {
			candidate := slices.Clone(s.stops)
			slices.Reverse(candidate[i : k+1])

			applied, stop := s.try(candidate)
			if stop {
				return improved, true
			}
			if applied {
				s.twoOpt++
				improved = true
			}
		}
	}
	return improved, false
}

// orOptPass relocates the stop at position i to position j (both ≥ 1).
func (s *search) orOptPass() (improved, capped bool) {
	n := len(s.stops)
	for i := 1; i < n; i++ {
		for j := 1; j < n; j++ {
			if i == j {
				continue
			}
			candidate := relocate(s.stops, i, j)

			applied, stop := s.try(candidate)
			if stop {
				return improved, true
			}
			if applied {
				s.orOpt++
				improved = true
			}
		}
	}
	return improved, false
}

// relocate returns a copy of stops with the element at from moved to index to
// of the resulting slice.
func relocate(stops []int, from, to int) []int {
	moved := stops[from]
	out := make([]int, 0, len(stops))
	out = append(out, stops[:from]...)
	out = append(out, stops[from+1:]...)
	return slices.Insert(out, to, moved)
}

// Refine runs local search from initial until no improving move remains or the
// move budget is exhausted. The returned route never costs more than initial.
func (r *Refiner) Refine(w domain.Weights, initial domain.Route) (RefineResult, error) {
	if err := initial.Validate(w.Size()); err != nil {
		return RefineResult{}, fmt.Errorf("refine route: %w", err)
	}

	s := newSearch(w, initial, r.opts)
	initialCost := w.RouteCost(initial)
	s.state = StateRefining

	for s.state == StateRefining {
		s.passes++

		improved, capped := s.twoOptPass()
		if !capped && r.opts.OrOpt {
			var orImproved bool
			orImproved, capped = s.orOptPass()
			improved = improved || orImproved
		}

		switch {
		case capped:
			s.state = StateCapped
		case !improved:
			s.state = StateConverged
		}
	}

	route := domain.Route{Stops: s.stops, Closed: s.closed}
	route.Degenerate = w.UnreachableLegs(route) > 0

	return RefineResult{
		Route:       route,
		State:       s.state,
		InitialCost: initialCost,
		FinalCost:   w.RouteCost(route),
		Iterations:  s.iterations,
		TwoOptMoves: s.twoOpt,
		OrOptMoves:  s.orOpt,
		Passes:      s.passes,
	}, nil
}
