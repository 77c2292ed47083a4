package services

import (
	"fmt"
	"math"
	"route-optimizer-service/internal/domain"
)

// Build an initial route using a greedy nearest-neighbor algorithm.
//
// The algorithm minimizes immediate travel cost at each step, starting from the
// depot at start. Ties go to the lowest stop index so output is deterministic.
// When every remaining stop is unreachable from the current one, the lowest-index
// unvisited stop is appended anyway and the route is flagged degenerate: the
// result is always a full permutation.
func NearestNeighborRoute(w domain.Weights, start int, closed bool) (domain.Route, error) {
	n := w.Size()
	if n < 1 {
		return domain.Route{}, fmt.Errorf("%w: nearest neighbor: empty matrix", domain.ErrInvalidInput)
	}
	if start < 0 || start >= n {
		return domain.Route{}, fmt.Errorf("%w: nearest neighbor: start index %d outside [0, %d)", domain.ErrInvalidInput, start, n)
	}

	visited := make([]bool, n)
	stops := make([]int, 0, n)
	stops = append(stops, start)
	visited[start] = true
	degenerate := false

	current := start
	for len(stops) < n {
		best := -1
		bestCost := math.Inf(1)

		// Ascending scan with strict comparison keeps the lowest index on ties.
		for d := 0; d < n; d++ {
			if visited[d] || !w.Reachable(current, d) {
				continue
			}
			if c := w[current][d]; c < bestCost {
				bestCost = c
				best = d
			}
		}

		if best == -1 {
			for d := 0; d < n; d++ {
				if !visited[d] {
					best = d
					break
				}
			}
			degenerate = true
		}

		stops = append(stops, best)
		visited[best] = true
		current = best
	}

	if closed && n > 1 && !w.Reachable(current, start) {
		degenerate = true
	}

	return domain.Route{Stops: stops, Closed: closed, Degenerate: degenerate}, nil
}
