package domain

import (
	"fmt"
	"math"
)

// Unreachable marks a matrix cell the provider could not route. It is distinct
// from zero and must be read as infinite cost.
const Unreachable = -1.0

// Metric selects which matrix drives optimization.
type Metric string

const (
	MetricDuration Metric = "duration"
	MetricDistance Metric = "distance"
)

func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case "", MetricDuration:
		return MetricDuration, nil
	case MetricDistance:
		return MetricDistance, nil
	}
	return "", fmt.Errorf("%w: unknown metric %q", ErrInvalidInput, s)
}

// CostMatrix holds pairwise travel durations (seconds) and distances (meters) for
// N stops. Distances may be nil when the provider only reports time. It is built
// once per run and treated as read-only afterwards.
type CostMatrix struct {
	Size      int         `json:"size"`
	Durations [][]float64 `json:"durations"`
	Distances [][]float64 `json:"distances,omitempty"`
}

// NewCostMatrix allocates an n×n matrix with zero diagonal and every other cell
// Unreachable, so that cells a provider never fills stay unusable.
func NewCostMatrix(n int, withDistances bool) *CostMatrix {
	m := &CostMatrix{Size: n, Durations: newGrid(n)}
	if withDistances {
		m.Distances = newGrid(n)
	}
	return m
}

func newGrid(n int) [][]float64 {
	g := make([][]float64, n)
	for i := range g {
		g[i] = make([]float64, n)
		for j := range g[i] {
			if i != j {
				g[i][j] = Unreachable
			}
		}
	}
	return g
}

// Validate enforces the matrix invariants: square, zero diagonal, and every other
// cell finite and non-negative or exactly Unreachable.
func (m *CostMatrix) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: cost matrix is nil", ErrInvalidInput)
	}
	if err := validateGrid("durations", m.Durations, m.Size); err != nil {
		return err
	}
	if m.Distances != nil {
		if err := validateGrid("distances", m.Distances, m.Size); err != nil {
			return err
		}
	}
	return nil
}

func validateGrid(name string, g [][]float64, n int) error {
	if len(g) != n {
		return fmt.Errorf("%w: %s has %d rows, want %d", ErrInvalidInput, name, len(g), n)
	}
	for i, row := range g {
		if len(row) != n {
			return fmt.Errorf("%w: %s row %d has %d columns, want %d", ErrInvalidInput, name, i, len(row), n)
		}
		for j, v := range row {
			if i == j {
				if v != 0 {
					return fmt.Errorf("%w: %s[%d][%d] = %v, diagonal must be zero", ErrInvalidInput, name, i, j, v)
				}
				continue
			}
			if v == Unreachable {
				continue
			}
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return fmt.Errorf("%w: %s[%d][%d] = %v is not a finite non-negative cost", ErrInvalidInput, name, i, j, v)
			}
		}
	}
	return nil
}

// Weights returns the grid for the chosen metric.
func (m *CostMatrix) Weights(metric Metric) (Weights, error) {
	switch metric {
	case "", MetricDuration:
		return Weights(m.Durations), nil
	case MetricDistance:
		if m.Distances == nil {
			return nil, fmt.Errorf("%w: matrix carries no distances", ErrInvalidInput)
		}
		return Weights(m.Distances), nil
	}
	return nil, fmt.Errorf("%w: unknown metric %q", ErrInvalidInput, metric)
}

// Permute returns a new matrix whose row/column i is row/column perm[i] of m.
// perm may select a subset of m's stops; the result is len(perm)×len(perm).
func (m *CostMatrix) Permute(perm []int) *CostMatrix {
	out := &CostMatrix{Size: len(perm), Durations: permuteGrid(m.Durations, perm)}
	if m.Distances != nil {
		out.Distances = permuteGrid(m.Distances, perm)
	}
	return out
}

func permuteGrid(g [][]float64, perm []int) [][]float64 {
	out := make([][]float64, len(perm))
	for i, pi := range perm {
		out[i] = make([]float64, len(perm))
		for j, pj := range perm {
			out[i][j] = g[pi][pj]
		}
	}
	return out
}

// Weights is a read-only N×N cost view. Cells equal to Unreachable are infinite.
type Weights [][]float64

func (w Weights) Size() int { return len(w) }

func (w Weights) Reachable(i, j int) bool { return w[i][j] != Unreachable }

// Leg returns the cost of i→j, or +Inf when the pair is unreachable.
func (w Weights) Leg(i, j int) float64 {
	if !w.Reachable(i, j) {
		return math.Inf(1)
	}
	return w[i][j]
}

// RouteCost sums consecutive legs (plus the closing leg for a closed route).
// Any unreachable leg makes the total +Inf.
func (w Weights) RouteCost(r Route) float64 {
	total := 0.0
	for _, l := range r.Legs() {
		total += w.Leg(l.From, l.To)
	}
	return total
}

// UnreachableLegs counts the legs of r that the provider marked unreachable.
func (w Weights) UnreachableLegs(r Route) int {
	n := 0
	for _, l := range r.Legs() {
		if !w.Reachable(l.From, l.To) {
			n++
		}
	}
	return n
}
