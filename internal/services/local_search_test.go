package services

import (
	"fmt"
	"route-optimizer-service/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefineSquareIsAlreadyOptimal(t *testing.T) {
	w := domain.Weights(squareMatrix().Durations)
	initial, err := NearestNeighborRoute(w, 0, true)
	require.NoError(t, err)

	res, err := NewRefiner(DefaultRefineOptions()).Refine(w, initial)
	require.NoError(t, err)

	assert.Equal(t, StateConverged, res.State)
	assert.True(t, res.Route.Equal(initial))
	assert.Equal(t, 40.0, res.FinalCost)
	assert.Equal(t, 40.0, res.InitialCost)
	assert.Zero(t, res.Iterations)
	assert.Equal(t, 1, res.Passes)
}

func TestRefineFixesUserOrderOnSquare(t *testing.T) {
	w := domain.Weights(squareMatrix().Durations)
	initial := domain.Route{Stops: []int{0, 2, 1, 3}, Closed: true}

	res, err := NewRefiner(DefaultRefineOptions()).Refine(w, initial)
	require.NoError(t, err)

	assert.Equal(t, 60.0, res.InitialCost)
	assert.Equal(t, 40.0, res.FinalCost)
	assert.Equal(t, StateConverged, res.State)
	assert.Equal(t, 0, res.Route.Stops[0])
	assert.Equal(t, []int{0, 2, 1, 3}, initial.Stops, "input route must not be mutated")
}

func TestRefineNeverWorsens(t *testing.T) {
	refiner := NewRefiner(DefaultRefineOptions())

	for seed := uint64(1); seed <= 25; seed++ {
		for _, closed := range []bool{true, false} {
			n := 3 + int(seed%18)
			for name, w := range map[string]domain.Weights{
				"euclidean":  euclideanWeights(seed, n),
				"asymmetric": asymmetricWeights(seed, n),
			} {
				t.Run(fmt.Sprintf("%s/seed=%d/n=%d/closed=%t", name, seed, n, closed), func(t *testing.T) {
					start := int(seed) % n
					initial, err := NearestNeighborRoute(w, start, closed)
					require.NoError(t, err)

					res, err := refiner.Refine(w, initial)
					require.NoError(t, err)

					require.NoError(t, res.Route.Validate(n))
					assert.Equal(t, start, res.Route.Stops[0])
					assert.Equal(t, closed, res.Route.Closed)
					assert.LessOrEqual(t, res.FinalCost, res.InitialCost+1e-9)
					assert.InDelta(t, w.RouteCost(res.Route), res.FinalCost, 1e-9)
					assert.Equal(t, res.Iterations, res.TwoOptMoves+res.OrOptMoves)
				})
			}
		}
	}
}

func TestRefineIsDeterministic(t *testing.T) {
	w := asymmetricWeights(42, 15)
	initial := domain.IdentityRoute(15, true)
	refiner := NewRefiner(DefaultRefineOptions())

	first, err := refiner.Refine(w, initial)
	require.NoError(t, err)
	for range 5 {
		again, err := refiner.Refine(w, initial)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRefineTwentyStopsConverges(t *testing.T) {
	for seed := uint64(100); seed < 110; seed++ {
		w := euclideanWeights(seed, domain.MaxStops)
		initial, err := NearestNeighborRoute(w, 0, true)
		require.NoError(t, err)

		res, err := NewRefiner(DefaultRefineOptions()).Refine(w, initial)
		require.NoError(t, err)
		assert.Equal(t, StateConverged, res.State, "seed %d", seed)
		assert.Less(t, res.Iterations, DefaultRefineOptions().budget(domain.MaxStops))
	}
}

func TestRefineCappedByBudget(t *testing.T) {
	w := starWeights(12)
	initial := domain.IdentityRoute(12, true)

	opts := DefaultRefineOptions()
	opts.MaxIterations = 1

	res, err := NewRefiner(opts).Refine(w, initial)
	require.NoError(t, err)

	assert.Equal(t, StateCapped, res.State)
	assert.Equal(t, 1, res.Iterations)
	assert.Less(t, res.FinalCost, res.InitialCost)
	require.NoError(t, res.Route.Validate(12))

	uncapped, err := NewRefiner(DefaultRefineOptions()).Refine(w, initial)
	require.NoError(t, err)
	assert.Equal(t, StateConverged, uncapped.State)
	assert.Less(t, uncapped.FinalCost, res.FinalCost)
}

func TestRefineRemovesAvoidableUnreachableLeg(t *testing.T) {
	m := squareMatrix()
	m.Durations[0][3] = domain.Unreachable
	m.Durations[3][0] = domain.Unreachable
	w := domain.Weights(m.Durations)

	initial, err := NearestNeighborRoute(w, 0, true)
	require.NoError(t, err)
	require.True(t, initial.Degenerate)

	res, err := NewRefiner(DefaultRefineOptions()).Refine(w, initial)
	require.NoError(t, err)

	assert.False(t, res.Route.Degenerate)
	assert.Zero(t, w.UnreachableLegs(res.Route))
	assert.Equal(t, 60.0, res.FinalCost)
	assert.Equal(t, StateConverged, res.State)
}

func TestRefineKeepsForcedUnreachableLeg(t *testing.T) {
	m := squareMatrix()
	// Nothing can reach D.
	for i := 0; i < 3; i++ {
		m.Durations[i][3] = domain.Unreachable
	}
	w := domain.Weights(m.Durations)

	initial, err := NearestNeighborRoute(w, 0, true)
	require.NoError(t, err)

	res, err := NewRefiner(DefaultRefineOptions()).Refine(w, initial)
	require.NoError(t, err)

	assert.True(t, res.Route.Degenerate)
	assert.Equal(t, 1, w.UnreachableLegs(res.Route))
}

func TestRefineWithoutOrOpt(t *testing.T) {
	w := euclideanWeights(7, 12)
	initial := domain.IdentityRoute(12, false)

	opts := DefaultRefineOptions()
	opts.OrOpt = false

	res, err := NewRefiner(opts).Refine(w, initial)
	require.NoError(t, err)
	assert.Zero(t, res.OrOptMoves)
	assert.LessOrEqual(t, res.FinalCost, res.InitialCost)
}

func TestRefineRejectsInvalidRoute(t *testing.T) {
	w := domain.Weights(squareMatrix().Durations)

	_, err := NewRefiner(DefaultRefineOptions()).Refine(w, domain.Route{Stops: []int{0, 1, 1, 3}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRelocate(t *testing.T) {
	stops := []int{0, 1, 2, 3, 4}

	assert.Equal(t, []int{0, 2, 3, 1, 4}, relocate(stops, 1, 3))
	assert.Equal(t, []int{0, 3, 1, 2, 4}, relocate(stops, 3, 1))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, stops)
}

func TestRefineBudget(t *testing.T) {
	assert.Equal(t, 40, RefineOptions{IterationFactor: 10, MaxIterations: 5000}.budget(2))
	assert.Equal(t, 4000, DefaultRefineOptions().budget(20))
	assert.Equal(t, 5000, RefineOptions{IterationFactor: 100}.budget(20))
}
