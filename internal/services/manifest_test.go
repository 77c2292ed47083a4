package services

import (
	"context"
	"errors"
	"route-optimizer-service/internal/adapters/distance"
	"route-optimizer-service/internal/domain"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSquareProvider(t *testing.T) *distance.StaticProvider {
	t.Helper()
	p, err := distance.NewStaticProvider(squareCoords, squareMatrix())
	require.NoError(t, err)
	return p
}

func TestGenerateManifestClosedRoute(t *testing.T) {
	p := newSquareProvider(t)
	route := domain.Route{Stops: []int{0, 1, 2, 3}, Closed: true}

	man, err := GenerateManifest(context.Background(), squareStops(), route, squareMatrix(), p, 2)
	require.NoError(t, err)

	require.Len(t, man.Legs, 4)
	assert.False(t, man.Partial)
	for i, leg := range man.Legs {
		assert.Equal(t, i+1, leg.Seq)
		assert.Equal(t, route.Stops[i], leg.FromStop)
		assert.Equal(t, route.Stops[(i+1)%4], leg.ToStop)
		assert.Equal(t, 10.0, leg.DurationSeconds)
		assert.Equal(t, 1000.0, leg.DistanceMeters)
		assert.NotEmpty(t, leg.Instructions)
	}
	assert.Equal(t, 4, p.DirectionsCalls())
}

func TestGenerateManifestOpenRoute(t *testing.T) {
	p := newSquareProvider(t)
	route := domain.Route{Stops: []int{2, 0, 1, 3}}

	man, err := GenerateManifest(context.Background(), squareStops(), route, squareMatrix(), p, 0)
	require.NoError(t, err)

	require.Len(t, man.Legs, 3)
	assert.Equal(t, 2, man.Legs[0].FromStop)
	assert.Equal(t, 0, man.Legs[0].ToStop)
	assert.Equal(t, 20.0, man.Legs[0].DurationSeconds)
	assert.Equal(t, 3, man.Legs[2].ToStop)
}

func TestGenerateManifestPartialFailure(t *testing.T) {
	p := newSquareProvider(t)
	p.FailLeg(1, 2, &domain.ProviderError{Category: domain.RateLimited, Op: "directions"})
	route := domain.Route{Stops: []int{0, 1, 2, 3}, Closed: true}

	man, err := GenerateManifest(context.Background(), squareStops(), route, squareMatrix(), p, 4)
	require.NoError(t, err)

	assert.True(t, man.Partial)
	require.Len(t, man.Legs, 4)

	failed := man.Legs[1]
	assert.True(t, failed.Unavailable)
	assert.NotEmpty(t, failed.Error)
	assert.Equal(t, 10.0, failed.DurationSeconds, "falls back to matrix duration")
	assert.Equal(t, 1000.0, failed.DistanceMeters)
	assert.Empty(t, failed.Instructions)

	for _, i := range []int{0, 2, 3} {
		assert.False(t, man.Legs[i].Unavailable)
	}
}

func TestGenerateManifestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := GenerateManifest(ctx, squareStops(), domain.IdentityRoute(4, true), squareMatrix(), newSquareProvider(t), 2)
	assert.True(t, errors.Is(err, context.Canceled))
}

type directionsFunc func(ctx context.Context, from, to domain.Coordinates) (domain.LegDirections, error)

func (f directionsFunc) GetDirections(ctx context.Context, from, to domain.Coordinates) (domain.LegDirections, error) {
	return f(ctx, from, to)
}

func TestGenerateManifestCancelledMidway(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	dirs := directionsFunc(func(ctx context.Context, _, _ domain.Coordinates) (domain.LegDirections, error) {
		if calls.Add(1) == 2 {
			cancel()
		}
		if err := ctx.Err(); err != nil {
			return domain.LegDirections{}, err
		}
		return domain.LegDirections{DistanceMeters: 1, DurationSeconds: 1}, nil
	})

	_, err := GenerateManifest(ctx, squareStops(), domain.IdentityRoute(4, true), squareMatrix(), dirs, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateManifestRejectsBadRoute(t *testing.T) {
	_, err := GenerateManifest(context.Background(), squareStops(), domain.IdentityRoute(3, true), squareMatrix(), newSquareProvider(t), 2)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = GenerateManifest(context.Background(), squareStops(), domain.IdentityRoute(4, true), squareMatrix(), nil, 2)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMatrixFallbackUnreachable(t *testing.T) {
	m := squareMatrix()
	m.Durations[0][1] = domain.Unreachable
	m.Distances[0][1] = domain.Unreachable

	d, dist := matrixFallback(m, domain.Leg{From: 0, To: 1})
	assert.Zero(t, d)
	assert.Zero(t, dist)
}
