package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteValidate(t *testing.T) {
	tests := []struct {
		name  string
		stops []int
		ok    bool
	}{
		{name: "permutation", stops: []int{2, 0, 1}, ok: true},
		{name: "short", stops: []int{0, 1}},
		{name: "duplicate", stops: []int{0, 1, 1}},
		{name: "out of range", stops: []int{0, 1, 3}},
		{name: "negative", stops: []int{0, -1, 2}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Route{Stops: tc.stops}.Validate(3)
			if tc.ok {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRouteLegs(t *testing.T) {
	r := Route{Stops: []int{0, 2, 1}}
	assert.Equal(t, []Leg{{0, 2}, {2, 1}}, r.Legs())

	r.Closed = true
	assert.Equal(t, []Leg{{0, 2}, {2, 1}, {1, 0}}, r.Legs())

	assert.Nil(t, Route{Stops: []int{0}}.Legs())
}

func TestRouteCloneIsIndependent(t *testing.T) {
	r := IdentityRoute(4, true)
	c := r.Clone()
	c.Stops[0] = 3

	assert.Equal(t, 0, r.Stops[0])
	assert.False(t, r.Equal(c))
}

func TestValidateStops(t *testing.T) {
	one := NewStops([]Coordinates{{Lat: 1, Lon: 1}}, nil)
	assert.ErrorIs(t, ValidateStops(one), ErrInvalidInput)

	coords := make([]Coordinates, MaxStops+1)
	assert.ErrorIs(t, ValidateStops(NewStops(coords, nil)), ErrInvalidInput)

	bad := NewStops([]Coordinates{{Lat: 0, Lon: 0}, {Lat: 91, Lon: 0}}, nil)
	assert.ErrorIs(t, ValidateStops(bad), ErrInvalidInput)

	ok := NewStops([]Coordinates{{Lat: 42.73, Lon: -84.48}, {Lat: 42.33, Lon: -83.04}}, []string{"depot"})
	require.NoError(t, ValidateStops(ok))
	assert.Equal(t, "depot", ok[0].Label)
	assert.Equal(t, 1, ok[1].Index)
}

func TestProviderErrorMatching(t *testing.T) {
	err := error(&ProviderError{Category: RateLimited, Op: "ors matrix", StatusCode: 429, RetryAfter: 2 * time.Second})

	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.False(t, errors.Is(err, ErrTimeout))

	pe, ok := AsProviderError(err)
	require.True(t, ok)
	assert.True(t, pe.Retryable())
	assert.Contains(t, pe.Error(), "retry after 2s")

	rejected := &ProviderError{Category: ProviderInvalidData}
	assert.False(t, rejected.Retryable())
}

func TestCoordinatesKey(t *testing.T) {
	a := Coordinates{Lat: 42.7334912, Lon: -84.4821111}
	b := Coordinates{Lat: 42.733488, Lon: -84.482114}
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, []float64{-84.4821111, 42.7334912}, a.CoordsToList())
}
