package services

import (
	"math"
	"math/rand/v2"
	"route-optimizer-service/internal/domain"
)

// Stops A, B, C, D on a square: sides cost 10, diagonals 20. Distances are
// durations scaled by 100.
func squareMatrix() *domain.CostMatrix {
	d := [][]float64{
		{0, 10, 20, 10},
		{10, 0, 10, 20},
		{20, 10, 0, 10},
		{10, 20, 10, 0},
	}
	m := domain.NewCostMatrix(4, true)
	for i := range d {
		for j := range d[i] {
			m.Durations[i][j] = d[i][j]
			m.Distances[i][j] = d[i][j] * 100
		}
	}
	return m
}

var squareCoords = []domain.Coordinates{
	{Lat: 37.00, Lon: -122.00},
	{Lat: 37.00, Lon: -121.90},
	{Lat: 37.10, Lon: -121.90},
	{Lat: 37.10, Lon: -122.00},
}

func squareStops() []domain.Stop {
	return domain.NewStops(squareCoords, []string{"A", "B", "C", "D"})
}

// euclideanWeights places n random points in a 1000×1000 plane.
func euclideanWeights(seed uint64, n int) domain.Weights {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range xs {
		xs[i] = rng.Float64() * 1000
		ys[i] = rng.Float64() * 1000
	}
	w := make(domain.Weights, n)
	for i := range w {
		w[i] = make([]float64, n)
		for j := range w[i] {
			w[i][j] = math.Hypot(xs[i]-xs[j], ys[i]-ys[j])
		}
	}
	return w
}

// asymmetricWeights draws every directed cost independently.
func asymmetricWeights(seed uint64, n int) domain.Weights {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	w := make(domain.Weights, n)
	for i := range w {
		w[i] = make([]float64, n)
		for j := range w[i] {
			if i != j {
				w[i][j] = float64(1 + rng.IntN(100))
			}
		}
	}
	return w
}

// starWeights puts n points on a circle so that input order jumps 5 positions
// each hop, producing a tour full of crossings.
func starWeights(n int) domain.Weights {
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range xs {
		a := float64((i*5)%n) * 2 * math.Pi / float64(n)
		xs[i], ys[i] = 100*math.Cos(a), 100*math.Sin(a)
	}
	w := make(domain.Weights, n)
	for i := range w {
		w[i] = make([]float64, n)
		for j := range w[i] {
			w[i][j] = math.Hypot(xs[i]-xs[j], ys[i]-ys[j])
		}
	}
	return w
}
