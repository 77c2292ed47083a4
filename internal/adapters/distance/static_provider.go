package distance

import (
	"context"
	"fmt"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/ports"
	"sync"
	"time"
)

// StaticProvider serves matrices and directions from a fixed in-memory matrix.
// Stops are looked up by rounded coordinate, so any subset or ordering of the
// known stops can be requested. It counts calls and can inject failures and
// latency, which makes it the stand-in for ORS in tests and demos.
type StaticProvider struct {
	mu        sync.Mutex
	index     map[string]int
	matrix    *domain.CostMatrix
	err       error
	delay     time.Duration
	legErrs   map[[2]int]error
	matrixN   int
	directedN int
}

var (
	_ ports.MatrixProvider     = (*StaticProvider)(nil)
	_ ports.DirectionsProvider = (*StaticProvider)(nil)
)

func NewStaticProvider(coords []domain.Coordinates, m *domain.CostMatrix) (*StaticProvider, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("static provider: %w", err)
	}
	if len(coords) != m.Size {
		return nil, fmt.Errorf("%w: static provider: %d coordinates for a %d-stop matrix", domain.ErrInvalidInput, len(coords), m.Size)
	}

	index := make(map[string]int, len(coords))
	for i, c := range coords {
		if _, dup := index[c.Key()]; dup {
			return nil, fmt.Errorf("%w: static provider: duplicate coordinate %s", domain.ErrInvalidInput, c.Key())
		}
		index[c.Key()] = i
	}

	return &StaticProvider{index: index, matrix: m, legErrs: map[[2]int]error{}}, nil
}

// SetError makes every subsequent GetMatrix call fail with err (nil clears it).
func (p *StaticProvider) SetError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// SetDelay makes GetMatrix wait d (or until ctx is done) before answering.
func (p *StaticProvider) SetDelay(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delay = d
}

// FailLeg makes GetDirections fail for the from→to stop pair.
func (p *StaticProvider) FailLeg(from, to int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.legErrs[[2]int{from, to}] = err
}

// MatrixCalls reports how many times GetMatrix was invoked.
func (p *StaticProvider) MatrixCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.matrixN
}

func (p *StaticProvider) DirectionsCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.directedN
}

func (p *StaticProvider) GetMatrix(ctx context.Context, coords []domain.Coordinates) (*domain.CostMatrix, error) {
	p.mu.Lock()
	p.matrixN++
	err, delay := p.err, p.delay
	p.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if err != nil {
		return nil, err
	}

	perm := make([]int, len(coords))
	for i, c := range coords {
		idx, err := p.lookup(c)
		if err != nil {
			return nil, err
		}
		perm[i] = idx
	}
	return p.matrix.Permute(perm), nil
}

func (p *StaticProvider) GetDirections(ctx context.Context, from, to domain.Coordinates) (domain.LegDirections, error) {
	if err := ctx.Err(); err != nil {
		return domain.LegDirections{}, err
	}

	i, err := p.lookup(from)
	if err != nil {
		return domain.LegDirections{}, err
	}
	j, err := p.lookup(to)
	if err != nil {
		return domain.LegDirections{}, err
	}

	p.mu.Lock()
	p.directedN++
	legErr := p.legErrs[[2]int{i, j}]
	p.mu.Unlock()

	if legErr != nil {
		return domain.LegDirections{}, legErr
	}
	if p.matrix.Durations[i][j] == domain.Unreachable {
		return domain.LegDirections{}, &domain.ProviderError{
			Category: domain.CategoryUnreachable,
			Op:       "static directions",
			Err:      fmt.Errorf("no route from stop %d to stop %d", i, j),
		}
	}

	d := domain.LegDirections{DurationSeconds: p.matrix.Durations[i][j]}
	if p.matrix.Distances != nil && p.matrix.Distances[i][j] != domain.Unreachable {
		d.DistanceMeters = p.matrix.Distances[i][j]
	}
	d.Instructions = []domain.Instruction{{
		Text:            fmt.Sprintf("Drive to %s", to.Key()),
		DistanceMeters:  d.DistanceMeters,
		DurationSeconds: d.DurationSeconds,
	}}
	return d, nil
}

func (p *StaticProvider) lookup(c domain.Coordinates) (int, error) {
	idx, ok := p.index[c.Key()]
	if !ok {
		return 0, &domain.ProviderError{
			Category: domain.ProviderInvalidData,
			Op:       "static provider",
			Err:      fmt.Errorf("unknown location %s", c.Key()),
		}
	}
	return idx, nil
}
