package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"route-optimizer-service/internal/adapters/distance"
	"route-optimizer-service/internal/api/dto"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/platform/metrics"
	"route-optimizer-service/internal/services"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var squareCoords = []domain.Coordinates{
	{Lat: 37.00, Lon: -122.00},
	{Lat: 37.00, Lon: -121.90},
	{Lat: 37.10, Lon: -121.90},
	{Lat: 37.10, Lon: -122.00},
}

const squareBody = `{
	"stops": [
		{"lat": 37.00, "lon": -122.00, "label": "A"},
		{"lat": 37.00, "lon": -121.90, "label": "B"},
		{"lat": 37.10, "lon": -121.90, "label": "C"},
		{"lat": 37.10, "lon": -122.00, "label": "D"}
	],
	"user_order": [0, 2, 1, 3],
	"return_to_start": true
}`

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

type fakeGeocoder struct {
	results map[string]domain.Coordinates
	err     error
}

func (f fakeGeocoder) GeocodeMany(_ context.Context, addresses []string) (map[string]domain.Coordinates, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]domain.Coordinates{}
	for _, a := range addresses {
		key := strings.Join(strings.Fields(a), " ")
		if c, ok := f.results[key]; ok {
			out[key] = c
		}
	}
	return out, nil
}

func newTestServer(t *testing.T, geo *fakeGeocoder) (*httptest.Server, *distance.StaticProvider) {
	t.Helper()
	p, err := distance.NewStaticProvider(squareCoords, squareMatrix())
	require.NoError(t, err)

	deps := Deps{
		Optimizer:      services.NewOptimizer(services.NewMatrixService(p, nil, time.Second), p, services.DefaultOptimizerOptions()),
		RequestTimeout: 5 * time.Second,
	}
	if geo != nil {
		deps.Geocoder = geo
	}

	srv := httptest.NewServer(NewRouter(deps))
	t.Cleanup(srv.Close)
	return srv, p
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	res, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func decodeError(t *testing.T, res *http.Response) dto.ErrorResponse {
	t.Helper()
	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return body
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	res, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotEmpty(t, res.Header.Get("X-Request-ID"))
}

func TestOptimizeEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/optimize", strings.NewReader(squareBody))
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "req-123")

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "req-123", res.Header.Get("X-Request-ID"))

	var body dto.OptimizeResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))

	assert.NotEmpty(t, body.RunID)
	assert.Equal(t, []int{0, 1, 2, 3}, body.Route.Stops)
	assert.Equal(t, []string{"A", "B", "C", "D"}, body.Route.Labels)
	assert.Equal(t, []int{0, 2, 1, 3}, body.UserOrder.Stops)
	require.NotNil(t, body.Savings.BaselineCost)
	assert.Equal(t, 60.0, *body.Savings.BaselineCost)
	assert.Equal(t, 40.0, *body.Route.Cost)
	assert.Equal(t, 33.33, body.Savings.PercentSaving)
	assert.True(t, body.Savings.Comparable)
	require.NotNil(t, body.Manifest)
	assert.Len(t, body.Manifest.Legs, 4)
	assert.Empty(t, body.Status.Warnings)
}

func TestOptimizeEndpointRejectsBadRequests(t *testing.T) {
	srv, p := newTestServer(t, nil)

	tests := map[string]string{
		"not json":       `{"stops": [`,
		"unknown field":  `{"stops": [{"lat": 1, "lon": 1}, {"lat": 2, "lon": 2}], "depot": 1}`,
		"trailing data":  `{"stops": [{"lat": 1, "lon": 1}, {"lat": 2, "lon": 2}]} {}`,
		"one stop":       `{"stops": [{"lat": 1, "lon": 1}]}`,
		"bad latitude":   `{"stops": [{"lat": 95, "lon": 1}, {"lat": 2, "lon": 2}]}`,
		"bad metric":     `{"stops": [{"lat": 1, "lon": 1}, {"lat": 2, "lon": 2}], "metric": "fuel"}`,
		"bad user order": `{"stops": [{"lat": 1, "lon": 1}, {"lat": 2, "lon": 2}], "user_order": [0, 0]}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			res := post(t, srv.URL+"/v1/optimize", body)
			assert.Equal(t, http.StatusBadRequest, res.StatusCode)
			assert.NotEmpty(t, decodeError(t, res).Error)
		})
	}
	assert.Zero(t, p.MatrixCalls())
}

func TestOptimizeEndpointInputErrorCategory(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	tests := map[string]string{
		"failed validation": `{"stops": [{"lat": 1, "lon": 1}]}`,
		"bad user order":    `{"stops": [{"lat": 1, "lon": 1}, {"lat": 2, "lon": 2}], "user_order": [1, 1]}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			res := post(t, srv.URL+"/v1/optimize", body)
			assert.Equal(t, http.StatusBadRequest, res.StatusCode)
			assert.Equal(t, "invalid_input", decodeError(t, res).Category)
		})
	}
}

func TestOptimizeEndpointTooManyStops(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	stops := make([]string, 21)
	for i := range stops {
		stops[i] = `{"lat": 1, "lon": 1}`
	}
	res := post(t, srv.URL+"/v1/optimize", `{"stops": [`+strings.Join(stops, ",")+`]}`)

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, decodeError(t, res).Error, "stops")
}

func TestOptimizeEndpointProviderErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCat    string
	}{
		{"rate limited", &domain.ProviderError{Category: domain.RateLimited, Op: "matrix", RetryAfter: 1500 * time.Millisecond}, http.StatusTooManyRequests, "rate_limited"},
		{"unreachable", &domain.ProviderError{Category: domain.CategoryUnreachable, Op: "matrix", StatusCode: 503}, http.StatusBadGateway, "unreachable"},
		{"timeout", &domain.ProviderError{Category: domain.Timeout, Op: "matrix"}, http.StatusGatewayTimeout, "timeout"},
		{"rejected", &domain.ProviderError{Category: domain.ProviderInvalidData, Op: "matrix", StatusCode: 400}, http.StatusUnprocessableEntity, "invalid_input"},
		{"plain error", errors.New("connection reset"), http.StatusBadGateway, "unreachable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, p := newTestServer(t, nil)
			p.SetError(tt.err)

			res := post(t, srv.URL+"/v1/optimize", squareBody)
			assert.Equal(t, tt.wantStatus, res.StatusCode)

			body := decodeError(t, res)
			assert.Equal(t, tt.wantCat, body.Category)
			if tt.wantStatus == http.StatusTooManyRequests {
				assert.Equal(t, "2", res.Header.Get("Retry-After"))
				assert.Equal(t, 2, body.RetryAfterSeconds)
			}
		})
	}
}

func TestGeocodeEndpointDisabled(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	res := post(t, srv.URL+"/v1/geocode", `{"addresses": ["1 Main St"]}`)
	assert.Equal(t, http.StatusNotImplemented, res.StatusCode)
}

func TestGeocodeEndpoint(t *testing.T) {
	geo := &fakeGeocoder{results: map[string]domain.Coordinates{
		"1 Main St": {Lat: 37.0, Lon: -122.0},
		"2 Oak Ave": {Lat: 37.1, Lon: -121.9},
	}}
	srv, _ := newTestServer(t, geo)

	res := post(t, srv.URL+"/v1/geocode", `{"addresses": ["1  Main St", "2 Oak Ave"]}`)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body dto.GeocodeResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Len(t, body.Stops, 2)
	assert.Equal(t, "1 Main St", body.Stops[0].Address)
	assert.Equal(t, 37.1, body.Stops[1].Lat)
}

func TestGeocodeEndpointErrors(t *testing.T) {
	t.Run("empty list", func(t *testing.T) {
		srv, _ := newTestServer(t, &fakeGeocoder{})
		res := post(t, srv.URL+"/v1/geocode", `{"addresses": []}`)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("provider failure", func(t *testing.T) {
		srv, _ := newTestServer(t, &fakeGeocoder{err: &domain.ProviderError{Category: domain.CategoryUnreachable, Op: "geocode"}})
		res := post(t, srv.URL+"/v1/geocode", `{"addresses": ["1 Main St"]}`)
		assert.Equal(t, http.StatusBadGateway, res.StatusCode)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	metrics.Register()
	srv, _ := newTestServer(t, nil)

	post(t, srv.URL+"/v1/optimize", squareBody)

	res, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	var sb strings.Builder
	_, err = io.Copy(&sb, res.Body)
	require.NoError(t, err)
	assert.Contains(t, sb.String(), `route="/v1/optimize"`)
}
