package dto

import (
	"math"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/services"
)

type StopRequest struct {
	Lat   float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon   float64 `json:"lon" validate:"gte=-180,lte=180"`
	Label string  `json:"label,omitempty" validate:"max=200"`
}

type FuelRequest struct {
	PricePerGallon float64 `json:"price_per_gallon" validate:"gte=0"`
	MPG            float64 `json:"mpg" validate:"gt=0"`
}

type OptimizeRequest struct {
	Stops []StopRequest `json:"stops" validate:"required,min=2,max=20,dive"`
	// Indices into stops in the driver's own order; defaults to input order.
	UserOrder []int `json:"user_order,omitempty" validate:"omitempty,dive,gte=0"`
	// Stop index the optimized route begins at; defaults to user_order[0].
	Start         *int         `json:"start,omitempty" validate:"omitempty,gte=0"`
	ReturnToStart bool         `json:"return_to_start"`
	Metric        string       `json:"metric,omitempty" validate:"omitempty,oneof=duration distance"`
	Fuel          *FuelRequest `json:"fuel,omitempty"`
	SkipManifest  bool         `json:"skip_manifest,omitempty"`
}

// ToService converts the wire request into a pipeline request.
func (r OptimizeRequest) ToService() services.OptimizeRequest {
	coords := make([]domain.Coordinates, len(r.Stops))
	labels := make([]string, len(r.Stops))
	for i, s := range r.Stops {
		coords[i] = domain.Coordinates{Lat: s.Lat, Lon: s.Lon}
		labels[i] = s.Label
	}

	req := services.OptimizeRequest{
		Stops:        domain.NewStops(coords, labels),
		UserOrder:    r.UserOrder,
		Start:        r.Start,
		Closed:       r.ReturnToStart,
		Metric:       domain.Metric(r.Metric),
		SkipManifest: r.SkipManifest,
	}
	if r.Fuel != nil {
		req.Fuel = &domain.FuelParams{PricePerGallon: r.Fuel.PricePerGallon, MPG: r.Fuel.MPG}
	}
	return req
}

// Costs are pointers: a route through an unreachable leg has infinite cost,
// which JSON cannot carry, and is reported as null.
type RouteResponse struct {
	Stops      []int    `json:"stops"`
	Labels     []string `json:"labels,omitempty"`
	Closed     bool     `json:"closed"`
	Degenerate bool     `json:"degenerate"`
	Cost       *float64 `json:"cost"`
}

type FuelResponse struct {
	BaselineGallons  float64 `json:"baseline_gallons"`
	OptimizedGallons float64 `json:"optimized_gallons"`
	BaselineCost     float64 `json:"baseline_cost"`
	OptimizedCost    float64 `json:"optimized_cost"`
	Saving           float64 `json:"saving"`
}

type SavingsResponse struct {
	Metric                   string        `json:"metric"`
	BaselineCost             *float64      `json:"baseline_cost"`
	OptimizedCost            *float64      `json:"optimized_cost"`
	Saving                   float64       `json:"saving"`
	PercentSaving            float64       `json:"percent_saving"`
	Comparable               bool          `json:"comparable"`
	BaselineUnreachableLegs  int           `json:"baseline_unreachable_legs"`
	OptimizedUnreachableLegs int           `json:"optimized_unreachable_legs"`
	BaselineDistanceMeters   *float64      `json:"baseline_distance_meters,omitempty"`
	OptimizedDistanceMeters  *float64      `json:"optimized_distance_meters,omitempty"`
	Fuel                     *FuelResponse `json:"fuel,omitempty"`
}

type ManifestLegResponse struct {
	Seq             int                  `json:"seq"`
	From            int                  `json:"from"`
	To              int                  `json:"to"`
	FromLabel       string               `json:"from_label,omitempty"`
	ToLabel         string               `json:"to_label,omitempty"`
	DistanceMeters  float64              `json:"distance_meters"`
	DurationSeconds float64              `json:"duration_seconds"`
	Instructions    []domain.Instruction `json:"instructions,omitempty"`
	Geometry        string               `json:"geometry,omitempty"`
	Unavailable     bool                 `json:"unavailable,omitempty"`
	Error           string               `json:"error,omitempty"`
}

type ManifestResponse struct {
	Legs    []ManifestLegResponse `json:"legs"`
	Partial bool                  `json:"partial"`
}

type StatusResponse struct {
	Degenerate      bool     `json:"degenerate"`
	Capped          bool     `json:"capped"`
	PartialManifest bool     `json:"partial_manifest"`
	Warnings        []string `json:"warnings,omitempty"`
}

type RefinementResponse struct {
	State       string   `json:"state"`
	InitialCost *float64 `json:"initial_cost"`
	FinalCost   *float64 `json:"final_cost"`
	Iterations  int      `json:"iterations"`
	TwoOptMoves int      `json:"two_opt_moves"`
	OrOptMoves  int      `json:"or_opt_moves"`
	Passes      int      `json:"passes"`
}

type OptimizeResponse struct {
	RunID      string             `json:"run_id"`
	Route      RouteResponse      `json:"route"`
	UserOrder  RouteResponse      `json:"user_order"`
	Savings    SavingsResponse    `json:"savings"`
	Manifest   *ManifestResponse  `json:"manifest,omitempty"`
	Status     StatusResponse     `json:"status"`
	Refinement RefinementResponse `json:"refinement"`
}

// FromResult maps a pipeline result onto the wire response.
func FromResult(res services.OptimizeResult) OptimizeResponse {
	out := OptimizeResponse{
		RunID:     res.RunID,
		Route:     routeResponse(res.Route, res.Stops, res.Savings.OptimizedCost),
		UserOrder: routeResponse(res.UserOrder, res.Stops, res.Savings.BaselineCost),
		Savings: SavingsResponse{
			Metric:                   string(res.Savings.Metric),
			BaselineCost:             finite(res.Savings.BaselineCost),
			OptimizedCost:            finite(res.Savings.OptimizedCost),
			Saving:                   res.Savings.Saving,
			PercentSaving:            math.Round(res.Savings.PercentSaving*100) / 100,
			Comparable:               res.Savings.Comparable,
			BaselineUnreachableLegs:  res.Savings.BaselineUnreachableLegs,
			OptimizedUnreachableLegs: res.Savings.OptimizedUnreachableLegs,
			BaselineDistanceMeters:   res.Savings.BaselineDistanceMeters,
			OptimizedDistanceMeters:  res.Savings.OptimizedDistanceMeters,
		},
		Status: StatusResponse{
			Degenerate:      res.Status.Degenerate,
			Capped:          res.Status.Capped,
			PartialManifest: res.Status.PartialManifest,
			Warnings:        res.Status.Warnings,
		},
		Refinement: RefinementResponse{
			State:       string(res.Refinement.State),
			InitialCost: finite(res.Refinement.InitialCost),
			FinalCost:   finite(res.Refinement.FinalCost),
			Iterations:  res.Refinement.Iterations,
			TwoOptMoves: res.Refinement.TwoOptMoves,
			OrOptMoves:  res.Refinement.OrOptMoves,
			Passes:      res.Refinement.Passes,
		},
	}

	if f := res.Savings.Fuel; f != nil {
		out.Savings.Fuel = &FuelResponse{
			BaselineGallons:  f.BaselineGallons,
			OptimizedGallons: f.OptimizedGallons,
			BaselineCost:     f.BaselineCost,
			OptimizedCost:    f.OptimizedCost,
			Saving:           f.Saving,
		}
	}

	if res.Manifest != nil {
		m := &ManifestResponse{Legs: make([]ManifestLegResponse, 0, len(res.Manifest.Legs)), Partial: res.Manifest.Partial}
		for _, l := range res.Manifest.Legs {
			m.Legs = append(m.Legs, ManifestLegResponse{
				Seq:             l.Seq,
				From:            l.FromStop,
				To:              l.ToStop,
				FromLabel:       label(res.Stops, l.FromStop),
				ToLabel:         label(res.Stops, l.ToStop),
				DistanceMeters:  l.DistanceMeters,
				DurationSeconds: l.DurationSeconds,
				Instructions:    l.Instructions,
				Geometry:        l.Geometry,
				Unavailable:     l.Unavailable,
				Error:           l.Error,
			})
		}
		out.Manifest = m
	}

	return out
}

func routeResponse(r domain.Route, stops []domain.Stop, cost float64) RouteResponse {
	out := RouteResponse{Stops: r.Stops, Closed: r.Closed, Degenerate: r.Degenerate, Cost: finite(cost)}
	hasLabels := false
	labels := make([]string, len(r.Stops))
	for i, s := range r.Stops {
		labels[i] = label(stops, s)
		hasLabels = hasLabels || labels[i] != ""
	}
	if hasLabels {
		out.Labels = labels
	}
	return out
}

func label(stops []domain.Stop, i int) string {
	if i < 0 || i >= len(stops) {
		return ""
	}
	return stops[i].Label
}

func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}
