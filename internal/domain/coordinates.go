package domain

import (
	"fmt"
	"math"
)

// Immutable geographic coordinates (latitude, longitude).
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Return coordinates as [lon, lat] for external API compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

// Validate reports whether the coordinate is a finite point on the globe.
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range [-90, 90]", ErrInvalidInput, c.Lat)
	}
	if math.IsNaN(c.Lon) || math.IsInf(c.Lon, 0) || c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: longitude %v out of range [-180, 180]", ErrInvalidInput, c.Lon)
	}
	return nil
}

// Rounded snaps both axes to 5 decimal places (~1m), the precision used for cache keys.
func (c Coordinates) Rounded() Coordinates {
	return Coordinates{Lat: RoundCoordinate(c.Lat), Lon: RoundCoordinate(c.Lon)}
}

// Key returns the rounded "lat,lon" text form used in fingerprints and cache keys.
func (c Coordinates) Key() string {
	r := c.Rounded()
	return fmt.Sprintf("%.5f,%.5f", r.Lat, r.Lon)
}

func RoundCoordinate(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}
