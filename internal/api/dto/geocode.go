package dto

type GeocodeRequest struct {
	Addresses []string `json:"addresses" validate:"required,min=1,max=20,dive,required,max=300"`
}

type GeocodedStop struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Stops come back in request order, ready to post to /v1/optimize.
type GeocodeResponse struct {
	Stops []GeocodedStop `json:"stops"`
}
