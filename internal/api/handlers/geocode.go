package handlers

import (
	"net/http"
	"route-optimizer-service/internal/api/dto"
	"route-optimizer-service/internal/ports"
	"strings"
)

type GeocodeHandler struct {
	Geocoder ports.Geocoder
}

// Geocode resolves addresses into stops. Only available with a provider that
// can geocode.
func (h *GeocodeHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	if h.Geocoder == nil {
		writeError(w, r, http.StatusNotImplemented, "geocoding is not available with the configured provider")
		return
	}

	var req dto.GeocodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	found, err := h.Geocoder.GeocodeMany(r.Context(), req.Addresses)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.GeocodeResponse{Stops: make([]dto.GeocodedStop, 0, len(req.Addresses))}
	for _, a := range req.Addresses {
		key := strings.Join(strings.Fields(a), " ")
		c, ok := found[key]
		if !ok {
			writeError(w, r, http.StatusBadGateway, "geocoder returned no result for "+key)
			return
		}
		res.Stops = append(res.Stops, dto.GeocodedStop{Address: key, Lat: c.Lat, Lon: c.Lon})
	}

	writeJSON(w, r, http.StatusOK, res)
}
