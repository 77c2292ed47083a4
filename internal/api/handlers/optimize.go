package handlers

import (
	"context"
	"net/http"
	"route-optimizer-service/internal/api/dto"
	"route-optimizer-service/internal/services"
	"time"
)

type OptimizeHandler struct {
	Optimizer *services.Optimizer
	// Upper bound for one run, manifest included. Zero means no extra bound.
	Timeout time.Duration
}

// Optimize sequences the posted stops and reports savings against the user's order.
func (h *OptimizeHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	var req dto.OptimizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	res, err := h.Optimizer.Optimize(ctx, req.ToService())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.FromResult(res))
}
