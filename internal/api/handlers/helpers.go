package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"route-optimizer-service/internal/api/dto"
	"route-optimizer-service/internal/domain"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	maxBodyBytes = 1 << 20

	// Category reported for caller input the service itself rejects.
	categoryInvalidInput = "invalid_input"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, dto.ErrorResponse{Error: msg})
}

// decodeJSON reads exactly one JSON object into dst and validates its tags.
// It writes the 400 response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		writeJSON(w, r, http.StatusBadRequest, dto.ErrorResponse{
			Error:    formatValidationError(err),
			Category: categoryInvalidInput,
		})
		return false
	}
	return true
}

func formatValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.ToLower(e.Namespace())
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "min", "max", "gte", "lte", "gt":
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", field, e.Tag(), e.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(msgs, "; ")
}

// writeServiceError maps pipeline errors to HTTP:
//
//	invalid input       400
//	provider rejected   422
//	rate limited        429 + Retry-After
//	provider unreachable 502
//	timeout             504
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if pe, ok := domain.AsProviderError(err); ok {
		body := dto.ErrorResponse{Error: err.Error(), Category: string(pe.Category)}
		if pe.RetryAfter > 0 {
			secs := int(math.Ceil(pe.RetryAfter.Seconds()))
			body.RetryAfterSeconds = secs
			w.Header().Set("Retry-After", strconv.Itoa(secs))
		}

		status := http.StatusBadGateway
		switch pe.Category {
		case domain.RateLimited:
			status = http.StatusTooManyRequests
		case domain.Timeout:
			status = http.StatusGatewayTimeout
		case domain.ProviderInvalidData:
			status = http.StatusUnprocessableEntity
		}
		zap.L().Warn("provider failure", zap.Int("status", status), zap.String("category", string(pe.Category)), zap.Error(err))
		writeJSON(w, r, status, body)
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, r, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Category: categoryInvalidInput})
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, r, http.StatusGatewayTimeout, dto.ErrorResponse{Error: "request timed out", Category: string(domain.Timeout)})
	case errors.Is(err, context.Canceled):
		zap.L().Info("request canceled", zap.String("path", r.URL.Path))
		writeError(w, r, http.StatusRequestTimeout, "request canceled")
	default:
		zap.L().Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
