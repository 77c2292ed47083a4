package dto

type ErrorResponse struct {
	Error             string `json:"error"`
	Category          string `json:"category,omitempty"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
}
