package distance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/platform/metrics"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// Wait suggested to callers while the circuit breaker is open.
const breakerRetryAfter = 30 * time.Second

type httpStatusError struct {
	Code       int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

func (o *ORSProvider) newRequest(
	ctx context.Context,
	method string,
	url string,
	body io.Reader,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", o.apiKey)
	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// do sends one attempt through the circuit breaker. Status codes ≥ 400 are
// turned into *httpStatusError with the body drained.
func (o *ORSProvider) do(req *http.Request) (*http.Response, error) {
	v, err := o.breaker.Execute(func() (interface{}, error) {
		resp, err := o.session.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 400 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, &httpStatusError{
				Code:       resp.StatusCode,
				Body:       strings.TrimSpace(string(b)),
				RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
			}
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*http.Response), nil
}

// doWithRetry retries transient failures (rate limiting, network errors, 5xx
// responses) with exponential backoff, honouring Retry-After and context
// cancellation. Every failure is returned as a *domain.ProviderError except a
// cancelled context, which is returned as is.
func (o *ORSProvider) doWithRetry(
	ctx context.Context,
	endpoint string,
	makeReq func() (*http.Request, error),
) (*http.Response, error) {
	backoff := o.baseBackoff
	op := "ors " + endpoint

	for attempt := 1; ; attempt++ {
		if err := o.limiter.Wait(ctx); err != nil {
			return nil, o.record(endpoint, waitError(ctx, op, err))
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}

		resp, err := o.do(req)
		if err == nil {
			metrics.ProviderRequests.WithLabelValues(endpoint, "ok").Inc()
			return resp, nil
		}

		pe, retry := classify(ctx, op, err)
		if pe == nil {
			return nil, o.record(endpoint, err)
		}

		if !retry || attempt >= o.maxAttempts {
			if pe.Category == domain.RateLimited && pe.RetryAfter == 0 {
				pe.RetryAfter = backoff
			}
			return nil, o.record(endpoint, pe)
		}
		metrics.ProviderRequests.WithLabelValues(endpoint, "retry").Inc()

		wait := max(backoff, pe.RetryAfter)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, o.record(endpoint, waitError(ctx, op, ctx.Err()))
		case <-timer.C:
		}

		backoff *= 2
	}
}

func (o *ORSProvider) record(endpoint string, err error) error {
	outcome := "canceled"
	if pe, ok := domain.AsProviderError(err); ok {
		outcome = string(pe.Category)
	}
	metrics.ProviderRequests.WithLabelValues(endpoint, outcome).Inc()
	return err
}

// classify maps one failed attempt to a provider error and reports whether it
// is worth retrying. It returns nil when ctx was cancelled by the caller.
func classify(ctx context.Context, op string, err error) (*domain.ProviderError, bool) {
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil, false
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &domain.ProviderError{Category: domain.CategoryUnreachable, Op: op, RetryAfter: breakerRetryAfter, Err: err}, false
	}

	var he *httpStatusError
	if errors.As(err, &he) {
		pe := &domain.ProviderError{Op: op, StatusCode: he.Code, RetryAfter: he.RetryAfter, Err: err}
		switch {
		case he.Code == http.StatusTooManyRequests:
			pe.Category = domain.RateLimited
			return pe, true
		case he.Code >= 500:
			pe.Category = domain.CategoryUnreachable
			return pe, true
		case he.Code == http.StatusBadRequest, he.Code == http.StatusNotFound,
			he.Code == http.StatusRequestEntityTooLarge, he.Code == http.StatusUnprocessableEntity:
			pe.Category = domain.ProviderInvalidData
			return pe, false
		default:
			// Credentials or quota problems: not the caller's input, not transient.
			pe.Category = domain.CategoryUnreachable
			return pe, false
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return &domain.ProviderError{Category: domain.Timeout, Op: op, Err: err}, false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &domain.ProviderError{Category: domain.Timeout, Op: op, Err: err}, true
	}

	return &domain.ProviderError{Category: domain.CategoryUnreachable, Op: op, Err: err}, true
}

// waitError maps a failed wait (limiter or backoff timer) on ctx.
func waitError(ctx context.Context, op string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	return &domain.ProviderError{Category: domain.Timeout, Op: op, Err: err}
}

// parseRetryAfter accepts both delta-seconds and HTTP-date forms.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
