package geolib

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const httpClientMaxErrorBodySize = 64 * 1024

type httpClient struct {
	userAgent      string
	client         *http.Client
	rateLimiter    *rate.Limiter
	circuitBreaker *circuitBreaker
}

func (h httpClient) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", h.userAgent)

	return h.circuitBreaker.Do(req.Context(), func(ctx context.Context) (*http.Response, error) {
		if err := h.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("cannot wait for rate limiter (%v): %w", err, ErrCircuitBreakerIgnore)
		}

		resp, err := h.client.Do(req.WithContext(ctx))
		if err != nil {
			return nil, &RequestFailedError{Err: err}
		}

		if resp.StatusCode >= http.StatusBadRequest {
			defer func() {
				io.Copy(io.Discard, resp.Body) // nolint: errcheck
				resp.Body.Close()
			}()

			return nil, newRequestFailedError(resp)
		}

		return resp, nil
	})
}

func newRequestFailedError(resp *http.Response) *RequestFailedError {
	rv := &RequestFailedError{
		StatusCode: resp.StatusCode,
		Err:        fmt.Errorf("netloc has responded with %s", resp.Status),
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, httpClientMaxErrorBodySize))
	if err != nil || len(body) == 0 {
		return rv
	}

	payload := map[string]interface{}{}

	if err := json.Unmarshal(body, &payload); err == nil {
		rv.Payload = payload
	}

	return rv
}

// NewHTTPClient prepares a new HTTP client, wraps it with rate limiter,
// circuit breaker, sets a user agent etc. Responses with status codes
// >= 400 are converted into RequestFailedError with a decoded JSON body
// as a payload.
//
// Please see https://pkg.go.dev/golang.org/x/time/rate to get a meaning
// of rate limiter parameters.
//
// A meaning of circuit breaker parameters:
//
// circuitBreakerOpenThreshold - this is a threshold of failures when
// circuit breaker becomes OPEN. So, if you pass 3 here, then after 3
// failures, circuit breaker switches into OPEN state and blocks access
// to a target.
//
// circuitBreakerResetFailuresTimeout - is tightly coupled with
// circuitBreakerOpenThreshold. Each time period when circuit breaker
// is closed, we try to reset a failure counter.
//
// circuitBreakerHalfOpenTimeout - when circuit breaker is opened, we
// wait for this time period and it goes into HALF_OPEN state. Within
// this state we allow 1 attempt. If this attempt fails, then it goes
// into OPEN state again. If succeed - goes to CLOSED.
func NewHTTPClient(client *http.Client,
	userAgent string,
	rateLimiterInterval time.Duration,
	rateLimitBurst int,
	circuitBreakerOpenThreshold uint32,
	circuitBreakerHalfOpenTimeout, circuitBreakerResetFailuresTimeout time.Duration) HTTPClient {
	return httpClient{
		userAgent:   userAgent,
		client:      client,
		rateLimiter: rate.NewLimiter(rate.Every(rateLimiterInterval), rateLimitBurst),
		circuitBreaker: newCircuitBreaker(circuitBreakerOpenThreshold,
			circuitBreakerHalfOpenTimeout,
			circuitBreakerResetFailuresTimeout),
	}
}
