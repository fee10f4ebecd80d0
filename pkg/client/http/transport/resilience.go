// Package transport provides resilient http.RoundTripper decorators for outbound calls.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/abgdnv/product-catalog/pkg/config"
	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// errServerStatus marks a 5xx answer so the breaker counts it while the response still reaches the caller.
var errServerStatus = errors.New("upstream answered with a server error")

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// NewRetryTransport retries idempotent requests on transport errors and on
// 429, 502, 503 and 504 answers with exponential backoff. MaxAttempts counts the first try.
// When every attempt fails with a retryable status the last response is returned as is.
func NewRetryTransport(next http.RoundTripper, cfg config.RetryConfig) http.RoundTripper {
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if !isIdempotent(req.Method) || (req.Body != nil && req.Body != http.NoBody && req.GetBody == nil) {
			return next.RoundTrip(req)
		}

		expBackoff := backoff.NewExponentialBackOff()
		expBackoff.InitialInterval = cfg.InitialBackoff
		if cfg.MaxBackoff > 0 {
			expBackoff.MaxInterval = cfg.MaxBackoff
		}
		expBackoff.MaxElapsedTime = 0
		expBackoff.Reset()
		var retries uint64
		if cfg.MaxAttempts > 1 {
			retries = uint64(cfg.MaxAttempts - 1)
		}
		policy := backoff.WithContext(backoff.WithMaxRetries(expBackoff, retries), req.Context())

		var resp *http.Response
		attempt := 0
		operation := func() error {
			if resp != nil {
				drainAndClose(resp)
				resp = nil
			}
			attemptReq := req
			if attempt > 0 && req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return backoff.Permanent(fmt.Errorf("failed to rewind request body: %w", err))
				}
				attemptReq = req.Clone(req.Context())
				attemptReq.Body = body
			}
			attempt++

			r, err := next.RoundTrip(attemptReq)
			if err != nil {
				if ctxErr := req.Context().Err(); ctxErr != nil {
					return backoff.Permanent(err)
				}
				return err
			}
			resp = r
			if isRetryableStatus(r.StatusCode) {
				return fmt.Errorf("retryable status %d", r.StatusCode)
			}
			return nil
		}

		err := backoff.Retry(operation, policy)
		if resp != nil {
			return resp, nil
		}
		return nil, err
	})
}

// NewCircuitBreakerTransport guards next with a circuit breaker. Transport errors and
// 5xx answers count as failures, cancellations by the caller do not.
func NewCircuitBreakerTransport(next http.RoundTripper, name string, cfg config.CircuitBreakerConfig) http.RoundTripper {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures ||
				(counts.Requests >= cfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(counts.Requests)*100 > float64(cfg.ErrorRatePercent))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
	breaker := gobreaker.NewCircuitBreaker[*http.Response](st)

	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		resp, err := breaker.Execute(func() (*http.Response, error) {
			r, err := next.RoundTrip(req)
			if err != nil {
				return nil, err
			}
			if r.StatusCode >= http.StatusInternalServerError {
				return r, errServerStatus
			}
			return r, nil
		})
		if errors.Is(err, errServerStatus) {
			return resp, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return resp, nil
	})
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
