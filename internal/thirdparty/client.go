// Package thirdparty talks to the external users API.
package thirdparty

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/abgdnv/product-catalog/pkg/client/http/transport"
	"github.com/abgdnv/product-catalog/pkg/config"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const usersPath = "/users"

// ErrMalformedResponse is returned when a 2xx answer is not a JSON array.
var ErrMalformedResponse = errors.New("users response is not a JSON array")

// StatusError reports a non-2xx answer from the users API.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("users API answered with status %d", e.Code)
}

// UsersFetcher returns the user list of the external API as raw JSON.
type UsersFetcher interface {
	FetchUsers(ctx context.Context) (json.RawMessage, error)
}

// Client calls the users API through a circuit breaker and a retrying transport.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient builds a Client on top of http.DefaultTransport.
func NewClient(cfg config.HTTPClientConfig, resilience config.ResilienceConfig, logger *slog.Logger) *Client {
	return NewClientWithTransport(cfg, resilience, http.DefaultTransport, logger)
}

// NewClientWithTransport builds a Client whose requests finally go through base.
func NewClientWithTransport(cfg config.HTTPClientConfig, resilience config.ResilienceConfig, base http.RoundTripper, logger *slog.Logger) *Client {
	rt := transport.NewRetryTransport(base, resilience.Retry)
	rt = transport.NewCircuitBreakerTransport(rt, "users-api", resilience.CircuitBreaker)
	rt = otelhttp.NewTransport(rt)
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Transport: rt,
			Timeout:   cfg.Timeout,
		},
		logger: logger.With("component", "users_client"),
	}
}

// FetchUsers returns the body of GET /users unchanged once it is known to be a JSON array.
func (c *Client) FetchUsers(ctx context.Context) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+usersPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build users request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call users API: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.WarnContext(ctx, "Users API answered with an error status", "status", resp.StatusCode)
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read users response: %w", err)
	}
	var users []json.RawMessage
	if err := json.Unmarshal(body, &users); err != nil || users == nil {
		c.logger.WarnContext(ctx, "Users API answered with a malformed body", "error", err)
		return nil, ErrMalformedResponse
	}
	c.logger.DebugContext(ctx, "Fetched users", "count", len(users))
	return body, nil
}
