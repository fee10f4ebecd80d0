package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abgdnv/product-catalog/pkg/config"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedServer answers with the queued status codes in order, then 200 forever.
type scriptedServer struct {
	*httptest.Server
	calls     atomic.Int32
	responses []int
}

func newScriptedServer(t *testing.T, responses ...int) *scriptedServer {
	t.Helper()
	s := &scriptedServer{responses: responses}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := int(s.calls.Add(1)) - 1
		if n < len(s.responses) {
			w.WriteHeader(s.responses[n])
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(s.Close)
	return s
}

var retryCfg = config.RetryConfig{
	MaxAttempts:    3,
	InitialBackoff: time.Millisecond,
	MaxBackoff:     5 * time.Millisecond,
}

var breakerCfg = config.CircuitBreakerConfig{
	ConsecutiveFailures: 3,
	ErrorRatePercent:    60,
	OpenTimeout:         time.Minute,
	HalfOpenRequests:    1,
}

func Test_RetryTransport(t *testing.T) {
	testCases := []struct {
		name          string
		method        string
		responses     []int
		expectedCode  int
		expectedCalls int32
	}{
		{name: "success first try", method: http.MethodGet, expectedCode: http.StatusOK, expectedCalls: 1},
		{name: "recovers after 503", method: http.MethodGet, responses: []int{503, 502}, expectedCode: http.StatusOK, expectedCalls: 3},
		{name: "gives up with last response", method: http.MethodGet, responses: []int{503, 503, 504, 503}, expectedCode: http.StatusGatewayTimeout, expectedCalls: 3},
		{name: "does not retry 500", method: http.MethodGet, responses: []int{500}, expectedCode: http.StatusInternalServerError, expectedCalls: 1},
		{name: "does not retry 404", method: http.MethodGet, responses: []int{404}, expectedCode: http.StatusNotFound, expectedCalls: 1},
		{name: "does not retry POST", method: http.MethodPost, responses: []int{503}, expectedCode: http.StatusServiceUnavailable, expectedCalls: 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			srv := newScriptedServer(t, tc.responses...)
			client := &http.Client{Transport: NewRetryTransport(http.DefaultTransport, retryCfg)}
			var body *strings.Reader
			if tc.method == http.MethodPost {
				body = strings.NewReader(`{}`)
			}
			var req *http.Request
			var err error
			if body != nil {
				req, err = http.NewRequest(tc.method, srv.URL, body)
			} else {
				req, err = http.NewRequest(tc.method, srv.URL, nil)
			}
			require.NoError(t, err)

			// when
			resp, err := client.Do(req)

			// then
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tc.expectedCode, resp.StatusCode)
			assert.Equal(t, tc.expectedCalls, srv.calls.Load())
		})
	}
}

func Test_RetryTransport_TransportError(t *testing.T) {
	// given
	var calls atomic.Int32
	failing := roundTripperFunc(func(*http.Request) (*http.Response, error) {
		calls.Add(1)
		return nil, errors.New("connection refused")
	})
	rt := NewRetryTransport(failing, retryCfg)
	req := httptest.NewRequest(http.MethodGet, "http://upstream.invalid/users", nil)

	// when
	resp, err := rt.RoundTrip(req)

	// then
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, int32(3), calls.Load())
}

func Test_RetryTransport_StopsOnCancelledContext(t *testing.T) {
	// given
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	failing := roundTripperFunc(func(*http.Request) (*http.Response, error) {
		calls.Add(1)
		cancel()
		return nil, context.Canceled
	})
	rt := NewRetryTransport(failing, retryCfg)
	req := httptest.NewRequest(http.MethodGet, "http://upstream.invalid/users", nil).WithContext(ctx)

	// when
	_, err := rt.RoundTrip(req)

	// then
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), calls.Load())
}

func Test_CircuitBreakerTransport_OpensAfterServerErrors(t *testing.T) {
	// given
	srv := newScriptedServer(t, 500, 500, 500, 500)
	client := &http.Client{Transport: NewCircuitBreakerTransport(http.DefaultTransport, "users-api", breakerCfg)}

	// when
	for range 3 {
		resp, err := client.Get(srv.URL)
		require.NoError(t, err, "5xx answers are passed through while the breaker is closed")
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		_ = resp.Body.Close()
	}
	_, err := client.Get(srv.URL)

	// then
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(3), srv.calls.Load(), "open breaker must not reach upstream")
}

func Test_CircuitBreakerTransport_ClientErrorsDoNotTrip(t *testing.T) {
	// given
	srv := newScriptedServer(t, 404, 404, 404, 404, 404)
	client := &http.Client{Transport: NewCircuitBreakerTransport(http.DefaultTransport, "users-api", breakerCfg)}

	// when
	for range 5 {
		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	// then
	assert.Equal(t, int32(5), srv.calls.Load())
}
