package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abgdnv/product-catalog/pkg/config"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
)

func Test_NewChiRouter(t *testing.T) {
	// given
	mux := NewChiRouter(slog.New(slog.DiscardHandler))
	var reqID string
	mux.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		reqID = middleware.GetReqID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	testCases := []struct {
		name         string
		method       string
		path         string
		expectedCode int
	}{
		{name: "registered route", method: http.MethodGet, path: "/ping", expectedCode: http.StatusOK},
		{name: "unknown route", method: http.MethodGet, path: "/nope", expectedCode: http.StatusNotFound},
		{name: "wrong method", method: http.MethodDelete, path: "/ping", expectedCode: http.StatusMethodNotAllowed},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))
		})
	}
	assert.NotEmpty(t, reqID, "request id must reach handlers")
}

func Test_NewHTTPServer(t *testing.T) {
	// given
	var cfg config.HTTPConfig
	cfg.Port = 8081
	cfg.MaxHeaderBytes = 1024
	cfg.Timeout.Read = time.Second
	cfg.Timeout.Write = 2 * time.Second
	cfg.Timeout.Idle = 3 * time.Second
	cfg.Timeout.ReadHeader = 4 * time.Second

	// when
	srv := NewHTTPServer(FromConfig(cfg), http.NotFoundHandler())

	// then
	assert.Equal(t, ":8081", srv.Addr)
	assert.Equal(t, 1024, srv.MaxHeaderBytes)
	assert.Equal(t, time.Second, srv.ReadTimeout)
	assert.Equal(t, 2*time.Second, srv.WriteTimeout)
	assert.Equal(t, 3*time.Second, srv.IdleTimeout)
	assert.Equal(t, 4*time.Second, srv.ReadHeaderTimeout)
}
