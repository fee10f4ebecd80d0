package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/abgdnv/product-catalog/internal/thirdparty"
	"github.com/abgdnv/product-catalog/pkg/logger"
	"github.com/abgdnv/product-catalog/pkg/server"
	"github.com/abgdnv/product-catalog/pkg/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockUsersFetcher struct {
	users json.RawMessage
	error error
}

func (m mockUsersFetcher) FetchUsers(_ context.Context) (json.RawMessage, error) {
	return m.users, m.error
}

func Test_Handler_ListUsers(t *testing.T) {
	testCases := []struct {
		name         string
		fetcher      mockUsersFetcher
		expectedCode int
		expectedBody string
		expectedMsg  string
	}{
		{
			name:         "Success - body unchanged",
			fetcher:      mockUsersFetcher{users: json.RawMessage(`[{"id":1,"username":"Bret"}]`)},
			expectedCode: http.StatusOK,
			expectedBody: `[{"id":1,"username":"Bret"}]`,
		},
		{
			name:         "Error - upstream status",
			fetcher:      mockUsersFetcher{error: &thirdparty.StatusError{Code: http.StatusServiceUnavailable}},
			expectedCode: http.StatusInternalServerError,
			expectedMsg:  "Failed to fetch users. Status: 503",
		},
		{
			name:         "Error - malformed body",
			fetcher:      mockUsersFetcher{error: thirdparty.ErrMalformedResponse},
			expectedCode: http.StatusInternalServerError,
			expectedMsg:  "Failed to parse users response",
		},
		{
			name:         "Error - transport failure",
			fetcher:      mockUsersFetcher{error: errors.New("users-api: circuit breaker is open")},
			expectedCode: http.StatusInternalServerError,
			expectedMsg:  "users-api: circuit breaker is open",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			mux := server.NewChiRouter(logger.Discard())
			NewHandler(tc.fetcher, logger.Discard()).RegisterRoutes(mux)
			rr := httptest.NewRecorder()

			// when
			mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/thirdparty/users", nil))

			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			if tc.expectedMsg == "" {
				assert.Equal(t, tc.expectedBody, rr.Body.String())
				return
			}
			var body web.ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tc.expectedMsg, body.Message)
			assert.Equal(t, "/thirdparty/users", body.Path)
		})
	}
}
