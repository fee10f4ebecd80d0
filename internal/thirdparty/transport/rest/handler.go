// Package rest exposes the external users API through the service.
package rest

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/product-catalog/internal/thirdparty"
	"github.com/abgdnv/product-catalog/pkg/web"
	"github.com/go-chi/chi/v5"
)

type Handler struct {
	users  thirdparty.UsersFetcher
	logger *slog.Logger
}

func NewHandler(users thirdparty.UsersFetcher, logger *slog.Logger) *Handler {
	return &Handler{
		users:  users,
		logger: logger.With("component", "thirdparty_rest"),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/thirdparty/users", h.ListUsers)
}

// ListUsers proxies the users list. Any failure is answered with 500.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.FetchUsers(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to fetch users", "error", err)
		web.RespondError(w, r, h.logger, http.StatusInternalServerError, failureMessage(err))
		return
	}
	web.RespondRaw(w, http.StatusOK, users)
}

func failureMessage(err error) string {
	var statusErr *thirdparty.StatusError
	switch {
	case errors.As(err, &statusErr):
		return fmt.Sprintf("Failed to fetch users. Status: %d", statusErr.Code)
	case errors.Is(err, thirdparty.ErrMalformedResponse):
		return "Failed to parse users response"
	default:
		return err.Error()
	}
}
