// Package app contains the application setup for the product catalog service.
package app

import (
	"log/slog"
	"net/http"

	"github.com/abgdnv/product-catalog/internal/config"
	"github.com/abgdnv/product-catalog/internal/product/service"
	"github.com/abgdnv/product-catalog/internal/product/store"
	productrest "github.com/abgdnv/product-catalog/internal/product/transport/rest"
	"github.com/abgdnv/product-catalog/internal/thirdparty"
	thirdpartyrest "github.com/abgdnv/product-catalog/internal/thirdparty/transport/rest"
	"github.com/abgdnv/product-catalog/pkg/messaging"
	"github.com/abgdnv/product-catalog/pkg/server"
	"github.com/go-chi/chi/v5"
)

type Dependencies struct {
	ProductService service.ProductService
	Users          thirdparty.UsersFetcher
	Readiness      []ReadinessCheck
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
	Logger         *slog.Logger
}

// SetupDependencies builds the service graph on top of an already opened store.
// publisher may be nil.
func SetupDependencies(productStore store.ProductStore, publisher messaging.Publisher, users thirdparty.UsersFetcher, logger *slog.Logger) *Dependencies {
	return &Dependencies{
		ProductService: service.NewService(productStore, publisher, logger),
		Users:          users,
		Readiness: []ReadinessCheck{
			{Name: "store", Check: productStore.Ping},
		},
		Logger: logger,
	}
}

// SetupHttpHandler initializes the router and routes of the service.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	productHandler := productrest.NewHandler(deps.ProductService, deps.Logger)
	productHandler.RegisterRoutes(mux)

	if deps.Users != nil {
		thirdpartyrest.NewHandler(deps.Users, deps.Logger).RegisterRoutes(mux)
	}

	mux.Get("/healthz", productHandler.HealthCheck)
	mux.Get("/livez", productHandler.HealthCheck)
	mux.Get("/readyz", Ready(deps.Readiness, deps.Logger))
	if deps.MetricsHandler != nil {
		mux.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
}

// SetupHttpServer creates and configures an HTTP server for the service.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	return server.NewHTTPServer(server.FromConfig(cfg.HTTPServer), SetupHttpHandler(deps))
}
