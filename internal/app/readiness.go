package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/abgdnv/product-catalog/pkg/web"
	"golang.org/x/sync/errgroup"
)

const readinessTimeout = 2 * time.Second

// ReadinessCheck is one dependency probed by /readyz.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Ready answers 200 when every check passes and 503 otherwise.
func Ready(checks []ReadinessCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		eg, egCtx := errgroup.WithContext(ctx)
		for _, c := range checks {
			eg.Go(func() error {
				if err := c.Check(egCtx); err != nil {
					return fmt.Errorf("%s: %w", c.Name, err)
				}
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			logger.WarnContext(r.Context(), "Readiness probe failed", "error", err)
			web.RespondError(w, r, logger, http.StatusServiceUnavailable, "Service is not ready: "+err.Error())
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
