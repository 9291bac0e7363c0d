package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	applog "github.com/janisto/portfolio-builder/internal/platform/logging"
)

const (
	StatusHealthy     = "healthy"
	StatusUnavailable = "unavailable"
)

// Response is the payload for the health endpoints.
type Response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Check probes one backing service.
type Check struct {
	Name  string
	Probe func(context.Context) error
}

// Handler is the liveness probe. It never touches backing services.
func Handler(w http.ResponseWriter, _ *http.Request) {
	write(w, http.StatusOK, Response{Status: StatusHealthy})
}

// Ready runs every check concurrently, each bounded by timeout, and answers
// 503 when any of them fails.
func Ready(timeout time.Duration, checks ...Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		results := make([]error, len(checks))
		var g errgroup.Group
		for i, c := range checks {
			g.Go(func() error {
				results[i] = c.Probe(ctx)
				return nil
			})
		}
		_ = g.Wait()

		resp := Response{Status: StatusHealthy, Checks: make(map[string]string, len(checks))}
		code := http.StatusOK
		for i, c := range checks {
			if err := results[i]; err != nil {
				applog.LogWarn(r.Context(), "readiness check failed", zap.String("check", c.Name), zap.Error(err))
				resp.Checks[c.Name] = StatusUnavailable
				resp.Status = StatusUnavailable
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[c.Name] = "ok"
		}
		write(w, code, resp)
	}
}

func write(w http.ResponseWriter, code int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
