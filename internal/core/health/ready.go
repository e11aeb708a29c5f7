package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Readiness pings each named dependency within timeout. Any failure makes
// the service not ready.
func Readiness(timeout time.Duration, deps map[string]Pinger) http.HandlerFunc {
	if timeout <= 0 {
		timeout = time.Second
	}
	return func(w http.ResponseWriter, r *http.Request) {
		type resp struct {
			Status string            `json:"status"`
			Errors map[string]string `json:"errors,omitempty"`
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		out := resp{Status: "ready"}
		for name, p := range deps {
			if err := p.Ping(ctx); err != nil {
				if out.Errors == nil {
					out.Errors = map[string]string{}
				}
				out.Errors[name] = err.Error()
			}
		}
		w.Header().Set("Content-Type", "application/json")
		if len(out.Errors) > 0 {
			out.Status = "not_ready"
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}
