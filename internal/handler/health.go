package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

// Health returns a health check handler. The service is degraded when any
// check fails; each dependency is reported by name.
func Health(checks map[string]Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := "ok"
		code := http.StatusOK
		deps := make(map[string]string, len(checks))

		for name, check := range checks {
			if err := check(ctx); err != nil {
				deps[name] = "down"
				status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "up"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": status, "checks": deps})
	}
}
