package health

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// LivenessHandler returns an HTTP handler for liveness probes.
func LivenessHandler(e *Endpoints) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, e.Live())
	}
}

// ReadinessHandler returns an HTTP handler for readiness probes.
func ReadinessHandler(e *Endpoints) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, resp := e.Ready(r.Context())
		writeJSON(w, code, resp)
	}
}

// DetailedHandler returns an HTTP handler for the full health report. It
// answers 200 when healthy and 503 otherwise.
func DetailedHandler(e *Endpoints) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := e.Health(r.Context())
		writeJSON(w, resp.StatusCode, resp)
	}
}

// ComponentHandler returns an HTTP handler for a single dependency. It
// answers 200 whatever the probe status.
func ComponentHandler(e *Endpoints, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := e.Component(r.Context(), name)
		if errors.Is(err, ErrCheckerNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"status":  "error",
				"code":    "NOT_FOUND",
				"message": err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// Routes returns a router serving /, /live, /ready and one route per
// registered component. Mount it at /health.
func Routes(e *Endpoints) chi.Router {
	r := chi.NewRouter()
	r.Get("/", DetailedHandler(e))
	r.Get("/live", LivenessHandler(e))
	r.Get("/ready", ReadinessHandler(e))
	for _, name := range e.agg.CheckerNames() {
		r.Get("/"+name, ComponentHandler(e, name))
	}
	return r
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
