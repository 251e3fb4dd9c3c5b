// Package diag serves read-only container diagnostics over HTTP.
package diag

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cepho/locator"
)

type envelope map[string]any

// NewRouter returns a router exposing:
//
//	GET /services         every service, as locator.ServiceInfo
//	GET /services/{name}  one service, 404 when unknown
//	GET /health           200 when every resolved health checker passes, else 503
//
// Nothing here resolves a service; unresolved services stay unresolved.
func NewRouter(c locator.Container) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/services", func(w http.ResponseWriter, _ *http.Request) {
		names := c.Services()

		infos := make([]locator.ServiceInfo, 0, len(names))
		for _, name := range names {
			infos = append(infos, c.Inspect(name))
		}

		writeJSON(w, http.StatusOK, envelope{"services": infos})
	})

	r.Get("/services/{name}", func(w http.ResponseWriter, req *http.Request) {
		name := chi.URLParam(req, "name")
		if !c.Has(name) {
			writeJSON(w, http.StatusNotFound, envelope{
				"error":    locator.ErrServiceNotFound(name, c.Services()).Error(),
				"services": c.Services(),
			})

			return
		}

		writeJSON(w, http.StatusOK, c.Inspect(name))
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := c.Health(req.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, envelope{"status": "unhealthy", "error": err.Error()})

			return
		}

		writeJSON(w, http.StatusOK, envelope{"status": "ok"})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
