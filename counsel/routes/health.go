package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// HealthRoutes exposes the liveness probe.
func HealthRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", handleJSON(func(*http.Request) (any, error) {
		return map[string]string{"status": "ok"}, nil
	}))
	return r
}
