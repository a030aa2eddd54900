package runs

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smallholder-irrigation/survey-merge/internal/middleware"
)

// SetupRoutes mounts the merge-run API. Merges are throttled per client;
// reads are not.
func SetupRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.ListRuns)
	r.Get("/{id}", h.GetRun)
	r.Get("/{id}/report", h.GetReport)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(h.Settings.RateLimitPerMinute))
		r.Post("/", h.CreateRun)
	})

	return r
}
