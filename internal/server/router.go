package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/prguard/prguard/internal/server/handler"
)

// Handlers groups the route handlers the router mounts.
type Handlers struct {
	Webhook *handler.WebhookHandler
	Review  *handler.ReviewHandler
	Worker  *handler.WorkerHandler
}

// NewRouter configures the HTTP router with middleware and API routes.
func NewRouter(h Handlers, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/webhook/github", h.Webhook.Handle)
		r.Post("/review", h.Review.Handle)
		r.Post("/worker", h.Worker.Handle)
	})

	return r
}
