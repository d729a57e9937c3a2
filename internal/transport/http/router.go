package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"

	"quiz-funnel/internal/app"
)

// NewRouter mounts the funnel pages, the JSON API and the result stream.
func NewRouter(service *app.FunnelService, store sessions.Store) http.Handler {
	pages := NewPageHandler(service, store)
	api := NewAPIHandler(service)
	ws := NewWSHandler(service, store)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Get("/", pages.Home)
	r.Post("/start", pages.Start)
	r.Route("/quiz", func(r chi.Router) {
		r.Post("/answer", pages.Answer)
		r.Post("/back", pages.Back)
		r.Post("/continue", pages.Continue)
	})
	r.Post("/lead", pages.Lead)
	r.Post("/restart", pages.Restart)
	r.Get("/ws/result", ws.ServeResult)

	r.Route("/api", func(r chi.Router) {
		r.Get("/funnel", api.Funnel)
		r.Post("/score", api.Score)
		r.Post("/leads", api.Leads)
		r.Get("/countdown", api.Countdown)
	})
	return r
}
