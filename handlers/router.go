package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sasta-kro/dockyard/daemon"
)

// RouterDependencies carries everything the handlers need. Explicit
// dependency injection keeps the handlers testable with a state built on
// temp dirs and no engine.
type RouterDependencies struct {
	Logger *slog.Logger
	State  *daemon.State
}

// NewControlRouter builds the unix-socket API surface.
func NewControlRouter(deps RouterDependencies) http.Handler {
	h := &handler{logger: deps.Logger, state: deps.State}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.health)
		r.Get("/projects", h.listProjects)
		r.Post("/projects", h.deployProject)
		r.Get("/projects/{slug}", h.getProject)
		r.Delete("/projects/{slug}", h.deleteProject)
		r.Post("/projects/{slug}/rebuild", h.rebuildProject)
		r.Post("/projects/{slug}/start", h.startProject)
		r.Post("/projects/{slug}/stop", h.stopProject)
		r.Get("/projects/{slug}/logs", h.getLogs)
		r.Get("/projects/{slug}/history", h.getHistory)
		r.Get("/config", h.getConfig)
		r.Put("/config", h.updateConfig)
	})

	return r
}

// NewWebhookRouter builds the public webhook surface. Kept separate from the
// control router: it binds a public TCP port and must expose nothing else.
func NewWebhookRouter(deps RouterDependencies) http.Handler {
	h := &handler{logger: deps.Logger, state: deps.State}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Post("/webhook/{slug}", h.webhook)

	return r
}

type handler struct {
	logger *slog.Logger
	state  *daemon.State
}
