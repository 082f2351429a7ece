package main

import (
	"context"
	"expvar"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"nexus-activity/internal/usersync"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func newRouter(p pinger, orch *usersync.Orchestrator) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(apiLogMiddleware()).Get("/healthz", healthHandler(p))
	r.Handle("/debug/vars", expvar.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(apiLogMiddleware())
		r.Post("/sessions", registerSessionHandler(orch))
		r.Post("/sessions/{user_id}/touch", touchSessionHandler(orch))
		r.Delete("/sessions/{user_id}", deregisterSessionHandler(orch))
		r.Get("/users/{user_id}/sync", syncUserHandler(orch))
		r.Post("/users/{user_id}/progress", applyProgressHandler(orch))
		r.Post("/sync/batch", batchSyncHandler(orch))
		r.Get("/stats", statsHandler(orch))
	})
	return r
}
