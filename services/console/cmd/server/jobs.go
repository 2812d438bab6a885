package main

import (
	"context"
	"errors"
	"net/http"

	"govdesk/pkg/httpx"
	"govdesk/services/console/internal/jobs"

	"github.com/go-chi/chi/v5"
)

func registerJobRoutes(api chi.Router, s *server) {
	api.Route("/jobs", func(jr chi.Router) {
		jr.Get("/", func(w http.ResponseWriter, r *http.Request) {
			if !s.requireAdmin(w, r) {
				return
			}
			httpx.WriteJSON(w, 200, map[string]any{
				"request_id": httpx.NewRequestID(),
				"jobs":       s.runner.List(),
			})
		})

		jr.Get("/{name}", func(w http.ResponseWriter, r *http.Request) {
			if !s.requireAdmin(w, r) {
				return
			}
			st, ok := s.runner.Get(chi.URLParam(r, "name"))
			if !ok {
				httpx.WriteError(w, 404, "NOT_FOUND", "unknown job", nil)
				return
			}
			httpx.WriteJSON(w, 200, map[string]any{
				"request_id": httpx.NewRequestID(),
				"job":        st,
			})
		})

		jr.Post("/{name}/run", func(w http.ResponseWriter, r *http.Request) {
			if !s.requireAdmin(w, r) {
				return
			}
			// The job outlives the request, so it must not inherit the
			// request context.
			st, err := s.runner.Trigger(context.Background(), chi.URLParam(r, "name"))
			if err != nil {
				if errors.Is(err, jobs.ErrUnknownJob) {
					httpx.WriteError(w, 404, "NOT_FOUND", "unknown job", nil)
					return
				}
				if errors.Is(err, jobs.ErrAlreadyRunning) {
					httpx.WriteError(w, 409, "CONFLICT", "job is already running", nil)
					return
				}
				httpx.WriteError(w, 500, "INTERNAL", err.Error(), nil)
				return
			}
			httpx.WriteJSON(w, 202, map[string]any{
				"request_id": httpx.NewRequestID(),
				"job":        st,
			})
		})
	})
}
