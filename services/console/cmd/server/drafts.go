package main

import (
	"errors"
	"net/http"
	"strings"

	"govdesk/pkg/artifact"
	"govdesk/pkg/httpx"
	"govdesk/services/console/internal/drafts"

	"github.com/go-chi/chi/v5"
)

func registerDraftRoutes(api chi.Router, s *server) {
	api.Route("/drafts", func(dr chi.Router) {
		dr.Post("/", func(w http.ResponseWriter, r *http.Request) {
			if !s.requireAdmin(w, r) {
				return
			}
			var req struct {
				Message string `json:"message"`
			}
			if !s.readJSON(w, r, &req, true) {
				return
			}
			sess := s.gen.Start(req.Message)
			httpx.WriteJSON(w, 201, draftResponse(sess))
		})

		dr.Get("/{draft_id}", func(w http.ResponseWriter, r *http.Request) {
			if !s.requireAdmin(w, r) {
				return
			}
			sess, ok := s.draft(w, r)
			if !ok {
				return
			}
			httpx.WriteJSON(w, 200, draftResponse(sess))
		})

		dr.Post("/{draft_id}/messages", func(w http.ResponseWriter, r *http.Request) {
			if !s.requireAdmin(w, r) {
				return
			}
			var req struct {
				Message string `json:"message"`
			}
			if !s.readJSON(w, r, &req, false) {
				return
			}
			sess, err := s.gen.Append(chi.URLParam(r, "draft_id"), req.Message)
			if err != nil {
				if errors.Is(err, drafts.ErrNotFound) {
					httpx.WriteError(w, 404, "NOT_FOUND", "draft session not found", nil)
					return
				}
				httpx.WriteError(w, 500, "INTERNAL", err.Error(), nil)
				return
			}
			httpx.WriteJSON(w, 200, draftResponse(sess))
		})

		// Submitting a draft pushes it through the regular data-contract
		// upload path, so the reconciler and lifecycle rules apply
		// unchanged.
		dr.Post("/{draft_id}/submit", func(w http.ResponseWriter, r *http.Request) {
			if !s.requireAdmin(w, r) {
				return
			}
			sess, ok := s.draft(w, r)
			if !ok {
				return
			}
			var req struct {
				Name    string `json:"name"`
				Version string `json:"version"`
			}
			if !s.readJSON(w, r, &req, true) {
				return
			}
			name := strings.TrimSpace(req.Name)
			if name == "" {
				name = sess.SuggestedName
			}
			out, err := s.processUpload(r.Context(), artifact.KindContract, name, req.Version, sess.Content())
			if err != nil {
				httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
				return
			}
			resp := uploadResponse(out)
			resp["draft_id"] = sess.ID
			httpx.WriteJSON(w, 201, resp)
		})
	})
}

func (s *server) draft(w http.ResponseWriter, r *http.Request) (drafts.Session, bool) {
	sess, err := s.gen.Get(chi.URLParam(r, "draft_id"))
	if err != nil {
		if errors.Is(err, drafts.ErrNotFound) {
			httpx.WriteError(w, 404, "NOT_FOUND", "draft session not found", nil)
			return drafts.Session{}, false
		}
		httpx.WriteError(w, 500, "INTERNAL", err.Error(), nil)
		return drafts.Session{}, false
	}
	return sess, true
}

func draftResponse(sess drafts.Session) map[string]any {
	return map[string]any{
		"request_id": httpx.NewRequestID(),
		"draft":      sess,
		"content":    sess.Content(),
	}
}
