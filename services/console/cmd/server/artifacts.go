package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"govdesk/pkg/artifact"
	"govdesk/pkg/httpx"
	"govdesk/services/console/internal/store"

	"github.com/go-chi/chi/v5"
)

type uploadRequest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Content string `json:"content"`
}

type uploadOutcome struct {
	Artifact artifact.Artifact
	Replaced bool
	Issues   []artifact.Issue
}

func registerArtifactRoutes(api chi.Router, s *server) {
	api.Route("/{kind}", func(kr chi.Router) {
		kr.Get("/", func(w http.ResponseWriter, r *http.Request) {
			if !s.requireAdmin(w, r) {
				return
			}
			kind, ok := kindParam(w, r)
			if !ok {
				return
			}
			var f store.Filter
			if raw := strings.TrimSpace(r.URL.Query().Get("state")); raw != "" {
				state, ok := artifact.ParseState(raw)
				if !ok {
					httpx.WriteError(w, 400, "BAD_REQUEST", fmt.Sprintf("unknown state: %s", raw), nil)
					return
				}
				f.State = state
			}
			list, err := s.st.List(r.Context(), kind, f)
			if err != nil {
				httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
				return
			}
			httpx.WriteJSON(w, 200, map[string]any{
				"request_id": httpx.NewRequestID(),
				"artifacts":  list,
				"count":      len(list),
			})
		})

		kr.Post("/", func(w http.ResponseWriter, r *http.Request) {
			if !s.requireAdmin(w, r) {
				return
			}
			kind, ok := kindParam(w, r)
			if !ok {
				return
			}
			var req uploadRequest
			if !s.readJSON(w, r, &req, false) {
				return
			}
			out, err := s.processUpload(r.Context(), kind, req.Name, req.Version, req.Content)
			if err != nil {
				httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
				return
			}
			httpx.WriteJSON(w, 201, uploadResponse(out))
		})

		kr.Get("/{id_or_name}", func(w http.ResponseWriter, r *http.Request) {
			if !s.requireAdmin(w, r) {
				return
			}
			kind, ok := kindParam(w, r)
			if !ok {
				return
			}
			a, ok := s.lookup(w, r, kind)
			if !ok {
				return
			}
			httpx.WriteJSON(w, 200, map[string]any{
				"request_id": httpx.NewRequestID(),
				"artifact":   a,
			})
		})

		kr.Get("/{id_or_name}/events", func(w http.ResponseWriter, r *http.Request) {
			if !s.requireAdmin(w, r) {
				return
			}
			kind, ok := kindParam(w, r)
			if !ok {
				return
			}
			a, ok := s.lookup(w, r, kind)
			if !ok {
				return
			}
			events, err := s.st.ListEvents(r.Context(), a.ID)
			if err != nil {
				httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
				return
			}
			httpx.WriteJSON(w, 200, map[string]any{
				"request_id":  httpx.NewRequestID(),
				"artifact_id": a.ID,
				"events":      events,
			})
		})

		kr.Post("/{id_or_name}/approve", func(w http.ResponseWriter, r *http.Request) {
			s.review(w, r, true)
		})

		kr.Post("/{id_or_name}/reject", func(w http.ResponseWriter, r *http.Request) {
			s.review(w, r, false)
		})
	})
}

// processUpload is the submit pipeline: Validator -> Reconciler -> Lifecycle
// Assigner -> store. Every submission is persisted; invalid ones land as
// REJECTED records so the audit trail keeps bad uploads.
func (s *server) processUpload(ctx context.Context, kind artifact.Kind, name, version, content string) (uploadOutcome, error) {
	res, issues := artifact.ValidateSubmission(name, content)

	existing, err := s.st.List(ctx, kind, store.Filter{})
	if err != nil {
		return uploadOutcome{}, err
	}
	id, replaced := artifact.Reconcile(existing, name, newArtifactID(kind))
	state, reason := artifact.AssignInitialState(res, issues, artifact.PolicyForKind(kind))

	now := s.now().UTC()
	a := artifact.Artifact{
		ID:        id,
		Kind:      kind,
		Name:      strings.TrimSpace(name),
		Version:   strings.TrimSpace(version),
		State:     state,
		Content:   res.ToContent(),
		CreatedAt: now,
	}
	if a.Version == "" {
		a.Version = artifact.DefaultVersion
	}
	if replaced {
		// The pending entry's identity survives: same ID, original
		// creation stamp, everything else freshly computed.
		for _, cur := range existing {
			if cur.ID == id {
				a.CreatedAt = cur.CreatedAt
				break
			}
		}
	}
	if state == artifact.StateRejected {
		a.RejectedAt = &now
		a.RejectedBy = "validator"
		a.Reason = reason
	}

	stored, err := s.st.Upsert(ctx, a)
	if err != nil {
		return uploadOutcome{}, err
	}
	eventType := "UPLOADED"
	if replaced {
		eventType = "REPLACED"
	}
	payload := map[string]any{"state": string(stored.State)}
	if len(issues) > 0 {
		payload["issues"] = issues
	}
	s.addEvent(ctx, stored.ID, eventType, s.cfg.ReviewerSubject, payload)

	return uploadOutcome{Artifact: stored, Replaced: replaced, Issues: issues}, nil
}

func uploadResponse(out uploadOutcome) map[string]any {
	success := out.Artifact.State != artifact.StateRejected
	message := uploadMessage(out)
	resp := map[string]any{
		"request_id": httpx.NewRequestID(),
		"success":    success,
		"message":    message,
		"artifact":   out.Artifact,
		"replaced":   out.Replaced,
	}
	if len(out.Issues) > 0 {
		resp["issues"] = out.Issues
	}
	return resp
}

func uploadMessage(out uploadOutcome) string {
	switch out.Artifact.State {
	case artifact.StateActive:
		if out.Replaced {
			return "pending submission replaced; artifact is active"
		}
		return "artifact uploaded and active"
	case artifact.StatePending:
		if out.Replaced {
			return "pending submission replaced; awaiting review"
		}
		return "artifact uploaded, awaiting review"
	default:
		return "submission rejected: " + out.Artifact.Reason
	}
}

func (s *server) review(w http.ResponseWriter, r *http.Request, approve bool) {
	if !s.requireAdmin(w, r) {
		return
	}
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	a, ok := s.lookup(w, r, kind)
	if !ok {
		return
	}
	if !checkRevMatch(w, r, a) {
		return
	}
	if a.State != artifact.StatePending {
		httpx.WriteError(w, 409, "CONFLICT",
			fmt.Sprintf("only pending artifacts can be reviewed; state is %s", a.State), nil)
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if !approve {
		if !s.readJSON(w, r, &req, true) {
			return
		}
	}

	now := s.now().UTC()
	var updated artifact.Artifact
	eventType := "APPROVED"
	if approve {
		updated = artifact.Approve(a, s.cfg.ReviewerSubject, now)
	} else {
		updated = artifact.Reject(a, s.cfg.ReviewerSubject, req.Reason, now)
		eventType = "REJECTED"
	}
	stored, err := s.st.Upsert(r.Context(), updated)
	if err != nil {
		httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
		return
	}
	payload := map[string]any{}
	if stored.Reason != "" {
		payload["reason"] = stored.Reason
	}
	s.addEvent(r.Context(), stored.ID, eventType, s.cfg.ReviewerSubject, payload)

	httpx.WriteJSON(w, 200, map[string]any{
		"request_id": httpx.NewRequestID(),
		"artifact":   stored,
	})
}

// checkRevMatch enforces the optional If-Match revision guard so a reviewer
// acting on a stale snapshot cannot silently clobber a newer write.
func checkRevMatch(w http.ResponseWriter, r *http.Request, a artifact.Artifact) bool {
	raw := strings.TrimSpace(r.Header.Get("If-Match"))
	if raw == "" {
		return true
	}
	rev, err := strconv.ParseInt(strings.Trim(raw, `"`), 10, 64)
	if err != nil {
		httpx.WriteError(w, 400, "BAD_REQUEST", "If-Match must be a revision number", nil)
		return false
	}
	if rev != a.Rev {
		httpx.WriteError(w, 409, "REV_CONFLICT",
			fmt.Sprintf("artifact is at rev %d, not %d", a.Rev, rev), map[string]any{"rev": a.Rev})
		return false
	}
	return true
}

func (s *server) lookup(w http.ResponseWriter, r *http.Request, kind artifact.Kind) (artifact.Artifact, bool) {
	idOrName := chi.URLParam(r, "id_or_name")
	a, err := s.st.Get(r.Context(), kind, idOrName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteError(w, 404, "NOT_FOUND", "artifact not found", nil)
			return artifact.Artifact{}, false
		}
		httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
		return artifact.Artifact{}, false
	}
	return a, true
}

func kindParam(w http.ResponseWriter, r *http.Request) (artifact.Kind, bool) {
	kind, ok := artifact.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		httpx.WriteError(w, 404, "NOT_FOUND", "unknown artifact kind", nil)
		return "", false
	}
	return kind, true
}
