package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"govdesk/pkg/artifact"
	"govdesk/pkg/httpx"
	"govdesk/services/console/internal/config"
	"govdesk/services/console/internal/drafts"
	"govdesk/services/console/internal/jobs"
	"govdesk/services/console/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type server struct {
	st     store.Repository
	gen    *drafts.Generator
	runner *jobs.Runner
	cfg    config.Config
	log    *zap.Logger
	now    func() time.Time
}

func newServer(st store.Repository, cfg config.Config, log *zap.Logger) *server {
	s := &server{
		st:     st,
		gen:    drafts.NewGenerator(cfg.DraftTTL),
		runner: jobs.NewRunner(log),
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
	s.registerBuiltinJobs()
	return s
}

func newRouter(s *server) http.Handler {
	r := chi.NewRouter()
	r.Use(httpx.RequestLogger(s.log))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	r.Route("/console/v1", func(api chi.Router) {
		registerDraftRoutes(api, s)
		registerJobRoutes(api, s)
		registerArtifactRoutes(api, s)
	})
	return r
}

func newArtifactID(kind artifact.Kind) string {
	if kind == artifact.KindRuleset {
		return "rs_" + uuid.NewString()
	}
	return "dc_" + uuid.NewString()
}

// requireAdmin checks the bearer admin token. An unset token leaves the
// console open, which is the dev/mock mode the UI runs against.
func (s *server) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if s.cfg.AdminToken == "" {
		return true
	}
	tok, ok := httpx.ParseBearer(r.Header.Get("Authorization"))
	if !ok || tok != s.cfg.AdminToken {
		httpx.WriteError(w, 401, "UNAUTHORIZED", "admin bearer token required", nil)
		return false
	}
	return true
}

// readJSON decodes a body with the configured size cap. A missing body is
// fine when optional is set; callers use that for requests whose fields all
// have defaults.
func (s *server) readJSON(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := httpx.ReadJSON(r, dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return true
		}
		httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
		return false
	}
	return true
}

func (s *server) addEvent(ctx context.Context, artifactID, eventType, actor string, payload map[string]any) {
	if err := s.st.AddEvent(ctx, store.Event{
		ArtifactID: artifactID,
		Type:       eventType,
		Actor:      actor,
		At:         s.now().UTC(),
		Payload:    payload,
	}); err != nil {
		s.log.Warn("audit event not recorded",
			zap.String("artifact_id", artifactID),
			zap.String("type", eventType),
			zap.Error(err))
	}
}

func (s *server) registerBuiltinJobs() {
	s.runner.Register(jobs.Job{
		Name:        "revalidate",
		Description: "re-run submission validation across stored artifacts",
		Run:         s.runRevalidate,
	})
	s.runner.Register(jobs.Job{
		Name:        "purge-drafts",
		Description: "drop draft sessions idle past their TTL",
		Run: func(context.Context) (map[string]any, error) {
			return map[string]any{"purged": s.gen.PurgeExpired(s.now().UTC())}, nil
		},
	})
}

// runRevalidate re-checks every stored artifact's content against the
// current validation rules and reports how many no longer pass. Read-only.
func (s *server) runRevalidate(ctx context.Context) (map[string]any, error) {
	checked, invalid := 0, 0
	for _, kind := range []artifact.Kind{artifact.KindContract, artifact.KindRuleset} {
		list, err := s.st.List(ctx, kind, store.Filter{})
		if err != nil {
			return nil, err
		}
		for _, a := range list {
			checked++
			if _, issues := artifact.ValidateSubmission(a.Name, a.Content.Text()); len(issues) > 0 {
				invalid++
			}
		}
	}
	return map[string]any{"checked": checked, "invalid": invalid}, nil
}
