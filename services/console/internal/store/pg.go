package store

import (
	"context"
	"encoding/json"
	"errors"

	"govdesk/pkg/artifact"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema for the Postgres repository. Applied on startup; every statement is
// idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS console_artifacts (
  seq          BIGSERIAL PRIMARY KEY,
  artifact_id  TEXT NOT NULL UNIQUE,
  kind         TEXT NOT NULL,
  name         TEXT NOT NULL,
  version      TEXT NOT NULL,
  state        TEXT NOT NULL,
  content      JSONB NOT NULL,
  rev          BIGINT NOT NULL DEFAULT 1,
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
  approved_at  TIMESTAMPTZ,
  approved_by  TEXT,
  rejected_at  TIMESTAMPTZ,
  rejected_by  TEXT,
  reason       TEXT
);
CREATE INDEX IF NOT EXISTS console_artifacts_kind_state ON console_artifacts(kind, state);

CREATE TABLE IF NOT EXISTS console_artifact_events (
  seq          BIGSERIAL PRIMARY KEY,
  artifact_id  TEXT NOT NULL,
  type         TEXT NOT NULL,
  actor        TEXT,
  occurred_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  payload      JSONB
);
CREATE INDEX IF NOT EXISTS console_artifact_events_artifact ON console_artifact_events(artifact_id);
`

type PG struct{ DB *pgxpool.Pool }

func NewPG(db *pgxpool.Pool) *PG { return &PG{DB: db} }

func (s *PG) EnsureSchema(ctx context.Context) error {
	_, err := s.DB.Exec(ctx, Schema)
	return err
}

const artifactColumns = `artifact_id,kind,name,version,state,content,rev,created_at,approved_at,approved_by,rejected_at,rejected_by,reason`

func (s *PG) List(ctx context.Context, kind artifact.Kind, f Filter) ([]artifact.Artifact, error) {
	query := `SELECT ` + artifactColumns + ` FROM console_artifacts WHERE kind=$1 ORDER BY seq ASC`
	args := []any{string(kind)}
	if f.State != "" {
		query = `SELECT ` + artifactColumns + ` FROM console_artifacts WHERE kind=$1 AND state=$2 ORDER BY seq ASC`
		args = append(args, string(f.State))
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []artifact.Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PG) Get(ctx context.Context, kind artifact.Kind, idOrName string) (artifact.Artifact, error) {
	row := s.DB.QueryRow(ctx, `
SELECT `+artifactColumns+` FROM console_artifacts
WHERE kind=$1 AND (artifact_id=$2 OR lower(btrim(name))=lower(btrim($2)))
ORDER BY (artifact_id=$2) DESC, seq ASC
LIMIT 1
`, string(kind), idOrName)
	a, err := scanArtifact(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return artifact.Artifact{}, ErrNotFound
		}
		return artifact.Artifact{}, err
	}
	return a, nil
}

func (s *PG) Upsert(ctx context.Context, a artifact.Artifact) (artifact.Artifact, error) {
	content, err := json.Marshal(a.Content)
	if err != nil {
		return artifact.Artifact{}, err
	}
	row := s.DB.QueryRow(ctx, `
INSERT INTO console_artifacts(artifact_id,kind,name,version,state,content,created_at,approved_at,approved_by,rejected_at,rejected_by,reason)
VALUES($1,$2,$3,$4,$5,$6::jsonb,$7,$8,$9,$10,$11,$12)
ON CONFLICT (artifact_id) DO UPDATE SET
  name=EXCLUDED.name,
  version=EXCLUDED.version,
  state=EXCLUDED.state,
  content=EXCLUDED.content,
  approved_at=EXCLUDED.approved_at,
  approved_by=EXCLUDED.approved_by,
  rejected_at=EXCLUDED.rejected_at,
  rejected_by=EXCLUDED.rejected_by,
  reason=EXCLUDED.reason,
  rev=console_artifacts.rev+1
RETURNING rev
`, a.ID, string(a.Kind), a.Name, a.Version, string(a.State), string(content),
		a.CreatedAt, a.ApprovedAt, nullable(a.ApprovedBy), a.RejectedAt, nullable(a.RejectedBy), nullable(a.Reason))
	if err := row.Scan(&a.Rev); err != nil {
		return artifact.Artifact{}, err
	}
	return a, nil
}

func (s *PG) AddEvent(ctx context.Context, ev Event) error {
	var payload any
	if len(ev.Payload) > 0 {
		b, err := json.Marshal(ev.Payload)
		if err != nil {
			return err
		}
		payload = string(b)
	}
	_, err := s.DB.Exec(ctx, `
INSERT INTO console_artifact_events(artifact_id,type,actor,payload)
VALUES($1,$2,$3,$4::jsonb)
`, ev.ArtifactID, ev.Type, nullable(ev.Actor), payload)
	return err
}

func (s *PG) ListEvents(ctx context.Context, artifactID string) ([]Event, error) {
	rows, err := s.DB.Query(ctx, `
SELECT artifact_id,type,COALESCE(actor,''),occurred_at,payload
FROM console_artifact_events WHERE artifact_id=$1 ORDER BY seq ASC
`, artifactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var ev Event
		var payload []byte
		if err := rows.Scan(&ev.ArtifactID, &ev.Type, &ev.Actor, &ev.At, &payload); err != nil {
			return nil, err
		}
		if len(payload) > 0 {
			_ = json.Unmarshal(payload, &ev.Payload)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanArtifact(row scannable) (artifact.Artifact, error) {
	var a artifact.Artifact
	var kind, state string
	var content []byte
	var approvedBy, rejectedBy, reason *string
	err := row.Scan(&a.ID, &kind, &a.Name, &a.Version, &state, &content, &a.Rev,
		&a.CreatedAt, &a.ApprovedAt, &approvedBy, &a.RejectedAt, &rejectedBy, &reason)
	if err != nil {
		return artifact.Artifact{}, err
	}
	a.Kind = artifact.Kind(kind)
	a.State = artifact.State(state)
	if err := json.Unmarshal(content, &a.Content); err != nil {
		return artifact.Artifact{}, err
	}
	if approvedBy != nil {
		a.ApprovedBy = *approvedBy
	}
	if rejectedBy != nil {
		a.RejectedBy = *rejectedBy
	}
	if reason != nil {
		a.Reason = *reason
	}
	return a, nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
