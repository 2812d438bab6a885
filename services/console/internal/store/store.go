// Package store is the collection store behind the console: one ordered
// collection per artifact kind, exposed through an explicit repository
// interface with copy-on-read semantics. The memory implementation backs
// dev/mock mode; the Postgres one is selected when DATABASE_URL is set.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"govdesk/pkg/artifact"
)

var ErrNotFound = errors.New("artifact not found")

// Filter narrows List results. Zero value lists everything.
type Filter struct {
	State artifact.State
}

type Event struct {
	ArtifactID string         `json:"artifact_id"`
	Type       string         `json:"type"`
	Actor      string         `json:"actor"`
	At         time.Time      `json:"at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

type Repository interface {
	// List returns a snapshot of the kind's collection in insertion order.
	List(ctx context.Context, kind artifact.Kind, f Filter) ([]artifact.Artifact, error)
	// Get resolves by ID first, then by normalized name as a convenience
	// alias. Returns ErrNotFound when neither matches.
	Get(ctx context.Context, kind artifact.Kind, idOrName string) (artifact.Artifact, error)
	// Upsert replaces the record with the same ID in place, or appends.
	// The stored revision is bumped on every write; the stored artifact is
	// returned.
	Upsert(ctx context.Context, a artifact.Artifact) (artifact.Artifact, error)
	AddEvent(ctx context.Context, ev Event) error
	ListEvents(ctx context.Context, artifactID string) ([]Event, error)
}

// Memory is the in-memory repository. Collections keep insertion order so
// the reconciler's earliest-inserted tie-break holds.
type Memory struct {
	mu     sync.Mutex
	byKind map[artifact.Kind][]artifact.Artifact
	events map[string][]Event
}

func NewMemory() *Memory {
	return &Memory{
		byKind: map[artifact.Kind][]artifact.Artifact{},
		events: map[string][]Event{},
	}
}

func (m *Memory) List(_ context.Context, kind artifact.Kind, f Filter) ([]artifact.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]artifact.Artifact, 0, len(m.byKind[kind]))
	for _, a := range m.byKind[kind] {
		if f.State != "" && a.State != f.State {
			continue
		}
		out = append(out, a.Clone())
	}
	return out, nil
}

func (m *Memory) Get(_ context.Context, kind artifact.Kind, idOrName string) (artifact.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byKind[kind] {
		if a.ID == idOrName {
			return a.Clone(), nil
		}
	}
	key := artifact.NormalizeName(idOrName)
	if key != "" {
		for _, a := range m.byKind[kind] {
			if artifact.NormalizeName(a.Name) == key {
				return a.Clone(), nil
			}
		}
	}
	return artifact.Artifact{}, ErrNotFound
}

func (m *Memory) Upsert(_ context.Context, a artifact.Artifact) (artifact.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.byKind[a.Kind]
	for i, cur := range list {
		if cur.ID == a.ID {
			a.Rev = cur.Rev + 1
			list[i] = a.Clone()
			return a, nil
		}
	}
	a.Rev = 1
	m.byKind[a.Kind] = append(list, a.Clone())
	return a, nil
}

func (m *Memory) AddEvent(_ context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	m.events[ev.ArtifactID] = append(m.events[ev.ArtifactID], ev)
	return nil
}

func (m *Memory) ListEvents(_ context.Context, artifactID string) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events[artifactID]...), nil
}
