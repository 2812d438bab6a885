package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"govdesk/pkg/artifact"
)

func TestMemory_UpsertAppendsAndReplaces(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	a := artifact.Artifact{
		ID:        "rs_1",
		Kind:      artifact.KindRuleset,
		Name:      "Foo",
		State:     artifact.StatePending,
		CreatedAt: time.Now().UTC(),
	}
	stored, err := m.Upsert(ctx, a)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if stored.Rev != 1 {
		t.Fatalf("first write should be rev 1, got %d", stored.Rev)
	}

	a.State = artifact.StateActive
	stored, err = m.Upsert(ctx, a)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if stored.Rev != 2 {
		t.Fatalf("rewrite should bump rev, got %d", stored.Rev)
	}

	list, err := m.List(ctx, artifact.KindRuleset, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("replacement must not append, got %d entries", len(list))
	}
	if list[0].State != artifact.StateActive {
		t.Fatalf("replacement not applied: %+v", list[0])
	}
}

func TestMemory_ListFiltersByState(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for _, a := range []artifact.Artifact{
		{ID: "rs_1", Kind: artifact.KindRuleset, Name: "a", State: artifact.StateActive},
		{ID: "rs_2", Kind: artifact.KindRuleset, Name: "b", State: artifact.StatePending},
		{ID: "dc_1", Kind: artifact.KindContract, Name: "c", State: artifact.StatePending},
	} {
		if _, err := m.Upsert(ctx, a); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	pending, err := m.List(ctx, artifact.KindRuleset, Filter{State: artifact.StatePending})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "rs_2" {
		t.Fatalf("state filter broken: %+v", pending)
	}
}

func TestMemory_ListIsCopyOnRead(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	a := artifact.Artifact{
		ID:      "rs_1",
		Kind:    artifact.KindRuleset,
		Name:    "Foo",
		State:   artifact.StateActive,
		Content: artifact.StructuredContent([]artifact.Rule{{ID: "r1", Name: "n", Condition: "c"}}),
	}
	if _, err := m.Upsert(ctx, a); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	snapshot, _ := m.List(ctx, artifact.KindRuleset, Filter{})
	snapshot[0].Name = "mutated"
	snapshot[0].Content.Rules[0].Condition = "mutated"

	fresh, _ := m.Get(ctx, artifact.KindRuleset, "rs_1")
	if fresh.Name != "Foo" || fresh.Content.Rules[0].Condition != "c" {
		t.Fatalf("snapshot mutation leaked into store: %+v", fresh)
	}
}

func TestMemory_GetByIDThenNameAlias(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	a := artifact.Artifact{ID: "dc_1", Kind: artifact.KindContract, Name: "Quarterly Revenue", State: artifact.StatePending}
	if _, err := m.Upsert(ctx, a); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	byID, err := m.Get(ctx, artifact.KindContract, "dc_1")
	if err != nil || byID.ID != "dc_1" {
		t.Fatalf("get by id: %v %+v", err, byID)
	}
	byName, err := m.Get(ctx, artifact.KindContract, "  quarterly revenue ")
	if err != nil || byName.ID != "dc_1" {
		t.Fatalf("get by normalized name: %v %+v", err, byName)
	}
	if _, err := m.Get(ctx, artifact.KindRuleset, "dc_1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("kinds are separate collections, got %v", err)
	}
	if _, err := m.Get(ctx, artifact.KindContract, "dc_missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemory_Events(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := m.AddEvent(ctx, Event{ArtifactID: "dc_1", Type: "UPLOADED", Actor: "tester"}); err != nil {
		t.Fatalf("add event: %v", err)
	}
	if err := m.AddEvent(ctx, Event{ArtifactID: "dc_1", Type: "APPROVED", Actor: "tester"}); err != nil {
		t.Fatalf("add event: %v", err)
	}
	evs, err := m.ListEvents(ctx, "dc_1")
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(evs) != 2 || evs[0].Type != "UPLOADED" || evs[1].Type != "APPROVED" {
		t.Fatalf("unexpected events: %+v", evs)
	}
	if evs[0].At.IsZero() {
		t.Fatalf("event timestamp not stamped")
	}
}
