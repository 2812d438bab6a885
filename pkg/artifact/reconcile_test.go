package artifact

import "testing"

func TestReconcile_NewName(t *testing.T) {
	existing := []Artifact{
		{ID: "rs_a", Name: "Alpha", State: StateActive},
		{ID: "rs_b", Name: "Beta", State: StatePending},
	}
	id, replaced := Reconcile(existing, "Gamma", "rs_new")
	if replaced || id != "rs_new" {
		t.Fatalf("expected fresh id, got %s replaced=%v", id, replaced)
	}
}

func TestReconcile_PendingMatchNormalizesName(t *testing.T) {
	existing := []Artifact{
		{ID: "rs_a", Name: "Foo", State: StatePending},
	}
	id, replaced := Reconcile(existing, "  foo ", "rs_new")
	if !replaced || id != "rs_a" {
		t.Fatalf("expected replacement of rs_a, got %s replaced=%v", id, replaced)
	}
}

func TestReconcile_NonPendingNeverMatches(t *testing.T) {
	existing := []Artifact{
		{ID: "rs_a", Name: "Foo", State: StateActive},
		{ID: "rs_b", Name: "Foo", State: StateRejected},
	}
	id, replaced := Reconcile(existing, "foo", "rs_new")
	if replaced || id != "rs_new" {
		t.Fatalf("active/rejected entries must not be replaced, got %s replaced=%v", id, replaced)
	}
}

func TestReconcile_EarliestPendingWins(t *testing.T) {
	// Duplicate pending names should not occur, but when they do the
	// earliest-inserted entry is the one replaced.
	existing := []Artifact{
		{ID: "rs_a", Name: "foo", State: StatePending},
		{ID: "rs_b", Name: "FOO", State: StatePending},
	}
	id, replaced := Reconcile(existing, "Foo", "rs_new")
	if !replaced || id != "rs_a" {
		t.Fatalf("expected earliest pending match rs_a, got %s", id)
	}
}

func TestReconcile_BlankNameNeverReplaces(t *testing.T) {
	existing := []Artifact{
		{ID: "rs_a", Name: "  ", State: StatePending},
	}
	id, replaced := Reconcile(existing, "   ", "rs_new")
	if replaced || id != "rs_new" {
		t.Fatalf("blank names must not match, got %s replaced=%v", id, replaced)
	}
}
