package store

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSetLabelsReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sp := mustCreateSpace(t, s, "labels")
	p := mustCreatePage(t, s, sp.ID, "Tagged")

	if err := s.SetLabels(ctx, p.ID, []string{"old", "stale"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.SetLabels(ctx, p.ID, []string{"new"}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, err := s.GetLabels(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff([]string{"new"}, got); diff != "" {
		t.Fatalf("labels (-want +got):\n%s", diff)
	}
}

// A duplicate in the replacement set rolls the whole SetLabels back; the
// previous set survives.
func TestSetLabelsDuplicateRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sp := mustCreateSpace(t, s, "labels-dup")
	p := mustCreatePage(t, s, sp.ID, "Tagged")

	if err := s.SetLabels(ctx, p.ID, []string{"original"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.SetLabels(ctx, p.ID, []string{"x", "x"}); err == nil {
		t.Fatal("duplicate label should fail")
	}

	got, err := s.GetLabels(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff([]string{"original"}, got); diff != "" {
		t.Fatalf("old set should survive (-want +got):\n%s", diff)
	}
}

func TestAddLabelIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sp := mustCreateSpace(t, s, "labels-add")
	p := mustCreatePage(t, s, sp.ID, "Tagged")

	for range 3 {
		if err := s.AddLabel(ctx, p.ID, "human-edited"); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	got, err := s.GetLabels(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff([]string{"human-edited"}, got); diff != "" {
		t.Fatalf("labels (-want +got):\n%s", diff)
	}
}

func TestLabelOpsOnMissingPage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SetLabels(ctx, "missing", []string{"x"}); !IsNotFound(err) {
		t.Fatalf("set: want NotFoundError, got %v", err)
	}
	if err := s.AddLabel(ctx, "missing", "x"); !IsNotFound(err) {
		t.Fatalf("add: want NotFoundError, got %v", err)
	}
}
