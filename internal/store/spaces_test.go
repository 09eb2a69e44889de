package store

import (
	"context"
	"errors"
	"testing"
)

func TestCreateAndGetSpace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sp, err := s.CreateSpace(ctx, "backend", "Backend Team", "services and infra")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sp.ID == "" {
		t.Fatal("space should get an id")
	}

	got, err := s.GetSpaceBySlug(ctx, "backend")
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if got.Name != "Backend Team" || got.Description != "services and infra" {
		t.Fatalf("unexpected space: %+v", got)
	}

	byID, err := s.GetSpace(ctx, sp.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if byID.Slug != "backend" {
		t.Fatalf("get by id returned wrong space: %+v", byID)
	}
}

func TestCreateSpaceDuplicateSlug(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateSpace(t, s, "dup")
	if _, err := s.CreateSpace(ctx, "dup", "Again", ""); err == nil {
		t.Fatal("duplicate slug should fail")
	}
}

func TestCreateSpaceEmptySlug(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateSpace(context.Background(), "  ", "No Slug", "")
	var inv *InvalidInputError
	if !errors.As(err, &inv) {
		t.Fatalf("want InvalidInputError, got %v", err)
	}
}

func TestListSpacesNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateSpace(t, s, "first")
	mustCreateSpace(t, s, "second")

	spaces, err := s.ListSpaces(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(spaces) != 2 {
		t.Fatalf("want 2 spaces, got %d", len(spaces))
	}
	// Same-second creations fall back to slug order; either way both present.
	slugs := map[string]bool{spaces[0].Slug: true, spaces[1].Slug: true}
	if !slugs["first"] || !slugs["second"] {
		t.Fatalf("unexpected slugs: %v", slugs)
	}
}

// Deleting a space that still holds pages must fail; once emptied the
// delete succeeds and slug lookup reports not found.
func TestDeleteSpaceGuardedByPages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sp := mustCreateSpace(t, s, "guarded")
	page := mustCreatePage(t, s, sp.ID, "Occupant")

	if err := s.DeleteSpace(ctx, sp.ID); err == nil {
		t.Fatal("delete of non-empty space should fail")
	}
	if _, err := s.GetSpaceBySlug(ctx, "guarded"); err != nil {
		t.Fatalf("space should survive failed delete: %v", err)
	}

	if err := s.DeletePage(ctx, page.ID); err != nil {
		t.Fatalf("delete page: %v", err)
	}
	if err := s.DeleteSpace(ctx, sp.ID); err != nil {
		t.Fatalf("delete of empty space: %v", err)
	}

	_, err := s.GetSpaceBySlug(ctx, "guarded")
	if !IsNotFound(err) {
		t.Fatalf("want NotFoundError after delete, got %v", err)
	}
}

func TestDeleteSpaceNotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.DeleteSpace(context.Background(), "no-such-id")
	if !IsNotFound(err) {
		t.Fatalf("want NotFoundError, got %v", err)
	}
}
