package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/loganshamberger/whatidid/internal/model"
)

func strPtr(s string) *string { return &s }

func intPtr(v int64) *int64 { return &v }

// A freshly created page starts at version 1.
func TestCreatePageStartsAtVersionOne(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sp := mustCreateSpace(t, s, "ver")
	p := mustCreatePage(t, s, sp.ID, "Fresh")
	if p.Version != 1 {
		t.Fatalf("want version 1, got %d", p.Version)
	}

	got, err := s.GetPage(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Version != 1 {
		t.Fatalf("stored version: want 1, got %d", got.Version)
	}
}

func TestCreatePageWithSectionsDerivesContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sp := mustCreateSpace(t, s, "sections")
	p, err := s.CreatePage(ctx, CreatePageParams{
		SpaceID: sp.ID,
		Title:   "Use SQLite",
		Type:    model.PageDecision,
		Sections: map[string]string{
			"context":            "Local-first tool.",
			"options_considered": "Postgres, SQLite.",
			"decision":           "SQLite.",
		},
		Identity: model.Identity{User: "tester", Agent: "none"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.GetPage(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := model.SectionsToContent(got.Sections, model.PageDecision)
	if got.Content != want {
		t.Fatalf("content not derived from sections:\ngot:  %q\nwant: %q", got.Content, want)
	}
	if diff := cmp.Diff(p.Sections, got.Sections); diff != "" {
		t.Fatalf("sections round trip mismatch (-created +read):\n%s", diff)
	}
}

func TestCreatePageRejectsUnknownType(t *testing.T) {
	s := newTestStore(t)

	sp := mustCreateSpace(t, s, "types")
	_, err := s.CreatePage(context.Background(), CreatePageParams{
		SpaceID: sp.ID,
		Title:   "Bad",
		Type:    model.PageType("wiki"),
	})
	var inv *InvalidInputError
	if !errors.As(err, &inv) {
		t.Fatalf("want InvalidInputError, got %v", err)
	}
}

// A duplicate label in the create input must roll back the whole create:
// no page row survives.
func TestCreatePageDuplicateLabelRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sp := mustCreateSpace(t, s, "atomic")
	_, err := s.CreatePage(ctx, CreatePageParams{
		SpaceID:  sp.ID,
		Title:    "Doomed",
		Type:     model.PageReference,
		Content:  "never persisted",
		Labels:   []string{"a", "b", "a"},
		Identity: model.Identity{User: "tester", Agent: "none"},
	})
	if err == nil {
		t.Fatal("duplicate label should fail the create")
	}

	pages, err := s.ListPages(ctx, ListPagesFilter{SpaceID: sp.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pages) != 0 {
		t.Fatalf("create should have rolled back, found %d pages", len(pages))
	}
}

// Two writers update from the same snapshot version. The first wins and
// bumps the version; the second gets a conflict naming the version it
// expected and the version it found, and its content is not written.
func TestUpdatePageVersionConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sp := mustCreateSpace(t, s, "race")
	p := mustCreatePage(t, s, sp.ID, "Contested")

	first, err := s.UpdatePage(ctx, p.ID, UpdatePageParams{
		Content:         strPtr("writer one"),
		ExpectedVersion: intPtr(1),
	})
	if err != nil {
		t.Fatalf("first update: %v", err)
	}
	if first.Version != 2 {
		t.Fatalf("first update: want version 2, got %d", first.Version)
	}

	_, err = s.UpdatePage(ctx, p.ID, UpdatePageParams{
		Content:         strPtr("writer two"),
		ExpectedVersion: intPtr(1),
	})
	vc, ok := IsVersionConflict(err)
	if !ok {
		t.Fatalf("want VersionConflictError, got %v", err)
	}
	if vc.Expected != 1 || vc.Actual != 2 {
		t.Fatalf("conflict detail: want expected=1 actual=2, got %+v", vc)
	}

	got, err := s.GetPage(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Content != "writer one" {
		t.Fatalf("losing writer overwrote content: %q", got.Content)
	}
	if got.Version != 2 {
		t.Fatalf("losing writer changed version: %d", got.Version)
	}
}

func TestUpdatePageUnconditional(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sp := mustCreateSpace(t, s, "uncond")
	p := mustCreatePage(t, s, sp.ID, "Loose")

	got, err := s.UpdatePage(ctx, p.ID, UpdatePageParams{Title: strPtr("Renamed")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Title != "Renamed" || got.Version != 2 {
		t.Fatalf("unexpected page after update: title=%q version=%d", got.Title, got.Version)
	}
	// Partial update leaves content alone.
	if got.Content != "content of Loose" {
		t.Fatalf("content should be untouched: %q", got.Content)
	}
}

func TestUpdatePageNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.UpdatePage(context.Background(), "missing", UpdatePageParams{
		Content: strPtr("x"),
	})
	if !IsNotFound(err) {
		t.Fatalf("want NotFoundError, got %v", err)
	}
}

func TestUpdatePageNothingToDo(t *testing.T) {
	s := newTestStore(t)

	sp := mustCreateSpace(t, s, "noop")
	p := mustCreatePage(t, s, sp.ID, "Static")

	_, err := s.UpdatePage(context.Background(), p.ID, UpdatePageParams{})
	var inv *InvalidInputError
	if !errors.As(err, &inv) {
		t.Fatalf("want InvalidInputError, got %v", err)
	}
}

// Three appends in order produce newline-joined content and versions 2..4;
// the first append to an empty page adds no leading newline.
func TestAppendPageLaw(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sp := mustCreateSpace(t, s, "append")
	p, err := s.CreatePage(ctx, CreatePageParams{
		SpaceID:  sp.ID,
		Title:    "Log",
		Type:     model.PageSessionLog,
		Identity: model.Identity{User: "tester", Agent: "none"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for i, text := range []string{"first", "second", "third"} {
		got, err := s.AppendPage(ctx, p.ID, text)
		if err != nil {
			t.Fatalf("append %q: %v", text, err)
		}
		if want := int64(i + 2); got.Version != want {
			t.Fatalf("append %q: want version %d, got %d", text, want, got.Version)
		}
	}

	got, err := s.GetPage(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Content != "first\nsecond\nthird" {
		t.Fatalf("append law violated: %q", got.Content)
	}
}

func TestAppendPageNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.AppendPage(context.Background(), "missing", "text")
	if !IsNotFound(err) {
		t.Fatalf("want NotFoundError, got %v", err)
	}
}

// Deleting a page removes its labels and every link touching it, incoming
// or outgoing, while peer pages and their own labels stay intact.
func TestDeletePageCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sp := mustCreateSpace(t, s, "cascade")
	victim := mustCreatePage(t, s, sp.ID, "Victim")
	peer := mustCreatePage(t, s, sp.ID, "Peer")

	for _, l := range []string{"one", "two"} {
		if err := s.AddLabel(ctx, victim.ID, l); err != nil {
			t.Fatalf("add label: %v", err)
		}
	}
	if err := s.AddLabel(ctx, peer.ID, "keep"); err != nil {
		t.Fatalf("add peer label: %v", err)
	}
	if _, err := s.CreateLink(ctx, victim.ID, peer.ID, model.RelationRelatesTo); err != nil {
		t.Fatalf("outgoing link: %v", err)
	}
	if _, err := s.CreateLink(ctx, peer.ID, victim.ID, model.RelationDependsOn); err != nil {
		t.Fatalf("incoming link: %v", err)
	}

	if err := s.DeletePage(ctx, victim.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := s.GetPage(ctx, victim.ID); !IsNotFound(err) {
		t.Fatalf("victim should be gone, got %v", err)
	}
	links, err := s.ListLinks(ctx, peer.ID)
	if err != nil {
		t.Fatalf("list links: %v", err)
	}
	if len(links) != 0 {
		t.Fatalf("links should cascade, found %d", len(links))
	}
	gotPeer, err := s.GetPage(ctx, peer.ID)
	if err != nil {
		t.Fatalf("peer should survive: %v", err)
	}
	if diff := cmp.Diff([]string{"keep"}, gotPeer.Labels); diff != "" {
		t.Fatalf("peer labels changed (-want +got):\n%s", diff)
	}
}

func TestListChildPagesAndHasChildren(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sp := mustCreateSpace(t, s, "tree")
	parent := mustCreatePage(t, s, sp.ID, "Parent")
	for _, title := range []string{"zebra", "Alpha", "middle"} {
		if _, err := s.CreatePage(ctx, CreatePageParams{
			SpaceID:  sp.ID,
			ParentID: &parent.ID,
			Title:    title,
			Type:     model.PageReference,
			Identity: model.Identity{User: "tester", Agent: "none"},
		}); err != nil {
			t.Fatalf("create child %s: %v", title, err)
		}
	}

	top, err := s.ListTopLevelPages(ctx, sp.ID)
	if err != nil {
		t.Fatalf("top level: %v", err)
	}
	if len(top) != 1 || top[0].Title != "Parent" {
		t.Fatalf("unexpected top level: %+v", top)
	}

	children, err := s.ListChildPages(ctx, parent.ID)
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	var titles []string
	for _, c := range children {
		titles = append(titles, c.Title)
	}
	if diff := cmp.Diff([]string{"Alpha", "middle", "zebra"}, titles); diff != "" {
		t.Fatalf("children not title-ordered (-want +got):\n%s", diff)
	}

	has, err := s.HasChildren(ctx, parent.ID)
	if err != nil {
		t.Fatalf("has children: %v", err)
	}
	if !has {
		t.Fatal("parent should report children")
	}
	has, err = s.HasChildren(ctx, children[0].ID)
	if err != nil {
		t.Fatalf("has children: %v", err)
	}
	if has {
		t.Fatal("leaf should not report children")
	}
}

func TestListPagesFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sp := mustCreateSpace(t, s, "filters")
	other := mustCreateSpace(t, s, "other")

	decision, err := s.CreatePage(ctx, CreatePageParams{
		SpaceID:  sp.ID,
		Title:    "Decided",
		Type:     model.PageDecision,
		Labels:   []string{"important"},
		Identity: model.Identity{User: "alice", Agent: "codegen"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	mustCreatePage(t, s, sp.ID, "Plain")
	mustCreatePage(t, s, other.ID, "Elsewhere")

	cases := []struct {
		name   string
		filter ListPagesFilter
		want   int
	}{
		{"by space", ListPagesFilter{SpaceID: sp.ID}, 2},
		{"by type", ListPagesFilter{Type: model.PageDecision}, 1},
		{"by label", ListPagesFilter{Label: "important"}, 1},
		{"by user", ListPagesFilter{User: "alice"}, 1},
		{"by agent", ListPagesFilter{Agent: "codegen"}, 1},
		{"combined", ListPagesFilter{SpaceID: sp.ID, Type: model.PageDecision, Label: "important"}, 1},
		{"no match", ListPagesFilter{Label: "absent"}, 0},
	}
	for _, tc := range cases {
		got, err := s.ListPages(ctx, tc.filter)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if len(got) != tc.want {
			t.Fatalf("%s: want %d pages, got %d", tc.name, tc.want, len(got))
		}
		if tc.want == 1 && got[0].ID != decision.ID {
			t.Fatalf("%s: wrong page %q", tc.name, got[0].Title)
		}
	}
}
