package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/loganshamberger/whatidid/internal/model"
	"github.com/loganshamberger/whatidid/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "kb.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedSpace(t *testing.T, s *store.Store, slug string) model.Space {
	t.Helper()
	sp, err := s.CreateSpace(context.Background(), slug, slug, "")
	if err != nil {
		t.Fatalf("create space: %v", err)
	}
	return sp
}

func seedPage(t *testing.T, s *store.Store, spaceID, title string, parentID *string) model.Page {
	t.Helper()
	p, err := s.CreatePage(context.Background(), store.CreatePageParams{
		SpaceID:  spaceID,
		ParentID: parentID,
		Title:    title,
		Type:     model.PageReference,
		Content:  "body of " + title,
		Identity: model.Identity{User: "tester", Agent: "none"},
	})
	if err != nil {
		t.Fatalf("create page %s: %v", title, err)
	}
	return p
}

// On an empty database the space list has no items, the cursor sits at
// zero, and going back quits.
func TestEmptySpaceList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n := newNavigator(s)
	if err := n.reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(n.items) != 0 {
		t.Fatalf("want no items, got %d", len(n.items))
	}
	if n.cursor != 0 {
		t.Fatalf("want cursor 0, got %d", n.cursor)
	}

	if err := n.goBack(ctx); err != nil {
		t.Fatalf("go back: %v", err)
	}
	if !n.quitting {
		t.Fatal("go back from the space list should quit")
	}
}

func TestSelectDrillsIntoSpaceAndChildren(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sp := seedSpace(t, s, "alpha")
	parent := seedPage(t, s, sp.ID, "Parent", nil)
	seedPage(t, s, sp.ID, "Child", &parent.ID)

	n := newNavigator(s)
	if err := n.reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if err := n.selectCurrent(ctx); err != nil {
		t.Fatalf("select space: %v", err)
	}
	if n.state.kind != navPages || n.state.space.ID != sp.ID {
		t.Fatalf("should be in page list for %s, got %+v", sp.Slug, n.state)
	}
	if len(n.items) != 1 || !n.items[0].expandable {
		t.Fatalf("parent should be listed as expandable: %+v", n.items)
	}

	if err := n.selectCurrent(ctx); err != nil {
		t.Fatalf("select parent: %v", err)
	}
	if n.state.kind != navChildren || n.state.parent.ID != parent.ID {
		t.Fatalf("should be in child list, got %+v", n.state)
	}
	if len(n.items) != 1 || n.items[0].page.Title != "Child" {
		t.Fatalf("unexpected children: %+v", n.items)
	}

	// Selecting a leaf focuses content instead of drilling.
	if err := n.selectCurrent(ctx); err != nil {
		t.Fatalf("select leaf: %v", err)
	}
	if n.focus != focusContent {
		t.Fatal("leaf select should focus the content pane")
	}
	if !strings.Contains(n.content, "body of Child") {
		t.Fatalf("content pane should show the page body: %q", n.content)
	}
}

func TestGoBackWalksParentChain(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sp := seedSpace(t, s, "deep")
	grand := seedPage(t, s, sp.ID, "Grand", nil)
	parent := seedPage(t, s, sp.ID, "Parent", &grand.ID)
	seedPage(t, s, sp.ID, "Leaf", &parent.ID)

	n := newNavigator(s)
	n.state = navState{kind: navChildren, space: sp, parent: parent}
	if err := n.reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}

	if err := n.goBack(ctx); err != nil {
		t.Fatalf("back to grand: %v", err)
	}
	if n.state.kind != navChildren || n.state.parent.ID != grand.ID {
		t.Fatalf("should climb to grand's children, got %+v", n.state)
	}

	if err := n.goBack(ctx); err != nil {
		t.Fatalf("back to top level: %v", err)
	}
	if n.state.kind != navPages {
		t.Fatalf("should reach top-level pages, got %+v", n.state)
	}

	if err := n.goBack(ctx); err != nil {
		t.Fatalf("back to spaces: %v", err)
	}
	if n.state.kind != navSpaces {
		t.Fatalf("should reach the space list, got %+v", n.state)
	}
	if n.quitting {
		t.Fatal("should not quit before the space list")
	}
}

func TestGoBackFromContentOnlyRefocuses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedSpace(t, s, "solo")
	n := newNavigator(s)
	if err := n.reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	n.focus = focusContent

	if err := n.goBack(ctx); err != nil {
		t.Fatalf("back: %v", err)
	}
	if n.focus != focusList {
		t.Fatal("back from content should return focus to the list")
	}
	if n.state.kind != navSpaces || n.quitting {
		t.Fatal("back from content must not change state or quit")
	}
}

func TestSearchReturnsToPreviousState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sp := seedSpace(t, s, "searchable")
	seedPage(t, s, sp.ID, "Findable", nil)

	n := newNavigator(s)
	n.state = navState{kind: navPages, space: sp}
	if err := n.reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}

	if err := n.submitSearch(ctx, "Findable"); err != nil {
		t.Fatalf("search: %v", err)
	}
	if n.state.kind != navSearch {
		t.Fatalf("should be in search results, got %+v", n.state)
	}
	if len(n.items) != 1 || n.items[0].kind != itemResult {
		t.Fatalf("unexpected results: %+v", n.items)
	}

	if err := n.goBack(ctx); err != nil {
		t.Fatalf("back from search: %v", err)
	}
	if n.state.kind != navPages || n.state.space.ID != sp.ID {
		t.Fatalf("search should return to the page list, got %+v", n.state)
	}
}

func TestSearchFromSearchKeepsDepthOne(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sp := seedSpace(t, s, "nested-search")
	seedPage(t, s, sp.ID, "One", nil)
	seedPage(t, s, sp.ID, "Two", nil)

	n := newNavigator(s)
	n.state = navState{kind: navPages, space: sp}
	if err := n.reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}

	if err := n.submitSearch(ctx, "One"); err != nil {
		t.Fatalf("first search: %v", err)
	}
	if err := n.submitSearch(ctx, "Two"); err != nil {
		t.Fatalf("second search: %v", err)
	}

	// Back from the second search lands on the first, then on the page list.
	if err := n.goBack(ctx); err != nil {
		t.Fatalf("back: %v", err)
	}
	if n.state.kind != navSearch || n.state.query != "One" {
		t.Fatalf("should return to the previous search, got %+v", n.state)
	}
	if err := n.goBack(ctx); err != nil {
		t.Fatalf("back: %v", err)
	}
	if n.state.kind != navPages {
		t.Fatalf("should return to the page list, got %+v", n.state)
	}
}

func TestSubmitEmptySearchIsNoop(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n := newNavigator(s)
	n.mode = modeSearch
	if err := n.submitSearch(ctx, "   "); err != nil {
		t.Fatalf("empty search: %v", err)
	}
	if n.state.kind != navSpaces || n.mode != modeNormal {
		t.Fatalf("empty search should just leave search mode, got %+v mode=%d", n.state, n.mode)
	}
}

// The idle reload clamps the cursor when rows disappear underneath it.
func TestReloadClampsCursor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sp := seedSpace(t, s, "shrinking")
	seedPage(t, s, sp.ID, "A", nil)
	doomed := seedPage(t, s, sp.ID, "B", nil)

	n := newNavigator(s)
	n.state = navState{kind: navPages, space: sp}
	if err := n.reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	n.cursor = 1

	if err := s.DeletePage(ctx, doomed.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := n.reload(ctx); err != nil {
		t.Fatalf("reload after delete: %v", err)
	}
	if n.cursor != 0 {
		t.Fatalf("cursor should clamp to 0, got %d", n.cursor)
	}
}

func TestMoveCursorBounds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sp := seedSpace(t, s, "bounds")
	seedPage(t, s, sp.ID, "A", nil)
	seedPage(t, s, sp.ID, "B", nil)

	n := newNavigator(s)
	n.state = navState{kind: navPages, space: sp}
	if err := n.reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}

	if err := n.moveCursor(ctx, -1); err != nil {
		t.Fatalf("move: %v", err)
	}
	if n.cursor != 0 {
		t.Fatalf("cursor should not go negative, got %d", n.cursor)
	}
	for range 5 {
		if err := n.moveCursor(ctx, 1); err != nil {
			t.Fatalf("move: %v", err)
		}
	}
	if n.cursor != 1 {
		t.Fatalf("cursor should stop at the last item, got %d", n.cursor)
	}
	if err := n.jumpTop(ctx); err != nil {
		t.Fatalf("top: %v", err)
	}
	if n.cursor != 0 {
		t.Fatalf("jump top: got %d", n.cursor)
	}
	if err := n.jumpBottom(ctx); err != nil {
		t.Fatalf("bottom: %v", err)
	}
	if n.cursor != 1 {
		t.Fatalf("jump bottom: got %d", n.cursor)
	}
}

func TestContentPaneListsLinks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sp := seedSpace(t, s, "linked")
	a := seedPage(t, s, sp.ID, "A", nil)
	b := seedPage(t, s, sp.ID, "B", nil)
	if _, err := s.CreateLink(ctx, a.ID, b.ID, model.RelationDependsOn); err != nil {
		t.Fatalf("link: %v", err)
	}

	n := newNavigator(s)
	n.state = navState{kind: navPages, space: sp}
	if err := n.reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	// Cursor starts on "A" (title order).
	if !strings.Contains(n.content, "## Links") || !strings.Contains(n.content, "depends-on") {
		t.Fatalf("page content should list links: %q", n.content)
	}
}

func TestSearchResultContentShowsExcerpt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sp := seedSpace(t, s, "excerpts")
	seedPage(t, s, sp.ID, "Doc", nil)

	n := newNavigator(s)
	if err := n.submitSearch(ctx, "body"); err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(n.items) != 1 {
		t.Fatalf("want 1 result, got %d", len(n.items))
	}
	if !strings.Contains(n.content, "--- Match ---") {
		t.Fatalf("search result content should carry the match marker: %q", n.content)
	}
}
