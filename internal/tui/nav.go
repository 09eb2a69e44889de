// Package tui is the interactive browser: a bubbletea program over a
// store-backed navigation state machine, with external-editor edit
// sessions for page content and labels.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/loganshamberger/whatidid/internal/model"
	"github.com/loganshamberger/whatidid/internal/store"
)

type navKind int

const (
	navSpaces navKind = iota
	navPages
	navChildren
	navSearch
)

// navState is one position in the hierarchy. Search results remember the
// state they were entered from, one level deep.
type navState struct {
	kind     navKind
	space    model.Space
	parent   model.Page
	query    string
	previous *navState
}

type itemKind int

const (
	itemSpace itemKind = iota
	itemPage
	itemResult
)

type listItem struct {
	kind       itemKind
	space      model.Space
	page       model.Page
	expandable bool
	excerpt    string
}

func (it listItem) title() string {
	switch it.kind {
	case itemSpace:
		return it.space.Name
	default:
		return it.page.Title
	}
}

type focusArea int

const (
	focusList focusArea = iota
	focusContent
)

type inputMode int

const (
	modeNormal inputMode = iota
	modeSearch
)

// navigator drives the browser: current state, list items, cursor, focus,
// and the rendered content pane. All queries run against the store; every
// state change re-queries so the view never goes stale past one reload.
type navigator struct {
	st *store.Store

	state  navState
	items  []listItem
	cursor int
	focus  focusArea
	mode   inputMode

	content string
	// notice overrides the content pane until the next view change
	// (conflict messages, editor failures).
	notice string

	pendingG bool
	quitting bool
}

func newNavigator(st *store.Store) *navigator {
	return &navigator{st: st, state: navState{kind: navSpaces}}
}

// reload re-runs the current state's query, clamps the cursor, and rebuilds
// the content pane. Used on entry, after every transition, and on the idle
// refresh tick.
func (n *navigator) reload(ctx context.Context) error {
	items, err := n.queryItems(ctx, n.state)
	if err != nil {
		return err
	}
	n.items = items
	n.clampCursor()
	n.rebuildContent(ctx)
	return nil
}

func (n *navigator) queryItems(ctx context.Context, st navState) ([]listItem, error) {
	switch st.kind {
	case navSpaces:
		spaces, err := n.st.ListSpaces(ctx)
		if err != nil {
			return nil, err
		}
		items := make([]listItem, 0, len(spaces))
		for _, sp := range spaces {
			items = append(items, listItem{kind: itemSpace, space: sp})
		}
		return items, nil
	case navPages:
		pages, err := n.st.ListTopLevelPages(ctx, st.space.ID)
		if err != nil {
			return nil, err
		}
		return n.pageItems(ctx, pages)
	case navChildren:
		pages, err := n.st.ListChildPages(ctx, st.parent.ID)
		if err != nil {
			return nil, err
		}
		return n.pageItems(ctx, pages)
	case navSearch:
		results, err := n.st.Search(ctx, store.SearchParams{Query: st.query})
		if err != nil {
			return nil, err
		}
		items := make([]listItem, 0, len(results))
		for _, r := range results {
			items = append(items, listItem{kind: itemResult, page: r.Page, excerpt: r.Excerpt})
		}
		return items, nil
	}
	return nil, nil
}

func (n *navigator) pageItems(ctx context.Context, pages []model.Page) ([]listItem, error) {
	items := make([]listItem, 0, len(pages))
	for _, p := range pages {
		has, err := n.st.HasChildren(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		items = append(items, listItem{kind: itemPage, page: p, expandable: has})
	}
	return items, nil
}

func (n *navigator) clampCursor() {
	if len(n.items) == 0 {
		n.cursor = 0
		return
	}
	if n.cursor >= len(n.items) {
		n.cursor = len(n.items) - 1
	}
	if n.cursor < 0 {
		n.cursor = 0
	}
}

func (n *navigator) current() (listItem, bool) {
	if len(n.items) == 0 {
		return listItem{}, false
	}
	return n.items[n.cursor], true
}

// selectCurrent drills into the cursored item: a space opens its page list,
// an expandable page opens its children, and a leaf page (or any search
// result) moves focus to the content pane.
func (n *navigator) selectCurrent(ctx context.Context) error {
	it, ok := n.current()
	if !ok {
		return nil
	}
	switch it.kind {
	case itemSpace:
		n.state = navState{kind: navPages, space: it.space}
		n.cursor = 0
	case itemPage:
		if it.expandable {
			n.state = navState{kind: navChildren, space: n.state.space, parent: it.page}
			n.cursor = 0
		} else {
			n.focus = focusContent
			return nil
		}
	case itemResult:
		n.focus = focusContent
		return nil
	}
	n.notice = ""
	return n.reload(ctx)
}

// goBack walks one level up. Content focus returns to the list; search
// returns to the state it was entered from; child lists climb to the
// parent's own level (re-reading the grandparent); the space list quits.
func (n *navigator) goBack(ctx context.Context) error {
	if n.focus == focusContent {
		n.focus = focusList
		return nil
	}
	n.notice = ""
	switch n.state.kind {
	case navSpaces:
		n.quitting = true
		return nil
	case navPages:
		n.state = navState{kind: navSpaces}
	case navChildren:
		parent := n.state.parent
		if parent.ParentID == nil {
			n.state = navState{kind: navPages, space: n.state.space}
		} else {
			grand, err := n.st.GetPage(ctx, *parent.ParentID)
			if err != nil {
				// Grandparent deleted underneath us; land on the top level.
				n.state = navState{kind: navPages, space: n.state.space}
			} else {
				n.state = navState{kind: navChildren, space: n.state.space, parent: grand}
			}
		}
	case navSearch:
		if n.state.previous != nil {
			n.state = *n.state.previous
		} else {
			n.state = navState{kind: navSpaces}
		}
	}
	n.cursor = 0
	return n.reload(ctx)
}

// submitSearch enters search results. The previous pointer chains at most
// one level: searching from search results reuses their own return address
// depth.
func (n *navigator) submitSearch(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	n.mode = modeNormal
	if query == "" {
		return nil
	}
	prev := n.state
	n.state = navState{kind: navSearch, query: query, previous: &prev}
	n.cursor = 0
	n.focus = focusList
	n.notice = ""
	return n.reload(ctx)
}

func (n *navigator) moveCursor(ctx context.Context, delta int) error {
	if len(n.items) == 0 {
		return nil
	}
	n.cursor += delta
	n.clampCursor()
	n.rebuildContent(ctx)
	return nil
}

func (n *navigator) jumpTop(ctx context.Context) error {
	n.cursor = 0
	n.rebuildContent(ctx)
	return nil
}

func (n *navigator) jumpBottom(ctx context.Context) error {
	if len(n.items) > 0 {
		n.cursor = len(n.items) - 1
	}
	n.rebuildContent(ctx)
	return nil
}

// rebuildContent renders the content pane for the cursored item: a space
// summary, a page body, or a search result with its match excerpt.
func (n *navigator) rebuildContent(ctx context.Context) {
	it, ok := n.current()
	if !ok {
		n.content = ""
		return
	}
	switch it.kind {
	case itemSpace:
		n.content = spaceSummary(it.space)
	case itemPage:
		n.content = pageBody(it.page) + n.linkFooter(ctx, it.page.ID)
	case itemResult:
		var b strings.Builder
		b.WriteString(pageBody(it.page))
		if it.excerpt != "" {
			b.WriteString("\n\n--- Match ---\n")
			b.WriteString(it.excerpt)
		}
		n.content = b.String()
	}
}

// linkFooter lists the page's links at the bottom of the content pane.
// Link lookup failures are non-fatal here; the pane just omits them.
func (n *navigator) linkFooter(ctx context.Context, pageID string) string {
	links, err := n.st.ListLinks(ctx, pageID)
	if err != nil || len(links) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\n## Links\n")
	for _, l := range links {
		if l.SourceID == pageID {
			fmt.Fprintf(&b, "- %s -> %s\n", l.Relation, l.TargetID)
		} else {
			fmt.Fprintf(&b, "- %s <- %s\n", l.Relation, l.SourceID)
		}
	}
	return b.String()
}

func spaceSummary(sp model.Space) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", sp.Name)
	if sp.Description != "" {
		b.WriteString(sp.Description)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Slug: %s\nCreated: %s\n", sp.Slug, sp.CreatedAt)
	return b.String()
}

func pageBody(p model.Page) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.Title)
	fmt.Fprintf(&b, "Type: %s · Version: %d · By: %s/%s\n", p.Type, p.Version, p.CreatedByUser, p.CreatedByAgent)
	if len(p.Labels) > 0 {
		fmt.Fprintf(&b, "Labels: %s\n", strings.Join(p.Labels, ", "))
	}
	b.WriteString("\n")
	if p.Content != "" {
		b.WriteString(p.Content)
	} else {
		b.WriteString("(empty)")
	}
	return b.String()
}

// breadcrumb names the current location for the header line.
func (n *navigator) breadcrumb() string {
	switch n.state.kind {
	case navSpaces:
		return "Spaces"
	case navPages:
		return "Spaces > " + n.state.space.Name
	case navChildren:
		return "Spaces > " + n.state.space.Name + " > " + n.state.parent.Title
	case navSearch:
		return fmt.Sprintf("Search: %q", n.state.query)
	}
	return ""
}
