package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/loganshamberger/whatidid/internal/store"
)

// reloadInterval is the idle refresh cadence: other writers share the
// database, so the current view re-queries every tick.
const reloadInterval = 2 * time.Second

type reloadTickMsg struct{}

func reloadTick() tea.Cmd {
	return tea.Tick(reloadInterval, func(time.Time) tea.Msg {
		return reloadTickMsg{}
	})
}

type appModel struct {
	nav *navigator
	log zerolog.Logger

	width  int
	height int

	searchInput textinput.Model
	viewport    viewport.Model

	session *editSession
	fatal   error
}

func newAppModel(st *store.Store, log zerolog.Logger) *appModel {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "search..."
	ti.CharLimit = 200

	return &appModel{
		nav:         newNavigator(st),
		log:         log,
		searchInput: ti,
		viewport:    viewport.New(0, 0),
	}
}

func (m *appModel) Init() tea.Cmd {
	if err := m.nav.reload(context.Background()); err != nil {
		m.fatal = err
		return tea.Quit
	}
	m.syncViewport()
	return reloadTick()
}

func (m *appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	ctx := context.Background()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.syncViewport()
		return m, nil

	case reloadTickMsg:
		// Skip the refresh while an editor session is in flight.
		if m.session == nil {
			if err := m.nav.reload(ctx); err != nil {
				m.log.Error().Err(err).Msg("idle reload failed")
				m.fatal = err
				return m, tea.Quit
			}
			m.syncViewport()
		}
		return m, reloadTick()

	case editorDoneMsg:
		session := m.session
		m.session = nil
		m.nav.finishEdit(ctx, session, msg.err)
		m.syncViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(ctx, msg)
	}
	return m, nil
}

func (m *appModel) handleKey(ctx context.Context, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.nav.mode == modeSearch {
		switch key {
		case "enter":
			query := m.searchInput.Value()
			m.searchInput.Reset()
			m.searchInput.Blur()
			if err := m.nav.submitSearch(ctx, query); err != nil {
				m.log.Error().Err(err).Str("query", query).Msg("search failed")
				m.fatal = err
				return m, tea.Quit
			}
			m.syncViewport()
			return m, nil
		case "esc", "ctrl+c":
			m.searchInput.Reset()
			m.searchInput.Blur()
			m.nav.mode = modeNormal
			return m, nil
		}
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	}

	act := mapKey(key, m.nav.pendingG)
	m.nav.pendingG = act == actionFirstG

	// Content focus scrolls the viewport instead of moving the cursor.
	if m.nav.focus == focusContent {
		switch act {
		case actionDown:
			m.viewport.LineDown(1)
			return m, nil
		case actionUp:
			m.viewport.LineUp(1)
			return m, nil
		case actionTop:
			m.viewport.GotoTop()
			return m, nil
		case actionBottom:
			m.viewport.GotoBottom()
			return m, nil
		}
	}

	var err error
	switch act {
	case actionDown:
		err = m.nav.moveCursor(ctx, 1)
	case actionUp:
		err = m.nav.moveCursor(ctx, -1)
	case actionSelect:
		err = m.nav.selectCurrent(ctx)
	case actionBack:
		err = m.nav.goBack(ctx)
		if m.nav.quitting {
			return m, tea.Quit
		}
	case actionFocusContent:
		if _, ok := m.nav.current(); ok {
			m.nav.focus = focusContent
		}
	case actionSearch:
		m.nav.mode = modeSearch
		m.searchInput.Focus()
		return m, textinput.Blink
	case actionEditContent:
		return m.startEdit(ctx, editContent)
	case actionEditLabels:
		return m.startEdit(ctx, editLabels)
	case actionTop:
		err = m.nav.jumpTop(ctx)
	case actionBottom:
		err = m.nav.jumpBottom(ctx)
	case actionQuit:
		m.nav.quitting = true
		return m, tea.Quit
	}
	if err != nil {
		m.log.Error().Err(err).Str("key", key).Msg("navigation failed")
		m.fatal = err
		return m, tea.Quit
	}
	m.syncViewport()
	return m, nil
}

func (m *appModel) startEdit(ctx context.Context, kind editKind) (tea.Model, tea.Cmd) {
	session, cmd, err := m.nav.beginEdit(ctx, kind)
	if err != nil {
		m.nav.notice = "Could not start editor: " + err.Error()
		return m, nil
	}
	if session == nil {
		return m, nil
	}
	m.session = session
	return m, execEditor(cmd)
}

// syncViewport re-renders the content pane, keeping the scroll position
// roughly where it was when only the underlying data changed.
func (m *appModel) syncViewport() {
	if m.width <= 0 {
		return
	}
	offset := m.viewport.YOffset
	contentWidth := m.width - m.width*30/100 - 1
	m.viewport.SetContent(m.contentForViewport(contentWidth))
	if offset <= m.viewport.TotalLineCount() {
		m.viewport.SetYOffset(offset)
	}
}
