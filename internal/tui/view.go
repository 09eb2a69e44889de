package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// The browser is a 30/70 horizontal split: list pane left, content pane
// right, with a breadcrumb header and a status line of key hints.

func (m *appModel) View() string {
	if m.nav.quitting {
		return ""
	}
	if m.width <= 0 || m.height <= 0 {
		return "loading..."
	}

	header := styleHeader().Render(m.nav.breadcrumb())

	bodyHeight := m.height - 2 // header + status
	if m.nav.mode == modeSearch {
		bodyHeight--
	}
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	listWidth := m.width * 30 / 100
	if listWidth < 20 {
		listWidth = 20
	}
	contentWidth := m.width - listWidth - 1
	if contentWidth < 10 {
		contentWidth = 10
	}

	list := m.renderList(listWidth, bodyHeight)
	content := m.renderContent(contentWidth, bodyHeight)
	body := lipgloss.JoinHorizontal(lipgloss.Top, list, " ", content)

	var parts []string
	parts = append(parts, header, body)
	if m.nav.mode == modeSearch {
		parts = append(parts, "/"+m.searchInput.View())
	}
	parts = append(parts, m.statusLine())
	return strings.Join(parts, "\n")
}

func (m *appModel) renderList(width, height int) string {
	lines := make([]string, 0, height)
	items := m.nav.items

	// Keep the cursor visible in tall lists.
	top := 0
	if m.nav.cursor >= height {
		top = m.nav.cursor - height + 1
	}
	for i := top; i < len(items) && len(lines) < height; i++ {
		it := items[i]
		label := it.title()
		if it.kind == itemPage {
			if it.expandable {
				label = "+ " + label
			} else {
				label = "  " + label
			}
		}
		label = xansi.Truncate(label, width-2, "…")
		if i == m.nav.cursor {
			lines = append(lines, styleSelected().Width(width).Render("> "+label))
		} else {
			lines = append(lines, lipgloss.NewStyle().Width(width).Render("  "+label))
		}
	}
	if len(items) == 0 {
		lines = append(lines, styleMuted().Render("  (nothing here)"))
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}

	st := lipgloss.NewStyle().Width(width)
	if m.nav.focus == focusList {
		st = st.BorderStyle(lipgloss.NormalBorder()).BorderRight(true).BorderForeground(colorAccent)
	} else {
		st = st.BorderStyle(lipgloss.NormalBorder()).BorderRight(true).BorderForeground(colorBorder)
	}
	return st.Render(strings.Join(lines, "\n"))
}

func (m *appModel) renderContent(width, height int) string {
	if m.nav.notice != "" {
		return lipgloss.NewStyle().Width(width).Render(styleNotice().Render(m.nav.notice))
	}
	m.viewport.Width = width
	m.viewport.Height = height
	return m.viewport.View()
}

func (m *appModel) statusLine() string {
	var hints []string
	switch {
	case m.nav.mode == modeSearch:
		hints = []string{"enter: search", "esc: cancel"}
	case m.nav.focus == focusContent:
		hints = []string{"j/k: scroll", "e: edit", "L: labels", "esc: back"}
	default:
		hints = []string{"j/k: move", "enter: select", "/: search", "e: edit", "L: labels", "esc: back", "q: quit"}
	}
	line := strings.Join(hints, "  ")
	if m.width > 0 {
		line = xansi.Truncate(line, m.width, "")
	}
	return styleMuted().Render(line)
}

// contentForViewport renders the content pane body: markdown for pages,
// with notices handled separately in renderContent.
func (m *appModel) contentForViewport(width int) string {
	body := m.nav.content
	if body == "" {
		return styleMuted().Render("(select an item)")
	}
	if rendered := renderMarkdown(body, width); rendered != "" {
		return rendered
	}
	return body
}
