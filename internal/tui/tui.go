package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/loganshamberger/whatidid/internal/store"
)

// Run starts the browser and blocks until the user quits. The terminal's
// raw mode and alternate screen belong to the bubbletea program, which
// restores them on exit and on panic.
func Run(st *store.Store, log zerolog.Logger) error {
	applyColorProfilePreference()
	applyThemePreference()

	m := newAppModel(st, log)
	p := tea.NewProgram(m, tea.WithAltScreen())
	out, err := p.Run()
	if err != nil {
		return err
	}
	if final, ok := out.(*appModel); ok && final.fatal != nil {
		return final.fatal
	}
	return nil
}
