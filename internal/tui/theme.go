package tui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Palette helpers. The browser must stay readable on both light and dark
// terminal backgrounds, so everything uses lipgloss.AdaptiveColor.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

var (
	colorMuted    lipgloss.TerminalColor = ac("240", "243")
	colorChrome   lipgloss.TerminalColor = ac("240", "245")
	colorAccent   lipgloss.TerminalColor = ac("27", "62")
	colorSelBg    lipgloss.TerminalColor = ac("#e9e9e9", "#262626")
	colorSelFg    lipgloss.TerminalColor = ac("235", "255")
	colorBorder   lipgloss.TerminalColor = ac("250", "243")
	colorNoticeFg lipgloss.TerminalColor = ac("160", "203")
)

func styleMuted() lipgloss.Style {
	st := lipgloss.NewStyle().Foreground(colorMuted)
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

func styleSelected() lipgloss.Style {
	return lipgloss.NewStyle().Background(colorSelBg).Foreground(colorSelFg).Bold(true)
}

func styleHeader() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorChrome).Bold(true)
}

func styleNotice() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorNoticeFg).Bold(true)
}

// applyColorProfilePreference sets Lip Gloss's color profile for the TUI.
// Only NO_COLOR is honored here; CLICOLOR is meant for non-interactive
// output and would accidentally strip the browser's colors.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}

	profile := termenv.ColorProfile()
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	if strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit") {
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	} else if strings.Contains(term, "256color") && (profile == termenv.Ascii || profile == termenv.ANSI) {
		profile = termenv.ANSI256
	}
	lipgloss.SetColorProfile(profile)
}

// applyThemePreference configures background detection. Some terminals
// don't report their background, which makes AdaptiveColor pick the wrong
// variant.
//
// Priority: WHATIDID_TUI_THEME=light|dark|auto, then WHATIDID_TUI_DARKBG,
// then the COLORFGBG heuristic ("fg;bg", bg >= 7 reads as light).
func applyThemePreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("WHATIDID_TUI_THEME"))) {
	case "light":
		lipgloss.SetHasDarkBackground(false)
		return
	case "dark":
		lipgloss.SetHasDarkBackground(true)
		return
	}

	if v := strings.TrimSpace(os.Getenv("WHATIDID_TUI_DARKBG")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			lipgloss.SetHasDarkBackground(b)
			return
		}
	}

	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1])); err == nil {
			lipgloss.SetHasDarkBackground(bg < 7)
		}
	}
}

// markdownStyle picks glamour's light or dark style to match the theme.
func markdownStyle() string {
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}
