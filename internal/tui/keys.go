package tui

type action int

const (
	actionNone action = iota
	actionUp
	actionDown
	actionSelect
	actionBack
	actionFocusContent
	actionSearch
	actionEditContent
	actionEditLabels
	actionTop
	actionBottom
	actionFirstG
	actionQuit
)

// mapKey translates a normal-mode key into an action. pendingG is the
// half-typed gg chord: a second g completes the jump, anything else falls
// through to its own binding (the chord just gets cancelled).
func mapKey(key string, pendingG bool) action {
	if pendingG && key == "g" {
		return actionTop
	}
	switch key {
	case "j", "down":
		return actionDown
	case "k", "up":
		return actionUp
	case "enter":
		return actionSelect
	case "esc", "h", "left":
		return actionBack
	case "l", "right", "tab":
		return actionFocusContent
	case "/":
		return actionSearch
	case "e":
		return actionEditContent
	case "L":
		return actionEditLabels
	case "G":
		return actionBottom
	case "g":
		return actionFirstG
	case "q", "ctrl+c":
		return actionQuit
	}
	return actionNone
}
