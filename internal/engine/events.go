package engine

import (
	"github.com/fauu/sway-wait-windows/internal/rules"
)

// EventKind classifies a window lifecycle event. The set is closed: it
// mirrors the sway window event changes this tool reacts to.
type EventKind int

const (
	// WindowCreated fires once when a window first appears.
	WindowCreated EventKind = iota
	// WindowTitleChanged fires whenever a window's title changes, possibly
	// several times per window.
	WindowTitleChanged
)

// String returns the sway change name for the kind.
func (k EventKind) String() string {
	switch k {
	case WindowCreated:
		return "new"
	case WindowTitleChanged:
		return "title"
	default:
		return "unknown"
	}
}

// WindowInfo is a snapshot of one window's state at the moment of an event.
type WindowInfo struct {
	ID       int64  // sway container id, used as the [con_id=] command target
	Title    string
	AppID    string // Wayland app_id, empty when absent
	Instance string // X11 instance hint, empty when absent
}

// matches reports whether the rule is satisfied by the window for this event
// kind.
//
// At creation time only app-only rules are eligible: titles are frequently
// unset or provisional when a window first appears, so any rule with a title
// pattern waits for a title event, even when its app condition already holds.
// A title event satisfies a rule only when its title pattern matches and, if
// an app pattern is also present, that matches too.
func (k EventKind) matches(r rules.Rule, win WindowInfo) bool {
	switch k {
	case WindowCreated:
		return r.Title == nil && appMatches(r, win)
	case WindowTitleChanged:
		if r.Title == nil || !r.Title.MatchString(win.Title) {
			return false
		}
		return r.App == nil || appMatches(r, win)
	default:
		return false
	}
}

// appMatches applies the rule's app pattern as a search against the window's
// app_id or X11 instance. Either field matching suffices; empty fields never
// match.
func appMatches(r rules.Rule, win WindowInfo) bool {
	if r.App == nil {
		return false
	}
	if win.AppID != "" && r.App.MatchString(win.AppID) {
		return true
	}
	return win.Instance != "" && r.App.MatchString(win.Instance)
}
