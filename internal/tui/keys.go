package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
)

type KeyMap struct {
	Quit          key.Binding
	Help          key.Binding
	NextView      key.Binding
	PrevView      key.Binding
	Timeline      key.Binding
	Bookmarks     key.Binding
	Notifications key.Binding
	Up            key.Binding
	Down          key.Binding
	Top           key.Binding
	Bottom        key.Binding
	PageUp        key.Binding
	PageDown      key.Binding
	Open          key.Binding
	Back          key.Binding
	Like          key.Binding
	Bookmark      key.Binding
	Thread        key.Binding
	Profile       key.Binding
	Refresh       key.Binding
	LoadMore      key.Binding
	OpenURL       key.Binding
	CopyURL       key.Binding
	RelativeTime  key.Binding
	Compact       key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Help:          key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		NextView:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next view")),
		PrevView:      key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous view")),
		Timeline:      key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "timeline")),
		Bookmarks:     key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "bookmarks")),
		Notifications: key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "notifications")),
		Up:            key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k/↑", "up")),
		Down:          key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j/↓", "down")),
		Top:           key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom:        key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		PageUp:        key.NewBinding(key.WithKeys("pgup", "ctrl+b"), key.WithHelp("pgup", "page up")),
		PageDown:      key.NewBinding(key.WithKeys("pgdown", "ctrl+f"), key.WithHelp("pgdown", "page down")),
		Open:          key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open post")),
		Back:          key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
		Like:          key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "like / unlike")),
		Bookmark:      key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "bookmark / remove")),
		Thread:        key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "thread")),
		Profile:       key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "author profile")),
		Refresh:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		LoadMore:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "load more")),
		OpenURL:       key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open in browser")),
		CopyURL:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy link")),
		RelativeTime:  key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "relative / absolute time")),
		Compact:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "compact rows")),
	}
}

func (k KeyMap) bindings() []key.Binding {
	return []key.Binding{
		k.NextView, k.PrevView, k.Timeline, k.Bookmarks, k.Notifications,
		k.Up, k.Down, k.Top, k.Bottom, k.PageUp, k.PageDown,
		k.Open, k.Back, k.Like, k.Bookmark, k.Thread, k.Profile,
		k.Refresh, k.LoadMore, k.OpenURL, k.CopyURL,
		k.RelativeTime, k.Compact, k.Help, k.Quit,
	}
}

// HelpLines lists every enabled binding as "key  description".
func (k KeyMap) HelpLines() []string {
	lines := make([]string, 0, 32)
	for _, b := range k.bindings() {
		if !b.Enabled() {
			continue
		}
		h := b.Help()
		lines = append(lines, fmt.Sprintf("  %-10s %s", h.Key, h.Desc))
	}
	return lines
}
