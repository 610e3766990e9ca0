package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap is the [key.Binding] set shared by the browse, confirm and
// result screens.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	yes     key.Binding
	no      key.Binding
	restart key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "previous project")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next project")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open project")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back to list")),
		yes:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "download")),
		no:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "cancel")),
		restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}
