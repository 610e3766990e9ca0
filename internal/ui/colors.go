package ui

import "github.com/charmbracelet/lipgloss"

// palette groups the [lipgloss.Style] values shared by every screen.
type palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
}

// The platform renders its own pages in blue and green; the TUI borrows
// the same accents so it reads like part of the site.
var styles = palette{
	title: accent("#2F6FED").Bold(true).MarginBottom(1),
	ok:    accent("#04B575").Bold(true),
	err:   accent("#E5484D").Bold(true),
	warn:  accent("#F5A623"),
}

func accent(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}
