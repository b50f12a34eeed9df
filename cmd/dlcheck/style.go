package main

import "github.com/charmbracelet/lipgloss"

var (
	failColor  = lipgloss.Color("#FF0000")
	passColor  = lipgloss.Color("#00CC66")
	mutedColor = lipgloss.Color("#666666")
)

var (
	passStyle  = lipgloss.NewStyle().Foreground(passColor).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(failColor).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(mutedColor)
)

// styler renders the text report labels; it is the identity unless --color is set.
type styler struct{ color bool }

func (s styler) pass(v string) string  { return s.render(passStyle, v) }
func (s styler) fail(v string) string  { return s.render(failStyle, v) }
func (s styler) muted(v string) string { return s.render(mutedStyle, v) }

func (s styler) render(st lipgloss.Style, v string) string {
	if !s.color {
		return v
	}
	return st.Render(v)
}
