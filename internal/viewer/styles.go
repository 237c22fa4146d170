package viewer

import "charm.land/lipgloss/v2"

// Styles holds the pens of the main screen. The colors mirror the
// classic bv scheme: yellow cursor bar, bright green search matches,
// bright blue marks, reverse-video status.
type Styles struct {
	CursorLine lipgloss.Style
	MatchedDoc lipgloss.Style
	MarkedDoc  lipgloss.Style
	Status     lipgloss.Style
}

func defaultStyles() Styles {
	return Styles{
		CursorLine: lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("3")),
		MatchedDoc: lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("10")),
		MarkedDoc: lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("12")),
		Status: lipgloss.NewStyle().
			Reverse(true),
	}
}
