package theme

import (
	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Title      lipgloss.Style
	Tab        lipgloss.Style
	TabActive  lipgloss.Style
	Crumb      lipgloss.Style
	Section    lipgloss.Style
	ActiveLine lipgloss.Style
	MetaLabel  lipgloss.Style
	MetaValue  lipgloss.Style
	StateIdle  lipgloss.Style
	StateWarn  lipgloss.Style
	StateLoad  lipgloss.Style

	Author     lipgloss.Style
	Handle     lipgloss.Style
	Body       lipgloss.Style
	Liked      lipgloss.Style
	Bookmarked lipgloss.Style
	Pending    lipgloss.Style
}

func Default() Theme {
	cpRosewater := lipgloss.Color("#f5e0dc")
	cpMauve := lipgloss.Color("#cba6f7")
	cpRed := lipgloss.Color("#f38ba8")
	cpPeach := lipgloss.Color("#fab387")
	cpYellow := lipgloss.Color("#f9e2af")
	cpGreen := lipgloss.Color("#a6e3a1")
	cpTeal := lipgloss.Color("#94e2d5")
	cpLavender := lipgloss.Color("#b4befe")
	cpText := lipgloss.Color("#cdd6f4")
	cpSubtext0 := lipgloss.Color("#a6adc8")
	cpSubtext1 := lipgloss.Color("#bac2de")
	cpOverlay1 := lipgloss.Color("#7f849c")
	cpSurface0 := lipgloss.Color("#313244")

	return Theme{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(cpMauve),
		Tab:        lipgloss.NewStyle().Foreground(cpSubtext0).Padding(0, 1),
		TabActive:  lipgloss.NewStyle().Foreground(cpLavender).Background(cpSurface0).Bold(true).Padding(0, 1),
		Crumb:      lipgloss.NewStyle().Foreground(cpOverlay1),
		Section:    lipgloss.NewStyle().Bold(true).Foreground(cpTeal),
		ActiveLine: lipgloss.NewStyle().Background(cpSurface0).Foreground(cpText),
		MetaLabel:  lipgloss.NewStyle().Foreground(cpOverlay1),
		MetaValue:  lipgloss.NewStyle().Foreground(cpSubtext1),
		StateIdle:  lipgloss.NewStyle().Foreground(cpGreen),
		StateWarn:  lipgloss.NewStyle().Foreground(cpRed),
		StateLoad:  lipgloss.NewStyle().Foreground(cpPeach),
		Author:     lipgloss.NewStyle().Bold(true).Foreground(cpText),
		Handle:     lipgloss.NewStyle().Foreground(cpSubtext0),
		Body:       lipgloss.NewStyle().Foreground(cpText),
		Liked:      lipgloss.NewStyle().Foreground(cpRed),
		Bookmarked: lipgloss.NewStyle().Foreground(cpYellow),
		Pending:    lipgloss.NewStyle().Italic(true).Foreground(cpRosewater),
	}
}

// Markers renders the like and bookmark indicators. A pending toggle is
// shown in the pending style so the user sees it has not settled.
func (t Theme) Markers(liked, likePending, bookmarked, bookmarkPending bool) string {
	like := " "
	if liked {
		like = t.Liked.Render("♥")
		if likePending {
			like = t.Pending.Render("♥")
		}
	}
	mark := " "
	if bookmarked {
		mark = t.Bookmarked.Render("★")
		if bookmarkPending {
			mark = t.Pending.Render("★")
		}
	}
	return like + mark
}

func (t Theme) RenderActiveLine(active bool, line string) string {
	if !active {
		return line
	}
	return t.ActiveLine.Render(line)
}
