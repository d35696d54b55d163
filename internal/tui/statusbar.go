package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func renderStatusBar(postCount int, typeFilter string, width int, searching bool) string {
	left := fmt.Sprintf(" %d posts", postCount)
	if typeFilter != "" {
		left += " · " + typeFilter
	}

	right := " / search  t type  o open  q quit "
	if searching {
		right = " esc cancel  enter search "
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + fmt.Sprintf("%*s", gap, "") + right
	return statusBarStyle.Width(width).Render(bar)
}
