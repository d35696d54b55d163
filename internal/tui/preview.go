package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/SimonStenelid/X-team/internal/store"
)

func renderPreview(post *store.PostRecord, width, height, scroll int) string {
	if post == nil {
		return centerText("Select a post", width, height)
	}

	contentWidth := width - 2
	if contentWidth < 10 {
		contentWidth = 10
	}

	title := previewTitleStyle.Width(contentWidth).Render(firstLine(post.Text))
	meta := previewMetaStyle.Render(fmt.Sprintf("%s · %s · score %.1f",
		post.Type, post.PostedAt.Format("Jan 2, 2006 15:04"), post.QualityScore))

	body := previewBodyStyle.Width(contentWidth).Render(wrapText(post.Text, contentWidth))

	var extras []string
	if len(post.Topics) > 0 {
		extras = append(extras, "topics: "+strings.Join(post.Topics, ", "))
	}
	if post.Collaborator != "" {
		extras = append(extras, "via "+post.Collaborator)
	}
	extras = append(extras, fmt.Sprintf("%d likes · %d reposts · %d views",
		post.Likes, post.Reposts, post.Views))
	if post.SourceID != "" {
		extras = append(extras, "source: "+post.SourceID)
	}
	footer := previewLinkStyle.Width(contentWidth).Render(strings.Join(extras, "\n"))

	content := lipgloss.JoinVertical(lipgloss.Left, title, meta, "", body, "", footer)

	lines := strings.Split(content, "\n")
	if scroll > 0 && scroll < len(lines) {
		lines = lines[scroll:]
	}
	if len(lines) < height {
		lines = append(lines, make([]string, height-len(lines))...)
	} else if len(lines) > height {
		lines = lines[:height]
	}

	return strings.Join(lines, "\n")
}

func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	var out []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if len(line)+1+len(w) > width {
				out = append(out, line)
				line = w
			} else {
				line += " " + w
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
