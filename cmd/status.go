package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/SimonStenelid/X-team/internal/config"
	"github.com/SimonStenelid/X-team/internal/store"
)

var (
	statusTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"})
	statusLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}).
				Width(14)
	statusValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#3D3D3D", Dark: "#ABABAB"})
	statusAccentStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#25D366"})
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the schedule and weekly quota state",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		s, err := store.Open(config.StatePath())
		if err != nil {
			return fmt.Errorf("opening state store: %w", err)
		}
		defer s.Close()

		now := time.Now().In(cfg.Location())
		st, err := s.LoadState(now.Format("2006-01-02"))
		if err != nil {
			return err
		}

		fmt.Println(statusTitleStyle.Render("xteam status"))
		fmt.Println()

		line := func(label, value string) {
			fmt.Println(statusLabelStyle.Render(label) + statusValueStyle.Render(value))
		}

		if st.NextPostScheduled.IsZero() {
			line("Next post", "due now (no schedule yet)")
		} else {
			next := st.NextPostScheduled.In(cfg.Location())
			value := next.Format("Mon Jan 2 15:04")
			if !now.Before(next) {
				value += statusAccentStyle.Render("  (due)")
			}
			line("Next post", value)
		}
		if st.LastPostTime.IsZero() {
			line("Last post", "never")
		} else {
			line("Last post", st.LastPostTime.In(cfg.Location()).Format("Mon Jan 2 15:04"))
		}
		line("Week start", st.WeekStartDate)
		fmt.Println()

		fmt.Println(statusTitleStyle.Render("Weekly quota"))
		for _, t := range store.AllTypes() {
			quota := cfg.WeeklyQuota(string(t))
			count := st.WeekCounts[t]
			bar := quotaBar(count, quota)
			fmt.Println(statusLabelStyle.Render(string(t)) +
				statusValueStyle.Render(fmt.Sprintf("%d / %.1f  %s", count, quota, bar)))
		}
		fmt.Println()

		if len(st.RecentTopics) > 0 {
			line("Topics", strings.Join(st.RecentTopics, ", "))
		}
		if len(st.CuratedSourceIDs) > 0 {
			line("Curated", fmt.Sprintf("%d source(s) tracked", len(st.CuratedSourceIDs)))
		}
		return nil
	},
}

// quotaBar renders weekly progress as a fixed-width bar.
func quotaBar(count int, quota float64) string {
	const width = 10
	filled := 0
	if quota > 0 {
		filled = int(float64(count) / quota * width)
	}
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	if float64(count) >= quota && quota > 0 {
		return statusAccentStyle.Render(bar)
	}
	return bar
}
