package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/SimonStenelid/X-team/internal/config"
	"github.com/SimonStenelid/X-team/internal/report"
	"github.com/SimonStenelid/X-team/internal/store"
	"github.com/SimonStenelid/X-team/internal/tui"
)

var (
	flagHistoryLimit int
	flagHistoryPlain bool
	flagReportSince  string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse published posts",
	Long:  "Open an interactive browser over the post history, or print it with --plain.",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.Open(config.StatePath())
		if err != nil {
			return fmt.Errorf("opening state store: %w", err)
		}
		defer s.Close()

		if flagHistoryPlain {
			return printHistory(s, flagHistoryLimit)
		}
		return tui.Run(s, flagHistoryLimit)
	},
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 100, "maximum posts to load")
	historyCmd.Flags().BoolVar(&flagHistoryPlain, "plain", false, "print instead of launching the browser")
	historyCmd.Flags().StringVar(&flagReportSince, "since", "30d", "engagement window for --plain summary (e.g., 7d)")
}

func printHistory(s *store.Store, limit int) error {
	d, err := parseSince(flagReportSince)
	if err != nil {
		return fmt.Errorf("invalid --since value: %w", err)
	}

	r, err := report.Generate(report.GenerateOpts{Store: s, Since: time.Now().Add(-d)})
	if err != nil {
		return err
	}

	posts, err := s.Posts(limit)
	if err != nil {
		return err
	}
	for _, p := range posts {
		fmt.Printf("%s  %-8s %-9s %s\n",
			p.PostedAt.Format("2006-01-02 15:04"), p.Type, shortID(p.ID), firstWords(p.Text, 60))
	}

	if r.Total > 0 {
		fmt.Printf("\nEngagement (last %s):\n", flagReportSince)
		for _, ts := range r.ByType {
			fmt.Printf("  %-8s %d post(s), avg %.1f likes, %.1f reposts\n",
				ts.Type, ts.Posts, ts.AvgLikes, ts.AvgReposts)
		}
	}
	return nil
}

func shortID(id string) string {
	if len(id) <= 9 {
		return id
	}
	return id[len(id)-9:]
}

func firstWords(text string, max int) string {
	runes := []rune(text)
	for i, r := range runes {
		if r == '\n' {
			runes = runes[:i]
			break
		}
	}
	if len(runes) > max {
		runes = append(runes[:max-3], []rune("...")...)
	}
	return string(runes)
}
