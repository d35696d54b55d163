package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SimonStenelid/X-team/internal/config"
	"github.com/SimonStenelid/X-team/internal/store"
)

var (
	flagLikes   int
	flagReposts int
	flagViews   int
)

var engagementCmd = &cobra.Command{
	Use:   "engagement <post-id>",
	Short: "Record engagement counters for a post",
	Long: `Update the likes/reposts/views counters on a published post. The platform
API is not polled; feed the numbers in from wherever you track them.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.Open(config.StatePath())
		if err != nil {
			return fmt.Errorf("opening state store: %w", err)
		}
		defer s.Close()

		if err := s.UpdateEngagement(args[0], flagLikes, flagReposts, flagViews); err != nil {
			return err
		}
		fmt.Printf("Updated %s: %d likes, %d reposts, %d views.\n",
			args[0], flagLikes, flagReposts, flagViews)
		return nil
	},
}

func init() {
	engagementCmd.Flags().IntVar(&flagLikes, "likes", 0, "like count")
	engagementCmd.Flags().IntVar(&flagReposts, "reposts", 0, "repost count")
	engagementCmd.Flags().IntVar(&flagViews, "views", 0, "view count")
}
