package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/SimonStenelid/X-team/internal/collab"
	"github.com/SimonStenelid/X-team/internal/config"
	"github.com/SimonStenelid/X-team/internal/embed"
	"github.com/SimonStenelid/X-team/internal/engine"
	"github.com/SimonStenelid/X-team/internal/poster"
	"github.com/SimonStenelid/X-team/internal/store"
)

var (
	flagDryRun bool
	flagForce  bool
	flagNow    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one posting decision",
	Long: `Run the decision loop once: check whether a post is due, pick a content
type, generate and validate a candidate, publish it, and commit the new state.
Designed to be invoked from cron; a not-due invocation writes nothing.`,
	RunE: runOnce,
}

func init() {
	runCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "decide and validate but publish nowhere")
	runCmd.Flags().BoolVar(&flagForce, "force", false, "skip the due check")
	runCmd.Flags().StringVar(&flagNow, "now", "", "override the current time (RFC3339, for testing)")
}

func runOnce(cmd *cobra.Command, args []string) error {
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	now := time.Now()
	if flagNow != "" {
		t, err := time.Parse(time.RFC3339, flagNow)
		if err != nil {
			return fmt.Errorf("invalid --now value: %w", err)
		}
		now = t
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	s, err := store.Open(config.StatePath())
	if err != nil {
		return fmt.Errorf("opening state store: %w", err)
	}
	defer s.Close()

	rng := rand.New(rand.NewSource(now.UnixNano()))

	embedder, err := embed.New(&cfg.Embedder, cfg.EmbedderKey())
	if err != nil {
		return fmt.Errorf("configuring embedder: %w", err)
	}

	backupPath := cfg.BackupContent
	if backupPath == "" {
		backupPath = config.BackupContentPath()
	}
	backup, err := collab.LoadBackup(backupPath, rng)
	if err != nil {
		return fmt.Errorf("loading backup content: %w", err)
	}

	news := collab.NewNews(cfg.EnabledSources(), rng)
	reg := collab.NewRegistry()
	reg.Register(store.TypeNews, news)
	reg.Register(store.TypeCurator, collab.NewCurator(news, rng))
	reg.Register(store.TypeMeme, backup)
	reg.Register(store.TypeImage, backup)

	post, err := buildPoster()
	if err != nil {
		return err
	}

	eng := engine.New(engine.Options{
		Config:        cfg,
		Store:         s,
		Collaborators: reg,
		Backup:        backup,
		Poster:        post,
		Embedder:      embedder,
		Rand:          rng,
		Logger:        log,
		Force:         flagForce,
	})

	out, err := eng.Run(cmd.Context(), now)
	if err != nil {
		if errors.Is(err, store.ErrStateCorrupt) {
			log.Error("state corrupt, refusing to run", "err", err)
		}
		return err
	}

	switch out.Result {
	case engine.ResultNoop:
		fmt.Printf("Nothing to do. Next post scheduled for %s.\n",
			out.NextPost.In(cfg.Location()).Format("Mon Jan 2 15:04"))
	case engine.ResultPosted:
		fmt.Printf("Posted %s (%s)", out.Type, out.PostID)
		if out.URL != "" {
			fmt.Printf(" %s", out.URL)
		}
		fmt.Printf("\nNext post scheduled for %s.\n",
			out.NextPost.In(cfg.Location()).Format("Mon Jan 2 15:04"))
	case engine.ResultAborted:
		return fmt.Errorf("run aborted after %d attempt(s): %w", out.Attempts, out.Err)
	}
	return nil
}

// buildPoster picks the transport: dry-run when asked, otherwise Bluesky
// with app-password credentials from the environment.
func buildPoster() (poster.Poster, error) {
	if flagDryRun {
		return &poster.DryRun{Out: func(text, mediaPath string) {
			fmt.Println("--- dry run, would post: ---")
			fmt.Println(text)
			if mediaPath != "" {
				fmt.Println("media:", mediaPath)
			}
			fmt.Println("----------------------------")
		}}, nil
	}

	identifier := os.Getenv("XTEAM_BSKY_IDENTIFIER")
	password := os.Getenv("XTEAM_BSKY_PASSWORD")
	if identifier == "" || password == "" {
		return nil, fmt.Errorf("XTEAM_BSKY_IDENTIFIER and XTEAM_BSKY_PASSWORD must be set (or use --dry-run)")
	}
	return poster.NewBluesky("", identifier, password), nil
}
