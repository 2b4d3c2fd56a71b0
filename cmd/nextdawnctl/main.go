package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ssupercloud/nextdawn/internal/config"
	"github.com/ssupercloud/nextdawn/internal/polymarket"
	"github.com/ssupercloud/nextdawn/internal/storage"
	"github.com/ssupercloud/nextdawn/internal/storage/sqlite"
	"github.com/ssupercloud/nextdawn/internal/stories"
)

var version = "dev"

// rootOptions are shared by every subcommand.
type rootOptions struct {
	gammaURL string
	debug    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "nextdawnctl",
		Short:         "NextDawn operator tools: preview headlines, generate and warm stories",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()})
			if opts.debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.WarnLevel)
			}
		},
	}

	root.PersistentFlags().StringVar(&opts.gammaURL, "gamma-url", polymarket.GammaAPIBase, "Gamma API base URL")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newPreviewCmd(opts),
		newStoryCmd(opts),
		newWarmCmd(opts),
	)
	return root
}

// openStoryStore returns a SQLite store when path is set, otherwise the
// configured MongoDB store.
func openStoryStore(ctx context.Context, cfg *config.Config, path string) (stories.StoryStore, func(), error) {
	if path != "" {
		store, err := sqlite.New(path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}

	store, err := storage.NewStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	return store, func() { _ = store.Close(context.Background()) }, nil
}
