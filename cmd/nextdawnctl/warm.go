package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ssupercloud/nextdawn/internal/app"
	"github.com/ssupercloud/nextdawn/internal/config"
	"github.com/ssupercloud/nextdawn/internal/models"
	"github.com/ssupercloud/nextdawn/internal/polymarket"
	"github.com/ssupercloud/nextdawn/internal/stories"
)

func newWarmCmd(opts *rootOptions) *cobra.Command {
	var (
		sqlitePath  string
		category    string
		limit       int
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "warm",
		Short: "Pre-generate stories for the top events of a category",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			client := polymarket.NewClientWithBaseURL(opts.gammaURL)
			events, err := client.GetTopEvents(ctx, category, limit, cfg.MinVolume)
			if err != nil {
				return err
			}

			store, closeStore, err := openStoryStore(ctx, cfg, sqlitePath)
			if err != nil {
				return err
			}
			defer closeStore()

			svc, cleanup := app.NewStoryService(ctx, cfg, store)
			defer cleanup()

			results := make([]models.GeneratedContent, len(events))

			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(max(concurrency, 1))
			for i, event := range events {
				g.Go(func() error {
					record := polymarket.ToRecord(event, category)
					results[i] = svc.FetchOrGenerateStory(gctx, stories.RequestFor(&record))
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tIMPACT\tCOMPLETE\tHEADLINE")
			complete := 0
			for i, event := range events {
				ok := results[i].IsComplete(cfg.MinStoryLength)
				if ok {
					complete++
				}
				fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", event.ID, results[i].Impact, ok, results[i].Headline)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if complete < len(events) {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d stories are degraded and were not cached\n", len(events)-complete, len(events))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "use a local SQLite story cache instead of MongoDB")
	cmd.Flags().StringVar(&category, "category", "politics", "category (Polymarket tag slug)")
	cmd.Flags().IntVar(&limit, "limit", 10, "number of events")
	cmd.Flags().IntVar(&concurrency, "concurrency", 3, "parallel generations")
	return cmd
}
