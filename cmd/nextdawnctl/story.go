package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssupercloud/nextdawn/internal/app"
	"github.com/ssupercloud/nextdawn/internal/config"
	"github.com/ssupercloud/nextdawn/internal/market"
	"github.com/ssupercloud/nextdawn/internal/models"
	"github.com/ssupercloud/nextdawn/internal/polymarket"
	"github.com/ssupercloud/nextdawn/internal/stories"
)

func newStoryCmd(opts *rootOptions) *cobra.Command {
	var (
		sqlitePath string
		category   string
	)

	cmd := &cobra.Command{
		Use:   "story <event-id>",
		Short: "Fetch or generate the story of one event and print it as JSON",
		Args:  cobra.ExactArgs(1),
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
			event, err := client.GetEvent(ctx, args[0])
			if err != nil {
				return err
			}

			cat := category
			if cat == "" && len(event.Tags) > 0 {
				cat = event.Tags[0].Slug
			}
			record := polymarket.ToRecord(*event, cat)

			store, closeStore, err := openStoryStore(ctx, cfg, sqlitePath)
			if err != nil {
				return err
			}
			defer closeStore()

			svc, cleanup := app.NewStoryService(ctx, cfg, store)
			defer cleanup()

			out := struct {
				ID      string                  `json:"id"`
				Title   string                  `json:"title"`
				Version string                  `json:"version"`
				Context models.MarketContext    `json:"context"`
				Story   models.GeneratedContent `json:"story"`
			}{
				ID:      record.MarketID,
				Title:   record.Title,
				Version: svc.Version(),
				Context: market.Normalize(&record),
				Story:   svc.FetchOrGenerateStory(ctx, stories.RequestFor(&record)),
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			if err := enc.Encode(out); err != nil {
				return fmt.Errorf("encode story: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "use a local SQLite story cache instead of MongoDB")
	cmd.Flags().StringVar(&category, "category", "", "category recorded with the story (defaults to the event's first tag)")
	return cmd
}
