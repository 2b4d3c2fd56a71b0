package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ssupercloud/nextdawn/internal/headline"
	"github.com/ssupercloud/nextdawn/internal/market"
	"github.com/ssupercloud/nextdawn/internal/polymarket"
)

func newPreviewCmd(opts *rootOptions) *cobra.Command {
	var (
		category  string
		limit     int
		minVolume float64
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the fallback headlines of a category's top events",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := polymarket.NewClientWithBaseURL(opts.gammaURL)
			events, err := client.GetTopEvents(cmd.Context(), category, limit, minVolume)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No events found.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPROB\tSUMMARY\tHEADLINE\tHEADLINE (ZH)")
			for _, event := range events {
				record := polymarket.ToRecord(event, category)
				ctx := market.Normalize(&record)
				fmt.Fprintf(w, "%s\t%.1f%%\t%s\t%s\t%s\n",
					record.MarketID,
					ctx.Probability*100,
					ctx.Summary,
					headline.Synthesize(record.MarketID, record.Title, ctx, headline.English),
					headline.Synthesize(record.MarketID, record.Title, ctx, headline.Chinese),
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&category, "category", "politics", "category (Polymarket tag slug)")
	cmd.Flags().IntVar(&limit, "limit", 10, "number of events")
	cmd.Flags().Float64Var(&minVolume, "min-volume", polymarket.DefaultMinVolume, "minimum traded volume")
	return cmd
}
