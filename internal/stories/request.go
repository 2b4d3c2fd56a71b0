package stories

import (
	"github.com/ssupercloud/nextdawn/internal/headline"
	"github.com/ssupercloud/nextdawn/internal/market"
	"github.com/ssupercloud/nextdawn/internal/models"
)

// RequestFor builds the story request for a market record. The English
// fallback headline is forced so the story matches the card it sits under.
func RequestFor(record *models.MarketRecord) StoryRequest {
	ctx := market.Normalize(record)

	return StoryRequest{
		MarketID:       record.MarketID,
		Title:          record.Title,
		Category:       record.Category,
		Summary:        ctx.Summary,
		Probability:    ctx.Probability,
		TargetDate:     record.EndDate,
		ForcedHeadline: headline.Synthesize(record.MarketID, record.Title, ctx, headline.English),
	}
}
