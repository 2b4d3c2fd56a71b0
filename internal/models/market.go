package models

import (
	"time"
)

// MarketRecord represents one Polymarket event, composed of one or more sub-markets.
type MarketRecord struct {
	// Polymarket identifiers
	MarketID string `bson:"market_id" json:"id"`
	Slug     string `bson:"slug,omitempty" json:"slug,omitempty"`

	// Content
	Title    string `bson:"title" json:"title"`
	Category string `bson:"category" json:"category"`

	// Timing
	StartDate string `bson:"start_date,omitempty" json:"start_date,omitempty"`
	EndDate   string `bson:"end_date,omitempty" json:"end_date,omitempty"`

	// Volume (total traded, never negative)
	Volume float64 `bson:"volume" json:"volume"`

	Markets []SubMarket `bson:"markets" json:"markets"`

	// Sync bookkeeping
	FirstSeenAt time.Time `bson:"first_seen_at" json:"first_seen_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// SubMarket is one yes/no question within a MarketRecord.
// Outcomes and OutcomePrices are parallel; the first price is the principal ("Yes") side.
type SubMarket struct {
	Question       string   `bson:"question" json:"question"`
	GroupItemTitle string   `bson:"group_item_title,omitempty" json:"groupItemTitle,omitempty"`
	Outcomes       []string `bson:"outcomes" json:"outcomes"`
	OutcomePrices  []string `bson:"outcome_prices" json:"outcomePrices"`
}

// IsBinary reports whether the record has exactly one sub-market.
func (r *MarketRecord) IsBinary() bool {
	return len(r.Markets) == 1
}

// MarketContext is the normalized view of a MarketRecord. It is derived on
// every request and never persisted.
type MarketContext struct {
	TopOutcome  string  `json:"top_outcome"`
	Probability float64 `json:"probability"`
	Summary     string  `json:"summary"`
}

// Fallback values used when a record carries no usable market data.
const (
	UnknownOutcome = "Unknown"
	NoDataSummary  = "No data"
)

// NoDataContext returns the context used for empty or malformed records.
func NoDataContext() MarketContext {
	return MarketContext{
		TopOutcome:  UnknownOutcome,
		Probability: 0,
		Summary:     NoDataSummary,
	}
}
