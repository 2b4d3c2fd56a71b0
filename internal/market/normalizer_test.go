package market

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssupercloud/nextdawn/internal/models"
)

func binaryRecord(prices ...string) *models.MarketRecord {
	return &models.MarketRecord{
		MarketID: "m1",
		Title:    "Will it rain?",
		Markets: []models.SubMarket{{
			Question:      "Will it rain?",
			Outcomes:      []string{"Yes", "No"},
			OutcomePrices: prices,
		}},
	}
}

func groupRecord(entries ...models.SubMarket) *models.MarketRecord {
	return &models.MarketRecord{MarketID: "g1", Title: "Who wins?", Markets: entries}
}

func sub(label, price string) models.SubMarket {
	return models.SubMarket{
		Question:       "Will " + label + " win?",
		GroupItemTitle: label,
		Outcomes:       []string{"Yes", "No"},
		OutcomePrices:  []string{price, "0"},
	}
}

func TestNormalize_Binary(t *testing.T) {
	tests := []struct {
		name        string
		prices      []string
		wantOutcome string
		wantProb    float64
		wantSummary string
	}{
		{
			name:        "yes leads",
			prices:      []string{"0.82", "0.18"},
			wantOutcome: "Yes",
			wantProb:    0.82,
			wantSummary: "Yes (82.0%), No (18.0%)",
		},
		{
			name:        "no leads",
			prices:      []string{"0.3", "0.7"},
			wantOutcome: "No",
			wantProb:    0.7,
			wantSummary: "No (70.0%), Yes (30.0%)",
		},
		{
			name:        "tie resolves to yes",
			prices:      []string{"0.5", "0.5"},
			wantOutcome: "Yes",
			wantProb:    0.5,
			wantSummary: "Yes (50.0%), No (50.0%)",
		},
		{
			name:        "missing no price defaults to zero",
			prices:      []string{"0.4"},
			wantOutcome: "Yes",
			wantProb:    0.4,
			wantSummary: "Yes (40.0%), No (0.0%)",
		},
		{
			name:        "non-numeric yes price defaults to zero",
			prices:      []string{"abc", "0.25"},
			wantOutcome: "No",
			wantProb:    0.25,
			wantSummary: "No (25.0%), Yes (0.0%)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := Normalize(binaryRecord(tt.prices...))
			assert.Equal(t, tt.wantOutcome, ctx.TopOutcome)
			assert.InDelta(t, tt.wantProb, ctx.Probability, 1e-9)
			assert.Equal(t, tt.wantSummary, ctx.Summary)
		})
	}
}

func TestNormalize_BinaryProbabilityIsMax(t *testing.T) {
	pairs := [][2]string{{"0.1", "0.9"}, {"0.99", "0.01"}, {"0.42", "0.58"}, {"0.6", "0.6"}}
	for _, p := range pairs {
		ctx := Normalize(binaryRecord(p[0], p[1]))
		yes := priceAt([]string{p[0]}, 0)
		no := priceAt([]string{p[1]}, 0)

		want := yes
		if no > yes {
			want = no
		}
		assert.InDelta(t, want, ctx.Probability, 1e-9)
		assert.Equal(t, yes >= no, ctx.TopOutcome == "Yes", "pair %v", p)
	}
}

func TestNormalize_BinaryUsesOutcomeNames(t *testing.T) {
	record := binaryRecord("0.35", "0.65")
	record.Markets[0].Outcomes = []string{"Up", "Down"}

	ctx := Normalize(record)
	assert.Equal(t, "Down", ctx.TopOutcome)
	assert.Equal(t, "Down (65.0%), Up (35.0%)", ctx.Summary)
}

func TestNormalize_Group(t *testing.T) {
	record := groupRecord(
		sub("Bravo", "0.30"),
		sub("Alpha", "0.55"),
		sub("Charlie", "0.15"),
	)

	ctx := Normalize(record)
	assert.Equal(t, "Alpha", ctx.TopOutcome)
	assert.InDelta(t, 0.55, ctx.Probability, 1e-9)
	assert.Equal(t, "Alpha (55.0%), Bravo (30.0%), Charlie (15.0%)", ctx.Summary)
}

func TestNormalize_GroupListsTopThree(t *testing.T) {
	record := groupRecord(
		sub("A", "0.05"),
		sub("B", "0.40"),
		sub("C", "0.20"),
		sub("D", "0.30"),
		sub("E", "0.05"),
	)

	ctx := Normalize(record)
	parts := strings.Split(ctx.Summary, ", ")
	require.Len(t, parts, 3)
	assert.Equal(t, []string{"B (40.0%)", "D (30.0%)", "C (20.0%)"}, parts)
}

func TestNormalize_GroupTiesKeepOriginalOrder(t *testing.T) {
	record := groupRecord(
		sub("First", "0.25"),
		sub("Second", "0.25"),
	)

	ctx := Normalize(record)
	assert.Equal(t, "First", ctx.TopOutcome)
	assert.Equal(t, "First (25.0%), Second (25.0%)", ctx.Summary)
}

func TestNormalize_GroupLabelFallsBackToQuestion(t *testing.T) {
	record := groupRecord(
		models.SubMarket{Question: "Lakers NBA Champion", OutcomePrices: []string{"0.6"}},
		models.SubMarket{Question: "Celtics", GroupItemTitle: "Celtics Winner", OutcomePrices: []string{"0.4"}},
	)

	ctx := Normalize(record)
	assert.Equal(t, "Lakers NBA", ctx.TopOutcome)
	assert.Equal(t, "Lakers NBA (60.0%), Celtics (40.0%)", ctx.Summary)
}

func TestNormalize_GroupMalformedPriceCountsAsZero(t *testing.T) {
	record := groupRecord(
		models.SubMarket{GroupItemTitle: "Broken", OutcomePrices: []string{"n/a"}},
		models.SubMarket{GroupItemTitle: "Empty"},
		sub("Valid", "0.1"),
	)

	ctx := Normalize(record)
	assert.Equal(t, "Valid", ctx.TopOutcome)
	assert.Equal(t, "Valid (10.0%), Broken (0.0%), Empty (0.0%)", ctx.Summary)
}

func TestNormalize_NoData(t *testing.T) {
	cases := map[string]*models.MarketRecord{
		"nil record":       nil,
		"no sub-markets":   {MarketID: "x"},
		"binary no prices": {MarketID: "x", Markets: []models.SubMarket{{Question: "q"}}},
	}

	for name, record := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := Normalize(record)
			assert.Equal(t, "Unknown", ctx.TopOutcome)
			assert.Zero(t, ctx.Probability)
			assert.Equal(t, "No data", ctx.Summary)
		})
	}
}
