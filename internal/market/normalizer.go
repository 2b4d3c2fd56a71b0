// Package market derives a normalized context from raw prediction-market records.
package market

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/ssupercloud/nextdawn/internal/models"
)

// SummaryDepth is the number of ranked options listed in a group summary.
const SummaryDepth = 3

// labelNoise is stripped from group labels ("2028 Winner" -> "2028").
var labelNoise = strings.NewReplacer("Winner", "", "Champion", "")

// option is one ranked choice of a group market.
type option struct {
	label string
	price float64
}

// Normalize converts a market record into its leading outcome, probability and
// ranked summary. It never fails: missing or malformed data yields the
// "no data" context.
func Normalize(record *models.MarketRecord) models.MarketContext {
	if record == nil || len(record.Markets) == 0 {
		return models.NoDataContext()
	}

	if record.IsBinary() {
		return normalizeBinary(record.Markets[0])
	}
	return normalizeGroup(record.Markets)
}

// normalizeBinary compares the Yes and No prices of a single sub-market.
func normalizeBinary(m models.SubMarket) models.MarketContext {
	if len(m.OutcomePrices) == 0 {
		return models.NoDataContext()
	}

	yesPrice := priceAt(m.OutcomePrices, 0)
	noPrice := priceAt(m.OutcomePrices, 1)
	yesLabel := outcomeAt(m.Outcomes, 0, "Yes")
	noLabel := outcomeAt(m.Outcomes, 1, "No")

	winner, winPrice, loser, losePrice := yesLabel, yesPrice, noLabel, noPrice
	if noPrice > yesPrice {
		winner, winPrice, loser, losePrice = noLabel, noPrice, yesLabel, yesPrice
	}

	return models.MarketContext{
		TopOutcome:  winner,
		Probability: winPrice,
		Summary:     fmt.Sprintf("%s (%s), %s (%s)", winner, formatPercent(winPrice), loser, formatPercent(losePrice)),
	}
}

// normalizeGroup ranks every sub-market by its principal price.
func normalizeGroup(markets []models.SubMarket) models.MarketContext {
	options := make([]option, 0, len(markets))
	for _, m := range markets {
		options = append(options, option{
			label: groupLabel(m),
			price: priceAt(m.OutcomePrices, 0),
		})
	}

	sort.SliceStable(options, func(i, j int) bool {
		return options[i].price > options[j].price
	})

	parts := make([]string, 0, SummaryDepth)
	for i, opt := range options {
		if i >= SummaryDepth {
			break
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", opt.label, formatPercent(opt.price)))
	}

	return models.MarketContext{
		TopOutcome:  options[0].label,
		Probability: options[0].price,
		Summary:     strings.Join(parts, ", "),
	}
}

// groupLabel prefers the group item title and falls back to the question.
func groupLabel(m models.SubMarket) string {
	label := m.GroupItemTitle
	if strings.TrimSpace(label) == "" {
		label = m.Question
	}
	label = strings.Join(strings.Fields(labelNoise.Replace(label)), " ")
	if label == "" {
		return models.UnknownOutcome
	}
	return label
}

// priceAt parses prices[i], returning 0 when absent, non-numeric or outside [0,1].
func priceAt(prices []string, i int) float64 {
	if i >= len(prices) {
		return 0
	}
	p, err := strconv.ParseFloat(strings.TrimSpace(prices[i]), 64)
	if err != nil || math.IsNaN(p) || p < 0 || p > 1 {
		return 0
	}
	return p
}

func outcomeAt(outcomes []string, i int, fallback string) string {
	if i < len(outcomes) && strings.TrimSpace(outcomes[i]) != "" {
		return outcomes[i]
	}
	return fallback
}

// formatPercent renders a probability with one decimal, e.g. 0.82 -> "82.0%".
func formatPercent(p float64) string {
	return strconv.FormatFloat(p*100, 'f', 1, 64) + "%"
}
