// Package enrichment gathers recent news background for story generation.
package enrichment

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// EnrichmentConfig holds configuration for the enricher.
type EnrichmentConfig struct {
	TavilyAPIKey   string
	TavilyBaseURL  string
	MaxNewsResults int
	Enabled        bool
}

// Enricher builds a short background digest from news search results.
type Enricher struct {
	tavily *TavilyClient
	config EnrichmentConfig
}

// NewEnricher creates a new Enricher. It returns nil when enrichment is
// disabled or no API key is configured.
func NewEnricher(config EnrichmentConfig) *Enricher {
	if !config.Enabled || config.TavilyAPIKey == "" {
		return nil
	}

	if config.MaxNewsResults <= 0 {
		config.MaxNewsResults = 5
	}
	if config.TavilyBaseURL == "" {
		config.TavilyBaseURL = TavilyAPIURL
	}

	log.Info().Msg("Tavily enrichment enabled")
	return &Enricher{
		tavily: NewTavilyClientWithBaseURL(config.TavilyAPIKey, config.TavilyBaseURL),
		config: config,
	}
}

// Background returns a digest of recent news for a market title, or "" when
// nothing relevant is found.
func (e *Enricher) Background(ctx context.Context, query, category string) (string, error) {
	resp, err := e.tavily.SearchNews(ctx, query, e.config.MaxNewsResults)
	if err != nil {
		return "", err
	}

	if resp.Answer == "" && len(resp.Results) == 0 {
		return "", nil
	}

	log.Debug().
		Str("query", query).
		Str("category", category).
		Int("results", len(resp.Results)).
		Msg("Background gathered")

	return summarize(resp), nil
}

// summarize renders the search answer and results for LLM consumption.
func summarize(resp *TavilySearchResponse) string {
	var sb strings.Builder

	if resp.Answer != "" {
		sb.WriteString(truncateString(resp.Answer, 600))
		sb.WriteString("\n\n")
	}

	if len(resp.Results) > 0 {
		sb.WriteString("Recent news:\n")
		for i, r := range resp.Results {
			sb.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, r.Title, extractDomain(r.URL)))
			if r.Content != "" {
				sb.WriteString(fmt.Sprintf("   %s\n", truncateString(r.Content, 300)))
			}
		}
	}

	return strings.TrimSpace(sb.String())
}

// Helper functions

func extractDomain(url string) string {
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "http://")
	url = strings.TrimPrefix(url, "www.")
	return strings.SplitN(url, "/", 2)[0]
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
