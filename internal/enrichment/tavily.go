package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/ssupercloud/nextdawn/internal/metrics"
)

const (
	TavilyAPIURL = "https://api.tavily.com"
)

// newsDomains restricts news searches to wire services and major outlets.
var newsDomains = []string{
	"reuters.com",
	"bloomberg.com",
	"cnbc.com",
	"wsj.com",
	"ft.com",
	"bbc.com",
	"apnews.com",
	"coindesk.com",
}

// TavilyClient provides search functionality via Tavily API.
type TavilyClient struct {
	client *resty.Client
	apiKey string
}

// TavilySearchRequest represents a search request.
type TavilySearchRequest struct {
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth,omitempty"` // "basic" or "advanced"
	Topic          string   `json:"topic,omitempty"`        // "general" or "news"
	Days           int      `json:"days,omitempty"`
	MaxResults     int      `json:"max_results,omitempty"`
	IncludeAnswer  bool     `json:"include_answer,omitempty"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

// TavilySearchResponse represents a search response.
type TavilySearchResponse struct {
	Query   string         `json:"query"`
	Answer  string         `json:"answer,omitempty"`
	Results []TavilyResult `json:"results"`
}

// TavilyResult represents a single search result.
type TavilyResult struct {
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Content   string  `json:"content"`
	Score     float64 `json:"score"`
	Published string  `json:"published_date,omitempty"`
}

// NewTavilyClient creates a new Tavily client.
func NewTavilyClient(apiKey string) *TavilyClient {
	return NewTavilyClientWithBaseURL(apiKey, TavilyAPIURL)
}

// NewTavilyClientWithBaseURL creates a Tavily client against another host.
func NewTavilyClientWithBaseURL(apiKey, baseURL string) *TavilyClient {
	return &TavilyClient{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30 * time.Second).
			SetRetryCount(2),
		apiKey: apiKey,
	}
}

// SearchNews performs a news-focused search over the last week.
func (c *TavilyClient) SearchNews(ctx context.Context, query string, maxResults int) (*TavilySearchResponse, error) {
	return c.Search(ctx, TavilySearchRequest{
		Query:          query,
		SearchDepth:    "basic",
		Topic:          "news",
		Days:           7,
		MaxResults:     maxResults,
		IncludeAnswer:  true,
		IncludeDomains: newsDomains,
	})
}

// Search performs a search with custom parameters.
func (c *TavilyClient) Search(ctx context.Context, req TavilySearchRequest) (*TavilySearchResponse, error) {
	log.Debug().
		Str("query", req.Query).
		Int("max_results", req.MaxResults).
		Msg("Tavily search")

	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(c.apiKey).
		SetBody(req).
		Post("/search")

	if err == nil && resp.StatusCode() != 200 {
		err = fmt.Errorf("tavily API returned %d: %s", resp.StatusCode(), resp.String())
	} else if err != nil {
		err = fmt.Errorf("tavily search failed: %w", err)
	}
	metrics.RecordAPIRequest("tavily", "/search", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	var result TavilySearchResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse tavily response: %w", err)
	}

	log.Debug().
		Int("results", len(result.Results)).
		Bool("has_answer", result.Answer != "").
		Msg("Tavily search complete")

	return &result, nil
}
