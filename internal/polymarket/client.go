// Package polymarket provides a client for Polymarket's public Gamma API.
package polymarket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/ssupercloud/nextdawn/internal/metrics"
	"github.com/ssupercloud/nextdawn/internal/models"
)

const (
	// API endpoint
	GammaAPIBase = "https://gamma-api.polymarket.com"

	// Feed defaults
	DefaultMinVolume = 10000
	EventsLimit      = 100
)

// Client provides access to the Gamma API.
type Client struct {
	gamma *resty.Client
}

// NewClient creates a new Polymarket client.
func NewClient() *Client {
	return NewClientWithBaseURL(GammaAPIBase)
}

// NewClientWithBaseURL creates a client against another Gamma-compatible host.
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{
		gamma: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30 * time.Second).
			SetRetryCount(3).
			SetRetryWaitTime(1 * time.Second),
	}
}

// JSONStringArray handles fields that come either as arrays or as JSON-encoded
// strings. Undecodable values become an empty array.
type JSONStringArray []string

func (j *JSONStringArray) UnmarshalJSON(data []byte) error {
	*j = []string{}

	// Try to unmarshal as a regular array first
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		if arr != nil {
			*j = arr
		}
		return nil
	}

	// Try to unmarshal as a string containing JSON array
	var str string
	if err := json.Unmarshal(data, &str); err != nil || str == "" {
		return nil
	}

	if err := json.Unmarshal([]byte(str), &arr); err == nil && arr != nil {
		*j = arr
	}
	return nil
}

// FlexFloat accepts a JSON number or a numeric string. Anything else is 0.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	*f = 0
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && v >= 0 {
		*f = FlexFloat(v)
	}
	return nil
}

// Market represents one sub-market of an event.
type Market struct {
	ID             string          `json:"id"`
	Question       string          `json:"question"`
	Slug           string          `json:"slug"`
	EndDate        string          `json:"endDate"`
	Outcomes       JSONStringArray `json:"outcomes"`
	OutcomePrices  JSONStringArray `json:"outcomePrices"`
	Volume         FlexFloat       `json:"volume"`
	Active         bool            `json:"active"`
	Closed         bool            `json:"closed"`
	GroupItemTitle string          `json:"groupItemTitle"`
}

// Event represents a group of related markets.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	StartDate   string    `json:"startDate"`
	EndDate     string    `json:"endDate"`
	Image       string    `json:"image"`
	Active      bool      `json:"active"`
	Closed      bool      `json:"closed"`
	Archived    bool      `json:"archived"`
	Liquidity   FlexFloat `json:"liquidity"`
	Volume      FlexFloat `json:"volume"`
	Volume24hr  FlexFloat `json:"volume24hr"`
	Markets     []Market  `json:"markets"`
	Tags        []Tag     `json:"tags"`
}

// Tag represents a category tag.
type Tag struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Slug  string `json:"slug"`
}

// EventFilters represents filters for event queries.
type EventFilters struct {
	Active    *bool
	Closed    *bool
	Archived  *bool
	Limit     int
	Offset    int
	Order     string
	Ascending bool
	TagSlug   string
	MinVolume float64
	TextQuery string
}

// GetEvents retrieves events from Gamma API.
func (c *Client) GetEvents(ctx context.Context, filters EventFilters) ([]Event, error) {
	params := url.Values{}

	if filters.Active != nil {
		params.Set("active", strconv.FormatBool(*filters.Active))
	}
	if filters.Closed != nil {
		params.Set("closed", strconv.FormatBool(*filters.Closed))
	}
	if filters.Archived != nil {
		params.Set("archived", strconv.FormatBool(*filters.Archived))
	}
	if filters.Limit > 0 {
		params.Set("limit", strconv.Itoa(filters.Limit))
	}
	if filters.Offset > 0 {
		params.Set("offset", strconv.Itoa(filters.Offset))
	}
	if filters.Order != "" {
		params.Set("order", filters.Order)
		// Gamma defaults to ascending=true
		params.Set("ascending", strconv.FormatBool(filters.Ascending))
	}
	if filters.TagSlug != "" {
		params.Set("tag_slug", filters.TagSlug)
	}
	if filters.MinVolume > 0 {
		params.Set("volume_min", strconv.FormatFloat(filters.MinVolume, 'f', -1, 64))
	}
	if filters.TextQuery != "" {
		params.Set("_q", filters.TextQuery)
	}

	log.Debug().
		Str("endpoint", "/events").
		Str("params", params.Encode()).
		Msg("Fetching events from Gamma API")

	start := time.Now()
	resp, err := c.gamma.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		Get("/events")

	if err == nil && resp.StatusCode() != 200 {
		err = fmt.Errorf("events API returned %d: %s", resp.StatusCode(), resp.String())
	} else if err != nil {
		err = fmt.Errorf("failed to fetch events: %w", err)
	}
	metrics.RecordAPIRequest("gamma", "/events", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	var events []Event
	if err := json.Unmarshal(resp.Body(), &events); err != nil {
		return nil, fmt.Errorf("failed to parse events: %w", err)
	}

	log.Debug().
		Int("count", len(events)).
		Msg("Fetched events")

	return events, nil
}

// GetEvent retrieves a single event by ID.
func (c *Client) GetEvent(ctx context.Context, id string) (*Event, error) {
	start := time.Now()
	resp, err := c.gamma.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Get("/events/{id}")

	if err == nil && resp.StatusCode() != 200 {
		err = fmt.Errorf("event API returned %d: %s", resp.StatusCode(), resp.String())
	} else if err != nil {
		err = fmt.Errorf("failed to fetch event: %w", err)
	}
	metrics.RecordAPIRequest("gamma", "/events/{id}", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	var event Event
	if err := json.Unmarshal(resp.Body(), &event); err != nil {
		return nil, fmt.Errorf("failed to parse event: %w", err)
	}

	return &event, nil
}

// GetTopEvents retrieves the active events of a tag with at least minVolume
// traded, highest volume first.
func (c *Client) GetTopEvents(ctx context.Context, tagSlug string, limit int, minVolume float64) ([]Event, error) {
	active := true
	closed := false

	return c.GetEvents(ctx, EventFilters{
		Active:    &active,
		Closed:    &closed,
		Limit:     limit,
		TagSlug:   strings.ToLower(tagSlug),
		MinVolume: minVolume,
		Order:     "volume",
		Ascending: false,
	})
}

// ToRecord converts an event into a market record for the given category.
func ToRecord(event Event, category string) models.MarketRecord {
	record := models.MarketRecord{
		MarketID:  event.ID,
		Slug:      event.Slug,
		Title:     event.Title,
		Category:  category,
		StartDate: event.StartDate,
		EndDate:   event.EndDate,
		Volume:    float64(event.Volume),
		Markets:   make([]models.SubMarket, 0, len(event.Markets)),
	}

	for _, m := range event.Markets {
		record.Markets = append(record.Markets, models.SubMarket{
			Question:       m.Question,
			GroupItemTitle: m.GroupItemTitle,
			Outcomes:       []string(m.Outcomes),
			OutcomePrices:  []string(m.OutcomePrices),
		})
	}

	return record
}
