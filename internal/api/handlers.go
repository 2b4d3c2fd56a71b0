package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/ssupercloud/nextdawn/internal/headline"
	"github.com/ssupercloud/nextdawn/internal/market"
	"github.com/ssupercloud/nextdawn/internal/models"
	"github.com/ssupercloud/nextdawn/internal/storage"
	"github.com/ssupercloud/nextdawn/internal/stories"
)

// MarketStore reads persisted markets.
type MarketStore interface {
	GetMarket(ctx context.Context, marketID string) (*models.MarketRecord, error)
	GetMarketsByCategory(ctx context.Context, category string, limit int) ([]models.MarketRecord, error)
	GetCategories(ctx context.Context) ([]models.Category, error)
	GetStats(ctx context.Context, version string) (*storage.Stats, error)
}

// RecordCache serves recently synced records without a database round trip.
type RecordCache interface {
	Records(category string, limit int) []models.MarketRecord
}

// StoryService returns the cached or freshly generated story of a market.
type StoryService interface {
	FetchOrGenerateStory(ctx context.Context, req stories.StoryRequest) models.GeneratedContent
	Version() string
}

// Handlers holds the API handlers.
type Handlers struct {
	store      MarketStore
	cache      RecordCache
	stories    StoryService
	categories []string
}

// NewHandlers creates new API handlers. cache may be nil.
func NewHandlers(store MarketStore, cache RecordCache, svc StoryService, categories []string) *Handlers {
	return &Handlers{
		store:      store,
		cache:      cache,
		stories:    svc,
		categories: categories,
	}
}

// Card is one market tile of the feed.
type Card struct {
	ID              string               `json:"id"`
	Title           string               `json:"title"`
	Slug            string               `json:"slug,omitempty"`
	Category        string               `json:"category"`
	EndDate         string               `json:"end_date,omitempty"`
	Volume          float64              `json:"volume"`
	VolumeFormatted string               `json:"volume_formatted"`
	Context         models.MarketContext `json:"context"`
	Headline        string               `json:"headline"`
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Debug().Err(err).Msg("Failed to write response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func getLimit(r *http.Request, defaultLimit int) int {
	limit := defaultLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	return limit
}

// formatVolume renders a dollar volume for display: $1.5M, $15k, $950.
func formatVolume(v float64) string {
	switch {
	case v >= 1e6:
		return fmt.Sprintf("$%.1fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("$%.0fk", v/1e3)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}

func newCard(record *models.MarketRecord, lang headline.Lang) Card {
	ctx := market.Normalize(record)
	return Card{
		ID:              record.MarketID,
		Title:           record.Title,
		Slug:            record.Slug,
		Category:        record.Category,
		EndDate:         record.EndDate,
		Volume:          record.Volume,
		VolumeFormatted: formatVolume(record.Volume),
		Context:         ctx,
		Headline:        headline.Synthesize(record.MarketID, record.Title, ctx, lang),
	}
}

// loadMarket resolves the {id} URL parameter, writing the error response on failure.
func (h *Handlers) loadMarket(w http.ResponseWriter, r *http.Request) (*models.MarketRecord, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "Market id is required")
		return nil, false
	}

	record, err := h.store.GetMarket(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Market not found")
		return nil, false
	}
	if err != nil {
		log.Error().Err(err).Str("market_id", id).Msg("Failed to load market")
		respondError(w, http.StatusInternalServerError, "Failed to fetch market")
		return nil, false
	}
	return record, true
}

// records returns the top records of a category, preferring the sync cache.
func (h *Handlers) records(ctx context.Context, category string, limit int) ([]models.MarketRecord, error) {
	if h.cache != nil {
		if records := h.cache.Records(category, limit); len(records) > 0 {
			return records, nil
		}
	}
	return h.store.GetMarketsByCategory(ctx, category, limit)
}

// ============================================================================
// FEED HANDLERS
// ============================================================================

// GetFeed returns market cards for one category, or one section per feed
// category when none is given.
func (h *Handlers) GetFeed(w http.ResponseWriter, r *http.Request) {
	limit := getLimit(r, 10)
	lang := headline.ParseLang(r.URL.Query().Get("lang"))

	categories := h.categories
	if c := r.URL.Query().Get("category"); c != "" {
		categories = []string{c}
	}

	type section struct {
		Category string `json:"category"`
		Name     string `json:"name"`
		Cards    []Card `json:"cards"`
		Count    int    `json:"count"`
	}

	sections := make([]section, 0, len(categories))
	for _, category := range categories {
		records, err := h.records(r.Context(), category, limit)
		if err != nil {
			log.Error().Err(err).Str("category", category).Msg("Failed to fetch feed")
			respondError(w, http.StatusInternalServerError, "Failed to fetch feed")
			return
		}

		cards := make([]Card, 0, len(records))
		for i := range records {
			cards = append(cards, newCard(&records[i], lang))
		}

		name := category
		if cat := models.GetCategoryBySlug(category); cat != nil {
			name = cat.Name
		}
		sections = append(sections, section{Category: category, Name: name, Cards: cards, Count: len(cards)})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"lang":     lang,
		"sections": sections,
	})
}

// ============================================================================
// MARKET HANDLERS
// ============================================================================

// GetMarket returns a market record with its normalized context.
func (h *Handlers) GetMarket(w http.ResponseWriter, r *http.Request) {
	record, ok := h.loadMarket(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"market":  record,
		"context": market.Normalize(record),
	})
}

// GetHeadline returns the synthesized headline of a market.
func (h *Handlers) GetHeadline(w http.ResponseWriter, r *http.Request) {
	record, ok := h.loadMarket(w, r)
	if !ok {
		return
	}

	lang := headline.ParseLang(r.URL.Query().Get("lang"))
	ctx := market.Normalize(record)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":       record.MarketID,
		"lang":     lang,
		"headline": headline.Synthesize(record.MarketID, record.Title, ctx, lang),
	})
}

// GetStory returns the generated story of a market, generating it on a cache miss.
func (h *Handlers) GetStory(w http.ResponseWriter, r *http.Request) {
	record, ok := h.loadMarket(w, r)
	if !ok {
		return
	}

	content := h.stories.FetchOrGenerateStory(r.Context(), stories.RequestFor(record))

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":      record.MarketID,
		"version": h.stories.Version(),
		"story":   content,
	})
}

// GetCategories returns the feed categories.
func (h *Handlers) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.GetCategories(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch categories")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
	})
}

// ============================================================================
// STATUS HANDLERS
// ============================================================================

// GetStats returns general statistics.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context(), h.stories.Version())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// HealthCheck returns service health.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "nextdawn",
	})
}
