// Package stories manages the versioned story cache: lookup, regeneration and
// persistence of generated content per market.
package stories

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/ssupercloud/nextdawn/internal/content"
	"github.com/ssupercloud/nextdawn/internal/lock"
	"github.com/ssupercloud/nextdawn/internal/metrics"
	"github.com/ssupercloud/nextdawn/internal/models"
	"github.com/ssupercloud/nextdawn/internal/storage"
)

// Defaults
const (
	DefaultVersion        = "v12_analytical"
	DefaultMinStoryLength = 50
	DefaultLockTTL        = 2 * time.Minute
	DefaultLockWait       = 20 * time.Second
	DefaultPollInterval   = 500 * time.Millisecond
	DefaultFlightTimeout  = 3 * time.Minute
)

// Lookup results.
const (
	lookupHit   = "hit"
	lookupMiss  = "miss"
	lookupStale = "stale"
	lookupError = "error"
)

// StoryRequest identifies a market and carries the inputs for generation.
type StoryRequest struct {
	MarketID       string
	Title          string
	Category       string
	Summary        string
	Probability    float64
	TargetDate     string
	ForcedHeadline string
}

// Config holds cache parameters.
type Config struct {
	// Version is stamped on every persisted entry; entries with another version are stale.
	Version string
	// MinStoryLength is the character count a story must exceed to be persisted.
	MinStoryLength int

	LockTTL      time.Duration
	LockWait     time.Duration
	PollInterval time.Duration

	// FlightTimeout bounds one shared lookup-and-generate run. The run is
	// detached from the caller's context since other callers may be waiting on it.
	FlightTimeout time.Duration
}

// Service returns cached content or generates, persists and returns new content.
type Service struct {
	store     StoryStore
	generator Generator
	locker    Locker
	config    Config

	group singleflight.Group
	now   func() time.Time
}

// NewService creates a new story service. locker may be nil.
func NewService(store StoryStore, generator Generator, locker Locker, cfg Config) *Service {
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if cfg.MinStoryLength <= 0 {
		cfg.MinStoryLength = DefaultMinStoryLength
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultLockTTL
	}
	if cfg.LockWait <= 0 {
		cfg.LockWait = DefaultLockWait
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.FlightTimeout <= 0 {
		cfg.FlightTimeout = DefaultFlightTimeout
	}

	return &Service{
		store:     store,
		generator: generator,
		locker:    locker,
		config:    cfg,
		now:       time.Now,
	}
}

// Version returns the content version tag in use.
func (s *Service) Version() string {
	return s.config.Version
}

// FetchOrGenerateStory returns the cached content for a market when its version
// is current, otherwise generates new content and persists it if complete.
// It always returns renderable content; failures are logged.
func (s *Service) FetchOrGenerateStory(ctx context.Context, req StoryRequest) models.GeneratedContent {
	v, _, _ := s.group.Do(req.MarketID, func() (interface{}, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.FlightTimeout)
		defer cancel()
		return s.fetchOrGenerate(flightCtx, req), nil
	})
	return v.(models.GeneratedContent)
}

func (s *Service) fetchOrGenerate(ctx context.Context, req StoryRequest) models.GeneratedContent {
	entry, status := s.lookup(ctx, req.MarketID)
	metrics.RecordCacheLookup(status)

	if status == lookupHit {
		log.Debug().Str("market_id", req.MarketID).Msg("Story cache hit")
		return entry.Content
	}

	if s.locker != nil {
		unlock, err := s.locker.Acquire(ctx, "story:"+req.MarketID, s.config.LockTTL)
		switch {
		case err == nil:
			defer unlock()
			// Another replica may have finished between lookup and acquire.
			if latest, r := s.lookup(ctx, req.MarketID); r == lookupHit {
				return latest.Content
			} else if latest != nil {
				entry = latest
			}
		case errors.Is(err, lock.ErrLockHeld):
			latest, filled := s.waitForFill(ctx, req.MarketID)
			metrics.RecordLockWait(filled)
			if filled {
				return latest.Content
			}
			if latest != nil {
				entry = latest
			}
			log.Warn().Str("market_id", req.MarketID).Msg("Story lock wait expired, generating anyway")
		default:
			log.Warn().Err(err).Str("market_id", req.MarketID).Msg("Failed to acquire story lock")
		}
	}

	var handle string
	if entry != nil {
		handle = entry.ID
		log.Info().
			Str("market_id", req.MarketID).
			Str("cached_version", entry.Version).
			Str("version", s.config.Version).
			Msg("Outdated story, regenerating")
	}

	generated := s.generator.Generate(ctx, content.Request{
		MarketID:       req.MarketID,
		Title:          req.Title,
		Category:       req.Category,
		Summary:        req.Summary,
		Probability:    req.Probability,
		TargetDate:     req.TargetDate,
		ForcedHeadline: req.ForcedHeadline,
	})

	s.persist(ctx, req, handle, generated.Content)
	return generated.Content
}

// lookup returns the cached entry and whether it is a hit, miss, stale or error.
func (s *Service) lookup(ctx context.Context, marketID string) (*models.CacheEntry, string) {
	entry, err := s.store.FindStory(ctx, marketID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, lookupMiss
	case err != nil:
		log.Warn().Err(err).Str("market_id", marketID).Msg("Story lookup failed")
		return nil, lookupError
	case entry.Version == s.config.Version:
		return entry, lookupHit
	default:
		return entry, lookupStale
	}
}

// waitForFill polls the cache while another holder generates. It returns the
// last entry seen and whether it is current.
func (s *Service) waitForFill(ctx context.Context, marketID string) (*models.CacheEntry, bool) {
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	deadline := time.NewTimer(s.config.LockWait)
	defer deadline.Stop()

	var last *models.CacheEntry
	for {
		select {
		case <-ctx.Done():
			return last, false
		case <-deadline.C:
			return last, false
		case <-ticker.C:
			entry, status := s.lookup(ctx, marketID)
			if status == lookupHit {
				return entry, true
			}
			if entry != nil {
				last = entry
			}
		}
	}
}

// persist stores complete content, overwriting handle when set.
func (s *Service) persist(ctx context.Context, req StoryRequest, handle string, c models.GeneratedContent) {
	if !c.IsComplete(s.config.MinStoryLength) {
		metrics.RecordCacheWrite("skipped", nil)
		log.Warn().
			Str("market_id", req.MarketID).
			Int("min_length", s.config.MinStoryLength).
			Msg("Generated story too short, not caching")
		return
	}

	entry := &models.CacheEntry{
		MarketID:  req.MarketID,
		Title:     req.Title,
		Version:   s.config.Version,
		Content:   c,
		CreatedAt: s.now(),
	}

	if handle != "" {
		err := s.store.ReplaceStory(ctx, handle, entry)
		metrics.RecordCacheWrite("replace", err)
		if err == nil {
			return
		}
		if !errors.Is(err, storage.ErrNotFound) {
			log.Error().Err(err).Str("market_id", req.MarketID).Msg("Failed to replace story")
			return
		}
		// The stale entry vanished; store a new one.
	}

	err := s.store.InsertStory(ctx, entry)
	metrics.RecordCacheWrite("insert", err)
	if err != nil {
		log.Error().Err(err).Str("market_id", req.MarketID).Msg("Failed to insert story")
	}
}
