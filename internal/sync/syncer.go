// Package sync keeps the market store in step with Polymarket's top events.
package sync

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ssupercloud/nextdawn/internal/metrics"
	"github.com/ssupercloud/nextdawn/internal/models"
	"github.com/ssupercloud/nextdawn/internal/polymarket"
)

// Event types for the event bus.
type EventType string

const (
	EventNewMarket EventType = "new_market"
)

// Event represents a market event.
type Event struct {
	Type      EventType
	Record    models.MarketRecord
	Timestamp time.Time
}

// MarketSource lists the top events of a tag.
type MarketSource interface {
	GetTopEvents(ctx context.Context, tagSlug string, limit int, minVolume float64) ([]polymarket.Event, error)
}

// MarketStore persists market records. UpsertMarket reports whether the
// record was seen for the first time.
type MarketStore interface {
	UpsertMarket(ctx context.Context, record *models.MarketRecord) (bool, error)
}

// SyncerConfig holds configuration for the syncer.
type SyncerConfig struct {
	// How often to sync market data
	SyncInterval time.Duration

	// Feed categories, each backed by a Polymarket tag of the same slug
	Categories []string

	// Events fetched per category
	Limit int

	// Market filters
	MinVolume float64

	// Concurrent category fetches
	MaxConcurrency int
}

// DefaultSyncerConfig returns default configuration.
func DefaultSyncerConfig() SyncerConfig {
	return SyncerConfig{
		SyncInterval:   5 * time.Minute,
		Categories:     []string{"crypto", "business", "science", "politics"},
		Limit:          10,
		MinVolume:      polymarket.DefaultMinVolume,
		MaxConcurrency: 4,
	}
}

// Syncer periodically syncs market data from Polymarket.
type Syncer struct {
	source MarketSource
	store  MarketStore
	config SyncerConfig

	// Event channels
	events      chan Event
	eventMux    sync.RWMutex
	subscribers []chan Event

	// Record cache, keyed by category then market id
	records  map[string]map[string]models.MarketRecord
	cacheMux sync.RWMutex

	syncMux sync.Mutex
	now     func() time.Time

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSyncer creates a new market syncer. store may be nil, in which case
// records are only cached in memory.
func NewSyncer(source MarketSource, store MarketStore, config SyncerConfig) *Syncer {
	defaults := DefaultSyncerConfig()
	if config.SyncInterval <= 0 {
		config.SyncInterval = defaults.SyncInterval
	}
	if len(config.Categories) == 0 {
		config.Categories = defaults.Categories
	}
	if config.Limit <= 0 {
		config.Limit = defaults.Limit
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = defaults.MaxConcurrency
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Syncer{
		source:      source,
		store:       store,
		config:      config,
		events:      make(chan Event, 1000),
		subscribers: make([]chan Event, 0),
		records:     make(map[string]map[string]models.MarketRecord),
		now:         time.Now,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Subscribe returns a channel that receives market events.
func (s *Syncer) Subscribe() <-chan Event {
	s.eventMux.Lock()
	defer s.eventMux.Unlock()

	ch := make(chan Event, 100)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// Start begins the sync loop and the event dispatcher.
func (s *Syncer) Start() {
	log.Info().
		Dur("sync_interval", s.config.SyncInterval).
		Strs("categories", s.config.Categories).
		Msg("Starting market syncer")

	s.wg.Add(1)
	go s.syncLoop()

	s.wg.Add(1)
	go s.eventDispatcher()
}

// Stop stops the syncer and closes subscriber channels.
func (s *Syncer) Stop() {
	log.Info().Msg("Stopping market syncer")
	s.cancel()
	s.wg.Wait()

	s.eventMux.Lock()
	for _, ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = nil
	s.eventMux.Unlock()
}

// syncLoop continuously syncs market data.
func (s *Syncer) syncLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.SyncInterval)
	defer ticker.Stop()

	// Initial sync
	s.syncMarkets(s.ctx)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.syncMarkets(s.ctx)
		}
	}
}

// SyncNow forces an immediate sync and returns the number of records processed.
func (s *Syncer) SyncNow(ctx context.Context) int {
	log.Info().Msg("Manual sync triggered")
	return s.syncMarkets(ctx)
}

// syncMarkets fetches every category concurrently, then processes the
// results sequentially. A failing category is logged and skipped.
func (s *Syncer) syncMarkets(ctx context.Context) int {
	s.syncMux.Lock()
	defer s.syncMux.Unlock()

	log.Debug().Msg("Syncing markets")

	fetched := make([][]polymarket.Event, len(s.config.Categories))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.MaxConcurrency)

	for i, category := range s.config.Categories {
		g.Go(func() error {
			events, err := s.source.GetTopEvents(gctx, category, s.config.Limit, s.config.MinVolume)
			if err != nil {
				log.Error().Err(err).Str("category", category).Msg("Failed to fetch events")
				return nil
			}
			fetched[i] = events
			return nil
		})
	}
	_ = g.Wait()

	total := 0
	for i, category := range s.config.Categories {
		n := 0
		for _, event := range fetched[i] {
			if float64(event.Volume) < s.config.MinVolume {
				continue
			}
			record := polymarket.ToRecord(event, category)
			s.processRecord(ctx, &record)
			n++
		}
		metrics.RecordMarketsSynced(category, n)
		total += n
	}

	log.Debug().Int("records", total).Msg("Sync complete")
	return total
}

// processRecord persists a record, refreshes the cache and announces
// first-seen markets.
func (s *Syncer) processRecord(ctx context.Context, record *models.MarketRecord) {
	now := s.now()
	record.UpdatedAt = now

	s.cacheMux.RLock()
	existing, cached := s.records[record.Category][record.MarketID]
	s.cacheMux.RUnlock()

	if cached {
		record.FirstSeenAt = existing.FirstSeenAt
	} else {
		record.FirstSeenAt = now
	}

	isNew := !cached
	if s.store != nil {
		created, err := s.store.UpsertMarket(ctx, record)
		if err != nil {
			log.Error().Err(err).Str("market_id", record.MarketID).Msg("Failed to save market")
			isNew = false
		} else {
			isNew = created
		}
	}

	s.cacheMux.Lock()
	if s.records[record.Category] == nil {
		s.records[record.Category] = make(map[string]models.MarketRecord)
	}
	s.records[record.Category][record.MarketID] = *record
	s.cacheMux.Unlock()

	if isNew {
		s.emitEvent(Event{
			Type:      EventNewMarket,
			Record:    *record,
			Timestamp: now,
		})
	}
}

// eventDispatcher dispatches events to subscribers.
func (s *Syncer) eventDispatcher() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case event := <-s.events:
			s.eventMux.RLock()
			for _, sub := range s.subscribers {
				select {
				case sub <- event:
				default:
					log.Warn().Msg("Subscriber channel full, dropping event")
				}
			}
			s.eventMux.RUnlock()
		}
	}
}

// emitEvent sends an event to the event channel.
func (s *Syncer) emitEvent(event Event) {
	select {
	case s.events <- event:
		log.Debug().
			Str("type", string(event.Type)).
			Str("market_id", event.Record.MarketID).
			Msg("Event emitted")
	default:
		log.Warn().Msg("Event channel full, dropping event")
	}
}

// GetCachedRecord returns a record from the cache.
func (s *Syncer) GetCachedRecord(marketID string) (models.MarketRecord, bool) {
	s.cacheMux.RLock()
	defer s.cacheMux.RUnlock()

	for _, byID := range s.records {
		if r, ok := byID[marketID]; ok {
			return r, true
		}
	}
	return models.MarketRecord{}, false
}

// Records returns the cached records of a category, highest volume first.
// A non-positive limit returns all of them.
func (s *Syncer) Records(category string, limit int) []models.MarketRecord {
	s.cacheMux.RLock()
	records := make([]models.MarketRecord, 0, len(s.records[category]))
	for _, r := range s.records[category] {
		records = append(records, r)
	}
	s.cacheMux.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		if records[i].Volume != records[j].Volume {
			return records[i].Volume > records[j].Volume
		}
		return records[i].MarketID < records[j].MarketID
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records
}

// Categories returns the configured category slugs.
func (s *Syncer) Categories() []string {
	return append([]string(nil), s.config.Categories...)
}
