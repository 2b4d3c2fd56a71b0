// Package storage provides MongoDB storage for NextDawn.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ssupercloud/nextdawn/internal/models"
)

// ErrNotFound is returned when a market or story does not exist.
var ErrNotFound = errors.New("not found")

// Store provides access to all MongoDB collections.
type Store struct {
	client     *mongo.Client
	db         *mongo.Database
	markets    *mongo.Collection
	stories    *mongo.Collection
	categories *mongo.Collection
}

// NewStore creates a new storage connection.
func NewStore(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	store := newStore(client.Database(dbName))
	log.Info().Str("db", dbName).Msg("Connected to MongoDB")

	// Initialize indexes
	if err := store.createIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to create some indexes")
	}

	// Initialize default categories
	if err := store.initCategories(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to initialize categories")
	}

	return store, nil
}

func newStore(db *mongo.Database) *Store {
	return &Store{
		client:     db.Client(),
		db:         db,
		markets:    db.Collection("markets"),
		stories:    db.Collection("stories"),
		categories: db.Collection("categories"),
	}
}

// Close closes the database connection.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// createIndexes creates necessary indexes for efficient queries.
func (s *Store) createIndexes(ctx context.Context) error {
	marketIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "market_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "volume", Value: -1}}},
		{Keys: bson.D{{Key: "first_seen_at", Value: -1}}},
	}
	if _, err := s.markets.Indexes().CreateMany(ctx, marketIndexes); err != nil {
		log.Warn().Err(err).Msg("Failed to create market indexes")
	}

	// market_id is not unique: a lost race may leave two entries, the newest wins on read.
	storyIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "market_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "version", Value: 1}}},
	}
	if _, err := s.stories.Indexes().CreateMany(ctx, storyIndexes); err != nil {
		log.Warn().Err(err).Msg("Failed to create story indexes")
	}

	return nil
}

// initCategories initializes default categories if not present.
func (s *Store) initCategories(ctx context.Context) error {
	for _, cat := range models.DefaultCategories {
		filter := bson.M{"slug": cat.Slug}
		update := bson.M{"$setOnInsert": cat}
		opts := options.Update().SetUpsert(true)
		if _, err := s.categories.UpdateOne(ctx, filter, update, opts); err != nil {
			return err
		}
	}
	return nil
}

// ============================================================================
// MARKET OPERATIONS
// ============================================================================

// UpsertMarket inserts or updates a market record. It reports whether the
// record was seen for the first time.
func (s *Store) UpsertMarket(ctx context.Context, record *models.MarketRecord) (bool, error) {
	now := time.Now()
	record.UpdatedAt = now

	filter := bson.M{"market_id": record.MarketID}
	update := bson.M{
		"$set": bson.M{
			"slug":       record.Slug,
			"title":      record.Title,
			"category":   record.Category,
			"start_date": record.StartDate,
			"end_date":   record.EndDate,
			"volume":     record.Volume,
			"markets":    record.Markets,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"first_seen_at": now},
	}
	opts := options.Update().SetUpsert(true)

	res, err := s.markets.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return false, fmt.Errorf("upsert market %s: %w", record.MarketID, err)
	}

	created := res.UpsertedCount > 0
	if created {
		record.FirstSeenAt = now
	}
	return created, nil
}

// GetMarket returns a market record by its Polymarket event ID.
func (s *Store) GetMarket(ctx context.Context, marketID string) (*models.MarketRecord, error) {
	var record models.MarketRecord
	err := s.markets.FindOne(ctx, bson.M{"market_id": marketID}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get market %s: %w", marketID, err)
	}
	return &record, nil
}

// GetMarketsByCategory returns the records of a category, highest volume first.
func (s *Store) GetMarketsByCategory(ctx context.Context, category string, limit int) ([]models.MarketRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "volume", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.markets.Find(ctx, bson.M{"category": category}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.MarketRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// ============================================================================
// STORY OPERATIONS
// ============================================================================

// storyDoc is the persisted form of a CacheEntry.
type storyDoc struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	models.CacheEntry `bson:",inline"`
}

// FindStory returns the newest cache entry for a market.
func (s *Store) FindStory(ctx context.Context, marketID string) (*models.CacheEntry, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var doc storyDoc
	err := s.stories.FindOne(ctx, bson.M{"market_id": marketID}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find story %s: %w", marketID, err)
	}

	entry := doc.CacheEntry
	entry.ID = doc.ID.Hex()
	return &entry, nil
}

// InsertStory stores a new cache entry and sets its ID.
func (s *Store) InsertStory(ctx context.Context, entry *models.CacheEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	res, err := s.stories.InsertOne(ctx, storyDoc{CacheEntry: *entry})
	if err != nil {
		return fmt.Errorf("insert story %s: %w", entry.MarketID, err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		entry.ID = oid.Hex()
	}
	return nil
}

// ReplaceStory overwrites the cache entry with the given ID in place.
func (s *Store) ReplaceStory(ctx context.Context, id string, entry *models.CacheEntry) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("replace story: invalid id %q: %w", id, err)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	res, err := s.stories.ReplaceOne(ctx, bson.M{"_id": oid}, storyDoc{CacheEntry: *entry})
	if err != nil {
		return fmt.Errorf("replace story %s: %w", entry.MarketID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}

	entry.ID = id
	return nil
}

// ============================================================================
// CATEGORY OPERATIONS
// ============================================================================

// GetCategories returns all categories.
func (s *Store) GetCategories(ctx context.Context) ([]models.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})
	cursor, err := s.categories.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var categories []models.Category
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// ============================================================================
// STATS OPERATIONS
// ============================================================================

// Stats holds general statistics.
type Stats struct {
	TotalMarkets   int64  `json:"total_markets"`
	TotalStories   int64  `json:"total_stories"`
	CurrentStories int64  `json:"current_stories"`
	Version        string `json:"version"`
}

// GetStats returns general statistics. CurrentStories counts entries stamped with version.
func (s *Store) GetStats(ctx context.Context, version string) (*Stats, error) {
	stats := &Stats{Version: version}

	var err error
	stats.TotalMarkets, err = s.markets.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}

	stats.TotalStories, err = s.stories.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}

	stats.CurrentStories, err = s.stories.CountDocuments(ctx, bson.M{"version": version})
	if err != nil {
		return nil, err
	}

	return stats, nil
}
