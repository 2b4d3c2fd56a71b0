// Package sqlite provides a local SQLite story cache for the operator CLI.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ssupercloud/nextdawn/internal/models"
	"github.com/ssupercloud/nextdawn/internal/storage"
)

// StoryStore persists cache entries in a SQLite database.
type StoryStore struct {
	db *sql.DB
}

const createStoriesTable = `
CREATE TABLE IF NOT EXISTS stories (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	market_id TEXT NOT NULL,
	title TEXT NOT NULL,
	version TEXT NOT NULL,
	headline TEXT NOT NULL,
	story TEXT NOT NULL,
	headline_cn TEXT NOT NULL,
	story_cn TEXT NOT NULL,
	image_url TEXT NOT NULL,
	impact TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_stories_market ON stories (market_id, created_at);
`

// New opens (creating if needed) the story database at dbPath.
func New(dbPath string) (*StoryStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open story db: %w", err)
	}

	if _, err := db.Exec(createStoriesTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate story db: %w", err)
	}

	return &StoryStore{db: db}, nil
}

// FindStory returns the newest entry for a market, or storage.ErrNotFound.
func (s *StoryStore) FindStory(ctx context.Context, marketID string) (*models.CacheEntry, error) {
	var (
		entry models.CacheEntry
		id    int64
		c     = &entry.Content
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT id, market_id, title, version, headline, story, headline_cn, story_cn, image_url, impact, created_at
		 FROM stories WHERE market_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		marketID,
	).Scan(&id, &entry.MarketID, &entry.Title, &entry.Version,
		&c.Headline, &c.Story, &c.HeadlineLocalized, &c.StoryLocalized, &c.ImageURL, &c.Impact,
		&entry.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find story %s: %w", marketID, err)
	}

	entry.ID = strconv.FormatInt(id, 10)
	return &entry, nil
}

// InsertStory stores a new entry and sets its ID.
func (s *StoryStore) InsertStory(ctx context.Context, entry *models.CacheEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	c := entry.Content

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO stories (market_id, title, version, headline, story, headline_cn, story_cn, image_url, impact, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.MarketID, entry.Title, entry.Version,
		c.Headline, c.Story, c.HeadlineLocalized, c.StoryLocalized, c.ImageURL, string(c.Impact),
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert story: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert story: %w", err)
	}
	entry.ID = strconv.FormatInt(id, 10)
	return nil
}

// ReplaceStory overwrites the entry with the given ID in place.
func (s *StoryStore) ReplaceStory(ctx context.Context, id string, entry *models.CacheEntry) error {
	rowID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("replace story: invalid id %q: %w", id, err)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	c := entry.Content

	res, err := s.db.ExecContext(ctx,
		`UPDATE stories SET market_id = ?, title = ?, version = ?, headline = ?, story = ?,
		 headline_cn = ?, story_cn = ?, image_url = ?, impact = ?, created_at = ?
		 WHERE id = ?`,
		entry.MarketID, entry.Title, entry.Version,
		c.Headline, c.Story, c.HeadlineLocalized, c.StoryLocalized, c.ImageURL, string(c.Impact),
		entry.CreatedAt, rowID,
	)
	if err != nil {
		return fmt.Errorf("replace story: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace story: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}

	entry.ID = id
	return nil
}

// Count returns the number of stored entries.
func (s *StoryStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count stories: %w", err)
	}
	return n, nil
}

// Close releases the database connection.
func (s *StoryStore) Close() error {
	return s.db.Close()
}
