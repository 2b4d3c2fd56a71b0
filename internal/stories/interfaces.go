package stories

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"github.com/ssupercloud/nextdawn/internal/content"
	"github.com/ssupercloud/nextdawn/internal/models"
)

// StoryStore persists cache entries. FindStory returns storage.ErrNotFound on a clean miss.
type StoryStore interface {
	FindStory(ctx context.Context, marketID string) (*models.CacheEntry, error)
	InsertStory(ctx context.Context, entry *models.CacheEntry) error
	ReplaceStory(ctx context.Context, id string, entry *models.CacheEntry) error
}

// Generator produces content for one market. It never fails.
type Generator interface {
	Generate(ctx context.Context, req content.Request) content.Result
}

// Locker provides a cross-process lock. Acquire returns lock.ErrLockHeld when taken.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}
