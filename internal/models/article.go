package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Impact represents the editorial weight of a generated story.
type Impact string

const (
	ImpactCritical Impact = "CRITICAL"
	ImpactHigh     Impact = "HIGH"
	ImpactMedium   Impact = "MEDIUM"
	ImpactLow      Impact = "LOW"
)

// ParseImpact normalizes a free-form impact label. Unknown values map to MEDIUM.
func ParseImpact(s string) Impact {
	switch Impact(strings.ToUpper(strings.TrimSpace(s))) {
	case ImpactCritical:
		return ImpactCritical
	case ImpactHigh:
		return ImpactHigh
	case ImpactLow:
		return ImpactLow
	default:
		return ImpactMedium
	}
}

// GeneratedContent is the editorial package produced for one market.
type GeneratedContent struct {
	Headline          string `bson:"headline" json:"headline"`
	Story             string `bson:"story" json:"story"`
	HeadlineLocalized string `bson:"headline_cn" json:"headline_cn"`
	StoryLocalized    string `bson:"story_cn" json:"story_cn"`
	ImageURL          string `bson:"image_url" json:"imageUrl"`
	Impact            Impact `bson:"impact" json:"impact"`
}

// IsComplete reports whether the story, and the localized story when present,
// are each longer than minLength characters.
func (c GeneratedContent) IsComplete(minLength int) bool {
	if utf8.RuneCountInString(c.Story) <= minLength {
		return false
	}
	if c.StoryLocalized != "" && utf8.RuneCountInString(c.StoryLocalized) <= minLength {
		return false
	}
	return true
}

// CacheEntry is the persisted generation result for one market.
// ID is the storage handle used to overwrite the entry in place.
type CacheEntry struct {
	ID       string `bson:"-" json:"id"`
	MarketID string `bson:"market_id" json:"market_id"`
	Title    string `bson:"title" json:"title"`
	Version  string `bson:"version" json:"version"`

	Content GeneratedContent `bson:",inline" json:"content"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
