// Package imagery builds illustration URLs for an external image-generation service.
package imagery

import (
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the Pollinations image endpoint.
	DefaultBaseURL = "https://image.pollinations.ai"

	DefaultWidth  = 1024
	DefaultHeight = 576

	// StyleSuffix is appended to every prompt.
	StyleSuffix = ", editorial illustration, newspaper front page style, detailed, high quality"

	// FallbackPrompt is used when generation produced no usable prompt.
	FallbackPrompt = "breaking news newspaper printing press"
)

// Config holds the image service settings.
type Config struct {
	BaseURL string
	Width   int
	Height  int
	Suffix  string
}

// Synthesizer produces image URLs. A fresh seed is drawn for every call so that
// regenerating a story yields a different illustration.
type Synthesizer struct {
	baseURL string
	width   int
	height  int
	suffix  string

	now    func() time.Time
	random func() int64
}

// NewSynthesizer creates a Synthesizer, filling unset fields with defaults.
func NewSynthesizer(cfg Config) *Synthesizer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Width <= 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = DefaultHeight
	}
	if cfg.Suffix == "" {
		cfg.Suffix = StyleSuffix
	}

	return &Synthesizer{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		width:   cfg.Width,
		height:  cfg.Height,
		suffix:  cfg.Suffix,
		now:     time.Now,
		random:  func() int64 { return rand.Int64N(1_000_000) },
	}
}

// URL returns <base>/prompt/<escaped prompt+suffix>?seed=..&width=..&height=..
func (s *Synthesizer) URL(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		prompt = FallbackPrompt
	}

	return fmt.Sprintf("%s/prompt/%s?seed=%d&width=%d&height=%d",
		s.baseURL, url.PathEscape(prompt+s.suffix), s.seed(), s.width, s.height)
}

// FallbackURL returns the generic illustration used when generation is unavailable.
func (s *Synthesizer) FallbackURL() string {
	return s.URL(FallbackPrompt)
}

// seed mixes a random draw with the current time, kept within int32 range.
func (s *Synthesizer) seed() int64 {
	return (s.now().UnixMilli()%1_000_000_000 + s.random()) % 2_147_483_647
}
