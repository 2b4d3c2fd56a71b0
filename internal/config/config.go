// Package config provides configuration management for NextDawn.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/ssupercloud/nextdawn/internal/models"
)

// Config holds all application configuration.
type Config struct {
	// LLM settings (OpenAI-compatible, xAI by default)
	XAIAPIKey   string
	LLMEndpoint string
	LLMModel    string
	LLMTimeout  time.Duration

	// Enrichment API settings
	TavilyAPIKey     string
	EnableEnrichment bool

	// MongoDB settings
	MongoURI string
	MongoDB  string

	// Redis settings, empty address disables the distributed lock
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Content settings
	ContentVersion string
	MinStoryLength int

	// Image settings
	ImageBaseURL string
	ImageWidth   int
	ImageHeight  int

	// Feed settings
	FeedCategories     []string
	FeedLimit          int
	MinVolume          float64
	NewMarketMinVolume float64
	PollInterval       time.Duration
	WarmInterval       time.Duration
	DeepWarmHour       int
	DeepWarmLimit      int

	// Server settings
	HTTPAddr string
	Debug    bool
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Try to load .env file
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	cfg := &Config{
		// LLM
		XAIAPIKey:   getEnv("XAI_API_KEY", ""),
		LLMEndpoint: getEnv("LLM_ENDPOINT", "https://api.x.ai/v1"),
		LLMModel:    getEnv("LLM_MODEL", "grok-2-latest"),
		LLMTimeout:  getEnvDuration("LLM_TIMEOUT", 90*time.Second),

		// Enrichment
		TavilyAPIKey:     getEnv("TAVILY_API_KEY", ""),
		EnableEnrichment: getEnvBool("ENABLE_ENRICHMENT", true),

		// MongoDB
		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getEnv("MONGO_DB", "nextdawn"),

		// Redis
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		// Content
		ContentVersion: getEnv("CONTENT_VERSION", "v12_analytical"),
		MinStoryLength: getEnvInt("MIN_STORY_LENGTH", 50),

		// Images
		ImageBaseURL: getEnv("IMAGE_BASE_URL", "https://image.pollinations.ai"),
		ImageWidth:   getEnvInt("IMAGE_WIDTH", 1024),
		ImageHeight:  getEnvInt("IMAGE_HEIGHT", 576),

		// Feed
		FeedCategories:     getEnvList("FEED_CATEGORIES", []string{"crypto", "business", "science", "politics"}),
		FeedLimit:          getEnvInt("FEED_LIMIT", 10),
		MinVolume:          getEnvFloat("MIN_VOLUME", 10000),
		NewMarketMinVolume: getEnvFloat("NEW_MARKET_MIN_VOLUME", 50000),
		PollInterval:       getEnvDuration("POLL_INTERVAL", 5*time.Minute),
		WarmInterval:       getEnvDuration("WARM_INTERVAL", 30*time.Minute),
		DeepWarmHour:       getEnvInt("DEEP_WARM_HOUR", 4),
		DeepWarmLimit:      getEnvInt("DEEP_WARM_LIMIT", 30),

		// Server
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		Debug:    getEnvBool("DEBUG", false),
	}

	return cfg, nil
}

// Validate checks that the configuration is usable. A missing LLM key only
// warns: stories degrade to placeholder content.
func (c *Config) Validate() error {
	if c.XAIAPIKey == "" {
		log.Warn().Msg("XAI_API_KEY not set, story generation will be disabled")
	}
	if c.EnableEnrichment && c.TavilyAPIKey == "" {
		log.Warn().Msg("TAVILY_API_KEY not set, background enrichment will be disabled")
	}

	var errs []error
	if c.MinStoryLength <= 0 {
		errs = append(errs, fmt.Errorf("MIN_STORY_LENGTH must be positive, got %d", c.MinStoryLength))
	}
	if c.ImageWidth <= 0 || c.ImageHeight <= 0 {
		errs = append(errs, fmt.Errorf("IMAGE_WIDTH and IMAGE_HEIGHT must be positive, got %dx%d", c.ImageWidth, c.ImageHeight))
	}
	if len(c.FeedCategories) == 0 {
		errs = append(errs, errors.New("FEED_CATEGORIES must list at least one category"))
	}
	if c.ContentVersion == "" {
		errs = append(errs, errors.New("CONTENT_VERSION must not be empty"))
	}
	if c.DeepWarmHour < 0 || c.DeepWarmHour > 23 {
		errs = append(errs, fmt.Errorf("DEEP_WARM_HOUR must be between 0 and 23, got %d", c.DeepWarmHour))
	}

	for _, slug := range c.FeedCategories {
		if models.GetCategoryBySlug(slug) == nil {
			log.Warn().Str("category", slug).Msg("Feed category has no display metadata")
		}
	}

	return errors.Join(errs...)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated value, dropping blanks.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
