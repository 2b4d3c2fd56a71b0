// Package app assembles the story pipeline from configuration.
package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/ssupercloud/nextdawn/internal/config"
	"github.com/ssupercloud/nextdawn/internal/content"
	"github.com/ssupercloud/nextdawn/internal/enrichment"
	"github.com/ssupercloud/nextdawn/internal/grok"
	"github.com/ssupercloud/nextdawn/internal/imagery"
	"github.com/ssupercloud/nextdawn/internal/lock"
	"github.com/ssupercloud/nextdawn/internal/stories"
)

// NewGenerator builds the content generator. Missing API keys leave the
// corresponding stage out.
func NewGenerator(cfg *config.Config) *content.Generator {
	var llm content.Completer
	if cfg.XAIAPIKey != "" {
		client := grok.NewClient(grok.Config{
			APIKey:   cfg.XAIAPIKey,
			Endpoint: cfg.LLMEndpoint,
			Model:    cfg.LLMModel,
			Timeout:  cfg.LLMTimeout,
		})
		llm = client
		log.Info().Str("model", client.Model()).Msg("Grok client initialized")
	} else {
		log.Warn().Msg("Grok client not initialized (no API key)")
	}

	var background content.BackgroundSource
	if enricher := enrichment.NewEnricher(enrichment.EnrichmentConfig{
		TavilyAPIKey:   cfg.TavilyAPIKey,
		MaxNewsResults: 5,
		Enabled:        cfg.EnableEnrichment,
	}); enricher != nil {
		background = enricher
	}

	images := imagery.NewSynthesizer(imagery.Config{
		BaseURL: cfg.ImageBaseURL,
		Width:   cfg.ImageWidth,
		Height:  cfg.ImageHeight,
	})

	return content.NewGenerator(llm, images, background, content.Config{
		MinStoryLength: cfg.MinStoryLength,
	})
}

// NewStoryService builds the story service on top of store. When REDIS_ADDR
// is set and reachable, generation is guarded by a distributed lock. The
// returned cleanup releases the lock client.
func NewStoryService(ctx context.Context, cfg *config.Config, store stories.StoryStore) (*stories.Service, func()) {
	cleanup := func() {}

	var locker stories.Locker
	if cfg.RedisAddr != "" {
		manager, err := lock.New(ctx, lock.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, generating without distributed lock")
		} else {
			locker = manager
			cleanup = func() {
				if err := manager.Close(); err != nil {
					log.Debug().Err(err).Msg("Failed to close redis client")
				}
			}
			log.Info().Str("addr", cfg.RedisAddr).Msg("Distributed story lock enabled")
		}
	}

	svc := stories.NewService(store, NewGenerator(cfg), locker, stories.Config{
		Version:        cfg.ContentVersion,
		MinStoryLength: cfg.MinStoryLength,
	})
	return svc, cleanup
}
