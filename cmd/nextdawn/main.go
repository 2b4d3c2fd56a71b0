// NextDawn - prediction markets as a newspaper.
// Syncs Polymarket events and serves headlines and generated stories.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ssupercloud/nextdawn/internal/api"
	"github.com/ssupercloud/nextdawn/internal/app"
	"github.com/ssupercloud/nextdawn/internal/config"
	"github.com/ssupercloud/nextdawn/internal/polymarket"
	"github.com/ssupercloud/nextdawn/internal/scheduler"
	"github.com/ssupercloud/nextdawn/internal/storage"
	syncer "github.com/ssupercloud/nextdawn/internal/sync"
)

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	log.Info().Msg("NextDawn - Starting")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()

	// Initialize storage
	store, err := storage.NewStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer store.Close(ctx)

	// Story pipeline
	storyService, cleanup := app.NewStoryService(ctx, cfg, store)
	defer cleanup()
	log.Info().Str("version", storyService.Version()).Msg("Story service initialized")

	// Initialize market syncer
	syncConfig := syncer.DefaultSyncerConfig()
	syncConfig.SyncInterval = cfg.PollInterval
	syncConfig.Categories = cfg.FeedCategories
	syncConfig.Limit = cfg.FeedLimit
	syncConfig.MinVolume = cfg.MinVolume

	marketSyncer := syncer.NewSyncer(polymarket.NewClient(), store, syncConfig)
	log.Info().Msg("Market syncer initialized")

	// Initialize scheduler
	sched := scheduler.NewScheduler(storyService, store, marketSyncer, scheduler.Config{
		Categories:         cfg.FeedCategories,
		Limit:              cfg.FeedLimit,
		WarmInterval:       cfg.WarmInterval,
		NewMarketMinVolume: cfg.NewMarketMinVolume,
		DeepWarmHour:       cfg.DeepWarmHour,
		DeepWarmLimit:      cfg.DeepWarmLimit,
	})
	log.Info().Msg("Scheduler initialized")

	// Initialize API server with syncer and scheduler for admin endpoints
	handlers := api.NewHandlers(store, marketSyncer, storyService, cfg.FeedCategories)
	apiServer := api.NewServer(handlers, marketSyncer, sched, cfg.HTTPAddr)

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start all services
	go func() {
		if err := apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("API server error")
		}
	}()

	marketSyncer.Start()
	sched.Start()

	log.Info().
		Str("api", cfg.HTTPAddr).
		Strs("categories", cfg.FeedCategories).
		Msg("NextDawn running")

	// Wait for shutdown signal
	<-sigChan
	log.Info().Msg("Shutdown signal received")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("API server shutdown failed")
	}
	sched.Stop()
	marketSyncer.Stop()

	log.Info().Msg("NextDawn stopped")
}
