// Package scheduler runs story warming jobs and reacts to new markets.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ssupercloud/nextdawn/internal/models"
	"github.com/ssupercloud/nextdawn/internal/stories"
	syncer "github.com/ssupercloud/nextdawn/internal/sync"
)

// ErrUnknownJob is returned by RunJobNow for unregistered job names.
var ErrUnknownJob = errors.New("unknown job")

// Registered job names.
const (
	JobWarmStories = "warm-stories"
	JobDeepWarm    = "deep-warm"
)

// StoryWarmer fetches or generates the story of a market.
type StoryWarmer interface {
	FetchOrGenerateStory(ctx context.Context, req stories.StoryRequest) models.GeneratedContent
}

// MarketLister lists the top markets of a category.
type MarketLister interface {
	GetMarketsByCategory(ctx context.Context, category string, limit int) ([]models.MarketRecord, error)
}

// EventSource publishes market events.
type EventSource interface {
	Subscribe() <-chan syncer.Event
}

// Job represents a scheduled job.
type Job struct {
	Name     string
	Schedule Schedule
	Timeout  time.Duration
	Handler  func(ctx context.Context) error
	LastRun  time.Time
	NextRun  time.Time
}

// Schedule defines when a job should run.
type Schedule struct {
	// For fixed-interval jobs
	Interval time.Duration

	// For time-of-day jobs (in UTC)
	Hour   int
	Minute int

	// Type of schedule
	Type ScheduleType
}

// ScheduleType defines the type of schedule.
type ScheduleType string

const (
	ScheduleInterval ScheduleType = "interval"
	ScheduleDaily    ScheduleType = "daily"
)

// JobStatus reports the timing of a registered job.
type JobStatus struct {
	Name    string    `json:"name"`
	LastRun time.Time `json:"last_run"`
	NextRun time.Time `json:"next_run"`
}

// Config holds scheduler settings.
type Config struct {
	Categories   []string
	Limit        int
	WarmInterval time.Duration

	// New markets below this volume are left for the next warm run.
	NewMarketMinVolume float64

	// Once a day at DeepWarmHour (UTC) the top DeepWarmLimit markets of every
	// category are warmed. Zero DeepWarmLimit disables the job.
	DeepWarmHour  int
	DeepWarmLimit int
}

// Scheduler manages scheduled jobs and event-driven story warming.
type Scheduler struct {
	warmer  StoryWarmer
	markets MarketLister
	config  Config

	jobs    []*Job
	jobsMux sync.RWMutex

	// Event processing
	eventChan <-chan syncer.Event

	now func() time.Time

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a new scheduler. events may be nil.
func NewScheduler(warmer StoryWarmer, markets MarketLister, events EventSource, config Config) *Scheduler {
	if config.Limit <= 0 {
		config.Limit = 10
	}
	if config.WarmInterval <= 0 {
		config.WarmInterval = 30 * time.Minute
	}
	if config.DeepWarmHour < 0 || config.DeepWarmHour > 23 {
		config.DeepWarmHour = 0
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		warmer:  warmer,
		markets: markets,
		config:  config,
		jobs:    make([]*Job, 0),
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
	}

	// Subscribe to syncer events
	if events != nil {
		s.eventChan = events.Subscribe()
	}

	s.registerDefaultJobs()

	return s
}

// registerDefaultJobs sets up the default warming schedule.
func (s *Scheduler) registerDefaultJobs() {
	s.AddJob(&Job{
		Name: JobWarmStories,
		Schedule: Schedule{
			Type:     ScheduleInterval,
			Interval: s.config.WarmInterval,
		},
		Timeout: s.config.WarmInterval,
		Handler: s.warmStories,
	})

	if s.config.DeepWarmLimit > 0 {
		s.AddJob(&Job{
			Name: JobDeepWarm,
			Schedule: Schedule{
				Type: ScheduleDaily,
				Hour: s.config.DeepWarmHour,
			},
			Timeout: 2 * time.Hour,
			Handler: s.deepWarm,
		})
	}
}

// warmStories makes sure the top markets of every category have a current story.
func (s *Scheduler) warmStories(ctx context.Context) error {
	return s.warmTop(ctx, s.config.Limit)
}

// deepWarm reaches further down each category than the interval job.
func (s *Scheduler) deepWarm(ctx context.Context) error {
	return s.warmTop(ctx, s.config.DeepWarmLimit)
}

func (s *Scheduler) warmTop(ctx context.Context, limit int) error {
	var errs []error
	warmed := 0

	for _, category := range s.config.Categories {
		records, err := s.markets.GetMarketsByCategory(ctx, category, limit)
		if err != nil {
			errs = append(errs, fmt.Errorf("list %s markets: %w", category, err))
			continue
		}

		for i := range records {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.warmer.FetchOrGenerateStory(ctx, stories.RequestFor(&records[i]))
			warmed++
		}
	}

	log.Info().Int("stories", warmed).Int("limit", limit).Msg("Stories warmed")
	return errors.Join(errs...)
}

// AddJob adds a job to the scheduler.
func (s *Scheduler) AddJob(job *Job) {
	s.jobsMux.Lock()
	defer s.jobsMux.Unlock()

	job.NextRun = s.calculateNextRun(job.Schedule)
	s.jobs = append(s.jobs, job)

	log.Info().
		Str("job", job.Name).
		Time("next_run", job.NextRun).
		Msg("Job registered")
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	log.Info().Int("jobs", len(s.jobs)).Msg("Starting scheduler")

	// Start the job executor
	s.wg.Add(1)
	go s.jobLoop()

	// Start the event processor
	if s.eventChan != nil {
		s.wg.Add(1)
		go s.eventLoop()
	}
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler")
	s.cancel()
	s.wg.Wait()
}

// jobLoop checks and runs scheduled jobs.
func (s *Scheduler) jobLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.checkAndRunJobs()
		}
	}
}

// checkAndRunJobs runs any jobs that are due.
func (s *Scheduler) checkAndRunJobs() {
	now := s.now().UTC()

	s.jobsMux.Lock()
	defer s.jobsMux.Unlock()

	for _, job := range s.jobs {
		if !now.Before(job.NextRun) {
			s.wg.Add(1)
			go s.runJob(job)
			job.LastRun = now
			job.NextRun = s.calculateNextRun(job.Schedule)

			log.Debug().
				Str("job", job.Name).
				Time("next_run", job.NextRun).
				Msg("Job scheduled for next run")
		}
	}
}

// runJob executes a job. The caller must have incremented s.wg.
func (s *Scheduler) runJob(job *Job) {
	defer s.wg.Done()

	log.Info().Str("job", job.Name).Msg("Running job")

	timeout := job.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	if err := job.Handler(ctx); err != nil {
		log.Error().Err(err).Str("job", job.Name).Msg("Job failed")
	} else {
		log.Info().Str("job", job.Name).Msg("Job completed")
	}
}

// calculateNextRun calculates the next run time for a schedule.
func (s *Scheduler) calculateNextRun(schedule Schedule) time.Time {
	now := s.now().UTC()

	switch schedule.Type {
	case ScheduleInterval:
		return now.Add(schedule.Interval)

	case ScheduleDaily:
		next := time.Date(now.Year(), now.Month(), now.Day(),
			schedule.Hour, schedule.Minute, 0, 0, time.UTC)
		if !next.After(now) {
			next = next.Add(24 * time.Hour)
		}
		return next

	default:
		return now.Add(time.Hour)
	}
}

// eventLoop processes events from the syncer.
func (s *Scheduler) eventLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return

		case event, ok := <-s.eventChan:
			if !ok {
				return
			}
			s.processEvent(event)
		}
	}
}

// processEvent warms the story of a new market when it trades enough volume.
func (s *Scheduler) processEvent(event syncer.Event) {
	log.Debug().
		Str("type", string(event.Type)).
		Str("market_id", event.Record.MarketID).
		Msg("Processing event")

	if event.Type != syncer.EventNewMarket {
		return
	}
	if event.Record.Volume < s.config.NewMarketMinVolume {
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, 2*time.Minute)
	defer cancel()

	s.warmer.FetchOrGenerateStory(ctx, stories.RequestFor(&event.Record))
}

// RunJobNow runs a specific job immediately by name.
func (s *Scheduler) RunJobNow(name string) error {
	s.jobsMux.Lock()
	defer s.jobsMux.Unlock()

	for _, job := range s.jobs {
		if job.Name == name {
			job.LastRun = s.now().UTC()
			s.wg.Add(1)
			go s.runJob(job)
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrUnknownJob, name)
}

// JobStatus returns the status of all jobs.
func (s *Scheduler) JobStatus() []JobStatus {
	s.jobsMux.RLock()
	defer s.jobsMux.RUnlock()

	status := make([]JobStatus, len(s.jobs))
	for i, job := range s.jobs {
		status[i] = JobStatus{
			Name:    job.Name,
			LastRun: job.LastRun,
			NextRun: job.NextRun,
		}
	}
	return status
}
