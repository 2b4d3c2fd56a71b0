package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssupercloud/nextdawn/internal/models"
	"github.com/ssupercloud/nextdawn/internal/stories"
	syncer "github.com/ssupercloud/nextdawn/internal/sync"
)

type recordingWarmer struct {
	mu       sync.Mutex
	requests []stories.StoryRequest
	done     chan struct{}
}

func (w *recordingWarmer) FetchOrGenerateStory(_ context.Context, req stories.StoryRequest) models.GeneratedContent {
	w.mu.Lock()
	w.requests = append(w.requests, req)
	w.mu.Unlock()
	if w.done != nil {
		w.done <- struct{}{}
	}
	return models.GeneratedContent{Headline: req.ForcedHeadline}
}

func (w *recordingWarmer) ids() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := make([]string, 0, len(w.requests))
	for _, r := range w.requests {
		ids = append(ids, r.MarketID)
	}
	return ids
}

type fakeLister struct {
	records map[string][]models.MarketRecord
	errs    map[string]error
}

func (f *fakeLister) GetMarketsByCategory(_ context.Context, category string, limit int) ([]models.MarketRecord, error) {
	if err := f.errs[category]; err != nil {
		return nil, err
	}
	records := f.records[category]
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

type fakeEvents struct {
	ch chan syncer.Event
}

func (f *fakeEvents) Subscribe() <-chan syncer.Event {
	return f.ch
}

func record(id string, volume float64) models.MarketRecord {
	return models.MarketRecord{
		MarketID: id,
		Title:    "Market " + id,
		Volume:   volume,
		Markets: []models.SubMarket{{
			Outcomes:      []string{"Yes", "No"},
			OutcomePrices: []string{"0.7", "0.3"},
		}},
	}
}

func TestWarmStories(t *testing.T) {
	warmer := &recordingWarmer{}
	lister := &fakeLister{
		records: map[string][]models.MarketRecord{
			"crypto":   {record("1", 3), record("2", 2), record("3", 1)},
			"politics": {record("4", 5)},
		},
		errs: map[string]error{"science": errors.New("db down")},
	}

	s := NewScheduler(warmer, lister, nil, Config{
		Categories: []string{"crypto", "science", "politics"},
		Limit:      2,
	})

	err := s.warmStories(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "science")

	assert.Equal(t, []string{"1", "2", "4"}, warmer.ids())
	assert.Equal(t, "Odds favor 'Yes' for Market 1", warmer.requests[0].ForcedHeadline)
}

func TestProcessEvent(t *testing.T) {
	warmer := &recordingWarmer{}
	s := NewScheduler(warmer, &fakeLister{}, nil, Config{NewMarketMinVolume: 50000})

	s.processEvent(syncer.Event{Type: syncer.EventNewMarket, Record: record("small", 100)})
	s.processEvent(syncer.Event{Type: syncer.EventNewMarket, Record: record("big", 75000)})
	s.processEvent(syncer.Event{Type: "other", Record: record("other", 75000)})

	assert.Equal(t, []string{"big"}, warmer.ids())
}

func TestEventLoop(t *testing.T) {
	warmer := &recordingWarmer{done: make(chan struct{}, 1)}
	events := &fakeEvents{ch: make(chan syncer.Event, 1)}
	s := NewScheduler(warmer, &fakeLister{}, events, Config{})
	s.Start()
	defer s.Stop()

	events.ch <- syncer.Event{Type: syncer.EventNewMarket, Record: record("n1", 1)}

	select {
	case <-warmer.done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected story warm for new market")
	}
	assert.Equal(t, []string{"n1"}, warmer.ids())
}

func TestRunJobNow(t *testing.T) {
	warmer := &recordingWarmer{done: make(chan struct{}, 1)}
	lister := &fakeLister{records: map[string][]models.MarketRecord{"crypto": {record("1", 1)}}}
	s := NewScheduler(warmer, lister, nil, Config{Categories: []string{"crypto"}})
	defer s.Stop()

	err := s.RunJobNow("nope")
	assert.ErrorIs(t, err, ErrUnknownJob)

	require.NoError(t, s.RunJobNow(JobWarmStories))
	select {
	case <-warmer.done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected warm job to run")
	}

	status := s.JobStatus()
	require.Len(t, status, 1)
	assert.Equal(t, JobWarmStories, status[0].Name)
	assert.False(t, status[0].LastRun.IsZero())
}

func TestCalculateNextRun(t *testing.T) {
	s := NewScheduler(&recordingWarmer{}, &fakeLister{}, nil, Config{})
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	assert.Equal(t, now.Add(30*time.Minute),
		s.calculateNextRun(Schedule{Type: ScheduleInterval, Interval: 30 * time.Minute}))

	assert.Equal(t, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		s.calculateNextRun(Schedule{Type: ScheduleDaily, Hour: 12}))

	assert.Equal(t, time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC),
		s.calculateNextRun(Schedule{Type: ScheduleDaily, Hour: 8}))

	assert.Equal(t, time.Date(2026, 3, 11, 9, 30, 0, 0, time.UTC),
		s.calculateNextRun(Schedule{Type: ScheduleDaily, Hour: 9, Minute: 30}))

	assert.Equal(t, now.Add(time.Hour), s.calculateNextRun(Schedule{}))
}

func TestCheckAndRunJobs(t *testing.T) {
	warmer := &recordingWarmer{done: make(chan struct{}, 1)}
	lister := &fakeLister{records: map[string][]models.MarketRecord{"crypto": {record("1", 1)}}}
	s := NewScheduler(warmer, lister, nil, Config{Categories: []string{"crypto"}, WarmInterval: time.Minute})
	defer s.Stop()

	start := time.Now().UTC()
	s.now = func() time.Time { return start.Add(2 * time.Minute) }
	s.checkAndRunJobs()

	select {
	case <-warmer.done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected due job to run")
	}
	status := s.JobStatus()
	assert.Equal(t, start.Add(3*time.Minute), status[0].NextRun)
}

func TestDeepWarmJob(t *testing.T) {
	warmer := &recordingWarmer{done: make(chan struct{}, 4)}
	lister := &fakeLister{records: map[string][]models.MarketRecord{
		"crypto": {record("1", 4), record("2", 3), record("3", 2), record("4", 1)},
	}}
	before := time.Now().UTC()
	s := NewScheduler(warmer, lister, nil, Config{
		Categories:    []string{"crypto"},
		Limit:         1,
		DeepWarmHour:  4,
		DeepWarmLimit: 3,
	})
	defer s.Stop()

	status := s.JobStatus()
	require.Len(t, status, 2)
	assert.Equal(t, JobDeepWarm, status[1].Name)
	next := status[1].NextRun
	assert.Equal(t, 4, next.Hour())
	assert.Equal(t, 0, next.Minute())
	assert.True(t, next.After(before))
	assert.True(t, next.Before(before.Add(25*time.Hour)))

	require.NoError(t, s.RunJobNow(JobDeepWarm))
	for i := 0; i < 3; i++ {
		select {
		case <-warmer.done:
		case <-time.After(2 * time.Second):
			t.Fatal("expected deep warm to reach three markets")
		}
	}
	assert.Equal(t, []string{"1", "2", "3"}, warmer.ids())
}

func TestDeepWarmDisabledByDefault(t *testing.T) {
	s := NewScheduler(&recordingWarmer{}, &fakeLister{}, nil, Config{DeepWarmHour: 4})
	status := s.JobStatus()
	require.Len(t, status, 1)
	assert.Equal(t, JobWarmStories, status[0].Name)
	assert.ErrorIs(t, s.RunJobNow(JobDeepWarm), ErrUnknownJob)
}
