package stories

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/ssupercloud/nextdawn/internal/content"
	"github.com/ssupercloud/nextdawn/internal/lock"
	"github.com/ssupercloud/nextdawn/internal/models"
	"github.com/ssupercloud/nextdawn/internal/storage"
	"github.com/ssupercloud/nextdawn/internal/stories/mocks"
)

const testVersion = "v12_analytical"

type ServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	store     *mocks.MockStoryStore
	generator *mocks.MockGenerator
	locker    *mocks.MockLocker

	service *Service
	req     StoryRequest
	now     time.Time
}

func (s *ServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.store = mocks.NewMockStoryStore(s.ctrl)
	s.generator = mocks.NewMockGenerator(s.ctrl)
	s.locker = mocks.NewMockLocker(s.ctrl)

	s.service = s.newService(nil)

	s.req = StoryRequest{
		MarketID:       "m1",
		Title:          "Will it rain?",
		Summary:        "Yes (82.0%), No (18.0%)",
		Probability:    0.82,
		TargetDate:     "2026-12-31",
		ForcedHeadline: "Odds favor 'Yes' for Will it rain?",
	}
}

func (s *ServiceTestSuite) newService(locker Locker) *Service {
	svc := NewService(s.store, s.generator, locker, Config{
		Version:        testVersion,
		MinStoryLength: 50,
		LockWait:       50 * time.Millisecond,
		PollInterval:   time.Millisecond,
	})
	s.now = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return s.now }
	return svc
}

func (s *ServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func completeContent() models.GeneratedContent {
	return models.GeneratedContent{
		Headline:          "Odds favor 'Yes' for Will it rain?",
		Story:             strings.Repeat("Forecasters and traders agree. ", 4),
		HeadlineLocalized: "“是”方占优：会下雨吗？",
		StoryLocalized:    strings.Repeat("预报员与交易员的判断一致，市场普遍预期降雨概率较高。", 3),
		ImageURL:          "https://img.test/prompt/rain?seed=1&width=1024&height=576",
		Impact:            models.ImpactMedium,
	}
}

func (s *ServiceTestSuite) TestFreshMarket_GeneratesOnceAndInserts() {
	ctx := context.Background()
	generated := completeContent()

	s.store.EXPECT().FindStory(gomock.Any(), "m1").Return(nil, storage.ErrNotFound)
	s.generator.EXPECT().Generate(gomock.Any(), content.Request{
		MarketID:       "m1",
		Title:          "Will it rain?",
		Summary:        "Yes (82.0%), No (18.0%)",
		Probability:    0.82,
		TargetDate:     "2026-12-31",
		ForcedHeadline: "Odds favor 'Yes' for Will it rain?",
	}).Return(content.Result{Content: generated, Outcome: content.OutcomeStrict})
	s.store.EXPECT().InsertStory(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, entry *models.CacheEntry) error {
			s.Equal("m1", entry.MarketID)
			s.Equal("Will it rain?", entry.Title)
			s.Equal(testVersion, entry.Version)
			s.Equal(generated, entry.Content)
			s.Equal(s.now, entry.CreatedAt)
			return nil
		},
	)

	got := s.service.FetchOrGenerateStory(ctx, s.req)
	s.Equal(generated, got)
}

func (s *ServiceTestSuite) TestCurrentVersion_ReturnsCacheWithoutGenerating() {
	ctx := context.Background()
	cached := completeContent()
	cached.ImageURL = "https://img.test/prompt/cached?seed=9"

	s.store.EXPECT().FindStory(gomock.Any(), "m1").Return(&models.CacheEntry{
		ID:       "abc",
		MarketID: "m1",
		Version:  testVersion,
		Content:  cached,
	}, nil).Times(2)

	first := s.service.FetchOrGenerateStory(ctx, s.req)
	second := s.service.FetchOrGenerateStory(ctx, s.req)

	s.Equal(cached, first)
	s.Equal(first, second)
}

func (s *ServiceTestSuite) TestStaleVersion_RegeneratesAndReplaces() {
	ctx := context.Background()
	generated := completeContent()

	s.store.EXPECT().FindStory(gomock.Any(), "m1").Return(&models.CacheEntry{
		ID:       "stale-handle",
		MarketID: "m1",
		Version:  "v11_bilingual",
		Content:  models.GeneratedContent{Story: "old"},
	}, nil)
	s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(content.Result{Content: generated})
	s.store.EXPECT().ReplaceStory(gomock.Any(), "stale-handle", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, entry *models.CacheEntry) error {
			s.Equal(testVersion, entry.Version)
			s.Equal(generated, entry.Content)
			return nil
		},
	)
	s.store.EXPECT().InsertStory(gomock.Any(), gomock.Any()).Times(0)

	got := s.service.FetchOrGenerateStory(ctx, s.req)
	s.Equal(generated, got)
}

func (s *ServiceTestSuite) TestStaleHandleVanished_FallsBackToInsert() {
	ctx := context.Background()

	s.store.EXPECT().FindStory(gomock.Any(), "m1").Return(&models.CacheEntry{ID: "gone", Version: "v1"}, nil)
	s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(content.Result{Content: completeContent()})
	s.store.EXPECT().ReplaceStory(gomock.Any(), "gone", gomock.Any()).Return(storage.ErrNotFound)
	s.store.EXPECT().InsertStory(gomock.Any(), gomock.Any()).Return(nil)

	s.service.FetchOrGenerateStory(ctx, s.req)
}

func (s *ServiceTestSuite) TestShortStory_ReturnedButNotPersisted() {
	ctx := context.Background()
	short := completeContent()
	short.Story = content.PlaceholderEN

	s.store.EXPECT().FindStory(gomock.Any(), "m1").Return(nil, storage.ErrNotFound).Times(2)
	s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(content.Result{Content: short, Outcome: content.OutcomeSalvaged}).Times(2)
	s.store.EXPECT().InsertStory(gomock.Any(), gomock.Any()).Times(0)
	s.store.EXPECT().ReplaceStory(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	s.Equal(short, s.service.FetchOrGenerateStory(ctx, s.req))
	s.Equal(short, s.service.FetchOrGenerateStory(ctx, s.req))
}

func (s *ServiceTestSuite) TestShortLocalizedStory_NotPersisted() {
	ctx := context.Background()
	partial := completeContent()
	partial.StoryLocalized = "太短"

	s.store.EXPECT().FindStory(gomock.Any(), "m1").Return(nil, storage.ErrNotFound)
	s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(content.Result{Content: partial})

	s.Equal(partial, s.service.FetchOrGenerateStory(ctx, s.req))
}

func (s *ServiceTestSuite) TestDegradedContent_NotPersisted() {
	ctx := context.Background()
	degraded := models.GeneratedContent{
		Headline:       "Will it rain?",
		Story:          "Service unavailable.",
		StoryLocalized: "服务不可用",
		Impact:         models.ImpactLow,
	}

	s.store.EXPECT().FindStory(gomock.Any(), "m1").Return(nil, storage.ErrNotFound)
	s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(content.Result{Content: degraded, Outcome: content.OutcomeUnavailable})

	s.Equal(degraded, s.service.FetchOrGenerateStory(ctx, s.req))
}

func (s *ServiceTestSuite) TestStoreFailures_StillReturnContent() {
	ctx := context.Background()
	generated := completeContent()

	s.store.EXPECT().FindStory(gomock.Any(), "m1").Return(nil, errors.New("connection refused"))
	s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(content.Result{Content: generated})
	s.store.EXPECT().InsertStory(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))

	s.Equal(generated, s.service.FetchOrGenerateStory(ctx, s.req))
}

func (s *ServiceTestSuite) TestLockAcquired_GeneratesAndUnlocks() {
	ctx := context.Background()
	svc := s.newService(s.locker)
	unlocked := 0

	s.store.EXPECT().FindStory(gomock.Any(), "m1").Return(nil, storage.ErrNotFound).Times(2)
	s.locker.EXPECT().Acquire(gomock.Any(), "story:m1", DefaultLockTTL).Return(func() { unlocked++ }, nil)
	s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(content.Result{Content: completeContent()})
	s.store.EXPECT().InsertStory(gomock.Any(), gomock.Any()).Return(nil)

	svc.FetchOrGenerateStory(ctx, s.req)
	s.Equal(1, unlocked)
}

func (s *ServiceTestSuite) TestLockAcquired_RecheckFindsFreshEntry() {
	ctx := context.Background()
	svc := s.newService(s.locker)
	fresh := completeContent()

	gomock.InOrder(
		s.store.EXPECT().FindStory(gomock.Any(), "m1").Return(nil, storage.ErrNotFound),
		s.locker.EXPECT().Acquire(gomock.Any(), "story:m1", gomock.Any()).Return(func() {}, nil),
		s.store.EXPECT().FindStory(gomock.Any(), "m1").Return(&models.CacheEntry{ID: "x", Version: testVersion, Content: fresh}, nil),
	)

	s.Equal(fresh, svc.FetchOrGenerateStory(ctx, s.req))
}

func (s *ServiceTestSuite) TestLockHeld_WaitsForOtherReplica() {
	ctx := context.Background()
	svc := s.newService(s.locker)
	filled := completeContent()

	gomock.InOrder(
		s.store.EXPECT().FindStory(gomock.Any(), "m1").Return(nil, storage.ErrNotFound),
		s.locker.EXPECT().Acquire(gomock.Any(), "story:m1", gomock.Any()).Return(nil, lock.ErrLockHeld),
		s.store.EXPECT().FindStory(gomock.Any(), "m1").Return(nil, storage.ErrNotFound),
		s.store.EXPECT().FindStory(gomock.Any(), "m1").Return(&models.CacheEntry{ID: "x", Version: testVersion, Content: filled}, nil),
	)

	s.Equal(filled, svc.FetchOrGenerateStory(ctx, s.req))
}

func (s *ServiceTestSuite) TestLockHeld_WaitExpiresThenGenerates() {
	ctx := context.Background()
	svc := s.newService(s.locker)
	generated := completeContent()

	s.store.EXPECT().FindStory(gomock.Any(), "m1").Return(&models.CacheEntry{ID: "old", Version: "v1"}, nil).AnyTimes()
	s.locker.EXPECT().Acquire(gomock.Any(), "story:m1", gomock.Any()).Return(nil, lock.ErrLockHeld)
	s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(content.Result{Content: generated})
	s.store.EXPECT().ReplaceStory(gomock.Any(), "old", gomock.Any()).Return(nil)

	s.Equal(generated, svc.FetchOrGenerateStory(ctx, s.req))
}

func (s *ServiceTestSuite) TestLockError_GeneratesUnlocked() {
	ctx := context.Background()
	svc := s.newService(s.locker)

	s.store.EXPECT().FindStory(gomock.Any(), "m1").Return(nil, storage.ErrNotFound)
	s.locker.EXPECT().Acquire(gomock.Any(), "story:m1", gomock.Any()).Return(nil, errors.New("redis down"))
	s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(content.Result{Content: completeContent()})
	s.store.EXPECT().InsertStory(gomock.Any(), gomock.Any()).Return(nil)

	svc.FetchOrGenerateStory(ctx, s.req)
}

func TestNewService_Defaults(t *testing.T) {
	svc := NewService(nil, nil, nil, Config{})

	if svc.Version() != DefaultVersion {
		t.Errorf("version = %q, want %q", svc.Version(), DefaultVersion)
	}
	if svc.config.MinStoryLength != DefaultMinStoryLength {
		t.Errorf("min story length = %d", svc.config.MinStoryLength)
	}
	if svc.config.LockWait != DefaultLockWait || svc.config.PollInterval != DefaultPollInterval {
		t.Errorf("unexpected lock defaults: %+v", svc.config)
	}
}

func TestRequestFor(t *testing.T) {
	record := &models.MarketRecord{
		MarketID: "m1",
		Title:    "Fed rate cut",
		Category: "business",
		EndDate:  "2026-12-31T00:00:00Z",
		Markets: []models.SubMarket{{
			Question:      "Fed rate cut",
			Outcomes:      []string{"Yes", "No"},
			OutcomePrices: []string{"0.82", "0.18"},
		}},
	}

	req := RequestFor(record)
	assert.Equal(t, "m1", req.MarketID)
	assert.Equal(t, "business", req.Category)
	assert.Equal(t, "Yes (82.0%), No (18.0%)", req.Summary)
	assert.InDelta(t, 0.82, req.Probability, 1e-9)
	assert.Equal(t, "2026-12-31T00:00:00Z", req.TargetDate)
	assert.Equal(t, "Odds favor 'Yes' for Fed rate cut", req.ForcedHeadline)
}
