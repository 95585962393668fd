package analytics

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/questlog/internal/cache"
	"github.com/julianstephens/questlog/internal/constants"
	"github.com/julianstephens/questlog/internal/logger"
	"github.com/julianstephens/questlog/internal/models"
	"github.com/julianstephens/questlog/internal/storage"
)

// Service loads data for a profile and aggregates it into a Report
type Service struct {
	store storage.Provider
	cache cache.Cache
	ttl   time.Duration
	opts  Options
	now   func() time.Time
}

// NewService creates a report service. c may be nil to disable caching.
func NewService(store storage.Provider, c cache.Cache, ttl time.Duration, opts Options) *Service {
	if ttl <= 0 {
		ttl = constants.DefaultCacheTTL
	}
	return &Service{store: store, cache: c, ttl: ttl, opts: opts, now: time.Now}
}

func reportKey(profileID string) string {
	return cache.Key("report", profileID)
}

// Report returns the analytics report for profileID, served from cache
// when available. Cache failures are logged and otherwise ignored.
func (s *Service) Report(ctx context.Context, profileID string) (Report, error) {
	if s.cache != nil {
		var cached Report
		hit, err := s.cache.Get(ctx, reportKey(profileID), &cached)
		if err != nil {
			logger.Warn("Analytics cache read failed", "profile", profileID, "error", err)
		} else if hit {
			logger.Debug("Analytics cache hit", "profile", profileID)
			return cached, nil
		}
	}

	now := s.now()
	habits, logs, err := s.load(ctx, profileID, now)
	if err != nil {
		return Report{}, err
	}
	report := Aggregate(habits, logs, now, s.opts)

	if s.cache != nil {
		if err := s.cache.Set(ctx, reportKey(profileID), report, s.ttl); err != nil {
			logger.Warn("Analytics cache write failed", "profile", profileID, "error", err)
		}
	}
	return report, nil
}

// Invalidate drops any cached report for profileID.
func (s *Service) Invalidate(ctx context.Context, profileID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, reportKey(profileID)); err != nil {
		logger.Warn("Analytics cache invalidation failed", "profile", profileID, "error", err)
	}
}

func (s *Service) load(ctx context.Context, profileID string, now time.Time) ([]models.Habit, []models.HabitLog, error) {
	windowDays := s.opts.WindowDays
	if windowDays <= 0 {
		windowDays = constants.DefaultWindowDays
	}
	since := now.AddDate(0, 0, -windowDays)

	var habits []models.Habit
	var logs []models.HabitLog

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		habits, err = s.store.GetHabits(profileID, false)
		if err != nil {
			return fmt.Errorf("failed to load habits: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		logs, err = s.store.GetHabitLogs(profileID, since)
		if err != nil {
			return fmt.Errorf("failed to load habit logs: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return habits, logs, nil
}
