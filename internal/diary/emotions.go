package diary

import (
	"context"
	"fmt"
	"time"

	"github.com/justestif/go-voice-diary/internal/emotion"
)

// aggregateDay loads the day's analyses and aggregates them.
func (s *Service) aggregateDay(ctx context.Context, userID string, date time.Time) (emotion.DailySummary, bool, error) {
	start, end := s.bounds(date)
	analyses, err := s.stores.Analyses.ListBetween(ctx, userID, start, end)
	if err != nil {
		return emotion.DailySummary{}, false, fmt.Errorf("loading analyses: %w", err)
	}

	results := make([]emotion.AnalysisResult, len(analyses))
	for i := range analyses {
		results[i] = analyses[i].Result()
	}

	summary, ok := emotion.Aggregate(results)
	s.metrics.ObserveAggregation(ok)
	return summary, ok, nil
}

// RefreshDailyEmotions recomputes and stores the day's aggregate.
// When the day has no analysed recording it returns ErrNoEmotionData and
// leaves the stored summary untouched.
func (s *Service) RefreshDailyEmotions(ctx context.Context, userID string, date time.Time) (emotion.DailySummary, error) {
	key := date.Format(DateLayout)

	summary, ok, err := s.aggregateDay(ctx, userID, date)
	if err != nil {
		return emotion.DailySummary{}, err
	}
	if !ok {
		s.invalidate(ctx, userID, key)
		return emotion.DailySummary{}, ErrNoEmotionData
	}

	if err := s.stores.Summaries.UpsertEmotions(ctx, userID, date, summary); err != nil {
		return emotion.DailySummary{}, fmt.Errorf("storing daily emotions: %w", err)
	}
	s.store(ctx, userID, key, summary)
	return summary, nil
}

// DailyEmotions returns the day's aggregate, reading through the cache.
func (s *Service) DailyEmotions(ctx context.Context, userID string, date time.Time) (emotion.DailySummary, error) {
	key := date.Format(DateLayout)

	if s.cache != nil {
		cached, hit, err := s.cache.Get(ctx, userID, key)
		if err != nil {
			s.log.WithError(err).Warn("summary cache read failed")
		}
		s.metrics.ObserveCache(hit)
		if hit {
			return cached, nil
		}
	}

	summary, ok, err := s.aggregateDay(ctx, userID, date)
	if err != nil {
		return emotion.DailySummary{}, err
	}
	if !ok {
		return emotion.DailySummary{}, ErrNoEmotionData
	}
	s.store(ctx, userID, key, summary)
	return summary, nil
}

func (s *Service) store(ctx context.Context, userID, date string, summary emotion.DailySummary) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, userID, date, summary); err != nil {
		s.log.WithError(err).Warn("summary cache write failed")
	}
}

func (s *Service) invalidate(ctx context.Context, userID, date string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID, date); err != nil {
		s.log.WithError(err).Warn("summary cache invalidation failed")
	}
}
