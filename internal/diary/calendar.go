package diary

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/justestif/go-voice-diary/internal/db"
	"github.com/justestif/go-voice-diary/internal/emotion"
	"github.com/justestif/go-voice-diary/internal/mood"
)

// CalendarDay is one entry of the mood calendar. Days without emotion data
// carry no glyph and no aggregate.
type CalendarDay struct {
	Date                 string                `json:"date"`
	Emotions             *emotion.DailySummary `json:"emotions,omitempty"`
	Glyph                string                `json:"glyph,omitempty"`
	Label                string                `json:"label,omitempty"`
	HasDiary             bool                  `json:"hasDiary"`
	TotalDurationSeconds float64               `json:"totalDurationSeconds"`
}

// Calendar returns the user's most recent days, newest first.
// A non-positive limit uses the configured calendar limit.
func (s *Service) Calendar(ctx context.Context, userID string, limit int) ([]CalendarDay, error) {
	if limit <= 0 {
		limit = s.calendarLimit
	}
	rows, err := s.stores.Summaries.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing daily summaries: %w", err)
	}

	days := make([]CalendarDay, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		day := CalendarDay{
			Date:                 r.Date.Format(DateLayout),
			HasDiary:             r.FormattedText != nil && *r.FormattedText != "",
			TotalDurationSeconds: r.TotalDurationSeconds,
		}
		if e, ok := r.Emotions(); ok {
			day.Emotions = &e
			day.Glyph = e.DominantEmotion.Glyph()
			day.Label = e.DominantEmotion.LocalizedName()
		}
		days = append(days, day)
	}
	return days, nil
}

// MoodReport is the result of mood period detection.
type MoodReport struct {
	Periods  []mood.Period `json:"periods"`
	Outliers []mood.Day    `json:"outliers"`
	Text     string        `json:"text"`
}

// MoodPeriods clusters the user's recent days into mood periods.
func (s *Service) MoodPeriods(ctx context.Context, userID string, limit int) (*MoodReport, error) {
	if limit <= 0 {
		limit = s.calendarLimit
	}
	rows, err := s.stores.Summaries.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing daily summaries: %w", err)
	}

	days := make([]mood.Day, len(rows))
	for i := range rows {
		days[i] = moodDay(&rows[i])
	}
	periods, outliers, err := mood.DetectPeriods(days, s.moodCfg)
	if err != nil {
		return nil, fmt.Errorf("detecting mood periods: %w", err)
	}
	return &MoodReport{
		Periods:  periods,
		Outliers: outliers,
		Text:     mood.FormatPeriodSummary(periods, outliers),
	}, nil
}

func moodDay(r *db.DailySummary) mood.Day {
	d := mood.Day{Date: r.Date}
	if e, ok := r.Emotions(); ok {
		vad := e.Average()
		d.VAD = &vad
		d.Dominant = e.DominantEmotion
		d.Recordings = e.TotalRecordings
	}
	return d
}

// RefreshOutcome is the result of refreshing one day.
type RefreshOutcome struct {
	Date     string                `json:"date"`
	Emotions *emotion.DailySummary `json:"emotions,omitempty"`
	Err      error                 `json:"-"`
}

// RefreshRange recomputes the stored aggregate for every day in [from, to]
// using a worker pool. Per-day errors, including ErrNoEmotionData, are
// reported in the outcome rather than failing the batch. Results are in
// date order.
func (s *Service) RefreshRange(ctx context.Context, userID string, from, to time.Time) ([]RefreshOutcome, error) {
	from, to = s.DateOf(from), s.DateOf(to)
	if to.Before(from) {
		return nil, fmt.Errorf("refresh range: end %s before start %s", to.Format(DateLayout), from.Format(DateLayout))
	}

	var dates []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	results := make([]RefreshOutcome, len(dates))

	type workItem struct {
		index int
		date  time.Time
	}
	workCh := make(chan workItem, len(dates))
	for i, d := range dates {
		workCh <- workItem{index: i, date: d}
	}
	close(workCh)

	var wg sync.WaitGroup
	for i := 0; i < s.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for work := range workCh {
				outcome := RefreshOutcome{Date: work.date.Format(DateLayout)}
				if err := ctx.Err(); err != nil {
					outcome.Err = err
					results[work.index] = outcome
					continue
				}

				summary, err := s.RefreshDailyEmotions(ctx, userID, work.date)
				if err != nil {
					outcome.Err = err
				} else {
					outcome.Emotions = &summary
				}
				results[work.index] = outcome
			}
		}()
	}

	wg.Wait()

	if ctx.Err() != nil {
		return results, ctx.Err()
	}
	return results, nil
}
