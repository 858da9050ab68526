package diary

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/justestif/go-voice-diary/internal/db"
	"github.com/justestif/go-voice-diary/internal/emotion"
	"github.com/justestif/go-voice-diary/internal/openai"
)

var (
	diaryOptions   = openai.CompletionOptions{Temperature: 0.7, MaxTokens: 400}
	insightOptions = openai.CompletionOptions{Temperature: 0.7, MaxTokens: 300}
)

// Summary is a generated diary entry.
type Summary struct {
	Date     string                `json:"date"`
	Diary    string                `json:"diarySummary"`
	Insights string                `json:"aiInsights"`
	Emotions *emotion.DailySummary `json:"emotionSummary"`
}

// GenerateSummary writes the day's diary entry and emotional insight from
// its dialogue and voice aggregate, and stores both. The diary prompt leaves
// out a trailing assistant turn; the insight prompt sees the whole
// conversation. A day without voice data gets an insight prompt that says
// so rather than one built from neutral values.
func (s *Service) GenerateSummary(ctx context.Context, userID string, date time.Time) (*Summary, error) {
	if s.chat == nil {
		return nil, fmt.Errorf("%w: chat model", ErrNotConfigured)
	}
	log := s.log.WithFields(logrus.Fields{"user_id": userID, "date": date.Format(DateLayout)})

	history, err := s.stores.Dialogue.History(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("loading dialogue: %w", err)
	}

	var transcription string
	stored, err := s.stores.Summaries.Get(ctx, userID, date)
	switch {
	case errors.Is(err, db.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("loading daily summary: %w", err)
	case stored.TranscriptionText != nil:
		transcription = *stored.TranscriptionText
	}

	if len(history) == 0 && transcription == "" {
		return nil, ErrNoDiaryData
	}

	var emotions *emotion.DailySummary
	var assessment *emotion.Assessment
	agg, err := s.DailyEmotions(ctx, userID, date)
	switch {
	case errors.Is(err, ErrNoEmotionData):
	case err != nil:
		return nil, err
	default:
		a := s.classifier.Assess(agg.Average())
		emotions, assessment = &agg, &a
	}

	forDiary := history
	if n := len(forDiary); n > 0 && forDiary[n-1].Role == db.RoleAssistant {
		forDiary = forDiary[:n-1]
	}
	diaryText := conversationText(forDiary)
	if diaryText == "" {
		diaryText = transcription
	}
	fullText := conversationText(history)
	if fullText == "" {
		fullText = transcription
	}

	var (
		wg                   sync.WaitGroup
		diary, insights      string
		diaryErr, insightErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		diary, diaryErr = s.complete(ctx, "diary", diaryPrompt(diaryText), diaryOptions)
	}()
	go func() {
		defer wg.Done()
		insights, insightErr = s.complete(ctx, "insight", insightPrompt(fullText, emotions, assessment), insightOptions)
	}()
	wg.Wait()

	if diaryErr != nil {
		return nil, fmt.Errorf("generating diary: %w", diaryErr)
	}
	if insightErr != nil {
		return nil, fmt.Errorf("generating insights: %w", insightErr)
	}

	if err := s.stores.Summaries.UpdateGenerated(ctx, userID, date, diary, insights); err != nil {
		return nil, fmt.Errorf("storing generated summary: %w", err)
	}

	log.WithField("has_voice_data", emotions != nil).Info("diary summary generated")
	return &Summary{
		Date:     date.Format(DateLayout),
		Diary:    diary,
		Insights: insights,
		Emotions: emotions,
	}, nil
}

func (s *Service) complete(ctx context.Context, op, prompt string, opts openai.CompletionOptions) (string, error) {
	start := time.Now()
	out, err := s.chat.Complete(ctx, []openai.Message{{Role: openai.RoleUser, Content: prompt}}, opts)
	s.observe("openai", op, start, err)
	return out, err
}
