package diary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/justestif/go-voice-diary/internal/analyzer"
	"github.com/justestif/go-voice-diary/internal/db"
	"github.com/justestif/go-voice-diary/internal/emotion"
	"github.com/justestif/go-voice-diary/internal/storage"
)

// Recording outcomes reported to metrics.
const (
	outcomeOK         = "ok"
	outcomeUnanalyzed = "unanalyzed"
	outcomeLimit      = "limit"
	outcomeError      = "error"
)

// RecordingInput is one uploaded voice memo.
type RecordingInput struct {
	Audio       []byte
	Filename    string
	ContentType string
	Duration    *float64 // seconds, if known by the client
}

// RecordingResult is the outcome of ProcessRecording.
type RecordingResult struct {
	RecordingID   uuid.UUID               `json:"recordingId"`
	Date          string                  `json:"date"`
	Transcription string                  `json:"transcription"`
	Analysis      *emotion.AnalysisResult `json:"analysis,omitempty"`
	Assessment    *emotion.Assessment     `json:"assessment,omitempty"`
	Quarantined   int                     `json:"quarantinedSegments"`
	Quota         Quota                   `json:"quota"`
}

// Quota reports how many recordings remain for a day.
type Quota struct {
	CanRecord bool `json:"canRecord"`
	Remaining int  `json:"remaining"`
	Used      int  `json:"used"`
	Limit     int  `json:"limit"`
}

// RecordingQuota reports the recording allowance for the day containing now.
func (s *Service) RecordingQuota(ctx context.Context, userID string, now time.Time) (Quota, error) {
	start, end := s.bounds(s.DateOf(now))
	used, err := s.stores.Recordings.CountBetween(ctx, userID, start, end)
	if err != nil {
		return Quota{}, fmt.Errorf("counting recordings: %w", err)
	}
	return s.quota(used), nil
}

func (s *Service) quota(used int) Quota {
	remaining := max(s.dailyLimit-used, 0)
	return Quota{
		CanRecord: remaining > 0,
		Remaining: remaining,
		Used:      used,
		Limit:     s.dailyLimit,
	}
}

// ProcessRecording stores, transcribes and analyses one recording, appends
// it to the day's dialogue and refreshes the daily summary.
//
// A failed emotion analysis does not fail the recording: the transcription
// is kept and the day simply has no voice data from it.
func (s *Service) ProcessRecording(ctx context.Context, userID string, in RecordingInput) (*RecordingResult, error) {
	if s.transcriber == nil {
		return nil, fmt.Errorf("%w: transcriber", ErrNotConfigured)
	}

	now := s.now()
	date := s.DateOf(now)
	log := s.log.WithFields(logrus.Fields{"user_id": userID, "date": date.Format(DateLayout)})

	quota, err := s.RecordingQuota(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if !quota.CanRecord {
		s.metrics.ObserveRecording(outcomeLimit)
		return nil, ErrRecordingLimit
	}

	result, err := s.processRecording(ctx, log, userID, date, in)
	if err != nil {
		s.metrics.ObserveRecording(outcomeError)
		return nil, err
	}
	result.Quota = s.quota(quota.Used + 1)

	if result.Analysis == nil {
		s.metrics.ObserveRecording(outcomeUnanalyzed)
	} else {
		s.metrics.ObserveRecording(outcomeOK)
	}
	return result, nil
}

func (s *Service) processRecording(ctx context.Context, log logrus.FieldLogger, userID string, date time.Time, in RecordingInput) (*RecordingResult, error) {
	rec := &db.Recording{
		ID:              uuid.New(),
		UserID:          userID,
		DurationSeconds: in.Duration,
	}
	rec.FilePath = storage.RecordingKey(userID, rec.ID.String(), in.Filename)
	filename := rec.ID.String() + extOf(rec.FilePath)
	log = log.WithField("recording_id", rec.ID)

	if s.audio != nil {
		start := time.Now()
		err := s.audio.PutRecording(ctx, rec.FilePath, in.Audio, in.ContentType)
		s.observe("storage", "put_recording", start, err)
		if err != nil {
			return nil, fmt.Errorf("storing audio: %w", err)
		}
	}

	if err := s.stores.Recordings.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("creating recording: %w", err)
	}

	start := time.Now()
	text, err := s.transcriber.Transcribe(ctx, in.Audio, filename)
	s.observe("openai", "transcribe", start, err)
	if err != nil {
		return nil, fmt.Errorf("transcribing recording: %w", err)
	}
	text = strings.TrimSpace(text)

	result := &RecordingResult{
		RecordingID:   rec.ID,
		Date:          date.Format(DateLayout),
		Transcription: text,
	}

	analysis, quarantined, err := s.analyzeRecording(ctx, userID, rec, in.Audio, filename)
	switch {
	case err != nil && ctx.Err() != nil:
		return nil, err
	case err != nil:
		log.WithError(err).Warn("emotion analysis failed, keeping transcription only")
	default:
		r := analysis.Result()
		a := s.classifier.Assess(r.Average())
		s.metrics.ObserveAssessment(a)
		result.Analysis = &r
		result.Assessment = &a
		result.Quarantined = quarantined
	}

	turn := &db.DialogueTurn{
		UserID:      userID,
		Date:        date,
		Role:        db.RoleUser,
		Content:     text,
		InputType:   db.InputVoice,
		RecordingID: &rec.ID,
	}
	if err := s.stores.Dialogue.Append(ctx, turn); err != nil {
		return nil, fmt.Errorf("saving voice turn: %w", err)
	}

	if err := s.refreshActivity(ctx, userID, date); err != nil {
		return nil, err
	}
	if _, err := s.RefreshDailyEmotions(ctx, userID, date); err != nil && !errors.Is(err, ErrNoEmotionData) {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"analyzed":    result.Analysis != nil,
		"quarantined": result.Quarantined,
	}).Info("recording processed")
	return result, nil
}

// analyzeRecording runs the VAD model, archives its raw payload and saves
// the validated analysis.
func (s *Service) analyzeRecording(ctx context.Context, userID string, rec *db.Recording, audio []byte, filename string) (*db.EmotionAnalysis, int, error) {
	if s.analyzer == nil {
		return nil, 0, fmt.Errorf("%w: analyzer", ErrNotConfigured)
	}

	start := time.Now()
	resp, err := s.analyzer.Analyze(ctx, audio, filename)
	s.observe("analyzer", "analyze", start, err)
	if err != nil {
		return nil, 0, err
	}

	ing, err := analyzer.Ingest(rec.ID.String(), userID, resp, s.classifier)
	if err != nil {
		return nil, 0, fmt.Errorf("ingesting analysis: %w", err)
	}
	s.metrics.ObserveQuarantined(ing.Quarantined)
	for _, seg := range ing.Result.Segments {
		if seg.Emotion.Valid() {
			s.metrics.ObserveClassification(seg.Emotion)
		}
	}

	a := &db.EmotionAnalysis{
		ID:              uuid.New(),
		RecordingID:     rec.ID,
		UserID:          userID,
		Segments:        ing.Result.Segments,
		TotalSegments:   ing.Result.TotalSegments,
		AvgArousal:      ing.Result.AvgArousal,
		AvgValence:      ing.Result.AvgValence,
		AvgDominance:    ing.Result.AvgDominance,
		DominantEmotion: ing.Result.DominantEmotion,
	}

	if s.audio != nil && len(resp.Body) > 0 {
		key := storage.AnalysisKey(userID, rec.ID.String())
		start := time.Now()
		err := s.audio.ArchiveAnalysis(ctx, key, resp.Body)
		s.observe("storage", "archive_analysis", start, err)
		if err != nil {
			s.log.WithError(err).WithField("recording_id", rec.ID).Warn("archiving analysis payload failed")
		} else {
			a.ArchiveKey = &key
		}
	}

	if err := s.stores.Analyses.Save(ctx, a); err != nil {
		return nil, 0, fmt.Errorf("saving analysis: %w", err)
	}
	return a, ing.Quarantined, nil
}

// refreshActivity recomputes the day's transcription text and total duration.
func (s *Service) refreshActivity(ctx context.Context, userID string, date time.Time) error {
	history, err := s.stores.Dialogue.History(ctx, userID, date)
	if err != nil {
		return fmt.Errorf("loading dialogue: %w", err)
	}

	start, end := s.bounds(date)
	total, err := s.stores.Recordings.TotalDurationBetween(ctx, userID, start, end)
	if err != nil {
		return fmt.Errorf("summing recording durations: %w", err)
	}

	if err := s.stores.Summaries.UpsertActivity(ctx, userID, date, transcriptionOf(history), total); err != nil {
		return fmt.Errorf("updating daily activity: %w", err)
	}
	return nil
}

// transcriptionOf joins the day's voice turns in order.
func transcriptionOf(history []db.DialogueTurn) string {
	var parts []string
	for _, t := range history {
		if t.Role == db.RoleUser && t.InputType == db.InputVoice && t.Content != "" {
			parts = append(parts, t.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

func extOf(key string) string {
	if i := strings.LastIndex(key, "."); i >= 0 {
		return key[i:]
	}
	return ""
}
