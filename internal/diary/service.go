// Package diary implements the voice diary workflows: recording ingestion,
// daily emotion summaries, chat replies and generated diary entries.
package diary

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/justestif/go-voice-diary/internal/analyzer"
	"github.com/justestif/go-voice-diary/internal/db"
	"github.com/justestif/go-voice-diary/internal/emotion"
	"github.com/justestif/go-voice-diary/internal/logging"
	"github.com/justestif/go-voice-diary/internal/metrics"
	"github.com/justestif/go-voice-diary/internal/mood"
	"github.com/justestif/go-voice-diary/internal/openai"
)

// DateLayout is the wire and cache format of a diary date.
const DateLayout = "2006-01-02"

// Defaults for product rules.
const (
	DefaultDailyLimit    = 5
	DefaultCalendarLimit = 30
	DefaultConcurrency   = 4
)

var (
	// ErrNoEmotionData means no analysed recording exists for the day.
	ErrNoEmotionData = errors.New("no emotion data for this day")

	// ErrNoDiaryData means the day has neither dialogue nor transcription.
	ErrNoDiaryData = errors.New("no diary data for this day")

	// ErrRecordingLimit means the user already reached the daily recording limit.
	ErrRecordingLimit = errors.New("daily recording limit reached")

	// ErrNotConfigured means a dependency needed by the operation was not provided.
	ErrNotConfigured = errors.New("dependency not configured")
)

// RecordingStore persists recordings.
type RecordingStore interface {
	Create(ctx context.Context, rec *db.Recording) error
	Get(ctx context.Context, id uuid.UUID) (*db.Recording, error)
	CountBetween(ctx context.Context, userID string, start, end time.Time) (int, error)
	TotalDurationBetween(ctx context.Context, userID string, start, end time.Time) (float64, error)
}

// AnalysisStore persists per-recording emotion analyses.
type AnalysisStore interface {
	Save(ctx context.Context, a *db.EmotionAnalysis) error
	GetByRecording(ctx context.Context, recordingID uuid.UUID) (*db.EmotionAnalysis, error)
	ListBetween(ctx context.Context, userID string, start, end time.Time) ([]db.EmotionAnalysis, error)
}

// SummaryStore persists daily summaries.
type SummaryStore interface {
	UpsertEmotions(ctx context.Context, userID string, date time.Time, s emotion.DailySummary) error
	UpsertActivity(ctx context.Context, userID string, date time.Time, transcription string, totalDuration float64) error
	UpdateGenerated(ctx context.Context, userID string, date time.Time, formatted, insights string) error
	Get(ctx context.Context, userID string, date time.Time) (*db.DailySummary, error)
	ListForUser(ctx context.Context, userID string, limit int) ([]db.DailySummary, error)
}

// DialogueStore persists the day's conversation.
type DialogueStore interface {
	Append(ctx context.Context, turn *db.DialogueTurn) error
	History(ctx context.Context, userID string, date time.Time) ([]db.DialogueTurn, error)
}

// Stores groups the repositories the service needs.
type Stores struct {
	Recordings RecordingStore
	Analyses   AnalysisStore
	Summaries  SummaryStore
	Dialogue   DialogueStore
}

// StoresFromDB returns the PostgreSQL repositories.
func StoresFromDB(d *db.DB) Stores {
	return Stores{
		Recordings: d.Recordings(),
		Analyses:   d.Analyses(),
		Summaries:  d.Summaries(),
		Dialogue:   d.Dialogue(),
	}
}

// Transcriber turns audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// ChatModel generates text from a conversation.
type ChatModel interface {
	Complete(ctx context.Context, messages []openai.Message, opts openai.CompletionOptions) (string, error)
}

// Analyzer scores audio with the VAD model.
type Analyzer interface {
	Analyze(ctx context.Context, audio []byte, filename string) (*analyzer.Response, error)
}

// AudioStore keeps recording audio and raw analyzer payloads.
type AudioStore interface {
	PutRecording(ctx context.Context, key string, audio []byte, contentType string) error
	ArchiveAnalysis(ctx context.Context, key string, raw []byte) error
}

// SummaryCache caches computed daily aggregates.
type SummaryCache interface {
	Get(ctx context.Context, userID, date string) (emotion.DailySummary, bool, error)
	Set(ctx context.Context, userID, date string, s emotion.DailySummary) error
	Invalidate(ctx context.Context, userID, date string) error
}

// Service coordinates the diary workflows.
type Service struct {
	stores      Stores
	transcriber Transcriber
	chat        ChatModel
	analyzer    Analyzer
	audio       AudioStore
	cache       SummaryCache
	metrics     *metrics.Manager
	log         logrus.FieldLogger
	classifier  *emotion.Classifier
	loc         *time.Location
	now         func() time.Time

	dailyLimit    int
	calendarLimit int
	concurrency   int
	moodCfg       mood.Config
}

// Option configures a Service.
type Option func(*Service)

// WithTranscriber sets the speech-to-text backend.
func WithTranscriber(t Transcriber) Option {
	return func(s *Service) { s.transcriber = t }
}

// WithChatModel sets the text generation backend.
func WithChatModel(c ChatModel) Option {
	return func(s *Service) { s.chat = c }
}

// WithAnalyzer sets the VAD analysis backend.
func WithAnalyzer(a Analyzer) Option {
	return func(s *Service) { s.analyzer = a }
}

// WithAudioStore sets object storage for audio and analysis archives.
func WithAudioStore(a AudioStore) Option {
	return func(s *Service) { s.audio = a }
}

// WithCache sets the daily aggregate cache.
func WithCache(c SummaryCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithMetrics sets the metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClassifier sets the classifier used for labels and assessments.
func WithClassifier(c *emotion.Classifier) Option {
	return func(s *Service) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithLocation sets the time zone that defines diary days.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithDailyLimit sets the number of recordings allowed per day.
func WithDailyLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.dailyLimit = n
		}
	}
}

// WithCalendarLimit sets the default number of calendar days returned.
func WithCalendarLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.calendarLimit = n
		}
	}
}

// WithConcurrency sets the number of days refreshed in parallel by RefreshRange.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithMoodConfig sets mood period clustering parameters.
func WithMoodConfig(cfg mood.Config) Option {
	return func(s *Service) { s.moodCfg = cfg }
}

// New creates a diary service.
func New(stores Stores, opts ...Option) *Service {
	s := &Service{
		stores:        stores,
		log:           logging.Discard(),
		classifier:    emotion.Default,
		loc:           time.UTC,
		now:           time.Now,
		dailyLimit:    DefaultDailyLimit,
		calendarLimit: DefaultCalendarLimit,
		concurrency:   DefaultConcurrency,
		moodCfg:       mood.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.moodCfg.Classifier == nil {
		s.moodCfg.Classifier = s.classifier
	}
	return s
}

// Location returns the diary time zone.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Today returns the current diary date.
func (s *Service) Today() time.Time {
	return s.DateOf(s.now())
}

// DateOf returns the diary date containing t, as midnight UTC.
func (s *Service) DateOf(t time.Time) time.Time {
	y, m, d := t.In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD diary date.
func (s *Service) ParseDate(v string) (time.Time, error) {
	return time.Parse(DateLayout, v)
}

// bounds returns the half-open instant range [start, end) covered by date.
func (s *Service) bounds(date time.Time) (time.Time, time.Time) {
	y, m, d := date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, s.loc)
	return start, start.AddDate(0, 0, 1)
}

// observe records an external call's latency.
func (s *Service) observe(client, op string, start time.Time, err error) {
	s.metrics.ObserveExternalCall(client, op, time.Since(start), err)
}
