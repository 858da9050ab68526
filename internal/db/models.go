package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/justestif/go-voice-diary/internal/emotion"
)

// Recording is one uploaded voice memo.
type Recording struct {
	ID              uuid.UUID
	UserID          string
	FilePath        string   // object storage key
	DurationSeconds *float64 // nullable
	CreatedAt       time.Time
}

// EmotionAnalysis is the stored analyzer output for one recording.
type EmotionAnalysis struct {
	ID              uuid.UUID
	RecordingID     uuid.UUID
	UserID          string
	Segments        []emotion.Segment // jsonb
	TotalSegments   int
	AvgArousal      float64
	AvgValence      float64
	AvgDominance    float64
	DominantEmotion emotion.Emotion
	ArchiveKey      *string // nullable, raw payload in object storage
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Result converts the row into the aggregator's input type.
func (a *EmotionAnalysis) Result() emotion.AnalysisResult {
	return emotion.AnalysisResult{
		RecordingID:     a.RecordingID.String(),
		UserID:          a.UserID,
		Segments:        a.Segments,
		TotalSegments:   a.TotalSegments,
		AvgArousal:      a.AvgArousal,
		AvgValence:      a.AvgValence,
		AvgDominance:    a.AvgDominance,
		DominantEmotion: a.DominantEmotion,
	}
}

// DailySummary is the stored diary entry for one (user, date).
// Emotion columns are nil until an aggregate exists for the day.
type DailySummary struct {
	ID                   uuid.UUID
	UserID               string
	Date                 time.Time
	TranscriptionText    *string
	FormattedText        *string
	AvgArousal           *float64
	AvgValence           *float64
	AvgDominance         *float64
	DominantEmotion      *emotion.Emotion
	EmotionDistribution  map[emotion.Emotion]int // jsonb
	TotalRecordings      int
	TotalDurationSeconds float64
	AIInsights           *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Emotions returns the stored aggregate, or false when the day has none.
func (s *DailySummary) Emotions() (emotion.DailySummary, bool) {
	if s.AvgArousal == nil || s.AvgValence == nil || s.AvgDominance == nil || s.DominantEmotion == nil {
		return emotion.DailySummary{}, false
	}
	dist := s.EmotionDistribution
	if dist == nil {
		dist = make(map[emotion.Emotion]int)
	}
	return emotion.DailySummary{
		AvgArousal:          *s.AvgArousal,
		AvgValence:          *s.AvgValence,
		AvgDominance:        *s.AvgDominance,
		DominantEmotion:     *s.DominantEmotion,
		EmotionDistribution: dist,
		TotalRecordings:     s.TotalRecordings,
	}, true
}

// Dialogue roles and input types.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	InputVoice = "voice"
	InputText  = "text"
)

// DialogueTurn is one message in a day's conversation.
type DialogueTurn struct {
	ID          uuid.UUID
	UserID      string
	Date        time.Time
	Role        string
	Content     string
	InputType   string
	RecordingID *uuid.UUID // nullable
	OrderIndex  int
	CreatedAt   time.Time
}
