package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/justestif/go-voice-diary/internal/emotion"
)

// DefaultSummaryListLimit bounds ListForUser when no limit is given.
const DefaultSummaryListLimit = 30

// SummaryRepository handles daily summary database operations.
// Every write upserts on (user_id, date) so partial updates can arrive in any order.
type SummaryRepository struct {
	pool *pgxpool.Pool
}

// UpsertEmotions stores the day's aggregate.
func (r *SummaryRepository) UpsertEmotions(ctx context.Context, userID string, date time.Time, s emotion.DailySummary) error {
	query := `
		INSERT INTO daily_summaries (
			id, user_id, date, avg_arousal, avg_valence, avg_dominance,
			dominant_emotion, emotion_distribution, total_recordings, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		ON CONFLICT (user_id, date) DO UPDATE SET
			avg_arousal = EXCLUDED.avg_arousal,
			avg_valence = EXCLUDED.avg_valence,
			avg_dominance = EXCLUDED.avg_dominance,
			dominant_emotion = EXCLUDED.dominant_emotion,
			emotion_distribution = EXCLUDED.emotion_distribution,
			total_recordings = EXCLUDED.total_recordings,
			updated_at = NOW()
	`
	dist := s.EmotionDistribution
	if dist == nil {
		dist = map[emotion.Emotion]int{}
	}
	_, err := r.pool.Exec(ctx, query,
		uuid.New(),
		userID,
		date,
		s.AvgArousal,
		s.AvgValence,
		s.AvgDominance,
		string(s.DominantEmotion),
		dist,
		s.TotalRecordings,
	)
	if err != nil {
		return fmt.Errorf("upserting summary emotions: %w", err)
	}
	return nil
}

// UpsertActivity stores the day's concatenated transcription and total recorded time.
func (r *SummaryRepository) UpsertActivity(ctx context.Context, userID string, date time.Time, transcription string, totalDuration float64) error {
	query := `
		INSERT INTO daily_summaries (id, user_id, date, transcription_text, total_duration_seconds, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (user_id, date) DO UPDATE SET
			transcription_text = EXCLUDED.transcription_text,
			total_duration_seconds = EXCLUDED.total_duration_seconds,
			updated_at = NOW()
	`
	_, err := r.pool.Exec(ctx, query, uuid.New(), userID, date, transcription, totalDuration)
	if err != nil {
		return fmt.Errorf("upserting summary activity: %w", err)
	}
	return nil
}

// UpdateGenerated stores the generated diary text and insights.
func (r *SummaryRepository) UpdateGenerated(ctx context.Context, userID string, date time.Time, formatted, insights string) error {
	query := `
		INSERT INTO daily_summaries (id, user_id, date, formatted_text, ai_insights, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (user_id, date) DO UPDATE SET
			formatted_text = EXCLUDED.formatted_text,
			ai_insights = EXCLUDED.ai_insights,
			updated_at = NOW()
	`
	_, err := r.pool.Exec(ctx, query, uuid.New(), userID, date, formatted, insights)
	if err != nil {
		return fmt.Errorf("updating generated summary: %w", err)
	}
	return nil
}

const summaryColumns = `
	id, user_id, date, transcription_text, formatted_text,
	avg_arousal, avg_valence, avg_dominance, dominant_emotion, emotion_distribution,
	total_recordings, total_duration_seconds, ai_insights, created_at, updated_at
`

func scanSummary(row pgx.Row) (*DailySummary, error) {
	var s DailySummary
	var dominant *string
	if err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Date,
		&s.TranscriptionText,
		&s.FormattedText,
		&s.AvgArousal,
		&s.AvgValence,
		&s.AvgDominance,
		&dominant,
		&s.EmotionDistribution,
		&s.TotalRecordings,
		&s.TotalDurationSeconds,
		&s.AIInsights,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if dominant != nil {
		if e, ok := emotion.ParseEmotion(*dominant); ok {
			s.DominantEmotion = &e
		}
	}
	return &s, nil
}

// Get retrieves the summary for one day.
func (r *SummaryRepository) Get(ctx context.Context, userID string, date time.Time) (*DailySummary, error) {
	query := `SELECT ` + summaryColumns + ` FROM daily_summaries WHERE user_id = $1 AND date = $2`
	s, err := scanSummary(r.pool.QueryRow(ctx, query, userID, date))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying daily summary: %w", err)
	}
	return s, nil
}

// ListForUser returns a user's most recent summaries, newest first.
// A non-positive limit uses DefaultSummaryListLimit.
func (r *SummaryRepository) ListForUser(ctx context.Context, userID string, limit int) ([]DailySummary, error) {
	if limit <= 0 {
		limit = DefaultSummaryListLimit
	}
	query := `SELECT ` + summaryColumns + `
		FROM daily_summaries
		WHERE user_id = $1
		ORDER BY date DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying daily summaries: %w", err)
	}
	defer rows.Close()

	var out []DailySummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning daily summary: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}
