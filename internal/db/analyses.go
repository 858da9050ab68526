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

// AnalysisRepository handles emotion analysis database operations.
type AnalysisRepository struct {
	pool *pgxpool.Pool
}

// Save inserts or replaces the analysis for a recording.
func (r *AnalysisRepository) Save(ctx context.Context, a *EmotionAnalysis) error {
	query := `
		INSERT INTO emotion_analysis_results (
			id, recording_id, user_id, segments, total_segments,
			avg_arousal, avg_valence, avg_dominance, dominant_emotion, archive_key,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		ON CONFLICT (recording_id) DO UPDATE SET
			segments = EXCLUDED.segments,
			total_segments = EXCLUDED.total_segments,
			avg_arousal = EXCLUDED.avg_arousal,
			avg_valence = EXCLUDED.avg_valence,
			avg_dominance = EXCLUDED.avg_dominance,
			dominant_emotion = EXCLUDED.dominant_emotion,
			archive_key = EXCLUDED.archive_key,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	segments := a.Segments
	if segments == nil {
		segments = []emotion.Segment{}
	}
	err := r.pool.QueryRow(ctx, query,
		a.ID,
		a.RecordingID,
		a.UserID,
		segments,
		a.TotalSegments,
		a.AvgArousal,
		a.AvgValence,
		a.AvgDominance,
		string(a.DominantEmotion),
		a.ArchiveKey,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving emotion analysis: %w", err)
	}
	return nil
}

const analysisColumns = `
	a.id, a.recording_id, a.user_id, a.segments, a.total_segments,
	a.avg_arousal, a.avg_valence, a.avg_dominance, a.dominant_emotion, a.archive_key,
	a.created_at, a.updated_at
`

func scanAnalysis(row pgx.Row) (*EmotionAnalysis, error) {
	var a EmotionAnalysis
	var dominant string
	if err := row.Scan(
		&a.ID,
		&a.RecordingID,
		&a.UserID,
		&a.Segments,
		&a.TotalSegments,
		&a.AvgArousal,
		&a.AvgValence,
		&a.AvgDominance,
		&dominant,
		&a.ArchiveKey,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.DominantEmotion, _ = emotion.ParseEmotion(dominant)
	return &a, nil
}

// GetByRecording retrieves the analysis of one recording.
func (r *AnalysisRepository) GetByRecording(ctx context.Context, recordingID uuid.UUID) (*EmotionAnalysis, error) {
	query := `SELECT ` + analysisColumns + `
		FROM emotion_analysis_results a
		WHERE a.recording_id = $1
	`
	a, err := scanAnalysis(r.pool.QueryRow(ctx, query, recordingID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying emotion analysis: %w", err)
	}
	return a, nil
}

// ListBetween returns a user's analyses whose recordings were created in
// [start, end), oldest recording first.
func (r *AnalysisRepository) ListBetween(ctx context.Context, userID string, start, end time.Time) ([]EmotionAnalysis, error) {
	query := `SELECT ` + analysisColumns + `
		FROM emotion_analysis_results a
		JOIN voice_recordings v ON v.id = a.recording_id
		WHERE a.user_id = $1 AND v.created_at >= $2 AND v.created_at < $3
		ORDER BY v.created_at
	`
	rows, err := r.pool.Query(ctx, query, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying emotion analyses: %w", err)
	}
	defer rows.Close()

	var out []EmotionAnalysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning emotion analysis: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}
