package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RecordingRepository handles voice recording database operations.
type RecordingRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a new recording. A zero ID is replaced with a new UUID.
func (r *RecordingRepository) Create(ctx context.Context, rec *Recording) error {
	query := `
		INSERT INTO voice_recordings (id, user_id, file_path, duration_seconds, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))
		RETURNING created_at
	`
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	var createdAt *time.Time
	if !rec.CreatedAt.IsZero() {
		createdAt = &rec.CreatedAt
	}
	err := r.pool.QueryRow(ctx, query,
		rec.ID,
		rec.UserID,
		rec.FilePath,
		rec.DurationSeconds,
		createdAt,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting recording: %w", err)
	}
	return nil
}

// Get retrieves a recording by ID.
func (r *RecordingRepository) Get(ctx context.Context, id uuid.UUID) (*Recording, error) {
	query := `
		SELECT id, user_id, file_path, duration_seconds, created_at
		FROM voice_recordings
		WHERE id = $1
	`
	var rec Recording
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID,
		&rec.UserID,
		&rec.FilePath,
		&rec.DurationSeconds,
		&rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying recording: %w", err)
	}
	return &rec, nil
}

// CountBetween returns how many recordings a user created in [start, end).
func (r *RecordingRepository) CountBetween(ctx context.Context, userID string, start, end time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM voice_recordings
		WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
	`
	var count int
	if err := r.pool.QueryRow(ctx, query, userID, start, end).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting recordings: %w", err)
	}
	return count, nil
}

// TotalDurationBetween sums recording durations in [start, end).
func (r *RecordingRepository) TotalDurationBetween(ctx context.Context, userID string, start, end time.Time) (float64, error) {
	query := `
		SELECT COALESCE(SUM(duration_seconds), 0) FROM voice_recordings
		WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
	`
	var total float64
	if err := r.pool.QueryRow(ctx, query, userID, start, end).Scan(&total); err != nil {
		return 0, fmt.Errorf("summing recording durations: %w", err)
	}
	return total, nil
}
