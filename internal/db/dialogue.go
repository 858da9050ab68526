package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DialogueRepository handles dialogue turn database operations.
type DialogueRepository struct {
	pool *pgxpool.Pool
}

// Append stores a turn at the end of the (user, date) conversation and sets
// its OrderIndex. Concurrent appends for the same day are serialised with a
// transaction-scoped advisory lock.
func (r *DialogueRepository) Append(ctx context.Context, turn *DialogueTurn) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	day := turn.Date.Format("2006-01-02")
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, turn.UserID+"/"+day); err != nil {
		return fmt.Errorf("locking dialogue: %w", err)
	}

	var next int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(order_index) + 1, 0) FROM dialogue_turns WHERE user_id = $1 AND date = $2`,
		turn.UserID, turn.Date,
	).Scan(&next)
	if err != nil {
		return fmt.Errorf("querying next order index: %w", err)
	}

	if turn.ID == uuid.Nil {
		turn.ID = uuid.New()
	}
	query := `
		INSERT INTO dialogue_turns (id, user_id, date, role, content, input_type, recording_id, order_index, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING created_at
	`
	err = tx.QueryRow(ctx, query,
		turn.ID,
		turn.UserID,
		turn.Date,
		turn.Role,
		turn.Content,
		turn.InputType,
		turn.RecordingID,
		next,
	).Scan(&turn.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting dialogue turn: %w", err)
	}
	turn.OrderIndex = next

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// History returns the (user, date) conversation in order.
func (r *DialogueRepository) History(ctx context.Context, userID string, date time.Time) ([]DialogueTurn, error) {
	query := `
		SELECT id, user_id, date, role, content, input_type, recording_id, order_index, created_at
		FROM dialogue_turns
		WHERE user_id = $1 AND date = $2
		ORDER BY order_index
	`
	rows, err := r.pool.Query(ctx, query, userID, date)
	if err != nil {
		return nil, fmt.Errorf("querying dialogue turns: %w", err)
	}
	defer rows.Close()

	var turns []DialogueTurn
	for rows.Next() {
		var t DialogueTurn
		if err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.Date,
			&t.Role,
			&t.Content,
			&t.InputType,
			&t.RecordingID,
			&t.OrderIndex,
			&t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning dialogue turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
