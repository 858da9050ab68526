// Package db provides PostgreSQL database access for the voice diary.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Common errors.
var (
	ErrNotFound = errors.New("not found")
)

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// New creates a new database connection pool.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the database connection pool.
func (db *DB) Close() {
	db.pool.Close()
}

// Pool returns the underlying connection pool for advanced operations.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Recordings returns a RecordingRepository.
func (db *DB) Recordings() *RecordingRepository {
	return &RecordingRepository{pool: db.pool}
}

// Analyses returns an AnalysisRepository.
func (db *DB) Analyses() *AnalysisRepository {
	return &AnalysisRepository{pool: db.pool}
}

// Summaries returns a SummaryRepository.
func (db *DB) Summaries() *SummaryRepository {
	return &SummaryRepository{pool: db.pool}
}

// Dialogue returns a DialogueRepository.
func (db *DB) Dialogue() *DialogueRepository {
	return &DialogueRepository{pool: db.pool}
}
