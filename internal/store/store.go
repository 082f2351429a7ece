package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

// Seed holds the starting economy for rows created on first contact.
type Seed struct {
	Fragments int64
	Lives     int64
}

// Store wraps DB access. It is the only writer of durable state; the in-memory
// snapshot cache upstream is never authoritative.
type Store struct {
	Pool *pgxpool.Pool
	seed Seed
}

func New(dsn string, seed Seed) (*Store, error) {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool, seed: seed}, nil
}

func (s *Store) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Pool.Ping(ctx)
}

// Bootstrap creates the schema if it does not exist yet.
func (s *Store) Bootstrap(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			fragments BIGINT NOT NULL DEFAULT 0,
			data_shards BIGINT NOT NULL DEFAULT 0,
			level BIGINT NOT NULL DEFAULT 1,
			xp BIGINT NOT NULL DEFAULT 0,
			lives BIGINT NOT NULL DEFAULT 0,
			daily_streak BIGINT NOT NULL DEFAULT 0,
			log_keys BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS user_stats (
			user_id TEXT PRIMARY KEY REFERENCES users(id),
			messages_sent BIGINT NOT NULL DEFAULT 0,
			commands_used BIGINT NOT NULL DEFAULT 0,
			music_tracks_played BIGINT NOT NULL DEFAULT 0,
			games_completed BIGINT NOT NULL DEFAULT 0,
			ai_conversations BIGINT NOT NULL DEFAULT 0,
			voice_minutes BIGINT NOT NULL DEFAULT 0,
			total_sessions BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS user_achievements (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			achievement_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			icon TEXT NOT NULL DEFAULT '',
			earned_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (user_id, achievement_id)
		)`,
		`CREATE TABLE IF NOT EXISTS audit_log (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			payload JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, q := range ddl {
		if _, err := s.Pool.Exec(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func mapNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
