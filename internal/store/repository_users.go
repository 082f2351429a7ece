package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const userColumns = `id, fragments, data_shards, level, xp, lives, daily_streak, log_keys, created_at, updated_at`

// EnsureUser creates the economy and stats rows for a first-time user and
// returns the current row. The insert is ON CONFLICT DO NOTHING, so concurrent
// first syncs for the same user leave exactly one record.
func (s *Store) EnsureUser(ctx context.Context, userID string) (User, error) {
	if userID == "" {
		return User{}, errors.New("empty user id")
	}
	if _, err := s.Pool.Exec(ctx,
		`INSERT INTO users (id, fragments, lives) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
		userID, s.seed.Fragments, s.seed.Lives,
	); err != nil {
		return User{}, err
	}
	if _, err := s.Pool.Exec(ctx,
		`INSERT INTO user_stats (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
		userID,
	); err != nil {
		return User{}, err
	}
	return s.GetUser(ctx, userID)
}

func (s *Store) GetUser(ctx context.Context, userID string) (User, error) {
	var u User
	err := s.Pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, userID,
	).Scan(
		&u.ID, &u.Fragments, &u.DataShards, &u.Level, &u.XP,
		&u.Lives, &u.DailyStreak, &u.LogKeys, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return User{}, mapNotFound(err)
	}
	return u, nil
}

func (s *Store) ReadStats(ctx context.Context, userID string) (UserStats, error) {
	var st UserStats
	err := s.Pool.QueryRow(ctx,
		`SELECT user_id, messages_sent, commands_used, music_tracks_played,
		        games_completed, ai_conversations, voice_minutes, total_sessions
		 FROM user_stats WHERE user_id = $1`, userID,
	).Scan(
		&st.UserID, &st.MessagesSent, &st.CommandsUsed, &st.MusicTracksPlayed,
		&st.GamesCompleted, &st.AIConversations, &st.VoiceMinutes, &st.TotalSessions,
	)
	if err != nil {
		return UserStats{}, mapNotFound(err)
	}
	return st, nil
}

// WriteEconomy applies a partial update to the economy row.
func (s *Store) WriteEconomy(ctx context.Context, userID string, upd EconomyUpdate) error {
	sets := make([]string, 0, 7)
	args := []any{userID}
	add := func(col string, v *int64) {
		if v == nil {
			return
		}
		args = append(args, *v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("fragments", upd.Fragments)
	add("data_shards", upd.DataShards)
	add("level", upd.Level)
	add("xp", upd.XP)
	add("lives", upd.Lives)
	add("daily_streak", upd.DailyStreak)
	add("log_keys", upd.LogKeys)
	if len(sets) == 0 {
		return nil
	}
	q := "UPDATE users SET " + strings.Join(sets, ", ") + ", updated_at = now() WHERE id = $1"
	ct, err := s.Pool.Exec(ctx, q, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var economyCounterColumns = map[string]struct{}{
	"fragments":    {},
	"data_shards":  {},
	"xp":           {},
	"lives":        {},
	"daily_streak": {},
	"log_keys":     {},
}

var statColumns = map[string]struct{}{
	"messages_sent":       {},
	"commands_used":       {},
	"music_tracks_played": {},
	"games_completed":     {},
	"ai_conversations":    {},
	"voice_minutes":       {},
	"total_sessions":      {},
}

// IncrementEconomy atomically adds amount to an allowlisted economy column.
func (s *Store) IncrementEconomy(ctx context.Context, userID, field string, amount int64) error {
	if _, ok := economyCounterColumns[field]; !ok {
		return fmt.Errorf("unknown economy field %q", field)
	}
	q := fmt.Sprintf("UPDATE users SET %s = %s + $2, updated_at = now() WHERE id = $1", field, field)
	ct, err := s.Pool.Exec(ctx, q, userID, amount)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementStat atomically adds amount to an allowlisted stats column.
// Incrementing a user that has no stats row yet is a no-op.
func (s *Store) IncrementStat(ctx context.Context, userID, stat string, amount int64) error {
	if _, ok := statColumns[stat]; !ok {
		return fmt.Errorf("unknown stat %q", stat)
	}
	q := fmt.Sprintf("UPDATE user_stats SET %s = %s + $2 WHERE user_id = $1", stat, stat)
	_, err := s.Pool.Exec(ctx, q, userID, amount)
	return err
}
