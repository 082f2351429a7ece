package usersync

import (
	"context"

	"nexus-activity/internal/store"
)

// UserStore is the slice of the durable store the sync layer consumes.
// *store.Store satisfies it; tests use the in-memory fake in internal/testutil.
type UserStore interface {
	// EnsureUser creates a default record on first contact and returns the
	// current row. Must be idempotent under concurrent calls.
	EnsureUser(ctx context.Context, userID string) (store.User, error)
	ReadStats(ctx context.Context, userID string) (store.UserStats, error)
	ReadAchievements(ctx context.Context, userID string) ([]store.Achievement, error)
	WriteEconomy(ctx context.Context, userID string, upd store.EconomyUpdate) error
	AwardAchievement(ctx context.Context, userID string, def store.AchievementDef) (bool, error)
	IncrementStat(ctx context.Context, userID, stat string, amount int64) error
	AppendAuditLog(ctx context.Context, userID, kind string, payload map[string]any) error
}
