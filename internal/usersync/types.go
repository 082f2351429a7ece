// Package usersync keeps active users' economy state fresh between stateless
// request handlers and the durable store.
//
// The snapshot cache and session registry are instance-local, best-effort
// optimizations: a new process starts cold and that is fine. The store remains
// the only source of truth, and no durable write is ever skipped because a
// cache entry exists.
package usersync

import "nexus-activity/internal/store"

// Snapshot provenance tags.
const (
	SourceCache     = "cache"
	SourceForceSync = "force_sync"
)

type Economy struct {
	Fragments   int64 `json:"fragments"`
	DataShards  int64 `json:"data_shards"`
	Level       int64 `json:"level"`
	XP          int64 `json:"xp"`
	Lives       int64 `json:"lives"`
	DailyStreak int64 `json:"daily_streak"`
	LogKeys     int64 `json:"log_keys"`
}

type Stats struct {
	MessagesSent      int64 `json:"messages_sent"`
	CommandsUsed      int64 `json:"commands_used"`
	MusicTracksPlayed int64 `json:"music_tracks_played"`
	GamesCompleted    int64 `json:"games_completed"`
	AIConversations   int64 `json:"ai_conversations"`
	VoiceMinutes      int64 `json:"voice_minutes"`
	TotalSessions     int64 `json:"total_sessions"`
}

// UserSnapshot is the unit cached and compared.
type UserSnapshot struct {
	UserID       string              `json:"user_id"`
	Economy      Economy             `json:"economy"`
	Stats        Stats               `json:"stats"`
	Achievements []store.Achievement `json:"achievements"`
	Quests       []string            `json:"quests,omitempty"`
	Source       string              `json:"source"`
}

// SyncResult is what handlers get back from a sync.
type SyncResult struct {
	Snapshot UserSnapshot `json:"snapshot"`
	Cached   bool         `json:"cached"`
	Source   string       `json:"source"`
	Changes  []string     `json:"changes,omitempty"`
}

type BatchOptions struct {
	BatchSize    int
	ForceRefresh bool
}

type BatchItem struct {
	UserID  string        `json:"user_id"`
	Success bool          `json:"success"`
	Data    *UserSnapshot `json:"data,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// ServiceStats is operational introspection only.
type ServiceStats struct {
	ActiveSessions int   `json:"active_sessions"`
	CachedUsers    int   `json:"cached_users"`
	TotalSyncs     int64 `json:"total_syncs"`
	TotalCacheHits int64 `json:"total_cache_hits"`
	UptimeSeconds  int64 `json:"uptime_seconds"`
}

func snapshotFromRows(user store.User, stats store.UserStats, achievements []store.Achievement) UserSnapshot {
	return UserSnapshot{
		UserID: user.ID,
		Economy: Economy{
			Fragments:   user.Fragments,
			DataShards:  user.DataShards,
			Level:       user.Level,
			XP:          user.XP,
			Lives:       user.Lives,
			DailyStreak: user.DailyStreak,
			LogKeys:     user.LogKeys,
		},
		Stats: Stats{
			MessagesSent:      stats.MessagesSent,
			CommandsUsed:      stats.CommandsUsed,
			MusicTracksPlayed: stats.MusicTracksPlayed,
			GamesCompleted:    stats.GamesCompleted,
			AIConversations:   stats.AIConversations,
			VoiceMinutes:      stats.VoiceMinutes,
			TotalSessions:     stats.TotalSessions,
		},
		Achievements: achievements,
	}
}
