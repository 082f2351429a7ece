package store

import "time"

type User struct {
	ID          string
	Fragments   int64
	DataShards  int64
	Level       int64
	XP          int64
	Lives       int64
	DailyStreak int64
	LogKeys     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type UserStats struct {
	UserID            string
	MessagesSent      int64
	CommandsUsed      int64
	MusicTracksPlayed int64
	GamesCompleted    int64
	AIConversations   int64
	VoiceMinutes      int64
	TotalSessions     int64
}

// Achievement is one earned grant; rows come back in earn order.
type Achievement struct {
	ID            string    `json:"-"`
	AchievementID string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Icon          string    `json:"icon"`
	EarnedAt      time.Time `json:"earned_at"`
}

// AchievementDef describes an awardable achievement.
type AchievementDef struct {
	ID          string
	Name        string
	Description string
	Icon        string
}

// EconomyUpdate is a partial write; nil fields are left untouched.
type EconomyUpdate struct {
	Fragments   *int64
	DataShards  *int64
	Level       *int64
	XP          *int64
	Lives       *int64
	DailyStreak *int64
	LogKeys     *int64
}

type AuditEntry struct {
	ID        string
	UserID    string
	Kind      string
	Payload   map[string]any
	CreatedAt time.Time
}
