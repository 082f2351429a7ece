// Package testutil holds shared test doubles. MemStore stands in for the
// Postgres store so the sync core and HTTP surface can be exercised without a
// database.
package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"nexus-activity/internal/store"
)

// ErrUnavailable is what MemStore returns for injected failures.
var ErrUnavailable = errors.New("backend connection refused")

type MemStore struct {
	Seed store.Seed

	mu           sync.Mutex
	users        map[string]store.User
	stats        map[string]store.UserStats
	achievements map[string][]store.Achievement
	audit        []store.AuditEntry

	// Failure injection.
	FailAll   bool
	FailAudit bool
	FailUsers map[string]bool

	ensureCalls map[string]int
}

func NewMemStore() *MemStore {
	return &MemStore{
		Seed:         store.Seed{Fragments: 100, Lives: 3},
		users:        map[string]store.User{},
		stats:        map[string]store.UserStats{},
		achievements: map[string][]store.Achievement{},
		FailUsers:    map[string]bool{},
		ensureCalls:  map[string]int{},
	}
}

func (m *MemStore) failFor(userID string) bool {
	return m.FailAll || m.FailUsers[userID]
}

func (m *MemStore) EnsureUser(_ context.Context, userID string) (store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor(userID) {
		return store.User{}, ErrUnavailable
	}
	m.ensureCalls[userID]++
	u, ok := m.users[userID]
	if !ok {
		now := time.Now()
		u = store.User{
			ID:        userID,
			Fragments: m.Seed.Fragments,
			Lives:     m.Seed.Lives,
			Level:     1,
			CreatedAt: now,
			UpdatedAt: now,
		}
		m.users[userID] = u
		m.stats[userID] = store.UserStats{UserID: userID}
	}
	return u, nil
}

func (m *MemStore) ReadStats(_ context.Context, userID string) (store.UserStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor(userID) {
		return store.UserStats{}, ErrUnavailable
	}
	st, ok := m.stats[userID]
	if !ok {
		return store.UserStats{}, store.ErrNotFound
	}
	return st, nil
}

func (m *MemStore) ReadAchievements(_ context.Context, userID string) ([]store.Achievement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor(userID) {
		return nil, ErrUnavailable
	}
	out := make([]store.Achievement, len(m.achievements[userID]))
	copy(out, m.achievements[userID])
	return out, nil
}

func (m *MemStore) WriteEconomy(_ context.Context, userID string, upd store.EconomyUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor(userID) {
		return ErrUnavailable
	}
	u, ok := m.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	apply := func(dst *int64, v *int64) {
		if v != nil {
			*dst = *v
		}
	}
	apply(&u.Fragments, upd.Fragments)
	apply(&u.DataShards, upd.DataShards)
	apply(&u.Level, upd.Level)
	apply(&u.XP, upd.XP)
	apply(&u.Lives, upd.Lives)
	apply(&u.DailyStreak, upd.DailyStreak)
	apply(&u.LogKeys, upd.LogKeys)
	u.UpdatedAt = time.Now()
	m.users[userID] = u
	return nil
}

func (m *MemStore) IncrementEconomy(_ context.Context, userID, field string, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor(userID) {
		return ErrUnavailable
	}
	u, ok := m.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	switch field {
	case "fragments":
		u.Fragments += amount
	case "data_shards":
		u.DataShards += amount
	case "xp":
		u.XP += amount
	case "lives":
		u.Lives += amount
	case "daily_streak":
		u.DailyStreak += amount
	case "log_keys":
		u.LogKeys += amount
	default:
		return errors.New("unknown economy field " + field)
	}
	m.users[userID] = u
	return nil
}

func (m *MemStore) AwardAchievement(_ context.Context, userID string, def store.AchievementDef) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor(userID) {
		return false, ErrUnavailable
	}
	for _, a := range m.achievements[userID] {
		if a.AchievementID == def.ID {
			return false, nil
		}
	}
	m.achievements[userID] = append(m.achievements[userID], store.Achievement{
		ID:            store.NewID(),
		AchievementID: def.ID,
		Name:          def.Name,
		Description:   def.Description,
		Icon:          def.Icon,
		EarnedAt:      time.Now(),
	})
	return true, nil
}

func (m *MemStore) IncrementStat(_ context.Context, userID, stat string, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor(userID) {
		return ErrUnavailable
	}
	st, ok := m.stats[userID]
	if !ok {
		return nil
	}
	switch stat {
	case "messages_sent":
		st.MessagesSent += amount
	case "commands_used":
		st.CommandsUsed += amount
	case "music_tracks_played":
		st.MusicTracksPlayed += amount
	case "games_completed":
		st.GamesCompleted += amount
	case "ai_conversations":
		st.AIConversations += amount
	case "voice_minutes":
		st.VoiceMinutes += amount
	case "total_sessions":
		st.TotalSessions += amount
	default:
		return errors.New("unknown stat " + stat)
	}
	m.stats[userID] = st
	return nil
}

func (m *MemStore) AppendAuditLog(_ context.Context, userID, kind string, payload map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAudit || m.failFor(userID) {
		return ErrUnavailable
	}
	m.audit = append(m.audit, store.AuditEntry{
		ID:        store.NewID(),
		UserID:    userID,
		Kind:      kind,
		Payload:   payload,
		CreatedAt: time.Now(),
	})
	return nil
}

func (m *MemStore) Ping(context.Context) error {
	if m.FailAll {
		return ErrUnavailable
	}
	return nil
}

// User returns a copy of the stored economy row.
func (m *MemStore) User(userID string) (store.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	return u, ok
}

// Stats returns a copy of the stored stats row.
func (m *MemStore) Stats(userID string) (store.UserStats, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.stats[userID]
	return st, ok
}

// EnsureCalls reports how many times EnsureUser ran for the user.
func (m *MemStore) EnsureCalls(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureCalls[userID]
}

// AuditKinds lists the kinds of audit entries written for the user, in order.
func (m *MemStore) AuditKinds(userID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []string{}
	for _, e := range m.audit {
		if e.UserID == userID {
			out = append(out, e.Kind)
		}
	}
	return out
}

// SetUser preloads an economy row, bypassing seeding.
func (m *MemStore) SetUser(u store.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	if _, ok := m.stats[u.ID]; !ok {
		m.stats[u.ID] = store.UserStats{UserID: u.ID}
	}
}
