package usersync

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Removal reasons handed to the registry's remove callback.
const (
	RemoveTimeout       = "timeout"
	RemoveDeregister    = "deregister"
	RemoveCapacityEvict = "capacity_evict"
)

// sessionEvictFraction of sessions dropped when the registry is at capacity.
const sessionEvictFraction = 0.2

// Session is the registry's record of one user currently in the Activity.
type Session struct {
	SessionID    string
	UserID       string
	StartTime    time.Time
	LastActivity time.Time
	SyncCount    int64
	CacheHits    int64
	Metadata     map[string]any

	timer *time.Timer
}

// SessionRegistry tracks active users. Each session carries an inactivity
// timer; firing removes the session through the same path as an explicit
// deregister. onRemove is invoked outside the lock with a copy of the
// removed session.
type SessionRegistry struct {
	mu          sync.Mutex
	timeout     time.Duration
	maxSessions int
	sessions    map[string]*Session
	onRemove    func(sess Session, reason string)
}

func NewSessionRegistry(timeout time.Duration, maxSessions int, onRemove func(sess Session, reason string)) *SessionRegistry {
	if maxSessions <= 0 {
		maxSessions = 500
	}
	if onRemove == nil {
		onRemove = func(Session, string) {}
	}
	return &SessionRegistry{
		timeout:     timeout,
		maxSessions: maxSessions,
		sessions:    map[string]*Session{},
		onRemove:    onRemove,
	}
}

// Register opens a session for the user, or resets the inactivity clock of an
// existing one. At capacity the oldest fifth of sessions by last activity is
// evicted first.
func (r *SessionRegistry) Register(userID string, metadata map[string]any) bool {
	if userID == "" {
		return false
	}
	now := time.Now()

	r.mu.Lock()
	if s, ok := r.sessions[userID]; ok {
		s.LastActivity = now
		if metadata != nil {
			s.Metadata = metadata
		}
		s.timer.Reset(r.timeout)
		r.mu.Unlock()
		return true
	}

	var evicted []Session
	if len(r.sessions) >= r.maxSessions {
		evicted = r.evictOldestLocked()
	}
	s := &Session{
		SessionID:    uuid.NewString(),
		UserID:       userID,
		StartTime:    now,
		LastActivity: now,
		Metadata:     metadata,
	}
	s.timer = time.AfterFunc(r.timeout, func() { r.expire(userID) })
	r.sessions[userID] = s
	r.mu.Unlock()

	for _, sess := range evicted {
		r.onRemove(sess, RemoveCapacityEvict)
	}
	return true
}

// Touch refreshes the inactivity clock. Returns false when the user has no
// active session.
func (r *SessionRegistry) Touch(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	if !ok {
		return false
	}
	s.LastActivity = time.Now()
	s.timer.Reset(r.timeout)
	return true
}

// Deregister closes the session. Returns false when there was none.
func (r *SessionRegistry) Deregister(userID string) bool {
	r.mu.Lock()
	s, ok := r.sessions[userID]
	if !ok {
		r.mu.Unlock()
		return false
	}
	s.timer.Stop()
	copySess := *s
	delete(r.sessions, userID)
	r.mu.Unlock()

	r.onRemove(copySess, RemoveDeregister)
	return true
}

func (r *SessionRegistry) AddSync(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[userID]; ok {
		s.SyncCount++
	}
}

func (r *SessionRegistry) AddCacheHit(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[userID]; ok {
		s.CacheHits++
	}
}

func (r *SessionRegistry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Lookup returns a copy of the user's session.
func (r *SessionRegistry) Lookup(userID string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// expire runs on the inactivity timer. A touch that raced the firing rearms
// the timer for the remainder instead of removing the session.
func (r *SessionRegistry) expire(userID string) {
	r.mu.Lock()
	s, ok := r.sessions[userID]
	if !ok {
		r.mu.Unlock()
		return
	}
	if idle := time.Since(s.LastActivity); idle < r.timeout {
		s.timer.Reset(r.timeout - idle)
		r.mu.Unlock()
		return
	}
	copySess := *s
	delete(r.sessions, userID)
	r.mu.Unlock()

	metricSessionExpiredTotal.Add(1)
	r.onRemove(copySess, RemoveTimeout)
}

func (r *SessionRegistry) evictOldestLocked() []Session {
	type aged struct {
		userID string
		last   time.Time
	}
	all := make([]aged, 0, len(r.sessions))
	for id, s := range r.sessions {
		all = append(all, aged{userID: id, last: s.LastActivity})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].last.Before(all[j].last) })

	n := int(float64(len(all)) * sessionEvictFraction)
	if n < 1 {
		n = 1
	}
	out := make([]Session, 0, n)
	for _, a := range all[:n] {
		s := r.sessions[a.userID]
		s.timer.Stop()
		out = append(out, *s)
		delete(r.sessions, a.userID)
	}
	metricSessionEvictTotal.Add(int64(n))
	return out
}
