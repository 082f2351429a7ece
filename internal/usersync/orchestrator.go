package usersync

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"nexus-activity/internal/config"
	"nexus-activity/internal/ledger"
)

const auditWriteTimeout = 5 * time.Second

// Orchestrator is the single entry point for request handlers. It exclusively
// owns the snapshot cache and session registry; nothing else mutates them.
type Orchestrator struct {
	store    UserStore
	ledger   *ledger.Ledger
	cfg      config.SyncConfig
	cache    *SnapshotCache
	registry *SessionRegistry

	startedAt      time.Time
	totalSyncs     atomic.Int64
	totalCacheHits atomic.Int64
}

func New(st UserStore, led *ledger.Ledger, cfg config.SyncConfig) *Orchestrator {
	o := &Orchestrator{
		store:     st,
		ledger:    led,
		cfg:       cfg,
		cache:     NewSnapshotCache(cfg.CacheTTL(), cfg.CacheMaxEntries),
		startedAt: time.Now(),
	}
	o.registry = NewSessionRegistry(cfg.SessionTimeout(), cfg.MaxSessions, o.onSessionRemoved)
	return o
}

// SyncUser answers "give me this user's current state", from cache when the
// entry is still fresh. A cache hit implicitly keeps the session alive.
func (o *Orchestrator) SyncUser(ctx context.Context, userID string, forceRefresh bool) (SyncResult, error) {
	if userID == "" {
		return SyncResult{}, ErrInvalidRequest
	}
	if !forceRefresh {
		if snap, _, ok := o.cache.Get(userID); ok {
			if !o.registry.Touch(userID) {
				o.RegisterSession(ctx, userID, nil)
			}
			o.registry.AddCacheHit(userID)
			o.totalCacheHits.Add(1)
			metricCacheHitTotal.Add(1)
			snap.Source = SourceCache
			return SyncResult{Snapshot: snap, Cached: true, Source: SourceCache}, nil
		}
		metricCacheMissTotal.Add(1)
	}
	return o.ForceSyncUser(ctx, userID)
}

// ForceSyncUser reads fresh state from the store, diffs it against whatever
// was cached before the overwrite, and caches the result. Store failures
// surface as a typed error; no fabricated data.
func (o *Orchestrator) ForceSyncUser(ctx context.Context, userID string) (SyncResult, error) {
	if userID == "" {
		return SyncResult{}, ErrInvalidRequest
	}
	var prev *UserSnapshot
	if snap, _, ok := o.cache.Get(userID); ok {
		prev = &snap
	}

	snap, err := o.readSnapshot(ctx, userID)
	if err != nil {
		metricSyncErrorsTotal.Add(1)
		return SyncResult{}, &BackendError{UserID: userID, Err: err}
	}

	var changes []string
	if HasChanged(prev, snap) {
		changes = Diff(prev, snap)
	}

	snap.Source = SourceForceSync
	o.cache.Set(userID, snap, SourceForceSync)
	if !o.registry.Touch(userID) {
		o.RegisterSession(ctx, userID, nil)
	}
	o.registry.AddSync(userID)
	o.totalSyncs.Add(1)
	metricSyncTotal.Add(1)

	return SyncResult{Snapshot: snap, Cached: false, Source: SourceForceSync, Changes: changes}, nil
}

// BatchSync refreshes many users: chunks run sequentially with a fixed pause
// to throttle the store, users within a chunk run concurrently, and one
// user's failure never aborts the rest.
func (o *Orchestrator) BatchSync(ctx context.Context, userIDs []string, opts BatchOptions) []BatchItem {
	size := opts.BatchSize
	if size <= 0 {
		size = o.cfg.BatchSize
	}
	if size <= 0 {
		size = 10
	}

	results := make([]BatchItem, len(userIDs))
	for start := 0; start < len(userIDs); start += size {
		end := start + size
		if end > len(userIDs) {
			end = len(userIDs)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				userID := userIDs[idx]
				res, err := o.SyncUser(ctx, userID, opts.ForceRefresh)
				if err != nil {
					results[idx] = BatchItem{UserID: userID, Error: err.Error()}
					return
				}
				snap := res.Snapshot
				results[idx] = BatchItem{UserID: userID, Success: true, Data: &snap}
			}(i)
		}
		wg.Wait()

		if end < len(userIDs) {
			select {
			case <-ctx.Done():
				for i := end; i < len(userIDs); i++ {
					results[i] = BatchItem{UserID: userIDs[i], Error: ctx.Err().Error()}
				}
				return results
			case <-time.After(o.cfg.BatchDelay()):
			}
		}
	}
	return results
}

// RegisterSession opens (or refreshes) the user's session. The total-session
// stat bump is best effort.
func (o *Orchestrator) RegisterSession(ctx context.Context, userID string, metadata map[string]any) bool {
	if !o.registry.Register(userID, metadata) {
		return false
	}
	if err := o.store.IncrementStat(ctx, userID, "total_sessions", 1); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("session stat increment failed")
	}
	return true
}

// UpdateActivity refreshes the inactivity clock. False means no session.
func (o *Orchestrator) UpdateActivity(userID string) bool {
	return o.registry.Touch(userID)
}

// DeregisterSession closes the session; the cache purge and audit write run
// through the registry's remove cascade.
func (o *Orchestrator) DeregisterSession(userID string) bool {
	return o.registry.Deregister(userID)
}

// InvalidateUser drops the user's cached snapshot.
func (o *Orchestrator) InvalidateUser(userID string) {
	o.cache.Invalidate(userID)
}

func (o *Orchestrator) Stats() ServiceStats {
	return ServiceStats{
		ActiveSessions: o.registry.Active(),
		CachedUsers:    o.cache.Len(),
		TotalSyncs:     o.totalSyncs.Load(),
		TotalCacheHits: o.totalCacheHits.Load(),
		UptimeSeconds:  int64(time.Since(o.startedAt).Seconds()),
	}
}

// Session exposes a copy of the user's session record for handlers.
func (o *Orchestrator) Session(userID string) (Session, bool) {
	return o.registry.Lookup(userID)
}

func (o *Orchestrator) readSnapshot(ctx context.Context, userID string) (UserSnapshot, error) {
	user, err := o.store.EnsureUser(ctx, userID)
	if err != nil {
		return UserSnapshot{}, err
	}
	stats, err := o.store.ReadStats(ctx, userID)
	if err != nil {
		return UserSnapshot{}, err
	}
	achievements, err := o.store.ReadAchievements(ctx, userID)
	if err != nil {
		return UserSnapshot{}, err
	}
	return snapshotFromRows(user, stats, achievements), nil
}

// onSessionRemoved runs for every session leaving the registry, whatever the
// reason. The audit write is fire and forget.
func (o *Orchestrator) onSessionRemoved(sess Session, reason string) {
	o.cache.Invalidate(sess.UserID)

	ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
	defer cancel()
	err := o.store.AppendAuditLog(ctx, sess.UserID, "session_end", map[string]any{
		"reason":      reason,
		"session_id":  sess.SessionID,
		"duration_ms": time.Since(sess.StartTime).Milliseconds(),
		"sync_count":  sess.SyncCount,
		"cache_hits":  sess.CacheHits,
	})
	if err != nil {
		log.Warn().Err(err).Str("user_id", sess.UserID).Str("reason", reason).Msg("session audit write failed")
	}
}
