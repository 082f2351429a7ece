package usersync

import (
	"context"
	"errors"
	"sync"
	"testing"

	"nexus-activity/internal/config"
	"nexus-activity/internal/ledger"
	"nexus-activity/internal/store"
	"nexus-activity/internal/testutil"
)

func testSyncConfig() config.SyncConfig {
	return config.SyncConfig{
		CacheTTLMins:       10,
		CacheMaxEntries:    100,
		SessionTimeoutMins: 10,
		MaxSessions:        50,
		BatchSize:          10,
		BatchDelayMS:       1,
		StartingFragments:  100,
		StartingLives:      3,
	}
}

func newTestOrchestrator(ms *testutil.MemStore) *Orchestrator {
	return New(ms, ledger.New(ms), testSyncConfig())
}

func TestSyncUserNewUserSeedsDefaults(t *testing.T) {
	ms := testutil.NewMemStore()
	o := newTestOrchestrator(ms)

	res, err := o.SyncUser(context.Background(), "u1", false)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.Cached {
		t.Fatal("first sync must not be cached")
	}
	if res.Source != SourceForceSync {
		t.Fatalf("source = %q, want %q", res.Source, SourceForceSync)
	}
	if res.Snapshot.Economy.Fragments != 100 || res.Snapshot.Economy.Level != 1 {
		t.Fatalf("unexpected seed: %+v", res.Snapshot.Economy)
	}
	if len(res.Changes) != 1 || res.Changes[0] != ChangeInitialLoad {
		t.Fatalf("changes = %v, want [%s]", res.Changes, ChangeInitialLoad)
	}
}

func TestSyncUserCacheHitCounting(t *testing.T) {
	ms := testutil.NewMemStore()
	o := newTestOrchestrator(ms)

	first, err := o.SyncUser(context.Background(), "u1", false)
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}
	second, err := o.SyncUser(context.Background(), "u1", false)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if first.Cached || !second.Cached {
		t.Fatalf("cached flags: first=%v second=%v", first.Cached, second.Cached)
	}
	if second.Source != SourceCache {
		t.Fatalf("second source = %q, want %q", second.Source, SourceCache)
	}

	sess, ok := o.Session("u1")
	if !ok {
		t.Fatal("expected implicit session")
	}
	if sess.SyncCount != 1 {
		t.Fatalf("syncCount = %d, want 1", sess.SyncCount)
	}
	if sess.CacheHits != 1 {
		t.Fatalf("cacheHits = %d, want 1", sess.CacheHits)
	}
}

func TestForceRefreshBypassesCache(t *testing.T) {
	ms := testutil.NewMemStore()
	o := newTestOrchestrator(ms)

	if _, err := o.SyncUser(context.Background(), "u1", false); err != nil {
		t.Fatalf("sync: %v", err)
	}
	res, err := o.SyncUser(context.Background(), "u1", true)
	if err != nil {
		t.Fatalf("forced sync: %v", err)
	}
	if res.Cached {
		t.Fatal("forced refresh must not serve the cache")
	}
	sess, _ := o.Session("u1")
	if sess.SyncCount != 2 {
		t.Fatalf("syncCount = %d, want 2", sess.SyncCount)
	}
}

func TestForceSyncDetectsChangesAgainstPriorCache(t *testing.T) {
	ms := testutil.NewMemStore()
	o := newTestOrchestrator(ms)

	if _, err := o.SyncUser(context.Background(), "u1", false); err != nil {
		t.Fatalf("sync: %v", err)
	}
	u, _ := ms.User("u1")
	u.Fragments += 250
	u.Level = 7
	ms.SetUser(u)

	res, err := o.ForceSyncUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("force sync: %v", err)
	}
	if !contains(res.Changes, "gained_250_fragments") {
		t.Fatalf("changes = %v, want gained_250_fragments", res.Changes)
	}
	if !contains(res.Changes, "level_up_to_7") {
		t.Fatalf("changes = %v, want level_up_to_7", res.Changes)
	}
}

func TestForceSyncUnchangedProducesNoChanges(t *testing.T) {
	ms := testutil.NewMemStore()
	o := newTestOrchestrator(ms)

	if _, err := o.SyncUser(context.Background(), "u1", false); err != nil {
		t.Fatalf("sync: %v", err)
	}
	res, err := o.ForceSyncUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("force sync: %v", err)
	}
	if len(res.Changes) != 0 {
		t.Fatalf("changes = %v, want none", res.Changes)
	}
}

func TestForceSyncPropagatesBackendFailure(t *testing.T) {
	ms := testutil.NewMemStore()
	ms.FailUsers["u1"] = true
	o := newTestOrchestrator(ms)

	_, err := o.SyncUser(context.Background(), "u1", false)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("err = %v, want ErrBackendUnavailable", err)
	}
	var be *BackendError
	if !errors.As(err, &be) || be.UserID != "u1" {
		t.Fatalf("expected BackendError for u1, got %v", err)
	}
}

func TestConcurrentFirstSyncCreatesOneRecord(t *testing.T) {
	ms := testutil.NewMemStore()
	o := newTestOrchestrator(ms)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := o.ForceSyncUser(context.Background(), "u1"); err != nil {
				t.Errorf("force sync: %v", err)
			}
		}()
	}
	wg.Wait()

	u, ok := ms.User("u1")
	if !ok {
		t.Fatal("user missing")
	}
	if u.Fragments != 100 {
		t.Fatalf("fragments = %d, want the seed applied exactly once", u.Fragments)
	}
	if ms.EnsureCalls("u1") != 8 {
		t.Fatalf("ensure calls = %d, want 8 idempotent calls", ms.EnsureCalls("u1"))
	}
}

func TestBatchSyncPartialFailureIsolation(t *testing.T) {
	ms := testutil.NewMemStore()
	ms.FailUsers["b"] = true
	o := newTestOrchestrator(ms)

	results := o.BatchSync(context.Background(), []string{"a", "b", "c"}, BatchOptions{BatchSize: 2})
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	byUser := map[string]BatchItem{}
	for _, r := range results {
		byUser[r.UserID] = r
	}
	if !byUser["a"].Success || !byUser["c"].Success {
		t.Fatalf("expected a and c to succeed: %+v", results)
	}
	if byUser["b"].Success || byUser["b"].Error == "" {
		t.Fatalf("expected b to fail with an error: %+v", byUser["b"])
	}
	if byUser["a"].Data == nil || byUser["a"].Data.UserID != "a" {
		t.Fatalf("expected snapshot for a, got %+v", byUser["a"])
	}
}

func TestDeregisterPurgesCacheAndAudits(t *testing.T) {
	ms := testutil.NewMemStore()
	o := newTestOrchestrator(ms)

	if _, err := o.SyncUser(context.Background(), "u1", false); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if o.cache.Len() != 1 {
		t.Fatalf("cache len = %d, want 1", o.cache.Len())
	}
	if !o.DeregisterSession("u1") {
		t.Fatal("deregister failed")
	}
	if o.cache.Len() != 0 {
		t.Fatal("expected cache purged on deregister")
	}
	if !contains(ms.AuditKinds("u1"), "session_end") {
		t.Fatalf("audit kinds = %v, want session_end", ms.AuditKinds("u1"))
	}
	if o.UpdateActivity("u1") {
		t.Fatal("expected no session after deregister")
	}
}

func TestDeregisterSwallowsAuditFailure(t *testing.T) {
	ms := testutil.NewMemStore()
	ms.FailAudit = true
	o := newTestOrchestrator(ms)

	o.RegisterSession(context.Background(), "u1", nil)
	if !o.DeregisterSession("u1") {
		t.Fatal("deregister must succeed despite audit failure")
	}
}

func TestStats(t *testing.T) {
	ms := testutil.NewMemStore()
	o := newTestOrchestrator(ms)

	if _, err := o.SyncUser(context.Background(), "u1", false); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if _, err := o.SyncUser(context.Background(), "u1", false); err != nil {
		t.Fatalf("sync: %v", err)
	}
	st := o.Stats()
	if st.ActiveSessions != 1 {
		t.Fatalf("activeSessions = %d, want 1", st.ActiveSessions)
	}
	if st.CachedUsers != 1 {
		t.Fatalf("cachedUsers = %d, want 1", st.CachedUsers)
	}
	if st.TotalSyncs != 1 || st.TotalCacheHits != 1 {
		t.Fatalf("totals = %d/%d, want 1/1", st.TotalSyncs, st.TotalCacheHits)
	}
}

func TestRegisterSessionBumpsTotalSessions(t *testing.T) {
	ms := testutil.NewMemStore()
	o := newTestOrchestrator(ms)

	if _, err := ms.EnsureUser(context.Background(), "u1"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if !o.RegisterSession(context.Background(), "u1", map[string]any{"client": "web"}) {
		t.Fatal("register failed")
	}
	st, _ := ms.Stats("u1")
	if st.TotalSessions != 1 {
		t.Fatalf("totalSessions = %d, want 1", st.TotalSessions)
	}
}

var _ UserStore = (*testutil.MemStore)(nil)
var _ UserStore = (*store.Store)(nil)
