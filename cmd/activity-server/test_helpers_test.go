package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"nexus-activity/internal/config"
	"nexus-activity/internal/ledger"
	"nexus-activity/internal/testutil"
	"nexus-activity/internal/usersync"
)

func newTestRouter(t *testing.T) (*chi.Mux, *testutil.MemStore) {
	t.Helper()
	ms := testutil.NewMemStore()
	cfg := config.SyncConfig{
		CacheTTLMins:       10,
		CacheMaxEntries:    100,
		SessionTimeoutMins: 10,
		MaxSessions:        50,
		BatchSize:          10,
		BatchDelayMS:       1,
		StartingFragments:  100,
		StartingLives:      3,
	}
	orch := usersync.New(ms, ledger.New(ms), cfg)
	return newRouter(ms, orch), ms
}

func doJSON(t *testing.T, router *chi.Mux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func mustStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, want, w.Body.String())
	}
}
