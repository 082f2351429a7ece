package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"nexus-activity/internal/usersync"
)

const batchMaxUsers = 200

func healthHandler(p pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := p.Ping(r.Context()); err != nil {
			writeHTTPError(w, http.StatusServiceUnavailable, "db_unreachable")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	}
}

func registerSessionHandler(orch *usersync.Orchestrator) http.HandlerFunc {
	type request struct {
		UserID   string         `json:"user_id"`
		Metadata map[string]any `json:"metadata"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
			writeHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		if !orch.RegisterSession(r.Context(), req.UserID, req.Metadata) {
			writeHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"registered": true, "user_id": req.UserID})
	}
}

func touchSessionHandler(orch *usersync.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "user_id")
		if !orch.UpdateActivity(userID) {
			writeHTTPError(w, http.StatusNotFound, "session_not_found")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"active": true})
	}
}

func deregisterSessionHandler(orch *usersync.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "user_id")
		if !orch.DeregisterSession(userID) {
			writeHTTPError(w, http.StatusNotFound, "session_not_found")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"removed": true})
	}
}

func syncUserHandler(orch *usersync.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "user_id")
		force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

		res, err := orch.SyncUser(r.Context(), userID, force)
		if err != nil {
			writeSyncError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(res)
	}
}

func applyProgressHandler(orch *usersync.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "user_id")
		var delta usersync.ProgressDelta
		if err := json.NewDecoder(r.Body).Decode(&delta); err != nil {
			writeHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		if !orch.ApplyProgress(r.Context(), userID, delta) {
			writeHTTPError(w, http.StatusBadGateway, "backend_unavailable")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	}
}

func batchSyncHandler(orch *usersync.Orchestrator) http.HandlerFunc {
	type request struct {
		UserIDs      []string `json:"user_ids"`
		BatchSize    int      `json:"batch_size"`
		ForceRefresh bool     `json:"force_refresh"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.UserIDs) == 0 {
			writeHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		if len(req.UserIDs) > batchMaxUsers {
			writeHTTPError(w, http.StatusBadRequest, "too_many_users")
			return
		}
		results := orch.BatchSync(r.Context(), req.UserIDs, usersync.BatchOptions{
			BatchSize:    req.BatchSize,
			ForceRefresh: req.ForceRefresh,
		})
		_ = json.NewEncoder(w).Encode(map[string]any{"results": results, "total": len(results)})
	}
}

func statsHandler(orch *usersync.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(orch.Stats())
	}
}

func writeSyncError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usersync.ErrInvalidRequest):
		writeHTTPError(w, http.StatusBadRequest, "invalid_request")
	case errors.Is(err, usersync.ErrBackendUnavailable):
		writeHTTPError(w, http.StatusBadGateway, "backend_unavailable")
	default:
		writeHTTPError(w, http.StatusInternalServerError, "internal_error")
	}
}
