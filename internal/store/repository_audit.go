package store

import (
	"context"
	"encoding/json"
)

// AppendAuditLog writes one append-only audit row. Callers on best-effort
// paths swallow the returned error themselves.
func (s *Store) AppendAuditLog(ctx context.Context, userID, kind string, payload map[string]any) error {
	body := []byte("{}")
	if len(payload) > 0 {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = b
	}
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO audit_log (id, user_id, kind, payload) VALUES ($1, $2, $3, $4)`,
		NewID(), userID, kind, body,
	)
	return err
}
