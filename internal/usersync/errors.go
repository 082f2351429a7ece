package usersync

import (
	"errors"
	"fmt"
)

var (
	ErrBackendUnavailable = errors.New("backend_unavailable")
	ErrInvalidRequest     = errors.New("invalid_request")
)

// BackendError marks a failed store round-trip for a specific user. The sync
// layer never papers over it with fabricated data; callers decide.
type BackendError struct {
	UserID string
	Err    error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("sync failed for user %s: %v", e.UserID, e.Err)
}

func (e *BackendError) Unwrap() error {
	return ErrBackendUnavailable
}
