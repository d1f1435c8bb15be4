package smoke

import "errors"

var (
	// ErrStatus is returned for non-200 responses.
	ErrStatus = errors.New("unexpected status")
	// ErrMismatch is returned when the served leaderboard differs from the local one.
	ErrMismatch = errors.New("leaderboard mismatch")
)
