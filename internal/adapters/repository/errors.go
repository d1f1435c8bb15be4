package repository

import "errors"

// Sentinel kinds for leaderboard errors.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrInvalidLimit  = errors.New("invalid leaderboard limit")
	ErrInvalidRating = errors.New("invalid rating")
)
