package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted          = errors.New("service not started")
	ErrTooManyRecords      = errors.New("too many records")
	ErrPersistenceDisabled = errors.New("feature store not configured")
)
