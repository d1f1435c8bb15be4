package featurestore

import "errors"

// Sentinel kinds for feature store errors.
var (
	ErrRunNotFound = errors.New("run not found")
	ErrRunExists   = errors.New("run already stored")
)
