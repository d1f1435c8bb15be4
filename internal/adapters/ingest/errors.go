package ingest

import "errors"

// Sentinel kinds for ingest errors.
var (
	ErrMalformedInput = errors.New("malformed input")
	ErrTooManyRecords = errors.New("too many records")
)
