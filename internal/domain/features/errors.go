package features

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfOrder is returned when a record is dated before its predecessor.
	ErrOutOfOrder = errors.New("features: records are not in chronological order")
	// ErrDuplicateRecord is returned when a record id repeats.
	ErrDuplicateRecord = errors.New("features: duplicate record id")
	// ErrInvalidRecord is returned for records missing an id, a date or two
	// distinct participants.
	ErrInvalidRecord = errors.New("features: invalid record")
	// ErrNoStages is returned by New when no stage is given.
	ErrNoStages = errors.New("features: no stages configured")
	// ErrDuplicateColumn is returned by New when two stages share a column name.
	ErrDuplicateColumn = errors.New("features: duplicate column")
)

// RecordError locates a validation failure in the input sequence.
type RecordError struct {
	Index  int
	ID     string
	Reason string
	Err    error
}

func (e *RecordError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("record %d (%q): %v", e.Index, e.ID, e.Err)
	}
	return fmt.Sprintf("record %d (%q): %v: %s", e.Index, e.ID, e.Err, e.Reason)
}

func (e *RecordError) Unwrap() error { return e.Err }
