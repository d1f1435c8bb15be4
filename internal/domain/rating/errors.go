package rating

import "errors"

// ErrNonBinaryOutcome is returned when an update is given a score other than 0 or 1.
var ErrNonBinaryOutcome = errors.New("rating: outcome must be 0 or 1")
