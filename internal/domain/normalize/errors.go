package normalize

import (
	"errors"
	"fmt"
)

// Sentinel kinds for normalization errors.
var (
	ErrMalformedRow   = errors.New("malformed row")
	ErrMissingColumns = errors.New("missing required column")
)

// Drop reasons, also used as metric label values.
const (
	ReasonEmptyUsername    = "empty_username"
	ReasonInvalidLecture   = "invalid_lecture"
	ReasonInvalidScore     = "invalid_score"
	ReasonScoreOutOfRange  = "score_out_of_range"
	ReasonMissingField     = "missing_field"
	maxRetainedRowFailures = 50
)

// MalformedRowError describes one row that failed schema coercion. It is
// recoverable: the row is dropped and counted.
type MalformedRowError struct {
	Source string
	Line   int
	Reason string
	Value  string
}

func (e *MalformedRowError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s:%d: %s (%q)", e.Source, e.Line, e.Reason, e.Value)
	}
	return fmt.Sprintf("%s:%d: %s", e.Source, e.Line, e.Reason)
}

func (e *MalformedRowError) Unwrap() error { return ErrMalformedRow }
