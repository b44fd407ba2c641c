package repository

import "errors"

// Sentinel kinds for leaderboard errors.
var (
	ErrNotFound     = errors.New("student not found")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
	// ErrMissingInput is returned when the leaderboard artifact is absent.
	ErrMissingInput      = errors.New("missing input")
	ErrMalformedArtifact = errors.New("malformed artifact")
	ErrWriteArtifact     = errors.New("write artifact")
)
