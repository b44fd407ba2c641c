package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrUnknownFormat  = errors.New("unknown report format")
	ErrUnknownStudent = errors.New("student not on leaderboard")
	ErrAbandoned      = errors.New("render job abandoned")
)
