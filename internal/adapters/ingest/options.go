package ingest

import "github.com/pylab/leaderboard/pkg/logger"

// Option applies a configuration option to the Reader.
type Option func(*Reader)

// WithHeaderCheck validates each source header before its rows are read.
func WithHeaderCheck(c HeaderChecker) Option {
	return func(r *Reader) {
		r.checker = c
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Reader) {
		if l != nil {
			r.logger = l
		}
	}
}
