package repository

import (
	"github.com/pylab/leaderboard/internal/domain/types"
	"github.com/pylab/leaderboard/pkg/logger"
)

// Option applies a configuration option to the BoardStore.
type Option func(*BoardStore)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *BoardStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBoard seeds the store with an already ranked leaderboard.
func WithBoard(board types.Leaderboard) Option {
	return func(s *BoardStore) {
		s.seed = board
	}
}
