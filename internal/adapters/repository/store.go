// Package repository persists leaderboard artifacts and serves ranked
// lookups over a loaded leaderboard.
package repository

import (
	"context"

	"github.com/pylab/leaderboard/internal/domain/types"
)

// Store provides read access to a ranked leaderboard.
type Store interface {
	// Rank returns the entry of username.
	// Returns ErrNotFound if the student is unknown.
	Rank(ctx context.Context, username string) (types.Entry, error)

	// TopN returns the top-N entries in rank order.
	TopN(ctx context.Context, n int) ([]types.Entry, error)

	// Search returns the best-ranked entry whose username contains query,
	// ignoring case. Returns ErrNotFound when nothing matches.
	Search(ctx context.Context, query string) (types.Entry, error)

	// All returns the whole leaderboard in rank order.
	All(ctx context.Context) types.Leaderboard

	// Count returns the number of students on the leaderboard.
	Count(ctx context.Context) int
}
