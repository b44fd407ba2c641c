package repository

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"golang.org/x/text/cases"

	"github.com/pylab/leaderboard/internal/domain/types"
	"github.com/pylab/leaderboard/pkg/logger"
)

// snapshot is an immutable view of one leaderboard.
type snapshot struct {
	board  types.Leaderboard
	byName map[string]int
	folded []string // case-folded usernames, parallel to board
}

// BoardStore implements Store over an in-memory snapshot that can be swapped
// atomically when a newer leaderboard is loaded.
type BoardStore struct {
	snap   atomic.Pointer[snapshot]
	seed   types.Leaderboard
	logger logger.Logger
}

var _ Store = (*BoardStore)(nil)

// NewBoardStore creates a store, empty unless seeded with WithBoard.
func NewBoardStore(opts ...Option) *BoardStore {
	s := &BoardStore{
		logger: logger.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.Replace(s.seed)
	s.seed = nil
	return s
}

// Replace publishes board as the current snapshot. The board must already be
// ranked; it is copied.
func (s *BoardStore) Replace(board types.Leaderboard) {
	snap := &snapshot{
		board:  make(types.Leaderboard, len(board)),
		byName: make(map[string]int, len(board)),
		folded: make([]string, len(board)),
	}
	copy(snap.board, board)
	for i, e := range snap.board {
		snap.byName[e.Username] = i
		snap.folded[i] = fold(e.Username)
	}
	s.snap.Store(snap)
}

// Rank implements Store.
func (s *BoardStore) Rank(_ context.Context, username string) (types.Entry, error) {
	snap := s.snap.Load()
	i, ok := snap.byName[username]
	if !ok {
		return types.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, username)
	}
	return snap.board[i], nil
}

// TopN implements Store.
func (s *BoardStore) TopN(_ context.Context, n int) ([]types.Entry, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	top := s.snap.Load().board.Top(n)
	out := make([]types.Entry, len(top))
	copy(out, top)
	return out, nil
}

// Search implements Store.
func (s *BoardStore) Search(ctx context.Context, query string) (types.Entry, error) {
	q := fold(strings.TrimSpace(query))
	if q == "" {
		return types.Entry{}, fmt.Errorf("%w: empty query", ErrNotFound)
	}

	snap := s.snap.Load()
	for i, name := range snap.folded {
		if strings.Contains(name, q) {
			return snap.board[i], nil
		}
	}
	s.logger.Debug(ctx, "search found nothing", logger.String("query", query))
	return types.Entry{}, fmt.Errorf("%w: %q", ErrNotFound, query)
}

// All implements Store.
func (s *BoardStore) All(_ context.Context) types.Leaderboard {
	board := s.snap.Load().board
	out := make(types.Leaderboard, len(board))
	copy(out, board)
	return out
}

// Count implements Store.
func (s *BoardStore) Count(_ context.Context) int {
	return len(s.snap.Load().board)
}

// fold case-folds s. Casers keep state, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}
