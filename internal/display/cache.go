// Package display loads leaderboard artifacts for presentation and answers
// the queries a viewer makes against them.
package display

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/pylab/leaderboard/internal/adapters/repository"
	"github.com/pylab/leaderboard/internal/domain/model"
	"github.com/pylab/leaderboard/internal/domain/ranking"
	"github.com/pylab/leaderboard/internal/domain/report"
	"github.com/pylab/leaderboard/internal/domain/types"
	"github.com/pylab/leaderboard/pkg/logger"
	"github.com/pylab/leaderboard/pkg/metrics"
)

// Table is a loaded leaderboard with its per-lecture breakdown.
type Table struct {
	store  *repository.BoardStore
	detail []ranking.DetailRow
}

// Store exposes ranked lookups over the table.
func (t *Table) Store() repository.Store { return t.store }

// Board returns the whole leaderboard in rank order.
func (t *Table) Board(ctx context.Context) types.Leaderboard { return t.store.All(ctx) }

// Lookup returns the best-ranked student whose name contains query.
func (t *Table) Lookup(ctx context.Context, query string) (types.Entry, error) {
	return t.store.Search(ctx, query)
}

// LecturesFor returns username's per-lecture scores; empty when the detail
// artifact was absent.
func (t *Table) LecturesFor(username string) []model.LectureScore {
	return ranking.LecturesFor(t.detail, username)
}

// Spec builds the report model for entry.
func (t *Table) Spec(entry types.Entry) report.Spec {
	return report.NewSpec(entry, t.LecturesFor(entry.Username))
}

// fileID identifies one version of a file on disk.
type fileID struct {
	size  int64
	mtime int64
}

type cacheKey struct {
	leaderboard, detail string
	board, extra        fileID
}

func (k cacheKey) String() string {
	return fmt.Sprintf("%s|%d|%d|%s|%d|%d",
		k.leaderboard, k.board.size, k.board.mtime, k.detail, k.extra.size, k.extra.mtime)
}

// Cache memoizes loaded tables. An entry stays valid while neither file
// changes size or modification time; concurrent loads of the same version
// share one read.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cachedTable // by leaderboard path
	group   singleflight.Group
	logger  logger.Logger
}

type cachedTable struct {
	key   cacheKey
	table *Table
}

// NewCache creates an empty cache.
func NewCache(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]cachedTable),
		logger:  logger.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Load returns the table for the given artifact paths, reading them only
// when they changed since the last load.
func (c *Cache) Load(ctx context.Context, leaderboardPath, detailPath string) (*Table, error) {
	key, err := identify(leaderboardPath, detailPath)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	cached, ok := c.entries[leaderboardPath]
	c.mu.Unlock()
	if ok && cached.key == key {
		metrics.RecordCacheLookup(true)
		return cached.table, nil
	}
	metrics.RecordCacheLookup(false)

	v, err, shared := c.group.Do(key.String(), func() (interface{}, error) {
		board, err := repository.ReadLeaderboard(leaderboardPath)
		if err != nil {
			return nil, err
		}
		detail, err := repository.ReadDetail(detailPath)
		if err != nil {
			return nil, err
		}

		table := &Table{
			store:  repository.NewBoardStore(repository.WithBoard(board), repository.WithLogger(c.logger)),
			detail: detail,
		}
		c.mu.Lock()
		c.entries[leaderboardPath] = cachedTable{key: key, table: table}
		c.mu.Unlock()
		return table, nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug(ctx, "leaderboard loaded",
		logger.String("path", leaderboardPath),
		logger.Bool("shared", shared))
	return v.(*Table), nil
}

// Invalidate drops every cached table.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cachedTable)
}

func identify(leaderboardPath, detailPath string) (cacheKey, error) {
	key := cacheKey{leaderboard: leaderboardPath, detail: detailPath}

	info, err := os.Stat(leaderboardPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return key, fmt.Errorf("%w: %s", repository.ErrMissingInput, leaderboardPath)
		}
		return key, err
	}
	key.board = fileID{size: info.Size(), mtime: info.ModTime().UnixNano()}

	// A missing detail file is a valid state with its own identity.
	key.extra = fileID{size: -1}
	if info, err := os.Stat(detailPath); err == nil {
		key.extra = fileID{size: info.Size(), mtime: info.ModTime().UnixNano()}
	}
	return key, nil
}
