// Package dedupe collapses repeated submissions to one authoritative record.
//
// Resolution is last-seen wins: a resubmission for the same (username,
// lecture) replaces the earlier score, whatever its value. The surviving
// record keeps the position where its key was first seen, so the output order
// is a pure function of the ingestion order.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pylab/leaderboard/internal/domain/model"
)

// Deduper is the contract used by the pipeline.
type Deduper interface {
	// Add records rec, replacing any earlier record with the same key.
	// Returns true when an earlier record was overwritten.
	Add(ctx context.Context, rec model.ScoreRecord) bool

	// Records returns the surviving records in first-seen key order.
	Records(ctx context.Context) []model.ScoreRecord

	// Overwritten returns how many records were replaced so far.
	Overwritten() int64

	Size() int64
}

// Deduplicator implements Deduper with an index into an ordered slot slice.
// Safe for concurrent use, although the pipeline drives it from one goroutine.
type Deduplicator struct {
	mu          sync.RWMutex
	index       map[model.DedupKey]int // key -> slot
	slots       []model.ScoreRecord
	expected    int
	overwritten atomic.Int64
}

// New creates an empty Deduplicator.
func New(opts ...Option) *Deduplicator {
	d := &Deduplicator{}

	for _, opt := range opts {
		opt(d)
	}

	d.index = make(map[model.DedupKey]int, d.expected)
	d.slots = make([]model.ScoreRecord, 0, d.expected)
	return d
}

// Add implements Deduper.
func (d *Deduplicator) Add(_ context.Context, rec model.ScoreRecord) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := rec.Key()
	if slot, exists := d.index[key]; exists {
		d.slots[slot] = rec
		d.overwritten.Add(1)
		return true
	}
	d.index[key] = len(d.slots)
	d.slots = append(d.slots, rec)
	return false
}

// Records implements Deduper. The returned slice is a copy.
func (d *Deduplicator) Records(_ context.Context) []model.ScoreRecord {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]model.ScoreRecord, len(d.slots))
	copy(out, d.slots)
	return out
}

// Overwritten implements Deduper.
func (d *Deduplicator) Overwritten() int64 {
	return d.overwritten.Load()
}

// Size returns the number of distinct keys.
func (d *Deduplicator) Size() int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return int64(len(d.slots))
}

// Dedupe runs records through a fresh Deduplicator and returns the survivors
// and the number of overwritten duplicates.
func Dedupe(ctx context.Context, records []model.ScoreRecord) ([]model.ScoreRecord, int) {
	d := New(WithExpectedSize(len(records)))
	for _, rec := range records {
		d.Add(ctx, rec)
	}
	return d.Records(ctx), int(d.Overwritten())
}
