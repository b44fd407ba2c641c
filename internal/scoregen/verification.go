package scoregen

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/pylab/leaderboard/internal/domain/model"
	"github.com/pylab/leaderboard/internal/domain/types"
)

// ExpectedBoard replays the valid submissions batch by batch, keeping the
// last score seen per student and lecture, and totals each student. The
// result is ordered by total descending, then username.
func ExpectedBoard(streams [][]Submission) []Expected {
	final := make(map[model.DedupKey]float64)
	var keys []model.DedupKey
	for _, batch := range streams {
		for _, s := range batch {
			key := model.DedupKey{Username: s.Username, Lecture: s.Lecture}
			if _, ok := final[key]; !ok {
				keys = append(keys, key)
			}
			final[key] = s.Score
		}
	}

	// Summing in first-appearance order keeps totals reproducible.
	byUser := make(map[string]*Expected)
	for _, key := range keys {
		e, ok := byUser[key.Username]
		if !ok {
			e = &Expected{Username: key.Username}
			byUser[key.Username] = e
		}
		e.Lectures++
		e.Total += final[key]
	}

	out := make([]Expected, 0, len(byUser))
	for _, e := range byUser {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Username < out[j].Username
	})
	return out
}

// Verify checks a published leaderboard against the expected standings. Ties
// may be ordered either way, so only totals, lecture counts, rank
// contiguity and descending order are compared.
func Verify(board types.Leaderboard, expected []Expected) error {
	var errs []error
	if len(board) != len(expected) {
		errs = append(errs, fmt.Errorf("leaderboard has %d students, expected %d", len(board), len(expected)))
	}

	want := make(map[string]Expected, len(expected))
	for _, e := range expected {
		want[e.Username] = e
	}

	for i, entry := range board {
		if entry.Rank != i+1 {
			errs = append(errs, fmt.Errorf("entry %d has rank %d", i, entry.Rank))
		}
		if i > 0 && entry.TotalScore > board[i-1].TotalScore+totalTolerance {
			errs = append(errs, fmt.Errorf("leaderboard not sorted: rank %d outscores rank %d", entry.Rank, board[i-1].Rank))
		}

		e, ok := want[entry.Username]
		if !ok {
			errs = append(errs, fmt.Errorf("unexpected student %q", entry.Username))
			continue
		}
		if entry.Lectures != e.Lectures {
			errs = append(errs, fmt.Errorf("%s: %d lectures, expected %d", entry.Username, entry.Lectures, e.Lectures))
		}
		if math.Abs(entry.TotalScore-e.Total) > totalTolerance {
			errs = append(errs, fmt.Errorf("%s: total %.3f, expected %.3f", entry.Username, entry.TotalScore, e.Total))
		}
	}
	return errors.Join(errs...)
}
