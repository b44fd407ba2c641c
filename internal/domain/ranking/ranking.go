// Package ranking aggregates deduplicated score records into a leaderboard.
package ranking

import (
	"sort"

	"github.com/pylab/leaderboard/internal/domain/model"
	"github.com/pylab/leaderboard/internal/domain/types"
)

// DetailRow is one record of the per-lecture breakdown artifact.
type DetailRow struct {
	Username string
	Lecture  int
	Score    float64
}

// Result is the output of one aggregation.
type Result struct {
	Board  types.Leaderboard
	Detail []DetailRow
}

type group struct {
	username string
	lectures map[int]struct{}
	scores   []model.LectureScore
	total    float64
}

// Aggregate groups records by username, totals their scores and ranks the
// students by descending total. Ties keep the order in which each student
// first appears in records. An empty input yields an empty result.
func Aggregate(records []model.ScoreRecord) Result {
	index := make(map[string]int)
	groups := make([]*group, 0)

	for _, rec := range records {
		i, ok := index[rec.Username]
		if !ok {
			i = len(groups)
			index[rec.Username] = i
			groups = append(groups, &group{
				username: rec.Username,
				lectures: make(map[int]struct{}),
			})
		}
		g := groups[i]
		g.lectures[rec.Lecture] = struct{}{}
		g.scores = append(g.scores, model.LectureScore{Lecture: rec.Lecture, Score: rec.Score})
		g.total += rec.Score
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].total > groups[b].total
	})

	res := Result{
		Board:  make(types.Leaderboard, len(groups)),
		Detail: make([]DetailRow, 0, len(records)),
	}
	for i, g := range groups {
		res.Board[i] = types.Entry{
			Rank:       i + 1,
			Username:   g.username,
			Lectures:   len(g.lectures),
			TotalScore: g.total,
		}

		sort.SliceStable(g.scores, func(a, b int) bool {
			return g.scores[a].Lecture < g.scores[b].Lecture
		})
		for _, s := range g.scores {
			res.Detail = append(res.Detail, DetailRow{Username: g.username, Lecture: s.Lecture, Score: s.Score})
		}
	}

	return res
}

// LecturesFor returns the per-lecture scores of username from detail rows,
// ordered by lecture.
func LecturesFor(detail []DetailRow, username string) []model.LectureScore {
	var out []model.LectureScore
	for _, d := range detail {
		if d.Username == username {
			out = append(out, model.LectureScore{Lecture: d.Lecture, Score: d.Score})
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Lecture < out[b].Lecture })
	return out
}
