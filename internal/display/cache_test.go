package display_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pylab/leaderboard/internal/adapters/repository"
	"github.com/pylab/leaderboard/internal/display"
	"github.com/pylab/leaderboard/internal/domain/ranking"
	"github.com/pylab/leaderboard/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func board() types.Leaderboard {
	return types.Leaderboard{
		{Rank: 1, Username: "Bobby", Lectures: 2, TotalScore: 175},
		{Rank: 2, Username: "alice", Lectures: 1, TotalScore: 85},
	}
}

func detail() []ranking.DetailRow {
	return []ranking.DetailRow{
		{Username: "Bobby", Lecture: 2, Score: 90},
		{Username: "Bobby", Lecture: 1, Score: 85},
		{Username: "alice", Lecture: 1, Score: 85},
	}
}

func TestCache_Load(t *testing.T) {
	Convey("Given written artifacts", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		lb := filepath.Join(dir, "leaderboard.csv")
		dt := filepath.Join(dir, "results_by_lecture.csv")
		So(repository.WriteLeaderboard(lb, board()), ShouldBeNil)
		So(repository.WriteDetail(dt, detail()), ShouldBeNil)
		cache := display.NewCache()

		Convey("When loading twice without changes", func() {
			first, err := cache.Load(ctx, lb, dt)
			So(err, ShouldBeNil)
			second, err := cache.Load(ctx, lb, dt)
			So(err, ShouldBeNil)

			Convey("Then the same table should be returned", func() {
				So(second, ShouldPointTo, first)
				So(first.Board(ctx), ShouldResemble, board())
			})
		})

		Convey("When the leaderboard changes on disk", func() {
			first, _ := cache.Load(ctx, lb, dt)
			updated := append(board(), types.Entry{Rank: 3, Username: "carol", Lectures: 1, TotalScore: 1})
			So(repository.WriteLeaderboard(lb, updated), ShouldBeNil)
			future := time.Now().Add(time.Minute)
			So(os.Chtimes(lb, future, future), ShouldBeNil)

			second, err := cache.Load(ctx, lb, dt)

			Convey("Then it should be reloaded", func() {
				So(err, ShouldBeNil)
				So(second, ShouldNotPointTo, first)
				So(second.Board(ctx), ShouldHaveLength, 3)
			})
		})

		Convey("When the cache is invalidated", func() {
			first, _ := cache.Load(ctx, lb, dt)
			cache.Invalidate()
			second, _ := cache.Load(ctx, lb, dt)

			Convey("Then a fresh table should be read", func() {
				So(second, ShouldNotPointTo, first)
			})
		})

		Convey("When many viewers load at once", func() {
			var wg sync.WaitGroup
			tables := make([]*display.Table, 8)
			for i := range tables {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					tables[i], _ = cache.Load(ctx, lb, dt)
				}(i)
			}
			wg.Wait()

			Convey("Then every viewer should get a table", func() {
				for _, tb := range tables {
					So(tb, ShouldNotBeNil)
					So(tb.Store().Count(ctx), ShouldEqual, 2)
				}
			})
		})

		Convey("When querying a loaded table", func() {
			table, err := cache.Load(ctx, lb, dt)
			So(err, ShouldBeNil)

			Convey("Then lookup should match case-insensitively", func() {
				e, err := table.Lookup(ctx, "bob")
				So(err, ShouldBeNil)
				So(e.Username, ShouldEqual, "Bobby")
			})

			Convey("Then lectures should come back ordered", func() {
				ls := table.LecturesFor("Bobby")
				So(ls, ShouldHaveLength, 2)
				So(ls[0].Lecture, ShouldEqual, 1)
			})

			Convey("Then a report spec should be derivable", func() {
				e, _ := table.Lookup(ctx, "alice")
				spec := table.Spec(e)
				So(spec.AverageScore, ShouldEqual, 85)
				So(spec.PerLecture, ShouldHaveLength, 1)
			})
		})
	})

	Convey("Given only a leaderboard artifact", t, func() {
		dir := t.TempDir()
		lb := filepath.Join(dir, "leaderboard.csv")
		So(repository.WriteLeaderboard(lb, board()), ShouldBeNil)

		table, err := display.NewCache().Load(context.Background(), lb, filepath.Join(dir, "missing.csv"))

		Convey("Then per-lecture breakdowns should be empty", func() {
			So(err, ShouldBeNil)
			So(table.LecturesFor("alice"), ShouldBeEmpty)
		})
	})

	Convey("Given no leaderboard artifact", t, func() {
		dir := t.TempDir()

		_, err := display.NewCache().Load(context.Background(), filepath.Join(dir, "leaderboard.csv"), "")

		Convey("Then it should report missing input", func() {
			So(errors.Is(err, repository.ErrMissingInput), ShouldBeTrue)
		})
	})
}
