package terminal_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pylab/leaderboard/internal/adapters/terminal"
	"github.com/pylab/leaderboard/internal/domain/model"
	"github.com/pylab/leaderboard/internal/domain/report"
	"github.com/pylab/leaderboard/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCells(t *testing.T) {
	Convey("Given a 34 block bar", t, func() {
		Convey("Then scores should split into filled and empty blocks", func() {
			f, e := terminal.Cells(0, 34)
			So([]int{f, e}, ShouldResemble, []int{0, 34})
			f, e = terminal.Cells(100, 34)
			So([]int{f, e}, ShouldResemble, []int{34, 0})
			f, e = terminal.Cells(50, 34)
			So([]int{f, e}, ShouldResemble, []int{17, 17})
			f, e = terminal.Cells(140, 34)
			So([]int{f, e}, ShouldResemble, []int{34, 0})
		})
	})
}

func TestView(t *testing.T) {
	Convey("Given a view writing to a plain buffer", t, func() {
		var buf bytes.Buffer
		v := terminal.New(&buf, 0)
		board := types.Leaderboard{
			{Rank: 1, Username: "bob", Lectures: 2, TotalScore: 180},
			{Rank: 2, Username: "alice", Lectures: 1, TotalScore: 90},
		}

		Convey("When drawing a bar", func() {
			bar := v.Bar(50)

			Convey("Then it should span the default width", func() {
				So(strings.Count(bar, "█")+strings.Count(bar, "░"), ShouldEqual, terminal.DefaultBlocks)
			})
		})

		Convey("When rendering KPIs", func() {
			out := v.KPIs(board.Summary())

			Convey("Then the headline figures should appear", func() {
				So(out, ShouldContainSubstring, "Highest Total Score")
				So(out, ShouldContainSubstring, "180")
				So(out, ShouldContainSubstring, "Students")
			})
		})

		Convey("When rendering the table", func() {
			out := v.Table(board)

			Convey("Then every entry should be listed in order", func() {
				So(out, ShouldContainSubstring, "Total Score")
				So(strings.Index(out, "bob"), ShouldBeLessThan, strings.Index(out, "alice"))
			})
		})

		Convey("When rendering an empty table and chart", func() {
			Convey("Then a placeholder should be shown", func() {
				So(v.Table(nil), ShouldContainSubstring, "No results yet")
				So(v.TopChart(nil), ShouldContainSubstring, "No results yet")
			})
		})

		Convey("When rendering the top chart", func() {
			lines := strings.Split(v.TopChart(board), "\n")

			Convey("Then bars should scale to the leader", func() {
				So(lines, ShouldHaveLength, 2)
				So(strings.Count(lines[0], "█"), ShouldEqual, 34)
				So(strings.Count(lines[1], "█"), ShouldEqual, 17)
			})
		})

		Convey("When rendering a profile", func() {
			spec := report.NewSpec(board[0], []model.LectureScore{{Lecture: 1, Score: 100}, {Lecture: 2, Score: 80}})
			out := v.Profile(spec)

			Convey("Then the header and a bar per lecture should appear", func() {
				So(out, ShouldContainSubstring, "Student Profile: bob")
				So(out, ShouldContainSubstring, "Average Score: 90.00")
				So(out, ShouldContainSubstring, "Lecture 1")
				So(out, ShouldContainSubstring, "Lecture 2")
				So(strings.Count(out, "█"), ShouldEqual, 34+27)
			})
		})

		Convey("When rendering a profile without lectures", func() {
			out := v.Profile(report.NewSpec(types.Entry{Username: "new"}, nil))

			Convey("Then a placeholder should be shown", func() {
				So(out, ShouldContainSubstring, "No per-lecture results")
			})
		})
	})
}
