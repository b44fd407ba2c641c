package normalize_test

import (
	"context"
	"errors"
	"testing"

	"github.com/pylab/leaderboard/internal/domain/model"
	"github.com/pylab/leaderboard/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

func row(line int, fields map[string]string) model.RawRow {
	return model.RawRow{Fields: fields, Source: "batch.csv", Line: line}
}

func TestNormalizer_Column(t *testing.T) {
	Convey("Given a default normalizer", t, func() {
		n := normalize.New()

		Convey("When headers vary in case and whitespace", func() {
			Convey("Then they should fold to canonical names", func() {
				So(n.Column("  Username "), ShouldEqual, "username")
				So(n.Column("LECTURE"), ShouldEqual, "lecture")
				So(n.Column("\ufeffscore"), ShouldEqual, "score")
			})
		})

		Convey("When the header is a known score alias", func() {
			Convey("Then it should map to score", func() {
				So(n.Column("Score (%)"), ShouldEqual, "score")
				So(n.Column("score  (%)"), ShouldEqual, "score")
				So(n.Column("Percentage"), ShouldEqual, "score")
			})
		})

		Convey("When the header is unknown", func() {
			Convey("Then it should pass through folded", func() {
				So(n.Column("Submitted At"), ShouldEqual, "submitted_at")
			})
		})
	})

	Convey("Given a normalizer with custom aliases", t, func() {
		n := normalize.New(normalize.WithAliases(map[string]string{
			"Mark":      model.ColumnScore,
			"Nick Name": model.ColumnUsername,
		}))

		Convey("Then the custom aliases should apply after folding", func() {
			So(n.Column("MARK"), ShouldEqual, "score")
			So(n.Column("nick   name"), ShouldEqual, "username")
		})

		Convey("Then built-in aliases should still apply", func() {
			So(n.Column("Score (%)"), ShouldEqual, "score")
		})
	})
}

func TestNormalizer_RequireColumns(t *testing.T) {
	Convey("Given a default normalizer", t, func() {
		n := normalize.New()

		Convey("When the header has all columns under aliases", func() {
			err := n.RequireColumns("a.csv", []string{"User", "Lecture", "Score (%)"})

			Convey("Then it should pass", func() {
				So(err, ShouldBeNil)
			})
		})

		Convey("When the header lacks the score column", func() {
			err := n.RequireColumns("a.csv", []string{"username", "lecture", "comment"})

			Convey("Then it should report the missing column", func() {
				So(errors.Is(err, normalize.ErrMissingColumns), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "a.csv")
				So(err.Error(), ShouldContainSubstring, "score")
			})
		})
	})
}

func TestNormalizer_Normalize(t *testing.T) {
	Convey("Given a default normalizer", t, func() {
		ctx := context.Background()
		n := normalize.New()

		Convey("When rows are well formed", func() {
			rows := []model.RawRow{
				row(1, map[string]string{"Username": " alice ", "Lecture": "1", "Score (%)": "90"}),
				row(2, map[string]string{"Username": "bob", "Lecture": "3.0", "Score (%)": " 72.5 "}),
				row(3, map[string]string{"Username": "alice", "Lecture": "2", "Score (%)": "0"}),
			}

			records, stats := n.Normalize(ctx, rows)

			Convey("Then every row should become a record in order", func() {
				So(stats.Accepted, ShouldEqual, 3)
				So(stats.Dropped, ShouldEqual, 0)
				So(records, ShouldResemble, []model.ScoreRecord{
					{Username: "alice", Lecture: 1, Score: 90, Source: "batch.csv"},
					{Username: "bob", Lecture: 3, Score: 72.5, Source: "batch.csv"},
					{Username: "alice", Lecture: 2, Score: 0, Source: "batch.csv"},
				})
			})
		})

		Convey("When rows are malformed", func() {
			rows := []model.RawRow{
				row(1, map[string]string{"username": "", "lecture": "1", "score": "50"}),
				row(2, map[string]string{"username": "a", "lecture": "abc", "score": "50"}),
				row(3, map[string]string{"username": "a", "lecture": "1.5", "score": "50"}),
				row(4, map[string]string{"username": "a", "lecture": "-1", "score": "50"}),
				row(5, map[string]string{"username": "a", "lecture": "1", "score": "n/a"}),
				row(6, map[string]string{"username": "a", "lecture": "1", "score": "101"}),
				row(7, map[string]string{"username": "a", "lecture": "1", "score": "NaN"}),
				row(8, map[string]string{"username": "a", "lecture": "1"}),
				row(9, map[string]string{"username": "ok", "lecture": "4", "score": "100"}),
			}

			records, stats := n.Normalize(ctx, rows)

			Convey("Then only the valid row should survive", func() {
				So(records, ShouldHaveLength, 1)
				So(records[0].Username, ShouldEqual, "ok")
				So(records[0].Score, ShouldEqual, 100)
			})

			Convey("Then drops should be counted by reason", func() {
				So(stats.Accepted, ShouldEqual, 1)
				So(stats.Dropped, ShouldEqual, 8)
				So(stats.ByReason[normalize.ReasonEmptyUsername], ShouldEqual, 1)
				So(stats.ByReason[normalize.ReasonInvalidLecture], ShouldEqual, 3)
				So(stats.ByReason[normalize.ReasonInvalidScore], ShouldEqual, 2)
				So(stats.ByReason[normalize.ReasonScoreOutOfRange], ShouldEqual, 1)
				So(stats.ByReason[normalize.ReasonMissingField], ShouldEqual, 1)
			})

			Convey("Then failures should carry their location", func() {
				So(stats.Failures, ShouldHaveLength, 8)
				first := stats.Failures[0]
				So(first.Line, ShouldEqual, 1)
				So(first.Source, ShouldEqual, "batch.csv")
				So(errors.Is(first, normalize.ErrMalformedRow), ShouldBeTrue)
				So(stats.Failures[1].Error(), ShouldEqual, `batch.csv:2: invalid_lecture ("abc")`)
			})
		})

		Convey("When two headers map to the same column", func() {
			rows := []model.RawRow{
				row(1, map[string]string{"username": "a", "lecture": "1", "Percent": "10", "Score": "20"}),
			}

			records, _ := n.Normalize(ctx, rows)

			Convey("Then the canonical header should win", func() {
				So(records, ShouldHaveLength, 1)
				So(records[0].Score, ShouldEqual, 20)
			})
		})

		Convey("When there are no rows", func() {
			records, stats := n.Normalize(ctx, nil)

			Convey("Then the result should be empty", func() {
				So(records, ShouldBeEmpty)
				So(stats.Accepted, ShouldEqual, 0)
				So(stats.Dropped, ShouldEqual, 0)
			})
		})
	})
}
