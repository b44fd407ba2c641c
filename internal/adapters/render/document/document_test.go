package document_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pylab/leaderboard/internal/adapters/render/document"
	"github.com/pylab/leaderboard/internal/domain/model"
	"github.com/pylab/leaderboard/internal/domain/report"
	"github.com/pylab/leaderboard/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func spec(user string, n int) report.Spec {
	per := make([]model.LectureScore, n)
	for i := range per {
		per[i] = model.LectureScore{Lecture: i + 1, Score: float64(i % 101)}
	}
	return report.NewSpec(types.Entry{Username: user, Lectures: n, TotalScore: float64(n)}, per)
}

func TestRenderer_Write(t *testing.T) {
	Convey("Given a document renderer", t, func() {
		r := document.New()

		Convey("When writing a short report", func() {
			var buf bytes.Buffer
			pages, err := r.Write(&buf, report.Layout(spec("alice", 3), report.DocumentGeometry))

			Convey("Then a one-page PDF should be produced", func() {
				So(err, ShouldBeNil)
				So(pages, ShouldEqual, 1)
				So(bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")), ShouldBeTrue)
			})
		})

		Convey("When writing a report with many lectures", func() {
			doc := report.Layout(spec("bob", 80), report.DocumentGeometry)
			var buf bytes.Buffer
			pages, err := r.Write(&buf, doc)

			Convey("Then every laid-out page should be emitted", func() {
				So(err, ShouldBeNil)
				So(pages, ShouldBeGreaterThan, 1)
				So(pages, ShouldEqual, len(doc.Pages))
			})
		})

		Convey("When writing a header-only report", func() {
			var buf bytes.Buffer
			pages, err := r.Write(&buf, report.Layout(spec("new", 0), report.DocumentGeometry))

			Convey("Then a single page should still be produced", func() {
				So(err, ShouldBeNil)
				So(pages, ShouldEqual, 1)
			})
		})

		Convey("When writing the same report twice", func() {
			doc := report.Layout(spec("Zoë", 5), report.DocumentGeometry)
			var a, b bytes.Buffer
			_, errA := r.Write(&a, doc)
			_, errB := r.Write(&b, doc)

			Convey("Then the output should be byte-identical", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(a.Bytes(), ShouldResemble, b.Bytes())
			})
		})
	})
}

func TestRenderer_Render(t *testing.T) {
	Convey("Given a document renderer and an output dir", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		r := document.New()

		Convey("When rendering a report", func() {
			paths, err := r.Render(ctx, spec("carol", 4), dir)

			Convey("Then one named PDF should be written", func() {
				So(err, ShouldBeNil)
				So(paths, ShouldResemble, []string{filepath.Join(dir, "carol_profile.pdf")})
				info, statErr := os.Stat(paths[0])
				So(statErr, ShouldBeNil)
				So(info.Size(), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			_, err := r.Render(cctx, spec("dave", 1), dir)

			Convey("Then the cancellation should be returned", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})

		Convey("When the output dir is a file", func() {
			blocker := filepath.Join(dir, "file")
			So(os.WriteFile(blocker, []byte("x"), 0o600), ShouldBeNil)

			_, err := r.Render(ctx, spec("erin", 1), blocker)

			Convey("Then a render error should be returned", func() {
				So(errors.Is(err, report.ErrRender), ShouldBeTrue)
			})
		})
	})
}
