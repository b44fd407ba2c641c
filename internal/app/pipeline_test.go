package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pylab/leaderboard/internal/adapters/ingest"
	"github.com/pylab/leaderboard/internal/adapters/repository"
	service "github.com/pylab/leaderboard/internal/app"
	"github.com/pylab/leaderboard/internal/domain/types"
	"github.com/pylab/leaderboard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.InitWithWriter(os.Stderr); err != nil {
		panic(err)
	}
}

type workspace struct {
	in, out string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	root := t.TempDir()
	ws := workspace{in: filepath.Join(root, "input"), out: filepath.Join(root, "output")}
	if err := os.MkdirAll(ws.in, 0o755); err != nil {
		t.Fatal(err)
	}
	return ws
}

func (w workspace) write(t *testing.T, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(w.in, name), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func (w workspace) service(opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithInputDir(w.in),
		service.WithLeaderboardPath(filepath.Join(w.out, "leaderboard.csv")),
		service.WithDetailPath(filepath.Join(w.out, "results_by_lecture.csv")),
		service.WithReportDir(filepath.Join(w.out, "reports")),
		service.WithLogger(logger.Get()),
	}
	return service.New(append(base, opts...)...)
}

func TestService_Run(t *testing.T) {
	Convey("Given a resubmission across two batches", t, func() {
		ctx := context.Background()
		ws := newWorkspace(t)
		ws.write(t, "01_batch.csv", "Username,Lecture,Score (%)\nalice,1,80\nbob,1,90\n")
		ws.write(t, "02_batch.csv", "username,lecture,score\nalice,1,85\n")

		rep, err := ws.service().Run(ctx)

		Convey("Then the later score should win and bob should lead", func() {
			So(err, ShouldBeNil)
			So(rep.BatchID, ShouldNotBeEmpty)
			So(rep.Sources, ShouldResemble, []string{"01_batch.csv", "02_batch.csv"})
			So(rep.RowsRead, ShouldEqual, 3)
			So(rep.Overwritten, ShouldEqual, 1)
			So(rep.Board, ShouldResemble, types.Leaderboard{
				{Rank: 1, Username: "bob", Lectures: 1, TotalScore: 90},
				{Rank: 2, Username: "alice", Lectures: 1, TotalScore: 85},
			})
		})

		Convey("Then both artifacts should be written", func() {
			board, err := repository.ReadLeaderboard(filepath.Join(ws.out, "leaderboard.csv"))
			So(err, ShouldBeNil)
			So(board, ShouldResemble, rep.Board)

			detail, err := repository.ReadDetail(filepath.Join(ws.out, "results_by_lecture.csv"))
			So(err, ShouldBeNil)
			So(detail, ShouldResemble, rep.Detail)
		})

		Convey("Then a rerun should produce a byte-identical leaderboard", func() {
			first, _ := os.ReadFile(filepath.Join(ws.out, "leaderboard.csv"))
			_, err := ws.service().Run(ctx)
			So(err, ShouldBeNil)
			second, _ := os.ReadFile(filepath.Join(ws.out, "leaderboard.csv"))
			So(second, ShouldResemble, first)
		})
	})

	Convey("Given sources with malformed rows", t, func() {
		ws := newWorkspace(t)
		ws.write(t, "a.csv", "username,lecture,score\n,1,50\ncarol,x,50\ncarol,1,150\ncarol,2,40\n")

		rep, err := ws.service().Run(context.Background())

		Convey("Then bad rows should be dropped and counted", func() {
			So(err, ShouldBeNil)
			So(rep.Dropped, ShouldEqual, 3)
			So(rep.Accepted, ShouldEqual, 1)
			So(rep.Failures, ShouldHaveLength, 3)
			So(rep.Board, ShouldHaveLength, 1)
			So(rep.Board[0].TotalScore, ShouldEqual, 40)
		})
	})

	Convey("Given custom header aliases", t, func() {
		ws := newWorkspace(t)
		ws.write(t, "a.csv", "nick,lecture,mark\ndan,1,70\n")

		rep, err := ws.service(service.WithAliases(map[string]string{"nick": "username", "mark": "score"})).Run(context.Background())

		Convey("Then the aliased columns should be used", func() {
			So(err, ShouldBeNil)
			So(rep.Board[0].Username, ShouldEqual, "dan")
		})
	})

	Convey("Given an empty input directory", t, func() {
		ws := newWorkspace(t)

		rep, err := ws.service().Run(context.Background())

		Convey("Then the leaderboard should be empty", func() {
			So(err, ShouldBeNil)
			So(rep.Board, ShouldBeEmpty)
			board, err := repository.ReadLeaderboard(filepath.Join(ws.out, "leaderboard.csv"))
			So(err, ShouldBeNil)
			So(board, ShouldBeEmpty)
		})
	})

	Convey("Given a missing input directory", t, func() {
		ws := newWorkspace(t)
		So(os.Remove(ws.in), ShouldBeNil)

		rep, err := ws.service().Run(context.Background())

		Convey("Then it should fail with missing input and write nothing", func() {
			So(rep, ShouldBeNil)
			So(errors.Is(err, ingest.ErrMissingInput), ShouldBeTrue)
			_, statErr := os.Stat(ws.out)
			So(os.IsNotExist(statErr), ShouldBeTrue)
		})
	})

	Convey("Given a source without a score column", t, func() {
		ws := newWorkspace(t)
		ws.write(t, "a.csv", "username,lecture\nalice,1\n")

		_, err := ws.service().Run(context.Background())

		Convey("Then the run should fail as missing input", func() {
			So(errors.Is(err, ingest.ErrMissingInput), ShouldBeTrue)
		})
	})
}
