package config_test

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/pylab/leaderboard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.InputDir, convey.ShouldEqual, "input")
			convey.So(cfg.OutputDir, convey.ShouldEqual, "output")
			convey.So(cfg.LeaderboardFile, convey.ShouldEqual, "leaderboard.csv")
			convey.So(cfg.DetailFile, convey.ShouldEqual, "results_by_lecture.csv")
			convey.So(cfg.RenderWorkers, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.BarBlocks, convey.ShouldEqual, 34)
			convey.So(cfg.TopN, convey.ShouldEqual, 10)
		})

		convey.Convey("Then derived paths should join the output dir", func() {
			convey.So(cfg.LeaderboardPath(), convey.ShouldEqual, filepath.Join("output", "leaderboard.csv"))
			convey.So(cfg.DetailPath(), convey.ShouldEqual, filepath.Join("output", "results_by_lecture.csv"))
			convey.So(cfg.ReportPath(), convey.ShouldEqual, filepath.Join("output", "reports"))
		})

		convey.Convey("Then an explicit report dir wins", func() {
			cfg.ReportDir = "/tmp/r"
			convey.So(cfg.ReportPath(), convey.ShouldEqual, "/tmp/r")
		})
	})
}

func TestConfig_FormatList(t *testing.T) {
	convey.Convey("Given a formats string", t, func() {
		cfg := config.New()

		convey.Convey("When it has spaces, case and repeats", func() {
			cfg.Formats = " PNG, pdf ,png,,"

			convey.Convey("Then it should be cleaned up in order", func() {
				convey.So(cfg.FormatList(), convey.ShouldResemble, []string{"png", "pdf"})
			})
		})

		convey.Convey("When it is empty", func() {
			cfg.Formats = ""

			convey.Convey("Then the list should be empty", func() {
				convey.So(cfg.FormatList(), convey.ShouldBeEmpty)
			})
		})
	})
}
