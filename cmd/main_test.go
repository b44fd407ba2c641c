package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		_ = os.Setenv(k, v)
	}
	t.Cleanup(func() {
		for k := range kv {
			_ = os.Unsetenv(k)
		}
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given an input directory with one batch", t, func() {
		root := t.TempDir()
		in := filepath.Join(root, "input")
		out := filepath.Join(root, "output")
		promFile := filepath.Join(root, "leaderboard.prom")
		convey.So(os.MkdirAll(in, 0o755), convey.ShouldBeNil)
		convey.So(os.WriteFile(filepath.Join(in, "week1.csv"),
			[]byte("username,lecture,score\nalice,1,80\nbob,1,90\nalice,2,70\n"), 0o600), convey.ShouldBeNil)

		setEnv(t, map[string]string{
			"LEADERBOARD_INPUT_DIR":    in,
			"LEADERBOARD_OUTPUT_DIR":   out,
			"LEADERBOARD_METRICS_FILE": promFile,
			"LEADERBOARD_FORMATS":      "pdf",
		})

		convey.Convey("When the batch runs with reports", func() {
			code := run(true)

			convey.Convey("Then it should succeed and publish everything", func() {
				convey.So(code, convey.ShouldEqual, 0)
				for _, p := range []string{
					filepath.Join(out, "leaderboard.csv"),
					filepath.Join(out, "results_by_lecture.csv"),
					filepath.Join(out, "reports", "alice_profile.pdf"),
					filepath.Join(out, "reports", "bob_profile.pdf"),
					promFile,
				} {
					_, err := os.Stat(p)
					convey.So(err, convey.ShouldBeNil)
				}
			})
		})

		convey.Convey("When the input directory is missing", func() {
			setEnv(t, map[string]string{"LEADERBOARD_INPUT_DIR": filepath.Join(root, "nope")})

			code := run(false)

			convey.Convey("Then it should fail without publishing", func() {
				convey.So(code, convey.ShouldEqual, 1)
				_, err := os.Stat(filepath.Join(out, "leaderboard.csv"))
				convey.So(os.IsNotExist(err), convey.ShouldBeTrue)
			})

			convey.Convey("Then the metrics textfile should still be written", func() {
				_, err := os.Stat(promFile)
				convey.So(err, convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given an invalid configuration", t, func() {
		setEnv(t, map[string]string{"LEADERBOARD_RENDER_WORKERS": "0"})

		convey.Convey("Then run should fail", func() {
			convey.So(run(false), convey.ShouldEqual, 1)
		})
	})
}
