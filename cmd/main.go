package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pylab/leaderboard/internal/adapters/terminal"
	app "github.com/pylab/leaderboard/internal/app"
	"github.com/pylab/leaderboard/internal/config"
	"github.com/pylab/leaderboard/pkg/logger"
	"github.com/pylab/leaderboard/pkg/metrics"
)

func main() {
	renderAll := flag.Bool("reports", false, "Render a report for every student after the batch")
	flag.Parse()
	os.Exit(run(*renderAll))
}

// run executes one batch and returns the process exit code.
func run(renderAll bool) int {

	// Logs go to stderr so the summary on stdout stays clean.
	if err := logger.InitWithWriter(os.Stderr); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = logger.Sync() }()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// The textfile is written whatever the outcome so failures are visible too.
	defer func() {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			loggerInstance.Error(ctx, "failed to write metrics", logger.Error(err))
		}
	}()

	svc := app.New(
		app.WithLogger(loggerInstance.Named("pipeline")),
		app.WithInputDir(cfg.InputDir),
		app.WithLeaderboardPath(cfg.LeaderboardPath()),
		app.WithDetailPath(cfg.DetailPath()),
		app.WithReportDir(cfg.ReportPath()),
		app.WithAliases(cfg.ScoreAliases),
		app.WithFormats(cfg.FormatList()...),
		app.WithWorkerCount(cfg.RenderWorkers),
		app.WithQueueSize(cfg.RenderQueueSize),
	)

	rep, err := svc.Run(ctx)
	if err != nil {
		loggerInstance.Error(ctx, "batch failed", logger.Error(err))
		return 1
	}

	view := terminal.New(os.Stdout, cfg.BarBlocks)
	fmt.Printf("Sources: %d  Rows: %d  Dropped: %d  Duplicates removed: %d\n\n",
		len(rep.Sources), rep.RowsRead, rep.Dropped, rep.Overwritten)
	fmt.Println(view.KPIs(rep.Board.Summary()))
	fmt.Println(view.Table(rep.Board))

	if !renderAll {
		return 0
	}

	results, err := svc.RenderAll(ctx, rep.Board, rep.Detail)
	if err != nil {
		loggerInstance.Error(ctx, "report rendering interrupted", logger.Error(err))
		return 1
	}
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "report %s (%s): %v\n", r.Job.Username, r.Job.Format, r.Err)
		}
	}
	fmt.Printf("\nReports: %d written, %d failed, in %s\n", len(results)-failed, failed, cfg.ReportPath())
	if failed > 0 {
		return 1
	}
	return 0
}
