package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/pylab/leaderboard/internal/adapters/repository"
	app "github.com/pylab/leaderboard/internal/app"
	"github.com/pylab/leaderboard/internal/scoregen"
	"github.com/pylab/leaderboard/pkg/logger"
)

// defaultWorkers is a multiplier for runtime.NumCPU().
const defaultWorkers = 2

func main() {
	os.Exit(run())
}

func run() int {
	var (
		outputDir  = flag.String("out", "input", "Directory the batch files are written to")
		students   = flag.Int("students", scoregen.DefaultStudents, "Number of distinct students")
		lectures   = flag.Int("lectures", scoregen.DefaultLectures, "Number of lectures")
		batches    = flag.Int("batches", scoregen.DefaultBatches, "Number of batch files")
		attendance = flag.Float64("attendance", scoregen.DefaultAttendance, "Chance a student submits a lecture")
		resubmit   = flag.Float64("resubmit", scoregen.DefaultResubmitRate, "Chance a submission is resubmitted later")
		malformed  = flag.Float64("malformed", scoregen.DefaultMalformedRate, "Chance of an extra malformed row")
		xlsxEvery  = flag.Int("xlsx-every", scoregen.DefaultXLSXEvery, "Write every Nth batch as a workbook (0 disables)")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent generators")
		seed       = flag.Uint64("seed", scoregen.DefaultSeed, "Random seed")
		verify     = flag.Bool("verify", false, "Run the pipeline on the generated batches and verify the leaderboard")
		verifyDir  = flag.String("verify-dir", "", "Artifact directory for -verify (default: a temporary directory)")
		logLevel   = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	if err := logger.InitWithWriter(os.Stderr); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	if err := logger.SetLevelString(*logLevel); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		return 2
	}
	log := logger.Named("scoregen")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := &scoregen.Config{
		OutputDir:     *outputDir,
		Students:      *students,
		Lectures:      *lectures,
		Batches:       *batches,
		Attendance:    *attendance,
		ResubmitRate:  *resubmit,
		MalformedRate: *malformed,
		XLSXEvery:     *xlsxEvery,
		Workers:       *workers,
		Seed:          *seed,
	}

	res, err := scoregen.Run(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "generation failed", logger.Error(err))
		return 1
	}
	fmt.Printf("Wrote %d files to %s: %d submissions, %d resubmitted, %d malformed, %d ranked students\n",
		len(res.Stats.Files), cfg.OutputDir, res.Stats.Submissions, res.Stats.Resubmitted,
		res.Stats.Malformed, len(res.Expected))

	if !*verify {
		return 0
	}

	dir := *verifyDir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "scoregen-verify-*")
		if err != nil {
			log.Error(ctx, "failed to create verify dir", logger.Error(err))
			return 1
		}
		defer func() { _ = os.RemoveAll(tmp) }()
		dir = tmp
	}

	lbPath := filepath.Join(dir, "leaderboard.csv")
	svc := app.New(
		app.WithLogger(logger.Named("pipeline")),
		app.WithInputDir(cfg.OutputDir),
		app.WithLeaderboardPath(lbPath),
		app.WithDetailPath(filepath.Join(dir, "results_by_lecture.csv")),
	)
	if _, err := svc.Run(ctx); err != nil {
		log.Error(ctx, "pipeline failed", logger.Error(err))
		return 1
	}

	board, err := repository.ReadLeaderboard(lbPath)
	if err != nil {
		log.Error(ctx, "failed to read leaderboard", logger.Error(err))
		return 1
	}
	if err := scoregen.Verify(board, res.Expected); err != nil {
		log.Error(ctx, "leaderboard verification failed", logger.Error(err))
		return 1
	}
	fmt.Printf("Leaderboard verified: %d students\n", len(board))
	return 0
}
