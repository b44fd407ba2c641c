package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pylab/leaderboard/internal/adapters/repository"
	"github.com/pylab/leaderboard/internal/adapters/terminal"
	app "github.com/pylab/leaderboard/internal/app"
	"github.com/pylab/leaderboard/internal/config"
	"github.com/pylab/leaderboard/internal/display"
	"github.com/pylab/leaderboard/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		search = flag.String("search", "", "Show the profile of the best-ranked student whose name contains this text")
		topN   = flag.Int("top", 0, "Number of entries in the top chart (default from config)")
		all    = flag.Bool("all", false, "Show the full leaderboard table")
		export = flag.Bool("report", false, "Also render the searched student's report files")
	)
	flag.Parse()

	// The board goes to stdout; keep logs out of its way.
	if err := logger.InitWithWriter(os.Stderr); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	log := logger.Get().Named("dashboard")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}
	if *topN < 1 {
		*topN = cfg.TopN
	}

	table, err := display.NewCache(display.WithLogger(log)).Load(ctx, cfg.LeaderboardPath(), cfg.DetailPath())
	if errors.Is(err, repository.ErrMissingInput) {
		fmt.Println("No leaderboard yet. Run the batch first.")
		return 1
	}
	if err != nil {
		log.Error(ctx, "failed to load leaderboard", logger.Error(err))
		return 1
	}

	view := terminal.New(os.Stdout, cfg.BarBlocks)
	board := table.Board(ctx)
	fmt.Println(view.KPIs(board.Summary()))
	fmt.Println()
	fmt.Printf("Top %d\n", *topN)
	fmt.Println(view.TopChart(board.Top(*topN)))

	if *all {
		fmt.Println()
		fmt.Println(view.Table(board))
	}

	if *search == "" {
		return 0
	}

	entry, err := table.Lookup(ctx, *search)
	if errors.Is(err, repository.ErrNotFound) {
		fmt.Printf("\nNo student matches %q.\n", *search)
		return 0
	}
	if err != nil {
		log.Error(ctx, "search failed", logger.Error(err))
		return 1
	}

	spec := table.Spec(entry)
	fmt.Println()
	fmt.Println(view.Profile(spec))

	if !*export {
		return 0
	}

	svc := app.New(
		app.WithLogger(log),
		app.WithReportDir(cfg.ReportPath()),
		app.WithFormats(cfg.FormatList()...),
	)
	paths, err := svc.RenderReport(ctx, spec)
	for _, p := range paths {
		fmt.Println("wrote", p)
	}
	if err != nil {
		log.Error(ctx, "report export failed", logger.Error(err))
		return 1
	}
	return 0
}
