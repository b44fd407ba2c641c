package scoregen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pylab/leaderboard/pkg/logger"
)

// ErrInvalidConfig is returned when a Config cannot produce any batch.
var ErrInvalidConfig = errors.New("invalid generator config")

// Result is what a generation run produced.
type Result struct {
	Batches  []Batch
	Expected []Expected
	Stats    Stats
}

func validate(cfg *Config) error {
	switch {
	case cfg.OutputDir == "":
		return fmt.Errorf("%w: output dir is required", ErrInvalidConfig)
	case cfg.Students < 0 || cfg.Lectures < 0:
		return fmt.Errorf("%w: students and lectures must not be negative", ErrInvalidConfig)
	case cfg.Batches < 1:
		return fmt.Errorf("%w: at least one batch is required", ErrInvalidConfig)
	case cfg.Attendance < 0 || cfg.Attendance > 1,
		cfg.ResubmitRate < 0 || cfg.ResubmitRate > 1,
		cfg.MalformedRate < 0 || cfg.MalformedRate > 1:
		return fmt.Errorf("%w: rates must be within [0, 1]", ErrInvalidConfig)
	}
	return nil
}

// Run generates every batch, writes them to cfg.OutputDir and returns the
// expected leaderboard alongside run statistics.
func Run(ctx context.Context, cfg *Config, log logger.Logger) (*Result, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	res := &Result{Stats: Stats{StartTime: time.Now(), Students: cfg.Students}}
	log.Info(ctx, "generating score batches",
		logger.String("outputDir", cfg.OutputDir),
		logger.Int("students", cfg.Students),
		logger.Int("lectures", cfg.Lectures),
		logger.Int("batches", cfg.Batches),
		logger.Int("workers", cfg.Workers),
		logger.Any("seed", cfg.Seed))

	plans, err := generatePlans(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	for _, p := range plans {
		res.Stats.Submissions += len(p.valid)
		res.Stats.Resubmitted += p.resubmits
		res.Stats.Malformed += p.malformed
	}

	batches, streams := assemble(cfg, plans)
	res.Batches = batches
	res.Expected = ExpectedBoard(streams)

	if err := os.MkdirAll(cfg.OutputDir, directoryPermission); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	for _, b := range batches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path, err := WriteBatch(cfg.OutputDir, b)
		if err != nil {
			return nil, err
		}
		res.Stats.Files = append(res.Stats.Files, path)
		log.Debug(ctx, "batch written",
			logger.String("path", path),
			logger.Int("valid", b.Valid),
			logger.Int("malformed", b.Invalid))
	}

	res.Stats.EndTime = time.Now()
	res.Stats.Duration = res.Stats.EndTime.Sub(res.Stats.StartTime)
	log.Info(ctx, "score batches generated",
		logger.Int("files", len(res.Stats.Files)),
		logger.Int("submissions", res.Stats.Submissions),
		logger.Int("resubmitted", res.Stats.Resubmitted),
		logger.Int("malformed", res.Stats.Malformed),
		logger.Duration("duration", res.Stats.Duration))
	return res, nil
}
