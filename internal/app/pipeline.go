package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/pylab/leaderboard/internal/adapters/ingest"
	"github.com/pylab/leaderboard/internal/adapters/repository"
	"github.com/pylab/leaderboard/internal/domain/dedupe"
	"github.com/pylab/leaderboard/internal/domain/normalize"
	"github.com/pylab/leaderboard/internal/domain/ranking"
	"github.com/pylab/leaderboard/internal/domain/types"
	"github.com/pylab/leaderboard/pkg/logger"
	"github.com/pylab/leaderboard/pkg/metrics"
)

// Batch stages, also used as metric label values.
const (
	stageIngest = "ingest"
	stageWrite  = "write"
)

// BatchReport summarizes one pipeline run.
type BatchReport struct {
	BatchID         string
	Sources         []string
	SkippedSources  []string
	RowsRead        int
	Accepted        int
	Dropped         int
	DroppedByReason map[string]int
	Failures        []*normalize.MalformedRowError
	Overwritten     int
	Board           types.Leaderboard
	Detail          []ranking.DetailRow
	Duration        time.Duration
}

// Run ingests every source, normalizes, deduplicates and ranks the records,
// then writes the leaderboard and detail artifacts. A fatal input error
// returns before anything is written.
func (s *Service) Run(ctx context.Context) (*BatchReport, error) {
	start := time.Now()
	rep := &BatchReport{BatchID: uuid.NewString()}
	log := s.logger.With(logger.String("batch_id", rep.BatchID))

	normalizer := normalize.New(
		normalize.WithAliases(s.aliases),
		normalize.WithLogger(log.Named("normalize")),
	)

	log.Info(ctx, "batch started", logger.String("input_dir", s.inputDir))

	in, err := ingest.New(s.inputDir,
		ingest.WithHeaderCheck(normalizer),
		ingest.WithLogger(log.Named("ingest")),
	).Read(ctx)
	if err != nil {
		metrics.RecordBatchFailure(stageIngest)
		log.Error(ctx, "ingest failed", logger.Error(err))
		return nil, fmt.Errorf("ingest %s: %w", s.inputDir, err)
	}
	rep.Sources = in.Sources
	rep.SkippedSources = in.Skipped
	rep.RowsRead = len(in.Rows)

	records, stats := normalizer.Normalize(ctx, in.Rows)
	rep.Accepted = stats.Accepted
	rep.Dropped = stats.Dropped
	rep.DroppedByReason = stats.ByReason
	rep.Failures = stats.Failures
	for _, reason := range sortedKeys(stats.ByReason) {
		metrics.RecordRowsDropped(reason, stats.ByReason[reason])
	}
	log.Info(ctx, "rows normalized",
		logger.Int("rows", rep.RowsRead),
		logger.Int("accepted", rep.Accepted),
		logger.Int("dropped", rep.Dropped))

	deduped, overwritten := dedupe.Dedupe(ctx, records)
	rep.Overwritten = overwritten
	metrics.RecordDuplicatesOverwritten(overwritten)
	log.Info(ctx, "duplicates removed",
		logger.Int("overwritten", overwritten),
		logger.Int("records", len(deduped)))

	res := ranking.Aggregate(deduped)
	rep.Board = res.Board
	rep.Detail = res.Detail

	if err := repository.WriteArtifacts(s.leaderboardPath, res.Board, s.detailPath, res.Detail); err != nil {
		metrics.RecordBatchFailure(stageWrite)
		log.Error(ctx, "publishing artifacts failed", logger.Error(err))
		return nil, err
	}

	summary := res.Board.Summary()
	metrics.UpdateLeaderboard(summary.Students, len(deduped), summary.HighestScore)
	rep.Duration = time.Since(start)
	metrics.RecordBatchSuccess(float64(rep.Duration.Milliseconds()), time.Now().Unix())

	log.Info(ctx, "batch finished",
		logger.Int("students", summary.Students),
		logger.String("leaderboard", s.leaderboardPath),
		logger.Duration("duration", rep.Duration))
	return rep, nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
