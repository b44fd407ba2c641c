package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/pylab/leaderboard/internal/adapters/mq/queue"
	"github.com/pylab/leaderboard/internal/adapters/mq/worker"
	"github.com/pylab/leaderboard/internal/domain/model"
	"github.com/pylab/leaderboard/internal/domain/ranking"
	"github.com/pylab/leaderboard/internal/domain/report"
	"github.com/pylab/leaderboard/internal/domain/types"
	"github.com/pylab/leaderboard/pkg/logger"
	"github.com/pylab/leaderboard/pkg/metrics"
)

// RenderReport renders spec in every configured format into the report dir.
// Formats are attempted independently; the returned error joins any failures.
func (s *Service) RenderReport(ctx context.Context, spec report.Spec) ([]string, error) {
	var (
		paths []string
		errs  []error
	)
	for _, format := range s.formats {
		p, err := s.render(ctx, spec, format)
		paths = append(paths, p...)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return paths, errors.Join(errs...)
}

func (s *Service) render(ctx context.Context, spec report.Spec, format string) ([]string, error) {
	r, ok := s.renderers[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}

	start := time.Now()
	paths, err := r.Render(ctx, spec, s.reportDir)
	metrics.RecordRender(format, err == nil, float64(time.Since(start).Milliseconds()), len(paths))
	return paths, err
}

// RenderAll renders every student on board through the worker pool. Results
// come back in board order, one per (student, format); a failed job never
// stops the others. When ctx ends first, every job that did not run is
// returned with the context error and RenderAll returns it too.
func (s *Service) RenderAll(ctx context.Context, board types.Leaderboard, detail []ranking.DetailRow) ([]model.RenderResult, error) {
	specs := make(map[string]report.Spec, len(board))
	for _, e := range board {
		specs[e.Username] = report.NewSpec(e, ranking.LecturesFor(detail, e.Username))
	}

	processor := worker.ProcessorFunc(func(ctx context.Context, job queue.Job) ([]string, error) {
		spec, ok := specs[job.Username]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownStudent, job.Username)
		}
		return s.render(ctx, spec, job.Format)
	})

	total := len(board) * len(s.formats)
	results := make(chan model.RenderResult, total)
	q := queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	pool := worker.NewPool(s.workerCount, q, processor, results,
		worker.WithLogger(s.logger.Named("render")))
	pool.Start(ctx)

	var enqueueErr error
	jobs := make([]model.RenderJob, 0, total)
	for _, e := range board {
		for _, format := range s.formats {
			job := model.RenderJob{Seq: len(jobs), Username: e.Username, Format: format}
			if err := q.Put(ctx, job); err != nil {
				enqueueErr = err
				break
			}
			jobs = append(jobs, job)
		}
		if enqueueErr != nil {
			break
		}
	}
	_ = q.Close()
	pool.Wait()
	close(results)

	out := make([]model.RenderResult, 0, total)
	done := make(map[int]bool, len(jobs))
	for r := range results {
		done[r.Job.Seq] = true
		out = append(out, r)
	}

	// Workers stop on cancellation and leave queued jobs behind. Those jobs
	// are reported as failed rather than dropped.
	if len(done) < len(jobs) {
		abandoned := ctx.Err()
		if abandoned == nil {
			abandoned = ErrAbandoned
		}
		for _, job := range jobs {
			if !done[job.Seq] {
				out = append(out, model.RenderResult{Job: job, Err: abandoned})
			}
		}
		if enqueueErr == nil {
			enqueueErr = abandoned
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Job.Seq < out[b].Job.Seq })

	failed := 0
	for _, r := range out {
		if r.Err != nil {
			failed++
		}
	}

	s.logger.Info(ctx, "reports rendered",
		logger.Int("jobs", len(out)),
		logger.Int("failed", failed),
		logger.Int("workers", pool.Size()))
	return out, enqueueErr
}
