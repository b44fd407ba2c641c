package scoregen

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"

	"github.com/google/uuid"
)

// Performer tiers on the 0..100 scale.
const (
	caseAveragePerformer = iota
	caseHighPerformer
	caseLowPerformer
	caseElitePerformer
	caseVeryLowPerformer
	caseMidHighPerformer
	caseMidLowPerformer
	caseWideRange
	performerTiers
)

// tierRanges holds the lower bound and width of each tier.
var tierRanges = [performerTiers][2]float64{
	caseAveragePerformer: {30, 40},
	caseHighPerformer:    {70, 20},
	caseLowPerformer:     {1, 29},
	caseElitePerformer:   {90, 10},
	caseVeryLowPerformer: {0, 10},
	caseMidHighPerformer: {60, 20},
	caseMidLowPerformer:  {20, 20},
	caseWideRange:        {0, 100},
}

// Malformed row kinds.
const (
	malformedEmptyUser = iota
	malformedScoreText
	malformedScoreRange
	malformedLecture
	malformedKinds
)

type placed struct {
	batch int
	sub   Submission
}

type placedRow struct {
	batch int
	cells []string
}

// studentPlan is everything one student contributes, in emission order.
type studentPlan struct {
	index     int
	username  string
	rows      []placedRow
	valid     []placed
	resubmits int
	malformed int
}

// studentRand derives an independent stream per student so the output does
// not depend on how work is split across workers.
func studentRand(seed uint64, index int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(index)+1))
}

func studentName(seed uint64, index int) string {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:8], seed)
	binary.LittleEndian.PutUint64(key[8:16], uint64(index))
	id, err := uuid.NewRandomFromReader(rand.NewChaCha8(key))
	if err != nil {
		return usernamePrefix + strconv.Itoa(index)
	}
	return usernamePrefix + id.String()[:usernameIDLength]
}

// generateScore draws a score from a randomly chosen performer tier,
// rounded to two decimals.
func generateScore(r *rand.Rand) float64 {
	tier := tierRanges[r.IntN(performerTiers)]
	v := tier[0] + r.Float64()*tier[1]
	return math.Round(v*scoreDecimals) / scoreDecimals
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func malformedCells(r *rand.Rand, username string, lecture int) []string {
	switch r.IntN(malformedKinds) {
	case malformedEmptyUser:
		return []string{"", strconv.Itoa(lecture), formatScore(generateScore(r))}
	case malformedScoreText:
		return []string{username, strconv.Itoa(lecture), "n/a"}
	case malformedScoreRange:
		return []string{username, strconv.Itoa(lecture), formatScore(100 + 1 + r.Float64()*50)}
	default:
		return []string{username, "L" + strconv.Itoa(lecture), formatScore(generateScore(r))}
	}
}

// planStudent decides every row of one student.
func planStudent(cfg *Config, index int, username string) studentPlan {
	r := studentRand(cfg.Seed, index)
	p := studentPlan{index: index, username: username}

	emit := func(batch int, sub Submission) {
		p.valid = append(p.valid, placed{batch: batch, sub: sub})
		p.rows = append(p.rows, placedRow{
			batch: batch,
			cells: []string{sub.Username, strconv.Itoa(sub.Lecture), formatScore(sub.Score)},
		})
		if r.Float64() < cfg.MalformedRate {
			p.malformed++
			p.rows = append(p.rows, placedRow{batch: batch, cells: malformedCells(r, username, sub.Lecture)})
		}
	}

	for lecture := 1; lecture <= cfg.Lectures; lecture++ {
		if r.Float64() >= cfg.Attendance {
			continue
		}
		batch := r.IntN(cfg.Batches)
		emit(batch, Submission{Username: username, Lecture: lecture, Score: generateScore(r)})

		// A resubmission always lands in a strictly later batch, so the
		// later file decides the final score.
		if batch < cfg.Batches-1 && r.Float64() < cfg.ResubmitRate {
			later := batch + 1 + r.IntN(cfg.Batches-batch-1)
			p.resubmits++
			emit(later, Submission{Username: username, Lecture: lecture, Score: generateScore(r)})
		}
	}
	return p
}

// generatePlans plans every student concurrently and returns the plans in
// student order.
func generatePlans(ctx context.Context, cfg *Config) ([]studentPlan, error) {
	names := make([]string, cfg.Students)
	seen := make(map[string]bool, cfg.Students)
	for i := range names {
		name := studentName(cfg.Seed, i)
		if seen[name] {
			name = fmt.Sprintf("%s-%d", name, i)
		}
		seen[name] = true
		names[i] = name
	}

	type planResult struct {
		index int
		plan  studentPlan
		err   error
	}

	plans := make([]studentPlan, cfg.Students)
	if cfg.Students == 0 {
		return plans, nil
	}

	resultChan := make(chan planResult, cfg.Students)
	workerCount := min(max(cfg.Workers, 1), cfg.Students)
	perWorker := cfg.Students / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * perWorker
		end := start + perWorker
		if worker == workerCount-1 {
			end = cfg.Students // Last worker takes the remainder
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- planResult{index: i, err: ctx.Err()}
					return
				default:
					resultChan <- planResult{index: i, plan: planStudent(cfg, i, names[i])}
				}
			}
		}(start, end)
	}

	for i := 0; i < cfg.Students; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during generation: %w", ctx.Err())
		case res := <-resultChan:
			if res.err != nil {
				return nil, fmt.Errorf("failed to plan student %d: %w", res.index, res.err)
			}
			plans[res.index] = res.plan
		}
	}
	return plans, nil
}

// batchName returns the file name of batch i. Names sort in batch order.
func batchName(i int, xlsxEvery int) string {
	ext := ".csv"
	if xlsxEvery > 0 && (i+1)%xlsxEvery == 0 {
		ext = ".xlsx"
	}
	return fmt.Sprintf("batch_%04d%s", i+1, ext)
}

// assemble lays the plans out into batches. Within a batch, rows keep
// student order and each student's emission order.
func assemble(cfg *Config, plans []studentPlan) ([]Batch, [][]Submission) {
	batches := make([]Batch, cfg.Batches)
	streams := make([][]Submission, cfg.Batches)
	for i := range batches {
		batches[i] = Batch{
			Name:   batchName(i, cfg.XLSXEvery),
			Header: headerVariants[i%len(headerVariants)],
		}
	}

	for _, p := range plans {
		for _, row := range p.rows {
			batches[row.batch].Rows = append(batches[row.batch].Rows, row.cells)
		}
		for _, v := range p.valid {
			streams[v.batch] = append(streams[v.batch], v.sub)
			batches[v.batch].Valid++
		}
	}
	for i := range batches {
		batches[i].Invalid = len(batches[i].Rows) - batches[i].Valid
	}
	return batches, streams
}
