package model

import "time"

// RenderJob asks for one student's report in one format.
type RenderJob struct {
	Seq      int // submission order, used to report results deterministically
	Username string
	Format   string
}

// RenderResult is the outcome of one RenderJob. Err is scoped to the job.
type RenderResult struct {
	Job     RenderJob
	Paths   []string
	Err     error
	Latency time.Duration
}
