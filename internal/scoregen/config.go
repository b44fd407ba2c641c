// Package scoregen produces synthetic score batches for exercising the
// pipeline end to end and verifying what it publishes.
package scoregen

import "time"

// Config holds configuration for one generation run.
type Config struct {
	OutputDir     string  // directory the batch files are written to
	Students      int     // number of distinct students
	Lectures      int     // lectures numbered 1..Lectures
	Batches       int     // number of batch files
	Attendance    float64 // chance a student submits a given lecture
	ResubmitRate  float64 // chance a submission is resubmitted in a later batch
	MalformedRate float64 // chance of an extra malformed row after each valid one
	XLSXEvery     int     // every Nth batch is a workbook; 0 disables workbooks
	Workers       int     // concurrent student generators
	Seed          uint64
}

// Submission is one valid row as written to a batch.
type Submission struct {
	Username string
	Lecture  int
	Score    float64
}

// Batch is the content of one generated source file.
type Batch struct {
	Name    string
	Header  []string
	Rows    [][]string
	Valid   int
	Invalid int
}

// Expected is the independently computed standing of one student.
type Expected struct {
	Username string
	Lectures int
	Total    float64
}

// Stats holds run statistics.
type Stats struct {
	Students    int
	Submissions int
	Resubmitted int
	Malformed   int
	Files       []string
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
}
