// Package model contains domain models passed between layers.
package model

// Canonical column names of a score record.
const (
	ColumnUsername = "username"
	ColumnLecture  = "lecture"
	ColumnScore    = "score"
)

// Score bounds.
const (
	MinScore = 0.0
	MaxScore = 100.0
)

// RawRow is one ingested row before normalization. Fields are keyed by the
// header exactly as it appeared in the source.
type RawRow struct {
	Fields map[string]string
	Source string // source batch identifier, the input file name
	Line   int    // 1-based data row number within Source
}

// ScoreRecord is a normalized homework score. Values are never mutated once
// produced by the normalizer.
type ScoreRecord struct {
	Username string
	Lecture  int
	Score    float64
	Source   string
}

// Key returns the deduplication key of the record.
func (r ScoreRecord) Key() DedupKey {
	return DedupKey{Username: r.Username, Lecture: r.Lecture}
}

// DedupKey identifies at most one authoritative score.
type DedupKey struct {
	Username string
	Lecture  int
}

// LectureScore is one (lecture, score) pair of a student.
type LectureScore struct {
	Lecture int
	Score   float64
}
