// Package types contains common types used across the application
package types

// Entry represents a leaderboard row.
type Entry struct {
	Rank       int     `json:"rank"`
	Username   string  `json:"username"`
	Lectures   int     `json:"lectures"`
	TotalScore float64 `json:"total_score"`
}

// Leaderboard is an ordered set of entries, rank 1 first.
type Leaderboard []Entry

// Top returns at most n leading entries.
func (l Leaderboard) Top(n int) Leaderboard {
	if n < 0 {
		n = 0
	}
	if n > len(l) {
		n = len(l)
	}
	return l[:n]
}

// Stats are the headline figures shown above a leaderboard.
type Stats struct {
	HighestScore float64
	MaxLectures  int
	Students     int
}

// Summary computes the headline figures.
func (l Leaderboard) Summary() Stats {
	s := Stats{Students: len(l)}
	for _, e := range l {
		if e.TotalScore > s.HighestScore {
			s.HighestScore = e.TotalScore
		}
		if e.Lectures > s.MaxLectures {
			s.MaxLectures = e.Lectures
		}
	}
	return s
}
