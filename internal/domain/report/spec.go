// Package report builds the per-student report model and its backend-neutral
// page layout. Raster and document backends draw the same layout.
package report

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/pylab/leaderboard/internal/domain/model"
	"github.com/pylab/leaderboard/internal/domain/types"
)

// Spec is everything a report shows about one student.
type Spec struct {
	Username       string
	TotalScore     float64
	AverageScore   float64
	LecturesPassed int
	PerLecture     []model.LectureScore
}

// NewSpec builds a Spec from a leaderboard entry and that student's
// per-lecture scores. The average is rounded to two decimals and lectures
// are sorted ascending.
func NewSpec(entry types.Entry, lectures []model.LectureScore) Spec {
	per := make([]model.LectureScore, len(lectures))
	copy(per, lectures)
	sort.SliceStable(per, func(a, b int) bool { return per[a].Lecture < per[b].Lecture })

	return Spec{
		Username:       entry.Username,
		TotalScore:     entry.TotalScore,
		AverageScore:   math.Round(entry.TotalScore/float64(max(entry.Lectures, 1))*100) / 100,
		LecturesPassed: entry.Lectures,
		PerLecture:     per,
	}
}

// Renderer draws a Spec into one or more files under dir and returns their
// paths in page order.
type Renderer interface {
	Format() string
	Render(ctx context.Context, spec Spec, dir string) ([]string, error)
}

// stemHashLen is the number of hex digits of the username digest appended
// to stems that differ from the raw username.
const stemHashLen = 12

// FileStem returns a filesystem-safe base name for username's reports. The
// mapping is one-to-one: whenever sanitizing changes the name, or the name
// already ends like a digest suffix, a digest of the raw username is
// appended.
func FileStem(username string) string {
	var b strings.Builder
	for _, r := range username {
		switch {
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	stem := strings.Trim(b.String(), ".")
	if stem == "" {
		stem = "student"
	}
	if stem != username || hasDigestSuffix(stem) {
		sum := sha256.Sum256([]byte(username))
		stem += "-" + hex.EncodeToString(sum[:])[:stemHashLen]
	}
	return stem + "_profile"
}

func hasDigestSuffix(s string) bool {
	if len(s) <= stemHashLen || s[len(s)-stemHashLen-1] != '-' {
		return false
	}
	for _, r := range s[len(s)-stemHashLen:] {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return true
}

// PageFile names page n (1-based) of a report. The first page carries no
// suffix.
func PageFile(username, ext string, page int) string {
	if page <= 1 {
		return FileStem(username) + "." + ext
	}
	return FileStem(username) + "_p" + strconv.Itoa(page) + "." + ext
}

// FormatScore renders a score with the shortest exact representation.
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
