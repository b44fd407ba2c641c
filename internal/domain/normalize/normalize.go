// Package normalize turns heterogeneous raw rows into uniform score records.
package normalize

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/pylab/leaderboard/internal/domain/model"
	"github.com/pylab/leaderboard/pkg/logger"
)

// defaultAliases maps normalized header spellings seen in exports to the
// canonical column names.
var defaultAliases = map[string]string{
	"score_(%)":      model.ColumnScore,
	"score(%)":       model.ColumnScore,
	"score_%":        model.ColumnScore,
	"score%":         model.ColumnScore,
	"percent":        model.ColumnScore,
	"percentage":     model.ColumnScore,
	"user":           model.ColumnUsername,
	"user_name":      model.ColumnUsername,
	"login":          model.ColumnUsername,
	"student":        model.ColumnUsername,
	"lecture_no":     model.ColumnLecture,
	"lecture_number": model.ColumnLecture,
	"lesson":         model.ColumnLecture,
}

var requiredColumns = []string{model.ColumnUsername, model.ColumnLecture, model.ColumnScore}

// Stats carries the diagnostics of one Normalize call.
type Stats struct {
	Accepted int
	Dropped  int
	ByReason map[string]int
	// Failures keeps the first few dropped rows for diagnostics.
	Failures []*MalformedRowError
}

// Normalizer canonicalizes raw rows. It is not safe for concurrent use; the
// pipeline owns one per batch.
type Normalizer struct {
	caser   cases.Caser
	aliases map[string]string
	logger  logger.Logger
}

// New constructs a Normalizer with the built-in alias table.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		caser:   cases.Fold(),
		aliases: make(map[string]string, len(defaultAliases)),
		logger:  logger.Nop(),
	}
	for k, v := range defaultAliases {
		n.aliases[k] = v
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// fold lower-cases s, trims it and collapses internal whitespace runs into a
// single underscore.
func (n *Normalizer) fold(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = n.caser.String(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('_')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// Column returns the canonical name for a raw header.
func (n *Normalizer) Column(header string) string {
	name := n.fold(header)
	if canonical, ok := n.aliases[name]; ok {
		return canonical
	}
	return name
}

// RequireColumns fails when a source header cannot supply every canonical
// column. A source like that is structurally broken, not a bad row.
func (n *Normalizer) RequireColumns(source string, header []string) error {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[n.Column(h)] = true
	}
	var missing []string
	for _, col := range requiredColumns {
		if !have[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s lacks %s", ErrMissingColumns, source, strings.Join(missing, ", "))
	}
	return nil
}

// Normalize converts rows into records, keeping input order. Malformed rows
// are dropped and reported through Stats, never returned as an error.
func (n *Normalizer) Normalize(ctx context.Context, rows []model.RawRow) ([]model.ScoreRecord, Stats) {
	stats := Stats{ByReason: make(map[string]int)}
	out := make([]model.ScoreRecord, 0, len(rows))

	for i := range rows {
		rec, err := n.normalizeRow(&rows[i])
		if err != nil {
			stats.Dropped++
			stats.ByReason[err.Reason]++
			if len(stats.Failures) < maxRetainedRowFailures {
				stats.Failures = append(stats.Failures, err)
			}
			n.logger.Debug(ctx, "dropping malformed row", logger.Error(err))
			continue
		}
		out = append(out, rec)
	}

	stats.Accepted = len(out)
	return out, stats
}

func (n *Normalizer) normalizeRow(row *model.RawRow) (model.ScoreRecord, *MalformedRowError) {
	fields := n.canonicalFields(row.Fields)
	fail := func(reason, value string) *MalformedRowError {
		return &MalformedRowError{Source: row.Source, Line: row.Line, Reason: reason, Value: value}
	}

	username, ok := fields[model.ColumnUsername]
	if !ok {
		return model.ScoreRecord{}, fail(ReasonMissingField, model.ColumnUsername)
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return model.ScoreRecord{}, fail(ReasonEmptyUsername, "")
	}

	rawLecture, ok := fields[model.ColumnLecture]
	if !ok {
		return model.ScoreRecord{}, fail(ReasonMissingField, model.ColumnLecture)
	}
	lecture, ok := parseLecture(rawLecture)
	if !ok {
		return model.ScoreRecord{}, fail(ReasonInvalidLecture, rawLecture)
	}

	rawScore, ok := fields[model.ColumnScore]
	if !ok {
		return model.ScoreRecord{}, fail(ReasonMissingField, model.ColumnScore)
	}
	score, ok := parseNumber(rawScore)
	if !ok {
		return model.ScoreRecord{}, fail(ReasonInvalidScore, rawScore)
	}
	if score < model.MinScore || score > model.MaxScore {
		return model.ScoreRecord{}, fail(ReasonScoreOutOfRange, rawScore)
	}

	return model.ScoreRecord{
		Username: username,
		Lecture:  lecture,
		Score:    score,
		Source:   row.Source,
	}, nil
}

// canonicalFields re-keys a raw row by canonical column. When two raw headers
// map to the same column, a header that is already canonical wins, otherwise
// the lexicographically smallest raw header does.
func (n *Normalizer) canonicalFields(raw map[string]string) map[string]string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]string, len(raw))
	exact := make(map[string]bool, len(raw))
	for _, k := range keys {
		col := n.Column(k)
		isExact := n.fold(k) == col
		if _, taken := out[col]; taken && (exact[col] || !isExact) {
			continue
		}
		out[col] = raw[k]
		exact[col] = isExact
	}
	return out
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseLecture accepts non-negative integral numbers, including spreadsheet
// renderings such as "3.0".
func parseLecture(s string) (int, bool) {
	v, ok := parseNumber(s)
	if !ok || v < 0 || v != math.Trunc(v) || v > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}
