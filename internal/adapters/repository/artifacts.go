package repository

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pylab/leaderboard/internal/domain/ranking"
	"github.com/pylab/leaderboard/internal/domain/types"
)

// Artifact headers.
var (
	LeaderboardHeader = []string{"rank", "username", "lectures", "total_score"}
	DetailHeader      = []string{"username", "lecture", "score"}
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteLeaderboard writes board to path atomically.
func WriteLeaderboard(path string, board types.Leaderboard) error {
	return writeCSV(path, leaderboardRecords(board))
}

// WriteDetail writes the per-lecture breakdown to path atomically.
func WriteDetail(path string, rows []ranking.DetailRow) error {
	return writeCSV(path, detailRecords(rows))
}

// WriteArtifacts publishes the leaderboard and its detail together. Both are
// staged first, so a failure leaves the previous pair untouched.
func WriteArtifacts(leaderboardPath string, board types.Leaderboard, detailPath string, rows []ranking.DetailRow) error {
	detailTmp, err := stageCSV(detailPath, detailRecords(rows))
	if err != nil {
		return err
	}
	boardTmp, err := stageCSV(leaderboardPath, leaderboardRecords(board))
	if err != nil {
		_ = os.Remove(detailTmp)
		return err
	}

	if err := os.Rename(detailTmp, detailPath); err != nil {
		_ = os.Remove(detailTmp)
		_ = os.Remove(boardTmp)
		return fmt.Errorf("%w: %s: %w", ErrWriteArtifact, detailPath, err)
	}
	if err := os.Rename(boardTmp, leaderboardPath); err != nil {
		_ = os.Remove(boardTmp)
		return fmt.Errorf("%w: %s: %w", ErrWriteArtifact, leaderboardPath, err)
	}
	return nil
}

func leaderboardRecords(board types.Leaderboard) [][]string {
	records := make([][]string, 0, len(board)+1)
	records = append(records, LeaderboardHeader)
	for _, e := range board {
		records = append(records, []string{
			strconv.Itoa(e.Rank),
			e.Username,
			strconv.Itoa(e.Lectures),
			formatFloat(e.TotalScore),
		})
	}
	return records
}

func detailRecords(rows []ranking.DetailRow) [][]string {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, DetailHeader)
	for _, r := range rows {
		records = append(records, []string{r.Username, strconv.Itoa(r.Lecture), formatFloat(r.Score)})
	}
	return records
}

// writeCSV renders records fully, then replaces path through a temp file so
// readers never observe a partial artifact.
func writeCSV(path string, records [][]string) error {
	tmp, err := stageCSV(path, records)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: %s: %w", ErrWriteArtifact, path, err)
	}
	return nil
}

// stageCSV writes records to a hidden temp file next to path and returns its
// name. The caller renames it into place or removes it.
func stageCSV(path string, records [][]string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrWriteArtifact, path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrWriteArtifact, path, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrWriteArtifact, path, err)
	}

	fail := func(err error) (string, error) {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: %s: %w", ErrWriteArtifact, path, err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		return fail(err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fail(err)
	}
	return tmp.Name(), nil
}

// ReadLeaderboard loads a leaderboard artifact. Numeric cells must parse and
// ranks must run 1..N; nothing is coerced.
func ReadLeaderboard(path string) (types.Leaderboard, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingInput, path)
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	board := types.Leaderboard{}
	err = readCSV(f, path, LeaderboardHeader, func(line int, rec []string) error {
		rank, err := strconv.Atoi(rec[0])
		if err != nil || rank != len(board)+1 {
			return malformed(path, line, "rank", rec[0])
		}
		lectures, err := strconv.Atoi(rec[2])
		if err != nil || lectures < 0 {
			return malformed(path, line, "lectures", rec[2])
		}
		total, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return malformed(path, line, "total_score", rec[3])
		}
		board = append(board, types.Entry{Rank: rank, Username: rec[1], Lectures: lectures, TotalScore: total})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return board, nil
}

// ReadDetail loads the per-lecture breakdown. A missing file is not an error
// and yields no rows.
func ReadDetail(path string) ([]ranking.DetailRow, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var rows []ranking.DetailRow
	err = readCSV(f, path, DetailHeader, func(line int, rec []string) error {
		lecture, err := strconv.Atoi(rec[1])
		if err != nil {
			return malformed(path, line, "lecture", rec[1])
		}
		score, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return malformed(path, line, "score", rec[2])
		}
		rows = append(rows, ranking.DetailRow{Username: rec[0], Lecture: lecture, Score: score})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func readCSV(r io.Reader, path string, header []string, fn func(line int, rec []string) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	got, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s: empty file", ErrMalformedArtifact, path)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformedArtifact, path, err)
	}
	if missing := missingColumns(got, header); len(missing) > 0 {
		return fmt.Errorf("%w: %s lacks %s", ErrMissingInput, path, strings.Join(missing, ", "))
	}
	if strings.Join(got, ",") != strings.Join(header, ",") {
		return fmt.Errorf("%w: %s: unexpected header %q", ErrMalformedArtifact, path, strings.Join(got, ","))
	}
	cr.FieldsPerRecord = len(header)

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrMalformedArtifact, path, err)
		}
		line, _ := cr.FieldPos(0)
		if err := fn(line, rec); err != nil {
			return err
		}
	}
}

func missingColumns(got, want []string) []string {
	have := make(map[string]bool, len(got))
	for _, c := range got {
		have[c] = true
	}
	var missing []string
	for _, c := range want {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

func malformed(path string, line int, column, value string) error {
	return fmt.Errorf("%w: %s:%d: %s %q", ErrMalformedArtifact, path, line, column, value)
}
