// Package ingest reads score sources from a directory into raw rows.
//
// Sources are visited in lexicographic file-name order and rows keep their
// in-file order, so the resulting sequence is reproducible across runs.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pylab/leaderboard/internal/domain/model"
	"github.com/pylab/leaderboard/pkg/logger"
	"github.com/pylab/leaderboard/pkg/metrics"
)

// Supported source formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// HeaderChecker rejects a source whose header is structurally unusable.
type HeaderChecker interface {
	RequireColumns(source string, header []string) error
}

// Reader loads every supported source under a directory.
type Reader struct {
	dir     string
	checker HeaderChecker
	logger  logger.Logger
}

// Result is what one Read returns.
type Result struct {
	Rows    []model.RawRow
	Sources []string // file names in read order
	Skipped []string // empty sources
}

// New creates a Reader over dir.
func New(dir string, opts ...Option) *Reader {
	r := &Reader{
		dir:    dir,
		logger: logger.Nop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Sources lists supported source files in read order. An existing directory
// without sources yields an empty list.
func (r *Reader) Sources() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: input directory %s", ErrMissingInput, r.dir)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrReadSource, r.dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || formatOf(e.Name()) == "" {
			continue
		}
		// Office lock files and dotfiles.
		if strings.HasPrefix(e.Name(), "~$") || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Read loads all sources. A source missing a required column aborts the read.
func (r *Reader) Read(ctx context.Context) (Result, error) {
	names, err := r.Sources()
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		format := formatOf(name)
		header, rows, err := r.readSource(name, format)
		if err != nil {
			return Result{}, err
		}
		if header == nil {
			r.logger.Warn(ctx, "skipping empty source", logger.String("source", name))
			res.Skipped = append(res.Skipped, name)
			continue
		}
		if r.checker != nil {
			if err := r.checker.RequireColumns(name, header); err != nil {
				return Result{}, fmt.Errorf("%w: %w", ErrMissingInput, err)
			}
		}

		metrics.RecordSourceRead()
		metrics.RecordRowsRead(format, len(rows))
		r.logger.Debug(ctx, "source read",
			logger.String("source", name),
			logger.String("format", format),
			logger.Int("rows", len(rows)))

		res.Rows = append(res.Rows, rows...)
		res.Sources = append(res.Sources, name)
	}

	return res, nil
}

func (r *Reader) readSource(name, format string) ([]string, []model.RawRow, error) {
	path := filepath.Join(r.dir, name)

	var (
		header []string
		rows   []model.RawRow
		err    error
	)
	switch format {
	case FormatCSV:
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s: %w", ErrReadSource, name, err)
		}
		header, rows, err = ReadCSV(name, f)
		_ = f.Close()
	case FormatXLSX:
		header, rows, err = ReadXLSX(name, path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrReadSource, name, err)
	}
	return header, rows, nil
}

func formatOf(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV
	case ".xlsx":
		return FormatXLSX
	default:
		return ""
	}
}

// rowFromCells zips header and cells into a RawRow. Cells beyond the header
// are ignored and missing trailing cells leave the field absent. Returns false
// for a row whose cells are all blank.
func rowFromCells(source string, line int, header, cells []string) (model.RawRow, bool) {
	fields := make(map[string]string, len(header))
	blank := true
	for i, h := range header {
		if i >= len(cells) {
			break
		}
		fields[h] = cells[i]
		if strings.TrimSpace(cells[i]) != "" {
			blank = false
		}
	}
	if blank {
		return model.RawRow{}, false
	}
	return model.RawRow{Fields: fields, Source: source, Line: line}, true
}
