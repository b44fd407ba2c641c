package ingest

import (
	"encoding/csv"
	"errors"
	"io"

	"github.com/pylab/leaderboard/internal/domain/model"
)

// ReadCSV parses one CSV source. The first record is the header. A source
// with no records returns a nil header.
func ReadCSV(source string, r io.Reader) ([]string, []model.RawRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var rows []model.RawRow
	for {
		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		line, _ := cr.FieldPos(0)
		if row, ok := rowFromCells(source, line, header, cells); ok {
			rows = append(rows, row)
		}
	}
	return header, rows, nil
}
