package ingest

import (
	"errors"

	"github.com/xuri/excelize/v2"

	"github.com/pylab/leaderboard/internal/domain/model"
)

// ReadXLSX parses the first sheet of a workbook. The first row is the header.
func ReadXLSX(source, path string) ([]string, []model.RawRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, errors.New("workbook has no sheets")
	}

	grid, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, err
	}
	if len(grid) == 0 || len(grid[0]) == 0 {
		return nil, nil, nil
	}

	header := grid[0]
	var rows []model.RawRow
	for i, cells := range grid[1:] {
		// Sheet rows are 1-based and the header occupies row 1.
		if row, ok := rowFromCells(source, i+2, header, cells); ok {
			rows = append(rows, row)
		}
	}
	return header, rows, nil
}
