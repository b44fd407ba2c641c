package scoregen

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// WriteBatch writes b into dir as CSV or as a single-sheet workbook,
// depending on its file extension, and returns the written path.
func WriteBatch(dir string, b Batch) (string, error) {
	path := filepath.Join(dir, b.Name)
	var err error
	if strings.EqualFold(filepath.Ext(b.Name), ".xlsx") {
		err = writeWorkbook(path, b)
	} else {
		err = writeCSV(path, b)
	}
	if err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func writeCSV(path string, b Batch) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	_ = w.Write(b.Header)
	_ = w.WriteAll(b.Rows)
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// writeWorkbook stores numeric cells as numbers, the way a spreadsheet
// export would.
func writeWorkbook(path string, b Batch) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	header := make([]interface{}, len(b.Header))
	for i, h := range b.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, row := range b.Rows {
		cells := make([]interface{}, len(row))
		for j, c := range row {
			if v, err := strconv.ParseFloat(c, 64); err == nil {
				cells[j] = v
			} else {
				cells[j] = c
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}
