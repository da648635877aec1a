// Package export encodes display tables as spreadsheet or CSV files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/bighogz/insider-ledger/internal/report"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeCSV  = "text/csv"
)

// maxSheetName is Excel's sheet-name length limit.
const maxSheetName = 31

// XLSX returns a workbook with a single sheet holding t's header and rows.
func XLSX(t report.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(t.Title)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRow(f, sheet, 1, t.Header); err != nil {
		return nil, err
	}
	for i, row := range t.Rows {
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return nil, err
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteXLSX streams the workbook for t to w.
func WriteXLSX(w io.Writer, t report.Table) error {
	b, err := XLSX(t)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// WriteCSV writes t's header and rows as CSV.
func WriteCSV(w io.Writer, t report.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// Filename builds "NVDA_sales-by-insider.xlsx".
func Filename(ticker string, k report.Kind, ext string) string {
	return fmt.Sprintf("%s_%s.%s", strings.ToUpper(ticker), k, strings.TrimPrefix(ext, "."))
}

func writeRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &row); err != nil {
		return fmt.Errorf("write row %d: %w", rowNum, err)
	}
	return nil
}

func sheetName(title string) string {
	r := strings.NewReplacer(":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", " ", "]", " ")
	s := strings.TrimSpace(r.Replace(title))
	if s == "" {
		s = "Sheet1"
	}
	if len(s) > maxSheetName {
		s = s[:maxSheetName]
	}
	return s
}
