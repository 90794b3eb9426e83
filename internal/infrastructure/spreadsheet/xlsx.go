package spreadsheet

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX parses the first worksheet of an .xlsx workbook
func ReadXLSX(r io.Reader) (*Table, error) {
	data, err := readAllLimited(r, MaxFileSize)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return buildTable(records)
}

// Workbook builds an .xlsx file sheet by sheet
type Workbook struct {
	file        *excelize.File
	headerStyle int
	sheets      int
}

// NewWorkbook creates an empty workbook
func NewWorkbook() (*Workbook, error) {
	f := excelize.NewFile()
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	return &Workbook{file: f, headerStyle: style}, nil
}

// AddSheet writes a sheet with a bold header row followed by rows
func (w *Workbook) AddSheet(name string, headers []string, rows [][]any) error {
	if w.sheets == 0 {
		// Reuse the default sheet so the workbook has no empty first tab
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return err
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return err
	}
	w.sheets++

	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := w.file.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	if err := w.file.SetCellStyle(name, "A1", lastCol+"1", w.headerStyle); err != nil {
		return err
	}
	if err := w.file.SetColWidth(name, "A", lastCol, 14); err != nil {
		return err
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := w.file.SetSheetRow(name, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	return nil
}

// WriteTo writes the workbook and closes it
func (w *Workbook) WriteTo(out io.Writer) (int64, error) {
	defer func() { _ = w.file.Close() }()
	return w.file.WriteTo(out)
}

// Bytes renders the workbook and closes it
func (w *Workbook) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
