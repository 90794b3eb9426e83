package spreadsheet

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Row is one data row keyed by header name
type Row struct {
	// LineNumber is the 1-based sheet line, the header being line 1
	LineNumber int
	Data       map[string]string
}

// Get returns the value for a column by header name
func (r *Row) Get(header string) string {
	return r.Data[header]
}

// IsEmpty returns true if the row has no non-empty values
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// Table is a parsed sheet
type Table struct {
	Headers []string
	Rows    []*Row
}

// HasHeader checks if a header exists
func (t *Table) HasHeader(name string) bool {
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// RequireHeaders returns a *MissingColumnsError when any required header is absent
func (t *Table) RequireHeaders(required []string) error {
	var missing []string
	for _, h := range required {
		if !t.HasHeader(h) {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Columns: missing}
	}
	return nil
}

// Format is an accepted upload format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// DetectFormat picks the format from a file name
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", ErrUnsupportedFormat
}

// ReadTable parses an uploaded sheet. The format follows the file extension.
func ReadTable(r io.Reader, filename string) (*Table, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatXLSX:
		return ReadXLSX(r)
	default:
		return ReadCSV(r)
	}
}

// buildTable maps raw records to rows. The first record is the header.
func buildTable(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	if strings.Join(headers, "") == "" {
		return nil, ErrMissingHeader
	}

	table := &Table{Headers: headers}
	for i, record := range records[1:] {
		row := &Row{
			LineNumber: i + 2,
			Data:       make(map[string]string, len(headers)),
		}
		for col, header := range headers {
			if header == "" {
				continue
			}
			if col < len(record) {
				row.Data[header] = strings.TrimSpace(record[col])
			} else {
				row.Data[header] = ""
			}
		}
		if row.IsEmpty() {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func readAllLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("file exceeds %d bytes", limit)
	}
	return data, nil
}
