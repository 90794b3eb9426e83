package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/traditionalchinese"
)

// MaxFileSize bounds the bytes read from a single upload
const MaxFileSize int64 = 10 << 20

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV parses a CSV sheet. UTF-8 (with or without BOM) is read as is;
// anything else is decoded as Big5, the usual encoding of spreadsheets saved
// by Traditional Chinese editions of Excel.
func ReadCSV(r io.Reader) (*Table, error) {
	data, err := readAllLimited(r, MaxFileSize)
	if err != nil {
		return nil, err
	}
	data, err = toUTF8(data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return buildTable(records)
}

func toUTF8(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}
	if utf8.Valid(data) {
		return data, nil
	}

	decoded, err := traditionalchinese.Big5.NewDecoder().Bytes(data)
	if err != nil || !utf8.Valid(decoded) {
		return nil, ErrInvalidEncoding
	}
	return decoded, nil
}

// WriteCSV writes a header and rows as UTF-8 with a BOM so Excel detects the encoding
func WriteCSV(w io.Writer, headers []string, rows [][]string) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(headers); err != nil {
		return err
	}
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return writer.Error()
}
