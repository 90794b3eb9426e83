package transfer

import (
	"github.com/rental/backend/internal/infrastructure/spreadsheet"
)

// ImportResult reports the outcome of a sheet import
type ImportResult struct {
	TotalRows     int                    `json:"total_rows"`
	ImportedRows  int                    `json:"imported_rows"`
	UpdatedRows   int                    `json:"updated_rows"`
	UnchangedRows int                    `json:"unchanged_rows"`
	ErrorRows     int                    `json:"error_rows"`
	Errors        []spreadsheet.RowError `json:"errors,omitempty"`
	IsTruncated   bool                   `json:"is_truncated,omitempty"`
	TotalErrors   int                    `json:"total_errors,omitempty"`
}

func (r *ImportResult) collect(errs *spreadsheet.ErrorCollection) {
	r.Errors = errs.Errors()
	r.IsTruncated = errs.IsTruncated()
	r.TotalErrors = errs.TotalCount()
}

// File is a generated workbook ready for download
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func xlsx(name string, data []byte) *File {
	return &File{Name: name, ContentType: xlsxContentType, Data: data}
}
