package parser

import (
	"fmt"
	"log"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ConfigError reports a workbook that lacks something the upload needs.
// It is fatal: the run stops before a browser is started.
type ConfigError struct {
	Msg    string
	Detail string // optional diagnostic dump
}

func (e *ConfigError) Error() string {
	if e.Detail == "" {
		return e.Msg
	}
	return e.Msg + "\n" + e.Detail
}

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// Workbook is an opened spreadsheet with cached raw cell values
type Workbook struct {
	Path string
	file *excelize.File
	rows map[string][][]string
}

// Open opens the workbook at path
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("error opening workbook %s: %w", path, err)
	}
	return &Workbook{Path: path, file: f, rows: make(map[string][][]string)}, nil
}

// Close releases the underlying file
func (w *Workbook) Close() error {
	return w.file.Close()
}

// Sheets returns the worksheet names in workbook order
func (w *Workbook) Sheets() []string {
	return w.file.GetSheetList()
}

// Rows returns the raw (unformatted) values of a sheet.
// Times and dates therefore come back as Excel serial numbers.
func (w *Workbook) Rows(sheet string) ([][]string, error) {
	if rows, ok := w.rows[sheet]; ok {
		return rows, nil
	}
	rows, err := w.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("error reading sheet %q: %w", sheet, err)
	}
	w.rows[sheet] = rows
	return rows, nil
}

// Cell returns the trimmed raw value at 1-based row and column, or "" when out of range
func (w *Workbook) Cell(sheet string, row, col int) string {
	rows, err := w.Rows(sheet)
	if err != nil {
		log.Printf("Cell(%s, %d, %d): %v", sheet, row, col, err)
		return ""
	}
	return cellAt(rows, row-1, col-1)
}

// FindSheet returns the sheet whose name equals name ignoring case and diacritics
func (w *Workbook) FindSheet(name string) (string, bool) {
	want := Normalize(name)
	for _, s := range w.Sheets() {
		if Normalize(s) == want {
			return s, true
		}
	}
	return "", false
}

func cellAt(rows [][]string, r, c int) string {
	if r < 0 || r >= len(rows) || c < 0 || c >= len(rows[r]) {
		return ""
	}
	return strings.TrimSpace(rows[r][c])
}
