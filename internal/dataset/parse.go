package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var AllowedExtensions = []string{"csv", "xlsx"}

var ErrEmptyFile = errors.New("file has no header row")

// Ext returns the lowercased extension of filename without the dot.
func Ext(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

func Allowed(filename string) bool {
	ext := Ext(filename)
	for _, a := range AllowedExtensions {
		if ext == a {
			return true
		}
	}
	return false
}

// Parse reads an uploaded file into a raw table of string cells.
func Parse(filename string, r io.Reader) (*Table, error) {
	switch Ext(filename) {
	case "csv":
		return ParseCSV(r)
	case "xlsx":
		return ParseXLSX(r)
	}
	return nil, fmt.Errorf("unsupported file type %q", Ext(filename))
}

func ParseCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return fromRecords(records)
}

// ParseXLSX reads the first worksheet; its first row is the header.
func ParseXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return fromRecords(rows)
}

func fromRecords(records [][]string) (*Table, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, ErrEmptyFile
	}
	header := records[0]
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	t := &Table{Columns: header, Rows: make([][]any, 0, len(records)-1)}
	for _, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		row := make([]any, len(header))
		for i := range row {
			if i < len(rec) {
				row[i] = strings.TrimSpace(rec[i])
			} else {
				row[i] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
