package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "tmdbcli/internal/errors"
)

// utf8BOM is stripped from the start of input files
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// naTokens are field values read as missing, matching the conventions of common dataframe readers
var naTokens = map[string]bool{
	"":         true,
	"#N/A":     true,
	"#N/A N/A": true,
	"#NA":      true,
	"-1.#IND":  true,
	"-1.#QNAN": true,
	"-NaN":     true,
	"-nan":     true,
	"1.#IND":   true,
	"1.#QNAN":  true,
	"<NA>":     true,
	"N/A":      true,
	"NA":       true,
	"NULL":     true,
	"NaN":      true,
	"None":     true,
	"n/a":      true,
	"nan":      true,
	"null":     true,
}

// ParseCell converts a raw field into a cell, marking NA tokens as null
func ParseCell(raw string) Cell {
	if naTokens[raw] {
		return NullCell()
	}
	return Text(raw)
}

// ReadOptions controls how input files become tables
type ReadOptions struct {
	// Sheet names the worksheet of an .xlsx input; empty selects the first sheet
	Sheet string
	// Literal reads every field as text, including empty fields and NA tokens.
	// Files written by the exporter hold no missing values and are read this way.
	Literal bool
}

func (o ReadOptions) parse(raw string) Cell {
	if o.Literal {
		return Text(raw)
	}
	return ParseCell(raw)
}

// Load reads path into a Table, picking the reader by extension:
// .xlsx files go through excelize, everything else is comma-delimited text.
func Load(path string, opts ReadOptions) (Table, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return loadWorkbook(path, opts)
	}
	return loadCSV(path, opts)
}

// LoadCSV reads a comma-delimited file with a header row into a Table
func LoadCSV(path string) (Table, error) {
	return loadCSV(path, ReadOptions{})
}

func loadCSV(path string, opts ReadOptions) (Table, error) {
	slog.Info("Loading CSV file", slog.String("path", path), slog.Bool("literal", opts.Literal))

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Table{}, apperrors.NewInputError(path, "input file not found", err)
		}
		return Table{}, apperrors.NewInputError(path, "cannot read input file", err)
	}

	table, err := readCSV(bytes.NewReader(content), opts)
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok {
			return Table{}, appErr.WithContext(apperrors.ContextPath, path)
		}
		return Table{}, err
	}

	slog.Info("Loaded CSV file",
		slog.String("path", path),
		slog.Int("rows", table.Len()),
		slog.Int("columns", table.Width()))

	return table, nil
}

// ReadCSV parses delimited text with a header row
func ReadCSV(r io.Reader) (Table, error) {
	return readCSV(r, ReadOptions{})
}

func readCSV(r io.Reader, opts ReadOptions) (Table, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return Table{}, apperrors.NewInputError("", "cannot read input", err)
	}
	content = bytes.TrimPrefix(content, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(content))
	// FieldsPerRecord 0 enforces the header's field count on every row
	reader.FieldsPerRecord = 0

	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, apperrors.NewInputError("", "malformed delimited text", err)
	}
	if len(records) == 0 {
		return Table{}, apperrors.NewInputError("", "input has no header row", nil)
	}

	return fromRecords(records[0], records[1:], opts)
}

// LoadWorkbook reads a sheet of an Excel workbook into a Table. The first
// sheet is used when sheet is empty.
func LoadWorkbook(path, sheet string) (Table, error) {
	return loadWorkbook(path, ReadOptions{Sheet: sheet})
}

func loadWorkbook(path string, opts ReadOptions) (Table, error) {
	sheet := opts.Sheet
	slog.Info("Loading workbook", slog.String("path", path), slog.String("sheet", sheet))

	if _, err := os.Stat(path); err != nil {
		return Table{}, apperrors.NewInputError(path, "input file not found", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return Table{}, apperrors.NewInputError(path, "cannot open workbook", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return Table{}, apperrors.NewInputError(path, "workbook has no sheets", nil)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return Table{}, apperrors.NewInputError(path, fmt.Sprintf("cannot read sheet %q", sheet), err)
	}
	if len(rows) == 0 {
		return Table{}, apperrors.NewInputError(path, "input has no header row", nil)
	}

	header := rows[0]
	// GetRows trims trailing empty cells, so short rows are padded instead of rejected
	body := make([][]string, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) > len(header) {
			return Table{}, apperrors.NewInputError(path,
				fmt.Sprintf("row %d has %d fields, header has %d", i+2, len(row), len(header)), nil)
		}
		padded := make([]string, len(header))
		copy(padded, row)
		body[i] = padded
	}

	table, err := fromRecords(header, body, opts)
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok {
			return Table{}, appErr.WithContext(apperrors.ContextPath, path)
		}
		return Table{}, err
	}
	return table, nil
}

func fromRecords(header []string, records [][]string, opts ReadOptions) (Table, error) {
	columns := make([]string, len(header))
	for i, col := range header {
		columns[i] = strings.TrimSpace(col)
	}

	rows := make([]Row, len(records))
	for i, rec := range records {
		row := make(Row, len(rec))
		for j, v := range rec {
			row[j] = opts.parse(v)
		}
		rows[i] = row
	}

	table, err := NewTable(columns, rows)
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.Type == apperrors.ErrTypeSchema {
			return Table{}, apperrors.NewInputError("", "not parseable as a table", appErr)
		}
		return Table{}, err
	}
	return table, nil
}
