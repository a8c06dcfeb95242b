package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"tmdbcli/internal/dataset"
	apperrors "tmdbcli/internal/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	bom    bool
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance. With bom set every file
// starts with a UTF-8 byte order mark for Excel.
func NewCSVWriter(bom bool, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{bom: bom, logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool
}

// WriteTable writes a table to path, header first, replacing any existing file
func (w *CSVWriter) WriteTable(path string, table dataset.Table) error {
	return w.WriteCSV(path, WriteOptions{
		Headers:   table.Columns(),
		Records:   table.Records(),
		BOMPrefix: w.bom,
	})
}

// WriteCSV writes data to a CSV file with the given options
func (w *CSVWriter) WriteCSV(path string, options WriteOptions) error {
	w.logger.Info("Writing CSV file",
		slog.String("path", path),
		slog.Int("record_count", len(options.Records)),
		slog.Bool("bom", options.BOMPrefix))

	return writeFile(path, func(out io.Writer) error {
		if options.BOMPrefix {
			if _, err := out.Write(utf8BOM); err != nil {
				return fmt.Errorf("failed to write BOM: %w", err)
			}
		}

		writer := csv.NewWriter(out)
		if len(options.Headers) > 0 {
			if err := writer.Write(options.Headers); err != nil {
				return fmt.Errorf("failed to write headers: %w", err)
			}
		}
		for i, record := range options.Records {
			if len(record) == 1 && record[0] == "" {
				// csv.Writer emits a lone empty field as a blank line, which readers skip
				writer.Flush()
				if err := writer.Error(); err != nil {
					return fmt.Errorf("failed to write record %d: %w", i+1, err)
				}
				if _, err := io.WriteString(out, "\"\"\n"); err != nil {
					return fmt.Errorf("failed to write record %d: %w", i+1, err)
				}
				continue
			}
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("failed to write record %d: %w", i+1, err)
			}
		}
		writer.Flush()
		return writer.Error()
	})
}

// writeFile writes to a temporary file next to path and renames it into
// place, so a failed write never leaves a partial file at path.
func writeFile(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewOutputError(path, "failed to create directory", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return apperrors.NewOutputError(path, "failed to create file", err)
	}
	tmpName := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return apperrors.NewOutputError(path, "write failed", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return apperrors.NewOutputError(path, "write failed", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return apperrors.NewOutputError(path, "failed to set permissions", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return apperrors.NewOutputError(path, "failed to move file into place", err)
	}
	return nil
}
