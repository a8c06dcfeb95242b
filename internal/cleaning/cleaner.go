// Package cleaning removes unused columns, duplicate rows and rows with
// missing values from a loaded movie table.
package cleaning

import (
	"log/slog"

	"tmdbcli/internal/dataset"
	"tmdbcli/pkg/contracts/domain"
)

// Report summarizes what a cleaning pass removed
type Report struct {
	RowsIn            int            `json:"rows_in"`
	RowsOut           int            `json:"rows_out"`
	ColumnsDropped    []string       `json:"columns_dropped"`
	DuplicatesRemoved int            `json:"duplicates_removed"`
	MissingRemoved    int            `json:"missing_removed"`
	NullCounts        map[string]int `json:"null_counts"`
}

// Cleaner applies the fixed cleaning sequence: drop columns, drop duplicate
// rows, drop rows with missing values.
type Cleaner struct {
	dropColumns []string
	logger      *slog.Logger
}

// NewCleaner creates a cleaner that drops domain.DroppedColumns
func NewCleaner(logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{
		dropColumns: domain.DroppedColumns,
		logger:      logger,
	}
}

// Clean returns a cleaned copy of the table. The input is not modified.
func (c *Cleaner) Clean(table dataset.Table) (dataset.Table, Report, error) {
	report := Report{
		RowsIn:         table.Len(),
		ColumnsDropped: append([]string(nil), c.dropColumns...),
	}

	pruned, err := DropColumns(table, c.dropColumns...)
	if err != nil {
		return dataset.Table{}, report, err
	}

	cleaned, rowsReport := CleanRows(pruned)
	report.RowsOut = cleaned.Len()
	report.DuplicatesRemoved = rowsReport.DuplicatesRemoved
	report.MissingRemoved = rowsReport.MissingRemoved
	report.NullCounts = rowsReport.NullCounts

	c.logger.Info("Cleaned movie table",
		slog.Int("rows_in", report.RowsIn),
		slog.Int("rows_out", report.RowsOut),
		slog.Int("columns_dropped", len(report.ColumnsDropped)),
		slog.Int("duplicates_removed", report.DuplicatesRemoved),
		slog.Int("missing_removed", report.MissingRemoved))

	for col, n := range report.NullCounts {
		if n > 0 {
			c.logger.Debug("Missing values in column", slog.String("column", col), slog.Int("count", n))
		}
	}

	return cleaned, report, nil
}

// CleanRows removes duplicate rows and then rows with missing values.
// Applying it to its own output removes nothing.
func CleanRows(table dataset.Table) (dataset.Table, Report) {
	report := Report{RowsIn: table.Len()}

	deduped := DropDuplicates(table)
	report.DuplicatesRemoved = table.Len() - deduped.Len()
	report.NullCounts = NullCounts(deduped)

	complete := DropMissing(deduped)
	report.MissingRemoved = deduped.Len() - complete.Len()
	report.RowsOut = complete.Len()

	return complete, report
}

// DropColumns removes the named columns; any absent column is a schema error
func DropColumns(table dataset.Table, columns ...string) (dataset.Table, error) {
	return table.Drop(columns...)
}

// DropDuplicates removes rows equal across all columns to an earlier row
func DropDuplicates(table dataset.Table) dataset.Table {
	seen := make(map[string]struct{}, table.Len())
	return table.Filter(func(row dataset.Row) bool {
		key := row.Key()
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
		return true
	})
}

// DropMissing removes rows that contain a missing value in any column
func DropMissing(table dataset.Table) dataset.Table {
	return table.Filter(func(row dataset.Row) bool {
		return !row.HasNull()
	})
}

// NullCounts counts missing values per column
func NullCounts(table dataset.Table) map[string]int {
	columns := table.Columns()
	counts := make(map[string]int, len(columns))
	for _, col := range columns {
		counts[col] = 0
	}
	for i := 0; i < table.Len(); i++ {
		for j, cell := range table.Row(i) {
			if cell.Null {
				counts[columns[j]]++
			}
		}
	}
	return counts
}

// CountDuplicates returns how many rows repeat an earlier row
func CountDuplicates(table dataset.Table) int {
	return table.Len() - DropDuplicates(table).Len()
}
