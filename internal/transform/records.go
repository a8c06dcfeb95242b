package transform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"tmdbcli/internal/dataset"
	apperrors "tmdbcli/internal/errors"
	"tmdbcli/pkg/contracts/domain"
)

// RecordIssue describes a record that failed domain validation
type RecordIssue struct {
	Row   int    `json:"row"`
	ID    int64  `json:"id"`
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Records coerces a transformed table into typed movie records
func Records(table dataset.Table) ([]domain.MovieRecord, error) {
	projected, err := Project(table)
	if err != nil {
		return nil, err
	}

	records := make([]domain.MovieRecord, projected.Len())
	for i := 0; i < projected.Len(); i++ {
		rec, err := recordFromRow(projected.Row(i))
		if err != nil {
			if appErr, ok := apperrors.AsAppError(err); ok {
				return nil, appErr.WithContext(apperrors.ContextRow, i+1)
			}
			return nil, err
		}
		records[i] = rec
	}
	return records, nil
}

// Validate checks records against their domain constraints and returns one
// issue per failing field. Issues do not stop the pipeline.
func Validate(records []domain.MovieRecord) []RecordIssue {
	var issues []RecordIssue
	for i := range records {
		err := validate.Struct(records[i])
		if err == nil {
			continue
		}
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			issues = append(issues, RecordIssue{Row: i + 1, ID: records[i].ID, Rule: err.Error()})
			continue
		}
		for _, fe := range verrs {
			issues = append(issues, RecordIssue{
				Row:   i + 1,
				ID:    records[i].ID,
				Field: fe.Field(),
				Rule:  fe.Tag(),
			})
		}
	}
	return issues
}

// recordFromRow expects a row in domain.MovieColumns order
func recordFromRow(row dataset.Row) (domain.MovieRecord, error) {
	var (
		rec domain.MovieRecord
		err error
	)

	text := func(i int) string { return row[i].Value }

	if rec.ID, err = parseInt(row[0], domain.ColumnID); err != nil {
		return rec, err
	}
	rec.OriginalTitle = text(1)
	rec.Cast = text(2)
	rec.ProductionCompanies = text(3)
	rec.Director = text(4)
	rec.Genres = text(5)
	if rec.Popularity, err = parseFloat(row[6], domain.ColumnPopularity); err != nil {
		return rec, err
	}
	if rec.Runtime, err = parseInt(row[7], domain.ColumnRuntime); err != nil {
		return rec, err
	}
	if rec.VoteCount, err = parseInt(row[8], domain.ColumnVoteCount); err != nil {
		return rec, err
	}
	if rec.VoteAverage, err = parseFloat(row[9], domain.ColumnVoteAverage); err != nil {
		return rec, err
	}
	year, err := parseInt(row[10], domain.ColumnReleaseYear)
	if err != nil {
		return rec, err
	}
	rec.ReleaseYear = int(year)
	if rec.Budget, err = parseInt(row[11], domain.ColumnBudget); err != nil {
		return rec, err
	}
	if rec.Revenue, err = parseInt(row[12], domain.ColumnRevenue); err != nil {
		return rec, err
	}
	if rec.Profit, err = parseInt(row[13], domain.ColumnProfit); err != nil {
		return rec, err
	}
	return rec, nil
}

func parseFloat(c dataset.Cell, column string) (float64, error) {
	if c.Null {
		return 0, apperrors.NewSchemaError(column, "missing value")
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(c.Value), 64)
	if err != nil {
		return 0, apperrors.NewSchemaError(column, fmt.Sprintf("value %q is not a number", c.Value))
	}
	return f, nil
}
