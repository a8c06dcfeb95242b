package exporter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"tmdbcli/internal/analysis"
	"tmdbcli/internal/dataset"
	apperrors "tmdbcli/internal/errors"
	"tmdbcli/internal/shared/testutil"
	"tmdbcli/internal/transform"
	"tmdbcli/pkg/contracts/domain"
)

func sampleTable() dataset.Table {
	return dataset.MustTable(domain.MovieColumns,
		[]string{"135397", "Jurassic World", "Chris Pratt", "Universal Studios", "Colin Trevorrow", "Action", "32.985763", "124", "5562", "6.5", "2015", "150000000", "1513528810", "1363528810"},
		[]string{"42", "Expensive Flop, The", "Actor \"One\"", "Studio A", "Some Director", "Drama", "0.5", "90", "100", "6.5", "2014", "2000000", "500000", "1500000"},
	)
}

func TestCSVWriter_WriteTable(t *testing.T) {
	tests := []struct {
		name    string
		bom     bool
		wantBOM bool
	}{
		{"plain", false, false},
		{"with BOM", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "movies.csv")
			logger, handler := testutil.NewTestLogger(t)

			err := NewCSVWriter(tt.bom, logger).WriteTable(path, sampleTable())
			require.NoError(t, err)

			content, err := os.ReadFile(path)
			require.NoError(t, err)
			hasBOM := len(content) >= 3 && content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF
			assert.Equal(t, tt.wantBOM, hasBOM)
			assert.Contains(t, string(content), "id,original_title,cast,production_companies,director,genres,popularity,runtime,vote_count,vote_average,release_year,budget,revenue,profit\n")
			assert.Contains(t, string(content), `"Expensive Flop, The","Actor ""One"""`)

			assert.True(t, handler.ContainsMessage("Writing CSV file"))
		})
	}
}

func TestCSVWriter_RoundTrip(t *testing.T) {
	for _, bom := range []bool{false, true} {
		path := filepath.Join(t.TempDir(), "movies.csv")
		table := sampleTable()

		require.NoError(t, NewCSVWriter(bom, nil).WriteTable(path, table))

		reloaded, err := dataset.LoadCSV(path)
		require.NoError(t, err)
		assert.True(t, table.Equal(reloaded), "bom=%v", bom)
	}
}

func TestCSVWriter_RoundTripEmptySplitValue(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		row     []string
	}{
		{"two columns", []string{"id", "cast"}, []string{"1", "|Actor One"}},
		{"single column", []string{"cast"}, []string{"|Actor One"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			split, err := transform.SplitFirst(dataset.MustTable(tt.columns, tt.row), "cast")
			require.NoError(t, err)

			exported, err := split.Cell(0, "cast")
			require.NoError(t, err)
			require.False(t, exported.Null)
			require.Empty(t, exported.Value)

			path := filepath.Join(t.TempDir(), "movies.csv")
			require.NoError(t, NewCSVWriter(false, nil).WriteTable(path, split))

			reloaded, err := dataset.Load(path, dataset.ReadOptions{Literal: true})
			require.NoError(t, err)
			require.Equal(t, 1, reloaded.Len())

			cell, err := reloaded.Cell(0, "cast")
			require.NoError(t, err)
			assert.Equal(t, dataset.Text(""), cell)
			assert.True(t, split.Equal(reloaded))
		})
	}
}

func TestCSVWriter_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale content that is much longer than a header line\n"), 0644))

	table := dataset.MustTable([]string{"id"}, []string{"1"})
	require.NoError(t, NewCSVWriter(false, nil).WriteTable(path, table))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id\n1\n", string(content))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestCSVWriter_OutputError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	path := filepath.Join(blocker, "movies.csv")
	err := NewCSVWriter(false, nil).WriteTable(path, sampleTable())
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrTypeOutput, appErr.Type)
	assert.Equal(t, path, appErr.Context[apperrors.ContextPath])

	_, statErr := os.Stat(path)
	assert.Error(t, statErr)
}

func sampleReport(t *testing.T) analysis.Report {
	t.Helper()
	a := domain.MovieRecord{ID: 1, OriginalTitle: "Alpha", Cast: "A", ProductionCompanies: "S", Director: "D", Genres: "Drama",
		Popularity: 2, Runtime: 100, ReleaseYear: 1960, Budget: 10, Revenue: 30, Profit: 20}
	b := domain.MovieRecord{ID: 2, OriginalTitle: "Beta", Cast: "B", ProductionCompanies: "S", Director: "D", Genres: "Action",
		Popularity: 5, Runtime: 120, ReleaseYear: 1961, Budget: 50, Revenue: 40, Profit: 10}

	report, err := analysis.Run([]domain.MovieRecord{a, b}, analysis.DefaultOptions())
	require.NoError(t, err)
	return report
}

func TestWorkbookWriter_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "insights.xlsx")

	require.NoError(t, NewWorkbookWriter(nil).Write(path, sampleReport(t)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{
		SheetGenres, SheetRevenueProfit, SheetBudgetRevenue, SheetYearlyRevenue, SheetYearlyRuntime,
		SheetTopPopularity, SheetTopProfit, SheetTopCast, SheetTopDirectors, SheetTopCompanies, SheetSummary,
	}, f.GetSheetList())

	rows, err := f.GetRows(SheetTopPopularity)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"rank", "id", "title", "production_company", "popularity"}, rows[0])
	assert.Equal(t, "Beta", rows[1][2])

	yearly, err := f.GetRows(SheetYearlyRevenue)
	require.NoError(t, err)
	assert.Equal(t, []string{"1960", "30", "1"}, yearly[1])
}

func TestWorkbookWriter_EmptyReport(t *testing.T) {
	report, err := analysis.Run(nil, analysis.DefaultOptions())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, NewWorkbookWriter(nil).Write(path, report))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetGenres)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestWriteReportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	report := sampleReport(t)

	require.NoError(t, WriteReportJSON(path, report))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded analysis.Report
	require.NoError(t, json.Unmarshal(content, &decoded))
	assert.Equal(t, 2, decoded.Movies)
	assert.Equal(t, "Beta", decoded.TopPopularity[0].Title)
	assert.Contains(t, string(content), `"top_production_companies"`)
}
