package cleaning

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tmdbcli/internal/dataset"
	apperrors "tmdbcli/internal/errors"
	"tmdbcli/internal/shared/testutil"
	"tmdbcli/pkg/contracts/domain"
)

func loadSample(t *testing.T) dataset.Table {
	t.Helper()
	path := testutil.WriteRawMovies(t, t.TempDir(), testutil.SampleMovies()...)
	table, err := dataset.LoadCSV(path)
	require.NoError(t, err)
	return table
}

func TestCleaner_Clean(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	raw := loadSample(t)

	cleaned, report, err := NewCleaner(logger).Clean(raw)
	require.NoError(t, err)

	assert.Equal(t, 5, report.RowsIn)
	assert.Equal(t, 1, report.DuplicatesRemoved)
	assert.Equal(t, 1, report.MissingRemoved)
	assert.Equal(t, 3, report.RowsOut)
	assert.Equal(t, 1, report.NullCounts[domain.ColumnCast])
	assert.Equal(t, 3, cleaned.Len())

	for _, col := range domain.DroppedColumns {
		assert.False(t, cleaned.Has(col), "column %s should be dropped", col)
	}

	titles, err := cleaned.Values(domain.ColumnOriginalTitle)
	require.NoError(t, err)
	assert.Equal(t, []string{"Jurassic World", "Mad Max: Fury Road", "Expensive Flop"}, titles)

	// source table is untouched
	assert.Equal(t, 5, raw.Len())
	assert.True(t, raw.Has(domain.ColumnHomepage))

	testutil.AssertLogContains(t, handler, slog.LevelInfo, "Cleaned movie table")
}

func TestCleaner_CleanProperties(t *testing.T) {
	raw := loadSample(t)
	cleaned, _, err := NewCleaner(nil).Clean(raw)
	require.NoError(t, err)

	assert.LessOrEqual(t, cleaned.Len(), raw.Len())
	assert.Zero(t, CountDuplicates(cleaned))
	for i := 0; i < cleaned.Len(); i++ {
		assert.False(t, cleaned.Row(i).HasNull())
	}
}

func TestCleaner_MissingDroppedColumn(t *testing.T) {
	table := dataset.MustTable([]string{"id", "original_title"}, []string{"1", "Alpha"})

	_, _, err := NewCleaner(nil).Clean(table)
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrTypeSchema, appErr.Type)
	assert.Equal(t, domain.ColumnIMDBID, appErr.Context[apperrors.ContextColumn])
}

func TestCleanRows_Idempotent(t *testing.T) {
	raw := loadSample(t)
	once, _, err := NewCleaner(nil).Clean(raw)
	require.NoError(t, err)

	twice, report := CleanRows(once)
	assert.True(t, once.Equal(twice))
	assert.Zero(t, report.DuplicatesRemoved)
	assert.Zero(t, report.MissingRemoved)
}

func TestDropDuplicates_KeepsFirstOccurrence(t *testing.T) {
	table := dataset.MustTable([]string{"id", "v"},
		[]string{"1", "a"},
		[]string{"2", "b"},
		[]string{"1", "a"},
		[]string{"1", "b"},
		[]string{"2", "b"},
	)

	deduped := DropDuplicates(table)
	assert.Equal(t, [][]string{{"1", "a"}, {"2", "b"}, {"1", "b"}}, deduped.Records())
}

func TestDropDuplicates_NullsCompareEqual(t *testing.T) {
	table := dataset.MustTable([]string{"id", "v"},
		[]string{"1", ""},
		[]string{"1", "NaN"},
	)

	assert.Equal(t, 1, DropDuplicates(table).Len())
}

func TestDropDuplicates_ControlCharactersInValues(t *testing.T) {
	table := dataset.MustTable([]string{"a", "b"},
		[]string{"x\x1f\x00Vy", "z"},
		[]string{"x", "y\x1f\x00Vz"},
	)

	assert.Equal(t, 2, DropDuplicates(table).Len())
}

func TestDropMissing(t *testing.T) {
	table := dataset.MustTable([]string{"id", "v"},
		[]string{"1", "a"},
		[]string{"2", ""},
		[]string{"", "c"},
	)

	assert.Equal(t, [][]string{{"1", "a"}}, DropMissing(table).Records())
}

func TestCleanRows_Empty(t *testing.T) {
	table := dataset.MustTable([]string{"id"})

	cleaned, report := CleanRows(table)
	assert.Zero(t, cleaned.Len())
	assert.Zero(t, report.RowsOut)
}
