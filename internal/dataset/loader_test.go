package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "tmdbcli/internal/errors"
	"tmdbcli/internal/shared/testutil"
)

func TestLoadCSV(t *testing.T) {
	path := testutil.WriteRawMovies(t, t.TempDir(), testutil.SampleMovies()...)

	table, err := LoadCSV(path)
	require.NoError(t, err)

	assert.Equal(t, testutil.RawHeader, table.Columns())
	assert.Equal(t, 5, table.Len())

	cast, err := table.Cell(4, "cast")
	require.NoError(t, err)
	assert.True(t, cast.Null, "empty field must load as missing")
}

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantErr   bool
		wantRows  int
		wantFirst string
	}{
		{
			name:      "strips BOM",
			input:     "\xEF\xBB\xBFid,title\n1,Alpha\n",
			wantRows:  1,
			wantFirst: "id",
		},
		{
			name:      "header only",
			input:     "id,title\n",
			wantRows:  0,
			wantFirst: "id",
		},
		{
			name:    "inconsistent column count",
			input:   "id,title\n1,Alpha,extra\n",
			wantErr: true,
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
		{
			name:    "unterminated quote",
			input:   "id,title\n1,\"Alpha\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ReadCSV(strings.NewReader(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRows, table.Len())
			assert.Equal(t, tt.wantFirst, table.Columns()[0])
		})
	}
}

func TestParseCell(t *testing.T) {
	for _, token := range []string{"", "NA", "NaN", "null", "None", "N/A", "#N/A", "<NA>"} {
		assert.True(t, ParseCell(token).Null, "token %q", token)
	}
	for _, value := range []string{"0", "Drama", " ", "Nancy"} {
		assert.False(t, ParseCell(value).Null, "value %q", value)
	}
}

func TestLoadCSV_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		path := filepath.Join(dir, "nope.csv")
		_, err := LoadCSV(path)
		require.Error(t, err)

		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrTypeInput, appErr.Type)
		assert.Equal(t, path, appErr.Context[apperrors.ContextPath])
	})

	t.Run("malformed file carries path", func(t *testing.T) {
		path := filepath.Join(dir, "bad.csv")
		require.NoError(t, os.WriteFile(path, []byte("a,b\n1\n"), 0644))

		_, err := LoadCSV(path)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrTypeInput, appErr.Type)
		assert.Equal(t, path, appErr.Context[apperrors.ContextPath])
	})
}

func TestLoadWorkbook(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "movies.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"id", "original_title", "cast"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"1", "Alpha", "A|B"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"2", "Beta"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := Load(path, ReadOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "original_title", "cast"}, table.Columns())
	assert.Equal(t, 2, table.Len())

	cell, err := table.Cell(1, "cast")
	require.NoError(t, err)
	assert.True(t, cell.Null, "trailing empty cell pads to missing")
}

func TestLoadWorkbook_Missing(t *testing.T) {
	_, err := LoadWorkbook(filepath.Join(t.TempDir(), "none.xlsx"), "")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInput))
}

func TestLoad_NamedSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.xlsx")

	f := excelize.NewFile()
	_, err := f.NewSheet("movies")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow(f.GetSheetName(0), "A1", &[]interface{}{"other"}))
	require.NoError(t, f.SetSheetRow("movies", "A1", &[]interface{}{"id", "cast"}))
	require.NoError(t, f.SetSheetRow("movies", "A2", &[]interface{}{"7", "Actor"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := Load(path, ReadOptions{Sheet: "movies"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "cast"}, table.Columns())
	assert.Equal(t, [][]string{{"7", "Actor"}}, table.Records())

	_, err = Load(path, ReadOptions{Sheet: "absent"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInput))
}

func TestLoad_Literal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,cast,director\n1,,NA\n"), 0644))

	tests := []struct {
		name     string
		opts     ReadOptions
		wantNull bool
	}{
		{"default reads NA tokens as missing", ReadOptions{}, true},
		{"literal keeps every field as text", ReadOptions{Literal: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Load(path, tt.opts)
			require.NoError(t, err)

			for _, column := range []string{"cast", "director"} {
				cell, err := table.Cell(0, column)
				require.NoError(t, err)
				assert.Equal(t, tt.wantNull, cell.Null, column)
			}
		})
	}
}
