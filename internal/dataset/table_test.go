package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "tmdbcli/internal/errors"
)

func sampleTable() Table {
	return MustTable([]string{"id", "title", "genres"},
		[]string{"1", "Alpha", "Action|Drama"},
		[]string{"2", "Beta", ""},
		[]string{"3", "Gamma", "Comedy"},
	)
}

func TestNewTable_RejectsRaggedRows(t *testing.T) {
	_, err := NewTable([]string{"a", "b"}, []Row{{Text("1")}})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
}

func TestNewTable_RejectsDuplicateColumns(t *testing.T) {
	_, err := NewTable([]string{"a", "a"}, nil)
	require.Error(t, err)
}

func TestTable_NullCells(t *testing.T) {
	table := sampleTable()

	cell, err := table.Cell(1, "genres")
	require.NoError(t, err)
	assert.True(t, cell.Null)
	assert.True(t, table.Row(1).HasNull())
	assert.False(t, table.Row(0).HasNull())
}

func TestTable_Drop(t *testing.T) {
	table := sampleTable()

	dropped, err := table.Drop("title")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "genres"}, dropped.Columns())
	assert.Equal(t, 3, dropped.Len())

	// receiver untouched
	assert.Equal(t, []string{"id", "title", "genres"}, table.Columns())

	_, err = table.Drop("homepage")
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrTypeSchema, appErr.Type)
	assert.Equal(t, "homepage", appErr.Context[apperrors.ContextColumn])
}

func TestTable_Select(t *testing.T) {
	table := sampleTable()

	selected, err := table.Select("genres", "id")
	require.NoError(t, err)
	assert.Equal(t, []string{"genres", "id"}, selected.Columns())
	assert.Equal(t, [][]string{{"Action|Drama", "1"}, {"", "2"}, {"Comedy", "3"}}, selected.Records())

	_, err = table.Select("id", "profit")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
}

func TestTable_MapColumnDoesNotMutate(t *testing.T) {
	table := sampleTable()

	mapped, err := table.MapColumn("title", func(c Cell) (Cell, error) {
		return Text(c.Value + "!"), nil
	})
	require.NoError(t, err)

	v, _ := mapped.Values("title")
	assert.Equal(t, []string{"Alpha!", "Beta!", "Gamma!"}, v)

	orig, _ := table.Values("title")
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, orig)
}

func TestTable_MapColumnAnnotatesErrors(t *testing.T) {
	table := sampleTable()

	_, err := table.MapColumn("id", func(c Cell) (Cell, error) {
		if c.Value == "2" {
			return Cell{}, apperrors.NewSchemaError("", "bad value")
		}
		return c, nil
	})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "id", appErr.Context[apperrors.ContextColumn])
	assert.Equal(t, 2, appErr.Context[apperrors.ContextRow])
}

func TestTable_WithColumn(t *testing.T) {
	table := sampleTable()

	extended, err := table.WithColumn("n", func(i int, _ Row) (Cell, error) {
		return Text(string(rune('a' + i))), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "title", "genres", "n"}, extended.Columns())

	values, _ := extended.Values("n")
	assert.Equal(t, []string{"a", "b", "c"}, values)

	replaced, err := extended.WithColumn("n", func(int, Row) (Cell, error) { return Text("z"), nil })
	require.NoError(t, err)
	assert.Equal(t, 4, replaced.Width())
}

func TestTable_FilterAndEqual(t *testing.T) {
	table := sampleTable()

	filtered := table.Filter(func(r Row) bool { return !r.HasNull() })
	assert.Equal(t, 2, filtered.Len())
	assert.False(t, filtered.Equal(table))
	assert.True(t, table.Equal(table.Clone()))
}

func TestRow_Key(t *testing.T) {
	a := Row{Text("x"), NullCell()}
	b := Row{Text("x"), Text("")}

	assert.NotEqual(t, a.Key(), b.Key())
	assert.Equal(t, a.Key(), Row{Text("x"), NullCell()}.Key())
	assert.NotEqual(t, Row{Text("a|"), Text("b")}.Key(), Row{Text("a"), Text("|b")}.Key())
	assert.NotEqual(t,
		Row{Text("x\x1f\x00Vy"), Text("z")}.Key(),
		Row{Text("x"), Text("y\x1f\x00Vz")}.Key())
	assert.NotEqual(t, Row{Text("1:a"), NullCell()}.Key(), Row{Text("1"), Text("a")}.Key())
}
