package datasource_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/datachat-poc/server/internal/datasource"
)

func TestTable_Helpers(t *testing.T) {
	var missing *datasource.Table
	assert.True(t, missing.Empty())
	assert.Zero(t, missing.NumRows())

	table := &datasource.Table{
		Columns: []string{"a", "b"},
		Rows:    [][]any{{1, "x"}, {2, "y"}},
	}
	assert.False(t, table.Empty())
	assert.Equal(t, 2, table.NumRows())
	assert.Equal(t, 1, table.ColumnIndex("b"))
	assert.Equal(t, -1, table.ColumnIndex("zz"))

	col, ok := table.Column("b")
	require.True(t, ok)
	assert.Equal(t, []any{"x", "y"}, col)

	_, ok = table.Column("zz")
	assert.False(t, ok)
}

func TestConfig_Open_UnknownDriver(t *testing.T) {
	cfg := &datasource.Config{Driver: "nosuchdriver", DSN: "whatever"}
	_, err := cfg.Open(context.Background())
	assert.Error(t, err)
}

func TestSQLSource_Query(t *testing.T) {
	ctx := context.Background()
	cfg := &datasource.Config{
		Driver:          "sqlite",
		DSN:             "file:sqlsource_test?mode=memory&cache=shared",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: 60,
	}
	db, err := cfg.Open(ctx)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.ExecContext(ctx, `CREATE TABLE sales (category TEXT, total REAL, note BLOB)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO sales VALUES ('food', 10.5, X'414243'), ('tools', 4, NULL)`)
	require.NoError(t, err)

	src := datasource.NewSQLSource(db)
	table, err := src.Query(ctx, `SELECT category, total, note FROM sales ORDER BY category`)
	require.NoError(t, err)

	assert.Equal(t, []string{"category", "total", "note"}, table.Columns)
	require.Equal(t, 2, table.NumRows())

	assert.Equal(t, "food", table.Rows[0][0])
	assert.Equal(t, 10.5, table.Rows[0][1])
	// Blob cells land as []byte and are converted to string on scan.
	assert.Equal(t, "ABC", table.Rows[0][2])
	assert.Nil(t, table.Rows[1][2])
}

func TestSQLSource_QueryError(t *testing.T) {
	ctx := context.Background()
	cfg := &datasource.Config{
		Driver:          "sqlite",
		DSN:             "file:sqlsource_err_test?mode=memory&cache=shared",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: 60,
	}
	db, err := cfg.Open(ctx)
	require.NoError(t, err)
	defer db.Close()

	src := datasource.NewSQLSource(db)
	_, err = src.Query(ctx, `SELECT * FROM missing_table`)
	assert.Error(t, err)
}
