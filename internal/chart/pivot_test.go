package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datachat-poc/server/internal/datasource"
)

func TestAggregatorFor(t *testing.T) {
	b := bucket{sum: 10, count: 4, min: 1, max: 7}

	cases := []struct {
		in       string
		wantName string
		want     float64
	}{
		{"", "sum", 10},
		{"sum", "sum", 10},
		{"mean", "mean", 2.5},
		{"count", "count", 4},
		{"min", "min", 1},
		{"max", "max", 7},
	}
	for _, tc := range cases {
		t.Run("agg "+tc.wantName, func(t *testing.T) {
			agg, err := aggregatorFor(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.wantName, agg.name)
			assert.InDelta(t, tc.want, agg.final(b), 1e-9)
		})
	}
}

func TestAggregatorFor_Unknown(t *testing.T) {
	_, err := aggregatorFor("median")
	assert.EqualError(t, err, "aggregation 'median' not supported. Use: sum, mean, count, min, max")
}

func TestAggregatorFor_MeanOfEmptyBucket(t *testing.T) {
	agg, err := aggregatorFor("mean")
	require.NoError(t, err)
	assert.Zero(t, agg.final(bucket{}))
}

func TestPivotTable(t *testing.T) {
	table := &datasource.Table{
		Columns: []string{"region", "product", "amount"},
		Rows: [][]any{
			{"south", "b", 10},
			{"north", "a", 1},
			{"north", "a", 2},
			{"north", "b", 4},
		},
	}
	agg, err := aggregatorFor("sum")
	require.NoError(t, err)

	p, err := pivotTable(table, "region", "product", "amount", agg)
	require.NoError(t, err)

	// Keys come out sorted; combinations absent from the data hold zero.
	assert.Equal(t, []string{"north", "south"}, p.RowKeys)
	assert.Equal(t, []string{"a", "b"}, p.ColKeys)
	assert.Equal(t, [][]float64{{3, 4}, {0, 10}}, p.Cells)
}

func TestPivotTable_SkipsUnusableRows(t *testing.T) {
	table := &datasource.Table{
		Columns: []string{"r", "c", "v"},
		Rows: [][]any{
			{nil, "a", 5},        // missing row key
			{"north", nil, 5},    // missing column key
			{"north", "a", "xx"}, // value does not coerce
			{"north", "a", 2},
		},
	}
	agg, err := aggregatorFor("sum")
	require.NoError(t, err)

	p, err := pivotTable(table, "r", "c", "v", agg)
	require.NoError(t, err)
	assert.Equal(t, []string{"north"}, p.RowKeys)
	assert.Equal(t, []string{"a"}, p.ColKeys)
	assert.Equal(t, [][]float64{{2}}, p.Cells)
}

func TestPivotTable_ColumnNotFound(t *testing.T) {
	table := &datasource.Table{
		Columns: []string{"r", "c", "v"},
		Rows:    [][]any{{"x", "y", 1}},
	}
	agg, err := aggregatorFor("sum")
	require.NoError(t, err)

	_, err = pivotTable(table, "nope", "c", "v", agg)
	assert.EqualError(t, err, "column 'nope' not found in the query result")

	_, err = pivotTable(table, "r", "c", "missing", agg)
	assert.EqualError(t, err, "column 'missing' not found in the query result")
}

func TestPivot_ValueRange(t *testing.T) {
	p := &pivot{Cells: [][]float64{{1, 5}, {-2, 3}}}
	lo, hi := p.valueRange()
	assert.Equal(t, -2.0, lo)
	assert.Equal(t, 5.0, hi)
}

func TestCellString(t *testing.T) {
	s, ok := cellString("x")
	assert.True(t, ok)
	assert.Equal(t, "x", s)

	s, ok = cellString([]byte("y"))
	assert.True(t, ok)
	assert.Equal(t, "y", s)

	s, ok = cellString(true)
	assert.True(t, ok)
	assert.Equal(t, "true", s)

	s, ok = cellString(2.5)
	assert.True(t, ok)
	assert.Equal(t, "2.5", s)

	s, ok = cellString(42)
	assert.True(t, ok)
	assert.Equal(t, "42", s)

	_, ok = cellString(nil)
	assert.False(t, ok)
}
