package chart

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/datachat-poc/server/internal/datasource"
)

func TestClassify_Threshold(t *testing.T) {
	// 4 of 5 cells coerce: exactly the 80% cutoff counts as numeric.
	table := &datasource.Table{
		Columns: []string{"v"},
		Rows:    [][]any{{1}, {2}, {3}, {4}, {"n/a"}},
	}
	numeric, categorical := Classify(table)
	assert.Equal(t, []string{"v"}, numeric)
	assert.Empty(t, categorical)

	// 3 of 5 falls below the cutoff.
	table.Rows = [][]any{{1}, {2}, {3}, {"n/a"}, {"n/a"}}
	numeric, categorical = Classify(table)
	assert.Empty(t, numeric)
	assert.Equal(t, []string{"v"}, categorical)
}

func TestClassify_PreservesColumnOrder(t *testing.T) {
	table := &datasource.Table{
		Columns: []string{"region", "total", "product", "qty"},
		Rows: [][]any{
			{"north", 10.5, "a", 1},
			{"south", "2", "b", 2},
		},
	}
	numeric, categorical := Classify(table)
	assert.Equal(t, []string{"total", "qty"}, numeric)
	assert.Equal(t, []string{"region", "product"}, categorical)
}

func TestClassify_EmptyTable(t *testing.T) {
	table := &datasource.Table{Columns: []string{"a", "b"}}
	numeric, categorical := Classify(table)
	assert.Empty(t, numeric)
	assert.Equal(t, []string{"a", "b"}, categorical)
}

func TestCoerceFloat(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{"int", 42, 42, true},
		{"negative int64", int64(-7), -7, true},
		{"uint8", uint8(3), 3, true},
		{"float64", 2.5, 2.5, true},
		{"float32", float32(1.5), 1.5, true},
		{"numeric string", " 12.5 ", 12.5, true},
		{"bytes", []byte("7"), 7, true},
		{"bool true", true, 1, true},
		{"bool false", false, 0, true},
		{"nil", nil, 0, false},
		{"empty string", "", 0, false},
		{"word", "hello", 0, false},
		{"nan", math.NaN(), 0, false},
		{"nan string", "NaN", 0, false},
		{"inf", math.Inf(1), 0, false},
		{"timestamp", time.Now(), 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := coerceFloat(tc.in)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.InDelta(t, tc.want, got, 1e-9)
			}
		})
	}
}
