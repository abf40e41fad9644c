package chart

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/datachat-poc/server/internal/datasource"
)

// pivot is a dense two-dimensional aggregation of a result set. Row and
// column keys are sorted lexically; combinations absent from the data hold 0.
type pivot struct {
	RowKeys []string
	ColKeys []string
	Cells   [][]float64
}

type aggregator struct {
	name  string
	final func(b bucket) float64
}

type bucket struct {
	sum   float64
	count int
	min   float64
	max   float64
}

func aggregatorFor(name string) (aggregator, error) {
	switch name {
	case "", "sum":
		return aggregator{name: "sum", final: func(b bucket) float64 { return b.sum }}, nil
	case "mean":
		return aggregator{name: "mean", final: func(b bucket) float64 {
			if b.count == 0 {
				return 0
			}
			return b.sum / float64(b.count)
		}}, nil
	case "count":
		return aggregator{name: "count", final: func(b bucket) float64 { return float64(b.count) }}, nil
	case "min":
		return aggregator{name: "min", final: func(b bucket) float64 { return b.min }}, nil
	case "max":
		return aggregator{name: "max", final: func(b bucket) float64 { return b.max }}, nil
	default:
		return aggregator{}, fmt.Errorf("aggregation '%s' not supported. Use: sum, mean, count, min, max", name)
	}
}

func pivotSum(t *datasource.Table, rowCol, colCol, valCol string) (*pivot, error) {
	agg, _ := aggregatorFor("sum")
	return pivotTable(t, rowCol, colCol, valCol, agg)
}

// pivotTable groups rows by (rowCol, colCol) and aggregates valCol. Rows with
// a missing group key, or whose value does not coerce to a number, are
// skipped.
func pivotTable(t *datasource.Table, rowCol, colCol, valCol string, agg aggregator) (*pivot, error) {
	ri := t.ColumnIndex(rowCol)
	if ri < 0 {
		return nil, fmt.Errorf("column '%s' not found in the query result", rowCol)
	}
	ci := t.ColumnIndex(colCol)
	if ci < 0 {
		return nil, fmt.Errorf("column '%s' not found in the query result", colCol)
	}
	vi := t.ColumnIndex(valCol)
	if vi < 0 {
		return nil, fmt.Errorf("column '%s' not found in the query result", valCol)
	}

	buckets := make(map[string]map[string]bucket)
	for _, row := range t.Rows {
		rk, ok := cellString(row[ri])
		if !ok {
			continue
		}
		ck, ok := cellString(row[ci])
		if !ok {
			continue
		}
		v, ok := coerceFloat(row[vi])
		if !ok {
			continue
		}

		cols, ok := buckets[rk]
		if !ok {
			cols = make(map[string]bucket)
			buckets[rk] = cols
		}
		b, seen := cols[ck]
		if !seen {
			b = bucket{min: math.Inf(1), max: math.Inf(-1)}
		}
		b.sum += v
		b.count++
		b.min = math.Min(b.min, v)
		b.max = math.Max(b.max, v)
		cols[ck] = b
	}

	p := &pivot{}
	colSeen := make(map[string]bool)
	for rk, cols := range buckets {
		p.RowKeys = append(p.RowKeys, rk)
		for ck := range cols {
			if !colSeen[ck] {
				colSeen[ck] = true
				p.ColKeys = append(p.ColKeys, ck)
			}
		}
	}
	sort.Strings(p.RowKeys)
	sort.Strings(p.ColKeys)

	p.Cells = make([][]float64, len(p.RowKeys))
	for i, rk := range p.RowKeys {
		p.Cells[i] = make([]float64, len(p.ColKeys))
		for j, ck := range p.ColKeys {
			if b, ok := buckets[rk][ck]; ok {
				p.Cells[i][j] = agg.final(b)
			}
		}
	}

	return p, nil
}

func (p *pivot) valueRange() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, row := range p.Cells {
		for _, v := range row {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	return lo, hi
}

// cellString renders a group key. The second return value is false for nil
// cells, which are excluded from grouping.
func cellString(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case []byte:
		return string(x), true
	case bool:
		return strconv.FormatBool(x), true
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), true
	default:
		return fmt.Sprint(x), true
	}
}
