package chart

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/datachat-poc/server/internal/datasource"
)

// numericRatioThreshold is the share of cells that must coerce to a number
// for a column to count as a measure.
const numericRatioThreshold = 0.8

// Classify splits the table's columns into numeric (measures) and categorical
// (dimensions), preserving column order. A column is numeric when at least
// 80% of its cells coerce to a float; everything else, including columns of
// unrecognized cell types, is categorical.
func Classify(t *datasource.Table) (numeric, categorical []string) {
	for i, col := range t.Columns {
		if numericRatio(t, i) >= numericRatioThreshold {
			numeric = append(numeric, col)
		} else {
			categorical = append(categorical, col)
		}
	}
	return numeric, categorical
}

func numericRatio(t *datasource.Table, col int) float64 {
	if len(t.Rows) == 0 {
		return 0
	}
	valid := 0
	for _, row := range t.Rows {
		if _, ok := coerceFloat(row[col]); ok {
			valid++
		}
	}
	return float64(valid) / float64(len(t.Rows))
}

// coerceFloat attempts to read a result cell as a float. NaN and infinities
// count as failed coercions, as do empty strings and nil cells.
func coerceFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case []byte:
		return parseFloatString(string(x))
	case string:
		return parseFloatString(x)
	case time.Time:
		return 0, false
	default:
		return 0, false
	}
}

func parseFloatString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return finite(f)
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
