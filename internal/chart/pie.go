package chart

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"github.com/datachat-poc/server/internal/datasource"
)

// drawPie renders one slice per row using the first categorical column as
// labels and the first numeric column as values. Rows whose value does not
// coerce are dropped; a column with no coercible value at all is an error.
func (r *Renderer) drawPie(t *datasource.Table, numeric, categorical []string, title string) (*gg.Context, string, error) {
	if len(categorical) < 1 || len(numeric) < 1 {
		return nil, "", errors.New("pie chart requires at least 1 categorical and 1 numeric column")
	}
	catCol, measure := categorical[0], numeric[0]
	ci, mi := t.ColumnIndex(catCol), t.ColumnIndex(measure)

	type slice struct {
		label string
		value float64
	}
	var (
		slices []slice
		total  float64
	)
	for _, row := range t.Rows {
		v, ok := coerceFloat(row[mi])
		if !ok {
			continue
		}
		if v < 0 {
			return nil, "", fmt.Errorf("pie chart requires non-negative values in column '%s'", measure)
		}
		label, _ := cellString(row[ci])
		slices = append(slices, slice{label: label, value: v})
		total += v
	}
	if len(slices) == 0 {
		return nil, "", fmt.Errorf("column '%s' could not be interpreted as numeric", measure)
	}
	if total == 0 {
		return nil, "", fmt.Errorf("pie chart values in column '%s' sum to zero", measure)
	}

	resolved := title
	if resolved == "" {
		resolved = fmt.Sprintf("Distribution of %s by %s", measure, catCol)
	}

	dc := r.newCanvas(resolved)
	cx := float64(r.width) / 2
	cy := (float64(r.height) + 30) / 2
	radius := math.Min(float64(r.width), float64(r.height)) * 0.32

	angle := -math.Pi / 2
	for i, s := range slices {
		frac := s.value / total
		a0, a1 := angle, angle+frac*2*math.Pi

		dc.MoveTo(cx, cy)
		dc.DrawArc(cx, cy, radius, a0, a1)
		dc.ClosePath()
		dc.SetColor(seriesColor(i))
		dc.Fill()

		mid := (a0 + a1) / 2
		dc.SetFontFace(r.tickFace)
		dc.SetColor(color.White)
		dc.DrawStringAnchored(
			fmt.Sprintf("%.1f%%", frac*100),
			cx+math.Cos(mid)*radius*0.6,
			cy+math.Sin(mid)*radius*0.6,
			0.5, 0.5,
		)

		dc.SetColor(colText)
		dc.DrawStringAnchored(
			s.label,
			cx+math.Cos(mid)*radius*1.12,
			cy+math.Sin(mid)*radius*1.12,
			(1-math.Cos(mid))/2, 0.5,
		)

		angle = a1
	}

	return dc, resolved, nil
}
