package chart

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fogleman/gg"

	"github.com/datachat-poc/server/internal/datasource"
)

// series is one plotted measure: a value per x slot plus a validity flag for
// cells that did not coerce.
type series struct {
	name   string
	values []float64
	valid  []bool
}

// drawBarLine covers the three bar/line layouts: index vs numeric columns,
// one category vs numeric columns, and the pivoted two-category case.
func (r *Renderer) drawBarLine(kind string, t *datasource.Table, numeric, categorical []string, title string) (*gg.Context, string, error) {
	var (
		labels        []string
		list          []series
		xLabel        string
		yLabel        string
		legendTitle   string
		outsideLegend bool
		rotate        bool
	)
	resolved := title

	switch {
	case len(categorical) == 0 && len(numeric) >= 1:
		labels = indexLabels(t.NumRows())
		list = columnSeries(t, numeric)
		rotate = t.NumRows() > 5
		xLabel, yLabel = "Index", "Values"
		if resolved == "" {
			resolved = fmt.Sprintf("%s - numeric columns", capitalize(kind))
		}

	case len(categorical) == 1 && len(numeric) >= 1:
		labels = rowLabels(t, t.ColumnIndex(categorical[0]))
		list = columnSeries(t, numeric)
		rotate = distinctCount(labels) > 5
		xLabel = categorical[0]
		if resolved == "" {
			resolved = fmt.Sprintf("%s of %s by %s", capitalize(kind), strings.Join(numeric, ", "), categorical[0])
		}

	case len(categorical) >= 2 && len(numeric) >= 1:
		cat1, cat2 := categorical[0], categorical[1]
		measure := numeric[0]
		pt, err := pivotSum(t, cat1, cat2, measure)
		if err != nil {
			return nil, "", err
		}
		labels = pt.RowKeys
		for j, ck := range pt.ColKeys {
			s := series{name: ck}
			for i := range pt.RowKeys {
				s.values = append(s.values, pt.Cells[i][j])
				s.valid = append(s.valid, true)
			}
			list = append(list, s)
		}
		rotate = len(pt.RowKeys) > 5
		xLabel = cat1
		legendTitle = cat2
		outsideLegend = true
		if resolved == "" {
			resolved = fmt.Sprintf("%s - %s, %s vs. %s", capitalize(kind), measure, cat1, cat2)
		}

	default:
		return nil, "", fmt.Errorf("cannot generate '%s' chart with %d categorical and %d numeric columns",
			kind, len(categorical), len(numeric))
	}

	dc := r.newCanvas(resolved)
	rightPad := 0.0
	if outsideLegend {
		rightPad = 170
	}
	pa := r.plotFrame(rightPad)

	lo, hi := seriesRange(list)
	scale := newValueScale(lo, hi, kind == TypeBar)

	r.drawValueAxis(dc, pa, scale)
	r.drawAxisFrame(dc, pa)
	if kind == TypeBar {
		r.drawBars(dc, pa, scale, list)
	} else {
		r.drawLines(dc, pa, scale, list)
	}
	r.drawCategoryLabels(dc, pa, labels, rotate)
	r.drawAxisTitles(dc, pa, xLabel, yLabel)

	entries := make([]legendEntry, len(list))
	for i, s := range list {
		entries[i] = legendEntry{label: s.name, col: seriesColor(i)}
	}
	if outsideLegend {
		r.drawLegend(dc, pa.x1+14, pa.y0+10, legendTitle, entries)
	} else if len(list) > 1 {
		r.drawLegend(dc, pa.x0+12, pa.y0+14, "", entries)
	}

	return dc, resolved, nil
}

func (r *Renderer) drawBars(dc *gg.Context, pa plotArea, scale valueScale, list []series) {
	if len(list) == 0 || len(list[0].values) == 0 {
		return
	}
	n := float64(len(list[0].values))
	slot := pa.w() / n
	barW := slot * 0.8 / float64(len(list))
	baseline := pa.y1 - scale.frac(0)*pa.h()

	for j, s := range list {
		dc.SetColor(seriesColor(j))
		for i, v := range s.values {
			if !s.valid[i] {
				continue
			}
			x := pa.x0 + float64(i)*slot + slot*0.1 + float64(j)*barW
			y := pa.y1 - scale.frac(v)*pa.h()
			top := math.Min(y, baseline)
			bottom := math.Max(y, baseline)
			dc.DrawRectangle(x, top, barW, bottom-top)
			dc.Fill()
		}
	}
}

func (r *Renderer) drawLines(dc *gg.Context, pa plotArea, scale valueScale, list []series) {
	if len(list) == 0 || len(list[0].values) == 0 {
		return
	}
	slot := pa.w() / float64(len(list[0].values))
	dc.SetLineWidth(2)

	for j, s := range list {
		dc.SetColor(seriesColor(j))
		started := false
		for i, v := range s.values {
			if !s.valid[i] {
				if started {
					dc.Stroke()
					started = false
				}
				continue
			}
			x := pa.x0 + (float64(i)+0.5)*slot
			y := pa.y1 - scale.frac(v)*pa.h()
			if started {
				dc.LineTo(x, y)
			} else {
				dc.MoveTo(x, y)
				started = true
			}
		}
		if started {
			dc.Stroke()
		}
	}
}

func columnSeries(t *datasource.Table, cols []string) []series {
	out := make([]series, 0, len(cols))
	for _, name := range cols {
		idx := t.ColumnIndex(name)
		s := series{name: name}
		for _, row := range t.Rows {
			v, ok := coerceFloat(row[idx])
			s.values = append(s.values, v)
			s.valid = append(s.valid, ok)
		}
		out = append(out, s)
	}
	return out
}

func seriesRange(list []series) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range list {
		for i, v := range s.values {
			if !s.valid[i] {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	return lo, hi
}

func indexLabels(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = strconv.Itoa(i)
	}
	return out
}

func rowLabels(t *datasource.Table, col int) []string {
	out := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		s, _ := cellString(row[col])
		out = append(out, s)
	}
	return out
}

func distinctCount(labels []string) int {
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		seen[l] = true
	}
	return len(seen)
}
