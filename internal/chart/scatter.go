package chart

import (
	"errors"
	"fmt"
	"math"

	"github.com/fogleman/gg"

	"github.com/datachat-poc/server/internal/datasource"
)

// drawScatter plots the first two numeric columns as x/y. A third numeric
// column drives point color through the viridis gradient plus a colorbar.
func (r *Renderer) drawScatter(t *datasource.Table, numeric []string, title string) (*gg.Context, string, error) {
	if len(numeric) < 2 {
		return nil, "", errors.New("scatter requires at least 2 numeric columns (for X and Y)")
	}
	xCol, yCol := numeric[0], numeric[1]
	xi, yi := t.ColumnIndex(xCol), t.ColumnIndex(yCol)

	colorCol := ""
	ci := -1
	if len(numeric) >= 3 {
		colorCol = numeric[2]
		ci = t.ColumnIndex(colorCol)
	}

	type point struct {
		x, y, c float64
	}
	var pts []point
	xLo, xHi := math.Inf(1), math.Inf(-1)
	yLo, yHi := math.Inf(1), math.Inf(-1)
	cLo, cHi := math.Inf(1), math.Inf(-1)
	for _, row := range t.Rows {
		x, ok := coerceFloat(row[xi])
		if !ok {
			continue
		}
		y, ok := coerceFloat(row[yi])
		if !ok {
			continue
		}
		p := point{x: x, y: y}
		if ci >= 0 {
			c, ok := coerceFloat(row[ci])
			if !ok {
				continue
			}
			p.c = c
			cLo = math.Min(cLo, c)
			cHi = math.Max(cHi, c)
		}
		xLo = math.Min(xLo, x)
		xHi = math.Max(xHi, x)
		yLo = math.Min(yLo, y)
		yHi = math.Max(yHi, y)
		pts = append(pts, p)
	}

	resolved := title
	if resolved == "" {
		if colorCol != "" {
			resolved = fmt.Sprintf("Scatter - X=%s, Y=%s, Color=%s", xCol, yCol, colorCol)
		} else {
			resolved = fmt.Sprintf("Scatter - X=%s, Y=%s", xCol, yCol)
		}
	}

	dc := r.newCanvas(resolved)
	rightPad := 0.0
	if colorCol != "" {
		rightPad = 110
	}
	pa := r.plotFrame(rightPad)

	xs := newValueScale(xLo, xHi, false)
	ys := newValueScale(yLo, yHi, false)

	r.drawValueAxis(dc, pa, ys)
	r.drawXValueAxis(dc, pa, xs)
	r.drawAxisFrame(dc, pa)

	cSpan := cHi - cLo
	for _, p := range pts {
		col := seriesColor(0)
		if colorCol != "" {
			tNorm := 0.5
			if cSpan > 0 {
				tNorm = (p.c - cLo) / cSpan
			}
			col = gradientAt(viridisStops, tNorm)
		}
		dc.SetColor(col)
		dc.DrawCircle(pa.x0+xs.frac(p.x)*pa.w(), pa.y1-ys.frac(p.y)*pa.h(), 4)
		dc.Fill()
	}

	r.drawAxisTitles(dc, pa, xCol, yCol)
	if colorCol != "" {
		r.drawColorbar(dc, pa, cLo, cHi, colorCol)
	}

	return dc, resolved, nil
}

func (r *Renderer) drawColorbar(dc *gg.Context, pa plotArea, lo, hi float64, label string) {
	if math.IsInf(lo, 1) {
		lo, hi = 0, 1
	}
	if hi == lo {
		hi = lo + 1
	}

	x := pa.x1 + 24
	const barW = 16.0
	steps := int(pa.h())
	for i := 0; i < steps; i++ {
		t := float64(i) / float64(steps-1)
		dc.SetColor(gradientAt(viridisStops, t))
		dc.DrawRectangle(x, pa.y1-t*pa.h()-1, barW, 2)
		dc.Fill()
	}

	step := niceStep(hi-lo, 6)
	dc.SetFontFace(r.tickFace)
	dc.SetColor(colText)
	dc.DrawStringAnchored(formatTick(lo, step), x+barW+6, pa.y1, 0, 0.5)
	dc.DrawStringAnchored(formatTick(hi, step), x+barW+6, pa.y0, 0, 0.5)

	cy := (pa.y0 + pa.y1) / 2
	dc.Push()
	dc.RotateAbout(gg.Radians(-90), x+barW+42, cy)
	dc.DrawStringAnchored(label, x+barW+42, cy, 0.5, 0.5)
	dc.Pop()
}
