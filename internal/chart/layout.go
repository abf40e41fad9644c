package chart

import (
	"image/color"
	"math"
	"strconv"

	"github.com/fogleman/gg"
)

var (
	colText = color.NRGBA{R: 60, G: 60, B: 60, A: 255}
	colGrid = color.NRGBA{R: 223, G: 223, B: 223, A: 255}
	colAxis = color.NRGBA{R: 120, G: 120, B: 120, A: 255}
)

// plotArea is the pixel rectangle holding the data region.
type plotArea struct {
	x0, y0, x1, y1 float64
}

func (p plotArea) w() float64 { return p.x1 - p.x0 }
func (p plotArea) h() float64 { return p.y1 - p.y0 }

func (r *Renderer) newCanvas(title string) *gg.Context {
	dc := gg.NewContext(r.width, r.height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetFontFace(r.titleFace)
	dc.SetColor(colText)
	dc.DrawStringAnchored(title, float64(r.width)/2, 26, 0.5, 0.5)
	return dc
}

// plotFrame reserves margins for the title, tick labels and axis titles.
// rightPad makes room for an outside legend or a colorbar.
func (r *Renderer) plotFrame(rightPad float64) plotArea {
	return plotArea{
		x0: 90,
		y0: 56,
		x1: float64(r.width) - 40 - rightPad,
		y1: float64(r.height) - 92,
	}
}

// valueScale maps data values onto an axis with rounded tick steps.
type valueScale struct {
	lo, hi, step float64
}

func newValueScale(lo, hi float64, includeZero bool) valueScale {
	if math.IsInf(lo, 1) || math.IsInf(hi, -1) {
		lo, hi = 0, 1
	}
	if includeZero {
		lo = math.Min(lo, 0)
		hi = math.Max(hi, 0)
	}
	if hi == lo {
		hi = lo + 1
	}
	step := niceStep(hi-lo, 6)
	lo = math.Floor(lo/step) * step
	hi = math.Ceil(hi/step) * step
	if hi == lo {
		hi = lo + step
	}
	return valueScale{lo: lo, hi: hi, step: step}
}

func (s valueScale) frac(v float64) float64 {
	return (v - s.lo) / (s.hi - s.lo)
}

func (s valueScale) ticks() []float64 {
	n := int(math.Round((s.hi - s.lo) / s.step))
	out := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		out = append(out, s.lo+float64(i)*s.step)
	}
	return out
}

func niceStep(span float64, maxTicks int) float64 {
	if span <= 0 {
		return 1
	}
	raw := span / float64(maxTicks)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	switch frac := raw / mag; {
	case frac <= 1:
		return mag
	case frac <= 2:
		return 2 * mag
	case frac <= 5:
		return 5 * mag
	default:
		return 10 * mag
	}
}

func formatTick(v, step float64) string {
	if step >= 1 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	dec := int(math.Ceil(-math.Log10(step)))
	return strconv.FormatFloat(v, 'f', dec, 64)
}

func (r *Renderer) drawAxisFrame(dc *gg.Context, pa plotArea) {
	dc.SetColor(colAxis)
	dc.SetLineWidth(1)
	dc.DrawLine(pa.x0, pa.y0, pa.x0, pa.y1)
	dc.Stroke()
	dc.DrawLine(pa.x0, pa.y1, pa.x1, pa.y1)
	dc.Stroke()
}

func (r *Renderer) drawValueAxis(dc *gg.Context, pa plotArea, s valueScale) {
	dc.SetFontFace(r.tickFace)
	for _, v := range s.ticks() {
		y := pa.y1 - s.frac(v)*pa.h()
		dc.SetColor(colGrid)
		dc.SetLineWidth(1)
		dc.DrawLine(pa.x0, y, pa.x1, y)
		dc.Stroke()
		dc.SetColor(colText)
		dc.DrawStringAnchored(formatTick(v, s.step), pa.x0-8, y, 1, 0.5)
	}
}

func (r *Renderer) drawXValueAxis(dc *gg.Context, pa plotArea, s valueScale) {
	dc.SetFontFace(r.tickFace)
	for _, v := range s.ticks() {
		x := pa.x0 + s.frac(v)*pa.w()
		dc.SetColor(colGrid)
		dc.SetLineWidth(1)
		dc.DrawLine(x, pa.y0, x, pa.y1)
		dc.Stroke()
		dc.SetColor(colText)
		dc.DrawStringAnchored(formatTick(v, s.step), x, pa.y1+14, 0.5, 0.5)
	}
}

// drawCategoryLabels writes one label per slot along the x axis. Rotated
// labels anchor their right end at the slot center, matching the usual
// 45-degree right-aligned tick style.
func (r *Renderer) drawCategoryLabels(dc *gg.Context, pa plotArea, labels []string, rotate bool) {
	dc.SetFontFace(r.tickFace)
	dc.SetColor(colText)
	n := float64(len(labels))
	for i, lab := range labels {
		x := pa.x0 + (float64(i)+0.5)*pa.w()/n
		y := pa.y1 + 14
		if rotate {
			dc.Push()
			dc.RotateAbout(gg.Radians(-45), x, y)
			dc.DrawStringAnchored(lab, x, y, 1, 0.5)
			dc.Pop()
		} else {
			dc.DrawStringAnchored(lab, x, y, 0.5, 0.5)
		}
	}
}

func (r *Renderer) drawAxisTitles(dc *gg.Context, pa plotArea, xLabel, yLabel string) {
	dc.SetFontFace(r.labelFace)
	dc.SetColor(colText)
	if xLabel != "" {
		dc.DrawStringAnchored(xLabel, (pa.x0+pa.x1)/2, float64(r.height)-16, 0.5, 0.5)
	}
	if yLabel != "" {
		cy := (pa.y0 + pa.y1) / 2
		dc.Push()
		dc.RotateAbout(gg.Radians(-90), 22, cy)
		dc.DrawStringAnchored(yLabel, 22, cy, 0.5, 0.5)
		dc.Pop()
	}
}

type legendEntry struct {
	label string
	col   color.NRGBA
}

func (r *Renderer) drawLegend(dc *gg.Context, x, y float64, title string, entries []legendEntry) {
	dc.SetFontFace(r.tickFace)
	const lineHeight = 18.0
	if title != "" {
		dc.SetColor(colText)
		dc.DrawStringAnchored(title, x, y, 0, 0.5)
		y += lineHeight
	}
	for _, e := range entries {
		dc.SetColor(e.col)
		dc.DrawRectangle(x, y-5, 10, 10)
		dc.Fill()
		dc.SetColor(colText)
		dc.DrawStringAnchored(e.label, x+16, y, 0, 0.5)
		y += lineHeight
	}
}
