package chart

import (
	"fmt"
	"image/color"

	"github.com/fogleman/gg"

	"github.com/datachat-poc/server/internal/datasource"
)

// drawHeatmap pivots the first two categorical columns over the first numeric
// column (sum aggregation) and renders the annotated grid.
func (r *Renderer) drawHeatmap(t *datasource.Table, numeric, categorical []string, title string) (*gg.Context, string, error) {
	if len(categorical) < 2 || len(numeric) < 1 {
		return nil, "", fmt.Errorf("heatmap requires at least 2 categorical columns and 1 numeric column (got %d categorical, %d numeric)",
			len(categorical), len(numeric))
	}
	cat1, cat2 := categorical[0], categorical[1]
	measure := numeric[0]

	pt, err := pivotSum(t, cat1, cat2, measure)
	if err != nil {
		return nil, "", err
	}

	resolved := title
	if resolved == "" {
		resolved = fmt.Sprintf("Heatmap of %s | %s vs %s", measure, cat1, cat2)
	}

	return r.drawHeatmapGrid(pt, cat2, cat1, resolved), resolved, nil
}

// drawHeatmapGrid renders annotated cells colored on a white-to-blue ramp,
// with thin white borders between cells. Annotation text flips to white on
// dark cells.
func (r *Renderer) drawHeatmapGrid(p *pivot, xLabel, yLabel, title string) *gg.Context {
	dc := r.newCanvas(title)
	pa := r.plotFrame(0)

	if len(p.RowKeys) == 0 || len(p.ColKeys) == 0 {
		r.drawAxisFrame(dc, pa)
		r.drawAxisTitles(dc, pa, xLabel, yLabel)
		return dc
	}

	lo, hi := p.valueRange()
	span := hi - lo
	cw := pa.w() / float64(len(p.ColKeys))
	ch := pa.h() / float64(len(p.RowKeys))

	for i, rk := range p.RowKeys {
		y := pa.y0 + float64(i)*ch
		for j := range p.ColKeys {
			v := p.Cells[i][j]
			tNorm := 0.5
			if span > 0 {
				tNorm = (v - lo) / span
			}
			x := pa.x0 + float64(j)*cw

			dc.SetColor(gradientAt(bluesStops, tNorm))
			dc.DrawRectangle(x, y, cw, ch)
			dc.Fill()

			dc.SetColor(color.White)
			dc.SetLineWidth(1)
			dc.DrawRectangle(x, y, cw, ch)
			dc.Stroke()

			dc.SetFontFace(r.tickFace)
			if tNorm > 0.6 {
				dc.SetColor(color.White)
			} else {
				dc.SetColor(colText)
			}
			dc.DrawStringAnchored(fmt.Sprintf("%.0f", v), x+cw/2, y+ch/2, 0.5, 0.5)
		}

		dc.SetFontFace(r.tickFace)
		dc.SetColor(colText)
		dc.DrawStringAnchored(rk, pa.x0-8, y+ch/2, 1, 0.5)
	}

	dc.SetFontFace(r.tickFace)
	dc.SetColor(colText)
	for j, ck := range p.ColKeys {
		dc.DrawStringAnchored(ck, pa.x0+(float64(j)+0.5)*cw, pa.y1+14, 0.5, 0.5)
	}

	r.drawAxisTitles(dc, pa, xLabel, yLabel)
	return dc
}
