// Package chart renders query results into PNG charts. All rendering happens
// off-screen; the only outputs are a base64 data URI and a short message.
package chart

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/datachat-poc/server/internal/datasource"
	logx "github.com/datachat-poc/server/pkg/logger"
)

// Supported chart types.
const (
	TypeBar     = "bar"
	TypeLine    = "line"
	TypePie     = "pie"
	TypeScatter = "scatter"
	TypeHeatmap = "heatmap"
)

// ErrNoData is returned when the query produced an empty result set.
var ErrNoData = errors.New("no data found for the query")

// Request describes one chart to generate.
type Request struct {
	Query string
	Type  string
	Title string
}

// HeatmapRequest describes an explicit pivot heatmap. Empty axis fields are
// inferred from column classification.
type HeatmapRequest struct {
	Query   string
	Row     string
	Column  string
	Value   string
	AggFunc string
	Title   string
}

// Chart is a successfully rendered image.
type Chart struct {
	DataURI string
	Message string
	Title   string
}

// Options tunes the canvas. FontPath points at an optional TTF file; when
// empty the built-in bitmap face is used.
type Options struct {
	Width    int
	Height   int
	FontPath string
}

// Renderer turns tabular query results into charts.
type Renderer struct {
	source datasource.Queryer

	width  int
	height int

	titleFace font.Face
	labelFace font.Face
	tickFace  font.Face
}

// NewRenderer builds a renderer over the given datasource.
func NewRenderer(source datasource.Queryer, opts Options) (*Renderer, error) {
	r := &Renderer{
		source: source,
		width:  opts.Width,
		height: opts.Height,
	}
	if r.width <= 0 {
		r.width = 1000
	}
	if r.height <= 0 {
		r.height = 600
	}

	if opts.FontPath == "" {
		r.titleFace = basicfont.Face7x13
		r.labelFace = basicfont.Face7x13
		r.tickFace = basicfont.Face7x13
		return r, nil
	}

	ttf, err := os.ReadFile(opts.FontPath)
	if err != nil {
		return nil, fmt.Errorf("could not read chart font: %w", err)
	}
	parsed, err := truetype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("could not parse chart font: %w", err)
	}
	r.titleFace = newFace(parsed, 18)
	r.labelFace = newFace(parsed, 13)
	r.tickFace = newFace(parsed, 11)
	return r, nil
}

func newFace(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// Generate runs the query, classifies the result columns and renders the
// requested chart type. Errors describe why the chart cannot be drawn and are
// meant to be surfaced to the model as tool output.
func (r *Renderer) Generate(ctx context.Context, req Request) (*Chart, error) {
	logx.Debug().Str("chart_type", req.Type).Str("query", req.Query).Msg("generating chart")

	table, err := r.source.Query(ctx, req.Query)
	if err != nil {
		return nil, err
	}
	if table.Empty() {
		return nil, ErrNoData
	}

	numeric, categorical := Classify(table)
	logx.Debug().
		Strs("numeric_columns", numeric).
		Strs("categorical_columns", categorical).
		Msg("classified result columns")

	kind := strings.ToLower(strings.TrimSpace(req.Type))

	var (
		dc    *gg.Context
		title string
	)
	switch kind {
	case TypePie:
		dc, title, err = r.drawPie(table, numeric, categorical, req.Title)
	case TypeBar, TypeLine:
		dc, title, err = r.drawBarLine(kind, table, numeric, categorical, req.Title)
	case TypeScatter:
		dc, title, err = r.drawScatter(table, numeric, req.Title)
	case TypeHeatmap:
		dc, title, err = r.drawHeatmap(table, numeric, categorical, req.Title)
	default:
		return nil, fmt.Errorf("chart type '%s' not recognized. Use: bar, line, pie, scatter, heatmap", req.Type)
	}
	if err != nil {
		return nil, err
	}

	uri, err := encodeDataURI(dc)
	if err != nil {
		return nil, err
	}

	return &Chart{
		DataURI: uri,
		Message: fmt.Sprintf("Chart '%s' generated successfully.", kind),
		Title:   title,
	}, nil
}

// Heatmap renders an explicit pivot heatmap with a configurable aggregation.
func (r *Renderer) Heatmap(ctx context.Context, req HeatmapRequest) (*Chart, error) {
	logx.Debug().Str("query", req.Query).Msg("generating pivot heatmap")

	table, err := r.source.Query(ctx, req.Query)
	if err != nil {
		return nil, err
	}
	if table.Empty() {
		return nil, ErrNoData
	}

	row, col, val := req.Row, req.Column, req.Value
	if row == "" || col == "" || val == "" {
		numeric, categorical := Classify(table)
		if len(categorical) < 2 || len(numeric) < 1 {
			return nil, errors.New("could not infer the heatmap columns. Provide 'row', 'column' and 'value' explicitly")
		}
		if row == "" {
			row = categorical[0]
		}
		if col == "" {
			col = categorical[1]
		}
		if val == "" {
			val = numeric[0]
		}
	}

	agg, err := aggregatorFor(req.AggFunc)
	if err != nil {
		return nil, err
	}

	pt, err := pivotTable(table, row, col, val, agg)
	if err != nil {
		return nil, err
	}

	title := req.Title
	if title == "" {
		title = "Heatmap"
	}

	dc := r.drawHeatmapGrid(pt, col, row, title)

	uri, err := encodeDataURI(dc)
	if err != nil {
		return nil, err
	}

	return &Chart{
		DataURI: uri,
		Message: fmt.Sprintf("Heatmap generated successfully using %s.", agg.name),
		Title:   title,
	}, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
