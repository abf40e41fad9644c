package tools

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/datachat-poc/server/internal/chart"
	logx "github.com/datachat-poc/server/pkg/logger"
)

type GenerateGenericHeatmapInput struct {
	Query   string `json:"query"`
	Row     string `json:"row,omitempty"`
	Column  string `json:"column,omitempty"`
	Value   string `json:"value,omitempty"`
	AggFunc string `json:"aggfunc,omitempty"`
	Title   string `json:"title,omitempty"`
}

type generateGenericHeatmapTool struct {
	renderer *chart.Renderer
}

// NewGenerateGenericHeatmap renders a pivoted heatmap with a configurable
// aggregation, for result sets where the default heatmap shape does not fit.
func NewGenerateGenericHeatmap(renderer *chart.Renderer) Handler {
	return &generateGenericHeatmapTool{renderer: renderer}
}

func (t *generateGenericHeatmapTool) Info() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: NameGenerateGenericHeatmap,
		Desc: "Run a read-only SQL query, pivot the result and render it as a heatmap " +
			"image. Choose which columns become the rows, the columns and the cell " +
			"values of the pivot, and how duplicate combinations are aggregated. " +
			"When row, column or value are omitted they are inferred from the result: " +
			"the first two categorical columns become the axes and the first numeric " +
			"column becomes the value. Prefer generate_chart with chart_type 'heatmap' " +
			"for simple cases; use this tool when you need an explicit pivot or an " +
			"aggregation other than sum.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {
				Type:     schema.String,
				Desc:     "Read-only SQL query producing the data to pivot",
				Required: true,
			},
			"row": {
				Type: schema.String,
				Desc: "Column whose values become the heatmap rows",
			},
			"column": {
				Type: schema.String,
				Desc: "Column whose values become the heatmap columns",
			},
			"value": {
				Type: schema.String,
				Desc: "Numeric column aggregated into each cell",
			},
			"aggfunc": {
				Type: schema.String,
				Desc: "Aggregation applied to duplicate row/column pairs: sum, mean, count, min or max (default sum)",
			},
			"title": {
				Type: schema.String,
				Desc: "Optional chart title",
			},
		}),
	}
}

func (t *generateGenericHeatmapTool) Call(ctx context.Context, args map[string]any) Result {
	var in GenerateGenericHeatmapInput
	if err := decodeArgs(args, &in); err != nil {
		return Errorf("invalid arguments: %v", err)
	}

	req := chart.HeatmapRequest{
		Query:   strings.TrimSpace(in.Query),
		Row:     strings.TrimSpace(in.Row),
		Column:  strings.TrimSpace(in.Column),
		Value:   strings.TrimSpace(in.Value),
		AggFunc: strings.TrimSpace(in.AggFunc),
		Title:   strings.TrimSpace(in.Title),
	}
	if req.Query == "" {
		return ErrorResult("a non-empty 'query' argument is required")
	}

	c, err := t.renderer.Heatmap(ctx, req)
	if err != nil {
		logx.Warn().Err(err).Msg("heatmap generation failed")
		return ErrorResult(err.Error())
	}

	logx.Info().Str("title", c.Title).Msg("heatmap generated")
	return ImageResult(c.DataURI, c.Message)
}
