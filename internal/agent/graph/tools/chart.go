package tools

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/datachat-poc/server/internal/chart"
	logx "github.com/datachat-poc/server/pkg/logger"
)

type GenerateChartInput struct {
	Query     string `json:"query"`
	ChartType string `json:"chart_type"`
	Title     string `json:"title,omitempty"`
}

type generateChartTool struct {
	renderer *chart.Renderer
}

// NewGenerateChart renders a chart from a read-only SQL query and returns it
// as a base64 PNG data URI.
func NewGenerateChart(renderer *chart.Renderer) Handler {
	return &generateChartTool{renderer: renderer}
}

func (t *generateChartTool) Info() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: NameGenerateChart,
		Desc: "Run a read-only SQL query and render its result as a chart image. " +
			"Supported chart types: bar, line, pie, scatter, heatmap. " +
			"Shape the query for the chosen type: bar and line want one categorical " +
			"column plus one numeric column (two categorical columns produce grouped " +
			"series); pie wants one categorical and one non-negative numeric column; " +
			"scatter wants two numeric columns, with an optional third numeric column " +
			"used as the color scale; heatmap wants two categorical columns and one " +
			"numeric column. Always inspect the schema first with show_tables and " +
			"get_table_columns so the query references real columns.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {
				Type:     schema.String,
				Desc:     "Read-only SQL query producing the data to plot",
				Required: true,
			},
			"chart_type": {
				Type:     schema.String,
				Desc:     "One of: bar, line, pie, scatter, heatmap",
				Required: true,
			},
			"title": {
				Type: schema.String,
				Desc: "Optional chart title; a descriptive one is generated when omitted",
			},
		}),
	}
}

func (t *generateChartTool) Call(ctx context.Context, args map[string]any) Result {
	var in GenerateChartInput
	if err := decodeArgs(args, &in); err != nil {
		return Errorf("invalid arguments: %v", err)
	}

	req := chart.Request{
		Query: strings.TrimSpace(in.Query),
		Type:  strings.TrimSpace(in.ChartType),
		Title: strings.TrimSpace(in.Title),
	}
	if req.Query == "" {
		return ErrorResult("a non-empty 'query' argument is required")
	}
	if req.Type == "" {
		return ErrorResult("a non-empty 'chart_type' argument is required")
	}

	c, err := t.renderer.Generate(ctx, req)
	if err != nil {
		logx.Warn().Err(err).Str("chart_type", req.Type).Msg("chart generation failed")
		return ErrorResult(err.Error())
	}

	logx.Info().Str("chart_type", req.Type).Str("title", c.Title).Msg("chart generated")
	return ImageResult(c.DataURI, c.Message)
}
