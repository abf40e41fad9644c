package tools_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datachat-poc/server/internal/agent/graph/tools"
	"github.com/datachat-poc/server/internal/chart"
	"github.com/datachat-poc/server/internal/datasource"
)

func chartRenderer(t *testing.T, src datasource.Queryer) *chart.Renderer {
	t.Helper()
	r, err := chart.NewRenderer(src, chart.Options{Width: 400, Height: 300})
	require.NoError(t, err)
	return r
}

func TestGenerateChart_RendersImage(t *testing.T) {
	query := "SELECT category, total FROM sales"
	src := &scriptedSource{results: map[string]*datasource.Table{
		query: {
			Columns: []string{"category", "total"},
			Rows:    [][]any{{"food", 10}, {"tools", 4}},
		},
	}}
	h := tools.NewGenerateChart(chartRenderer(t, src))

	res := h.Call(context.Background(), map[string]any{
		"query":      query,
		"chart_type": "bar",
	})
	assert.Empty(t, res.Error)
	assert.True(t, strings.HasPrefix(res.Image, chart.ImageDataURIPrefix))
	assert.Equal(t, "Chart 'bar' generated successfully.", res.Message)
}

func TestGenerateChart_MissingArguments(t *testing.T) {
	h := tools.NewGenerateChart(chartRenderer(t, &scriptedSource{}))

	res := h.Call(context.Background(), map[string]any{"chart_type": "bar"})
	assert.Equal(t, "a non-empty 'query' argument is required", res.Error)

	res = h.Call(context.Background(), map[string]any{"query": "SELECT 1"})
	assert.Equal(t, "a non-empty 'chart_type' argument is required", res.Error)
}

func TestGenerateChart_RendererErrorBecomesErrorResult(t *testing.T) {
	query := "SELECT category, total FROM sales"
	src := &scriptedSource{results: map[string]*datasource.Table{
		query: {Columns: []string{"category", "total"}},
	}}
	h := tools.NewGenerateChart(chartRenderer(t, src))

	res := h.Call(context.Background(), map[string]any{
		"query":      query,
		"chart_type": "bar",
	})
	assert.Equal(t, "no data found for the query", res.Error)
	assert.Equal(t, "chart generation failed: no data found for the query", res.Content())
}

func TestGenerateGenericHeatmap_RendersImage(t *testing.T) {
	query := "SELECT region, product, amount FROM sales"
	src := &scriptedSource{results: map[string]*datasource.Table{
		query: {
			Columns: []string{"region", "product", "amount"},
			Rows: [][]any{
				{"north", "a", 2},
				{"north", "a", 4},
				{"south", "b", 3},
			},
		},
	}}
	h := tools.NewGenerateGenericHeatmap(chartRenderer(t, src))

	res := h.Call(context.Background(), map[string]any{
		"query":   query,
		"row":     "region",
		"column":  "product",
		"value":   "amount",
		"aggfunc": "mean",
	})
	assert.Empty(t, res.Error)
	assert.True(t, strings.HasPrefix(res.Image, chart.ImageDataURIPrefix))
	assert.Equal(t, "Heatmap generated successfully using mean.", res.Message)
}

func TestGenerateGenericHeatmap_MissingQuery(t *testing.T) {
	h := tools.NewGenerateGenericHeatmap(chartRenderer(t, &scriptedSource{}))

	res := h.Call(context.Background(), map[string]any{"row": "region"})
	assert.Equal(t, "a non-empty 'query' argument is required", res.Error)
}

func TestDefaultRegistry(t *testing.T) {
	reg := tools.DefaultRegistry(&scriptedSource{}, chartRenderer(t, &scriptedSource{}))

	// Binding order matters: it is the order the model sees the tools in.
	assert.Equal(t, []string{
		tools.NameConsultDatabase,
		tools.NameShowTables,
		tools.NameGetTableColumns,
		tools.NameGenerateChart,
		tools.NameGenerateGenericHeatmap,
	}, reg.Names())

	for _, name := range reg.Names() {
		h, ok := reg.Lookup(name)
		require.True(t, ok)
		assert.Equal(t, name, h.Info().Name)
		assert.NotEmpty(t, h.Info().Desc)
	}
}
