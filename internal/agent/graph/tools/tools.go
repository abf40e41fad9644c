package tools

import (
	"github.com/datachat-poc/server/internal/chart"
	"github.com/datachat-poc/server/internal/datasource"
)

// DefaultRegistry wires the complete tool set in the order the model is
// introduced to them in the prompt.
func DefaultRegistry(source datasource.Queryer, renderer *chart.Renderer) *Registry {
	r := NewRegistry()
	r.Register(NewConsultDatabase(source))
	r.Register(NewShowTables(source))
	r.Register(NewGetTableColumns(source))
	r.Register(NewGenerateChart(renderer))
	r.Register(NewGenerateGenericHeatmap(renderer))
	return r
}
