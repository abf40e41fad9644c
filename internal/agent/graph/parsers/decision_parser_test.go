package parsers_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datachat-poc/server/internal/agent/graph/parsers"
)

func TestParseChartDecision(t *testing.T) {
	decision, err := parsers.ParseChartDecision(`{"needs_chart": true}`)
	require.NoError(t, err)
	assert.True(t, decision.NeedsChart)

	decision, err = parsers.ParseChartDecision(`{"needs_chart": false}`)
	require.NoError(t, err)
	assert.False(t, decision.NeedsChart)
}

func TestParseChartDecision_CodeFences(t *testing.T) {
	fenced := "```json\n{\"needs_chart\": true}\n```"
	decision, err := parsers.ParseChartDecision(fenced)
	require.NoError(t, err)
	assert.True(t, decision.NeedsChart)

	bare := "```\n{\"needs_chart\": false}\n```"
	decision, err = parsers.ParseChartDecision(bare)
	require.NoError(t, err)
	assert.False(t, decision.NeedsChart)
}

func TestParseChartDecision_ExtraKeysTolerated(t *testing.T) {
	decision, err := parsers.ParseChartDecision(`{"needs_chart": true, "reason": "asked for a plot"}`)
	require.NoError(t, err)
	assert.True(t, decision.NeedsChart)
}

func TestParseChartDecision_MissingKey(t *testing.T) {
	_, err := parsers.ParseChartDecision(`{"reason": "no idea"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing the 'needs_chart' key")
}

func TestParseChartDecision_NotJSON(t *testing.T) {
	_, err := parsers.ParseChartDecision("yes, make a chart")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}

func TestParseChartDecision_Empty(t *testing.T) {
	_, err := parsers.ParseChartDecision("")
	assert.EqualError(t, err, "decision response is empty")

	_, err = parsers.ParseChartDecision("   \n  ")
	assert.EqualError(t, err, "decision response is empty")
}

func TestParseChartDecision_TooLarge(t *testing.T) {
	huge := `{"needs_chart": true, "padding": "` + strings.Repeat("x", 9*1024) + `"}`
	_, err := parsers.ParseChartDecision(huge)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}
