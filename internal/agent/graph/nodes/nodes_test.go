package nodes

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datachat-poc/server/internal/agent/model"
)

func TestDecidePromptPreHandler_SeedsAndResets(t *testing.T) {
	handler := NewDecidePromptPreHandler()
	state := &model.ChatState{
		Messages:      []*schema.Message{assistant("stale")},
		Iterations:    4,
		ErrorStreak:   2,
		NeedsChart:    true,
		ToolCallIDSeq: 9,
		TotalCostUSD:  1.23,
	}
	in := model.ChatInput{ConversationID: "c1", Question: "why?", FileText: "csv body"}

	out, err := handler(context.Background(), in, state)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	assert.Equal(t, "c1", state.ChatID)
	assert.Equal(t, "why?", state.Question)
	assert.Equal(t, "csv body", state.FileText)
	assert.Empty(t, state.Messages)
	assert.Zero(t, state.Iterations)
	assert.Zero(t, state.ErrorStreak)
	assert.False(t, state.NeedsChart)
	assert.Zero(t, state.ToolCallIDSeq)
	assert.Zero(t, state.TotalCostUSD)
}

func TestDecisionParserPostHandler_WritesVerdict(t *testing.T) {
	handler := NewDecisionParserPostHandler()
	state := &model.ChatState{}

	out, err := handler(context.Background(), model.ChartDecision{NeedsChart: true}, state)
	require.NoError(t, err)
	assert.True(t, out.NeedsChart)
	assert.True(t, state.NeedsChart)
}

func TestChartRouteCondition(t *testing.T) {
	cond := NewChartRouteCondition()

	next, err := cond(context.Background(), model.ChartDecision{NeedsChart: true})
	require.NoError(t, err)
	assert.Equal(t, NodeChartPrompt, next)

	next, err = cond(context.Background(), model.ChartDecision{NeedsChart: false})
	require.NoError(t, err)
	assert.Equal(t, NodeGenericPrompt, next)
}

func TestChartModelPreHandler_CountsIterations(t *testing.T) {
	handler := NewChartModelPreHandler()
	state := &model.ChatState{}
	in := []*schema.Message{assistant("prompt")}

	for want := 1; want <= 3; want++ {
		out, err := handler(context.Background(), in, state)
		require.NoError(t, err)
		assert.Equal(t, in, out)
		assert.Equal(t, want, state.Iterations)
	}
}

func TestChartModelPostHandler_AppendsAndRepairsIDs(t *testing.T) {
	handler := NewChartModelPostHandler("gemini-2.5-flash")
	state := &model.ChatState{}
	out := &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{
			{ID: "", Function: schema.FunctionCall{Name: "show_tables"}},
			{ID: "given", Function: schema.FunctionCall{Name: "consult_database"}},
			{ID: " ", Function: schema.FunctionCall{Name: "generate_chart"}},
		},
	}

	got, err := handler(context.Background(), out, state)
	require.NoError(t, err)
	assert.Same(t, out, got)

	require.Len(t, state.Messages, 1)
	assert.Equal(t, "call_1", out.ToolCalls[0].ID)
	assert.Equal(t, "given", out.ToolCalls[1].ID)
	assert.Equal(t, "call_2", out.ToolCalls[2].ID)
	assert.Equal(t, 2, state.ToolCallIDSeq)
}

func TestToolExecPostHandler_AppendsBatch(t *testing.T) {
	handler := NewToolExecPostHandler()
	state := &model.ChatState{Messages: []*schema.Message{assistant("model turn")}}
	batch := []*schema.Message{
		schema.ToolMessage("(a, 1)", "call_1"),
		schema.ToolMessage("(b, 2)", "call_2"),
	}

	out, err := handler(context.Background(), batch, state)
	require.NoError(t, err)
	assert.Equal(t, batch, out)
	assert.Len(t, state.Messages, 3)
}

func TestGenericModelPostHandler_Appends(t *testing.T) {
	handler := NewGenericModelPostHandler("gemini-2.5-flash")
	state := &model.ChatState{}
	msg := assistant("direct answer")

	out, err := handler(context.Background(), msg, state)
	require.NoError(t, err)
	assert.Same(t, msg, out)
	require.Len(t, state.Messages, 1)
	assert.Equal(t, "direct answer", state.Messages[0].Content)
}

func TestDecisionModelPostHandler_DoesNotTouchTranscript(t *testing.T) {
	handler := NewDecisionModelPostHandler("gemini-2.5-flash-lite")
	state := &model.ChatState{}
	msg := assistant(`{"needs_chart": false}`)

	out, err := handler(context.Background(), msg, state)
	require.NoError(t, err)
	assert.Same(t, msg, out)
	assert.Empty(t, state.Messages)
}

func TestLogUsageCost(t *testing.T) {
	state := &model.ChatState{}
	out := &schema.Message{
		Role: schema.Assistant,
		ResponseMeta: &schema.ResponseMeta{
			Usage: &schema.TokenUsage{
				PromptTokens:     1_000_000,
				CompletionTokens: 1_000_000,
				TotalTokens:      2_000_000,
			},
		},
	}

	logUsageCost(NodeChartModel, "gemini-2.5-flash", out, state)

	require.NotNil(t, out.Extra)
	cost, ok := out.Extra["usage_cost"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "USD", cost["currency"])
	assert.InDelta(t, 0.30, cost["input_cost"].(float64), 1e-9)
	assert.InDelta(t, 2.50, cost["output_cost"].(float64), 1e-9)
	assert.InDelta(t, 2.80, cost["total_cost"].(float64), 1e-9)
	assert.InDelta(t, 2.80, state.TotalCostUSD, 1e-9)

	// A second call accumulates the running total.
	logUsageCost(NodeGenericModel, "gemini-2.5-flash", out, state)
	assert.InDelta(t, 5.60, state.TotalCostUSD, 1e-9)
	assert.InDelta(t, 5.60, out.Extra["usage_cost_total_usd"].(float64), 1e-9)
}

func TestLogUsageCost_NoUsage(t *testing.T) {
	state := &model.ChatState{}

	logUsageCost(NodeChartModel, "gemini-2.5-flash", assistant("hi"), state)
	assert.Zero(t, state.TotalCostUSD)

	logUsageCost(NodeChartModel, "gemini-2.5-flash", nil, state)
	assert.Zero(t, state.TotalCostUSD)
}

func TestSynthesizeToolCallIDs_NoCalls(t *testing.T) {
	state := &model.ChatState{}
	synthesizeToolCallIDs(assistant("plain reply"), state)
	synthesizeToolCallIDs(nil, state)
	assert.Zero(t, state.ToolCallIDSeq)
}
