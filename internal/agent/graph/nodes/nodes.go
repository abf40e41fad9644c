package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/datachat-poc/server/internal/agent/graph/conversations"
	"github.com/datachat-poc/server/internal/agent/graph/parsers"
	"github.com/datachat-poc/server/internal/agent/graph/prompts"
	"github.com/datachat-poc/server/internal/agent/graph/tools"
	"github.com/datachat-poc/server/internal/agent/model"
	logx "github.com/datachat-poc/server/pkg/logger"
)

// Graph node names. ToolExec keeps the name "environment" because the chart
// loop treats tool execution as the environment the model acts against.
const (
	NodeDecidePrompt   = "decide_prompt"
	NodeDecisionModel  = "decision_model"
	NodeDecisionParser = "decision_parser"
	NodeChartPrompt    = "chart_prompt"
	NodeChartModel     = "chart_model"
	NodeToolExec       = "environment"
	NodeGenericPrompt  = "generic_prompt"
	NodeGenericModel   = "generic_model"
	NodeFinalize       = "finalize"
)

// NewDecidePromptPreHandler seeds the per-turn state from the input and
// resets every counter for the new turn.
func NewDecidePromptPreHandler() func(context.Context, model.ChatInput, *model.ChatState) (model.ChatInput, error) {
	return func(ctx context.Context, in model.ChatInput, s *model.ChatState) (model.ChatInput, error) {
		if s.ChatID == "" {
			s.ChatID = in.ConversationID
		}
		s.Question = in.Question
		s.FileText = in.FileText
		s.Messages = nil
		s.Iterations = 0
		s.ErrorStreak = 0
		s.NeedsChart = false
		s.ToolCallIDSeq = 0
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewDecidePromptNode records the user question and builds the chart-need
// classification prompt.
func NewDecidePromptNode(hm *conversations.HistoryManager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.ChatInput) ([]*schema.Message, error) {
		// History persistence must never abort the turn.
		if err := hm.RecordQuestion(ctx, input.ConversationID, input.Question); err != nil {
			logx.Error().Err(err).
				Str("conversation_id", input.ConversationID).
				Msg("Error recording user question")
		}

		messages, err := prompts.RenderDecisionMessages(ctx, input.Question)
		if err != nil {
			return nil, fmt.Errorf("render decision prompt: %w", err)
		}
		return messages, nil
	})
}

// NewDecisionParserNode turns the decision model's reply into a ChartDecision.
// An unparseable reply routes to the generic flow rather than failing the turn.
func NewDecisionParserNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, resp *schema.Message) (model.ChartDecision, error) {
		decision, err := parsers.ParseChartDecision(resp.Content)
		if err != nil {
			logx.Warn().Err(err).Msg("Unparseable chart decision, falling back to the generic flow")
			return model.ChartDecision{NeedsChart: false}, nil
		}
		return *decision, nil
	})
}

// NewDecisionParserPostHandler stores the verdict in state. This is the only
// write to NeedsChart.
func NewDecisionParserPostHandler() func(context.Context, model.ChartDecision, *model.ChatState) (model.ChartDecision, error) {
	return func(ctx context.Context, out model.ChartDecision, state *model.ChatState) (model.ChartDecision, error) {
		state.NeedsChart = out.NeedsChart
		logx.Debug().
			Str("conversation_id", state.ChatID).
			Bool("needs_chart", out.NeedsChart).
			Msg("Chart decision")
		return out, nil
	}
}

// NewChartRouteCondition routes the decision to the chart or generic flow.
func NewChartRouteCondition() func(context.Context, model.ChartDecision) (string, error) {
	return func(ctx context.Context, decision model.ChartDecision) (string, error) {
		if decision.NeedsChart {
			return NodeChartPrompt, nil
		}
		return NodeGenericPrompt, nil
	}
}

// NewChartPromptNode rebuilds the chart-path prompt on every loop entry:
// instruction block, conversation history, attached file text, the question,
// then the accumulated loop transcript. Its input type is any because the
// first entry arrives from the decision branch and re-entries arrive from
// tool execution.
func NewChartPromptNode(hm *conversations.HistoryManager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ any) ([]*schema.Message, error) {
		var (
			chatID     string
			question   string
			fileText   string
			transcript []*schema.Message
		)
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.ChatState) error {
			chatID = state.ChatID
			question = state.Question
			fileText = state.FileText
			transcript = append([]*schema.Message(nil), state.Messages...)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		historyText, err := hm.ContextWindow(ctx, chatID)
		if err != nil {
			logx.Warn().Err(err).
				Str("conversation_id", chatID).
				Msg("Conversation history unavailable, continuing without it")
			historyText = ""
		}

		messages, err := prompts.RenderChartMessages(ctx, question, historyText, fileText)
		if err != nil {
			return nil, fmt.Errorf("render chart prompt: %w", err)
		}
		return append(messages, transcript...), nil
	})
}

// NewChartModelPreHandler counts the loop iteration before each model turn.
func NewChartModelPreHandler() func(context.Context, []*schema.Message, *model.ChatState) ([]*schema.Message, error) {
	return func(ctx context.Context, in []*schema.Message, state *model.ChatState) ([]*schema.Message, error) {
		state.Iterations++
		logx.Debug().
			Str("conversation_id", state.ChatID).
			Int("iteration", state.Iterations).
			Msg("Chart loop iteration")
		return in, nil
	}
}

// NewChartModelPostHandler accounts usage, repairs missing tool call ids and
// appends the model turn to the transcript.
func NewChartModelPostHandler(modelName string) func(context.Context, *schema.Message, *model.ChatState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.ChatState) (*schema.Message, error) {
		logUsageCost(NodeChartModel, modelName, out, state)
		synthesizeToolCallIDs(out, state)
		state.Messages = append(state.Messages, out)

		if out != nil && len(out.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(out.ToolCalls)).Msg("Calling tools")
		} else {
			logx.Debug().Msg("Model response ready")
		}
		return out, nil
	}
}

// NewChartContinueCondition decides, after a chart-model turn, between
// executing tools and finishing.
func NewChartContinueCondition(flowCfg model.ChatFlowConfig) func(context.Context, *schema.Message) (string, error) {
	maxIterations := normalizeMaxIterations(flowCfg.MaxIterations)
	streakLimit := normalizeErrorStreakLimit(flowCfg.ErrorStreakLimit)
	signatures := flowCfg.ErrorSignatures

	return func(ctx context.Context, _ *schema.Message) (string, error) {
		next := NodeToolExec
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.ChatState) error {
			next = nextAfterModel(state, maxIterations, streakLimit, signatures)
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("failed to access state: %w", err)
		}
		logx.Debug().Str("next", next).Msg("Chart loop continuation decision")
		return next, nil
	}
}

// NewToolExecNode dispatches the tool calls of the last model turn through
// the registry. Tool results pass through untouched so a rendered image stays
// a bare data URI.
func NewToolExecNode(registry *tools.Registry) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, msg *schema.Message) ([]*schema.Message, error) {
		if msg == nil || len(msg.ToolCalls) == 0 {
			logx.Warn().Msg("Environment reached without tool calls")
			return []*schema.Message{}, nil
		}
		return tools.ExecuteCalls(ctx, registry, msg.ToolCalls), nil
	})
}

// NewToolExecPostHandler appends the tool batch to the transcript.
func NewToolExecPostHandler() func(context.Context, []*schema.Message, *model.ChatState) ([]*schema.Message, error) {
	return func(ctx context.Context, out []*schema.Message, state *model.ChatState) ([]*schema.Message, error) {
		state.Messages = append(state.Messages, out...)
		return out, nil
	}
}

// NewEnvironmentEndCondition decides, after tool execution, between another
// model turn and finishing.
func NewEnvironmentEndCondition() func(context.Context, []*schema.Message) (string, error) {
	return func(ctx context.Context, _ []*schema.Message) (string, error) {
		next := NodeChartPrompt
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.ChatState) error {
			next = nextAfterTools(state)
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("failed to access state: %w", err)
		}
		if next == NodeFinalize {
			logx.Debug().Msg("Finished image detected, ending chart loop")
		}
		return next, nil
	}
}

// NewGenericPromptNode builds the no-chart prompt: one restricted model turn
// answers the question directly.
func NewGenericPromptNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.ChartDecision) ([]*schema.Message, error) {
		var question string
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.ChatState) error {
			question = state.Question
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		messages, err := prompts.RenderGenericMessages(ctx, question)
		if err != nil {
			return nil, fmt.Errorf("render generic prompt: %w", err)
		}
		return messages, nil
	})
}

// NewGenericModelPostHandler accounts usage and appends the single generic
// turn to the transcript. Tool calls the model emits here are not executed.
func NewGenericModelPostHandler(modelName string) func(context.Context, *schema.Message, *model.ChatState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.ChatState) (*schema.Message, error) {
		logUsageCost(NodeGenericModel, modelName, out, state)
		state.Messages = append(state.Messages, out)
		return out, nil
	}
}

// NewDecisionModelPostHandler accounts usage for the classifier call. Its
// reply feeds the parser and never enters the transcript.
func NewDecisionModelPostHandler(modelName string) func(context.Context, *schema.Message, *model.ChatState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.ChatState) (*schema.Message, error) {
		logUsageCost(NodeDecisionModel, modelName, out, state)
		return out, nil
	}
}

// NewFinalizeNode assembles the result from state and records the reply. Its
// input type is any because three different nodes can terminate the flow.
func NewFinalizeNode(hm *conversations.HistoryManager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ any) (*model.ChatResult, error) {
		var (
			result *model.ChatResult
			chatID string
		)
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.ChatState) error {
			result = &model.ChatResult{
				Messages: append([]*schema.Message(nil), state.Messages...),
			}
			chatID = state.ChatID
			logx.Info().
				Str("conversation_id", state.ChatID).
				Int("iterations", state.Iterations).
				Int("messages", len(state.Messages)).
				Float64("total_cost_usd", state.TotalCostUSD).
				Msg("Turn complete")
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		if reply := result.FinalContent(); reply != "" {
			if err := hm.RecordReply(ctx, chatID, reply); err != nil {
				logx.Error().Err(err).
					Str("conversation_id", chatID).
					Msg("Error recording agent reply")
			}
		}
		return result, nil
	})
}

// ====================== Helper function ======================

// logUsageCost computes and logs the dollar cost of one model call and
// accumulates the running total in state.
func logUsageCost(nodeName, modelName string, out *schema.Message, state *model.ChatState) {
	if out == nil || out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	pricing := model.ResolvePricing(modelName)
	inC, outC, totalC := model.ComputeCost(out.ResponseMeta.Usage, pricing)
	if out.Extra == nil {
		out.Extra = map[string]any{}
	}
	out.Extra["usage_cost"] = map[string]any{
		"currency":          "USD",
		"model":             modelName,
		"prompt_tokens":     out.ResponseMeta.Usage.PromptTokens,
		"completion_tokens": out.ResponseMeta.Usage.CompletionTokens,
		"total_tokens":      out.ResponseMeta.Usage.TotalTokens,
		"input_cost":        inC,
		"output_cost":       outC,
		"total_cost":        totalC,
	}
	logx.Debug().
		Str("conversation_id", state.ChatID).
		Str("node", nodeName).
		Str("model", modelName).
		Int("prompt_tokens", out.ResponseMeta.Usage.PromptTokens).
		Int("completion_tokens", out.ResponseMeta.Usage.CompletionTokens).
		Int("total_tokens", out.ResponseMeta.Usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")

	state.TotalCostUSD += totalC
	out.Extra["usage_cost_total_usd"] = state.TotalCostUSD
}

// synthesizeToolCallIDs repairs tool call ids some providers omit; tool
// messages must echo an id for the next model turn to accept them.
func synthesizeToolCallIDs(out *schema.Message, state *model.ChatState) {
	if out == nil || len(out.ToolCalls) == 0 {
		return
	}
	for i := range out.ToolCalls {
		if strings.TrimSpace(out.ToolCalls[i].ID) == "" {
			state.ToolCallIDSeq++
			out.ToolCalls[i].ID = fmt.Sprintf("call_%d", state.ToolCallIDSeq)
		}
	}
}
