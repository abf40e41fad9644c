package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/datachat-poc/server/internal/agent/graph/conversations"
	"github.com/datachat-poc/server/internal/agent/graph/nodes"
	"github.com/datachat-poc/server/internal/agent/graph/observers"
	"github.com/datachat-poc/server/internal/agent/graph/tools"
	"github.com/datachat-poc/server/internal/agent/model"
	"github.com/datachat-poc/server/internal/chart"
	"github.com/datachat-poc/server/internal/datasource"
	logx "github.com/datachat-poc/server/pkg/logger"
)

// iterationLimitReply is returned as a normal result when the run step
// ceiling fires before the loop's own iteration checks could end the turn.
const iterationLimitReply = "The flow exceeded the iteration limit. Please refine your query or try again."

// Runner executes the compiled chat graph for one conversation turn.
type Runner interface {
	Invoke(ctx context.Context, in model.ChatInput) (*model.ChatResult, error)
}

// Config holds everything needed to compose the full chat graph end-to-end.
// This is a convenience layer over GraphConfig that also constructs the chat
// models, the history manager and the tool registry.
type Config struct {
	APIKey           string
	BaseURL          string
	DecisionModel    model.DecisionModelConfig
	ResponseModel    model.ResponseModelConfig
	ChatFlow         model.ChatFlowConfig
	ConversationRepo model.ConversationRepository
	Datasource       datasource.Queryer
	Renderer         *chart.Renderer
}

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	ChatModels     *nodes.ChatModels
	HistoryManager *conversations.HistoryManager
	Registry       *tools.Registry
	ChatFlow       model.ChatFlowConfig
}

// GraphBuilder handles the construction of the chat conversation graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.ChatInput, *model.ChatResult]
}

type graphRunner struct {
	runnable compose.Runnable[model.ChatInput, *model.ChatResult]
}

func (r *graphRunner) Invoke(ctx context.Context, in model.ChatInput) (*model.ChatResult, error) {
	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		if errors.Is(err, compose.ErrExceedMaxSteps) {
			logx.Error().Err(err).
				Str("conversation_id", in.ConversationID).
				Msg("Run step ceiling reached")
			return &model.ChatResult{
				Messages: []*schema.Message{schema.AssistantMessage(iterationLimitReply, nil)},
			}, nil
		}
		return nil, err
	}
	return out, nil
}

// BuildChatGraph composes the chat models, history manager and tool registry,
// builds the graph, and returns a Runner.
func BuildChatGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.ConversationRepo == nil {
		return nil, fmt.Errorf("conversation repo is nil")
	}
	if cfg.Datasource == nil {
		return nil, fmt.Errorf("datasource is nil")
	}
	if cfg.Renderer == nil {
		return nil, fmt.Errorf("chart renderer is nil")
	}

	cms, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		DecisionConfig: &cfg.DecisionModel,
		ResponseConfig: &cfg.ResponseModel,
	})
	if err != nil {
		return nil, err
	}

	hm := conversations.NewHistoryManager(cfg.ConversationRepo, cfg.ChatFlow)
	registry := tools.DefaultRegistry(cfg.Datasource, cfg.Renderer)

	runnable, err := BuildGraph(ctx, &GraphConfig{
		ChatModels:     cms,
		HistoryManager: hm,
		Registry:       registry,
		ChatFlow:       cfg.ChatFlow,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Chat graph built successfully")
	return &graphRunner{runnable: runnable}, nil
}

// BuildGraph constructs and returns the compiled chat graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.ChatInput, *model.ChatResult], error) {
	// Basic config validation
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModels == nil || config.ChatModels.Decision == nil || config.ChatModels.Response == nil {
		return nil, fmt.Errorf("chat models are not properly initialized")
	}
	if config.HistoryManager == nil {
		return nil, fmt.Errorf("history manager is nil")
	}
	if config.Registry == nil {
		return nil, fmt.Errorf("tool registry is nil")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.ChatInput, *model.ChatResult](
			compose.WithGenLocalState(func(ctx context.Context) *model.ChatState {
				return &model.ChatState{}
			}),
		),
	}

	if err := builder.setupTools(ctx); err != nil {
		return nil, err
	}

	builder.addNodes()
	builder.addEdges()

	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// setupTools binds the registry to the response model and adds the tool
// execution node. Dispatch runs through the registry directly instead of a
// ToolsNode so image results reach the transcript as bare data URIs.
func (b *GraphBuilder) setupTools(ctx context.Context) error {
	toolInfos := b.config.Registry.Infos()
	if err := b.config.ChatModels.BindToolsToResponseModel(ctx, toolInfos); err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools to response model")
		return fmt.Errorf("failed to bind tools to response model: %w", err)
	}

	b.graph.AddLambdaNode(nodes.NodeToolExec,
		nodes.NewToolExecNode(b.config.Registry),
		compose.WithStatePostHandler(nodes.NewToolExecPostHandler()),
	)

	return nil
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() {
	b.graph.AddLambdaNode(nodes.NodeDecidePrompt,
		nodes.NewDecidePromptNode(b.config.HistoryManager),
		compose.WithStatePreHandler(nodes.NewDecidePromptPreHandler()),
	)

	b.graph.AddChatModelNode(nodes.NodeDecisionModel,
		b.config.ChatModels.Decision,
		compose.WithStatePostHandler(nodes.NewDecisionModelPostHandler(b.config.ChatModels.DecisionModelName)),
	)

	b.graph.AddLambdaNode(nodes.NodeDecisionParser,
		nodes.NewDecisionParserNode(),
		compose.WithStatePostHandler(nodes.NewDecisionParserPostHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeChartPrompt,
		nodes.NewChartPromptNode(b.config.HistoryManager),
	)

	b.graph.AddChatModelNode(nodes.NodeChartModel,
		b.config.ChatModels.Response,
		compose.WithStatePreHandler(nodes.NewChartModelPreHandler()),
		compose.WithStatePostHandler(nodes.NewChartModelPostHandler(b.config.ChatModels.ResponseModelName)),
	)

	b.graph.AddLambdaNode(nodes.NodeGenericPrompt,
		nodes.NewGenericPromptNode(),
	)

	b.graph.AddChatModelNode(nodes.NodeGenericModel,
		b.config.ChatModels.Response,
		compose.WithStatePostHandler(nodes.NewGenericModelPostHandler(b.config.ChatModels.ResponseModelName)),
	)

	b.graph.AddLambdaNode(nodes.NodeFinalize,
		nodes.NewFinalizeNode(b.config.HistoryManager),
	)
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodeDecidePrompt},
		{nodes.NodeDecidePrompt, nodes.NodeDecisionModel},
		{nodes.NodeDecisionModel, nodes.NodeDecisionParser},
		{nodes.NodeChartPrompt, nodes.NodeChartModel},
		{nodes.NodeGenericPrompt, nodes.NodeGenericModel},
		{nodes.NodeGenericModel, nodes.NodeFinalize},
		{nodes.NodeFinalize, compose.END},
	}

	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	decisionBranch := compose.NewGraphBranch(
		nodes.NewChartRouteCondition(),
		map[string]bool{
			nodes.NodeChartPrompt:   true,
			nodes.NodeGenericPrompt: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeDecisionParser, decisionBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding decision branch")
		return fmt.Errorf("error adding decision branch: %w", err)
	}

	continueBranch := compose.NewGraphBranch(
		nodes.NewChartContinueCondition(b.config.ChatFlow),
		map[string]bool{
			nodes.NodeToolExec: true,
			nodes.NodeFinalize: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeChartModel, continueBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding continuation branch")
		return fmt.Errorf("error adding continuation branch: %w", err)
	}

	environmentBranch := compose.NewGraphBranch(
		nodes.NewEnvironmentEndCondition(),
		map[string]bool{
			nodes.NodeChartPrompt: true,
			nodes.NodeFinalize:    true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeToolExec, environmentBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding environment branch")
		return fmt.Errorf("error adding environment branch: %w", err)
	}

	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.ChatInput, *model.ChatResult], error) {
	// Each loop iteration spends three steps (prompt, model, environment);
	// the ceiling backs up the loop's own iteration checks.
	maxIterations := b.config.ChatFlow.MaxIterations
	if maxIterations <= 0 {
		maxIterations = nodes.DefaultMaxIterations
	}
	maxSteps := 10 + maxIterations*3
	if maxSteps < 25 {
		maxSteps = 25
	}

	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Int("max_steps", maxSteps).Msg("Graph compiled successfully")
	return runnable, nil
}
