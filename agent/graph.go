package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	explore "github.com/explore-ai/sdk"
	"github.com/explore-ai/sdk/embedding"
	"github.com/explore-ai/sdk/graphstore"
	"github.com/explore-ai/sdk/llm"
	"github.com/explore-ai/sdk/metrics"
)

// DefaultTopK is the number of passages retrieved per turn.
const DefaultTopK = 3

// DefaultMaxToolIterations bounds the generate/finalize loop when
// non-terminal tool calls are handled.
const DefaultMaxToolIterations = 3

// EmbeddingResolver resolves an embedding strategy to a configured client.
// *embedding.Provider is the production implementation.
type EmbeddingResolver interface {
	GetEmbeddings(strategy string) (embedding.Client, error)
}

// PassageRetriever performs nearest-neighbor passage retrieval.
// *graphstore.Store is the production implementation.
type PassageRetriever interface {
	Retrieve(ctx context.Context, vector []float32, k int) ([]graphstore.Passage, error)
}

// ToolHandler executes one named non-terminal tool on the graph's behalf.
// Handlers power the loop-back transition: their result is appended to the
// conversation and generation runs again.
type ToolHandler interface {
	// Name returns the tool name the handler serves.
	Name() string

	// Handle executes the tool call and returns its result content.
	Handle(ctx context.Context, call llm.ToolCall) (string, error)
}

// TurnResult is the structured outcome of one turn.
type TurnResult struct {
	// TurnID uniquely identifies the turn for telemetry correlation.
	TurnID string

	// State is the terminal state the turn ended in.
	State State

	// Answer is the final answer text. Empty when the turn failed.
	Answer string

	// ResearchSteps narrates the retrieval and reasoning behind the answer.
	ResearchSteps string

	// SuggestedQuestions are the three follow-up questions offered to the user.
	SuggestedQuestions [3]string
}

// Graph orchestrates one conversational turn: embed the user's question,
// retrieve context passages, invoke the bound tool-calling model, and
// finalize the terminal final_answer call.
//
// The graph owns the conversation and retrieved passages only for the
// duration of a turn. The embedding provider, vector store, and model are
// shared, injected collaborators; the graph never constructs them.
type Graph struct {
	provider EmbeddingResolver
	store    PassageRetriever
	model    llm.ChatModel
	recorder metrics.Recorder
	logger   *slog.Logger
	tracer   trace.Tracer

	strategy          string
	topK              int
	maxToolIterations int
	handlers          map[string]ToolHandler
	newTurnID         func() string
}

// Option configures a Graph.
type Option func(*Graph)

// WithRecorder sets the metrics recorder. Defaults to a no-op recorder.
func WithRecorder(recorder metrics.Recorder) Option {
	return func(g *Graph) {
		g.recorder = recorder
	}
}

// WithLogger sets the logger for stage transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) {
		g.logger = logger
	}
}

// WithTracer enables per-turn tracing.
func WithTracer(tracer trace.Tracer) Option {
	return func(g *Graph) {
		g.tracer = tracer
	}
}

// WithStrategy overrides the embedding strategy.
func WithStrategy(strategy string) Option {
	return func(g *Graph) {
		g.strategy = strategy
	}
}

// WithTopK overrides the number of passages retrieved per turn.
func WithTopK(k int) Option {
	return func(g *Graph) {
		g.topK = k
	}
}

// WithToolHandler registers a handler for a non-terminal tool.
func WithToolHandler(handler ToolHandler) Option {
	return func(g *Graph) {
		g.handlers[handler.Name()] = handler
	}
}

// WithMaxToolIterations bounds the generate/finalize loop.
func WithMaxToolIterations(n int) Option {
	return func(g *Graph) {
		g.maxToolIterations = n
	}
}

// New creates a Graph over the injected collaborators. The model variant
// (real or mock) is chosen by the caller; the graph treats both alike.
func New(provider EmbeddingResolver, store PassageRetriever, model llm.ChatModel, opts ...Option) *Graph {
	g := &Graph{
		provider:          provider,
		store:             store,
		model:             model,
		recorder:          metrics.NopRecorder{},
		logger:            slog.Default(),
		strategy:          embedding.TextEmbedding3Small,
		topK:              DefaultTopK,
		maxToolIterations: DefaultMaxToolIterations,
		handlers:          make(map[string]ToolHandler),
		newTurnID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Run executes one turn over the conversation. The last message must be
// from the user. On failure the returned result carries the terminal
// Failed state and the error is the AgentGraphError that ended the turn,
// already reflected in the stage metrics.
func (g *Graph) Run(ctx context.Context, conversation llm.Conversation) (*TurnResult, error) {
	turnID := g.newTurnID()
	result := &TurnResult{TurnID: turnID, State: StateAwaitingInput}

	ctx, span := g.startSpan(ctx, turnID)
	defer span.End()

	if err := conversation.Validate(); err != nil {
		return g.fail(span, result, explore.NewValidationError("Graph.Run", err))
	}

	// EMBEDDING. Failures here are setup errors: neither quality metric
	// is recorded because no retrieval or generation was attempted.
	g.transition(result, StateEmbedding, turnID)
	vector, err := g.embed(ctx, conversation)
	if err != nil {
		return g.fail(span, result, err)
	}

	// RETRIEVING.
	g.transition(result, StateRetrieving, turnID)
	passages, err := g.store.Retrieve(ctx, vector, g.topK)
	if err != nil {
		g.record(ctx, metrics.TagRAG, metrics.OutcomeFailure, turnID)
		return g.fail(span, result, err)
	}
	g.record(ctx, metrics.TagRAG, metrics.OutcomeSuccess, turnID)

	working := augmentConversation(conversation, passages)
	bound := g.model.BindTools(llm.FinalAnswerToolDef())

	// GENERATING / FINALIZING, with a bounded loop-back for handled
	// non-terminal tool calls.
	for iteration := 0; iteration < g.maxToolIterations; iteration++ {
		g.transition(result, StateGenerating, turnID)
		resp, err := bound.Invoke(ctx, working)
		if err != nil {
			g.record(ctx, metrics.TagGeneration, metrics.OutcomeFailure, turnID)
			return g.fail(span, result, err)
		}

		g.transition(result, StateFinalizing, turnID)
		outcome, err := g.finalize(ctx, result, resp, turnID)
		if err != nil {
			g.record(ctx, metrics.TagGeneration, metrics.OutcomeFailure, turnID)
			return g.fail(span, result, err)
		}

		if outcome.done {
			g.record(ctx, metrics.TagGeneration, metrics.OutcomeSuccess, turnID)
			result.State = StateAnswered
			span.SetStatus(codes.Ok, "turn answered")
			return result, nil
		}

		// Loop back to GENERATING with the tool exchange appended.
		working = working.
			Append(llm.Message{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{outcome.call}, Content: resp.Content}).
			Append(llm.Message{Role: llm.RoleTool, ToolCallID: outcome.call.ID, Content: outcome.toolResult})
	}

	g.record(ctx, metrics.TagGeneration, metrics.OutcomeFailure, turnID)
	return g.fail(span, result, explore.NewGenerationError("Graph.Run",
		fmt.Errorf("%w: no terminal tool call after %d iterations",
			explore.ErrGenerationFailed, g.maxToolIterations)))
}

// embed resolves the embedding client and computes the vector for the
// latest user message.
func (g *Graph) embed(ctx context.Context, conversation llm.Conversation) ([]float32, error) {
	client, err := g.provider.GetEmbeddings(g.strategy)
	if err != nil {
		return nil, err
	}
	return client.EmbedQuery(ctx, conversation.LatestUserMessage())
}

// finalizeOutcome reports how one finalize pass ended: a terminal answer,
// or a handled non-terminal tool call to loop back with.
type finalizeOutcome struct {
	done       bool
	call       llm.ToolCall
	toolResult string
}

// finalize inspects the model response. A valid final_answer completes the
// turn; a registered non-terminal tool is executed for loop-back; anything
// else is a malformed response.
func (g *Graph) finalize(ctx context.Context, result *TurnResult, resp *llm.ModelResponse, turnID string) (finalizeOutcome, error) {
	const op = "Graph.finalize"

	if !resp.HasToolCalls() {
		return finalizeOutcome{}, explore.NewGenerationError(op,
			fmt.Errorf("%w: model returned no tool calls", explore.ErrMalformedToolCall))
	}

	if call, ok := resp.FinalAnswerCall(); ok {
		answer, err := llm.ParseFinalAnswer(call)
		if err != nil {
			return finalizeOutcome{}, explore.NewGenerationError(op,
				fmt.Errorf("%w: %v", explore.ErrMalformedToolCall, err))
		}

		result.Answer = answer.Answer
		result.ResearchSteps = answer.ResearchSteps
		result.SuggestedQuestions = [3]string{
			answer.SuggestQuestionOne,
			answer.SuggestQuestionTwo,
			answer.SuggestQuestionThree,
		}
		return finalizeOutcome{done: true}, nil
	}

	// Non-terminal tool call: recognized but only handled when a handler
	// is registered for it.
	call := resp.ToolCalls[0]
	handler, ok := g.handlers[call.Name]
	if !ok {
		return finalizeOutcome{}, explore.NewGenerationError(op,
			fmt.Errorf("%w: unhandled tool %q", explore.ErrMalformedToolCall, call.Name))
	}

	toolResult, err := handler.Handle(ctx, call)
	if err != nil {
		return finalizeOutcome{}, explore.NewGenerationError(op,
			fmt.Errorf("%w: tool %q failed: %v", explore.ErrGenerationFailed, call.Name, err))
	}

	g.logger.Debug("non-terminal tool handled",
		"turn_id", turnID,
		"tool", call.Name)

	return finalizeOutcome{call: call, toolResult: toolResult}, nil
}

// transition advances the state machine and logs the stage change.
func (g *Graph) transition(result *TurnResult, next State, turnID string) {
	result.State = next
	g.logger.Debug("turn stage",
		"turn_id", turnID,
		"state", next.String())
}

// record emits one stage metric; delivery is the recorder's concern.
func (g *Graph) record(ctx context.Context, tag metrics.Tag, outcome metrics.Outcome, turnID string) {
	g.recorder.Record(ctx, metrics.Record{
		Tag:     tag,
		Outcome: outcome,
		TurnID:  turnID,
	})
}

// fail moves the turn to the terminal Failed state and returns the error.
func (g *Graph) fail(span trace.Span, result *TurnResult, err error) (*TurnResult, error) {
	result.State = StateFailed
	span.RecordError(err)
	span.SetStatus(codes.Error, "turn failed")
	g.logger.Error("turn failed",
		"turn_id", result.TurnID,
		"error", err)
	return result, err
}

// startSpan opens the per-turn span when a tracer is configured.
func (g *Graph) startSpan(ctx context.Context, turnID string) (context.Context, trace.Span) {
	if g.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	ctx, span := g.tracer.Start(ctx, "agent.turn")
	span.SetAttributes(attribute.String("turn_id", turnID))
	return ctx, span
}

// augmentConversation inserts a context block composed from the ordered
// passages ahead of the latest user message.
func augmentConversation(conversation llm.Conversation, passages []graphstore.Passage) llm.Conversation {
	if len(passages) == 0 {
		return conversation
	}

	contextMsg := llm.Message{
		Role:    llm.RoleSystem,
		Content: composeContext(passages),
	}

	out := make(llm.Conversation, 0, len(conversation)+1)
	out = append(out, conversation[:len(conversation)-1]...)
	out = append(out, contextMsg)
	out = append(out, conversation[len(conversation)-1])
	return out
}

// composeContext renders retrieved passages into the prompt context block,
// preserving their similarity ordering.
func composeContext(passages []graphstore.Passage) string {
	var b strings.Builder
	b.WriteString("Use the following retrieved context to answer. Cite only what it supports.\n")
	for i, p := range passages {
		fmt.Fprintf(&b, "\n[%d] (source %s) %s", i+1, p.SourceID, p.Text)
	}
	return b.String()
}
