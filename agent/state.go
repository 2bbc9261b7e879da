package agent

// State is the agent graph's position within a single turn.
//
// A turn progresses AwaitingInput → Embedding → Retrieving → Generating →
// Finalizing and ends in one of the terminal states Answered or Failed.
// The graph never holds state across turns; a new turn is a fresh run of
// the machine over the updated conversation.
type State string

const (
	// StateAwaitingInput is the initial state before a user message arrives.
	StateAwaitingInput State = "awaiting_input"

	// StateEmbedding is the embedding computation stage.
	StateEmbedding State = "embedding"

	// StateRetrieving is the graph vector store lookup stage.
	StateRetrieving State = "retrieving"

	// StateGenerating is the model invocation stage.
	StateGenerating State = "generating"

	// StateFinalizing is the tool-call inspection stage.
	StateFinalizing State = "finalizing"

	// StateAnswered is the terminal success state.
	StateAnswered State = "answered"

	// StateFailed is the terminal failure state.
	StateFailed State = "failed"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// IsTerminal reports whether the state ends the turn.
func (s State) IsTerminal() bool {
	return s == StateAnswered || s == StateFailed
}
