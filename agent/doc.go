// Package agent implements the conversational turn state machine.
//
// A Graph drives one turn over an injected embedding provider, graph
// vector store, and tool-calling model: the latest user message is
// embedded, similar passages are retrieved and folded into the prompt,
// and the model is invoked with the final_answer tool bound. The turn
// ends Answered when a valid final_answer call arrives, or Failed with
// an AgentGraphError otherwise. Stage outcomes are reported through a
// metrics.Recorder without ever blocking the turn.
package agent
