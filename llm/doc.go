// Package llm defines the conversation model and the tool-calling model
// capability used by the agent graph.
//
// The central seam is the ChatModel interface, implemented by two variants:
// OpenAIModel for production and MockModel for deterministic tests and demos.
// Both honor the same invoke/bindTools/withConfig contract, so the agent
// graph never knows which one it is driving.
package llm
