// Package explore is the SDK for the Explore conversational RAG agent.
//
// The agent answers questions about a knowledge graph of passages: each user
// turn is embedded, similar passages are retrieved from a Neo4j vector index,
// and a tool-calling chat model produces a structured final answer with
// suggested follow-up questions.
//
// # Core Concepts
//
// The SDK is organized around several key concepts:
//
//   - Turn: one run of the agent state machine over a conversation
//   - Conversation: the ordered message history for a session
//   - Passage: a retrieved knowledge graph node with its similarity score
//   - Final answer: the terminal tool call carrying the structured answer
//
// # Packages
//
//   - agent: the turn state machine
//   - llm: conversation types and the tool-calling ChatModel variants
//   - embedding: the strategy-checked embedding provider
//   - graphstore: the Neo4j-backed passage store
//   - memory: Redis-backed conversation persistence between turns
//   - metrics: fire-and-forget stage outcome recording
//   - gate: feature flag and rule based session admission
//   - config: explore.yaml loading with environment overrides
//
// This root package carries the AgentGraphError taxonomy shared by all of
// them: components wrap their failures in AgentGraphError so callers can
// branch on error kind without knowing which backend failed.
package explore
