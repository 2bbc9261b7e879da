// Package memory persists conversations between turns.
//
// The agent graph is stateless across turns; a Store keeps each session's
// ordered message history so the next turn can be run over the full
// conversation. RedisStore is the production implementation.
package memory
