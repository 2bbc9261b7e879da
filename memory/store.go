package memory

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/explore-ai/sdk/llm"
)

// Common errors returned by memory operations.
var (
	// ErrInvalidSession is returned when a session ID is empty.
	ErrInvalidSession = errors.New("memory: invalid session id")

	// ErrStorageFailed is returned when the underlying storage backend fails.
	ErrStorageFailed = errors.New("memory: storage operation failed")
)

// DefaultSessionTTL is how long an idle session's conversation is retained.
const DefaultSessionTTL = 24 * time.Hour

// Store persists conversations between turns, keyed by session ID. The agent
// graph owns the conversation only for the duration of a turn; the store owns
// it in between.
type Store interface {
	// Append adds messages to the end of a session's conversation.
	Append(ctx context.Context, sessionID string, messages ...llm.Message) error

	// History returns the session's full conversation in order.
	// A session with no history yields an empty conversation, not an error.
	History(ctx context.Context, sessionID string) (llm.Conversation, error)

	// Clear removes a session's conversation.
	Clear(ctx context.Context, sessionID string) error

	// Close releases the store's backing connection.
	Close() error
}

// RedisOptions configures the Redis connection backing a store.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379")
	URL string

	// TLS configuration for secure connections
	TLS *tls.Config

	// ConnectTimeout is the maximum time to wait for connection establishment
	ConnectTimeout time.Duration

	// ReadTimeout is the maximum time to wait for read operations
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait for write operations
	WriteTimeout time.Duration

	// SessionTTL is the idle retention for a session's conversation.
	// Every append refreshes it. Zero means DefaultSessionTTL.
	SessionTTL time.Duration
}

// RedisStore implements Store using go-redis/v9. Each message is stored as
// one JSON list element, so History is a single LRANGE and Append never
// rewrites existing history.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed conversation store and verifies the
// connection with a ping.
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}

	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}

	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 30 * time.Second
	}

	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 5 * time.Second
	}

	if opts.SessionTTL == 0 {
		opts.SessionTTL = DefaultSessionTTL
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	redisOpts.TLSConfig = opts.TLS
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.ReadTimeout = opts.ReadTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, ttl: opts.SessionTTL}, nil
}

// Append adds messages to the end of a session's conversation and refreshes
// the session TTL.
func (s *RedisStore) Append(ctx context.Context, sessionID string, messages ...llm.Message) error {
	if sessionID == "" {
		return ErrInvalidSession
	}
	if len(messages) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(messages))
	for _, m := range messages {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		values = append(values, data)
	}

	key := sessionKey(sessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: append to session %s: %v", ErrStorageFailed, sessionID, err)
	}

	return nil
}

// History returns the session's full conversation in order.
func (s *RedisStore) History(ctx context.Context, sessionID string) (llm.Conversation, error) {
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	raw, err := s.client.LRange(ctx, sessionKey(sessionID), 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return llm.Conversation{}, nil
		}
		return nil, fmt.Errorf("%w: read session %s: %v", ErrStorageFailed, sessionID, err)
	}

	conversation := make(llm.Conversation, 0, len(raw))
	for _, item := range raw {
		var m llm.Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, fmt.Errorf("%w: corrupt message in session %s: %v", ErrStorageFailed, sessionID, err)
		}
		conversation = append(conversation, m)
	}

	return conversation, nil
}

// Clear removes a session's conversation.
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrInvalidSession
	}

	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: clear session %s: %v", ErrStorageFailed, sessionID, err)
	}

	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// sessionKey builds the session:<id>:messages key.
func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s:messages", sessionID)
}
