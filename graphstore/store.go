// Package graphstore exposes nearest-neighbor passage retrieval over the
// knowledge graph's vector index.
//
// The store owns the single shared connection handle to the graph backend.
// The handle is created lazily on first use, reused across turns, and
// released by Close; a retrieve after Close transparently reconnects.
package graphstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	explore "github.com/explore-ai/sdk"
)

// Environment variables resolved by ConfigFromEnv.
const (
	URIEnvVar      = "NEO4J_URI"
	UsernameEnvVar = "NEO4J_USERNAME"
	PasswordEnvVar = "NEO4J_PASSWORD"
)

// DefaultIndexName is the vector index queried for passage retrieval.
const DefaultIndexName = "passage_embeddings"

// Passage is one retrieved context passage.
type Passage struct {
	// Text is the passage content used for prompt composition.
	Text string

	// Score is the similarity score; passages are ordered by descending
	// score with ties broken by stable original retrieval order.
	Score float64

	// SourceID identifies the graph node the passage came from.
	SourceID string
}

// Config holds the connection settings for the graph backend.
type Config struct {
	// URI is the bolt/neo4j connection URI.
	URI string

	// Username authenticates against the graph backend.
	Username string

	// Password authenticates against the graph backend.
	Password string

	// IndexName is the vector index to query. Defaults to DefaultIndexName.
	IndexName string
}

// Validate checks that every required connection value is present.
func (c Config) Validate() error {
	switch {
	case c.URI == "":
		return fmt.Errorf("%w: graph connection URI is required", explore.ErrInvalidConfig)
	case c.Username == "":
		return fmt.Errorf("%w: graph username is required", explore.ErrInvalidConfig)
	case c.Password == "":
		return fmt.Errorf("%w: graph password is required", explore.ErrMissingCredential)
	}
	return nil
}

// ConfigFromEnv resolves connection settings from the process environment.
// Missing values are reported at first use, not here.
func ConfigFromEnv() Config {
	return Config{
		URI:      os.Getenv(URIEnvVar),
		Username: os.Getenv(UsernameEnvVar),
		Password: os.Getenv(PasswordEnvVar),
	}
}

// graphClient is the seam between the store and the graph driver.
// The production implementation wraps the Neo4j driver; tests inject a fake.
type graphClient interface {
	// Query executes a Cypher query with parameters and returns raw rows,
	// one map of column names to values per row.
	Query(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)

	// Close releases the underlying driver.
	Close(ctx context.Context) error
}

// Connector creates a graph client from a validated configuration.
type Connector func(cfg Config) (graphClient, error)

// Store retrieves passages by vector similarity.
//
// Store is safe for concurrent use. Creation of the shared handle is
// guarded so concurrent first-callers neither create duplicate handles nor
// observe a partially constructed one; no lock is held across a query.
type Store struct {
	cfg     Config
	connect Connector
	logger  *slog.Logger

	mu     sync.Mutex
	client graphClient
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// withConnector substitutes the driver constructor; used by tests.
func withConnector(connect Connector) StoreOption {
	return func(s *Store) {
		s.connect = connect
	}
}

// New creates a Store for the given configuration. No connection is made
// until the first retrieve.
func New(cfg Config, opts ...StoreOption) *Store {
	if cfg.IndexName == "" {
		cfg.IndexName = DefaultIndexName
	}

	s := &Store{
		cfg:     cfg,
		connect: newNeo4jClient,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// acquire returns the shared client handle, creating it on first use.
// Configuration is validated before any connection attempt.
func (s *Store) acquire() (graphClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := s.connect(s.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to graph backend: %w", err)
	}

	s.logger.Debug("graph connection established", "uri", s.cfg.URI)
	s.client = client
	return client, nil
}

// Retrieve returns the k nearest passages to the given embedding vector,
// ordered by descending similarity score with stable ties.
//
// Backend failures are never swallowed: they propagate as AgentGraphError
// wrapping the underlying cause so evaluators can distinguish retrieval
// failures from generation failures.
func (s *Store) Retrieve(ctx context.Context, vector []float32, k int) ([]Passage, error) {
	const op = "Store.Retrieve"

	if len(vector) == 0 {
		return nil, explore.NewValidationError(op,
			fmt.Errorf("embedding vector cannot be empty"))
	}
	if k <= 0 {
		return nil, explore.NewValidationError(op,
			fmt.Errorf("k must be positive, got %d", k))
	}

	client, err := s.acquire()
	if err != nil {
		return nil, explore.NewConfigurationError(op, err)
	}

	cypher, params := buildVectorQuery(s.cfg.IndexName, vector, k)

	rows, err := client.Query(ctx, cypher, params)
	if err != nil {
		return nil, explore.NewRetrievalError(op,
			fmt.Errorf("%w: %v", explore.ErrRetrievalFailed, err))
	}

	passages := make([]Passage, 0, len(rows))
	for _, row := range rows {
		passages = append(passages, Passage{
			Text:     stringValue(row["text"]),
			Score:    floatValue(row["score"]),
			SourceID: stringValue(row["sourceId"]),
		})
	}

	// The index returns descending scores already; the stable sort pins the
	// ordering contract against backends that do not.
	sort.SliceStable(passages, func(i, j int) bool {
		return passages[i].Score > passages[j].Score
	})

	return passages, nil
}

// Close releases the shared connection handle. It is idempotent: closing
// with no live handle is a no-op, and a subsequent retrieve re-creates it.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.mu.Unlock()

	if client == nil {
		return nil
	}

	if err := client.Close(ctx); err != nil {
		return explore.NewInternalError("Store.Close",
			fmt.Errorf("failed to close graph connection: %w", err))
	}

	s.logger.Debug("graph connection released")
	return nil
}

// stringValue extracts a string column, tolerating missing or mistyped values.
func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

// floatValue extracts a numeric column, tolerating missing or mistyped values.
func floatValue(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
