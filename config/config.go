// Package config provides loading and parsing of explore.yaml configuration
// files. The file carries connection settings for the model provider, graph
// store, session store, and flag store, plus agent tuning knobs. Secrets stay
// in the environment and override anything the file carries.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/explore-ai/sdk/embedding"
)

// Config represents an explore.yaml configuration file.
type Config struct {
	OpenAI *OpenAIConfig `yaml:"openai,omitempty"`
	Neo4j  *Neo4jConfig  `yaml:"neo4j,omitempty"`
	Redis  *RedisConfig  `yaml:"redis,omitempty"`
	Etcd   *EtcdConfig   `yaml:"etcd,omitempty"`
	Agent  *AgentConfig  `yaml:"agent,omitempty"`
}

// OpenAIConfig configures the model provider. The API key is never read from
// the file; it comes from OPENAI_API_KEY.
type OpenAIConfig struct {
	// Model is the chat model name (e.g., "gpt-4o").
	Model string `yaml:"model,omitempty"`

	// EmbeddingStrategy names the embedding model.
	// Default: text-embedding-3-small
	EmbeddingStrategy string `yaml:"embedding_strategy,omitempty"`

	// Timeout bounds a single model invocation.
	// Format: Go duration string (e.g., "60s")
	// Default: 60s
	Timeout string `yaml:"timeout,omitempty"`
}

// Neo4jConfig configures the graph vector store connection. The password is
// never read from the file; it comes from NEO4J_PASSWORD.
type Neo4jConfig struct {
	URI      string `yaml:"uri,omitempty"`
	Username string `yaml:"username,omitempty"`

	// Index is the vector index queried for passages.
	// Default: passage_embeddings
	Index string `yaml:"index,omitempty"`
}

// RedisConfig configures the session store and metrics sink connection.
type RedisConfig struct {
	// URL is the Redis connection string.
	// Default: redis://localhost:6379
	URL string `yaml:"url,omitempty"`

	// SessionTTL is the idle retention for session conversations.
	// Format: Go duration string (e.g., "24h")
	// Default: 24h
	SessionTTL string `yaml:"session_ttl,omitempty"`
}

// EtcdConfig configures the feature flag store connection.
type EtcdConfig struct {
	Endpoints []string `yaml:"endpoints,omitempty"`

	// Namespace prefixes flag keys.
	// Default: explore
	Namespace string `yaml:"namespace,omitempty"`
}

// AgentConfig carries agent graph tuning knobs.
type AgentConfig struct {
	// TopK is the number of passages retrieved per turn.
	// Default: 3
	TopK int `yaml:"top_k,omitempty"`

	// MaxToolIterations bounds the generate/finalize loop.
	// Default: 3
	MaxToolIterations int `yaml:"max_tool_iterations,omitempty"`

	// AdmissionRule is an optional CEL expression over session attributes.
	AdmissionRule string `yaml:"admission_rule,omitempty"`
}

// GetEmbeddingStrategy returns the configured strategy or the default.
func (o *OpenAIConfig) GetEmbeddingStrategy() string {
	if o == nil || o.EmbeddingStrategy == "" {
		return embedding.TextEmbedding3Small
	}
	return o.EmbeddingStrategy
}

// GetTimeout parses the invocation timeout string and returns a duration.
// Returns the default value if not set or invalid.
func (o *OpenAIConfig) GetTimeout() time.Duration {
	if o == nil || o.Timeout == "" {
		return 60 * time.Second
	}
	d, err := time.ParseDuration(o.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// GetIndex returns the configured vector index or the default value.
func (n *Neo4jConfig) GetIndex() string {
	if n == nil || n.Index == "" {
		return "passage_embeddings"
	}
	return n.Index
}

// GetURL returns the configured Redis URL or the default value.
func (r *RedisConfig) GetURL() string {
	if r == nil || r.URL == "" {
		return "redis://localhost:6379"
	}
	return r.URL
}

// GetSessionTTL parses the session TTL string and returns a duration.
// Returns the default value if not set or invalid.
func (r *RedisConfig) GetSessionTTL() time.Duration {
	if r == nil || r.SessionTTL == "" {
		return 24 * time.Hour
	}
	d, err := time.ParseDuration(r.SessionTTL)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// GetNamespace returns the configured etcd namespace or the default value.
func (e *EtcdConfig) GetNamespace() string {
	if e == nil || e.Namespace == "" {
		return "explore"
	}
	return e.Namespace
}

// GetTopK returns the configured passage count or the default value.
func (a *AgentConfig) GetTopK() int {
	if a == nil || a.TopK <= 0 {
		return 3
	}
	return a.TopK
}

// GetMaxToolIterations returns the configured loop bound or the default value.
func (a *AgentConfig) GetMaxToolIterations() int {
	if a == nil || a.MaxToolIterations <= 0 {
		return 3
	}
	return a.MaxToolIterations
}

// Load reads and parses an explore.yaml file from the given path. If the
// path is a directory, it looks for explore.yaml or explore.yml in that
// directory. Environment overrides are applied after parsing.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	var configPath string
	if info.IsDir() {
		yamlPath := filepath.Join(path, "explore.yaml")
		if _, err := os.Stat(yamlPath); err == nil {
			configPath = yamlPath
		} else {
			ymlPath := filepath.Join(path, "explore.yml")
			if _, err := os.Stat(ymlPath); err == nil {
				configPath = ymlPath
			} else {
				return nil, fmt.Errorf("no explore.yaml or explore.yml found in %s", path)
			}
		}
	} else {
		configPath = path
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyEnv(os.LookupEnv)
	return &config, nil
}

// LoadFromDir searches for explore.yaml starting from the given directory
// and walking up to parent directories until found or root is reached.
func LoadFromDir(dir string) (*Config, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	for {
		config, err := Load(absDir)
		if err == nil {
			return config, nil
		}

		parent := filepath.Dir(absDir)
		if parent == absDir {
			return nil, fmt.Errorf("no explore.yaml found in %s or parent directories", dir)
		}
		absDir = parent
	}
}

// applyEnv overlays environment variables onto the parsed file. The
// environment always wins so deployments can override a checked-in file
// without editing it.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if uri, ok := lookup("NEO4J_URI"); ok {
		c.ensureNeo4j().URI = uri
	}
	if user, ok := lookup("NEO4J_USERNAME"); ok {
		c.ensureNeo4j().Username = user
	}
	if url, ok := lookup("REDIS_URL"); ok {
		c.ensureRedis().URL = url
	}
	if endpoints, ok := lookup("ETCD_ENDPOINTS"); ok {
		c.ensureEtcd().Endpoints = splitEndpoints(endpoints)
	}
	if model, ok := lookup("OPENAI_MODEL"); ok {
		c.ensureOpenAI().Model = model
	}
}

func (c *Config) ensureOpenAI() *OpenAIConfig {
	if c.OpenAI == nil {
		c.OpenAI = &OpenAIConfig{}
	}
	return c.OpenAI
}

func (c *Config) ensureNeo4j() *Neo4jConfig {
	if c.Neo4j == nil {
		c.Neo4j = &Neo4jConfig{}
	}
	return c.Neo4j
}

func (c *Config) ensureRedis() *RedisConfig {
	if c.Redis == nil {
		c.Redis = &RedisConfig{}
	}
	return c.Redis
}

func (c *Config) ensureEtcd() *EtcdConfig {
	if c.Etcd == nil {
		c.Etcd = &EtcdConfig{}
	}
	return c.Etcd
}

// splitEndpoints parses a comma-separated endpoint list.
func splitEndpoints(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
