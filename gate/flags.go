package gate

import (
	"context"
	"fmt"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// FlagStore reads named feature flags. The second return reports whether the
// flag exists; callers choose the default for absent flags.
type FlagStore interface {
	// Get returns the flag's raw value and whether it was found.
	Get(ctx context.Context, name string) (string, bool, error)

	// Close releases the store's backing connection.
	Close() error
}

// EtcdConfig configures the etcd-backed flag store.
type EtcdConfig struct {
	// Endpoints lists the etcd cluster endpoints.
	Endpoints []string

	// Namespace prefixes every flag key. Defaults to "explore".
	Namespace string

	// DialTimeout bounds connection establishment. Defaults to 5s.
	DialTimeout time.Duration
}

// EtcdFlagStore reads feature flags from etcd under <namespace>/flags/<name>.
// Flags are operator-managed runtime switches; the store reads them fresh on
// every check so a flip takes effect without a restart.
type EtcdFlagStore struct {
	client    *clientv3.Client
	namespace string
}

// NewEtcdFlagStore connects to etcd and verifies connectivity.
func NewEtcdFlagStore(cfg EtcdConfig) (*EtcdFlagStore, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("flag store endpoints cannot be empty")
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "explore"
	}

	dialTimeout := cfg.DialTimeout
	if dialTimeout == 0 {
		dialTimeout = 5 * time.Second
	}

	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: dialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if _, err := cli.Get(ctx, "health-check"); err != nil && err != context.DeadlineExceeded {
		cli.Close()
		return nil, fmt.Errorf("etcd health check failed: %w", err)
	}

	return &EtcdFlagStore{client: cli, namespace: namespace}, nil
}

// Get reads one flag value from etcd.
func (s *EtcdFlagStore) Get(ctx context.Context, name string) (string, bool, error) {
	resp, err := s.client.Get(ctx, s.flagKey(name))
	if err != nil {
		return "", false, fmt.Errorf("failed to read flag %s: %w", name, err)
	}

	if len(resp.Kvs) == 0 {
		return "", false, nil
	}

	return string(resp.Kvs[0].Value), true, nil
}

// Close closes the etcd connection.
func (s *EtcdFlagStore) Close() error {
	return s.client.Close()
}

// flagKey builds the <namespace>/flags/<name> key.
func (s *EtcdFlagStore) flagKey(name string) string {
	return strings.Join([]string{s.namespace, "flags", name}, "/")
}
