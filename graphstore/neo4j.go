package graphstore

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// neo4jClient wraps the Neo4j driver behind the graphClient seam.
type neo4jClient struct {
	driver neo4j.DriverWithContext
}

// newNeo4jClient is the default Connector.
func newNeo4jClient(cfg Config) (graphClient, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	return &neo4jClient{driver: driver}, nil
}

// Query executes a Cypher query in a read session and collects the rows.
func (c *neo4jClient) Query(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer func() {
		_ = session.Close(ctx)
	}()

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}

	records, err := result.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect query results: %w", err)
	}

	rows := make([]map[string]any, 0, len(records))
	for _, record := range records {
		rows = append(rows, record.AsMap())
	}
	return rows, nil
}

// Close shuts down the underlying driver.
func (c *neo4jClient) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}
