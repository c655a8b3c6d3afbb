// Package knowledge runs read-only Cypher against the building graph:
// canonical templates per intent, NL→Cypher translation, a write guard and
// formatting of the rows that come back.
package knowledge

import (
	"context"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/teranos/roomq/errors"
	"github.com/teranos/roomq/logger"
)

// Row is one result record keyed by column name
type Row = map[string]any

// Client executes Cypher against a graph store
type Client interface {
	Run(ctx context.Context, cypher string, params map[string]any) ([]Row, error)
}

// Neo4jConfig configures a Neo4jClient
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string // empty = server default
	Logger   *zap.SugaredLogger
}

// Neo4jClient is a Client backed by the official Neo4j driver.
// One client is shared by every request of the process.
type Neo4jClient struct {
	driver   neo4j.DriverWithContext
	database string
	log      *zap.SugaredLogger
}

// NewNeo4jClient creates the driver. No connection is made until the first
// query or Verify.
func NewNeo4jClient(cfg Neo4jConfig) (*Neo4jClient, error) {
	if strings.TrimSpace(cfg.URI) == "" {
		return nil, errors.WithHint(
			errors.Mark(errors.New("graph URI not configured"), errors.ErrServiceUnavailable),
			"set NEO4J_URI or graph.uri in am.toml")
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create neo4j driver for %s", cfg.URI)
	}
	return &Neo4jClient{driver: driver, database: cfg.Database, log: logger.OrNop(cfg.Logger)}, nil
}

// Run executes cypher with reader routing and returns every record as a map
func (c *Neo4jClient) Run(ctx context.Context, cypher string, params map[string]any) ([]Row, error) {
	opts := []neo4j.ExecuteQueryConfigurationOption{neo4j.ExecuteQueryWithReadersRouting()}
	if c.database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(c.database))
	}

	result, err := neo4j.ExecuteQuery(ctx, c.driver, cypher, params, neo4j.EagerResultTransformer, opts...)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(result.Records))
	for _, record := range result.Records {
		rows = append(rows, record.AsMap())
	}
	c.log.Debugw("Cypher executed", logger.FieldRows, len(rows))
	return rows, nil
}

// Verify checks that the server is reachable with the configured credentials
func (c *Neo4jClient) Verify(ctx context.Context) error {
	if err := c.driver.VerifyConnectivity(ctx); err != nil {
		return errors.Wrap(err, "neo4j connectivity check failed")
	}
	return nil
}

// Close releases the driver's connections
func (c *Neo4jClient) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

var _ Client = (*Neo4jClient)(nil)
