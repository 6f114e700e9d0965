package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/rs/zerolog"
)

// Store runs queries against the business graph and yields plain key-value
// rows. Results are collected eagerly; callers never see driver types.
type Store interface {
	Run(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)
	Close(ctx context.Context) error
}

type Options struct {
	URI      string
	User     string
	Password string
	Database string
	Timeout  time.Duration
}

type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
	timeout  time.Duration
	log      zerolog.Logger
}

func NewNeo4j(ctx context.Context, opts Options, log zerolog.Logger) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(opts.URI, neo4j.BasicAuth(opts.User, opts.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("neo4j unreachable at %s: %w", opts.URI, err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Neo4jStore{
		driver:   driver,
		database: opts.Database,
		timeout:  timeout,
		log:      log.With().Str("component", "graph").Logger(),
	}, nil
}

func (s *Neo4jStore) Run(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	session := s.driver.NewSession(runCtx, neo4j.SessionConfig{DatabaseName: s.database})
	defer session.Close(runCtx)

	result, err := session.Run(runCtx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("cypher execution failed: %w", err)
	}

	var rows []map[string]any
	for result.Next(runCtx) {
		rows = append(rows, FlattenRecord(result.Record().AsMap()))
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("cypher result iteration failed: %w", err)
	}

	s.log.Debug().Int("rows", len(rows)).Msg("cypher executed")
	return rows, nil
}

func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// EnsureSchema creates the uniqueness constraints and indexes the assistant
// relies on. Safe to run at every startup.
func (s *Neo4jStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		"CREATE CONSTRAINT product_normalized_name IF NOT EXISTS FOR (p:Product) REQUIRE p.normalized_name IS UNIQUE",
		"CREATE CONSTRAINT vendor_normalized_name IF NOT EXISTS FOR (v:Vendor) REQUIRE v.normalized_name IS UNIQUE",
		"CREATE CONSTRAINT customer_normalized_name IF NOT EXISTS FOR (c:Customer) REQUIRE c.normalized_name IS UNIQUE",
		"CREATE INDEX transaction_date IF NOT EXISTS FOR (t:Transaction) ON (t.date)",
	}
	for _, stmt := range stmts {
		if _, err := s.Run(ctx, stmt, nil); err != nil {
			return fmt.Errorf("schema init failed: %w", err)
		}
	}
	s.log.Info().Msg("graph schema ensured")
	return nil
}

// FlattenRecord converts driver values into plain Go values. Node and
// relationship values collapse to their property maps, temporal values to
// time.Time.
func FlattenRecord(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = flattenValue(v)
	}
	return out
}

func flattenValue(v any) any {
	switch t := v.(type) {
	case dbtype.Node:
		return FlattenRecord(t.Props)
	case dbtype.Relationship:
		return FlattenRecord(t.Props)
	case dbtype.Date:
		return t.Time()
	case dbtype.LocalDateTime:
		return t.Time()
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = flattenValue(t[i])
		}
		return out
	default:
		return v
	}
}
