package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"bizgraph/internal/decision"
	"bizgraph/internal/executor"
	"bizgraph/internal/format"
	"bizgraph/internal/graph"
	"bizgraph/internal/logger"
)

// QueryParams are the arguments for a read-only Cypher query.
type QueryParams struct {
	Query string `json:"query" mcp:"the Cypher query to run (read-only, standard Cypher, no APOC)"`
}

// AddProductParams describe a catalog product to upsert.
type AddProductParams struct {
	Name        string  `json:"name" mcp:"product name"`
	Price       float64 `json:"price" mcp:"unit price in rupees"`
	Description string  `json:"description,omitempty" mcp:"optional product description"`
}

// LogTransactionParams describe a business transaction to record.
type LogTransactionParams struct {
	Type     string  `json:"type,omitempty" mcp:"transaction type: purchase, sale or commission (default purchase)"`
	Product  string  `json:"product,omitempty" mcp:"product involved in the transaction"`
	Amount   float64 `json:"amount" mcp:"total amount in rupees"`
	Quantity int     `json:"quantity,omitempty" mcp:"number of units (default 1)"`
	Vendor   string  `json:"vendor,omitempty" mcp:"vendor the goods came from"`
	Customer string  `json:"customer,omitempty" mcp:"customer the goods went to"`
	Date     string  `json:"date,omitempty" mcp:"transaction date as YYYY-MM-DD (default today)"`
	Notes    string  `json:"notes,omitempty" mcp:"free-form notes"`
}

// AnalyticsParams select one of the canned analytics queries.
type AnalyticsParams struct {
	AnalysisType string `json:"analysis_type" mcp:"one of: total_sales, product_performance, vendor_summary"`
}

// GraphMCPServer exposes the business graph over MCP.
type GraphMCPServer struct {
	store *graph.Neo4jStore
}

var writeClauses = []string{"CREATE", "MERGE", "DELETE", "SET", "REMOVE", "DROP"}

func isWriteQuery(cypher string) bool {
	for _, f := range strings.Fields(strings.ToUpper(cypher)) {
		for _, w := range writeClauses {
			if f == w {
				return true
			}
		}
	}
	return false
}

func errorResult(text string) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// QueryBusinessGraph runs a read-only Cypher query and renders the rows.
func (s *GraphMCPServer) QueryBusinessGraph(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[QueryParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments

	query := strings.TrimSpace(args.Query)
	if query == "" {
		return errorResult("❌ query is required"), nil
	}
	if isWriteQuery(query) {
		return errorResult("❌ only read queries are allowed here - use add_product or log_transaction for writes"), nil
	}

	log.Printf("🔍 MCP Server: Running graph query")

	rows, err := s.store.Run(ctx, query, nil)
	if err != nil {
		return errorResult(fmt.Sprintf("❌ Query failed: %v", err)), nil
	}

	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{
			&mcp.TextContent{Text: format.Format(decision.IntentGraphQuery, rows, query)},
		},
		Meta: map[string]interface{}{
			"rows":    len(rows),
			"success": true,
		},
	}, nil
}

// AddProduct upserts a product in the catalog.
func (s *GraphMCPServer) AddProduct(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[AddProductParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments

	log.Printf("📦 MCP Server: Adding product '%s'", args.Name)

	cypher, qp, err := executor.BuildAddProduct(decision.Entities{
		Product:     args.Name,
		Amount:      args.Price,
		HasAmount:   args.Price > 0,
		Description: args.Description,
	})
	if err != nil {
		return errorResult("❌ name and a positive price are required"), nil
	}

	if _, err := s.store.Run(ctx, cypher, qp); err != nil {
		return errorResult(fmt.Sprintf("❌ Failed to add product: %v", err)), nil
	}

	name := strings.TrimSpace(args.Name)
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{
			&mcp.TextContent{Text: format.ProductAdded(name, args.Price)},
		},
		Meta: map[string]interface{}{
			"normalized_name": graph.NormalizeName(name),
			"success":         true,
		},
	}, nil
}

// LogTransaction records a purchase, sale or commission.
func (s *GraphMCPServer) LogTransaction(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[LogTransactionParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments

	log.Printf("💰 MCP Server: Logging %s transaction", args.Type)

	ents := decision.Entities{
		TransactionType: args.Type,
		Product:         args.Product,
		Amount:          args.Amount,
		HasAmount:       args.Amount > 0,
		Quantity:        args.Quantity,
		Vendor:          args.Vendor,
		Customer:        args.Customer,
		Date:            args.Date,
		Description:     args.Notes,
	}
	cypher, qp, err := executor.BuildLogTransaction(ents, time.Now().UTC())
	if err != nil {
		return errorResult("❌ a positive amount is required"), nil
	}

	if _, err := s.store.Run(ctx, cypher, qp); err != nil {
		return errorResult(fmt.Sprintf("❌ Failed to log transaction: %v", err)), nil
	}

	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{
			&mcp.TextContent{Text: format.TransactionLogged(ents)},
		},
		Meta: map[string]interface{}{
			"success": true,
		},
	}, nil
}

// BusinessAnalytics runs one of the canned analytics queries.
func (s *GraphMCPServer) BusinessAnalytics(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[AnalyticsParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments

	query, ok := graph.AnalyticsQuery(args.AnalysisType)
	if !ok {
		return errorResult("❌ unknown analysis_type - use total_sales, product_performance or vendor_summary"), nil
	}

	log.Printf("📊 MCP Server: Running %s analytics", args.AnalysisType)

	rows, err := s.store.Run(ctx, query, nil)
	if err != nil {
		return errorResult(fmt.Sprintf("❌ Analytics query failed: %v", err)), nil
	}

	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{
			&mcp.TextContent{Text: format.Format(decision.IntentGraphQuery, rows, args.AnalysisType)},
		},
		Meta: map[string]interface{}{
			"analysis_type": args.AnalysisType,
			"rows":          len(rows),
			"success":       true,
		},
	}, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	log.Printf("🚀 Starting Business Graph MCP Server")

	ctx := context.Background()
	zl := logger.New(envOr("LOG_LEVEL", "info"), "json")

	store, err := graph.NewNeo4j(ctx, graph.Options{
		URI:      envOr("NEO4J_URI", "bolt://localhost:7687"),
		User:     envOr("NEO4J_USER", "neo4j"),
		Password: envOr("NEO4J_PASSWORD", "changeme123"),
		Database: envOr("NEO4J_DATABASE", "neo4j"),
		Timeout:  30 * time.Second,
	}, zl)
	if err != nil {
		log.Fatalf("❌ Failed to connect to neo4j: %v", err)
	}
	defer func() { _ = store.Close(context.Background()) }()

	if err := store.EnsureSchema(ctx); err != nil {
		log.Printf("⚠️ Failed to ensure graph schema: %v", err)
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "bizgraph-mcp",
		Version: "1.0.0",
	}, nil)

	graphServer := &GraphMCPServer{store: store}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_business_graph",
		Description: "Runs a read-only Cypher query against the business graph",
	}, graphServer.QueryBusinessGraph)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_product",
		Description: "Adds or updates a product in the catalog with its price",
	}, graphServer.AddProduct)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "log_transaction",
		Description: "Records a purchase, sale or commission in the business graph",
	}, graphServer.LogTransaction)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "business_analytics",
		Description: "Runs a canned analytics query: total_sales, product_performance or vendor_summary",
	}, graphServer.BusinessAnalytics)

	log.Printf("📋 Registered 4 tools: query_business_graph, add_product, log_transaction, business_analytics")
	log.Printf("🔗 Starting server on stdin/stdout...")

	transport := mcp.NewStdioTransport()
	if err := server.Run(context.Background(), transport); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}
