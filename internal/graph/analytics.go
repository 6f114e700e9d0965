package graph

import "strings"

// Canned analytics queries. The daily digest and the MCP analytics tool run
// these instead of asking the model to generate Cypher.
const (
	QueryDailyDigest = `MATCH (t:Transaction) WHERE t.date = date($date)
RETURN t.type AS type, count(t) AS count, sum(t.amount) AS total
ORDER BY type`

	QueryTotalSales = `MATCH (t:Transaction {type: 'sale'})
RETURN count(t) AS totalTransactions, sum(t.amount) AS totalAmount`

	QueryProductPerformance = `MATCH (t:Transaction)-[:INVOLVES_PRODUCT]->(p:Product)
RETURN p.name AS product, count(t) AS transactions, sum(t.amount) AS total
ORDER BY total DESC LIMIT 10`

	QueryVendorSummary = `MATCH (t:Transaction)-[:FROM_VENDOR]->(v:Vendor)
RETURN v.name AS vendor, count(t) AS transactions, sum(t.amount) AS total
ORDER BY total DESC LIMIT 10`
)

// AnalyticsQuery maps a requested analysis type onto a canned query.
func AnalyticsQuery(analysisType string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(analysisType)) {
	case "total_sales", "sales", "revenue":
		return QueryTotalSales, true
	case "product_performance", "top_products", "products":
		return QueryProductPerformance, true
	case "vendor_summary", "vendors":
		return QueryVendorSummary, true
	default:
		return "", false
	}
}
