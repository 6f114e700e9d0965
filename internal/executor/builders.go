package executor

import (
	"errors"
	"strings"
	"time"

	"bizgraph/internal/decision"
	"bizgraph/internal/graph"
)

// Deterministic, parameterized write queries for the fallback path, where no
// model-generated Cypher is available. Both keep the display name alongside
// normalized_name so lookups stay case-insensitive.

var (
	ErrMissingProduct = errors.New("product name and price are required")
	ErrMissingAmount  = errors.New("transaction amount is required")
)

// BuildAddProduct builds the MERGE for a new catalog product.
func BuildAddProduct(e decision.Entities) (string, map[string]any, error) {
	name := strings.TrimSpace(e.Product)
	if name == "" || !e.HasAmount {
		return "", nil, ErrMissingProduct
	}

	var b strings.Builder
	b.WriteString("MERGE (p:Product {normalized_name: $normalized_name})\n")
	b.WriteString("SET p.name = $name, p.price = $price")
	params := map[string]any{
		"normalized_name": graph.NormalizeName(name),
		"name":            name,
		"price":           e.Amount,
	}
	if desc := strings.TrimSpace(e.Description); desc != "" {
		b.WriteString(", p.description = $description")
		params["description"] = desc
	}
	b.WriteString("\nRETURN p.name AS name, p.price AS price")
	return b.String(), params, nil
}

var transactionTypes = map[string]bool{
	"purchase":   true,
	"sale":       true,
	"commission": true,
}

// BuildLogTransaction builds the CREATE for a transaction plus MERGEs for
// the parties involved. Type defaults to purchase, quantity to 1 and the
// date to today when the message did not pin them down.
func BuildLogTransaction(e decision.Entities, today time.Time) (string, map[string]any, error) {
	if !e.HasAmount {
		return "", nil, ErrMissingAmount
	}

	typ := strings.ToLower(strings.TrimSpace(e.TransactionType))
	if !transactionTypes[typ] {
		typ = "purchase"
	}
	quantity := e.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	date := today.Format("2006-01-02")
	if e.Date != "" {
		if _, err := time.Parse("2006-01-02", e.Date); err == nil {
			date = e.Date
		}
	}

	params := map[string]any{
		"type":     typ,
		"amount":   e.Amount,
		"quantity": quantity,
		"date":     date,
	}

	var b strings.Builder
	b.WriteString("CREATE (t:Transaction {transaction_id: randomUUID(), type: $type, amount: $amount, quantity: $quantity, date: date($date)")
	if notes := strings.TrimSpace(e.Description); notes != "" {
		b.WriteString(", notes: $notes")
		params["notes"] = notes
	}
	b.WriteString("})\n")

	if product := strings.TrimSpace(e.Product); product != "" {
		b.WriteString("MERGE (p:Product {normalized_name: $product_normalized})\n")
		b.WriteString("ON CREATE SET p.name = $product\n")
		b.WriteString("CREATE (t)-[:INVOLVES_PRODUCT]->(p)\n")
		params["product_normalized"] = graph.NormalizeName(product)
		params["product"] = product
	}
	if vendor := strings.TrimSpace(e.Vendor); vendor != "" {
		b.WriteString("MERGE (v:Vendor {normalized_name: $vendor_normalized})\n")
		b.WriteString("ON CREATE SET v.name = $vendor\n")
		b.WriteString("CREATE (t)-[:FROM_VENDOR]->(v)\n")
		params["vendor_normalized"] = graph.NormalizeName(vendor)
		params["vendor"] = vendor
	}
	if customer := strings.TrimSpace(e.Customer); customer != "" {
		b.WriteString("MERGE (c:Customer {normalized_name: $customer_normalized})\n")
		b.WriteString("ON CREATE SET c.name = $customer\n")
		b.WriteString("CREATE (t)-[:TO_CUSTOMER]->(c)\n")
		params["customer_normalized"] = graph.NormalizeName(customer)
		params["customer"] = customer
	}

	b.WriteString("RETURN t.transaction_id AS transaction_id, t.type AS type, t.amount AS amount, t.date AS date")
	return b.String(), params, nil
}
