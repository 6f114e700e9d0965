package format

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"bizgraph/internal/decision"
)

// Format renders store rows into the user-facing reply. It is pure and
// deterministic: identical inputs always produce identical text, map keys
// are walked in sorted order, and no model is ever consulted here.
//
// Precedence: empty result, single count/total row, transaction rows,
// catalog rows, generic key-value summary.
func Format(intent decision.Intent, rows []map[string]any, userMessage string) string {
	rows = unwrapRows(rows)

	if len(rows) == 0 {
		if intent == decision.IntentAddProduct || intent == decision.IntentLogTransaction {
			return "Action completed successfully."
		}
		return emptyMessage(userMessage)
	}

	if len(rows) == 1 {
		if s, ok := countSummary(rows[0]); ok {
			return s
		}
	}

	if looksLikeTransactions(rows[0]) {
		return transactionList(rows)
	}

	if mentionsProducts(userMessage) && looksLikeCatalog(rows[0]) {
		return catalogBullets(rows)
	}

	return genericSummary(rows)
}

// ExecutionError phrases a store-level failure. The turn still completes;
// the user sees what went wrong instead of a crash or silence.
func ExecutionError(err error) string {
	return fmt.Sprintf("Sorry, there was an error: %v", err)
}

// NoData is the stock empty answer, picked by what the message asked about.
func NoData(userMessage string) string {
	return emptyMessage(userMessage)
}

// ProductAdded is the canned confirmation for the fallback add-product route.
func ProductAdded(name string, price float64) string {
	return fmt.Sprintf("Product '%s' added with price ₹%s.", name, formatFloat(price))
}

// TransactionLogged is the canned confirmation for the fallback
// log-transaction route, built from whatever entities were extracted.
func TransactionLogged(e decision.Entities) string {
	if e.TransactionType == "" && e.Product == "" && !e.HasAmount && e.Vendor == "" && e.Customer == "" {
		return "Transaction logged successfully."
	}
	typ := e.TransactionType
	if typ == "" {
		typ = "transaction"
	}
	var b strings.Builder
	b.WriteString("Logged ")
	b.WriteString(typ)
	if e.Product != "" {
		fmt.Fprintf(&b, " of %s", e.Product)
	}
	if e.HasAmount {
		fmt.Fprintf(&b, " for ₹%s", formatFloat(e.Amount))
	}
	if e.Vendor != "" {
		fmt.Fprintf(&b, " from %s", e.Vendor)
	} else if e.Customer != "" {
		fmt.Fprintf(&b, " to %s", e.Customer)
	}
	b.WriteByte('.')
	return b.String()
}

// DailyDigest renders the per-type transaction rollup the scheduler sends.
// Rows carry type, count and total, one row per transaction type.
func DailyDigest(date time.Time, rows []map[string]any) string {
	day := date.Format("2006-01-02")
	if len(rows) == 0 {
		return fmt.Sprintf("Business digest for %s: no transactions recorded.", day)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Business digest for %s:", day)
	for _, row := range rows {
		typ, _ := stringAt(row, "type")
		count, _ := numberAt(row, "count")
		noun := pluralize("transaction", count)
		fmt.Fprintf(&b, "\n• %s: %s %s", typ, formatNumberValue(count), noun)
		if total, ok := numberAt(row, "total"); ok {
			fmt.Fprintf(&b, ", ₹%s", formatNumberValue(total))
		}
	}
	return b.String()
}

func emptyMessage(userMessage string) string {
	msg := strings.ToLower(userMessage)
	switch {
	case containsAny(msg, "product", "item", "catalog", "inventory", "price"):
		return "No products found in database."
	case containsAny(msg, "transaction", "sale", "sold", "purchase", "bought", "commission"):
		return "No transactions found in database."
	case strings.Contains(msg, "vendor"):
		return "No vendors found in database."
	case strings.Contains(msg, "customer"):
		return "No customers found in database."
	default:
		return "No data found in database."
	}
}

// countSummary turns a lone aggregate row into one sentence, deriving the
// noun from the column name ("totalTransactions" reads as transactions).
func countSummary(row map[string]any) (string, bool) {
	var (
		noun   string
		count  float64
		amount float64
		hasCnt bool
		hasAmt bool
	)
	for _, key := range sortedKeys(row) {
		words := splitWords(key)
		n, numeric := toNumber(row[key])
		if !numeric {
			continue
		}
		if hasWord(words, "amount", "revenue", "price", "value") {
			if !hasAmt {
				amount = n
				hasAmt = true
			}
			continue
		}
		if hasWord(words, "count", "total", "num", "number") && !hasCnt {
			count = n
			noun = countNoun(words)
			hasCnt = true
		}
	}
	if !hasCnt {
		return "", false
	}
	s := fmt.Sprintf("You have %s %s", formatNumberValue(count), pluralize(noun, count))
	if hasAmt {
		s += fmt.Sprintf(" worth ₹%s", formatNumberValue(amount))
	}
	return s + ".", true
}

func countNoun(words []string) string {
	for i := len(words) - 1; i >= 0; i-- {
		w := words[i]
		if len(w) < 2 {
			continue
		}
		switch w {
		case "count", "total", "num", "number", "of", "all":
			continue
		}
		return w
	}
	return "record"
}

func looksLikeTransactions(row map[string]any) bool {
	if _, ok := fieldAt(row, "transaction_id"); ok {
		return true
	}
	_, hasType := fieldAt(row, "type", "transaction_type")
	_, hasAmount := fieldAt(row, "amount")
	_, hasDate := fieldAt(row, "date")
	return (hasType && hasAmount) || (hasAmount && hasDate)
}

func transactionList(rows []map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d %s:", len(rows), pluralize("transaction", float64(len(rows))))
	for i, row := range rows {
		var parts []string
		if typ, ok := stringAt(row, "type", "transaction_type"); ok {
			parts = append(parts, typ)
		}
		if product, ok := stringAt(row, "product", "product_name", "item"); ok {
			parts = append(parts, product)
		}
		if amount, ok := numberAt(row, "amount"); ok {
			parts = append(parts, "₹"+formatNumberValue(amount))
		}
		if vendor, ok := stringAt(row, "vendor", "vendor_name"); ok {
			parts = append(parts, "from "+vendor)
		}
		if customer, ok := stringAt(row, "customer", "customer_name"); ok {
			parts = append(parts, "to "+customer)
		}
		if date, ok := fieldAt(row, "date"); ok {
			parts = append(parts, formatDate(date))
		}
		if len(parts) == 0 {
			parts = append(parts, summaryLine(row))
		}
		fmt.Fprintf(&b, "\n%d. %s", i+1, strings.Join(parts, " — "))
	}
	return b.String()
}

func mentionsProducts(userMessage string) bool {
	return containsAny(strings.ToLower(userMessage), "product", "item", "catalog", "inventory", "price", "stock")
}

func looksLikeCatalog(row map[string]any) bool {
	_, ok := fieldAt(row, "name", "product", "product_name")
	return ok
}

func catalogBullets(rows []map[string]any) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		name, ok := stringAt(row, "name", "product", "product_name")
		if !ok {
			name = summaryLine(row)
		}
		line := "• " + name
		if price, ok := numberAt(row, "price", "amount"); ok {
			line += " — ₹" + formatNumberValue(price)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

const genericSummaryLimit = 5

func genericSummary(rows []map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d %s:", len(rows), pluralize("record", float64(len(rows))))
	for i, row := range rows {
		if i == genericSummaryLimit {
			break
		}
		fmt.Fprintf(&b, "\n%d. %s", i+1, summaryLine(row))
	}
	return b.String()
}

func summaryLine(row map[string]any) string {
	parts := make([]string, 0, len(row))
	for _, k := range sortedKeys(row) {
		parts = append(parts, k+": "+formatValue(row[k]))
	}
	return strings.Join(parts, ", ")
}

// unwrapRows lifts single-node rows (RETURN p style results) so their
// properties are addressable directly.
func unwrapRows(rows []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		if len(row) == 1 {
			for _, v := range row {
				if props, ok := v.(map[string]any); ok {
					row = props
				}
			}
		}
		out = append(out, row)
	}
	return out
}

func fieldAt(row map[string]any, names ...string) (any, bool) {
	for _, n := range names {
		if v, ok := row[n]; ok {
			return v, true
		}
	}
	// Unaliased projections keep the variable prefix, e.g. "t.amount".
	for _, key := range sortedKeys(row) {
		for _, n := range names {
			if strings.HasSuffix(key, "."+n) {
				return row[key], true
			}
		}
	}
	return nil, false
}

func stringAt(row map[string]any, names ...string) (string, bool) {
	v, ok := fieldAt(row, names...)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

func numberAt(row map[string]any, names ...string) (float64, bool) {
	v, ok := fieldAt(row, names...)
	if !ok {
		return 0, false
	}
	return toNumber(v)
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case string:
		return x
	case time.Time:
		return x.Format("2006-01-02")
	case bool:
		return strconv.FormatBool(x)
	default:
		if n, ok := toNumber(v); ok {
			return formatNumberValue(n)
		}
		return fmt.Sprintf("%v", v)
	}
}

func formatNumberValue(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func formatDate(v any) string {
	switch d := v.(type) {
	case time.Time:
		return d.Format("2006-01-02")
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, d); err == nil {
				return t.Format("2006-01-02")
			}
		}
		return d
	default:
		return formatValue(v)
	}
}

func pluralize(noun string, n float64) string {
	if n == 1 {
		return strings.TrimSuffix(noun, "s")
	}
	if !strings.HasSuffix(noun, "s") {
		return noun + "s"
	}
	return noun
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func splitWords(key string) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}
	for _, r := range key {
		switch {
		case r >= 'A' && r <= 'Z':
			flush()
			cur.WriteRune(r)
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			cur.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return words
}

func hasWord(words []string, targets ...string) bool {
	for _, w := range words {
		for _, t := range targets {
			if w == t {
				return true
			}
		}
	}
	return false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
