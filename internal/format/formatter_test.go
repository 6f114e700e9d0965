package format

import (
	"errors"
	"strings"
	"testing"
	"time"

	"bizgraph/internal/decision"
)

func TestFormatIsDeterministic(t *testing.T) {
	rows := []map[string]any{
		{"zeta": "z", "alpha": "a", "mid": int64(3)},
		{"beta": 2.5, "gamma": "g"},
	}
	first := Format(decision.IntentGraphQuery, rows, "show everything")
	for i := 0; i < 10; i++ {
		if got := Format(decision.IntentGraphQuery, rows, "show everything"); got != first {
			t.Fatalf("output changed between calls:\n%q\n%q", got, first)
		}
	}
}

func TestFormatEmptyProducts(t *testing.T) {
	got := Format(decision.IntentGraphQuery, nil, "show me my products")
	if got != "No products found in database." {
		t.Fatalf("got %q", got)
	}
}

func TestFormatEmptyVariants(t *testing.T) {
	cases := []struct {
		message string
		want    string
	}{
		{"list all transactions", "No transactions found in database."},
		{"which vendors do I buy from", "No vendors found in database."},
		{"show my customers", "No customers found in database."},
		{"what is in the graph", "No data found in database."},
	}
	for _, tc := range cases {
		if got := Format(decision.IntentGraphQuery, []map[string]any{}, tc.message); got != tc.want {
			t.Errorf("message %q: got %q, want %q", tc.message, got, tc.want)
		}
	}
}

func TestFormatEmptyAfterWrite(t *testing.T) {
	got := Format(decision.IntentLogTransaction, nil, "log a sale of wax for 300")
	if got != "Action completed successfully." {
		t.Fatalf("got %q", got)
	}
}

func TestFormatCountPluralization(t *testing.T) {
	got := Format(decision.IntentGraphQuery, []map[string]any{{"totalTransactions": int64(3)}}, "how many transactions")
	if !strings.Contains(got, "3 transactions") {
		t.Fatalf("want output to quote \"3 transactions\", got %q", got)
	}

	got = Format(decision.IntentGraphQuery, []map[string]any{{"totalTransactions": int64(1)}}, "how many transactions")
	if !strings.Contains(got, "1 transaction") || strings.Contains(got, "1 transactions") {
		t.Fatalf("singular count formatted wrong: %q", got)
	}
}

func TestFormatCountWithAmount(t *testing.T) {
	rows := []map[string]any{{"totalTransactions": int64(2), "totalAmount": 4500.0}}
	got := Format(decision.IntentGraphQuery, rows, "sales summary")
	if !strings.Contains(got, "2 transactions") || !strings.Contains(got, "₹4500") {
		t.Fatalf("got %q", got)
	}
}

func TestFormatCatalogBullets(t *testing.T) {
	rows := []map[string]any{
		{"name": "Ortho Kit", "price": int64(1500)},
		{"name": "Wax Block", "price": 250.5},
	}
	got := Format(decision.IntentGraphQuery, rows, "list my products")
	want := "• Ortho Kit — ₹1500\n• Wax Block — ₹250.5"
	if got != want {
		t.Fatalf("got:\n%q\nwant:\n%q", got, want)
	}
}

func TestFormatUnwrapsNodeRows(t *testing.T) {
	rows := []map[string]any{
		{"p": map[string]any{"name": "Ortho Kit", "price": int64(1500), "normalized_name": "ortho kit"}},
	}
	got := Format(decision.IntentGraphQuery, rows, "show products")
	if !strings.Contains(got, "• Ortho Kit — ₹1500") {
		t.Fatalf("node row not unwrapped: %q", got)
	}
}

func TestFormatTransactionBlocks(t *testing.T) {
	rows := []map[string]any{
		{"type": "purchase", "product": "Wax Block", "amount": 250.0, "vendor": "Acme Traders", "date": "2025-06-01T00:00:00Z"},
		{"type": "sale", "product": "Ortho Kit", "amount": int64(1500), "customer": "Dr. Rao", "date": time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC)},
	}
	got := Format(decision.IntentGraphQuery, rows, "show my transactions")

	if !strings.HasPrefix(got, "Found 2 transactions:") {
		t.Fatalf("missing header: %q", got)
	}
	if !strings.Contains(got, "1. purchase — Wax Block — ₹250 — from Acme Traders — 2025-06-01") {
		t.Fatalf("first block wrong: %q", got)
	}
	if !strings.Contains(got, "2. sale — Ortho Kit — ₹1500 — to Dr. Rao — 2025-06-02") {
		t.Fatalf("second block wrong: %q", got)
	}
}

func TestFormatGenericCapsAtFive(t *testing.T) {
	rows := make([]map[string]any, 7)
	for i := range rows {
		rows[i] = map[string]any{"mystery": i} // int, not a known shape
	}
	got := Format(decision.IntentGraphQuery, rows, "dump it all")

	if !strings.HasPrefix(got, "Found 7 records:") {
		t.Fatalf("missing header: %q", got)
	}
	if lines := strings.Split(got, "\n"); len(lines) != 6 {
		t.Fatalf("want header plus 5 summaries, got %d lines: %q", len(lines), got)
	}
	if strings.Contains(got, "6.") {
		t.Fatalf("records beyond 5 must be omitted: %q", got)
	}
}

func TestFormatGenericSortsKeys(t *testing.T) {
	rows := []map[string]any{{"zeta": "z", "alpha": "a"}}
	got := Format(decision.IntentGraphQuery, rows, "everything")
	if !strings.Contains(got, "alpha: a, zeta: z") {
		t.Fatalf("keys not sorted: %q", got)
	}
}

func TestExecutionError(t *testing.T) {
	got := ExecutionError(errors.New("connection refused"))
	if got == "" || !strings.Contains(got, "connection refused") {
		t.Fatalf("got %q", got)
	}
}

func TestProductAdded(t *testing.T) {
	got := ProductAdded("Ortho Kit", 1500)
	if got != "Product 'Ortho Kit' added with price ₹1500." {
		t.Fatalf("got %q", got)
	}
}

func TestTransactionLogged(t *testing.T) {
	e := decision.Entities{
		TransactionType: "purchase",
		Product:         "Wax Block",
		Amount:          250,
		HasAmount:       true,
		Vendor:          "Acme Traders",
	}
	got := TransactionLogged(e)
	if got != "Logged purchase of Wax Block for ₹250 from Acme Traders." {
		t.Fatalf("got %q", got)
	}

	if got := TransactionLogged(decision.Entities{}); got != "Transaction logged successfully." {
		t.Fatalf("empty entities: got %q", got)
	}
}

func TestDailyDigest(t *testing.T) {
	day := time.Date(2025, 6, 1, 21, 0, 0, 0, time.UTC)
	rows := []map[string]any{
		{"type": "purchase", "count": int64(3), "total": 4500.0},
		{"type": "sale", "count": int64(1), "total": 1500.0},
	}
	got := DailyDigest(day, rows)
	want := "Business digest for 2025-06-01:\n• purchase: 3 transactions, ₹4500\n• sale: 1 transaction, ₹1500"
	if got != want {
		t.Fatalf("got:\n%q\nwant:\n%q", got, want)
	}

	empty := DailyDigest(day, nil)
	if empty != "Business digest for 2025-06-01: no transactions recorded." {
		t.Fatalf("empty digest: %q", empty)
	}
}
