package graph

import (
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

func TestNormalizeNameInvariance(t *testing.T) {
	inputs := []string{"  Ortho Kit ", "ortho kit", "ORTHO KIT", "Ortho Kit", "\tortho KIT\n"}
	want := "ortho kit"
	for _, in := range inputs {
		if got := NormalizeName(in); got != want {
			t.Fatalf("NormalizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeNameEmpty(t *testing.T) {
	if got := NormalizeName("   "); got != "" {
		t.Fatalf("expected empty key, got %q", got)
	}
}

func TestFlattenRecord(t *testing.T) {
	day := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	in := map[string]any{
		"p": dbtype.Node{Props: map[string]any{"name": "Ortho Kit", "price": 1500.0}},
		"d": dbtype.Date(day),
		"n": int64(3),
		"l": []any{dbtype.Node{Props: map[string]any{"name": "Acme"}}},
	}

	out := FlattenRecord(in)

	p, ok := out["p"].(map[string]any)
	if !ok {
		t.Fatalf("node not flattened: %#v", out["p"])
	}
	if p["name"] != "Ortho Kit" {
		t.Fatalf("unexpected node props: %#v", p)
	}
	if d, ok := out["d"].(time.Time); !ok || !d.Equal(day) {
		t.Fatalf("date not flattened: %#v", out["d"])
	}
	if out["n"] != int64(3) {
		t.Fatalf("plain value changed: %#v", out["n"])
	}
	l, ok := out["l"].([]any)
	if !ok || len(l) != 1 {
		t.Fatalf("list not flattened: %#v", out["l"])
	}
	if inner, ok := l[0].(map[string]any); !ok || inner["name"] != "Acme" {
		t.Fatalf("nested node not flattened: %#v", l[0])
	}
}

func TestAnalyticsQueryMapping(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"total_sales", QueryTotalSales, true},
		{" Revenue ", QueryTotalSales, true},
		{"top_products", QueryProductPerformance, true},
		{"vendor_summary", QueryVendorSummary, true},
		{"unknown", "", false},
	}
	for _, tc := range cases {
		got, ok := AnalyticsQuery(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("AnalyticsQuery(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
