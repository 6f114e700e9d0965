package decision

import (
	"strconv"
	"strings"
)

// Entities holds the named slots the model extracted from a message. Every
// field is optional; HasAmount distinguishes a real zero amount from an
// absent one.
type Entities struct {
	Product         string
	Vendor          string
	Customer        string
	TransactionType string
	Description     string
	Date            string
	Amount          float64
	HasAmount       bool
	Quantity        int
}

// Decision is one parsed model verdict for a turn: the intent tag plus the
// fields that intent can use. Side-effect intents should carry Query; chat
// intents should carry Response.
type Decision struct {
	Intent   Intent
	Entities Entities
	Query    string
	Response string
}

// Key synonyms the model is known to emit. All free-form key matching lives
// here; nothing downstream does its own lookups.
var (
	intentKeys   = []string{"intent", "action"}
	responseKeys = []string{"response", "message", "reply", "answer", "text"}
	queryKeys    = []string{"query", "cypher", "cypher_query"}
	entityKeys   = []string{"entities", "data"}

	productKeys  = []string{"product", "product_name", "name", "item"}
	vendorKeys   = []string{"vendor", "from", "party", "counterparty"}
	customerKeys = []string{"customer", "to", "client"}
	amountKeys   = []string{"amount", "price", "value", "unit_price"}
	typeKeys     = []string{"transaction_type", "type"}
	descKeys     = []string{"description", "notes"}
	dateKeys     = []string{"date"}
	quantityKeys = []string{"quantity", "qty"}
)

// FromMap adapts a raw parsed payload onto the typed Decision, resolving
// the model's free-form key names at this one boundary.
func FromMap(m map[string]any) Decision {
	d := Decision{
		Intent:   ParseIntent(stringField(m, intentKeys)),
		Query:    stringField(m, queryKeys),
		Response: stringField(m, responseKeys),
	}

	ents := m
	for _, k := range entityKeys {
		if sub, ok := m[k].(map[string]any); ok {
			ents = sub
			break
		}
	}
	d.Entities = entitiesFromMap(ents)

	// Some responses tuck the query or reply inside the entity object.
	if d.Query == "" {
		d.Query = stringField(ents, queryKeys)
	}
	if d.Response == "" {
		d.Response = stringField(ents, responseKeys)
	}
	return d
}

func entitiesFromMap(m map[string]any) Entities {
	e := Entities{
		Product:         stringField(m, productKeys),
		Vendor:          stringField(m, vendorKeys),
		Customer:        stringField(m, customerKeys),
		TransactionType: strings.ToLower(stringField(m, typeKeys)),
		Description:     stringField(m, descKeys),
		Date:            stringField(m, dateKeys),
	}
	for _, k := range amountKeys {
		if f, ok := parseAmount(m[k]); ok {
			e.Amount = f
			e.HasAmount = true
			break
		}
	}
	for _, k := range quantityKeys {
		if n, ok := parseQuantity(m[k]); ok {
			e.Quantity = n
			break
		}
	}
	return e
}

func stringField(m map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// parseAmount accepts both JSON numbers and the string forms the model
// emits ("1500", "₹1,500.50").
func parseAmount(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		s := strings.TrimSpace(n)
		s = strings.TrimPrefix(s, "₹")
		s = strings.ReplaceAll(s, ",", "")
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func parseQuantity(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}
