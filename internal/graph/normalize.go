package graph

import "strings"

// NormalizeName derives the stable match key for a named entity: lowercase
// with surrounding whitespace removed. Every MERGE and MATCH on Product,
// Vendor and Customer goes through normalized_name; the name property keeps
// the original casing for display.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
