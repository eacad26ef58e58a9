// Package search implements the autocomplete lookup over the product
// catalog: a case-insensitive substring scan that is a pure function of the
// catalog snapshot and the query.
package search

import (
	"strings"

	"github.com/veriscan/veriscan/internal/catalog"
)

// Catalog is the slice of the catalog store the index needs. Shaped as an
// interface so a larger catalog could swap in a real index without touching
// callers.
type Catalog interface {
	List() []catalog.Product
}

// Index answers autocomplete queries against the catalog.
type Index struct {
	catalog Catalog
}

// NewIndex creates an Index over the given catalog.
func NewIndex(c Catalog) *Index {
	return &Index{catalog: c}
}

// Query returns up to limit product summaries matching q, in catalog order.
// Matching is a case-insensitive substring test against the key, name, short
// name, and ingredient names. An empty (or all-whitespace) query returns the
// first limit entries so a producer can browse before typing. Query never
// fails; an unmatchable query yields an empty slice.
func (ix *Index) Query(q string, limit int) []catalog.Summary {
	if limit <= 0 {
		return []catalog.Summary{}
	}
	q = strings.ToLower(strings.TrimSpace(q))

	products := ix.catalog.List()
	matches := make([]catalog.Summary, 0, min(limit, len(products)))
	for _, p := range products {
		if q == "" || matchesProduct(p, q) {
			matches = append(matches, p.Summary())
			if len(matches) == limit {
				break
			}
		}
	}
	return matches
}

func matchesProduct(p catalog.Product, q string) bool {
	if strings.Contains(strings.ToLower(p.Key), q) ||
		strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.ShortName), q) {
		return true
	}
	for _, ing := range p.Ingredients {
		if strings.Contains(strings.ToLower(ing.Name), q) {
			return true
		}
	}
	return false
}
