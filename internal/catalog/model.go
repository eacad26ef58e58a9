// Package catalog holds the verified product catalog: an injected, reloadable
// store of product records loaded from flat JSON files.
package catalog

// SafetyLevel classifies an ingredient for the green/yellow/red indicators on
// the product page.
type SafetyLevel string

const (
	SafetySafe    SafetyLevel = "safe"
	SafetyCaution SafetyLevel = "caution"
	SafetyWarning SafetyLevel = "warning"
)

// Ingredient is one entry in a product's ingredient list.
type Ingredient struct {
	Name   string      `json:"name"`
	Amount string      `json:"amount,omitempty"`
	Safety SafetyLevel `json:"safety,omitempty"`
}

// Product is a verified catalog record. Key is the stable identifier used in
// URLs and lookups; it never changes once assigned.
type Product struct {
	Key         string       `json:"key"`
	Name        string       `json:"name"`
	ShortName   string       `json:"short_name,omitempty"`
	Ingredients []Ingredient `json:"ingredients,omitempty"`
	Composition string       `json:"composition,omitempty"`
	Preparation string       `json:"preparation,omitempty"`
	SideEffects []string     `json:"side_effects,omitempty"`
	SafetyFlags []string     `json:"safety_flags,omitempty"`
}

// Summary is the search-result projection of a Product.
type Summary struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	ShortName string `json:"short_name,omitempty"`
}

// Summary returns the autocomplete projection of p.
func (p Product) Summary() Summary {
	return Summary{Key: p.Key, Name: p.Name, ShortName: p.ShortName}
}
