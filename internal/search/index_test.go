package search

import (
	"strings"
	"testing"

	"github.com/veriscan/veriscan/internal/catalog"
)

type staticCatalog []catalog.Product

func (c staticCatalog) List() []catalog.Product { return c }

func testCatalog() staticCatalog {
	return staticCatalog{
		{Key: "ors-1", Name: "Oral Rehydration Solution", ShortName: "ORS"},
		{Key: "zinc-20", Name: "Zinc Sulphate 20mg", ShortName: "Zinc 20"},
		{Key: "pcm-syrup", Name: "Paracetamol Oral Suspension", ShortName: "PCM Syrup",
			Ingredients: []catalog.Ingredient{{Name: "Paracetamol"}, {Name: "Sorbitol"}}},
	}
}

func TestQueryMatchesCaseInsensitiveSubstring(t *testing.T) {
	ix := NewIndex(testCatalog())

	results := ix.Query("ors", 50)
	if len(results) == 0 {
		t.Fatal("expected matches for \"ors\"")
	}
	for _, r := range results {
		haystack := strings.ToLower(r.Key + " " + r.Name + " " + r.ShortName)
		if !strings.Contains(haystack, "ors") {
			t.Errorf("result %q does not contain query", r.Key)
		}
	}
	if results[0].Key != "ors-1" {
		t.Errorf("expected ors-1 first, got %q", results[0].Key)
	}
}

func TestQueryMatchesIngredientNames(t *testing.T) {
	ix := NewIndex(testCatalog())

	results := ix.Query("sorbitol", 50)
	if len(results) != 1 || results[0].Key != "pcm-syrup" {
		t.Fatalf("expected pcm-syrup via ingredient match, got %v", results)
	}
}

func TestQueryNoMatches(t *testing.T) {
	ix := NewIndex(testCatalog())

	results := ix.Query("zzz", 50)
	if len(results) != 0 {
		t.Fatalf("expected no matches, got %d", len(results))
	}
	if results == nil {
		t.Fatal("expected empty slice, not nil")
	}
}

func TestQueryEmptyReturnsBoundedListing(t *testing.T) {
	ix := NewIndex(testCatalog())

	results := ix.Query("", 2)
	if len(results) != 2 {
		t.Fatalf("expected 2 entries for empty query with limit 2, got %d", len(results))
	}
	if results[0].Key != "ors-1" || results[1].Key != "zinc-20" {
		t.Errorf("expected catalog order, got %q, %q", results[0].Key, results[1].Key)
	}

	whitespace := ix.Query("   ", 2)
	if len(whitespace) != 2 {
		t.Errorf("whitespace query should behave like empty, got %d results", len(whitespace))
	}
}

func TestQueryResultsStableAcrossCalls(t *testing.T) {
	ix := NewIndex(testCatalog())

	first := ix.Query("o", 50)
	second := ix.Query("o", 50)
	if len(first) != len(second) {
		t.Fatalf("result count changed between calls: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("position %d differs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestQueryRespectsLimit(t *testing.T) {
	ix := NewIndex(testCatalog())

	if got := ix.Query("", 1); len(got) != 1 {
		t.Errorf("limit 1: got %d results", len(got))
	}
	if got := ix.Query("", 0); len(got) != 0 {
		t.Errorf("limit 0: got %d results", len(got))
	}
}

func TestQueryUppercaseInput(t *testing.T) {
	ix := NewIndex(testCatalog())

	results := ix.Query("ZINC", 50)
	if len(results) != 1 || results[0].Key != "zinc-20" {
		t.Fatalf("expected zinc-20 for uppercase query, got %v", results)
	}
}
