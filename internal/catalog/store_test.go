package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/veriscan/veriscan/pkg/errors"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func TestStoreLoadAndGet(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "products.json", `{
		"ors-1": {"name": "Oral Rehydration Solution", "short_name": "ORS"},
		"zinc-20": {"name": "Zinc Sulphate 20mg"}
	}`)

	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 products, got %d", s.Len())
	}

	p, err := s.Get("ors-1")
	if err != nil {
		t.Fatalf("Get(ors-1): %v", err)
	}
	if p.Key != "ors-1" {
		t.Errorf("expected key ors-1, got %q", p.Key)
	}
	if p.Name != "Oral Rehydration Solution" {
		t.Errorf("unexpected name %q", p.Name)
	}
}

func TestStoreGetAbsentKeyIsNotFound(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "products.json", `{"ors-1": {"name": "ORS"}}`)

	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	_, err = s.Get("missing")
	if !errors.Is(err, apperrors.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestStoreMergesFilesLaterOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "products.json", `{
		"ors-1": {"name": "Old Name"},
		"zinc-20": {"name": "Zinc"}
	}`)
	writeFile(t, dir, "products_extra.json", `{
		"ors-1": {"name": "New Name"},
		"pcm-syrup": {"name": "Paracetamol Syrup"}
	}`)

	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("expected 3 products after merge, got %d", s.Len())
	}

	p, err := s.Get("ors-1")
	if err != nil {
		t.Fatalf("Get(ors-1): %v", err)
	}
	if p.Name != "New Name" {
		t.Errorf("later file should override: got %q", p.Name)
	}

	// Overridden key keeps its original catalog position.
	list := s.List()
	if list[0].Key != "ors-1" || list[1].Key != "zinc-20" || list[2].Key != "pcm-syrup" {
		t.Errorf("unexpected catalog order: %v, %v, %v", list[0].Key, list[1].Key, list[2].Key)
	}
}

func TestStoreSkipsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "products.json", `{"ors-1": {"name": "ORS"}}`)
	writeFile(t, dir, "products_broken.json", `{not json at all`)

	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("broken file must not fail the load: %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 product, got %d", s.Len())
	}
}

func TestStorePreservesFileOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "products.json", `{
		"charlie": {"name": "C"},
		"alpha": {"name": "A"},
		"bravo": {"name": "B"}
	}`)

	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	list := s.List()
	want := []string{"charlie", "alpha", "bravo"}
	for i, key := range want {
		if list[i].Key != key {
			t.Errorf("position %d: expected %q, got %q", i, key, list[i].Key)
		}
	}
}

func TestStoreReloadPicksUpChanges(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "products.json", `{"ors-1": {"name": "ORS"}}`)

	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	writeFile(t, dir, "products.json", `{
		"ors-1": {"name": "ORS"},
		"zinc-20": {"name": "Zinc"}
	}`)

	if err := s.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 products after reload, got %d", s.Len())
	}
}

func TestStoreMapKeyIsAuthoritative(t *testing.T) {
	dir := t.TempDir()
	// The embedded "key" field is ignored in favour of the map key.
	writeFile(t, dir, "products.json", `{"ors-1": {"key": "something-else", "name": "ORS"}}`)

	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	p, err := s.Get("ors-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Key != "ors-1" {
		t.Errorf("expected map key to win, got %q", p.Key)
	}
}
