package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	apperrors "github.com/veriscan/veriscan/pkg/errors"
)

// Store is the in-memory catalog, loaded from every products*.json file in
// the data directory. Records are read-mostly; Reload swaps the whole
// snapshot under a write lock. Extending the catalog is an out-of-band
// administrative action followed by a reload.
type Store struct {
	dataDir string
	logger  *slog.Logger

	mu       sync.RWMutex
	products []Product
	byKey    map[string]int
}

// NewStore creates a Store and performs the initial load.
func NewStore(dataDir string) (*Store, error) {
	s := &Store{
		dataDir: dataDir,
		logger:  slog.Default().With("component", "catalog"),
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads all products*.json files and atomically replaces the
// in-memory snapshot. Files are merged in lexical name order; later files
// override earlier ones on key collisions, keeping the original position so
// catalog order stays stable. A file that fails to parse is skipped with a
// warning rather than failing the whole load.
func (s *Store) Reload() error {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return fmt.Errorf("reading catalog directory %s: %w", s.dataDir, err)
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, "products") && strings.HasSuffix(name, ".json") {
			files = append(files, name)
		}
	}
	sort.Strings(files)

	var products []Product
	byKey := make(map[string]int)
	for _, name := range files {
		path := filepath.Join(s.dataDir, name)
		loaded, err := loadProductFile(path)
		if err != nil {
			s.logger.Warn("skipping unreadable product file", "path", path, "error", err)
			continue
		}
		for _, p := range loaded {
			if i, ok := byKey[p.Key]; ok {
				products[i] = p
				continue
			}
			byKey[p.Key] = len(products)
			products = append(products, p)
		}
	}

	s.mu.Lock()
	s.products = products
	s.byKey = byKey
	s.mu.Unlock()

	s.logger.Info("catalog loaded", "files", len(files), "products", len(products))
	return nil
}

// loadProductFile parses a single key→record JSON object, preserving the
// order keys appear in the file.
func loadProductFile(path string) ([]Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%s: expected top-level JSON object", path)
	}

	var products []Product
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("%s: unexpected token %v", path, keyTok)
		}
		var p Product
		if err := dec.Decode(&p); err != nil {
			return nil, fmt.Errorf("%s: decoding product %q: %w", path, key, err)
		}
		// The map key is authoritative for lookups and URLs.
		p.Key = key
		products = append(products, p)
	}
	return products, nil
}

// Get resolves a product key to its full record. An absent key returns
// ErrProductNotFound, never a fallback record.
func (s *Store) Get(key string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byKey[key]
	if !ok {
		return Product{}, fmt.Errorf("catalog key %q: %w", key, apperrors.ErrProductNotFound)
	}
	return s.products[i], nil
}

// List returns all products in catalog order.
func (s *Store) List() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out
}

// Len returns the number of loaded products.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}
