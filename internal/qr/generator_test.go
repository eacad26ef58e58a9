package qr

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/veriscan/veriscan/pkg/errors"
)

func TestGenerateWritesPNG(t *testing.T) {
	dir := t.TempDir()
	g, err := NewGenerator(dir, 128)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	reused, err := g.Generate("ors-1", "http://localhost:8080/product/ors-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if reused {
		t.Error("first generation must not report reuse")
	}

	data, err := os.ReadFile(filepath.Join(dir, "ors-1.png"))
	if err != nil {
		t.Fatalf("reading generated image: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("generated file is not a PNG")
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	g, err := NewGenerator(dir, 128)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	if _, err := g.Generate("ors-1", "http://localhost:8080/product/ors-1"); err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	first, err := os.Stat(filepath.Join(dir, "ors-1.png"))
	if err != nil {
		t.Fatal(err)
	}

	reused, err := g.Generate("ors-1", "http://localhost:8080/product/ors-1")
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	if !reused {
		t.Error("second generation must report reuse")
	}
	second, err := os.Stat(filepath.Join(dir, "ors-1.png"))
	if err != nil {
		t.Fatal(err)
	}
	if !first.ModTime().Equal(second.ModTime()) || first.Size() != second.Size() {
		t.Error("regeneration must reuse the existing file")
	}
}

func TestGenerateRejectsUnsafeKey(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "static", "qrcodes")
	g, err := NewGenerator(dir, 128)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	for _, key := range []string{"../../escaped", "a/b", "..", ".hidden", "UPPER", "dot.dot", "", "-lead"} {
		if _, err := g.Generate(key, "http://localhost:8080/product/x"); !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Errorf("Generate(%q): expected invalid input error, got %v", key, err)
		}
	}

	if _, err := os.Stat(filepath.Join(root, "escaped.png")); !errors.Is(err, os.ErrNotExist) {
		t.Error("image written outside the output directory")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("rejected keys must write nothing, found %d files", len(entries))
	}
}

func TestGenerateLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	g, err := NewGenerator(dir, 128)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	if _, err := g.Generate("zinc-20", "http://localhost:8080/product/zinc-20"); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestNormalizeKey(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Oral Rehydration Solution", "oral-rehydration-solution"},
		{"  Zinc   Sulphate 20mg ", "zinc-sulphate-20mg"},
		{"ors", "ors"},
		{"", ""},
		{"   ", ""},
		{"../../escaped", "escaped"},
		{"Chai Masala 10%", "chai-masala-10"},
		{"weird//name", "weird-name"},
		{"..", ""},
	}
	for _, c := range cases {
		got := NormalizeKey(c.in)
		if got != c.want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", c.in, got, c.want)
		}
		if got != "" && !ValidKey(got) {
			t.Errorf("NormalizeKey(%q) = %q fails ValidKey", c.in, got)
		}
	}
}
