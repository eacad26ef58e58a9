// Package qr renders the QR image for a product page URL into the static
// assets directory. Filenames are derived from the product key, so
// regeneration is idempotent: the same key always maps to the same file.
package qr

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	apperrors "github.com/veriscan/veriscan/pkg/errors"
)

// keyPattern is the full alphabet of product keys. Keys become filenames
// under the static directory, so anything outside it is rejected.
var keyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// ValidKey reports whether key is safe to use as a product key and filename.
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

// Generator writes product QR codes as PNG files.
type Generator struct {
	outputDir string
	size      int
	logger    *slog.Logger
}

// NewGenerator creates the output directory if needed and returns a Generator.
// size is the PNG edge length in pixels.
func NewGenerator(outputDir string, size int) (*Generator, error) {
	if size <= 0 {
		size = 256
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating qr output directory: %w", err)
	}
	return &Generator{
		outputDir: outputDir,
		size:      size,
		logger:    slog.Default().With("component", "qr-generator"),
	}, nil
}

// Generate encodes url into <productKey>.png under the output directory and
// reports whether an existing file was reused: the encoded URL depends only
// on the key, so the image on disk is already current. The PNG is written to
// a temp file and renamed so a crash mid-write never leaves a partial image
// being served. Keys that fail ValidKey are rejected before any filesystem
// access.
func (g *Generator) Generate(productKey, url string) (bool, error) {
	if !ValidKey(productKey) {
		return false, fmt.Errorf("%w: invalid product key %q", apperrors.ErrInvalidInput, productKey)
	}
	finalPath := filepath.Join(g.outputDir, productKey+".png")
	if filepath.Dir(finalPath) != filepath.Clean(g.outputDir) {
		return false, fmt.Errorf("%w: product key %q escapes the output directory", apperrors.ErrInvalidInput, productKey)
	}

	if _, err := os.Stat(finalPath); err == nil {
		g.logger.Debug("qr image reused", "key", productKey)
		return true, nil
	}

	png, err := qrcode.Encode(url, qrcode.Medium, g.size)
	if err != nil {
		return false, fmt.Errorf("%w: encoding qr for %q: %v", apperrors.ErrInternal, productKey, err)
	}

	tmpPath := finalPath + ".tmp"
	if err := os.WriteFile(tmpPath, png, 0o644); err != nil {
		return false, fmt.Errorf("%w: writing qr image: %v", apperrors.ErrStorage, err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return false, fmt.Errorf("%w: renaming qr image: %v", apperrors.ErrStorage, err)
	}

	g.logger.Info("qr image generated", "key", productKey, "url", url, "size", g.size)
	return false, nil
}

// Path returns the static-relative path of the QR image for a key.
func (g *Generator) Path(productKey string) string {
	return "qrcodes/" + productKey + ".png"
}

// NormalizeKey derives a stable product key from a free-form product name:
// lowercase, with every run of characters outside [a-z0-9] collapsed to a
// single dash. The result always satisfies ValidKey or is empty.
func NormalizeKey(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pendingDash = false
		default:
			pendingDash = true
		}
	}
	return b.String()
}
