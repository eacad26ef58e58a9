// Package feedback collects consumer feedback as an append-only log. Entries
// are never mutated or deleted by the running system; the configured store
// driver exclusively owns the persisted log.
package feedback

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry is a single consumer-submitted comment tied to a product key. The
// key is not required to resolve to a catalog product: entries referencing
// unknown keys are recorded as-is so feedback on not-yet-onboarded products
// is kept.
type Entry struct {
	ID          string    `json:"id"`
	ProductKey  string    `json:"product_key"`
	Author      string    `json:"author"`
	Content     string    `json:"content"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Store is an append-only feedback log. Append must be all-or-nothing per
// entry and must keep prior entries intact under concurrent calls.
type Store interface {
	Append(ctx context.Context, e Entry) error
	ListByProduct(ctx context.Context, productKey string) ([]Entry, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// NewEntry builds a validated Entry from raw form input. The author defaults
// to "anonymous" when blank.
func NewEntry(productKey, author, content string) Entry {
	author = strings.TrimSpace(author)
	if author == "" {
		author = "anonymous"
	}
	return Entry{
		ID:          uuid.NewString(),
		ProductKey:  strings.TrimSpace(productKey),
		Author:      author,
		Content:     strings.TrimSpace(content),
		SubmittedAt: time.Now().UTC(),
	}
}

const maxAuthorLength = 256

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	var parts []string
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s:%s", field, msg))
	}
	return strings.Join(parts, "; ")
}

// Validate checks that the entry names a product key and carries non-empty,
// bounded content. maxContentLength <= 0 disables the length bound.
func Validate(e Entry, maxContentLength int) error {
	errs := make(map[string]string)

	if e.ProductKey == "" {
		errs["product_key"] = "product key is required"
	}
	if e.Content == "" {
		errs["content"] = "feedback content must not be empty"
	} else if maxContentLength > 0 && len(e.Content) > maxContentLength {
		errs["content"] = fmt.Sprintf("feedback content must be at most %d bytes", maxContentLength)
	}
	if len(e.Author) > maxAuthorLength {
		errs["author"] = fmt.Sprintf("author must be at most %d characters", maxAuthorLength)
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
