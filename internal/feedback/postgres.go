package feedback

import (
	"context"
	"fmt"

	apperrors "github.com/veriscan/veriscan/pkg/errors"
	"github.com/veriscan/veriscan/pkg/postgres"
)

// PostgresStore is the alternative Store backend for deployments that have
// outgrown the flat file. Rows are insert-only; nothing in the service
// updates or deletes them.
type PostgresStore struct {
	client *postgres.Client
}

const createFeedbackTable = `
CREATE TABLE IF NOT EXISTS feedback_entries (
    id           UUID PRIMARY KEY,
    product_key  TEXT NOT NULL,
    author       TEXT NOT NULL,
    content      TEXT NOT NULL,
    submitted_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS feedback_entries_product_key_idx
    ON feedback_entries (product_key, submitted_at);
`

// NewPostgresStore ensures the feedback table exists and returns the store.
func NewPostgresStore(client *postgres.Client) (*PostgresStore, error) {
	if _, err := client.DB.Exec(createFeedbackTable); err != nil {
		return nil, fmt.Errorf("creating feedback table: %w", err)
	}
	return &PostgresStore{client: client}, nil
}

// Append inserts one entry in its own transaction.
func (s *PostgresStore) Append(ctx context.Context, e Entry) error {
	const q = `
        INSERT INTO feedback_entries (id, product_key, author, content, submitted_at)
        VALUES ($1, $2, $3, $4, $5)`
	if _, err := s.client.DB.ExecContext(ctx, q, e.ID, e.ProductKey, e.Author, e.Content, e.SubmittedAt); err != nil {
		return fmt.Errorf("%w: inserting feedback entry: %v", apperrors.ErrStorage, err)
	}
	return nil
}

// ListByProduct returns entries for the given key in submission order.
func (s *PostgresStore) ListByProduct(ctx context.Context, productKey string) ([]Entry, error) {
	const q = `
        SELECT id, product_key, author, content, submitted_at
        FROM feedback_entries
        WHERE product_key = $1
        ORDER BY submitted_at, id`
	rows, err := s.client.DB.QueryContext(ctx, q, productKey)
	if err != nil {
		return nil, fmt.Errorf("%w: querying feedback entries: %v", apperrors.ErrStorage, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ProductKey, &e.Author, &e.Content, &e.SubmittedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning feedback entry: %v", apperrors.ErrStorage, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading feedback entries: %v", apperrors.ErrStorage, err)
	}
	return entries, nil
}

// Count returns the total number of stored entries.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.client.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM feedback_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: counting feedback entries: %v", apperrors.ErrStorage, err)
	}
	return n, nil
}

// Close is a no-op; the postgres client is owned by main.
func (s *PostgresStore) Close() error {
	return nil
}
