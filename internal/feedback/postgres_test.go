package feedback

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/veriscan/veriscan/pkg/config"
	"github.com/veriscan/veriscan/pkg/postgres"
)

// skipIfNoPostgres skips the test when PostgreSQL is unavailable.
func skipIfNoPostgres(t *testing.T) *PostgresStore {
	t.Helper()
	cfg := config.PostgresConfig{
		Host:            envOrDefault("TEST_POSTGRES_HOST", "localhost"),
		Port:            envOrDefaultInt("TEST_POSTGRES_PORT", 5432),
		Database:        envOrDefault("TEST_POSTGRES_DB", "veriscan_test"),
		User:            envOrDefault("TEST_POSTGRES_USER", "veriscan"),
		Password:        envOrDefault("TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}
	client, err := postgres.New(cfg)
	if err != nil {
		t.Skipf("skipping postgres test: postgres unavailable: %v", err)
	}
	t.Cleanup(func() {
		client.DB.Exec("DELETE FROM feedback_entries")
		client.Close()
	})
	store, err := NewPostgresStore(client)
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	return store
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func TestPostgresAppendAndList(t *testing.T) {
	store := skipIfNoPostgres(t)
	ctx := context.Background()

	first := NewEntry("ors-1", "alex", "first comment")
	second := NewEntry("ors-1", "sam", "second comment")
	if err := store.Append(ctx, first); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := store.Append(ctx, second); err != nil {
		t.Fatalf("Append: %v", err)
	}

	entries, err := store.ListByProduct(ctx, "ors-1")
	if err != nil {
		t.Fatalf("ListByProduct: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Content != "first comment" || entries[1].Content != "second comment" {
		t.Errorf("submission order lost: %+v", entries)
	}
}

func TestPostgresCount(t *testing.T) {
	store := skipIfNoPostgres(t)
	ctx := context.Background()

	if err := store.Append(ctx, NewEntry("zinc-20", "a", "x")); err != nil {
		t.Fatal(err)
	}
	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 entry, got %d", n)
	}
}
