package cache

import (
	"context"
	"testing"
	"time"

	"github.com/veriscan/veriscan/internal/catalog"
	"github.com/veriscan/veriscan/pkg/config"
	pkgredis "github.com/veriscan/veriscan/pkg/redis"
)

// newTestCache skips the test when Redis is unavailable.
func newTestCache(t *testing.T) *QueryCache {
	t.Helper()
	cfg := config.RedisConfig{
		Addr:     "localhost:6379",
		DB:       9,
		PoolSize: 2,
		CacheTTL: time.Minute,
	}
	client, err := pkgredis.NewClient(cfg)
	if err != nil {
		t.Skipf("skipping cache test: redis unavailable: %v", err)
	}
	t.Cleanup(func() {
		client.FlushByPattern(context.Background(), keyPrefix+"*")
		client.Close()
	})
	return New(client, cfg)
}

func TestGetOrComputeCachesResults(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	computed := 0
	compute := func() []catalog.Summary {
		computed++
		return []catalog.Summary{{Key: "ors-1", Name: "ORS"}}
	}

	results, hit := c.GetOrCompute(ctx, "ors", 10, compute)
	if hit {
		t.Error("first call must be a miss")
	}
	if len(results) != 1 || results[0].Key != "ors-1" {
		t.Fatalf("unexpected results: %v", results)
	}

	results, hit = c.GetOrCompute(ctx, "ors", 10, compute)
	if !hit {
		t.Error("second call must be a hit")
	}
	if len(results) != 1 {
		t.Fatalf("cached results lost: %v", results)
	}
	if computed != 1 {
		t.Errorf("compute ran %d times, want 1", computed)
	}
}

func TestCacheKeyNormalizesWhitespaceAndCase(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	c.GetOrCompute(ctx, "ORS", 10, func() []catalog.Summary {
		return []catalog.Summary{{Key: "ors-1"}}
	})

	// Same query modulo case and surrounding whitespace hits the same key.
	_, hit := c.GetOrCompute(ctx, "  ors ", 10, func() []catalog.Summary {
		t.Error("compute must not run for a normalized duplicate")
		return nil
	})
	if !hit {
		t.Error("normalized duplicate should hit the cache")
	}
}

func TestInvalidateClearsEntries(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	c.GetOrCompute(ctx, "zinc", 10, func() []catalog.Summary {
		return []catalog.Summary{{Key: "zinc-20"}}
	})
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok := c.Get(ctx, "zinc", 10); ok {
		t.Error("entry survived invalidation")
	}
}
