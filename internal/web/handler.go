// Package web holds the HTTP surface: the JSON API (search, feedback,
// health, admin) and the producer/consumer HTML pages.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/veriscan/veriscan/internal/catalog"
	"github.com/veriscan/veriscan/internal/events"
	"github.com/veriscan/veriscan/internal/feedback"
	"github.com/veriscan/veriscan/internal/qr"
	"github.com/veriscan/veriscan/internal/search"
	"github.com/veriscan/veriscan/internal/search/cache"
	apperrors "github.com/veriscan/veriscan/pkg/errors"
	"github.com/veriscan/veriscan/pkg/logger"
	"github.com/veriscan/veriscan/pkg/metrics"
)

// Config carries the handler's tunables from the application config.
type Config struct {
	BaseURL          string
	DefaultLimit     int
	MaxResults       int
	MaxContentLength int
}

// Handler serves every route. The cache and collector may be nil, in which
// case search runs uncached and usage tracking is disabled.
type Handler struct {
	cfg       Config
	catalog   *catalog.Store
	index     *search.Index
	cache     *cache.QueryCache
	store     feedback.Store
	qr        *qr.Generator
	collector *events.Collector
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New wires a Handler from its dependencies.
func New(
	cfg Config,
	cat *catalog.Store,
	index *search.Index,
	queryCache *cache.QueryCache,
	store feedback.Store,
	gen *qr.Generator,
	collector *events.Collector,
	m *metrics.Metrics,
) *Handler {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 50
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 50
	}
	return &Handler{
		cfg:       cfg,
		catalog:   cat,
		index:     index,
		cache:     queryCache,
		store:     store,
		qr:        gen,
		collector: collector,
		metrics:   m,
		logger:    slog.Default().With("component", "web-handler"),
	}
}

// Search answers GET /search?q= with a JSON array of product summaries.
// An empty query returns a bounded default listing for browsing.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := strings.TrimSpace(r.URL.Query().Get("q"))

	limit := h.cfg.DefaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed > h.cfg.MaxResults {
			parsed = h.cfg.MaxResults
		}
		limit = parsed
	}

	var results []catalog.Summary
	cacheHit := false
	if h.cache != nil {
		results, cacheHit = h.cache.GetOrCompute(ctx, query, limit, func() []catalog.Summary {
			return h.index.Query(query, limit)
		})
	} else {
		results = h.index.Query(query, limit)
	}

	latency := time.Since(start)
	if h.metrics != nil {
		cacheStatus := "miss"
		if cacheHit {
			cacheStatus = "hit"
			h.metrics.CacheHitsTotal.Inc()
		} else if h.cache != nil {
			h.metrics.CacheMissesTotal.Inc()
		}
		h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(latency.Seconds())
		h.metrics.SearchQueriesTotal.WithLabelValues(searchResultType(query, len(results))).Inc()
	}

	log.Debug("search completed",
		"query", query,
		"returned", len(results),
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	h.collector.Track(events.SearchEvent{
		Type:      events.EventSearch,
		Query:     query,
		Returned:  len(results),
		CacheHit:  cacheHit,
		LatencyMs: latency.Milliseconds(),
		Timestamp: time.Now().UTC(),
		RequestID: logger.RequestID(ctx),
	})

	h.writeJSON(w, http.StatusOK, results)
}

func searchResultType(query string, returned int) string {
	switch {
	case query == "":
		return "browse"
	case returned == 0:
		return "zero_result"
	default:
		return "hit"
	}
}

// SubmitFeedback accepts POST /feedback as an HTML form or JSON body. Form
// submissions are redirected back to the product page; JSON callers get the
// stored entry back. Entries naming unknown product keys are accepted.
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var entry feedback.Entry
	isForm := true
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		isForm = false
		var body struct {
			ProductKey string `json:"product_key"`
			Author     string `json:"author"`
			Content    string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		entry = feedback.NewEntry(body.ProductKey, body.Author, body.Content)
	} else {
		if err := r.ParseForm(); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid form body")
			return
		}
		entry = feedback.NewEntry(
			r.PostFormValue("product_key"),
			r.PostFormValue("name"),
			r.PostFormValue("comment"),
		)
	}

	if err := feedback.Validate(entry, h.cfg.MaxContentLength); err != nil {
		if h.metrics != nil {
			h.metrics.FeedbackTotal.WithLabelValues("rejected").Inc()
		}
		var validationErr *feedback.ValidationError
		if errors.As(err, &validationErr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"fields": validationErr.Fields,
			})
			return
		}
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Append(ctx, entry); err != nil {
		if h.metrics != nil {
			h.metrics.FeedbackTotal.WithLabelValues("failed").Inc()
		}
		log.Error("feedback append failed", "product_key", entry.ProductKey, "error", err)
		h.writeError(w, apperrors.HTTPStatusCode(err), "could not record feedback")
		return
	}

	if h.metrics != nil {
		h.metrics.FeedbackTotal.WithLabelValues("accepted").Inc()
	}
	log.Info("feedback recorded", "entry_id", entry.ID, "product_key", entry.ProductKey)
	h.collector.Track(events.FeedbackEvent{
		Type:       events.EventFeedback,
		ProductKey: entry.ProductKey,
		EntryID:    entry.ID,
		Timestamp:  time.Now().UTC(),
		RequestID:  logger.RequestID(ctx),
	})

	if isForm {
		http.Redirect(w, r, "/product/"+url.PathEscape(entry.ProductKey)+"?thanks=1", http.StatusSeeOther)
		return
	}
	h.writeJSON(w, http.StatusCreated, entry)
}

// Healthz is the flat health endpoint used by deployment checks.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReloadCatalog re-reads the catalog files and invalidates the search cache.
func (h *Handler) ReloadCatalog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	if err := h.catalog.Reload(); err != nil {
		if h.metrics != nil {
			h.metrics.CatalogReloadsTotal.WithLabelValues("error").Inc()
		}
		log.Error("catalog reload failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "catalog reload failed")
		return
	}
	if h.metrics != nil {
		h.metrics.CatalogReloadsTotal.WithLabelValues("ok").Inc()
		h.metrics.CatalogProducts.Set(float64(h.catalog.Len()))
	}
	if h.cache != nil {
		if err := h.cache.Invalidate(ctx); err != nil {
			log.Error("search cache invalidation failed", "error", err)
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "reloaded",
		"products": h.catalog.Len(),
	})
}

// CacheStats reports search cache hit/miss counters.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": strconv.FormatFloat(hitRate, 'f', 1, 64) + "%",
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
