package web

import (
	"net/http"
	"time"

	"github.com/veriscan/veriscan/pkg/health"
	"github.com/veriscan/veriscan/pkg/metrics"
	"github.com/veriscan/veriscan/pkg/middleware"
)

// NewRouter builds the full HTTP handler with all routes and middleware.
//
// Route table:
//
//	GET  /                        → producer QR form
//	POST /generate                → generate QR, render result page
//	GET  /product/{key}           → consumer product page
//	POST /feedback                → record consumer feedback
//	GET  /search                  → autocomplete JSON
//	GET  /static/                 → QR images and other assets
//	GET  /healthz                 → flat health check
//	GET  /health/live             → liveness probe
//	GET  /health/ready            → readiness probe
//	POST /api/v1/catalog/reload   → reload catalog files
//	GET  /api/v1/cache/stats      → search cache counters
//
// Middleware chain (outermost first): RequestID → Timeout → Metrics.
// Metrics wraps the mux directly: the mux records the matched route pattern
// on the request it dispatches, and Timeout hands a fresh request copy to
// whatever it wraps, so any metrics layer outside Timeout would only ever
// see an empty pattern.
func NewRouter(h *Handler, checker *health.Checker, m *metrics.Metrics, staticDir string, timeout time.Duration) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("POST /generate", h.Generate)
	mux.HandleFunc("GET /product/{key}", h.Product)
	mux.HandleFunc("POST /feedback", h.SubmitFeedback)
	mux.HandleFunc("GET /search", h.Search)

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))

	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	mux.HandleFunc("POST /api/v1/catalog/reload", h.ReloadCatalog)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)

	var chain http.Handler = mux
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.Timeout(timeout)(chain)
	chain = middleware.RequestID(chain)
	return chain
}
