package web

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/veriscan/veriscan/internal/catalog"
	"github.com/veriscan/veriscan/internal/events"
	"github.com/veriscan/veriscan/internal/feedback"
	"github.com/veriscan/veriscan/internal/qr"
	apperrors "github.com/veriscan/veriscan/pkg/errors"
	"github.com/veriscan/veriscan/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type indexPage struct {
	Products []catalog.Summary
	Error    string
}

type generatePage struct {
	ProductKey string
	ProductURL string
	QRPath     string
	Product    *catalog.Product
}

type productPage struct {
	ProductKey string
	Product    *catalog.Product
	Feedback   []feedback.Entry
	Thanks     bool
}

// Index renders the producer form: product search box, selection list, and
// free-name entry for products not yet in the catalog.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	page := indexPage{
		Products: h.index.Query("", h.cfg.DefaultLimit),
		Error:    r.URL.Query().Get("error"),
	}
	h.renderHTML(w, http.StatusOK, "index.html", page)
}

// Generate handles the producer form POST: resolves or derives the product
// key, writes the QR image, and renders the result page. Unknown keys still
// get a QR so producers can print codes ahead of onboarding.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/?error="+template.URLQueryEscaper("invalid form submission"), http.StatusSeeOther)
		return
	}

	// Both inputs are normalized: selection values come back through the
	// browser, so they are as untrusted as the free-form name.
	productKey := qr.NormalizeKey(r.PostFormValue("product_select"))
	if productKey == "" {
		productKey = qr.NormalizeKey(r.PostFormValue("product_name"))
		if productKey == "" {
			http.Redirect(w, r, "/?error="+template.URLQueryEscaper("please provide a product name or select one"), http.StatusSeeOther)
			return
		}
	}

	productURL := strings.TrimRight(h.cfg.BaseURL, "/") + "/product/" + productKey
	reused, err := h.qr.Generate(productKey, productURL)
	if err != nil {
		if h.metrics != nil {
			h.metrics.QRGeneratedTotal.WithLabelValues("error").Inc()
		}
		log.Error("qr generation failed", "product_key", productKey, "error", err)
		h.renderHTML(w, http.StatusInternalServerError, "index.html", indexPage{
			Products: h.index.Query("", h.cfg.DefaultLimit),
			Error:    "could not generate QR code, please try again",
		})
		return
	}
	if h.metrics != nil {
		outcome := "created"
		if reused {
			outcome = "reused"
		}
		h.metrics.QRGeneratedTotal.WithLabelValues(outcome).Inc()
	}
	h.collector.Track(events.QREvent{
		Type:       events.EventQR,
		ProductKey: productKey,
		Reused:     reused,
		Timestamp:  time.Now().UTC(),
		RequestID:  logger.RequestID(ctx),
	})

	page := generatePage{
		ProductKey: productKey,
		ProductURL: productURL,
		QRPath:     "/static/" + h.qr.Path(productKey),
	}
	if product, err := h.catalog.Get(productKey); err == nil {
		page.Product = &product
	}
	log.Info("qr page rendered", "product_key", productKey, "known", page.Product != nil)
	h.renderHTML(w, http.StatusOK, "generate.html", page)
}

// Product renders the consumer-facing page for GET /product/{key}. An
// unknown key gets a distinct unverified-product page with a 404 status —
// never stale or default data.
func (h *Handler) Product(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)
	key := r.PathValue("key")

	page := productPage{
		ProductKey: key,
		Thanks:     r.URL.Query().Get("thanks") != "",
	}
	status := http.StatusOK

	product, err := h.catalog.Get(key)
	switch {
	case err == nil:
		page.Product = &product
		entries, ferr := h.store.ListByProduct(ctx, key)
		if ferr != nil {
			log.Error("listing feedback failed", "product_key", key, "error", ferr)
		} else {
			page.Feedback = entries
		}
	case errors.Is(err, apperrors.ErrProductNotFound):
		status = http.StatusNotFound
	default:
		log.Error("catalog lookup failed", "product_key", key, "error", err)
		h.renderHTML(w, http.StatusInternalServerError, "product.html", page)
		return
	}

	h.collector.Track(events.ScanEvent{
		Type:       events.EventScan,
		ProductKey: key,
		Known:      page.Product != nil,
		Timestamp:  time.Now().UTC(),
		RequestID:  logger.RequestID(ctx),
	})

	h.renderHTML(w, status, "product.html", page)
}

func (h *Handler) renderHTML(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("template render failed", "template", name, "error", err)
	}
}
