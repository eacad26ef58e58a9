// Package events publishes usage events (searches, product page scans,
// feedback submissions) to Kafka for downstream analysis. The collector is
// optional: a nil *Collector disables tracking entirely.
package events

import "time"

type EventType string

const (
	EventSearch   EventType = "search"
	EventScan     EventType = "product_scan"
	EventFeedback EventType = "feedback"
	EventQR       EventType = "qr_generated"
)

// SearchEvent records one autocomplete query.
type SearchEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query"`
	Returned  int       `json:"returned"`
	CacheHit  bool      `json:"cache_hit"`
	LatencyMs int64     `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// ScanEvent records a consumer viewing a product page.
type ScanEvent struct {
	Type       EventType `json:"type"`
	ProductKey string    `json:"product_key"`
	Known      bool      `json:"known"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id"`
}

// FeedbackEvent records an accepted feedback submission.
type FeedbackEvent struct {
	Type       EventType `json:"type"`
	ProductKey string    `json:"product_key"`
	EntryID    string    `json:"entry_id"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id"`
}

// QREvent records a QR image generation.
type QREvent struct {
	Type       EventType `json:"type"`
	ProductKey string    `json:"product_key"`
	Reused     bool      `json:"reused"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id"`
}
