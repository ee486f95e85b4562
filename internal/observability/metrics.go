package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Metrics tracks operational counters for the analyzer and the bot.
type Metrics struct {
	// Analysis metrics
	DocumentsAnalyzed atomic.Int64
	AnalyzeFailures   atomic.Int64
	ProductsParsed    atomic.Int64
	EmptyDocuments    atomic.Int64
	BytesParsed       atomic.Int64

	// Bot metrics
	UpdatesReceived  atomic.Int64
	DocumentsStaged  atomic.Int64
	FilesDownloaded  atomic.Int64
	DownloadFailures atomic.Int64
	MessagesSent     atomic.Int64
	DeliveryFailures atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		value int64
	}{
		{"shelfstat_documents_analyzed_total", "Total documents analyzed", m.DocumentsAnalyzed.Load()},
		{"shelfstat_analyze_failures_total", "Total documents that could not be read", m.AnalyzeFailures.Load()},
		{"shelfstat_products_parsed_total", "Total product cards parsed", m.ProductsParsed.Load()},
		{"shelfstat_empty_documents_total", "Total documents without product cards", m.EmptyDocuments.Load()},
		{"shelfstat_bytes_parsed_total", "Total HTML bytes parsed", m.BytesParsed.Load()},
		{"shelfstat_updates_received_total", "Total bot updates received", m.UpdatesReceived.Load()},
		{"shelfstat_documents_staged_total", "Total uploads staged for analysis", m.DocumentsStaged.Load()},
		{"shelfstat_files_downloaded_total", "Total attachments downloaded", m.FilesDownloaded.Load()},
		{"shelfstat_download_failures_total", "Total failed attachment downloads", m.DownloadFailures.Load()},
		{"shelfstat_messages_sent_total", "Total messages delivered", m.MessagesSent.Load()},
		{"shelfstat_delivery_failures_total", "Total failed message deliveries", m.DeliveryFailures.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"documents_analyzed": m.DocumentsAnalyzed.Load(),
		"analyze_failures":   m.AnalyzeFailures.Load(),
		"products_parsed":    m.ProductsParsed.Load(),
		"empty_documents":    m.EmptyDocuments.Load(),
		"bytes_parsed":       m.BytesParsed.Load(),
		"updates_received":   m.UpdatesReceived.Load(),
		"documents_staged":   m.DocumentsStaged.Load(),
		"files_downloaded":   m.FilesDownloaded.Load(),
		"download_failures":  m.DownloadFailures.Load(),
		"messages_sent":      m.MessagesSent.Load(),
		"delivery_failures":  m.DeliveryFailures.Load(),
	}
}
