package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/IshaanNene/ShelfStat/internal/config"
	"github.com/IshaanNene/ShelfStat/internal/observability"
	"github.com/IshaanNene/ShelfStat/internal/pipeline"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const page = `<html><body>
<article class="product-card"><ins class="price__lower-price">100</ins><span class="product-card__brand">Acme</span><span class="product-card__name">A</span><span class="address-rate-mini">4</span><span class="product-card__count">3</span></article>
<article class="product-card"><ins class="price__lower-price">300</ins><span class="product-card__name">B</span></article>
</body></html>`

func newTestServer(t *testing.T) (*Server, *observability.Metrics) {
	t.Helper()
	cfg := config.DefaultConfig()
	analyzer, err := pipeline.NewFromConfig(cfg, testLogger)
	if err != nil {
		t.Fatalf("analyzer: %v", err)
	}
	m := observability.NewMetrics(testLogger)
	analyzer.SetMetrics(m)

	s := NewServer(":0", analyzer, 1<<20, "test", testLogger)
	s.MountMetrics("/metrics", m)
	return s, m
}

func multipartBody(t *testing.T, query, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if query != "" {
		mw.WriteField("query", query)
	}
	if content != "" {
		fw, err := mw.CreateFormFile("file", "page.html")
		if err != nil {
			t.Fatal(err)
		}
		io.WriteString(fw, content)
	}
	mw.WriteField("include_products", "true")
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	s, m := newTestServer(t)
	body, ctype := multipartBody(t, "kettles", page)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Query   string `json:"query"`
		Overall struct {
			NumProducts int `json:"num_products"`
			Price       struct {
				Mean *float64 `json:"mean"`
			} `json:"price"`
			Brands []string `json:"brands"`
		} `json:"overall"`
		Segments []struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		} `json:"segments"`
		Report   string           `json:"report"`
		Products []map[string]any `json:"products"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Query != "kettles" || resp.Overall.NumProducts != 2 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Overall.Price.Mean == nil || *resp.Overall.Price.Mean != 200 {
		t.Errorf("unexpected mean price: %v", resp.Overall.Price.Mean)
	}
	if len(resp.Segments) != 3 || resp.Segments[0].Name != "Economy" {
		t.Errorf("unexpected segments: %+v", resp.Segments)
	}
	if !strings.Contains(resp.Report, "'kettles'") {
		t.Errorf("report missing query: %s", resp.Report)
	}
	if len(resp.Products) != 2 || resp.Products[1]["brand"] != nil {
		t.Errorf("products should be included with null for missing fields: %v", resp.Products)
	}
	if m.DocumentsAnalyzed.Load() != 1 {
		t.Error("analysis should be counted")
	}
}

func TestAnalyzeEndpointRejects(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name    string
		query   string
		content string
		want    int
	}{
		{"missing query", "", page, http.StatusBadRequest},
		{"missing file", "q", "", http.StatusBadRequest},
		{"invalid encoding", "q", "<html>\xff</html>", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ctype := multipartBody(t, tt.query, tt.content)
			req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
			req.Header.Set("Content-Type", ctype)
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader("plain"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-multipart body: expected 400, got %d", rec.Code)
	}
}

func TestMetricsAndWebhookMounts(t *testing.T) {
	s, m := newTestServer(t)
	m.MessagesSent.Add(3)

	called := false
	s.MountWebhook("/hook", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "shelfstat_messages_sent_total 3") {
		t.Errorf("metrics output missing counter:\n%s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader("{}")))
	if !called {
		t.Error("webhook handler not reached")
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hook", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET on webhook: expected 405, got %d", rec.Code)
	}
}
