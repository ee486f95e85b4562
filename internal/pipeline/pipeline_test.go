package pipeline

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/IshaanNene/ShelfStat/internal/config"
	"github.com/IshaanNene/ShelfStat/internal/observability"
	"github.com/IshaanNene/ShelfStat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const searchPage = `<html><body>
<article class="product-card"><ins class="price__lower-price">100 ₽</ins><span class="product-card__brand">Beta</span><span class="product-card__name">One</span><span class="address-rate-mini">4.0</span><span class="product-card__count">5</span></article>
<article class="product-card"><ins class="price__lower-price">200 ₽</ins><span class="product-card__brand">Alpha</span><span class="product-card__name">Two</span><span class="address-rate-mini">4.5</span><span class="product-card__count">10</span></article>
<article class="product-card"><ins class="price__lower-price">300 ₽</ins><span class="product-card__brand">Alpha</span><span class="product-card__name">Three</span><span class="address-rate-mini">3,0</span><span class="product-card__count">2</span></article>
<article class="product-card"><ins class="price__lower-price">400 ₽</ins><span class="product-card__name">Four</span><span class="address-rate-mini">5</span><span class="product-card__count">20 оценок</span></article>
</body></html>`

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func newAnalyzer(t *testing.T, markup string) (*Analyzer, *observability.Metrics) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Report.Markup = markup
	a, err := NewFromConfig(cfg, testLogger)
	if err != nil {
		t.Fatalf("build analyzer: %v", err)
	}
	m := observability.NewMetrics(testLogger)
	a.SetMetrics(m)
	return a, m
}

func TestAnalyzeSearchPage(t *testing.T) {
	a, m := newAnalyzer(t, "plain")

	res, err := a.Analyze(strings.NewReader(searchPage), "phones")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(res.Products) != 4 {
		t.Fatalf("expected 4 products, got %d", len(res.Products))
	}
	if res.Overall.NumProducts != 4 || *res.Overall.Price.Mean != 250 {
		t.Errorf("unexpected overall: %+v", res.Overall)
	}
	if len(res.Segments) != 3 {
		t.Errorf("expected 3 segments, got %d", len(res.Segments))
	}
	for _, want := range []string{
		"Overall analytics for query: 'phones'",
		"Average rating: 4.12",
		"Brands: Alpha, Beta",
		"  Name: Four",
	} {
		if !strings.Contains(res.Report, want) {
			t.Errorf("report missing %q:\n%s", want, res.Report)
		}
	}

	snap := m.Snapshot()
	if snap["documents_analyzed"] != 1 || snap["products_parsed"] != 4 {
		t.Errorf("unexpected metrics: %v", snap)
	}
	if snap["bytes_parsed"] != int64(len(searchPage)) {
		t.Errorf("bytes_parsed: got %d, want %d", snap["bytes_parsed"], len(searchPage))
	}
}

func TestAnalyzeIdempotent(t *testing.T) {
	a, _ := newAnalyzer(t, "html")

	first, err := a.Analyze(strings.NewReader(searchPage), "q")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	second, err := a.Analyze(strings.NewReader(searchPage), "q")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if first.Report != second.Report {
		t.Error("same document and query should give identical reports")
	}
}

func TestAnalyzeNoCards(t *testing.T) {
	a, m := newAnalyzer(t, "plain")

	res, err := a.Analyze(strings.NewReader("<html><body><p>nothing here</p></body></html>"), "empty")
	if err != nil {
		t.Fatalf("page without cards should not fail: %v", err)
	}
	if len(res.Products) != 0 || len(res.Segments) != 0 {
		t.Errorf("expected no products or segments, got %d/%d", len(res.Products), len(res.Segments))
	}
	if !strings.Contains(res.Report, "Products found: 0") {
		t.Errorf("report should state zero products:\n%s", res.Report)
	}
	if m.EmptyDocuments.Load() != 1 {
		t.Errorf("empty_documents: got %d", m.EmptyDocuments.Load())
	}
}

func TestAnalyzeUnreadable(t *testing.T) {
	a, m := newAnalyzer(t, "plain")

	_, err := a.Analyze(failingReader{}, "q")
	if !errors.Is(err, types.ErrUnreadableInput) {
		t.Fatalf("expected ErrUnreadableInput, got %v", err)
	}
	var inErr *types.InputError
	if !errors.As(err, &inErr) {
		t.Errorf("expected *types.InputError, got %T", err)
	}
	if m.AnalyzeFailures.Load() != 1 {
		t.Errorf("analyze_failures: got %d", m.AnalyzeFailures.Load())
	}
}

func TestAnalyzeInvalidEncoding(t *testing.T) {
	a, _ := newAnalyzer(t, "plain")

	_, err := a.Analyze(strings.NewReader("<html>\xff\xfe</html>"), "q")
	if !errors.Is(err, types.ErrInvalidEncoding) {
		t.Fatalf("expected ErrInvalidEncoding, got %v", err)
	}
}

func TestAnalyzeFile(t *testing.T) {
	a, _ := newAnalyzer(t, "plain")

	path := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(path, []byte(searchPage), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := a.AnalyzeFile(path, "phones")
	if err != nil {
		t.Fatalf("analyze file: %v", err)
	}
	if len(res.Products) != 4 {
		t.Errorf("expected 4 products, got %d", len(res.Products))
	}

	_, err = a.AnalyzeFile(filepath.Join(t.TempDir(), "missing.html"), "q")
	var inErr *types.InputError
	if !errors.As(err, &inErr) || !strings.HasSuffix(inErr.Source, "missing.html") {
		t.Errorf("expected InputError naming the file, got %v", err)
	}
}
