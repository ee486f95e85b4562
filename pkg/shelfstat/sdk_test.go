package shelfstat

import (
	"strings"
	"testing"
)

const page = `<html><body>
<article class="product-card"><ins class="price__lower-price">100</ins><div class="brand-name">Acme</div><span class="product-card__name">Kettle</span></article>
<article class="product-card"><ins class="price__lower-price">200</ins><span class="product-card__brand">Zeta</span><span class="product-card__name">Toaster</span></article>
</body></html>`

func TestAnalyzeWithOptions(t *testing.T) {
	a, err := New(WithPlainText(), WithRule("brand", "div.brand-name"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	res, err := a.Analyze(strings.NewReader(page), "kettles")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(res.Products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(res.Products))
	}
	if b, _ := res.Products[0].BrandValue(); b != "Acme" {
		t.Errorf("custom brand rule not applied: %q", b)
	}
	if _, ok := res.Products[1].BrandValue(); ok {
		t.Error("an explicit brand rule replaces the default selector")
	}
	if strings.Contains(res.Report, "<b>") {
		t.Error("plain report should not contain markup")
	}
	if seg, ok := res.Segments.Get(Premium); !ok || seg.Count != 1 {
		t.Errorf("expected one premium product, got %+v", seg)
	}
}

func TestXPathOption(t *testing.T) {
	a, err := New(WithXPath(), WithPlainText())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	res, err := a.Analyze(strings.NewReader(page), "q")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(res.Products) != 2 {
		t.Errorf("expected 2 products, got %d", len(res.Products))
	}
}

func TestInvalidOptions(t *testing.T) {
	if _, err := New(WithRule("colour", "span")); err == nil {
		t.Error("unknown field should be rejected")
	}
	if _, err := New(WithMaxLength(0)); err == nil {
		t.Error("zero max length should be rejected")
	}
}
