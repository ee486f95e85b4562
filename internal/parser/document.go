package parser

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/IshaanNene/ShelfStat/internal/types"
)

// DocumentParser turns a saved search-results page into product records.
type DocumentParser struct {
	cards     CardFinder
	extractor *FieldExtractor
	logger    *slog.Logger
}

// NewDocumentParser creates a parser from a card finder and a field locator.
func NewDocumentParser(cards CardFinder, locator Locator, logger *slog.Logger) *DocumentParser {
	return &DocumentParser{
		cards:     cards,
		extractor: NewFieldExtractor(locator, logger),
		logger:    logger.With("component", "document_parser"),
	}
}

// Parse reads the whole document and returns one record per product card in
// document order. A page without cards yields an empty slice and no error.
// Only failures to read or decode the input are returned as errors.
func (p *DocumentParser) Parse(r io.Reader) ([]types.Product, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, &types.InputError{Err: fmt.Errorf("%w: %v", types.ErrUnreadableInput, err)}
	}
	return p.ParseBytes(body)
}

// ParseString is a convenience wrapper around ParseBytes.
func (p *DocumentParser) ParseString(doc string) ([]types.Product, error) {
	return p.ParseBytes([]byte(doc))
}

// ParseBytes parses an in-memory document.
func (p *DocumentParser) ParseBytes(body []byte) ([]types.Product, error) {
	body = bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(body) {
		return nil, &types.InputError{Err: types.ErrInvalidEncoding}
	}

	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		// html.Parse only fails on reader errors; treat as no cards.
		p.logger.Warn("html parse failed", "error", err)
		return []types.Product{}, nil
	}

	cards := p.cards.Cards(root)
	products := make([]types.Product, 0, len(cards))
	for _, card := range cards {
		products = append(products, p.extractor.Extract(card))
	}

	p.logger.Debug("document parsed", "bytes", len(body), "cards", len(cards))
	return products, nil
}
