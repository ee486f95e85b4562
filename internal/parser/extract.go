package parser

import (
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/IshaanNene/ShelfStat/internal/types"
)

var nonDigitRe = regexp.MustCompile(`\D`)

// FieldExtractor turns one product card into a types.Product.
// Every field degrades to missing on its own; nothing here fails the record.
type FieldExtractor struct {
	locator Locator
	logger  *slog.Logger
}

// NewFieldExtractor creates an extractor backed by the given locator.
func NewFieldExtractor(locator Locator, logger *slog.Logger) *FieldExtractor {
	return &FieldExtractor{
		locator: locator,
		logger:  logger.With("component", "field_extractor"),
	}
}

// Extract reads every field of the card.
func (e *FieldExtractor) Extract(card *html.Node) types.Product {
	return types.Product{
		Price:    e.integer(card, FieldPrice),
		OldPrice: e.integer(card, FieldOldPrice),
		Discount: e.text(card, FieldDiscount),
		Brand:    e.text(card, FieldBrand),
		Name:     e.text(card, FieldName),
		Rating:   e.rating(card),
		Reviews:  e.integer(card, FieldReviews),
	}
}

func (e *FieldExtractor) text(card *html.Node, kind FieldKind) *string {
	raw, ok := e.locator.Locate(card, kind)
	if !ok {
		return nil
	}
	return ParseText(raw)
}

func (e *FieldExtractor) integer(card *html.Node, kind FieldKind) *int {
	raw, ok := e.locator.Locate(card, kind)
	if !ok {
		return nil
	}
	n := ParseDigits(raw)
	if n == nil && strings.TrimSpace(raw) != "" {
		e.logger.Debug("field has no digits", "field", kind, "raw", raw)
	}
	return n
}

func (e *FieldExtractor) rating(card *html.Node) *float64 {
	raw, ok := e.locator.Locate(card, FieldRating)
	if !ok {
		return nil
	}
	r := ParseRating(raw)
	if r == nil {
		e.logger.Debug("unparsable rating", "raw", raw)
	}
	return r
}

// ParseText trims raw text; an empty result is missing.
func ParseText(raw string) *string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	return &s
}

// ParseDigits strips every non-digit character and parses the rest as an
// integer. "12 990 ₽" yields 12990. No digits, or overflow, is missing.
func ParseDigits(raw string) *int {
	digits := nonDigitRe.ReplaceAllString(raw, "")
	if digits == "" {
		return nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return &n
}

// ParseRating parses a decimal rating written with either a comma or a
// point. Values outside [0,5] are missing.
func ParseRating(raw string) *float64 {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if s == "" {
		return nil
	}
	r, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(r) || r < 0 || r > 5 {
		return nil
	}
	return &r
}
