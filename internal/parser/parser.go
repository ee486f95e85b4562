package parser

import (
	"fmt"
	"log/slog"

	"golang.org/x/net/html"

	"github.com/IshaanNene/ShelfStat/internal/config"
)

// FieldKind names one product field inside a card.
type FieldKind string

const (
	FieldPrice    FieldKind = "price"
	FieldOldPrice FieldKind = "old_price"
	FieldDiscount FieldKind = "discount"
	FieldBrand    FieldKind = "brand"
	FieldName     FieldKind = "name"
	FieldRating   FieldKind = "rating"
	FieldReviews  FieldKind = "reviews"
)

// AllFields lists every FieldKind in extraction order.
var AllFields = []FieldKind{
	FieldPrice, FieldOldPrice, FieldDiscount, FieldBrand, FieldName, FieldRating, FieldReviews,
}

// Locator finds the raw text of a field inside a single product card.
// It returns false when the card has no fragment for that field.
type Locator interface {
	Locate(card *html.Node, kind FieldKind) (string, bool)
}

// CardFinder locates every product card in a parsed document, in document order.
type CardFinder interface {
	Cards(root *html.Node) []*html.Node
}

// NewFromConfig builds the card finder and field locator described by cfg.
// Fields without a configured rule fall back to the default rule of the
// configured dialect.
func NewFromConfig(cfg config.ParserConfig, logger *slog.Logger) (CardFinder, Locator, error) {
	dialect := cfg.Locator
	if dialect == "" {
		dialect = "css"
	}

	defaults := config.DefaultRules()
	cardSelector := config.DefaultCardSelector
	if dialect == "xpath" {
		defaults = config.DefaultXPathRules()
		cardSelector = config.DefaultXPathCardSelector
	}
	if cfg.CardSelector != "" {
		cardSelector = cfg.CardSelector
	}

	configured := make(map[string]bool)
	for _, r := range cfg.Rules {
		configured[r.Field] = true
	}
	rules := append([]config.FieldRule(nil), cfg.Rules...)
	for _, r := range defaults {
		if !configured[r.Field] {
			rules = append(rules, r)
		}
	}

	var cssRules, xpathRules []config.FieldRule
	for _, r := range rules {
		typ := r.Type
		if typ == "" {
			typ = dialect
		}
		switch typ {
		case "xpath":
			xpathRules = append(xpathRules, r)
		case "css":
			cssRules = append(cssRules, r)
		default:
			return nil, nil, fmt.Errorf("rule for %s: unknown type %q", r.Field, r.Type)
		}
	}

	var (
		css   *CSSLocator
		xpath *XPathLocator
		err   error
	)
	if len(cssRules) > 0 || dialect == "css" {
		cardSel := ""
		if dialect == "css" {
			cardSel = cardSelector
		}
		css, err = NewCSSLocator(cardSel, cssRules, logger)
		if err != nil {
			return nil, nil, err
		}
	}
	if len(xpathRules) > 0 || dialect == "xpath" {
		cardSel := ""
		if dialect == "xpath" {
			cardSel = cardSelector
		}
		xpath, err = NewXPathLocator(cardSel, xpathRules, logger)
		if err != nil {
			return nil, nil, err
		}
	}

	var finder CardFinder = css
	if dialect == "xpath" {
		finder = xpath
	}

	switch {
	case css != nil && xpath != nil:
		return finder, NewCompositeLocator(logger, css, xpath), nil
	case css != nil:
		return finder, css, nil
	default:
		return finder, xpath, nil
	}
}
