package parser

import (
	"fmt"
	"log/slog"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"

	"github.com/IshaanNene/ShelfStat/internal/config"
)

// XPathLocator locates cards and fields using XPath expressions.
// Field expressions are evaluated relative to the card node.
type XPathLocator struct {
	card   *xpath.Expr
	fields map[FieldKind][]*xpath.Expr
	logger *slog.Logger
}

// NewXPathLocator compiles the card expression and field rules.
func NewXPathLocator(cardExpr string, rules []config.FieldRule, logger *slog.Logger) (*XPathLocator, error) {
	l := &XPathLocator{
		fields: make(map[FieldKind][]*xpath.Expr),
		logger: logger.With("component", "xpath_locator"),
	}

	if cardExpr != "" {
		expr, err := xpath.Compile(cardExpr)
		if err != nil {
			return nil, fmt.Errorf("compile card xpath %q: %w", cardExpr, err)
		}
		l.card = expr
	}

	for _, rule := range rules {
		expr, err := xpath.Compile(rule.Selector)
		if err != nil {
			return nil, fmt.Errorf("compile %s xpath %q: %w", rule.Field, rule.Selector, err)
		}
		kind := FieldKind(rule.Field)
		l.fields[kind] = append(l.fields[kind], expr)
	}

	return l, nil
}

// Cards implements CardFinder.
func (l *XPathLocator) Cards(root *html.Node) []*html.Node {
	if l.card == nil {
		return nil
	}
	return htmlquery.QuerySelectorAll(root, l.card)
}

// Locate implements Locator.
func (l *XPathLocator) Locate(card *html.Node, kind FieldKind) (string, bool) {
	for _, expr := range l.fields[kind] {
		if node := htmlquery.QuerySelector(card, expr); node != nil {
			return htmlquery.InnerText(node), true
		}
	}
	return "", false
}
