package parser

import (
	"fmt"
	"log/slog"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/IshaanNene/ShelfStat/internal/config"
)

// CSSLocator locates cards and fields using CSS selectors via goquery.
type CSSLocator struct {
	card   cascadia.Selector
	fields map[FieldKind][]cascadia.Selector
	logger *slog.Logger
}

// NewCSSLocator compiles the card selector and field rules.
// An empty cardSelector yields a locator that only resolves fields.
func NewCSSLocator(cardSelector string, rules []config.FieldRule, logger *slog.Logger) (*CSSLocator, error) {
	l := &CSSLocator{
		fields: make(map[FieldKind][]cascadia.Selector),
		logger: logger.With("component", "css_locator"),
	}

	if cardSelector != "" {
		sel, err := cascadia.Compile(cardSelector)
		if err != nil {
			return nil, fmt.Errorf("compile card selector %q: %w", cardSelector, err)
		}
		l.card = sel
	}

	for _, rule := range rules {
		sel, err := cascadia.Compile(rule.Selector)
		if err != nil {
			return nil, fmt.Errorf("compile %s selector %q: %w", rule.Field, rule.Selector, err)
		}
		kind := FieldKind(rule.Field)
		l.fields[kind] = append(l.fields[kind], sel)
	}

	return l, nil
}

// Cards implements CardFinder.
func (l *CSSLocator) Cards(root *html.Node) []*html.Node {
	if l.card == nil {
		return nil
	}
	return goquery.NewDocumentFromNode(root).FindMatcher(l.card).Nodes
}

// Locate implements Locator. The first rule with a match wins and only
// its first matching element is read.
func (l *CSSLocator) Locate(card *html.Node, kind FieldKind) (string, bool) {
	rules := l.fields[kind]
	if len(rules) == 0 {
		return "", false
	}

	doc := goquery.NewDocumentFromNode(card)
	for _, sel := range rules {
		match := doc.FindMatcher(sel).First()
		if match.Length() > 0 {
			return match.Text(), true
		}
	}
	return "", false
}
