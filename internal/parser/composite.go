package parser

import (
	"log/slog"

	"golang.org/x/net/html"
)

// CompositeLocator combines several locators, used when field rules mix
// CSS and XPath. The first locator that finds a field wins.
type CompositeLocator struct {
	locators []Locator
	logger   *slog.Logger
}

// NewCompositeLocator creates a locator that consults each locator in order.
func NewCompositeLocator(logger *slog.Logger, locators ...Locator) *CompositeLocator {
	return &CompositeLocator{
		locators: locators,
		logger:   logger.With("component", "composite_locator"),
	}
}

// Locate implements Locator by delegating to sub-locators.
func (c *CompositeLocator) Locate(card *html.Node, kind FieldKind) (string, bool) {
	for _, l := range c.locators {
		if text, ok := l.Locate(card, kind); ok {
			return text, true
		}
	}
	return "", false
}
