// Package shelfstat provides a public SDK for embedding ShelfStat as a library.
//
// Example usage:
//
//	a, err := shelfstat.New(
//	    shelfstat.WithPlainText(),
//	    shelfstat.WithRule("brand", "div.brand-name"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := a.AnalyzeFile("search.html", "kettles")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Report)
package shelfstat

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/IshaanNene/ShelfStat/internal/analytics"
	"github.com/IshaanNene/ShelfStat/internal/config"
	"github.com/IshaanNene/ShelfStat/internal/pipeline"
	"github.com/IshaanNene/ShelfStat/internal/types"
)

// Product is one parsed product card. Missing fields are nil.
type Product = types.Product

// Result holds the parsed products, their statistics and the report text.
type Result = pipeline.Result

// SegmentName identifies a price segment.
type SegmentName = analytics.SegmentName

// Segment names in report order.
const (
	Economy  = analytics.Economy
	Standard = analytics.Standard
	Premium  = analytics.Premium
)

// Analyzer is the high-level API for using ShelfStat as a library.
type Analyzer struct {
	inner *pipeline.Analyzer
}

// Option configures an Analyzer.
type Option func(*config.Config)

// WithXPath switches the default selectors to XPath.
func WithXPath() Option {
	return func(c *config.Config) { c.Parser.Locator = "xpath" }
}

// WithCardSelector overrides the selector that finds product cards.
func WithCardSelector(sel string) Option {
	return func(c *config.Config) { c.Parser.CardSelector = sel }
}

// WithRule adds a selector for a product field. Rules added for the same
// field are tried in order; fields without rules keep the defaults.
func WithRule(field, selector string) Option {
	return func(c *config.Config) {
		c.Parser.Rules = append(c.Parser.Rules, config.FieldRule{Field: field, Selector: selector})
	}
}

// WithPlainText renders the report without HTML markup.
func WithPlainText() Option {
	return func(c *config.Config) { c.Report.Markup = "plain" }
}

// WithMaxLength caps the report length in characters.
func WithMaxLength(n int) Option {
	return func(c *config.Config) { c.Report.MaxLength = n }
}

// WithVerbose enables debug-level logging.
func WithVerbose() Option {
	return func(c *config.Config) { c.Logging.Level = "debug" }
}

// New creates an Analyzer with the given options.
func New(opts ...Option) (*Analyzer, error) {
	cfg := config.DefaultConfig()
	cfg.Logging.Level = "warn"
	for _, opt := range opts {
		opt(cfg)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	level := slog.LevelWarn
	if cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	inner, err := pipeline.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Analyzer{inner: inner}, nil
}

// Analyze reads a saved search results page and builds the report for query.
func (a *Analyzer) Analyze(r io.Reader, query string) (*Result, error) {
	return a.inner.Analyze(r, query)
}

// AnalyzeFile is Analyze on a file path.
func (a *Analyzer) AnalyzeFile(path, query string) (*Result, error) {
	return a.inner.AnalyzeFile(path, query)
}
