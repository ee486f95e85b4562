package pipeline

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/IshaanNene/ShelfStat/internal/analytics"
	"github.com/IshaanNene/ShelfStat/internal/config"
	"github.com/IshaanNene/ShelfStat/internal/observability"
	"github.com/IshaanNene/ShelfStat/internal/parser"
	"github.com/IshaanNene/ShelfStat/internal/report"
	"github.com/IshaanNene/ShelfStat/internal/types"
)

// Result is everything produced for one document and query.
type Result struct {
	Query    string
	Products []types.Product
	Overall  analytics.Overall
	Segments analytics.Segments
	Report   string
}

// Analyzer runs parse → overall stats → segmentation → formatting.
// It holds no per-request state and is safe for concurrent use.
type Analyzer struct {
	parser    *parser.DocumentParser
	formatter *report.Formatter
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// New creates an Analyzer from its stages.
func New(p *parser.DocumentParser, f *report.Formatter, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		parser:    p,
		formatter: f,
		logger:    logger.With("component", "analyzer"),
	}
}

// NewFromConfig builds the parser and formatter described by cfg.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Analyzer, error) {
	cards, locator, err := parser.NewFromConfig(cfg.Parser, logger)
	if err != nil {
		return nil, fmt.Errorf("build parser: %w", err)
	}
	return New(
		parser.NewDocumentParser(cards, locator, logger),
		report.NewFormatter(cfg.Report),
		logger,
	), nil
}

// SetMetrics attaches counters. Must be called before concurrent use.
func (a *Analyzer) SetMetrics(m *observability.Metrics) {
	a.metrics = m
}

// Formatter returns the report formatter.
func (a *Analyzer) Formatter() *report.Formatter { return a.formatter }

// Analyze reads one HTML document and builds the report for query.
// Documents without product cards are not an error: they produce a report
// full of insufficient-data notices.
func (a *Analyzer) Analyze(r io.Reader, query string) (*Result, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		a.failed()
		return nil, &types.InputError{Err: fmt.Errorf("%w: %v", types.ErrUnreadableInput, err)}
	}

	products, err := a.parser.ParseBytes(body)
	if err != nil {
		a.failed()
		return nil, err
	}

	overall := analytics.ComputeOverall(products)
	segments := analytics.ComputeSegments(products)
	text := a.formatter.Format(query, overall, segments)

	if a.metrics != nil {
		a.metrics.DocumentsAnalyzed.Add(1)
		a.metrics.ProductsParsed.Add(int64(len(products)))
		a.metrics.BytesParsed.Add(int64(len(body)))
		if len(products) == 0 {
			a.metrics.EmptyDocuments.Add(1)
		}
	}
	a.logger.Info("document analyzed",
		"query", query,
		"bytes", len(body),
		"products", len(products),
		"segments", len(segments),
		"report_len", len(text),
	)

	return &Result{
		Query:    query,
		Products: products,
		Overall:  overall,
		Segments: segments,
		Report:   text,
	}, nil
}

// AnalyzeFile opens path and analyzes it.
func (a *Analyzer) AnalyzeFile(path, query string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		a.failed()
		return nil, &types.InputError{Source: path, Err: fmt.Errorf("%w: %v", types.ErrUnreadableInput, err)}
	}
	defer f.Close()

	res, err := a.Analyze(f, query)
	if err != nil {
		var inErr *types.InputError
		if errors.As(err, &inErr) && inErr.Source == "" {
			inErr.Source = path
		}
		return nil, err
	}
	return res, nil
}

func (a *Analyzer) failed() {
	if a.metrics != nil {
		a.metrics.AnalyzeFailures.Add(1)
	}
}
