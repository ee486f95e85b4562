// Package report renders analytics into the text sent back to the user.
package report

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/IshaanNene/ShelfStat/internal/analytics"
	"github.com/IshaanNene/ShelfStat/internal/config"
)

// DefaultMaxLength is the Telegram message size limit.
const DefaultMaxLength = 4096

const (
	insufficient = "insufficient data"
	notAvailable = "n/a"
	currency     = "rub"
)

// Markup selects how emphasis is rendered.
type Markup string

const (
	MarkupHTML  Markup = "html"
	MarkupPlain Markup = "plain"
)

// Formatter renders analytics into a bounded-length text block.
type Formatter struct {
	maxLength int
	markup    Markup
}

// NewFormatter creates a formatter from report settings.
func NewFormatter(cfg config.ReportConfig) *Formatter {
	f := &Formatter{
		maxLength: cfg.MaxLength,
		markup:    Markup(cfg.Markup),
	}
	if f.maxLength <= 0 {
		f.maxLength = DefaultMaxLength
	}
	if f.markup != MarkupPlain {
		f.markup = MarkupHTML
	}
	return f
}

// Markup returns the markup the formatter emits.
func (f *Formatter) Markup() Markup { return f.markup }

// Format renders the full report and truncates it to the configured length.
func (f *Formatter) Format(query string, overall analytics.Overall, segs analytics.Segments) string {
	return Truncate(f.Render(query, overall, segs), f.maxLength)
}

// Render produces the untruncated report.
func (f *Formatter) Render(query string, overall analytics.Overall, segs analytics.Segments) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s '%s'\n", f.bold("Overall analytics for query:"), f.escape(query))
	fmt.Fprintf(&b, "Products found: %d\n", overall.NumProducts)
	fmt.Fprintf(&b, "Average price: %s\n", money(overall.Price.Mean, 2))
	fmt.Fprintf(&b, "Median price: %s\n", money(overall.Price.Median, 2))
	fmt.Fprintf(&b, "Minimum price: %s\n", money(overall.Price.Min, 0))
	fmt.Fprintf(&b, "Maximum price: %s\n", money(overall.Price.Max, 0))
	fmt.Fprintf(&b, "Average rating: %s\n", decimal(overall.Rating.Mean, 2))
	fmt.Fprintf(&b, "Median rating: %s\n", decimal(overall.Rating.Median, 2))
	fmt.Fprintf(&b, "Average reviews: %s\n", decimal(overall.Reviews.Mean, 1))
	fmt.Fprintf(&b, "Median reviews: %s\n", decimal(overall.Reviews.Median, 1))
	fmt.Fprintf(&b, "Brands: %s\n", f.brands(overall.SortedBrands()))

	fmt.Fprintf(&b, "\n%s\n", f.bold("Price segments:"))
	if len(segs) == 0 {
		b.WriteString("No price data to build segments.\n")
		return b.String()
	}

	for _, name := range analytics.SegmentOrder {
		seg, ok := segs.Get(name)
		if !ok {
			continue
		}
		f.writeSegment(&b, seg)
	}
	return b.String()
}

func (f *Formatter) writeSegment(b *strings.Builder, seg analytics.Segment) {
	fmt.Fprintf(b, "\n%s %s (%d products)\n", f.underline("Segment:"), seg.Name, seg.Count)
	if seg.PriceMin != nil && seg.PriceMax != nil {
		fmt.Fprintf(b, "Price range: %d — %d %s\n", *seg.PriceMin, *seg.PriceMax, currency)
	} else {
		fmt.Fprintf(b, "Price range: %s\n", insufficient)
	}
	fmt.Fprintf(b, "Average reviews: %s\n", decimal(seg.Reviews.Mean, 1))
	fmt.Fprintf(b, "Median reviews: %s\n", decimal(seg.Reviews.Median, 1))
	fmt.Fprintf(b, "Average rating: %s\n", decimal(seg.Rating.Mean, 2))
	fmt.Fprintf(b, "Median rating: %s\n", decimal(seg.Rating.Median, 2))

	pop := seg.MostPopular
	if pop == nil {
		b.WriteString("Not enough data to pick the most popular item.\n")
		return
	}
	b.WriteString("Most popular item:\n")
	name, ok := pop.NameValue()
	if !ok {
		name = notAvailable
	}
	fmt.Fprintf(b, "  Name: %s\n", f.escape(name))
	if price, ok := pop.PriceValue(); ok {
		fmt.Fprintf(b, "  Price: %d %s\n", price, currency)
	} else {
		fmt.Fprintf(b, "  Price: %s\n", notAvailable)
	}
	if reviews, ok := pop.ReviewsValue(); ok {
		fmt.Fprintf(b, "  Reviews: %d\n", reviews)
	} else {
		fmt.Fprintf(b, "  Reviews: %s\n", notAvailable)
	}
	if rating, ok := pop.RatingValue(); ok {
		fmt.Fprintf(b, "  Rating: %s\n", strconv.FormatFloat(rating, 'f', -1, 64))
	} else {
		fmt.Fprintf(b, "  Rating: %s\n", notAvailable)
	}
}

func (f *Formatter) brands(brands []string) string {
	if len(brands) == 0 {
		return "no brands found"
	}
	escaped := make([]string, len(brands))
	for i, br := range brands {
		escaped[i] = f.escape(br)
	}
	return strings.Join(escaped, ", ")
}

func (f *Formatter) bold(s string) string {
	if f.markup == MarkupHTML {
		return "<b>" + s + "</b>"
	}
	return s
}

func (f *Formatter) underline(s string) string {
	if f.markup == MarkupHTML {
		return "<u>" + s + "</u>"
	}
	return s
}

func (f *Formatter) escape(s string) string {
	if f.markup == MarkupHTML {
		return html.EscapeString(s)
	}
	return s
}

func decimal(v *float64, places int) string {
	if v == nil {
		return insufficient
	}
	return strconv.FormatFloat(*v, 'f', places, 64)
}

func money(v *float64, places int) string {
	if v == nil {
		return insufficient
	}
	return strconv.FormatFloat(*v, 'f', places, 64) + " " + currency
}

// Truncate cuts s to at most max characters (runes). The cut is hard and
// may split markup.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}
