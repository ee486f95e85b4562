package analytics

import (
	"sort"

	"github.com/IshaanNene/ShelfStat/internal/types"
)

// SegmentName identifies a price bucket.
type SegmentName string

const (
	Economy  SegmentName = "Economy"
	Standard SegmentName = "Standard"
	Premium  SegmentName = "Premium"
)

// SegmentOrder is the fixed rendering order of segments.
var SegmentOrder = []SegmentName{Economy, Standard, Premium}

// Segment holds statistics for one price bucket. An empty segment has
// Count 0, nil aggregates and no MostPopular item.
type Segment struct {
	Name        SegmentName
	Count       int
	Members     []types.Product
	PriceMin    *int
	PriceMax    *int
	Reviews     Summary
	Rating      Summary
	MostPopular *types.Product
}

// Segments is empty when no product has a price, and otherwise holds exactly
// one Segment per SegmentOrder entry, in that order.
type Segments []Segment

// Get returns the named segment.
func (s Segments) Get(name SegmentName) (Segment, bool) {
	for _, seg := range s {
		if seg.Name == name {
			return seg, true
		}
	}
	return Segment{}, false
}

// ComputeSegments splits priced products into Economy, Standard and Premium
// by price rank. With q = n/4, Economy is the q cheapest and Premium the q
// most expensive (or the single most expensive when q is 0). Standard is the
// remainder and is only filled when n >= 4. For n < 4 Economy and Premium
// are sliced from the same list and may share members.
func ComputeSegments(products []types.Product) Segments {
	priced := make([]types.Product, 0, len(products))
	for _, p := range products {
		if p.Price != nil {
			priced = append(priced, p)
		}
	}
	n := len(priced)
	if n == 0 {
		return Segments{}
	}

	sort.SliceStable(priced, func(i, j int) bool {
		return *priced[i].Price < *priced[j].Price
	})

	q := n / 4
	economy := priced[:q]
	premium := priced[n-q:]
	if q == 0 {
		premium = priced[n-1:]
	}
	var standard []types.Product
	if n >= 4 {
		standard = priced[q : n-q]
	}

	return Segments{
		buildSegment(Economy, economy),
		buildSegment(Standard, standard),
		buildSegment(Premium, premium),
	}
}

func buildSegment(name SegmentName, members []types.Product) Segment {
	seg := Segment{
		Name:    name,
		Count:   len(members),
		Members: members,
	}
	if len(members) == 0 {
		return seg
	}

	var reviews, ratings []float64
	for _, p := range members {
		if price, ok := p.PriceValue(); ok {
			if seg.PriceMin == nil || price < *seg.PriceMin {
				seg.PriceMin = ptr(price)
			}
			if seg.PriceMax == nil || price > *seg.PriceMax {
				seg.PriceMax = ptr(price)
			}
		}
		if v, ok := p.ReviewsValue(); ok {
			reviews = append(reviews, float64(v))
		}
		if v, ok := p.RatingValue(); ok {
			ratings = append(ratings, v)
		}
		if seg.MostPopular == nil || p.Popularity() > seg.MostPopular.Popularity() {
			popular := p
			seg.MostPopular = &popular
		}
	}
	seg.Reviews = summarize(reviews, ReviewsPlaces)
	seg.Rating = summarize(ratings, RatingPlaces)

	return seg
}
