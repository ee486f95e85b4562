package analytics

import (
	"sort"

	"github.com/IshaanNene/ShelfStat/internal/types"
)

// Overall is a snapshot of statistics over every parsed product.
type Overall struct {
	NumProducts int
	Price       Summary
	Rating      Summary
	Reviews     Summary
	Brands      map[string]struct{}
}

// SortedBrands returns the distinct brands in lexical order.
func (o Overall) SortedBrands() []string {
	brands := make([]string, 0, len(o.Brands))
	for b := range o.Brands {
		brands = append(brands, b)
	}
	sort.Strings(brands)
	return brands
}

// ComputeOverall aggregates products. Each field is summarized only over the
// records where it is present.
func ComputeOverall(products []types.Product) Overall {
	var prices, ratings, reviews []float64
	brands := make(map[string]struct{})

	for _, p := range products {
		if v, ok := p.PriceValue(); ok {
			prices = append(prices, float64(v))
		}
		if v, ok := p.RatingValue(); ok {
			ratings = append(ratings, v)
		}
		if v, ok := p.ReviewsValue(); ok {
			reviews = append(reviews, float64(v))
		}
		if b, ok := p.BrandValue(); ok && b != "" {
			brands[b] = struct{}{}
		}
	}

	return Overall{
		NumProducts: len(products),
		Price:       summarize(prices, PricePlaces),
		Rating:      summarize(ratings, RatingPlaces),
		Reviews:     summarize(reviews, ReviewsPlaces),
		Brands:      brands,
	}
}
