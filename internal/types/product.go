package types

import (
	"encoding/json"
	"strconv"
)

// Product represents a single product card parsed from a search-results page.
// A nil field means the value was missing from the source document.
type Product struct {
	Brand    *string
	Name     *string
	Price    *int
	OldPrice *int
	Discount *string
	Rating   *float64
	Reviews  *int
}

// BrandValue returns the brand and whether it is present.
func (p Product) BrandValue() (string, bool) { return deref(p.Brand) }

// NameValue returns the product name and whether it is present.
func (p Product) NameValue() (string, bool) { return deref(p.Name) }

// PriceValue returns the sale price and whether it is present.
func (p Product) PriceValue() (int, bool) { return deref(p.Price) }

// OldPriceValue returns the strikethrough price and whether it is present.
func (p Product) OldPriceValue() (int, bool) { return deref(p.OldPrice) }

// DiscountValue returns the raw discount label and whether it is present.
func (p Product) DiscountValue() (string, bool) { return deref(p.Discount) }

// RatingValue returns the rating and whether it is present.
func (p Product) RatingValue() (float64, bool) { return deref(p.Rating) }

// ReviewsValue returns the review count and whether it is present.
func (p Product) ReviewsValue() (int, bool) { return deref(p.Reviews) }

// Popularity is rating × reviews, with missing values counted as zero.
func (p Product) Popularity() float64 {
	rating, _ := p.RatingValue()
	reviews, _ := p.ReviewsValue()
	return rating * float64(reviews)
}

// IsEmpty reports whether no field at all was extracted.
func (p Product) IsEmpty() bool {
	return p.Brand == nil && p.Name == nil && p.Price == nil && p.OldPrice == nil &&
		p.Discount == nil && p.Rating == nil && p.Reviews == nil
}

// MarshalJSON implements json.Marshaler with snake_case keys.
// Missing fields become null.
func (p Product) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.toMap())
}

func (p Product) toMap() map[string]any {
	return map[string]any{
		"brand":     p.Brand,
		"name":      p.Name,
		"price":     p.Price,
		"old_price": p.OldPrice,
		"discount":  p.Discount,
		"rating":    p.Rating,
		"reviews":   p.Reviews,
	}
}

// FlatFields lists the column order used by ToFlatMap consumers.
var FlatFields = []string{"brand", "name", "price", "old_price", "discount", "rating", "reviews"}

// ToFlatMap returns a flat map suitable for CSV export.
// Missing fields map to the empty string.
func (p Product) ToFlatMap() map[string]string {
	flat := make(map[string]string, len(FlatFields))
	flat["brand"] = strOrEmpty(p.Brand)
	flat["name"] = strOrEmpty(p.Name)
	flat["discount"] = strOrEmpty(p.Discount)
	flat["price"] = intOrEmpty(p.Price)
	flat["old_price"] = intOrEmpty(p.OldPrice)
	flat["reviews"] = intOrEmpty(p.Reviews)
	if p.Rating != nil {
		flat["rating"] = strconv.FormatFloat(*p.Rating, 'f', -1, 64)
	} else {
		flat["rating"] = ""
	}
	return flat
}

// Ptr returns a pointer to v. Handy for building products in tests and parsers.
func Ptr[T any](v T) *T { return &v }

func deref[T any](p *T) (T, bool) {
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intOrEmpty(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
