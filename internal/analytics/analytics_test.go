package analytics

import (
	"testing"

	"github.com/IshaanNene/ShelfStat/internal/types"
)

func product(price, reviews int, rating float64) types.Product {
	return types.Product{
		Name:    types.Ptr("item"),
		Price:   types.Ptr(price),
		Reviews: types.Ptr(reviews),
		Rating:  types.Ptr(rating),
	}
}

func prices(seg Segment) []int {
	out := make([]int, 0, len(seg.Members))
	for _, p := range seg.Members {
		out = append(out, *p.Price)
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestOverallExample(t *testing.T) {
	products := []types.Product{
		product(100, 5, 4.0),
		product(200, 10, 4.5),
		product(300, 2, 3.0),
		product(400, 20, 5.0),
	}

	o := ComputeOverall(products)
	if o.NumProducts != 4 {
		t.Errorf("NumProducts: got %d, want 4", o.NumProducts)
	}
	if *o.Price.Mean != 250 {
		t.Errorf("avg price: got %v, want 250", *o.Price.Mean)
	}
	if *o.Price.Median != 250 {
		t.Errorf("median price: got %v, want 250", *o.Price.Median)
	}
	if *o.Price.Min != 100 || *o.Price.Max != 400 {
		t.Errorf("price range: got %v-%v", *o.Price.Min, *o.Price.Max)
	}
	if *o.Rating.Mean != 4.12 {
		t.Errorf("avg rating: got %v, want 4.12", *o.Rating.Mean)
	}
	if *o.Rating.Median != 4.25 {
		t.Errorf("median rating: got %v, want 4.25", *o.Rating.Median)
	}
	if *o.Reviews.Mean != 9.2 {
		t.Errorf("avg reviews: got %v, want 9.2", *o.Reviews.Mean)
	}
	if *o.Reviews.Median != 7.5 {
		t.Errorf("median reviews: got %v, want 7.5", *o.Reviews.Median)
	}
}

func TestRoundHalfToEven(t *testing.T) {
	tests := []struct {
		name    string
		reviews []int
		ratings []float64
		wantRev float64
		wantRat float64
	}{
		{"ties go down to even", []int{1, 1, 1, 2}, []float64{4.0, 4.25, 4.0, 4.25}, 1.2, 4.12},
		{"ties go up to even", []int{1, 2, 2, 2}, []float64{4.0, 4.75, 4.0, 4.75}, 1.8, 4.38},
		{"no tie", []int{1, 1, 2}, []float64{4.0, 4.0, 4.1}, 1.3, 4.03},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var products []types.Product
			for i := range tt.reviews {
				products = append(products, product(100, tt.reviews[i], tt.ratings[i]))
			}
			o := ComputeOverall(products)
			if *o.Reviews.Mean != tt.wantRev {
				t.Errorf("avg reviews: got %v, want %v", *o.Reviews.Mean, tt.wantRev)
			}
			if *o.Rating.Mean != tt.wantRat {
				t.Errorf("avg rating: got %v, want %v", *o.Rating.Mean, tt.wantRat)
			}
		})
	}

	if got := round(2.675, 2); got != 2.67 {
		t.Errorf("round(2.675, 2) = %v, want 2.67", got)
	}
	if got := round(0.125, 2); got != 0.12 {
		t.Errorf("round(0.125, 2) = %v, want 0.12", got)
	}
}

func TestOverallMissingValuesExcluded(t *testing.T) {
	products := []types.Product{
		{Price: types.Ptr(100)},
		{Price: types.Ptr(300), Brand: types.Ptr("Acme")},
		{Brand: types.Ptr("Acme")},
		{Brand: types.Ptr("Zeta"), Rating: types.Ptr(4.0)},
	}

	o := ComputeOverall(products)
	if o.NumProducts != 4 {
		t.Errorf("NumProducts: got %d, want 4", o.NumProducts)
	}
	if o.Price.Count != 2 || *o.Price.Mean != 200 {
		t.Errorf("price should only use present values: %+v", o.Price)
	}
	if o.Reviews.Present() || o.Reviews.Mean != nil || o.Reviews.Median != nil {
		t.Errorf("reviews should be missing: %+v", o.Reviews)
	}
	brands := o.SortedBrands()
	if len(brands) != 2 || brands[0] != "Acme" || brands[1] != "Zeta" {
		t.Errorf("brands: got %v", brands)
	}
}

func TestOverallEmpty(t *testing.T) {
	o := ComputeOverall(nil)
	if o.NumProducts != 0 {
		t.Errorf("NumProducts: got %d", o.NumProducts)
	}
	for name, s := range map[string]Summary{"price": o.Price, "rating": o.Rating, "reviews": o.Reviews} {
		if s.Mean != nil || s.Median != nil || s.Min != nil || s.Max != nil {
			t.Errorf("%s aggregates should be missing: %+v", name, s)
		}
	}
	if len(o.SortedBrands()) != 0 {
		t.Error("expected no brands")
	}
}

func TestSegmentsExample(t *testing.T) {
	products := []types.Product{
		product(300, 2, 3.0),
		product(100, 5, 4.0),
		product(400, 20, 5.0),
		product(200, 10, 4.5),
	}

	segs := ComputeSegments(products)
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segs))
	}
	for i, name := range SegmentOrder {
		if segs[i].Name != name {
			t.Errorf("segment %d: got %s, want %s", i, segs[i].Name, name)
		}
	}

	eco, _ := segs.Get(Economy)
	std, _ := segs.Get(Standard)
	prem, _ := segs.Get(Premium)

	if !equalInts(prices(eco), []int{100}) {
		t.Errorf("economy: got %v", prices(eco))
	}
	if !equalInts(prices(std), []int{200, 300}) {
		t.Errorf("standard: got %v", prices(std))
	}
	if !equalInts(prices(prem), []int{400}) {
		t.Errorf("premium: got %v", prices(prem))
	}
	if prem.MostPopular == nil || *prem.MostPopular.Price != 400 || prem.MostPopular.Popularity() != 100 {
		t.Errorf("premium most popular: got %+v", prem.MostPopular)
	}
	if *std.PriceMin != 200 || *std.PriceMax != 300 {
		t.Errorf("standard range: got %d-%d", *std.PriceMin, *std.PriceMax)
	}
	if *std.Reviews.Mean != 6.0 || *std.Rating.Median != 3.75 {
		t.Errorf("standard aggregates: reviews %v rating %v", *std.Reviews.Mean, *std.Rating.Median)
	}
}

func TestSegmentSizes(t *testing.T) {
	for n := 4; n <= 23; n++ {
		products := make([]types.Product, n)
		for i := range products {
			products[i] = product((n-i)*10, i, 4.0)
		}

		segs := ComputeSegments(products)
		q := n / 4
		eco, _ := segs.Get(Economy)
		std, _ := segs.Get(Standard)
		prem, _ := segs.Get(Premium)

		if eco.Count != q || prem.Count != q || std.Count != n-2*q {
			t.Errorf("n=%d: sizes %d/%d/%d, want %d/%d/%d",
				n, eco.Count, std.Count, prem.Count, q, n-2*q, q)
		}

		seen := make(map[int]int)
		for _, seg := range segs {
			for _, p := range prices(seg) {
				seen[p]++
			}
		}
		if len(seen) != n {
			t.Errorf("n=%d: %d distinct members, want %d", n, len(seen), n)
		}
		for price, count := range seen {
			if count != 1 {
				t.Errorf("n=%d: price %d appears in %d segments", n, price, count)
			}
		}
	}
}

func TestSegmentsSmallN(t *testing.T) {
	tests := []struct {
		prices      []int
		wantEconomy []int
		wantPremium []int
	}{
		{[]int{50}, []int{}, []int{50}},
		{[]int{70, 50}, []int{}, []int{70}},
		{[]int{70, 50, 60}, []int{}, []int{70}},
	}

	for _, tt := range tests {
		var products []types.Product
		for _, p := range tt.prices {
			products = append(products, product(p, 1, 1))
		}
		segs := ComputeSegments(products)
		eco, _ := segs.Get(Economy)
		std, _ := segs.Get(Standard)
		prem, _ := segs.Get(Premium)

		if std.Count != 0 || std.MostPopular != nil || std.PriceMin != nil {
			t.Errorf("%v: standard should be empty, got %+v", tt.prices, std)
		}
		if !equalInts(prices(eco), tt.wantEconomy) {
			t.Errorf("%v: economy %v, want %v", tt.prices, prices(eco), tt.wantEconomy)
		}
		if !equalInts(prices(prem), tt.wantPremium) {
			t.Errorf("%v: premium %v, want %v", tt.prices, prices(prem), tt.wantPremium)
		}
		if eco.Count == 0 && (eco.MostPopular != nil || eco.Reviews.Mean != nil) {
			t.Errorf("%v: empty economy should have missing aggregates", tt.prices)
		}
	}
}

func TestSegmentsNoPrices(t *testing.T) {
	products := []types.Product{
		{Name: types.Ptr("a"), Rating: types.Ptr(4.0)},
		{Name: types.Ptr("b")},
	}
	if segs := ComputeSegments(products); len(segs) != 0 {
		t.Errorf("expected no segments, got %d", len(segs))
	}
	if segs := ComputeSegments(nil); len(segs) != 0 {
		t.Errorf("expected no segments for nil input, got %d", len(segs))
	}
}

func TestSegmentsIgnoreUnpriced(t *testing.T) {
	products := []types.Product{
		product(100, 1, 1),
		{Name: types.Ptr("no price"), Reviews: types.Ptr(10000), Rating: types.Ptr(5.0)},
		product(200, 1, 1),
		product(300, 1, 1),
		product(400, 1, 1),
	}
	segs := ComputeSegments(products)
	total := 0
	for _, seg := range segs {
		total += seg.Count
		if seg.MostPopular != nil && seg.MostPopular.Price == nil {
			t.Errorf("%s: unpriced product selected as most popular", seg.Name)
		}
	}
	if total != 4 {
		t.Errorf("expected 4 segmented products, got %d", total)
	}
}

func TestStableSortAndTieBreak(t *testing.T) {
	a := types.Product{Name: types.Ptr("first"), Price: types.Ptr(100), Reviews: types.Ptr(10), Rating: types.Ptr(2.0)}
	b := types.Product{Name: types.Ptr("second"), Price: types.Ptr(100), Reviews: types.Ptr(5), Rating: types.Ptr(4.0)}
	c := types.Product{Name: types.Ptr("third"), Price: types.Ptr(100), Reviews: types.Ptr(4), Rating: types.Ptr(5.0)}

	segs := ComputeSegments([]types.Product{a, b, c})
	prem, _ := segs.Get(Premium)
	if name, _ := prem.Members[0].NameValue(); name != "third" {
		t.Errorf("stable sort should keep input order for ties, premium got %q", name)
	}

	std := buildSegment(Standard, []types.Product{a, b, c})
	if name, _ := std.MostPopular.NameValue(); name != "first" {
		t.Errorf("popularity tie should pick the first item, got %q", name)
	}
}

func TestPopularityMissingAsZero(t *testing.T) {
	noRating := types.Product{Name: types.Ptr("x"), Price: types.Ptr(10), Reviews: types.Ptr(100)}
	noReviews := types.Product{Name: types.Ptr("y"), Price: types.Ptr(20), Rating: types.Ptr(5.0)}

	seg := buildSegment(Premium, []types.Product{noRating, noReviews})
	if seg.MostPopular == nil {
		t.Fatal("segment with members must have a most popular item")
	}
	if name, _ := seg.MostPopular.NameValue(); name != "x" {
		t.Errorf("all-zero scores should pick the first item, got %q", name)
	}
	if seg.Rating.Count != 1 || *seg.Rating.Mean != 5.0 {
		t.Errorf("missing rating must not affect the rating mean: %+v", seg.Rating)
	}
}
