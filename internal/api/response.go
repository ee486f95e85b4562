package api

import (
	"github.com/IshaanNene/ShelfStat/internal/analytics"
	"github.com/IshaanNene/ShelfStat/internal/pipeline"
	"github.com/IshaanNene/ShelfStat/internal/types"
)

type analyzeResponse struct {
	Query    string          `json:"query"`
	Overall  overallJSON     `json:"overall"`
	Segments []segmentJSON   `json:"segments"`
	Report   string          `json:"report"`
	Products []types.Product `json:"products,omitempty"`
}

type overallJSON struct {
	NumProducts int               `json:"num_products"`
	Price       analytics.Summary `json:"price"`
	Rating      analytics.Summary `json:"rating"`
	Reviews     analytics.Summary `json:"reviews"`
	Brands      []string          `json:"brands"`
}

type segmentJSON struct {
	Name        string            `json:"name"`
	Count       int               `json:"count"`
	PriceMin    *int              `json:"price_min"`
	PriceMax    *int              `json:"price_max"`
	Reviews     analytics.Summary `json:"reviews"`
	Rating      analytics.Summary `json:"rating"`
	MostPopular *types.Product    `json:"most_popular"`
}

func newAnalyzeResponse(res *pipeline.Result, withProducts bool) analyzeResponse {
	out := analyzeResponse{
		Query: res.Query,
		Overall: overallJSON{
			NumProducts: res.Overall.NumProducts,
			Price:       res.Overall.Price,
			Rating:      res.Overall.Rating,
			Reviews:     res.Overall.Reviews,
			Brands:      res.Overall.SortedBrands(),
		},
		Segments: make([]segmentJSON, 0, len(res.Segments)),
		Report:   res.Report,
	}
	for _, seg := range res.Segments {
		out.Segments = append(out.Segments, segmentJSON{
			Name:        string(seg.Name),
			Count:       seg.Count,
			PriceMin:    seg.PriceMin,
			PriceMax:    seg.PriceMax,
			Reviews:     seg.Reviews,
			Rating:      seg.Rating,
			MostPopular: seg.MostPopular,
		})
	}
	if withProducts {
		out.Products = res.Products
	}
	return out
}
