package product

import "math"

// Sort keys accepted by the `tri` query parameter.
const (
	SortNewest    = "date-desc"
	SortPriceAsc  = "prix-asc"
	SortPriceDesc = "prix-desc"
	SortNameAsc   = "nom-asc"
	SortNameDesc  = "nom-desc"

	// internal orderings, not exposed through `tri`
	SortRecentlyUpdated = "maj-desc"
	SortRating          = "note-desc"
)

// ListFilter narrows a listing. Only active products are ever listed.
type ListFilter struct {
	CategoryIDs     []int
	ExcludeID       int
	Query           string
	NewOnly         bool
	PromoOnly       bool
	BestSellersOnly bool
	InStockOnly     bool
	Sort            string
	Limit           int
	Offset          int
}

// Page is one page of a paginated product listing.
type Page struct {
	Items       []Product `json:"items"`
	Page        int       `json:"page"`
	PageSize    int       `json:"pageSize"`
	Total       int       `json:"total"`
	TotalPages  int       `json:"totalPages"`
	HasNext     bool      `json:"hasNext"`
	HasPrevious bool      `json:"hasPrevious"`
}

func newPage(items []Product, page, size, total int) Page {
	totalPages := 0
	if size > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(size)))
	}
	if items == nil {
		items = []Product{}
	}
	return Page{
		Items:       items,
		Page:        page,
		PageSize:    size,
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
}

func validSort(s string) string {
	switch s {
	case SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc:
		return s
	default:
		return SortNewest
	}
}
