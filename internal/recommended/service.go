package recommended

import (
	"context"
	"math/rand"

	"github.com/rs/zerolog/log"

	"github.com/wichananm65/uniapp-ecommerce/internal/product"
)

const (
	DefaultTopN         = 6
	DefaultSuggestLimit = 5
	historyLimit        = 5

	// candidatePool bounds how many rated products are read per requested card.
	candidatePool = 5
)

type Catalog interface {
	Find(ctx context.Context, f product.ListFilter) ([]product.Product, error)
	ListByIDs(ctx context.Context, ids []int) ([]product.Product, error)
}

// PurchaseHistory lists the products a user has ordered.
type PurchaseHistory interface {
	PurchasedProductIDs(ctx context.Context, userID int) ([]int, error)
}

// Service builds product recommendations from the catalog and the
// user's order history.
type Service struct {
	catalog Catalog
	history PurchaseHistory
	shuffle func(n int, swap func(i, j int))
}

func NewService(catalog Catalog, history PurchaseHistory) *Service {
	return &Service{catalog: catalog, history: history, shuffle: rand.Shuffle}
}

// Recommendations returns up to topN in-stock products. Users with an order
// history get a random pick; everyone else gets the best rated first.
func (s *Service) Recommendations(ctx context.Context, userID, topN int) ([]Item, error) {
	if topN <= 0 {
		topN = DefaultTopN
	}
	purchased, err := s.purchased(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.catalog.Find(ctx, product.ListFilter{InStockOnly: true, Sort: product.SortRating, Limit: topN * candidatePool})
	if err != nil {
		return nil, err
	}
	if len(purchased) > 0 {
		s.shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
	} else {
		s.shuffleTies(candidates)
	}
	if len(candidates) > topN {
		candidates = candidates[:topN]
	}

	items := make([]Item, 0, len(candidates))
	for _, p := range candidates {
		items = append(items, newItem(p))
	}
	return items, nil
}

// shuffleTies randomises runs of equal rating in a rating-sorted slice.
func (s *Service) shuffleTies(list []product.Product) {
	for start := 0; start < len(list); {
		end := start + 1
		for end < len(list) && list[end].AverageRating == list[start].AverageRating {
			end++
		}
		run := list[start:end]
		s.shuffle(len(run), func(i, j int) { run[i], run[j] = run[j], run[i] })
		start = end
	}
}

func (s *Service) purchased(ctx context.Context, userID int) ([]int, error) {
	if userID <= 0 {
		return nil, nil
	}
	return s.history.PurchasedProductIDs(ctx, userID)
}

// FromHistory suggests in-stock products from the categories the user has
// already ordered from.
func (s *Service) FromHistory(ctx context.Context, userID int) ([]Suggestion, error) {
	ids, err := s.purchased(ctx, userID)
	if err != nil || len(ids) == 0 {
		return []Suggestion{}, err
	}
	bought, err := s.catalog.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool)
	categories := make([]int, 0)
	for _, p := range bought {
		if p.CategoryID != nil && !seen[*p.CategoryID] {
			seen[*p.CategoryID] = true
			categories = append(categories, *p.CategoryID)
		}
	}
	if len(categories) == 0 {
		return []Suggestion{}, nil
	}

	found, err := s.catalog.Find(ctx, product.ListFilter{CategoryIDs: categories, InStockOnly: true, Limit: historyLimit})
	if err != nil {
		return nil, err
	}
	out := make([]Suggestion, 0, len(found))
	for _, p := range found {
		out = append(out, newSuggestion(p))
	}
	return out, nil
}

// Suggestions fills up to limit cards: history-based first, then the best
// rated products. It never returns an empty list.
func (s *Service) Suggestions(ctx context.Context, userID, limit int) ([]Suggestion, error) {
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}
	out, err := s.FromHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(out) > limit {
		out = out[:limit]
	}

	if len(out) < limit {
		seen := make(map[int]bool, len(out))
		for _, sg := range out {
			seen[sg.ID] = true
		}
		best, err := s.catalog.Find(ctx, product.ListFilter{InStockOnly: true, Sort: product.SortRating, Limit: limit + len(out)})
		if err != nil {
			return nil, err
		}
		s.shuffleTies(best)
		for _, p := range best {
			if len(out) >= limit {
				break
			}
			if !seen[p.ID] {
				out = append(out, newSuggestion(p))
			}
		}
	}

	if len(out) == 0 {
		log.Debug().Int("user_id", userID).Msg("no suggestion available, using default card")
		return []Suggestion{defaultSuggestion}, nil
	}
	return out, nil
}
