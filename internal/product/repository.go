package product

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	ErrNotFound        = errors.New("product not found")
	ErrReferenceExists = errors.New("product reference or slug already exists")
)

type Repository interface {
	List(ctx context.Context, f ListFilter) ([]Product, int, error)
	ListByIDs(ctx context.Context, ids []int) ([]Product, error)
	// GetByID and GetBySlug load images and features as well.
	GetByID(ctx context.Context, id int) (Product, error)
	GetBySlug(ctx context.Context, slug string) (Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, id int, p Product) (Product, error)
	Delete(ctx context.Context, id int) error
	AddImage(ctx context.Context, productID int, img Image) (Image, error)
	AddFeature(ctx context.Context, productID int, f Feature) (Feature, error)
}

// InMemoryRepository is a simple in-memory implementation useful for tests and
// seeding local data.
type InMemoryRepository struct {
	mu            sync.RWMutex
	storage       []Product
	nextID        int
	nextImageID   int
	nextFeatureID int
}

func NewInMemoryRepository(seed []Product) *InMemoryRepository {
	r := &InMemoryRepository{
		storage:       make([]Product, 0, len(seed)),
		nextID:        1,
		nextImageID:   1,
		nextFeatureID: 1,
	}
	for _, p := range seed {
		r.storage = append(r.storage, p)
		if p.ID >= r.nextID {
			r.nextID = p.ID + 1
		}
		for _, img := range p.Images {
			if img.ID >= r.nextImageID {
				r.nextImageID = img.ID + 1
			}
		}
		for _, f := range p.Features {
			if f.ID >= r.nextFeatureID {
				r.nextFeatureID = f.ID + 1
			}
		}
	}
	return r
}

func (r *InMemoryRepository) List(_ context.Context, f ListFilter) ([]Product, int, error) {
	r.mu.RLock()
	matched := make([]Product, 0)
	for _, p := range r.storage {
		if matchesFilter(p, f) {
			matched = append(matched, listView(p))
		}
	}
	r.mu.RUnlock()

	sortProducts(matched, f.Sort)
	total := len(matched)

	if f.Offset >= len(matched) {
		return []Product{}, total, nil
	}
	matched = matched[f.Offset:]
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}
	return matched, total, nil
}

func (r *InMemoryRepository) ListByIDs(_ context.Context, ids []int) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[int]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	out := make([]Product, 0, len(ids))
	for _, p := range r.storage {
		if wanted[p.ID] {
			out = append(out, listView(p))
		}
	}
	return out, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.storage {
		if p.ID == id {
			return detailView(p), nil
		}
	}
	return Product{}, ErrNotFound
}

func (r *InMemoryRepository) GetBySlug(_ context.Context, slug string) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.storage {
		if p.Slug == slug {
			return detailView(p), nil
		}
	}
	return Product{}, ErrNotFound
}

func (r *InMemoryRepository) taken(p Product, exceptID int) bool {
	for _, existing := range r.storage {
		if existing.ID == exceptID {
			continue
		}
		if existing.Reference == p.Reference || existing.Slug == p.Slug {
			return true
		}
	}
	return false
}

func (r *InMemoryRepository) Create(_ context.Context, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.taken(p, 0) {
		return Product{}, ErrReferenceExists
	}
	p.ID = r.nextID
	r.nextID++
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.PublishedAt.IsZero() {
		p.PublishedAt = now
	}
	p.Images, p.Features = nil, nil
	r.storage = append(r.storage, p)
	return p, nil
}

func (r *InMemoryRepository) Update(_ context.Context, id int, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.storage {
		if existing.ID != id {
			continue
		}
		if r.taken(p, id) {
			return Product{}, ErrReferenceExists
		}
		p.ID = id
		p.CreatedAt = existing.CreatedAt
		p.UpdatedAt = time.Now().UTC()
		p.Images = existing.Images
		p.Features = existing.Features
		p.AverageRating = existing.AverageRating
		r.storage[i] = p
		return detailView(p), nil
	}
	return Product{}, ErrNotFound
}

func (r *InMemoryRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.storage {
		if r.storage[i].ID == id {
			r.storage = append(r.storage[:i], r.storage[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *InMemoryRepository) AddImage(_ context.Context, productID int, img Image) (Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.storage {
		p := &r.storage[i]
		if p.ID != productID {
			continue
		}
		if len(p.Images) == 0 {
			img.IsMain = true
		}
		if img.IsMain {
			for j := range p.Images {
				p.Images[j].IsMain = false
			}
		}
		img.ID = r.nextImageID
		img.ProductID = productID
		r.nextImageID++
		p.Images = append(p.Images, img)
		sort.SliceStable(p.Images, func(a, b int) bool { return p.Images[a].Position < p.Images[b].Position })
		return img, nil
	}
	return Image{}, ErrNotFound
}

func (r *InMemoryRepository) AddFeature(_ context.Context, productID int, f Feature) (Feature, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.storage {
		p := &r.storage[i]
		if p.ID != productID {
			continue
		}
		f.ID = r.nextFeatureID
		f.ProductID = productID
		r.nextFeatureID++
		p.Features = append(p.Features, f)
		sort.SliceStable(p.Features, func(a, b int) bool { return p.Features[a].Position < p.Features[b].Position })
		return f, nil
	}
	return Feature{}, ErrNotFound
}

func matchesFilter(p Product, f ListFilter) bool {
	if !p.IsActive {
		return false
	}
	if f.ExcludeID != 0 && p.ID == f.ExcludeID {
		return false
	}
	if len(f.CategoryIDs) > 0 {
		if p.CategoryID == nil || !containsInt(f.CategoryIDs, *p.CategoryID) {
			return false
		}
	}
	if f.NewOnly && !p.IsNew {
		return false
	}
	if f.BestSellersOnly && !p.IsBestSeller {
		return false
	}
	if f.PromoOnly && !p.PromoPrice.Valid {
		return false
	}
	if f.InStockOnly && p.Quantity <= 0 {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) &&
			!strings.Contains(strings.ToLower(p.CategoryName), q) {
			return false
		}
	}
	return true
}

func sortProducts(items []Product, key string) {
	var less func(a, b Product) bool
	switch key {
	case SortPriceAsc:
		less = func(a, b Product) bool { return a.Price.LessThan(b.Price) }
	case SortPriceDesc:
		less = func(a, b Product) bool { return a.Price.GreaterThan(b.Price) }
	case SortNameAsc:
		less = func(a, b Product) bool { return a.Name < b.Name }
	case SortNameDesc:
		less = func(a, b Product) bool { return a.Name > b.Name }
	case SortRecentlyUpdated:
		less = func(a, b Product) bool { return a.UpdatedAt.After(b.UpdatedAt) }
	case SortRating:
		less = func(a, b Product) bool { return a.AverageRating > b.AverageRating }
	default:
		less = func(a, b Product) bool {
			if a.CreatedAt.Equal(b.CreatedAt) {
				return a.ID > b.ID
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
}

// listView matches what the Postgres listing returns: no images or features,
// only the main image URL.
func listView(p Product) Product {
	p.MainImage = mainImageOf(p.Images)
	p.Images, p.Features = nil, nil
	return p
}

func detailView(p Product) Product {
	p.MainImage = mainImageOf(p.Images)
	p.Images = append([]Image(nil), p.Images...)
	p.Features = append([]Feature(nil), p.Features...)
	return p
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// DecrementStock lowers the quantity and clears InStock once nothing remains.
// The order package uses it to commit an in-memory placement.
func (r *InMemoryRepository) DecrementStock(id, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.storage {
		if r.storage[i].ID == id {
			r.storage[i].Quantity -= qty
			if r.storage[i].Quantity <= 0 {
				r.storage[i].InStock = false
			}
			return nil
		}
	}
	return ErrNotFound
}
