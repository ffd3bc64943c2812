package category

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	ErrNotFound   = errors.New("category not found")
	ErrNameExists = errors.New("category name already exists")
)

type Repository interface {
	List(ctx context.Context, activeOnly bool) ([]Category, error)
	GetByID(ctx context.Context, id int) (Category, error)
	GetBySlug(ctx context.Context, slug string) (Category, error)
	Create(ctx context.Context, c Category) (Category, error)
	Update(ctx context.Context, id int, c Category) (Category, error)
	Delete(ctx context.Context, id int) error
}

type InMemoryRepository struct {
	mu         sync.RWMutex
	categories []Category
	nextID     int
}

func NewInMemoryRepository(seed []Category) *InMemoryRepository {
	repo := &InMemoryRepository{categories: make([]Category, 0, len(seed)), nextID: 1}
	for _, c := range seed {
		repo.categories = append(repo.categories, c)
		if c.ID >= repo.nextID {
			repo.nextID = c.ID + 1
		}
	}
	return repo
}

func (r *InMemoryRepository) List(_ context.Context, activeOnly bool) ([]Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Category, 0, len(r.categories))
	for _, c := range r.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return Category{}, ErrNotFound
}

func (r *InMemoryRepository) GetBySlug(_ context.Context, slug string) (Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return Category{}, ErrNotFound
}

func (r *InMemoryRepository) nameTaken(name string, exceptID int) bool {
	for _, c := range r.categories {
		if c.ID != exceptID && (strings.EqualFold(c.Name, name)) {
			return true
		}
	}
	return false
}

func (r *InMemoryRepository) Create(_ context.Context, c Category) (Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.nameTaken(c.Name, 0) {
		return Category{}, ErrNameExists
	}
	c.ID = r.nextID
	r.nextID++
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	r.categories = append(r.categories, c)
	return c, nil
}

func (r *InMemoryRepository) Update(_ context.Context, id int, update Category) (Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, c := range r.categories {
		if c.ID != id {
			continue
		}
		if r.nameTaken(update.Name, id) {
			return Category{}, ErrNameExists
		}
		c.Name = update.Name
		c.Slug = update.Slug
		c.Description = update.Description
		c.Image = update.Image
		c.IsActive = update.IsActive
		c.UpdatedAt = time.Now().UTC()
		r.categories[i] = c
		return c, nil
	}
	return Category{}, ErrNotFound
}

func (r *InMemoryRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, c := range r.categories {
		if c.ID == id {
			r.categories = append(r.categories[:i], r.categories[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
