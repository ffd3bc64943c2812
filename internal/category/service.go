package category

import (
	"context"
	"strings"

	"github.com/wichananm65/uniapp-ecommerce/internal/slug"
)

// Service provides business logic for categories.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

// ListActive returns active categories ordered by name.
func (s *Service) ListActive(ctx context.Context) ([]Category, error) {
	return s.repo.List(ctx, true)
}

func (s *Service) ListAll(ctx context.Context) ([]Category, error) {
	return s.repo.List(ctx, false)
}

// GetActiveBySlug hides inactive categories behind ErrNotFound.
func (s *Service) GetActiveBySlug(ctx context.Context, slug string) (Category, error) {
	c, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return Category{}, err
	}
	if !c.IsActive {
		return Category{}, ErrNotFound
	}
	return c, nil
}

func (s *Service) Create(ctx context.Context, c Category) (Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Slug = slug.Make(c.Slug); c.Slug == "" {
		c.Slug = slug.Make(c.Name)
	}
	return s.repo.Create(ctx, c)
}

// Update keeps the stored slug unless a new one is given, so public URLs
// survive a rename.
func (s *Service) Update(ctx context.Context, id int, c Category) (Category, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Category{}, err
	}
	c.Name = strings.TrimSpace(c.Name)
	if c.Slug = slug.Make(c.Slug); c.Slug == "" {
		c.Slug = current.Slug
	}
	if c.Slug == "" {
		c.Slug = slug.Make(c.Name)
	}
	return s.repo.Update(ctx, id, c)
}

func (s *Service) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
