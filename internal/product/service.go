package product

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/wichananm65/uniapp-ecommerce/internal/category"
	"github.com/wichananm65/uniapp-ecommerce/internal/slug"
)

const (
	homeBestSellers = 8
	homeNewArrivals = 4
	similarLimit    = 4
)

var (
	ErrInvalidPrice = errors.New("price must be at least 0.01")
)

// CategoryLookup resolves the `categorie` filter to an active category.
type CategoryLookup interface {
	GetActiveBySlug(ctx context.Context, slug string) (category.Category, error)
}

type Options struct {
	SiteName string
	PageSize int
}

type Service struct {
	repo       Repository
	categories CategoryLookup
	opts       Options
}

// Home holds the storefront landing selections.
type Home struct {
	BestSellers []Product `json:"bestSellers"`
	NewArrivals []Product `json:"newArrivals"`
}

type Detail struct {
	Product Product   `json:"product"`
	Similar []Product `json:"similar"`
}

// ListQuery is the public catalogue query: `categorie`, `q`, `tri` and `page`.
type ListQuery struct {
	CategorySlug string
	Query        string
	Sort         string
	Page         int
}

func NewService(repo Repository, categories CategoryLookup, opts Options) *Service {
	if opts.PageSize <= 0 {
		opts.PageSize = 12
	}
	return &Service{repo: repo, categories: categories, opts: opts}
}

func (s *Service) Home(ctx context.Context) (Home, error) {
	best, _, err := s.repo.List(ctx, ListFilter{BestSellersOnly: true, Limit: homeBestSellers})
	if err != nil {
		return Home{}, err
	}
	fresh, _, err := s.repo.List(ctx, ListFilter{NewOnly: true, Limit: homeNewArrivals})
	if err != nil {
		return Home{}, err
	}
	return Home{BestSellers: best, NewArrivals: fresh}, nil
}

// List returns a page of active products. An unknown or inactive category
// slug yields category.ErrNotFound.
func (s *Service) List(ctx context.Context, q ListQuery) (Page, error) {
	f := ListFilter{Query: q.Query, Sort: validSort(q.Sort)}
	if q.CategorySlug != "" {
		cat, err := s.categories.GetActiveBySlug(ctx, q.CategorySlug)
		if err != nil {
			return Page{}, err
		}
		f.CategoryIDs = []int{cat.ID}
	}
	return s.page(ctx, f, q.Page)
}

// Search is List without category filter. A blank query matches nothing.
func (s *Service) Search(ctx context.Context, query string, page int) (Page, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return newPage(nil, 1, s.opts.PageSize, 0), nil
	}
	return s.page(ctx, ListFilter{Query: query}, page)
}

func (s *Service) NewArrivals(ctx context.Context, page int) (Page, error) {
	return s.page(ctx, ListFilter{NewOnly: true, Sort: SortNewest}, page)
}

func (s *Service) Promotions(ctx context.Context, page int) (Page, error) {
	return s.page(ctx, ListFilter{PromoOnly: true, Sort: SortRecentlyUpdated}, page)
}

// Find runs an unpaginated filter; callers set their own Limit.
func (s *Service) Find(ctx context.Context, f ListFilter) ([]Product, error) {
	items, _, err := s.repo.List(ctx, f)
	return items, err
}

func (s *Service) page(ctx context.Context, f ListFilter, page int) (Page, error) {
	if page < 1 {
		page = 1
	}
	f.Limit = s.opts.PageSize
	f.Offset = (page - 1) * s.opts.PageSize
	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return Page{}, err
	}
	return newPage(items, page, s.opts.PageSize, total), nil
}

// Detail returns an active product by slug with up to four similar products
// from the same category.
func (s *Service) Detail(ctx context.Context, slug string) (Detail, error) {
	p, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return Detail{}, err
	}
	if !p.IsActive {
		return Detail{}, ErrNotFound
	}

	similar := []Product{}
	if p.CategoryID != nil {
		similar, _, err = s.repo.List(ctx, ListFilter{
			CategoryIDs: []int{*p.CategoryID},
			ExcludeID:   p.ID,
			Limit:       similarLimit,
		})
		if err != nil {
			return Detail{}, err
		}
	}
	return Detail{Product: p, Similar: similar}, nil
}

func (s *Service) GetByID(ctx context.Context, id int) (Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByIDs(ctx context.Context, ids []int) ([]Product, error) {
	return s.repo.ListByIDs(ctx, ids)
}

func (s *Service) Create(ctx context.Context, p Product) (Product, error) {
	if err := s.prepare(&p); err != nil {
		return Product{}, err
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return Product{}, err
	}
	log.Info().Int("product_id", created.ID).Str("reference", created.Reference).Msg("product created")
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int, p Product) (Product, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if p.Reference == "" {
		p.Reference = current.Reference
	}
	if p.Slug == "" && p.Name == current.Name && p.Reference == current.Reference {
		p.Slug = current.Slug
	}
	if p.PublishedAt.IsZero() {
		p.PublishedAt = current.PublishedAt
	}
	if err := s.prepare(&p); err != nil {
		return Product{}, err
	}
	return s.repo.Update(ctx, id, p)
}

func (s *Service) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) AddImage(ctx context.Context, productID int, img Image) (Image, error) {
	return s.repo.AddImage(ctx, productID, img)
}

func (s *Service) AddFeature(ctx context.Context, productID int, f Feature) (Feature, error) {
	return s.repo.AddFeature(ctx, productID, f)
}

// prepare fills generated fields the same way on create and update.
func (s *Service) prepare(p *Product) error {
	if p.Price.LessThan(minPrice) {
		return ErrInvalidPrice
	}
	if p.PromoPrice.Valid && p.PromoPrice.Decimal.LessThan(minPrice) {
		return ErrInvalidPrice
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Reference == "" {
		p.Reference = strings.ToUpper(uuid.NewString()[:8])
	}
	if p.Slug == "" {
		p.Slug = slug.Make(p.Name + "-" + p.Reference)
	}
	if p.MetaTitle == "" {
		p.MetaTitle = truncate(p.Name+" | "+s.opts.SiteName, 70)
	}
	if p.MetaDescription == "" && p.Summary != "" {
		p.MetaDescription = truncate(p.Summary, 160)
	}
	if p.PublishedAt.IsZero() {
		p.PublishedAt = time.Now().UTC()
	}
	return nil
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
