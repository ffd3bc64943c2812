package review

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/wichananm65/uniapp-ecommerce/internal/product"
	"github.com/wichananm65/uniapp-ecommerce/internal/user"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrNotPurchased    = errors.New("product was not purchased by this user")
	ErrForbidden       = errors.New("not allowed to modify this review")
	ErrOwnReview       = errors.New("cannot like own review")
)

type ProductReader interface {
	GetByID(ctx context.Context, id int) (product.Product, error)
}

type PurchaseChecker interface {
	HasPurchased(ctx context.Context, userID, productID int) (bool, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id int) (user.User, error)
}

// Actor is the authenticated caller.
type Actor struct {
	UserID int
	Admin  bool
}

func (a Actor) canModify(r Review) bool {
	return a.Admin || r.UserID == a.UserID
}

type Input struct {
	Rating  int
	Title   string
	Comment string
}

type Options struct {
	PageSize    int
	AutoApprove bool
}

type Service struct {
	repo      Repository
	products  ProductReader
	purchases PurchaseChecker
	users     UserReader
	opts      Options
}

// ProductReviews is one page of a product's approved reviews.
type ProductReviews struct {
	ProductID   int      `json:"productId"`
	Reviews     []Review `json:"reviews"`
	Page        int      `json:"page"`
	PageSize    int      `json:"pageSize"`
	TotalPages  int      `json:"totalPages"`
	HasNext     bool     `json:"hasNext"`
	HasPrevious bool     `json:"hasPrevious"`
	Stats       Stats    `json:"stats"`
	UserReview  *Review  `json:"userReview"`
}

func NewService(repo Repository, products ProductReader, purchases PurchaseChecker, users UserReader, opts Options) *Service {
	if opts.PageSize <= 0 {
		opts.PageSize = 5
	}
	return &Service{repo: repo, products: products, purchases: purchases, users: users, opts: opts}
}

func (s *Service) activeProduct(ctx context.Context, productID int) (product.Product, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return product.Product{}, ErrProductNotFound
		}
		return product.Product{}, err
	}
	if !p.IsActive {
		return product.Product{}, ErrProductNotFound
	}
	return p, nil
}

// ForProduct lists approved reviews with stats. viewerID 0 means anonymous;
// otherwise the viewer's own review is attached whatever its approval state.
func (s *Service) ForProduct(ctx context.Context, productID, viewerID, page int) (ProductReviews, error) {
	if _, err := s.activeProduct(ctx, productID); err != nil {
		return ProductReviews{}, err
	}
	if page < 1 {
		page = 1
	}
	list, total, err := s.repo.ListApproved(ctx, productID, s.opts.PageSize, (page-1)*s.opts.PageSize)
	if err != nil {
		return ProductReviews{}, err
	}
	stats, err := s.Stats(ctx, productID)
	if err != nil {
		return ProductReviews{}, err
	}
	totalPages := int(math.Ceil(float64(total) / float64(s.opts.PageSize)))
	out := ProductReviews{
		ProductID:   productID,
		Reviews:     list,
		Page:        page,
		PageSize:    s.opts.PageSize,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
		Stats:       stats,
	}
	if viewerID > 0 {
		own, err := s.repo.GetByUserAndProduct(ctx, viewerID, productID)
		switch {
		case err == nil:
			out.UserReview = &own
		case !errors.Is(err, ErrNotFound):
			return ProductReviews{}, err
		}
	}
	return out, nil
}

func (s *Service) Stats(ctx context.Context, productID int) (Stats, error) {
	counts, err := s.repo.RatingCounts(ctx, productID)
	if err != nil {
		return Stats{}, err
	}
	return newStats(counts), nil
}

// Create records a review. Clients must have bought the product; admins may
// review anything and are approved immediately.
func (s *Service) Create(ctx context.Context, actor Actor, productID int, in Input) (Review, error) {
	if _, err := s.activeProduct(ctx, productID); err != nil {
		return Review{}, err
	}
	if _, err := s.repo.GetByUserAndProduct(ctx, actor.UserID, productID); err == nil {
		return Review{}, ErrAlreadyReviewed
	} else if !errors.Is(err, ErrNotFound) {
		return Review{}, err
	}

	purchased, err := s.purchases.HasPurchased(ctx, actor.UserID, productID)
	if err != nil {
		return Review{}, err
	}
	if !purchased && !actor.Admin {
		return Review{}, ErrNotPurchased
	}

	author, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return Review{}, err
	}

	created, err := s.repo.Create(ctx, Review{
		ProductID:   productID,
		UserID:      actor.UserID,
		Username:    author.Username,
		Rating:      in.Rating,
		Title:       strings.TrimSpace(in.Title),
		Comment:     strings.TrimSpace(in.Comment),
		IsPurchased: purchased,
		IsApproved:  s.opts.AutoApprove || actor.Admin,
	})
	if err != nil {
		return Review{}, err
	}
	log.Info().Int("review_id", created.ID).Int("product_id", productID).Int("user_id", actor.UserID).
		Bool("approved", created.IsApproved).Msg("review created")
	return created, nil
}

func (s *Service) Update(ctx context.Context, actor Actor, id int, in Input) (Review, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Review{}, err
	}
	if !actor.canModify(existing) {
		return Review{}, ErrForbidden
	}
	existing.Rating = in.Rating
	existing.Title = strings.TrimSpace(in.Title)
	existing.Comment = strings.TrimSpace(in.Comment)
	return s.repo.Update(ctx, existing)
}

func (s *Service) Delete(ctx context.Context, actor Actor, id int) (Review, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Review{}, err
	}
	if !actor.canModify(existing) {
		return Review{}, ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return Review{}, err
	}
	return existing, nil
}

// ToggleLike only applies to approved reviews written by someone else.
func (s *Service) ToggleLike(ctx context.Context, userID, id int) (bool, int, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, 0, err
	}
	if !existing.IsApproved {
		return false, 0, ErrNotFound
	}
	if existing.UserID == userID {
		return false, 0, ErrOwnReview
	}
	return s.repo.ToggleLike(ctx, id, userID)
}

func (s *Service) Pending(ctx context.Context) ([]Review, error) {
	return s.repo.ListPending(ctx)
}

func (s *Service) Approve(ctx context.Context, id int) error {
	if err := s.repo.SetApproved(ctx, id, true); err != nil {
		return err
	}
	log.Info().Int("review_id", id).Msg("review approved")
	return nil
}

// Reject removes the review so its author can submit a new one.
func (s *Service) Reject(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	log.Info().Int("review_id", id).Msg("review rejected")
	return nil
}
