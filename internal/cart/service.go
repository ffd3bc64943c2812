package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/wichananm65/uniapp-ecommerce/internal/product"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrProductNotFound = errors.New("product not found")
)

// ProductReader is the slice of the catalog the cart needs.
type ProductReader interface {
	GetByID(ctx context.Context, id int) (product.Product, error)
	ListByIDs(ctx context.Context, ids []int) ([]product.Product, error)
}

// Recorder receives cart metrics.
type Recorder interface {
	CartItemAdded()
}

type nopRecorder struct{}

func (nopRecorder) CartItemAdded() {}

// Service orchestrates cart operations.
type Service struct {
	repo     Repository
	products ProductReader
	metrics  Recorder
}

// AddResult is returned to the storefront after an add.
type AddResult struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	ItemCount int             `json:"itemCount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

func NewService(repo Repository, products ProductReader, rec Recorder) *Service {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Service{repo: repo, products: products, metrics: rec}
}

// Get returns the user's cart, creating it on first access.
func (s *Service) Get(ctx context.Context, userID int) (Cart, error) {
	c, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return Cart{}, err
	}
	if err := s.enrich(ctx, &c); err != nil {
		return Cart{}, err
	}
	c.summarize()
	return c, nil
}

// Add puts qty units of an active product in the cart, on top of what is
// already there, without exceeding the product stock.
func (s *Service) Add(ctx context.Context, userID, productID, qty int) (AddResult, error) {
	p, err := s.activeProduct(ctx, productID)
	if err != nil {
		return AddResult{}, err
	}
	if qty <= 0 {
		return AddResult{}, ErrInvalidQuantity
	}
	if qty > p.Quantity {
		return AddResult{}, &StockError{Available: p.Quantity}
	}

	c, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return AddResult{}, err
	}
	newQty := qty
	for _, it := range c.Items {
		if it.ProductID == productID {
			newQty = it.Quantity + qty
			if newQty > p.Quantity {
				return AddResult{}, &StockError{Available: p.Quantity, InCart: it.Quantity}
			}
			break
		}
	}

	item, err := s.repo.SetItem(ctx, c.ID, productID, newQty, p.DisplayPrice())
	if err != nil {
		return AddResult{}, err
	}
	s.metrics.CartItemAdded()

	updated, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return AddResult{}, err
	}
	updated.summarize()
	log.Debug().Int("user_id", userID).Int("product_id", productID).Int("quantity", newQty).Msg("cart item set")

	return AddResult{
		Success:   true,
		Message:   fmt.Sprintf("%s a été ajouté à votre panier.", p.Name),
		ItemCount: updated.ItemCount,
		Subtotal:  item.subtotal(),
	}, nil
}

// UpdateQuantity sets the quantity of a line. A quantity of zero or less
// removes the line. It reports whether the line was removed.
func (s *Service) UpdateQuantity(ctx context.Context, userID, itemID, qty int) (bool, error) {
	c, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return false, err
	}
	item, ok := findItem(c, itemID)
	if !ok {
		return false, ErrItemNotFound
	}
	if qty <= 0 {
		return true, s.repo.RemoveItem(ctx, c.ID, itemID)
	}

	p, err := s.products.GetByID(ctx, item.ProductID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return false, ErrProductNotFound
		}
		return false, err
	}
	if qty > p.Quantity {
		return false, &StockError{Available: p.Quantity}
	}
	return false, s.repo.UpdateItem(ctx, c.ID, itemID, qty, p.DisplayPrice())
}

// Remove deletes a line of the caller's cart and returns the product name.
func (s *Service) Remove(ctx context.Context, userID, itemID int) (string, error) {
	c, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return "", err
	}
	if _, ok := findItem(c, itemID); !ok {
		return "", ErrItemNotFound
	}
	if err := s.enrich(ctx, &c); err != nil {
		return "", err
	}
	item, _ := findItem(c, itemID)
	if err := s.repo.RemoveItem(ctx, c.ID, itemID); err != nil {
		return "", err
	}
	return item.ProductName, nil
}

// Count is the number of units in the cart.
func (s *Service) Count(ctx context.Context, userID int) (int, error) {
	c, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return 0, err
	}
	c.summarize()
	return c.ItemCount, nil
}

func (s *Service) Clear(ctx context.Context, userID int) error {
	c, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	return s.repo.Clear(ctx, c.ID)
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

// enrich copies product name, slug, image and stock onto the cart lines.
func (s *Service) enrich(ctx context.Context, c *Cart) error {
	if len(c.Items) == 0 {
		return nil
	}
	ids := make([]int, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.products.ListByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[int]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	for i := range c.Items {
		if p, ok := byID[c.Items[i].ProductID]; ok {
			c.Items[i].ProductName = p.Name
			c.Items[i].ProductSlug = p.Slug
			c.Items[i].Image = p.MainImage
			c.Items[i].Stock = p.Quantity
		}
	}
	return nil
}

func findItem(c Cart, itemID int) (Item, bool) {
	for _, it := range c.Items {
		if it.ID == itemID {
			return it, true
		}
	}
	return Item{}, false
}
