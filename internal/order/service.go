package order

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Recorder receives order metrics.
type Recorder interface {
	OrderPlaced(total decimal.Decimal)
	OrderRejected(reason string)
}

type nopRecorder struct{}

func (nopRecorder) OrderPlaced(decimal.Decimal) {}
func (nopRecorder) OrderRejected(string)        {}

// Service provides business logic for orders.
type Service struct {
	repo     Repository
	metrics  Recorder
	pageSize int
}

// History is one page of a user's orders plus lifetime totals.
type History struct {
	Orders      []Order         `json:"orders"`
	Page        int             `json:"page"`
	PageSize    int             `json:"pageSize"`
	TotalPages  int             `json:"totalPages"`
	HasNext     bool            `json:"hasNext"`
	HasPrevious bool            `json:"hasPrevious"`
	OrderCount  int             `json:"orderCount"`
	TotalSpent  decimal.Decimal `json:"totalSpent"`
}

func NewService(r Repository, rec Recorder, pageSize int) *Service {
	if rec == nil {
		rec = nopRecorder{}
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Service{repo: r, metrics: rec, pageSize: pageSize}
}

// Place turns the user's cart into a paid order. Stock of every line is
// checked under lock before anything is written.
func (s *Service) Place(ctx context.Context, userID int, ship Shipping) (Order, error) {
	if !ship.complete() {
		s.metrics.OrderRejected("shipping")
		return Order{}, ErrMissingShipping
	}

	var placed Order
	err := s.repo.Execute(ctx, func(tx Tx) error {
		lines, err := tx.CartLines(ctx, userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		var shortages []Shortage
		for _, l := range lines {
			if l.Quantity > l.Stock {
				shortages = append(shortages, Shortage{
					ProductID: l.ProductID,
					Name:      l.Name,
					Requested: l.Quantity,
					Available: l.Stock,
				})
			}
		}
		if len(shortages) > 0 {
			return &StockError{Shortages: shortages}
		}

		o := Order{
			UserID:          userID,
			Status:          StatusPending,
			ShippingAddress: strings.TrimSpace(ship.Address),
			PostalCode:      strings.TrimSpace(ship.PostalCode),
			City:            strings.TrimSpace(ship.City),
			Country:         strings.TrimSpace(ship.Country),
			Total:           decimal.Zero,
			Paid:            true,
			Lines:           make([]Line, 0, len(lines)),
		}
		for _, l := range lines {
			productID := l.ProductID
			line := Line{ProductID: &productID, ProductName: l.Name, Quantity: l.Quantity, UnitPrice: l.UnitPrice}
			o.Total = o.Total.Add(line.Total())
			o.Lines = append(o.Lines, line)
		}

		placed, err = tx.CreateOrder(ctx, o)
		if err != nil {
			return err
		}
		for _, l := range lines {
			if err := tx.DecrementStock(ctx, l.ProductID, l.Quantity); err != nil {
				return err
			}
		}
		return tx.ClearCart(ctx, userID)
	})
	if err != nil {
		var stockErr *StockError
		switch {
		case errors.As(err, &stockErr):
			s.metrics.OrderRejected("stock")
		case errors.Is(err, ErrEmptyCart):
			s.metrics.OrderRejected("empty_cart")
		default:
			log.Error().Err(err).Int("user_id", userID).Msg("order placement failed")
		}
		return Order{}, err
	}

	s.metrics.OrderPlaced(placed.Total)
	log.Info().Int("order_id", placed.ID).Int("user_id", userID).Str("total", placed.Total.StringFixed(2)).Msg("order placed")
	return placed, nil
}

// History returns a page of the user's orders. A page past the end falls
// back to the last page.
func (s *Service) History(ctx context.Context, userID, page int) (History, error) {
	if page < 1 {
		page = 1
	}
	orders, total, err := s.repo.ListByUser(ctx, userID, s.pageSize, (page-1)*s.pageSize)
	if err != nil {
		return History{}, err
	}
	totalPages := int(math.Ceil(float64(total) / float64(s.pageSize)))
	if totalPages > 0 && page > totalPages {
		page = totalPages
		orders, _, err = s.repo.ListByUser(ctx, userID, s.pageSize, (page-1)*s.pageSize)
		if err != nil {
			return History{}, err
		}
	}
	spent, err := s.repo.TotalSpent(ctx, userID)
	if err != nil {
		return History{}, err
	}
	return History{
		Orders:      orders,
		Page:        page,
		PageSize:    s.pageSize,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
		OrderCount:  total,
		TotalSpent:  spent,
	}, nil
}

// Get returns an order owned by userID. Other users' orders are ErrNotFound.
func (s *Service) Get(ctx context.Context, id, userID int) (Order, error) {
	return s.repo.GetForUser(ctx, id, userID)
}

func (s *Service) Cancel(ctx context.Context, id, userID int) (Order, error) {
	o, err := s.repo.GetForUser(ctx, id, userID)
	if err != nil {
		return Order{}, err
	}
	if !o.Cancellable() {
		return Order{}, ErrNotCancellable
	}
	n, err := s.repo.Transition(ctx, []int{id}, userID, StatusCancelled)
	if err != nil {
		return Order{}, err
	}
	if n == 0 {
		return Order{}, ErrNotCancellable
	}
	log.Info().Int("order_id", id).Int("user_id", userID).Msg("order cancelled")
	return s.repo.GetForUser(ctx, id, userID)
}

func (s *Service) List(ctx context.Context, status string) ([]Order, error) {
	return s.repo.List(ctx, status)
}

// MarkDelivered and CancelMany only touch orders still in progress.
func (s *Service) MarkDelivered(ctx context.Context, ids []int) (int, error) {
	return s.repo.Transition(ctx, ids, 0, StatusDelivered)
}

func (s *Service) CancelMany(ctx context.Context, ids []int) (int, error) {
	return s.repo.Transition(ctx, ids, 0, StatusCancelled)
}

func (s *Service) HasPurchased(ctx context.Context, userID, productID int) (bool, error) {
	return s.repo.HasPurchased(ctx, userID, productID)
}

func (s *Service) PurchasedProductIDs(ctx context.Context, userID int) ([]int, error) {
	return s.repo.PurchasedProductIDs(ctx, userID)
}
