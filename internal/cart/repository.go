package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrItemNotFound = errors.New("cart item not found")
)

// Repository stores carts and their lines. Items come back without product
// details; the service fills those in.
type Repository interface {
	GetOrCreate(ctx context.Context, userID int) (Cart, error)
	// SetItem inserts the (cart, product) line or overwrites its quantity and price.
	SetItem(ctx context.Context, cartID, productID, qty int, unitPrice decimal.Decimal) (Item, error)
	UpdateItem(ctx context.Context, cartID, itemID, qty int, unitPrice decimal.Decimal) error
	RemoveItem(ctx context.Context, cartID, itemID int) error
	Clear(ctx context.Context, cartID int) error
}

type memoryCart struct {
	cart  Cart
	items []Item
}

type InMemoryRepository struct {
	mu         sync.RWMutex
	carts      map[int]*memoryCart
	nextCartID int
	nextItemID int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		carts:      make(map[int]*memoryCart),
		nextCartID: 1,
		nextItemID: 1,
	}
}

func (r *InMemoryRepository) GetOrCreate(_ context.Context, userID int) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	mc, ok := r.carts[userID]
	if !ok {
		now := time.Now().UTC()
		mc = &memoryCart{cart: Cart{ID: r.nextCartID, UserID: userID, CreatedAt: now, UpdatedAt: now}}
		r.nextCartID++
		r.carts[userID] = mc
	}
	out := mc.cart
	out.Items = append([]Item{}, mc.items...)
	return out, nil
}

func (r *InMemoryRepository) byCartID(cartID int) *memoryCart {
	for _, mc := range r.carts {
		if mc.cart.ID == cartID {
			return mc
		}
	}
	return nil
}

func (r *InMemoryRepository) SetItem(_ context.Context, cartID, productID, qty int, unitPrice decimal.Decimal) (Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	mc := r.byCartID(cartID)
	if mc == nil {
		return Item{}, ErrItemNotFound
	}
	mc.cart.UpdatedAt = time.Now().UTC()
	for i := range mc.items {
		if mc.items[i].ProductID == productID {
			mc.items[i].Quantity = qty
			mc.items[i].UnitPrice = unitPrice
			return mc.items[i], nil
		}
	}
	item := Item{
		ID:        r.nextItemID,
		CartID:    cartID,
		ProductID: productID,
		Quantity:  qty,
		UnitPrice: unitPrice,
		AddedAt:   time.Now().UTC(),
	}
	r.nextItemID++
	mc.items = append(mc.items, item)
	return item, nil
}

func (r *InMemoryRepository) UpdateItem(_ context.Context, cartID, itemID, qty int, unitPrice decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	mc := r.byCartID(cartID)
	if mc == nil {
		return ErrItemNotFound
	}
	for i := range mc.items {
		if mc.items[i].ID == itemID {
			mc.items[i].Quantity = qty
			mc.items[i].UnitPrice = unitPrice
			mc.cart.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrItemNotFound
}

func (r *InMemoryRepository) RemoveItem(_ context.Context, cartID, itemID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	mc := r.byCartID(cartID)
	if mc == nil {
		return ErrItemNotFound
	}
	for i := range mc.items {
		if mc.items[i].ID == itemID {
			mc.items = append(mc.items[:i], mc.items[i+1:]...)
			mc.cart.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrItemNotFound
}

func (r *InMemoryRepository) Clear(_ context.Context, cartID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if mc := r.byCartID(cartID); mc != nil {
		mc.items = nil
		mc.cart.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// ClearForUser empties a user's cart. The order package calls it after a
// placement committed against this store.
func (r *InMemoryRepository) ClearForUser(userID int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if mc, ok := r.carts[userID]; ok {
		mc.items = nil
	}
}
