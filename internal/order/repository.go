package order

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wichananm65/uniapp-ecommerce/internal/cart"
	"github.com/wichananm65/uniapp-ecommerce/internal/product"
)

var (
	ErrNotFound        = errors.New("order not found")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrMissingShipping = errors.New("shipping details are incomplete")
	ErrNotCancellable  = errors.New("order cannot be cancelled")
)

// Tx is the unit of work used to place an order. Every call made through it
// commits or rolls back together.
type Tx interface {
	// CartLines locks the product rows of the user's cart and returns the
	// lines with current stock.
	CartLines(ctx context.Context, userID int) ([]CartLine, error)
	CreateOrder(ctx context.Context, o Order) (Order, error)
	DecrementStock(ctx context.Context, productID, qty int) error
	ClearCart(ctx context.Context, userID int) error
}

type Repository interface {
	// Execute runs fn in one transaction. A non-nil error from fn rolls back.
	Execute(ctx context.Context, fn func(tx Tx) error) error
	ListByUser(ctx context.Context, userID, limit, offset int) ([]Order, int, error)
	TotalSpent(ctx context.Context, userID int) (decimal.Decimal, error)
	GetForUser(ctx context.Context, id, userID int) (Order, error)
	List(ctx context.Context, status string) ([]Order, error)
	// Transition moves the given orders from `en_cours` to status. userID 0
	// skips the owner check. It returns how many orders changed.
	Transition(ctx context.Context, ids []int, userID int, status string) (int, error)
	HasPurchased(ctx context.Context, userID, productID int) (bool, error)
	PurchasedProductIDs(ctx context.Context, userID int) ([]int, error)
}

// CartSource and StockSource are the in-memory cart and catalog stores the
// in-memory repository commits placements against.
type CartSource interface {
	GetOrCreate(ctx context.Context, userID int) (cart.Cart, error)
	ClearForUser(userID int)
}

type StockSource interface {
	GetByID(ctx context.Context, id int) (product.Product, error)
	DecrementStock(id, qty int) error
}

type InMemoryRepository struct {
	txMu       sync.Mutex
	mu         sync.RWMutex
	orders     []Order
	nextID     int
	nextLineID int
	carts      CartSource
	stock      StockSource
}

func NewInMemoryRepository(seed []Order, carts CartSource, stock StockSource) *InMemoryRepository {
	r := &InMemoryRepository{nextID: 1, nextLineID: 1, carts: carts, stock: stock}
	for _, o := range seed {
		r.orders = append(r.orders, o)
		if o.ID >= r.nextID {
			r.nextID = o.ID + 1
		}
		for _, l := range o.Lines {
			if l.ID >= r.nextLineID {
				r.nextLineID = l.ID + 1
			}
		}
	}
	return r
}

type stockChange struct {
	productID, qty int
}

// memoryTx stages writes until Execute commits them.
type memoryTx struct {
	repo     *InMemoryRepository
	created  []Order
	stock    []stockChange
	clearFor []int
}

func (r *InMemoryRepository) Execute(ctx context.Context, fn func(tx Tx) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	tx := &memoryTx{repo: r}
	if err := fn(tx); err != nil {
		return err
	}

	for _, c := range tx.stock {
		if err := r.stock.DecrementStock(c.productID, c.qty); err != nil {
			return err
		}
	}
	for _, userID := range tx.clearFor {
		r.carts.ClearForUser(userID)
	}
	r.mu.Lock()
	r.orders = append(r.orders, tx.created...)
	r.mu.Unlock()
	return nil
}

func (t *memoryTx) CartLines(ctx context.Context, userID int) ([]CartLine, error) {
	c, err := t.repo.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	lines := make([]CartLine, 0, len(c.Items))
	for _, it := range c.Items {
		p, err := t.repo.stock.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, CartLine{
			ProductID: it.ProductID,
			Name:      p.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Stock:     p.Quantity,
		})
	}
	return lines, nil
}

func (t *memoryTx) CreateOrder(_ context.Context, o Order) (Order, error) {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()

	o.ID = t.repo.nextID
	t.repo.nextID++
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now
	for i := range o.Lines {
		o.Lines[i].ID = t.repo.nextLineID
		o.Lines[i].OrderID = o.ID
		t.repo.nextLineID++
	}
	t.created = append(t.created, o)
	return o, nil
}

func (t *memoryTx) DecrementStock(_ context.Context, productID, qty int) error {
	t.stock = append(t.stock, stockChange{productID: productID, qty: qty})
	return nil
}

func (t *memoryTx) ClearCart(_ context.Context, userID int) error {
	t.clearFor = append(t.clearFor, userID)
	return nil
}

func (r *InMemoryRepository) sorted(match func(Order) bool) []Order {
	out := make([]Order, 0)
	for _, o := range r.orders {
		if match(o) {
			o.Lines = append([]Line(nil), o.Lines...)
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *InMemoryRepository) ListByUser(_ context.Context, userID, limit, offset int) ([]Order, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.sorted(func(o Order) bool { return o.UserID == userID })
	total := len(all)
	if offset >= total {
		return []Order{}, total, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (r *InMemoryRepository) TotalSpent(_ context.Context, userID int) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := decimal.Zero
	for _, o := range r.orders {
		if o.UserID == userID {
			total = total.Add(o.Total)
		}
	}
	return total, nil
}

func (r *InMemoryRepository) GetForUser(_ context.Context, id, userID int) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, o := range r.orders {
		if o.ID == id && o.UserID == userID {
			o.Lines = append([]Line(nil), o.Lines...)
			return o, nil
		}
	}
	return Order{}, ErrNotFound
}

func (r *InMemoryRepository) List(_ context.Context, status string) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sorted(func(o Order) bool { return status == "" || o.Status == status }), nil
}

func (r *InMemoryRepository) Transition(_ context.Context, ids []int, userID int, status string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wanted := make(map[int]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	changed := 0
	for i := range r.orders {
		o := &r.orders[i]
		if !wanted[o.ID] || o.Status != StatusPending {
			continue
		}
		if userID != 0 && o.UserID != userID {
			continue
		}
		o.Status = status
		o.UpdatedAt = time.Now().UTC()
		changed++
	}
	return changed, nil
}

func (r *InMemoryRepository) HasPurchased(ctx context.Context, userID, productID int) (bool, error) {
	ids, err := r.PurchasedProductIDs(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == productID {
			return true, nil
		}
	}
	return false, nil
}

func (r *InMemoryRepository) PurchasedProductIDs(_ context.Context, userID int) ([]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := map[int]bool{}
	out := make([]int, 0)
	for _, o := range r.orders {
		if o.UserID != userID {
			continue
		}
		for _, l := range o.Lines {
			if l.ProductID != nil && !seen[*l.ProductID] {
				seen[*l.ProductID] = true
				out = append(out, *l.ProductID)
			}
		}
	}
	return out, nil
}
