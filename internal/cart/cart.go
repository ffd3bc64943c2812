package cart

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Cart is the single cart of an authenticated user.
type Cart struct {
	ID        int             `json:"cartId"`
	UserID    int             `json:"userId"`
	Items     []Item          `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Item is one product line. UnitPrice is the display price captured when the
// line was last added to or updated.
type Item struct {
	ID          int             `json:"itemId"`
	CartID      int             `json:"cartId"`
	ProductID   int             `json:"productId"`
	ProductName string          `json:"productName"`
	ProductSlug string          `json:"productSlug"`
	Image       string          `json:"image,omitempty"`
	Stock       int             `json:"stock"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	AddedAt     time.Time       `json:"addedAt"`
}

func (i Item) subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// summarize recomputes line subtotals and the cart totals.
func (c *Cart) summarize() {
	c.Total = decimal.Zero
	c.ItemCount = 0
	if c.Items == nil {
		c.Items = []Item{}
	}
	for i := range c.Items {
		c.Items[i].Subtotal = c.Items[i].subtotal()
		c.Total = c.Total.Add(c.Items[i].Subtotal)
		c.ItemCount += c.Items[i].Quantity
	}
}

// StockError reports a requested quantity above the available stock.
// InCart is set when the product was already in the cart.
type StockError struct {
	Available int
	InCart    int
}

func (e *StockError) Error() string {
	if e.InCart > 0 {
		return fmt.Sprintf("Quantité non disponible. Vous avez déjà %d article(s) dans votre panier et il ne reste que %d exemplaire(s) en stock.", e.InCart, e.Available)
	}
	return fmt.Sprintf("Stock insuffisant. Il ne reste que %d exemplaire(s) de ce produit.", e.Available)
}
