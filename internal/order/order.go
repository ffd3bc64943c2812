package order

import (
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

const (
	StatusPending   = "en_cours"
	StatusDelivered = "livre"
	StatusCancelled = "annule"
)

var statusLabels = map[string]string{
	StatusPending:   "En cours",
	StatusDelivered: "Livrée",
	StatusCancelled: "Annulée",
}

// ValidStatus reports whether s is one of the known order statuses.
func ValidStatus(s string) bool {
	_, ok := statusLabels[s]
	return ok
}

// Order represents a purchase made by a user. Orders are listed newest first.
type Order struct {
	ID              int             `json:"orderId"`
	UserID          int             `json:"userId"`
	Status          string          `json:"status"`
	ShippingAddress string          `json:"shippingAddress"`
	PostalCode      string          `json:"postalCode"`
	City            string          `json:"city"`
	Country         string          `json:"country"`
	Total           decimal.Decimal `json:"total"`
	Paid            bool            `json:"paid"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	Lines           []Line          `json:"lines"`
}

// Line snapshots the product name and unit price at purchase time. ProductID
// is nil once the product has been deleted.
type Line struct {
	ID          int             `json:"lineId"`
	OrderID     int             `json:"orderId"`
	ProductID   *int            `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l Line) MarshalJSON() ([]byte, error) {
	type plain Line
	return json.Marshal(struct {
		plain
		LineTotal decimal.Decimal `json:"lineTotal"`
	}{plain(l), l.Total()})
}

// Cancellable is true while the order is still in progress.
func (o Order) Cancellable() bool {
	return o.Status == StatusPending
}

func (o Order) MarshalJSON() ([]byte, error) {
	type plain Order
	if o.Lines == nil {
		o.Lines = []Line{}
	}
	return json.Marshal(struct {
		plain
		StatusLabel string `json:"statusLabel"`
		Cancellable bool   `json:"cancellable"`
	}{plain(o), statusLabels[o.Status], o.Cancellable()})
}

type Shipping struct {
	Address    string `json:"address"`
	PostalCode string `json:"postalCode"`
	City       string `json:"city"`
	Country    string `json:"country"`
}

func (s Shipping) complete() bool {
	return strings.TrimSpace(s.Address) != "" &&
		strings.TrimSpace(s.PostalCode) != "" &&
		strings.TrimSpace(s.City) != "" &&
		strings.TrimSpace(s.Country) != ""
}

// CartLine is a cart line read under lock together with the product stock.
type CartLine struct {
	ProductID int
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Stock     int
}

type Shortage struct {
	ProductID int    `json:"productId"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// StockError aborts a placement when any cart line exceeds its stock.
type StockError struct {
	Shortages []Shortage
}

func (e *StockError) Error() string {
	var b strings.Builder
	b.WriteString("Stock insuffisant pour certains articles :")
	for _, s := range e.Shortages {
		fmt.Fprintf(&b, "\n- %s: %d demandés, %d disponibles", s.Name, s.Requested, s.Available)
	}
	b.WriteString("\n\nVeuillez ajuster les quantités avant de réessayer.")
	return b.String()
}
