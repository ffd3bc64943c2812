package product

import (
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

var (
	minPrice = decimal.RequireFromString("0.01")
	hundred  = decimal.NewFromInt(100)
)

// Product maps to the `products` table. Category name and slug are joined in
// on read.
type Product struct {
	ID              int                 `json:"productId"`
	Reference       string              `json:"reference"`
	Name            string              `json:"name"`
	Slug            string              `json:"slug"`
	Description     string              `json:"description"`
	Summary         string              `json:"summary"`
	Price           decimal.Decimal     `json:"price"`
	PromoPrice      decimal.NullDecimal `json:"promoPrice"`
	InStock         bool                `json:"inStock"`
	Quantity        int                 `json:"quantity"`
	CategoryID      *int                `json:"categoryId,omitempty"`
	CategoryName    string              `json:"categoryName,omitempty"`
	CategorySlug    string              `json:"categorySlug,omitempty"`
	IsActive        bool                `json:"isActive"`
	IsNew           bool                `json:"isNew"`
	IsBestSeller    bool                `json:"isBestSeller"`
	MetaTitle       string              `json:"metaTitle"`
	MetaDescription string              `json:"metaDescription"`
	AverageRating   float64             `json:"averageRating"`
	MainImage       string              `json:"mainImage,omitempty"`
	PublishedAt     time.Time           `json:"publishedAt"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
	Images          []Image             `json:"images,omitempty"`
	Features        []Feature           `json:"features,omitempty"`
}

type Image struct {
	ID        int    `json:"imageId"`
	ProductID int    `json:"productId"`
	URL       string `json:"url"`
	Alt       string `json:"alt"`
	IsMain    bool   `json:"isMain"`
	Position  int    `json:"order"`
}

// Feature is a named characteristic shown on the product sheet.
type Feature struct {
	ID        int    `json:"featureId"`
	ProductID int    `json:"productId"`
	Name      string `json:"name"`
	Value     string `json:"value"`
	Position  int    `json:"order"`
}

// IsOnSale reports whether a promotional price below the regular price is set.
func (p Product) IsOnSale() bool {
	return p.PromoPrice.Valid && p.PromoPrice.Decimal.LessThan(p.Price)
}

func (p Product) DisplayPrice() decimal.Decimal {
	if p.IsOnSale() {
		return p.PromoPrice.Decimal
	}
	return p.Price
}

// DiscountPercent is the rounded reduction, 0 when the product is not on sale.
func (p Product) DiscountPercent() int {
	if !p.IsOnSale() || p.Price.IsZero() {
		return 0
	}
	return int(p.Price.Sub(p.PromoPrice.Decimal).Div(p.Price).Mul(hundred).Round(0).IntPart())
}

func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	return json.Marshal(struct {
		plain
		IsOnSale        bool            `json:"isOnSale"`
		DisplayPrice    decimal.Decimal `json:"displayPrice"`
		DiscountPercent int             `json:"discountPercent"`
	}{plain(p), p.IsOnSale(), p.DisplayPrice(), p.DiscountPercent()})
}

// mainImageOf picks the flagged main image, falling back to the first by order.
func mainImageOf(images []Image) string {
	for _, img := range images {
		if img.IsMain {
			return img.URL
		}
	}
	if len(images) > 0 {
		return images[0].URL
	}
	return ""
}
