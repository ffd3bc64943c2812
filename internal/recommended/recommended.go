package recommended

import (
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/wichananm65/uniapp-ecommerce/internal/product"
)

const (
	placeholderBase      = "https://via.placeholder.com/300x200?text="
	missingImage         = placeholderBase + "Image+non+disponible"
	discoverImage        = placeholderBase + "D%C3%A9couvrir+nos+produits"
	catalogueURL         = "/catalogue/"
	descriptionMaxLength = 100
)

// Item is a recommended product card.
type Item struct {
	ID            int             `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Category      string          `json:"category"`
	URL           string          `json:"url"`
	Image         string          `json:"image"`
	Stock         int             `json:"stock"`
	AverageRating float64         `json:"averageRating"`
}

// Suggestion is the lighter card used by the history widget.
type Suggestion struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Price    string `json:"price"`
	ImageURL string `json:"imageUrl"`
	URL      string `json:"url"`
}

var defaultSuggestion = Suggestion{
	ID:       0,
	Title:    "Découvrez nos produits",
	Price:    "0.00",
	ImageURL: discoverImage,
	URL:      catalogueURL,
}

func productURL(id int) string {
	return fmt.Sprintf("/catalogue/produit/%d/", id)
}

func newItem(p product.Product) Item {
	desc := ""
	if p.Description != "" {
		runes := []rune(p.Description)
		if len(runes) > descriptionMaxLength {
			runes = runes[:descriptionMaxLength]
		}
		desc = string(runes) + "..."
	}
	image := p.MainImage
	if image == "" {
		name := []rune(p.Name)
		if len(name) > 20 {
			name = name[:20]
		}
		image = placeholderBase + url.QueryEscape(string(name))
	}
	return Item{
		ID:            p.ID,
		Name:          p.Name,
		Description:   desc,
		Price:         p.Price,
		Category:      p.CategoryName,
		URL:           productURL(p.ID),
		Image:         image,
		Stock:         p.Quantity,
		AverageRating: p.AverageRating,
	}
}

func newSuggestion(p product.Product) Suggestion {
	image := p.MainImage
	if image == "" {
		image = missingImage
	}
	return Suggestion{
		ID:       p.ID,
		Title:    p.Name,
		Price:    p.Price.StringFixed(2),
		ImageURL: image,
		URL:      productURL(p.ID),
	}
}
