package category

import "time"

// Category groups products in the catalog. Slug defaults to the folded Name.
type Category struct {
	ID          int       `json:"categoryId"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Image       *string   `json:"image,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
