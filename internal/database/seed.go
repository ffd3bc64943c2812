package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/wichananm65/uniapp-ecommerce/internal/slug"
)

type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
}

type seedCategory struct {
	name, description string
}

type seedProduct struct {
	reference, name, summary, price, promo string
	quantity                               int
	category                               string
	isNew, isBestSeller                    bool
}

var demoCategories = []seedCategory{
	{"Électronique", "Ordinateurs, téléphones et accessoires."},
	{"Livres", "Romans, essais et bandes dessinées."},
	{"Maison", "Tout pour la maison."},
}

var demoProducts = []seedProduct{
	{"ORD-001", "Ordinateur portable 14 pouces", "Léger et autonome.", "899.00", "799.00", 5, "Électronique", true, true},
	{"TEL-001", "Téléphone 5G", "Écran OLED 6,1 pouces.", "499.00", "", 12, "Électronique", true, false},
	{"LIV-001", "Le Petit Prince", "Édition illustrée.", "9.90", "", 40, "Livres", false, true},
	{"MAI-001", "Lampe de bureau", "LED à intensité variable.", "34.50", "29.90", 0, "Maison", false, false},
}

// Seed inserts demo categories, products and an admin account. Tables that
// already hold rows are left alone.
func Seed(ctx context.Context, db *sql.DB, opts SeedOptions) error {
	var categoryCount int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&categoryCount); err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if categoryCount == 0 {
		for _, c := range demoCategories {
			if _, err := db.ExecContext(ctx,
				`INSERT INTO categories (name, slug, description) VALUES ($1, $2, $3)`,
				c.name, slug.Make(c.name), c.description,
			); err != nil {
				log.Warn().Err(err).Str("category", c.name).Msg("seed category skipped")
			}
		}
	}

	var productCount int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&productCount); err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if productCount == 0 {
		for _, p := range demoProducts {
			var promo any
			if p.promo != "" {
				promo = p.promo
			}
			if _, err := db.ExecContext(ctx, `
				INSERT INTO products (reference, name, slug, summary, price, promo_price, in_stock, quantity,
					category_id, is_new, is_best_seller, meta_title, meta_description)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8,
					(SELECT id FROM categories WHERE name = $9), $10, $11, $12, $13)`,
				p.reference, p.name, slug.Make(p.name+"-"+p.reference), p.summary, p.price, promo,
				p.quantity > 0, p.quantity, p.category, p.isNew, p.isBestSeller, p.name, p.summary,
			); err != nil {
				log.Warn().Err(err).Str("reference", p.reference).Msg("seed product skipped")
			}
		}
	}

	if opts.AdminEmail == "" || opts.AdminPassword == "" {
		return nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `
		INSERT INTO users (username, email, password, role)
		VALUES ('admin', $1, $2, 'admin')
		ON CONFLICT (email) DO NOTHING`,
		opts.AdminEmail, string(hashed),
	); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	return nil
}
