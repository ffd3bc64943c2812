package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied statement by statement on every boot. Each statement must
// stay idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		username VARCHAR(150) NOT NULL UNIQUE,
		email VARCHAR(254) NOT NULL UNIQUE,
		password TEXT NOT NULL,
		first_name VARCHAR(150) NOT NULL DEFAULT '',
		last_name VARCHAR(150) NOT NULL DEFAULT '',
		role VARCHAR(10) NOT NULL DEFAULT 'client',
		phone VARCHAR(20) NOT NULL DEFAULT '',
		address VARCHAR(255) NOT NULL DEFAULT '',
		city VARCHAR(100) NOT NULL DEFAULT '',
		postal_code VARCHAR(20) NOT NULL DEFAULT '',
		country VARCHAR(100) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id SERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL UNIQUE,
		slug VARCHAR(120) NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		image TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id SERIAL PRIMARY KEY,
		reference VARCHAR(50) NOT NULL UNIQUE,
		name VARCHAR(200) NOT NULL,
		slug VARCHAR(255) NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		summary VARCHAR(255) NOT NULL DEFAULT '',
		price NUMERIC(10,2) NOT NULL CHECK (price >= 0.01),
		promo_price NUMERIC(10,2) CHECK (promo_price IS NULL OR promo_price >= 0.01),
		in_stock BOOLEAN NOT NULL DEFAULT TRUE,
		quantity INT NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		category_id INT REFERENCES categories(id) ON DELETE SET NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		is_new BOOLEAN NOT NULL DEFAULT FALSE,
		is_best_seller BOOLEAN NOT NULL DEFAULT FALSE,
		meta_title VARCHAR(70) NOT NULL DEFAULT '',
		meta_description VARCHAR(160) NOT NULL DEFAULT '',
		published_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS products_category_idx ON products (category_id)`,
	`CREATE TABLE IF NOT EXISTS product_images (
		id SERIAL PRIMARY KEY,
		product_id INT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		alt VARCHAR(200) NOT NULL DEFAULT '',
		is_main BOOLEAN NOT NULL DEFAULT FALSE,
		position INT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS product_features (
		id SERIAL PRIMARY KEY,
		product_id INT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		name VARCHAR(100) NOT NULL,
		value VARCHAR(255) NOT NULL,
		position INT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS carts (
		id SERIAL PRIMARY KEY,
		user_id INT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		id SERIAL PRIMARY KEY,
		cart_id INT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
		product_id INT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		quantity INT NOT NULL CHECK (quantity > 0),
		unit_price NUMERIC(10,2) NOT NULL,
		added_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (cart_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id SERIAL PRIMARY KEY,
		user_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		status VARCHAR(20) NOT NULL DEFAULT 'en_cours',
		shipping_address VARCHAR(250) NOT NULL,
		postal_code VARCHAR(20) NOT NULL,
		city VARCHAR(100) NOT NULL,
		country VARCHAR(100) NOT NULL,
		total NUMERIC(10,2) NOT NULL,
		paid BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS orders_user_idx ON orders (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS order_lines (
		id SERIAL PRIMARY KEY,
		order_id INT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id INT REFERENCES products(id) ON DELETE SET NULL,
		product_name VARCHAR(200) NOT NULL,
		quantity INT NOT NULL CHECK (quantity >= 1),
		unit_price NUMERIC(10,2) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id SERIAL PRIMARY KEY,
		product_id INT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		user_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		rating SMALLINT NOT NULL CHECK (rating BETWEEN 1 AND 5),
		title VARCHAR(200) NOT NULL,
		comment VARCHAR(2000) NOT NULL,
		is_purchased BOOLEAN NOT NULL DEFAULT FALSE,
		is_approved BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS review_likes (
		review_id INT NOT NULL REFERENCES reviews(id) ON DELETE CASCADE,
		user_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		PRIMARY KEY (review_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS translation_history (
		id SERIAL PRIMARY KEY,
		user_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		source_language VARCHAR(10) NOT NULL,
		target_language VARCHAR(10) NOT NULL,
		original_text TEXT NOT NULL,
		translated_text TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate creates every table the storefront needs.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
