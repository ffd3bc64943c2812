package category

import (
	"context"
	"database/sql"
	"errors"

	"github.com/wichananm65/uniapp-ecommerce/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const categoryColumns = `id, name, slug, description, image, is_active, created_at, updated_at`

const (
	listCategoriesQuery       = `SELECT ` + categoryColumns + ` FROM categories ORDER BY name`
	listActiveCategoriesQuery = `SELECT ` + categoryColumns + ` FROM categories WHERE is_active ORDER BY name`
	getCategoryByIDQuery      = `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`
	getCategoryBySlugQuery    = `SELECT ` + categoryColumns + ` FROM categories WHERE slug = $1`
	insertCategoryQuery       = `
		INSERT INTO categories (name, slug, description, image, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	updateCategoryQuery = `
		UPDATE categories
		SET name = $1, slug = $2, description = $3, image = $4, is_active = $5, updated_at = now()
		WHERE id = $6
	`
	deleteCategoryQuery = `DELETE FROM categories WHERE id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, activeOnly bool) ([]Category, error) {
	query := listCategoriesQuery
	if activeOnly {
		query = listActiveCategoriesQuery
	}
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Category, error) {
	return r.getOne(ctx, getCategoryByIDQuery, id)
}

func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (Category, error) {
	return r.getOne(ctx, getCategoryBySlugQuery, slug)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	return c, err
}

func (r *PostgresRepository) Create(ctx context.Context, c Category) (Category, error) {
	err := r.db.QueryRowContext(ctx, insertCategoryQuery, c.Name, c.Slug, c.Description, nullString(c.Image), c.IsActive).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return Category{}, ErrNameExists
		}
		return Category{}, err
	}
	return c, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int, c Category) (Category, error) {
	result, err := r.db.ExecContext(ctx, updateCategoryQuery, c.Name, c.Slug, c.Description, nullString(c.Image), c.IsActive, id)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return Category{}, ErrNameExists
		}
		return Category{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Category{}, err
	}
	if affected == 0 {
		return Category{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete relies on products.category_id ON DELETE SET NULL.
func (r *PostgresRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, deleteCategoryQuery, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func scanCategory(scanner rowScanner) (Category, error) {
	var (
		c     Category
		image sql.NullString
	)
	if err := scanner.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &image, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return Category{}, err
	}
	if image.Valid {
		c.Image = &image.String
	}
	return c, nil
}
