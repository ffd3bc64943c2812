package product

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/wichananm65/uniapp-ecommerce/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const productSelect = `
	SELECT p.id, p.reference, p.name, p.slug, p.description, p.summary, p.price, p.promo_price,
		p.in_stock, p.quantity, p.category_id, COALESCE(c.name, ''), COALESCE(c.slug, ''),
		p.is_active, p.is_new, p.is_best_seller, p.meta_title, p.meta_description,
		COALESCE((SELECT AVG(r.rating)::float8 FROM reviews r WHERE r.product_id = p.id AND r.is_approved), 0),
		COALESCE((SELECT i.url FROM product_images i WHERE i.product_id = p.id ORDER BY i.is_main DESC, i.position, i.id LIMIT 1), ''),
		p.published_at, p.created_at, p.updated_at
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id`

const (
	countProductsQuery = `SELECT COUNT(*) FROM products p LEFT JOIN categories c ON c.id = p.category_id`

	insertProductQuery = `
		INSERT INTO products (reference, name, slug, description, summary, price, promo_price, in_stock, quantity,
			category_id, is_active, is_new, is_best_seller, meta_title, meta_description, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at
	`
	updateProductQuery = `
		UPDATE products
		SET reference = $1, name = $2, slug = $3, description = $4, summary = $5, price = $6, promo_price = $7,
			in_stock = $8, quantity = $9, category_id = $10, is_active = $11, is_new = $12, is_best_seller = $13,
			meta_title = $14, meta_description = $15, published_at = $16, updated_at = now()
		WHERE id = $17
	`
	deleteProductQuery = `DELETE FROM products WHERE id = $1`

	listImagesQuery    = `SELECT id, product_id, url, alt, is_main, position FROM product_images WHERE product_id = $1 ORDER BY position, id`
	countImagesQuery   = `SELECT COUNT(*) FROM product_images WHERE product_id = $1`
	insertImageQuery   = `INSERT INTO product_images (product_id, url, alt, is_main, position) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	clearMainImageExec = `UPDATE product_images SET is_main = FALSE WHERE product_id = $1 AND id <> $2`

	listFeaturesQuery  = `SELECT id, product_id, name, value, position FROM product_features WHERE product_id = $1 ORDER BY position, id`
	insertFeatureQuery = `INSERT INTO product_features (product_id, name, value, position) VALUES ($1, $2, $3, $4) RETURNING id`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// likeEscaper makes the search term match literally under the default
// ILIKE escape character.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// whereClause renders the filter as SQL conditions with positional args.
func whereClause(f ListFilter) (string, []any) {
	conds := []string{"p.is_active"}
	args := make([]any, 0, 4)
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if len(f.CategoryIDs) > 0 {
		conds = append(conds, "p.category_id = ANY("+next(pq.Array(f.CategoryIDs))+"::int[])")
	}
	if f.ExcludeID != 0 {
		conds = append(conds, "p.id <> "+next(f.ExcludeID))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		ph := next("%" + likeEscaper.Replace(q) + "%")
		conds = append(conds, "(p.name ILIKE "+ph+" OR p.description ILIKE "+ph+" OR c.name ILIKE "+ph+")")
	}
	if f.NewOnly {
		conds = append(conds, "p.is_new")
	}
	if f.BestSellersOnly {
		conds = append(conds, "p.is_best_seller")
	}
	if f.PromoOnly {
		conds = append(conds, "p.promo_price IS NOT NULL")
	}
	if f.InStockOnly {
		conds = append(conds, "p.quantity > 0")
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderClause(key string) string {
	switch key {
	case SortPriceAsc:
		return " ORDER BY p.price, p.id"
	case SortPriceDesc:
		return " ORDER BY p.price DESC, p.id"
	case SortNameAsc:
		return " ORDER BY p.name, p.id"
	case SortNameDesc:
		return " ORDER BY p.name DESC, p.id"
	case SortRecentlyUpdated:
		return " ORDER BY p.updated_at DESC, p.id DESC"
	case SortRating:
		return " ORDER BY 19 DESC, p.id"
	default:
		return " ORDER BY p.created_at DESC, p.id DESC"
	}
}

func (r *PostgresRepository) List(ctx context.Context, f ListFilter) ([]Product, int, error) {
	where, args := whereClause(f)

	var total int
	if err := r.db.QueryRowContext(ctx, countProductsQuery+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := productSelect + where + orderClause(f.Sort)
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += " OFFSET $" + strconv.Itoa(len(args))
	}

	items, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *PostgresRepository) ListByIDs(ctx context.Context, ids []int) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}
	return r.query(ctx, productSelect+` WHERE p.id = ANY($1::int[]) ORDER BY p.id`, pq.Array(ids))
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Product, error) {
	return r.getOne(ctx, productSelect+` WHERE p.id = $1`, id)
}

func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (Product, error) {
	return r.getOne(ctx, productSelect+` WHERE p.slug = $1`, slug)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	if p.Images, err = r.images(ctx, p.ID); err != nil {
		return Product{}, err
	}
	if p.Features, err = r.features(ctx, p.ID); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *PostgresRepository) images(ctx context.Context, productID int) ([]Image, error) {
	rows, err := r.db.QueryContext(ctx, listImagesQuery, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Image, 0)
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.ID, &img.ProductID, &img.URL, &img.Alt, &img.IsMain, &img.Position); err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) features(ctx context.Context, productID int) ([]Feature, error) {
	rows, err := r.db.QueryContext(ctx, listFeaturesQuery, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Feature, 0)
	for rows.Next() {
		var f Feature
		if err := rows.Scan(&f.ID, &f.ProductID, &f.Name, &f.Value, &f.Position); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Create(ctx context.Context, p Product) (Product, error) {
	err := r.db.QueryRowContext(ctx, insertProductQuery,
		p.Reference, p.Name, p.Slug, p.Description, p.Summary, p.Price, p.PromoPrice,
		p.InStock, p.Quantity, p.CategoryID, p.IsActive, p.IsNew, p.IsBestSeller,
		p.MetaTitle, p.MetaDescription, p.PublishedAt,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return Product{}, ErrReferenceExists
		}
		return Product{}, err
	}
	return p, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int, p Product) (Product, error) {
	result, err := r.db.ExecContext(ctx, updateProductQuery,
		p.Reference, p.Name, p.Slug, p.Description, p.Summary, p.Price, p.PromoPrice,
		p.InStock, p.Quantity, p.CategoryID, p.IsActive, p.IsNew, p.IsBestSeller,
		p.MetaTitle, p.MetaDescription, p.PublishedAt, id,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return Product{}, ErrReferenceExists
		}
		return Product{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Product{}, err
	}
	if affected == 0 {
		return Product{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, deleteProductQuery, id)
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

// AddImage makes the first image of a product its main image and keeps a
// single main image per product.
func (r *PostgresRepository) AddImage(ctx context.Context, productID int, img Image) (Image, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Image{}, err
	}
	defer tx.Rollback() //nolint:errcheck

	var count int
	if err := tx.QueryRowContext(ctx, countImagesQuery, productID).Scan(&count); err != nil {
		return Image{}, err
	}
	if count == 0 {
		img.IsMain = true
	}
	img.ProductID = productID
	if err := tx.QueryRowContext(ctx, insertImageQuery, productID, img.URL, img.Alt, img.IsMain, img.Position).Scan(&img.ID); err != nil {
		if isForeignKeyViolation(err) {
			return Image{}, ErrNotFound
		}
		return Image{}, err
	}
	if img.IsMain {
		if _, err := tx.ExecContext(ctx, clearMainImageExec, productID, img.ID); err != nil {
			return Image{}, err
		}
	}
	return img, tx.Commit()
}

func (r *PostgresRepository) AddFeature(ctx context.Context, productID int, f Feature) (Feature, error) {
	f.ProductID = productID
	if err := r.db.QueryRowContext(ctx, insertFeatureQuery, productID, f.Name, f.Value, f.Position).Scan(&f.ID); err != nil {
		if isForeignKeyViolation(err) {
			return Feature{}, ErrNotFound
		}
		return Feature{}, err
	}
	return f, nil
}

func isForeignKeyViolation(err error) bool {
	return database.HasCode(err, database.ForeignKeyViolation)
}

func scanProduct(scanner rowScanner) (Product, error) {
	var (
		p          Product
		categoryID sql.NullInt64
	)
	if err := scanner.Scan(
		&p.ID,
		&p.Reference,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.Summary,
		&p.Price,
		&p.PromoPrice,
		&p.InStock,
		&p.Quantity,
		&categoryID,
		&p.CategoryName,
		&p.CategorySlug,
		&p.IsActive,
		&p.IsNew,
		&p.IsBestSeller,
		&p.MetaTitle,
		&p.MetaDescription,
		&p.AverageRating,
		&p.MainImage,
		&p.PublishedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return Product{}, err
	}
	if categoryID.Valid {
		id := int(categoryID.Int64)
		p.CategoryID = &id
	}
	return p, nil
}
