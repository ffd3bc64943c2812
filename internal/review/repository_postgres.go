package review

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

const reviewSelect = `
	SELECT r.id, r.product_id, r.user_id, u.username, r.rating, r.title, r.comment,
		r.is_purchased, r.is_approved,
		(SELECT COUNT(*) FROM review_likes l WHERE l.review_id = r.id),
		r.created_at, r.updated_at
	FROM reviews r
	JOIN users u ON u.id = r.user_id
`

const (
	countApprovedQuery = `SELECT COUNT(*) FROM reviews WHERE product_id = $1 AND is_approved`
	listApprovedQuery  = reviewSelect + ` WHERE r.product_id = $1 AND r.is_approved ORDER BY r.created_at DESC, r.id DESC LIMIT $2 OFFSET $3`
	ratingCountsQuery  = `SELECT rating, COUNT(*) FROM reviews WHERE product_id = $1 AND is_approved GROUP BY rating`
	listPendingQuery   = reviewSelect + ` WHERE NOT r.is_approved ORDER BY r.created_at DESC, r.id DESC`
	getReviewQuery     = reviewSelect + ` WHERE r.id = $1`
	getByUserQuery     = reviewSelect + ` WHERE r.user_id = $1 AND r.product_id = $2`

	insertReviewQuery = `
		INSERT INTO reviews (product_id, user_id, rating, title, comment, is_purchased, is_approved)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	updateReviewQuery  = `UPDATE reviews SET rating = $1, title = $2, comment = $3, updated_at = now() WHERE id = $4`
	approveReviewQuery = `UPDATE reviews SET is_approved = $1, updated_at = now() WHERE id = $2`
	deleteReviewQuery  = `DELETE FROM reviews WHERE id = $1`

	unlikeQuery     = `DELETE FROM review_likes WHERE review_id = $1 AND user_id = $2`
	likeQuery       = `INSERT INTO review_likes (review_id, user_id) VALUES ($1, $2) ON CONFLICT (review_id, user_id) DO NOTHING`
	countLikesQuery = `SELECT COUNT(*) FROM review_likes WHERE review_id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListApproved(ctx context.Context, productID, limit, offset int) ([]Review, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, countApprovedQuery, productID).Scan(&total); err != nil {
		return nil, 0, err
	}
	list, err := r.query(ctx, listApprovedQuery, productID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *PostgresRepository) RatingCounts(ctx context.Context, productID int) (map[int]int, error) {
	rows, err := r.db.QueryContext(ctx, ratingCountsQuery, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var rating, n int
		if err := rows.Scan(&rating, &n); err != nil {
			return nil, err
		}
		counts[rating] = n
	}
	return counts, rows.Err()
}

func (r *PostgresRepository) ListPending(ctx context.Context) ([]Review, error) {
	return r.query(ctx, listPendingQuery)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Review, error) {
	return scanReview(r.db.QueryRowContext(ctx, getReviewQuery, id))
}

func (r *PostgresRepository) GetByUserAndProduct(ctx context.Context, userID, productID int) (Review, error) {
	return scanReview(r.db.QueryRowContext(ctx, getByUserQuery, userID, productID))
}

func (r *PostgresRepository) Create(ctx context.Context, rv Review) (Review, error) {
	err := r.db.QueryRowContext(ctx, insertReviewQuery,
		rv.ProductID, rv.UserID, rv.Rating, rv.Title, rv.Comment, rv.IsPurchased, rv.IsApproved,
	).Scan(&rv.ID, &rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return Review{}, ErrAlreadyReviewed
		}
		return Review{}, err
	}
	rv.LikesCount = 0
	return rv, nil
}

func (r *PostgresRepository) Update(ctx context.Context, rv Review) (Review, error) {
	result, err := r.db.ExecContext(ctx, updateReviewQuery, rv.Rating, rv.Title, rv.Comment, rv.ID)
	if err != nil {
		return Review{}, err
	}
	if err := expectAffected(result); err != nil {
		return Review{}, err
	}
	return r.GetByID(ctx, rv.ID)
}

func (r *PostgresRepository) SetApproved(ctx context.Context, id int, approved bool) error {
	result, err := r.db.ExecContext(ctx, approveReviewQuery, approved, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, deleteReviewQuery, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// ToggleLike removes an existing like, or inserts one when there was none.
func (r *PostgresRepository) ToggleLike(ctx context.Context, reviewID, userID int) (bool, int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, unlikeQuery, reviewID, userID)
	if err != nil {
		return false, 0, err
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return false, 0, err
	}
	liked := removed == 0
	if liked {
		if _, err := tx.ExecContext(ctx, likeQuery, reviewID, userID); err != nil {
			if database.HasCode(err, database.ForeignKeyViolation) {
				return false, 0, ErrNotFound
			}
			return false, 0, err
		}
	}
	var count int
	if err := tx.QueryRowContext(ctx, countLikesQuery, reviewID).Scan(&count); err != nil {
		return false, 0, err
	}
	if err := tx.Commit(); err != nil {
		return false, 0, err
	}
	return liked, count, nil
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]Review, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Review, 0)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func expectAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanReview(scanner rowScanner) (Review, error) {
	var rv Review
	err := scanner.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Username, &rv.Rating, &rv.Title, &rv.Comment,
		&rv.IsPurchased, &rv.IsApproved, &rv.LikesCount, &rv.CreatedAt, &rv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Review{}, ErrNotFound
	}
	if err != nil {
		return Review{}, err
	}
	return rv, nil
}
