package cart

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	upsertCartQuery = `
		INSERT INTO carts (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id, created_at, updated_at
	`
	listItemsQuery = `
		SELECT id, cart_id, product_id, quantity, unit_price, added_at
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY added_at, id
	`
	upsertItemQuery = `
		INSERT INTO cart_items (cart_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cart_id, product_id) DO UPDATE
		SET quantity = EXCLUDED.quantity, unit_price = EXCLUDED.unit_price
		RETURNING id, added_at
	`
	updateItemQuery = `UPDATE cart_items SET quantity = $1, unit_price = $2 WHERE id = $3 AND cart_id = $4`
	deleteItemQuery = `DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`
	clearCartQuery  = `DELETE FROM cart_items WHERE cart_id = $1`
	touchCartQuery  = `UPDATE carts SET updated_at = now() WHERE id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetOrCreate(ctx context.Context, userID int) (Cart, error) {
	c := Cart{UserID: userID}
	if err := r.db.QueryRowContext(ctx, upsertCartQuery, userID).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return Cart{}, err
	}

	rows, err := r.db.QueryContext(ctx, listItemsQuery, c.ID)
	if err != nil {
		return Cart{}, err
	}
	defer rows.Close()

	c.Items = make([]Item, 0)
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.AddedAt); err != nil {
			return Cart{}, err
		}
		c.Items = append(c.Items, it)
	}
	return c, rows.Err()
}

func (r *PostgresRepository) SetItem(ctx context.Context, cartID, productID, qty int, unitPrice decimal.Decimal) (Item, error) {
	it := Item{CartID: cartID, ProductID: productID, Quantity: qty, UnitPrice: unitPrice}
	if err := r.db.QueryRowContext(ctx, upsertItemQuery, cartID, productID, qty, unitPrice).Scan(&it.ID, &it.AddedAt); err != nil {
		return Item{}, err
	}
	r.touch(ctx, cartID)
	return it, nil
}

func (r *PostgresRepository) UpdateItem(ctx context.Context, cartID, itemID, qty int, unitPrice decimal.Decimal) error {
	result, err := r.db.ExecContext(ctx, updateItemQuery, qty, unitPrice, itemID, cartID)
	if err != nil {
		return err
	}
	if err := expectAffected(result); err != nil {
		return err
	}
	r.touch(ctx, cartID)
	return nil
}

func (r *PostgresRepository) RemoveItem(ctx context.Context, cartID, itemID int) error {
	result, err := r.db.ExecContext(ctx, deleteItemQuery, itemID, cartID)
	if err != nil {
		return err
	}
	if err := expectAffected(result); err != nil {
		return err
	}
	r.touch(ctx, cartID)
	return nil
}

func (r *PostgresRepository) Clear(ctx context.Context, cartID int) error {
	_, err := r.db.ExecContext(ctx, clearCartQuery, cartID)
	return err
}

// touch bumps updated_at; a failure here does not fail the cart change.
func (r *PostgresRepository) touch(ctx context.Context, cartID int) {
	_, _ = r.db.ExecContext(ctx, touchCartQuery, cartID)
}

func expectAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrItemNotFound
	}
	return nil
}
