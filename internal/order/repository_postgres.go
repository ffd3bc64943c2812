package order

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

const orderColumns = `id, user_id, status, shipping_address, postal_code, city, country, total, paid, created_at, updated_at`

const (
	// Serializes concurrent placements for one user; the next statement then
	// sees whatever the previous placement left in the cart.
	lockCartQuery      = `SELECT id FROM carts WHERE user_id = $1 FOR UPDATE`
	lockCartLinesQuery = `
		SELECT ci.product_id, p.name, ci.quantity, ci.unit_price, p.quantity
		FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		JOIN products p ON p.id = ci.product_id
		WHERE c.user_id = $1
		ORDER BY ci.id
		FOR UPDATE OF p
	`
	insertOrderQuery = `
		INSERT INTO orders (user_id, status, shipping_address, postal_code, city, country, total, paid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	insertLineQuery = `
		INSERT INTO order_lines (order_id, product_id, product_name, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	decrementStockQuery = `
		UPDATE products
		SET quantity = quantity - $1, in_stock = (quantity - $1) > 0, updated_at = now()
		WHERE id = $2
	`
	clearCartQuery = `DELETE FROM cart_items WHERE cart_id IN (SELECT id FROM carts WHERE user_id = $1)`

	countUserOrdersQuery = `SELECT COUNT(*) FROM orders WHERE user_id = $1`
	listUserOrdersQuery  = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	totalSpentQuery      = `SELECT COALESCE(SUM(total), 0) FROM orders WHERE user_id = $1`
	getUserOrderQuery    = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND user_id = $2`
	listOrdersQuery      = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC, id DESC`
	listByStatusQuery    = `SELECT ` + orderColumns + ` FROM orders WHERE status = $1 ORDER BY created_at DESC, id DESC`
	listLinesQuery       = `
		SELECT id, order_id, product_id, product_name, quantity, unit_price
		FROM order_lines
		WHERE order_id = ANY($1::int[])
		ORDER BY id
	`
	transitionQuery = `
		UPDATE orders SET status = $1, updated_at = now()
		WHERE id = ANY($2::int[]) AND status = 'en_cours' AND ($3 = 0 OR user_id = $3)
	`
	hasPurchasedQuery = `
		SELECT EXISTS (
			SELECT 1 FROM order_lines l JOIN orders o ON o.id = l.order_id
			WHERE o.user_id = $1 AND l.product_id = $2
		)
	`
	purchasedProductsQuery = `
		SELECT DISTINCT l.product_id
		FROM order_lines l JOIN orders o ON o.id = l.order_id
		WHERE o.user_id = $1 AND l.product_id IS NOT NULL
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type pgTx struct {
	tx *sql.Tx
}

func (r *PostgresRepository) Execute(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&pgTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (t *pgTx) CartLines(ctx context.Context, userID int) ([]CartLine, error) {
	var cartID int
	if err := t.tx.QueryRowContext(ctx, lockCartQuery, userID).Scan(&cartID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []CartLine{}, nil
		}
		return nil, err
	}

	rows, err := t.tx.QueryContext(ctx, lockCartLinesQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CartLine, 0)
	for rows.Next() {
		var l CartLine
		if err := rows.Scan(&l.ProductID, &l.Name, &l.Quantity, &l.UnitPrice, &l.Stock); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (t *pgTx) CreateOrder(ctx context.Context, o Order) (Order, error) {
	if err := t.tx.QueryRowContext(ctx, insertOrderQuery,
		o.UserID, o.Status, o.ShippingAddress, o.PostalCode, o.City, o.Country, o.Total, o.Paid,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return Order{}, err
	}
	for i := range o.Lines {
		l := &o.Lines[i]
		l.OrderID = o.ID
		if err := t.tx.QueryRowContext(ctx, insertLineQuery, o.ID, l.ProductID, l.ProductName, l.Quantity, l.UnitPrice).Scan(&l.ID); err != nil {
			return Order{}, err
		}
	}
	return o, nil
}

func (t *pgTx) DecrementStock(ctx context.Context, productID, qty int) error {
	_, err := t.tx.ExecContext(ctx, decrementStockQuery, qty, productID)
	return err
}

func (t *pgTx) ClearCart(ctx context.Context, userID int) error {
	_, err := t.tx.ExecContext(ctx, clearCartQuery, userID)
	return err
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID, limit, offset int) ([]Order, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, countUserOrdersQuery, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	orders, err := r.queryOrders(ctx, listUserOrdersQuery, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *PostgresRepository) TotalSpent(ctx context.Context, userID int) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRowContext(ctx, totalSpentQuery, userID).Scan(&total)
	return total, err
}

func (r *PostgresRepository) GetForUser(ctx context.Context, id, userID int) (Order, error) {
	orders, err := r.queryOrders(ctx, getUserOrderQuery, id, userID)
	if err != nil {
		return Order{}, err
	}
	if len(orders) == 0 {
		return Order{}, ErrNotFound
	}
	return orders[0], nil
}

func (r *PostgresRepository) List(ctx context.Context, status string) ([]Order, error) {
	if status == "" {
		return r.queryOrders(ctx, listOrdersQuery)
	}
	return r.queryOrders(ctx, listByStatusQuery, status)
}

func (r *PostgresRepository) Transition(ctx context.Context, ids []int, userID int, status string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := r.db.ExecContext(ctx, transitionQuery, status, pq.Array(ids), userID)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	return int(affected), err
}

func (r *PostgresRepository) HasPurchased(ctx context.Context, userID, productID int) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, hasPurchasedQuery, userID, productID).Scan(&ok)
	return ok, err
}

func (r *PostgresRepository) PurchasedProductIDs(ctx context.Context, userID int) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, purchasedProductsQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// queryOrders loads orders and then their lines in a single extra query.
func (r *PostgresRepository) queryOrders(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	orders := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		orders = append(orders, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int, len(orders))
	index := make(map[int]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
		orders[i].Lines = []Line{}
	}
	lines, err := loadLines(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		i := index[l.OrderID]
		orders[i].Lines = append(orders[i].Lines, l)
	}
	return orders, nil
}

func loadLines(ctx context.Context, q querier, orderIDs []int) ([]Line, error) {
	rows, err := q.QueryContext(ctx, listLinesQuery, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Line, 0)
	for rows.Next() {
		var (
			l         Line
			productID sql.NullInt64
		)
		if err := rows.Scan(&l.ID, &l.OrderID, &productID, &l.ProductName, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, err
		}
		if productID.Valid {
			id := int(productID.Int64)
			l.ProductID = &id
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanOrder(scanner rowScanner) (Order, error) {
	var o Order
	err := scanner.Scan(&o.ID, &o.UserID, &o.Status, &o.ShippingAddress, &o.PostalCode, &o.City, &o.Country,
		&o.Total, &o.Paid, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return o, err
}
