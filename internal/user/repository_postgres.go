package user

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wichananm65/uniapp-ecommerce/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const userColumns = `id, username, email, password, first_name, last_name, role, phone, address, city, postal_code, country, created_at, updated_at`

const (
	listUsersQuery         = `SELECT ` + userColumns + ` FROM users ORDER BY id`
	getUserByIDQuery       = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	getUserByEmailQuery    = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	getUserByUsernameQuery = `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	insertUserQuery = `
		INSERT INTO users (username, email, password, first_name, last_name, role, phone, address, city, postal_code, country)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`
	updateUserQuery = `
		UPDATE users
		SET email = $1,
			first_name = $2,
			last_name = $3,
			phone = $4,
			address = $5,
			city = $6,
			postal_code = $7,
			country = $8,
			updated_at = now()
		WHERE id = $9
	`
	updatePasswordQuery = `UPDATE users SET password = $1, updated_at = now() WHERE id = $2`
	updateRoleQuery     = `UPDATE users SET role = $1, updated_at = now() WHERE id = $2`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, listUsersQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (User, error) {
	return r.getOne(ctx, getUserByIDQuery, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.getOne(ctx, getUserByEmailQuery, email)
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (User, error) {
	return r.getOne(ctx, getUserByUsernameQuery, username)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user User) (User, error) {
	err := r.db.QueryRowContext(ctx, insertUserQuery,
		user.Username,
		user.Email,
		user.Password,
		user.FirstName,
		user.LastName,
		user.Role,
		user.Phone,
		user.Address,
		user.City,
		user.PostalCode,
		user.Country,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, mapUniqueViolation(err)
	}
	return user, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int, update User) (User, error) {
	result, err := r.db.ExecContext(ctx, updateUserQuery,
		update.Email,
		update.FirstName,
		update.LastName,
		update.Phone,
		update.Address,
		update.City,
		update.PostalCode,
		update.Country,
		id,
	)
	if err != nil {
		return User{}, mapUniqueViolation(err)
	}
	if err := expectAffected(result); err != nil {
		return User{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id int, hash string) error {
	result, err := r.db.ExecContext(ctx, updatePasswordQuery, hash, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *PostgresRepository) UpdateRole(ctx context.Context, id int, role string) (User, error) {
	result, err := r.db.ExecContext(ctx, updateRoleQuery, role, id)
	if err != nil {
		return User{}, err
	}
	if err := expectAffected(result); err != nil {
		return User{}, err
	}
	return r.GetByID(ctx, id)
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

// mapUniqueViolation turns the users_email_key / users_username_key
// constraint errors into the package sentinels.
func mapUniqueViolation(err error) error {
	if !database.IsUniqueViolation(err) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.Contains(pgErr.ConstraintName, "username") {
		return ErrUsernameExists
	}
	return ErrEmailExists
}

func scanUser(scanner rowScanner) (User, error) {
	user := User{}
	if err := scanner.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Password,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&user.Phone,
		&user.Address,
		&user.City,
		&user.PostalCode,
		&user.Country,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return User{}, err
	}
	return user, nil
}
