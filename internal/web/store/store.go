// Package store keeps front-end accounts and shopping carts in Postgres.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rl1809/storefront/internal/core/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL,
	customer_id   TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS cart_lines (
	user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	product_id TEXT NOT NULL,
	quantity   INT NOT NULL CHECK (quantity > 0),
	added_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, product_id)
);`

const uniqueViolation = "23505"

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateKey, pgErr.ConstraintName)
	}
	return err
}

// CreateUser inserts u and returns its generated id.
func (s *PostgresStore) CreateUser(ctx context.Context, u domain.User) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash, role, customer_id)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		u.Username, strings.ToLower(u.Email), u.PasswordHash, string(u.Role), u.CustomerID,
	).Scan(&id)
	if err != nil {
		return 0, translateError(err)
	}
	return id, nil
}

// GetUserByUsername returns nil when no such user exists.
func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	var role string
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, role, customer_id, created_at
		 FROM users WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &u.CustomerID, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	return &u, nil
}

func (s *PostgresStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	return exists, err
}

func (s *PostgresStore) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, strings.ToLower(email)).Scan(&exists)
	return exists, err
}

func (s *PostgresStore) ListCart(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, product_id, quantity, added_at FROM cart_lines
		 WHERE user_id = $1 ORDER BY added_at, product_id`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanCartLine)
}

func scanCartLine(row pgx.CollectableRow) (domain.CartLine, error) {
	var l domain.CartLine
	err := row.Scan(&l.UserID, &l.ProductID, &l.Quantity, &l.AddedAt)
	return l, err
}

// GetCartLine returns nil when the user has no line for productID.
func (s *PostgresStore) GetCartLine(ctx context.Context, userID int64, productID string) (*domain.CartLine, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, product_id, quantity, added_at FROM cart_lines
		 WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return nil, err
	}
	line, err := pgx.CollectOneRow(rows, scanCartLine)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// AddToCart creates the line or adds quantity to the existing one. The
// original added_at is kept.
func (s *PostgresStore) AddToCart(ctx context.Context, userID int64, productID string, quantity int) (*domain.CartLine, error) {
	rows, err := s.pool.Query(ctx,
		`INSERT INTO cart_lines (user_id, product_id, quantity) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity
		 RETURNING user_id, product_id, quantity, added_at`, userID, productID, quantity)
	if err != nil {
		return nil, err
	}
	line, err := pgx.CollectOneRow(rows, scanCartLine)
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// SetCartQuantity reports false when the line does not exist.
func (s *PostgresStore) SetCartQuantity(ctx context.Context, userID int64, productID string, quantity int) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE cart_lines SET quantity = $3 WHERE user_id = $1 AND product_id = $2`,
		userID, productID, quantity)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) RemoveCartLine(ctx context.Context, userID int64, productID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM cart_lines WHERE user_id = $1 AND product_id = $2`, userID, productID)
	return err
}

// RemoveCartLines deletes the given lines in one statement.
func (s *PostgresStore) RemoveCartLines(ctx context.Context, userID int64, productIDs []string) error {
	if len(productIDs) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`DELETE FROM cart_lines WHERE user_id = $1 AND product_id = ANY($2)`, userID, productIDs)
	return err
}
