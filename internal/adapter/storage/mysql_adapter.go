package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/rl1809/storefront/internal/core/domain"
)

const mysqlDuplicateEntry = 1062

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		surname VARCHAR(100) NOT NULL,
		username VARCHAR(100) NOT NULL,
		email VARCHAR(255) NOT NULL,
		shipping_address VARCHAR(500) NOT NULL,
		version INT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(200) NOT NULL,
		description TEXT NOT NULL,
		price DECIMAL(12,2) NOT NULL,
		stock INT NOT NULL,
		image_url VARCHAR(1000) NOT NULL,
		version INT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		CHECK (stock >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id VARCHAR(36) PRIMARY KEY,
		customer_id VARCHAR(36) NOT NULL,
		username VARCHAR(100) NOT NULL,
		product_id VARCHAR(36) NOT NULL,
		product_name VARCHAR(200) NOT NULL,
		product_image_url VARCHAR(1000) NOT NULL,
		quantity INT NOT NULL,
		unit_price DECIMAL(12,2) NOT NULL,
		total_price DECIMAL(14,2) NOT NULL,
		order_date DATETIME(6) NOT NULL,
		status VARCHAR(50) NOT NULL,
		version INT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		INDEX idx_orders_username (username)
	)`,
}

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// Migrate creates the tables when they do not exist yet.
func (m *MySQLAdapter) Migrate(ctx context.Context) error {
	for _, stmt := range mysqlSchema {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func translateExecError(err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateKey, myErr.Message)
	}
	return err
}

// versionedResult maps a zero-row conditional update to ErrOptimisticLock.
func versionedResult(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrOptimisticLock
	}
	return nil
}

const customerColumns = `id, name, surname, username, email, shipping_address, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Surname, &c.Username, &c.Email, &c.ShippingAddress,
		&c.Version, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (m *MySQLAdapter) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	var out []domain.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (m *MySQLAdapter) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	c, err := scanCustomer(m.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query customer: %w", err)
	}
	return &c, nil
}

func (m *MySQLAdapter) CreateCustomer(ctx context.Context, c domain.Customer) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO customers (`+customerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Surname, c.Username, c.Email, c.ShippingAddress,
		c.Version, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert customer: %w", translateExecError(err))
	}
	return nil
}

func (m *MySQLAdapter) UpdateCustomer(ctx context.Context, c domain.Customer) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE customers
		SET name = ?, surname = ?, username = ?, email = ?, shipping_address = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		c.Name, c.Surname, c.Username, c.Email, c.ShippingAddress, c.UpdatedAt,
		c.ID, c.Version,
	)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	return versionedResult(result)
}

func (m *MySQLAdapter) DeleteCustomer(ctx context.Context, id string) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	return nil
}

const productColumns = `id, name, description, price, stock, image_url, version, created_at, updated_at`

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ImageURL,
		&p.Version, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (m *MySQLAdapter) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (m *MySQLAdapter) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(m.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}

func (m *MySQLAdapter) CreateProduct(ctx context.Context, p domain.Product) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.ImageURL,
		p.Version, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", translateExecError(err))
	}
	return nil
}

func (m *MySQLAdapter) UpdateProduct(ctx context.Context, p domain.Product) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE products
		SET name = ?, description = ?, price = ?, stock = ?, image_url = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		p.Name, p.Description, p.Price, p.Stock, p.ImageURL, p.UpdatedAt,
		p.ID, p.Version,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return versionedResult(result)
}

func (m *MySQLAdapter) DeleteProduct(ctx context.Context, id string) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

const orderColumns = `id, customer_id, username, product_id, product_name, product_image_url,
	quantity, unit_price, total_price, order_date, status, version, created_at, updated_at`

func scanOrder(row rowScanner) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.Username, &o.ProductID, &o.ProductName, &o.ProductImageURL,
		&o.Quantity, &o.UnitPrice, &o.TotalPrice, &o.OrderDate, &o.Status, &o.Version,
		&o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (m *MySQLAdapter) ListOrders(ctx context.Context) ([]domain.Order, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders`)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (m *MySQLAdapter) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(m.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	return &o, nil
}

func (m *MySQLAdapter) CreateOrder(ctx context.Context, o domain.Order) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.CustomerID, o.Username, o.ProductID, o.ProductName, o.ProductImageURL,
		o.Quantity, o.UnitPrice, o.TotalPrice, o.OrderDate, o.Status, o.Version,
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", translateExecError(err))
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - ?, version = version + 1, updated_at = ?
		WHERE id = ? AND stock >= ?`,
		o.Quantity, o.CreatedAt, o.ProductID, o.Quantity,
	)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrOutOfStock
	}

	return tx.Commit()
}

func (m *MySQLAdapter) UpdateOrder(ctx context.Context, o domain.Order) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE orders
		SET quantity = ?, total_price = ?, order_date = ?, status = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		o.Quantity, o.TotalPrice, o.OrderDate, o.Status, o.UpdatedAt,
		o.ID, o.Version,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	return versionedResult(result)
}

func (m *MySQLAdapter) DeleteOrder(ctx context.Context, id string) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}
