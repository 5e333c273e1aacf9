package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Apurer/inventory-service/internal/domains/inventory/domain"
	"github.com/Apurer/inventory-service/internal/domains/inventory/ports"
)

var _ ports.Backend = (*Backend)(nil)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS parts (
		id BIGINT NOT NULL PRIMARY KEY,
		seq BIGINT NOT NULL AUTO_INCREMENT UNIQUE,
		name VARCHAR(255) NOT NULL,
		price DECIMAL(10,2) NOT NULL,
		stock INT NOT NULL,
		min_stock INT NOT NULL,
		max_stock INT NOT NULL,
		kind VARCHAR(16) NOT NULL,
		machine_id BIGINT NULL,
		company_name VARCHAR(255) NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_parts_name (name)
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id BIGINT NOT NULL PRIMARY KEY,
		seq BIGINT NOT NULL AUTO_INCREMENT UNIQUE,
		name VARCHAR(255) NOT NULL,
		price DECIMAL(10,2) NOT NULL,
		stock INT NOT NULL,
		min_stock INT NOT NULL,
		max_stock INT NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_products_name (name)
	)`,
	`CREATE TABLE IF NOT EXISTS product_parts (
		product_id BIGINT NOT NULL,
		position INT NOT NULL,
		part_id BIGINT NOT NULL,
		PRIMARY KEY (product_id, position),
		INDEX idx_product_parts_part (part_id)
	)`,
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Backend persists the inventory in MySQL or MariaDB through database/sql.
type Backend struct {
	db *sql.DB
	q  queryer
}

func NewBackend(db *sql.DB) *Backend {
	if db == nil {
		return &Backend{}
	}
	return &Backend{db: db, q: db}
}

// EnsureSchema creates the inventory tables when they are missing.
func (b *Backend) EnsureSchema(ctx context.Context) error {
	if err := b.ensureDB(); err != nil {
		return err
	}
	for _, stmt := range schema {
		if _, err := b.q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

func (b *Backend) LoadAllParts(ctx context.Context) ([]domain.Part, error) {
	if err := b.ensureDB(); err != nil {
		return nil, err
	}
	rows, err := b.q.QueryContext(ctx, `
		SELECT id, name, price, stock, min_stock, max_stock, kind, machine_id, company_name
		FROM parts ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query parts: %w", err)
	}
	defer rows.Close()

	var parts []domain.Part
	for rows.Next() {
		var (
			part      domain.Part
			kind      string
			machineID sql.NullInt64
			company   sql.NullString
		)
		if err := rows.Scan(&part.ID, &part.Name, &part.Price, &part.Stock, &part.Min, &part.Max, &kind, &machineID, &company); err != nil {
			return nil, fmt.Errorf("scan part: %w", err)
		}
		part.Kind = domain.PartKind(kind)
		part.MachineID = machineID.Int64
		part.CompanyName = company.String
		parts = append(parts, part)
	}
	return parts, rows.Err()
}

func (b *Backend) LoadAllProducts(ctx context.Context) ([]domain.Product, error) {
	if err := b.ensureDB(); err != nil {
		return nil, err
	}
	associations, err := b.loadAssociations(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := b.q.QueryContext(ctx, `
		SELECT id, name, price, stock, min_stock, max_stock
		FROM products ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(&product.ID, &product.Name, &product.Price, &product.Stock, &product.Min, &product.Max); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		product.AssociatedPartIDs = associations[product.ID]
		products = append(products, product)
	}
	return products, rows.Err()
}

func (b *Backend) loadAssociations(ctx context.Context) (map[int64][]int64, error) {
	rows, err := b.q.QueryContext(ctx, `
		SELECT product_id, part_id FROM product_parts ORDER BY product_id, position`)
	if err != nil {
		return nil, fmt.Errorf("query associations: %w", err)
	}
	defer rows.Close()

	associations := map[int64][]int64{}
	for rows.Next() {
		var productID, partID int64
		if err := rows.Scan(&productID, &partID); err != nil {
			return nil, fmt.Errorf("scan association: %w", err)
		}
		associations[productID] = append(associations[productID], partID)
	}
	return associations, rows.Err()
}

func (b *Backend) InsertPart(ctx context.Context, part domain.Part) error {
	if err := b.ensureDB(); err != nil {
		return err
	}
	machineID, company := variantColumns(part)
	_, err := b.q.ExecContext(ctx, `
		INSERT INTO parts (id, name, price, stock, min_stock, max_stock, kind, machine_id, company_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		part.ID, part.Name, part.Price, part.Stock, part.Min, part.Max, string(part.Kind), machineID, company,
	)
	if err != nil {
		return fmt.Errorf("insert part: %w", err)
	}
	return nil
}

func (b *Backend) InsertProduct(ctx context.Context, product domain.Product) error {
	if err := b.ensureDB(); err != nil {
		return err
	}
	_, err := b.q.ExecContext(ctx, `
		INSERT INTO products (id, name, price, stock, min_stock, max_stock)
		VALUES (?, ?, ?, ?, ?, ?)`,
		product.ID, product.Name, product.Price, product.Stock, product.Min, product.Max,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (b *Backend) UpdatePart(ctx context.Context, part domain.Part) error {
	if err := b.ensureDB(); err != nil {
		return err
	}
	machineID, company := variantColumns(part)
	result, err := b.q.ExecContext(ctx, `
		UPDATE parts
		SET name = ?, price = ?, stock = ?, min_stock = ?, max_stock = ?, kind = ?, machine_id = ?, company_name = ?
		WHERE id = ?`,
		part.Name, part.Price, part.Stock, part.Min, part.Max, string(part.Kind), machineID, company, part.ID,
	)
	if err != nil {
		return fmt.Errorf("update part: %w", err)
	}
	return b.matched(ctx, result, "parts", part.ID)
}

func (b *Backend) UpdateProduct(ctx context.Context, product domain.Product) error {
	if err := b.ensureDB(); err != nil {
		return err
	}
	result, err := b.q.ExecContext(ctx, `
		UPDATE products
		SET name = ?, price = ?, stock = ?, min_stock = ?, max_stock = ?
		WHERE id = ?`,
		product.Name, product.Price, product.Stock, product.Min, product.Max, product.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return b.matched(ctx, result, "products", product.ID)
}

func (b *Backend) DeletePart(ctx context.Context, id int64) error {
	if err := b.ensureDB(); err != nil {
		return err
	}
	result, err := b.q.ExecContext(ctx, `DELETE FROM parts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete part: %w", err)
	}
	return notFoundIfNone(result, "part", id)
}

func (b *Backend) DeleteProduct(ctx context.Context, id int64) error {
	if err := b.ensureDB(); err != nil {
		return err
	}
	result, err := b.q.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return notFoundIfNone(result, "product", id)
}

func (b *Backend) InsertAssociation(ctx context.Context, productID, partID int64) error {
	if err := b.ensureDB(); err != nil {
		return err
	}
	_, err := b.q.ExecContext(ctx, `
		INSERT INTO product_parts (product_id, position, part_id)
		SELECT ?, COALESCE(MAX(position) + 1, 0), ? FROM product_parts WHERE product_id = ?`,
		productID, partID, productID,
	)
	if err != nil {
		return fmt.Errorf("insert association: %w", err)
	}
	return nil
}

func (b *Backend) DeleteAssociationsFor(ctx context.Context, productID int64) error {
	if err := b.ensureDB(); err != nil {
		return err
	}
	if _, err := b.q.ExecContext(ctx, `DELETE FROM product_parts WHERE product_id = ?`, productID); err != nil {
		return fmt.Errorf("delete associations: %w", err)
	}
	return nil
}

// Atomic runs fn in a transaction. Calls made on an already transactional
// backend join the enclosing transaction.
func (b *Backend) Atomic(ctx context.Context, fn func(tx ports.Backend) error) error {
	if err := b.ensureDB(); err != nil {
		return err
	}
	if b.db == nil {
		return fn(b)
	}
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Backend{q: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

func (b *Backend) ensureDB() error {
	if b == nil || b.q == nil {
		return errors.New("mysql inventory backend not configured")
	}
	return nil
}

// matched distinguishes a missing row from an update that changed nothing,
// since MySQL reports only changed rows as affected.
func (b *Backend) matched(ctx context.Context, result sql.Result, table string, id int64) error {
	if rows, _ := result.RowsAffected(); rows > 0 {
		return nil
	}
	var exists int
	err := b.q.QueryRowContext(ctx, fmt.Sprintf(`SELECT 1 FROM %s WHERE id = ?`, table), id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %d", ports.ErrNotFound, table, id)
	}
	return err
}

func notFoundIfNone(result sql.Result, kind string, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s %d", ports.ErrNotFound, kind, id)
	}
	return nil
}

func variantColumns(part domain.Part) (sql.NullInt64, sql.NullString) {
	switch part.Kind {
	case domain.KindInHouse:
		return sql.NullInt64{Int64: part.MachineID, Valid: true}, sql.NullString{}
	case domain.KindOutsourced:
		return sql.NullInt64{}, sql.NullString{String: part.CompanyName, Valid: true}
	default:
		return sql.NullInt64{}, sql.NullString{}
	}
}
