package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Products is the postgres-backed product repository.
type Products struct {
	db *sql.DB
}

// NewProducts creates a product repository.
func NewProducts(db *sql.DB) *Products {
	return &Products{db: db}
}

const productColumns = `id, name, description, price, quantity, admin_username, image_url, category`

func scanProduct(row interface{ Scan(...interface{}) error }) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity,
		&p.AdminUsername, &p.ImageURL, &p.Category)
	return p, err
}

// Create inserts a product. A zero ID asks the store to allocate the
// first free 4-digit id in the 1000..9999 range.
func (s *Products) Create(ctx context.Context, p *Product) error {
	if p.ID == 0 {
		id, err := s.nextAvailableID(ctx)
		if err != nil {
			return err
		}
		p.ID = id
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, price, quantity, admin_username, image_url, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.Name, p.Description, p.Price, p.Quantity, p.AdminUsername, p.ImageURL, p.Category,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// nextAvailableID returns the lowest unused id in 1000..9999.
func (s *Products) nextAvailableID(ctx context.Context) (int64, error) {
	var id sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT min(candidate.id)
		FROM generate_series(1000, 9999) AS candidate(id)
		LEFT JOIN products p ON p.id = candidate.id
		WHERE p.id IS NULL`).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("allocate product id: %w", err)
	}
	if !id.Valid {
		return 0, fmt.Errorf("no available product ids in range 1000-9999")
	}
	return id.Int64, nil
}

// Get loads a product by id.
func (s *Products) Get(ctx context.Context, id int64) (*Product, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}

// Update replaces the mutable fields of a product.
func (s *Products) Update(ctx context.Context, id int64, p *Product) (*Product, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE products
		SET name = $2, description = $3, price = $4, quantity = $5, category = $6, image_url = $7
		WHERE id = $1
		RETURNING `+productColumns,
		id, p.Name, p.Description, p.Price, p.Quantity, p.Category, p.ImageURL,
	)
	updated, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return &updated, nil
}

// Delete removes a product.
func (s *Products) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all products ordered by id.
func (s *Products) List(ctx context.Context) ([]Product, error) {
	return s.queryProducts(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
}

// ListByAdmin returns the products managed by the given admin username.
func (s *Products) ListByAdmin(ctx context.Context, adminUsername string) ([]Product, error) {
	return s.queryProducts(ctx,
		`SELECT `+productColumns+` FROM products WHERE admin_username = $1 ORDER BY id`, adminUsername)
}

// Count returns the number of products.
func (s *Products) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM products`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

func (s *Products) queryProducts(ctx context.Context, query string, args ...interface{}) ([]Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
