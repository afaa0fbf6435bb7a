package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Carts is the postgres-backed cart item repository.
type Carts struct {
	db *sql.DB
}

// NewCarts creates a cart repository.
func NewCarts(db *sql.DB) *Carts {
	return &Carts{db: db}
}

// ListByUsername returns the cart items belonging to a user.
func (s *Carts) ListByUsername(ctx context.Context, username string) ([]CartItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, product_id, price, quantity
		FROM cart_items
		WHERE username = $1
		ORDER BY id`, username)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	var items []CartItem
	for rows.Next() {
		var it CartItem
		if err := rows.Scan(&it.ID, &it.Username, &it.ProductID, &it.Price, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Add inserts a cart item or, when the product is already in the cart,
// increments its quantity.
func (s *Carts) Add(ctx context.Context, item CartItem) (*CartItem, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO cart_items (username, product_id, price, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (username, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, price = EXCLUDED.price
		RETURNING id, username, product_id, price, quantity`,
		item.Username, item.ProductID, item.Price, item.Quantity,
	)
	var out CartItem
	if err := row.Scan(&out.ID, &out.Username, &out.ProductID, &out.Price, &out.Quantity); err != nil {
		return nil, fmt.Errorf("upsert cart item: %w", err)
	}
	return &out, nil
}

// SetQuantity updates the quantity of a cart entry; a quantity of zero or
// less removes the entry.
func (s *Carts) SetQuantity(ctx context.Context, username string, productID int64, quantity int) error {
	if quantity <= 0 {
		return s.Remove(ctx, username, productID)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE cart_items SET quantity = $3
		WHERE username = $1 AND product_id = $2`,
		username, productID, quantity,
	)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Remove deletes a single product from the user's cart.
func (s *Carts) Remove(ctx context.Context, username string, productID int64) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM cart_items WHERE username = $1 AND product_id = $2`,
		username, productID,
	)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear empties the user's cart.
func (s *Carts) Clear(ctx context.Context, username string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE username = $1`, username); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
