// Package store provides the postgres-backed repositories for users,
// roles, products and cart items.
package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a uniqueness constraint is violated.
var ErrDuplicate = errors.New("already exists")

// User is a stored user account with its resolved role names.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Enabled      bool      `json:"enabled"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Role is an entry in the role catalog.
type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Product is a catalog entry.
type Product struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	Quantity      int     `json:"quantity"`
	AdminUsername string  `json:"adminUsername"`
	ImageURL      *string `json:"imageUrl"`
	Category      string  `json:"category"`
}

// CartItem is a single product entry in a user's cart.
type CartItem struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	ProductID int64   `json:"productId"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}
