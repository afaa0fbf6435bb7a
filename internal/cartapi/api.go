// Package cartapi implements the shopping cart HTTP API.
package cartapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/simpleecom/services/internal/auth"
	"github.com/simpleecom/services/internal/httpx"
	"github.com/simpleecom/services/internal/store"
)

// CartStore is the cart storage surface. *store.Carts implements it.
type CartStore interface {
	ListByUsername(ctx context.Context, username string) ([]store.CartItem, error)
	Add(ctx context.Context, item store.CartItem) (*store.CartItem, error)
	SetQuantity(ctx context.Context, username string, productID int64, quantity int) error
	Remove(ctx context.Context, username string, productID int64) error
	Clear(ctx context.Context, username string) error
}

// AddItemRequest is the add-to-cart payload.
type AddItemRequest struct {
	ProductID int64   `json:"productId"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// SetQuantityRequest updates the quantity of a cart entry.
type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// API holds the cart-service handlers and their dependencies.
type API struct {
	carts  CartStore
	logger *zap.Logger

	requirements auth.Requirements
}

// New creates the cart-service API.
func New(carts CartStore, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		carts:  carts,
		logger: logger,
		requirements: auth.Requirements{
			"cart.lookup": auth.NewRoleSet(auth.RoleSuperAdmin),
			"cart.own":    auth.NewRoleSet(auth.RoleUser),
		},
	}
}

// Router assembles the /api/cart route tree.
func (a *API) Router(authn *auth.Authenticator) *mux.Router {
	r := mux.NewRouter()
	r.Use(authn.Handler)

	api := r.PathPrefix("/api/cart").Subrouter()

	api.HandleFunc("/health", a.health).Methods(http.MethodGet)
	api.Handle("/user/{username}",
		a.guard("cart.lookup", a.lookupCart)).Methods(http.MethodGet)

	api.Handle("", a.guard("cart.own", a.ownCart)).Methods(http.MethodGet)
	api.Handle("", a.guard("cart.own", a.clearCart)).Methods(http.MethodDelete)
	api.Handle("/items", a.guard("cart.own", a.addItem)).Methods(http.MethodPost)
	api.Handle("/items/{productId:[0-9]+}",
		a.guard("cart.own", a.setQuantity)).Methods(http.MethodPut)
	api.Handle("/items/{productId:[0-9]+}",
		a.guard("cart.own", a.removeItem)).Methods(http.MethodDelete)

	return r
}

func (a *API) guard(operation string, h http.HandlerFunc) http.Handler {
	return auth.RequireRoles(a.requirements.For(operation))(h)
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "UP", "service": "cart-service"})
}

// lookupCart serves the privileged per-user cart view. An empty cart is a
// 404, matching the lookup contract the storefront expects.
func (a *API) lookupCart(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	items, err := a.carts.ListByUsername(r.Context(), username)
	if err != nil {
		a.internalError(w, "cart lookup failed", err)
		return
	}
	if len(items) == 0 {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "cart is empty")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

func (a *API) ownCart(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFromContext(r.Context())
	items, err := a.carts.ListByUsername(r.Context(), p.Subject)
	if err != nil {
		a.internalError(w, "cart listing failed", err)
		return
	}
	if items == nil {
		items = []store.CartItem{}
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

func (a *API) addItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
		return
	}
	if req.ProductID <= 0 || req.Quantity <= 0 || req.Price < 0 {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "productId and a positive quantity are required")
		return
	}

	p, _ := auth.PrincipalFromContext(r.Context())
	item, err := a.carts.Add(r.Context(), store.CartItem{
		Username:  p.Subject,
		ProductID: req.ProductID,
		Price:     req.Price,
		Quantity:  req.Quantity,
	})
	if err != nil {
		a.internalError(w, "cart add failed", err)
		return
	}

	a.logger.Info("cart item added",
		zap.String("username", p.Subject),
		zap.Int64("product_id", req.ProductID),
	)
	httpx.WriteJSON(w, http.StatusCreated, item)
}

func (a *API) setQuantity(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(mux.Vars(r)["productId"], 10, 64)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid product id")
		return
	}

	var req SetQuantityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
		return
	}

	p, _ := auth.PrincipalFromContext(r.Context())
	if err := a.carts.SetQuantity(r.Context(), p.Subject, productID, req.Quantity); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "not_found", "item not in cart")
			return
		}
		a.internalError(w, "cart update failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Cart updated"})
}

func (a *API) removeItem(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(mux.Vars(r)["productId"], 10, 64)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid product id")
		return
	}

	p, _ := auth.PrincipalFromContext(r.Context())
	if err := a.carts.Remove(r.Context(), p.Subject, productID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "not_found", "item not in cart")
			return
		}
		a.internalError(w, "cart item removal failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Item removed"})
}

func (a *API) clearCart(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFromContext(r.Context())
	if err := a.carts.Clear(r.Context(), p.Subject); err != nil {
		a.internalError(w, "cart clear failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Cart cleared"})
}

func (a *API) internalError(w http.ResponseWriter, msg string, err error) {
	a.logger.Error(msg, zap.Error(err))
	httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}
