package cartapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simpleecom/services/internal/auth"
	"github.com/simpleecom/services/internal/store"
)

type cartKey struct {
	username  string
	productID int64
}

type fakeCarts struct {
	items  map[cartKey]*store.CartItem
	nextID int64
}

func newFakeCarts() *fakeCarts {
	return &fakeCarts{items: make(map[cartKey]*store.CartItem), nextID: 1}
}

func (f *fakeCarts) ListByUsername(_ context.Context, username string) ([]store.CartItem, error) {
	var out []store.CartItem
	for id := int64(1); id < f.nextID; id++ {
		for _, it := range f.items {
			if it.ID == id && it.Username == username {
				out = append(out, *it)
			}
		}
	}
	return out, nil
}

func (f *fakeCarts) Add(_ context.Context, item store.CartItem) (*store.CartItem, error) {
	key := cartKey{item.Username, item.ProductID}
	if existing, ok := f.items[key]; ok {
		existing.Quantity += item.Quantity
		existing.Price = item.Price
		out := *existing
		return &out, nil
	}
	item.ID = f.nextID
	f.nextID++
	stored := item
	f.items[key] = &stored
	out := stored
	return &out, nil
}

func (f *fakeCarts) SetQuantity(_ context.Context, username string, productID int64, quantity int) error {
	if quantity <= 0 {
		return f.Remove(context.Background(), username, productID)
	}
	it, ok := f.items[cartKey{username, productID}]
	if !ok {
		return store.ErrNotFound
	}
	it.Quantity = quantity
	return nil
}

func (f *fakeCarts) Remove(_ context.Context, username string, productID int64) error {
	key := cartKey{username, productID}
	if _, ok := f.items[key]; !ok {
		return store.ErrNotFound
	}
	delete(f.items, key)
	return nil
}

func (f *fakeCarts) Clear(_ context.Context, username string) error {
	for key := range f.items {
		if key.username == username {
			delete(f.items, key)
		}
	}
	return nil
}

func newTestRouter(t *testing.T) (http.Handler, *auth.Codec, *fakeCarts) {
	t.Helper()
	codec, err := auth.NewCodec(auth.CodecConfig{Secret: []byte("test-secret"), TTL: time.Hour})
	require.NoError(t, err)
	carts := newFakeCarts()
	api := New(carts, nil)
	return api.Router(auth.NewAuthenticator(codec, nil)), codec, carts
}

func do(h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func issue(t *testing.T, codec *auth.Codec, subject string, roles ...string) string {
	t.Helper()
	tok, _, err := codec.Issue(subject, roles)
	require.NoError(t, err)
	return tok
}

func TestHealthIsPublic(t *testing.T) {
	h, _, _ := newTestRouter(t)
	rec := do(h, http.MethodGet, "/api/cart/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "UP")
}

func TestOwnCartFlow(t *testing.T) {
	h, codec, _ := newTestRouter(t)
	tok := issue(t, codec, "bob", "USER")

	t.Run("empty cart is an empty list", func(t *testing.T) {
		rec := do(h, http.MethodGet, "/api/cart", "", tok)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("add item", func(t *testing.T) {
		rec := do(h, http.MethodPost, "/api/cart/items",
			`{"productId":1000,"price":999.99,"quantity":1}`, tok)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var item store.CartItem
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
		assert.Equal(t, "bob", item.Username)
		assert.Equal(t, int64(1000), item.ProductID)
	})

	t.Run("adding same product merges quantity", func(t *testing.T) {
		rec := do(h, http.MethodPost, "/api/cart/items",
			`{"productId":1000,"price":999.99,"quantity":2}`, tok)
		require.Equal(t, http.StatusCreated, rec.Code)

		var item store.CartItem
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
		assert.Equal(t, 3, item.Quantity)
	})

	t.Run("set quantity", func(t *testing.T) {
		rec := do(h, http.MethodPut, "/api/cart/items/1000", `{"quantity":5}`, tok)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("zero quantity removes", func(t *testing.T) {
		rec := do(h, http.MethodPut, "/api/cart/items/1000", `{"quantity":0}`, tok)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = do(h, http.MethodGet, "/api/cart", "", tok)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("remove missing item 404", func(t *testing.T) {
		rec := do(h, http.MethodDelete, "/api/cart/items/1000", "", tok)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("clear", func(t *testing.T) {
		rec := do(h, http.MethodPost, "/api/cart/items",
			`{"productId":1001,"price":899.99,"quantity":1}`, tok)
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = do(h, http.MethodDelete, "/api/cart", "", tok)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = do(h, http.MethodGet, "/api/cart", "", tok)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})
}

func TestOwnCartGuards(t *testing.T) {
	h, codec, _ := newTestRouter(t)

	t.Run("anonymous 401", func(t *testing.T) {
		rec := do(h, http.MethodGet, "/api/cart", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("admin without user role 403", func(t *testing.T) {
		rec := do(h, http.MethodGet, "/api/cart", "", issue(t, codec, "alice", "ADMIN"))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestCartLookup(t *testing.T) {
	h, codec, carts := newTestRouter(t)
	super := issue(t, codec, "root", "SUPERADMIN")

	t.Run("empty cart is 404", func(t *testing.T) {
		rec := do(h, http.MethodGet, "/api/cart/user/bob", "", super)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("superadmin sees user cart", func(t *testing.T) {
		_, err := carts.Add(context.Background(),
			store.CartItem{Username: "bob", ProductID: 1000, Price: 999.99, Quantity: 1})
		require.NoError(t, err)

		rec := do(h, http.MethodGet, "/api/cart/user/bob", "", super)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"productId":1000`)
	})

	t.Run("plain user denied", func(t *testing.T) {
		rec := do(h, http.MethodGet, "/api/cart/user/bob", "", issue(t, codec, "bob", "USER"))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
