package userapi

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

type fakeUsers struct {
	byUsername map[string]*store.User
	byID       map[int64]*store.User
	nextID     int64
	createdWith auth.RoleSet
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		byUsername: make(map[string]*store.User),
		byID:       make(map[int64]*store.User),
		nextID:     1,
	}
}

func (f *fakeUsers) add(u store.User) *store.User {
	u.ID = f.nextID
	f.nextID++
	stored := u
	f.byUsername[u.Username] = &stored
	f.byID[u.ID] = &stored
	return &stored
}

func (f *fakeUsers) Create(_ context.Context, username, email, passwordHash string, roles auth.RoleSet) (int64, error) {
	if _, ok := f.byUsername[username]; ok {
		return 0, store.ErrDuplicate
	}
	f.createdWith = roles
	u := f.add(store.User{Username: username, Email: email, PasswordHash: passwordHash, Enabled: true, Roles: roles.Slice(), CreatedAt: time.Now()})
	return u.ID, nil
}

func (f *fakeUsers) ExistsByUsername(_ context.Context, username string) (bool, error) {
	_, ok := f.byUsername[username]
	return ok, nil
}

func (f *fakeUsers) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, u := range f.byUsername {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) FindByUsername(_ context.Context, username string) (*store.User, error) {
	u, ok := f.byUsername[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) List(_ context.Context) ([]store.User, error) {
	var out []store.User
	for id := int64(1); id < f.nextID; id++ {
		if u, ok := f.byID[id]; ok {
			copied := *u
			copied.Roles = append([]string(nil), u.Roles...)
			out = append(out, copied)
		}
	}
	return out, nil
}

func (f *fakeUsers) ToggleEnabled(_ context.Context, id int64) (bool, error) {
	u, ok := f.byID[id]
	if !ok {
		return false, store.ErrNotFound
	}
	u.Enabled = !u.Enabled
	return u.Enabled, nil
}

func (f *fakeUsers) Delete(_ context.Context, id int64) error {
	u, ok := f.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	delete(f.byUsername, u.Username)
	delete(f.byID, id)
	return nil
}

type fakeRoles struct{}

func (fakeRoles) List(context.Context) ([]store.Role, error) {
	return []store.Role{
		{ID: 1, Name: auth.RoleSuperAdmin},
		{ID: 2, Name: auth.RoleAdmin},
		{ID: 3, Name: auth.RoleUser},
	}, nil
}

type fakeVerifier struct {
	principal *auth.Principal
	err       error
}

func (f fakeVerifier) VerifyCredentials(context.Context, string, string) (*auth.Principal, error) {
	return f.principal, f.err
}

func newTestAPI(t *testing.T, users UserStore, verifier auth.CredentialVerifier) (*API, *auth.Codec) {
	t.Helper()
	codec, err := auth.NewCodec(auth.CodecConfig{Secret: []byte("test-secret"), TTL: time.Hour})
	require.NoError(t, err)
	return New(users, fakeRoles{}, codec, verifier, nil), codec
}

func doJSON(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *strings.Reader
	if body == "" {
		rdr = strings.NewReader("")
	} else {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
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

func TestRegister(t *testing.T) {
	users := newFakeUsers()
	api, codec := newTestAPI(t, users, fakeVerifier{err: auth.ErrInvalidCredentials})
	h := api.Router(auth.NewAuthenticator(codec, nil))

	rec := doJSON(t, h, http.MethodPost, "/api/auth/register",
		`{"username":"alice","email":"alice@example.com","password":"s3cret","roles":["ADMIN"]}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "User registered successfully!")
	assert.True(t, users.createdWith.Contains(auth.RoleAdmin))

	t.Run("duplicate username rejected", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/auth/register",
			`{"username":"alice","email":"other@example.com","password":"pw"}`, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Username is already taken")
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/auth/register",
			`{"username":"bob","email":"alice@example.com","password":"pw"}`, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Email is already in use")
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/auth/register", `{"username":"x"}`, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown role falls back to user", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/auth/register",
			`{"username":"carol","email":"carol@example.com","password":"pw","roles":["wizard"]}`, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{auth.RoleUser}, users.createdWith.Slice())
	})
}

func TestLogin(t *testing.T) {
	principal := auth.NewPrincipal("alice", []string{"ADMIN"})
	api, codec := newTestAPI(t, newFakeUsers(), fakeVerifier{principal: principal})
	h := api.Router(auth.NewAuthenticator(codec, nil))

	rec := doJSON(t, h, http.MethodPost, "/api/auth/login",
		`{"username":"alice","password":"s3cret"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, "Bearer", resp.Type)
	assert.Equal(t, []string{auth.RoleAdmin}, resp.Roles)

	// The issued token verifies and carries the display-form role.
	claims, err := codec.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, []string{"ADMIN"}, claims.Roles)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	api, codec := newTestAPI(t, newFakeUsers(), fakeVerifier{err: auth.ErrInvalidCredentials})
	h := api.Router(auth.NewAuthenticator(codec, nil))

	rec := doJSON(t, h, http.MethodPost, "/api/auth/login",
		`{"username":"alice","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_credentials")
}

type fakeLimiter struct {
	allowed bool
}

func (f fakeLimiter) Allow(context.Context, string) (bool, error) { return f.allowed, nil }

func TestLoginThrottled(t *testing.T) {
	principal := auth.NewPrincipal("alice", []string{"USER"})
	api, codec := newTestAPI(t, newFakeUsers(), fakeVerifier{principal: principal})
	api.UseLoginLimiter(fakeLimiter{allowed: false})
	h := api.Router(auth.NewAuthenticator(codec, nil))

	rec := doJSON(t, h, http.MethodPost, "/api/auth/login",
		`{"username":"alice","password":"s3cret"}`, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "rate_limited")
}

func TestUserManagementGuards(t *testing.T) {
	users := newFakeUsers()
	users.add(store.User{Username: "alice", Email: "alice@example.com", Enabled: true, Roles: []string{auth.RoleAdmin}, CreatedAt: time.Now()})
	api, codec := newTestAPI(t, users, fakeVerifier{err: auth.ErrInvalidCredentials})
	h := api.Router(auth.NewAuthenticator(codec, nil))

	issue := func(subject string, roles ...string) string {
		tok, _, err := codec.Issue(subject, roles)
		require.NoError(t, err)
		return tok
	}

	t.Run("anonymous gets 401", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/user/all", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token behaves like no token", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/user/all", "", "not.a.jwt")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("plain user gets 403", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/user/all", "", issue("bob", "USER"))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("superadmin lists users with display roles", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/user/all", "", issue("root", "SUPERADMIN"))
		require.Equal(t, http.StatusOK, rec.Code)

		var listed []store.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
		require.Len(t, listed, 1)
		assert.Equal(t, []string{"ADMIN"}, listed[0].Roles)
	})

	t.Run("admin reads own profile", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/user/profile", "", issue("alice", "ADMIN"))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "alice@example.com")
	})

	t.Run("plain user cannot read profile endpoint", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/user/profile", "", issue("bob", "USER"))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("any authenticated principal lists roles", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/roles", "", issue("bob", "USER"))
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(t, h, http.MethodGet, "/api/roles", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("toggle flips enabled", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPut, "/api/user/1/toggle", "", issue("root", "SUPERADMIN"))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "User disabled successfully")
	})

	t.Run("delete unknown user 404", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodDelete, "/api/user/99", "", issue("root", "SUPERADMIN"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("superadmin looks up by username", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/admin/user/alice", "", issue("root", "SUPERADMIN"))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "alice")
	})
}
