// Package userapi implements the identity service HTTP API: registration,
// login, and user/role/admin management.
package userapi

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/simpleecom/services/internal/auth"
	"github.com/simpleecom/services/internal/store"
)

// UserStore is the account storage surface the API needs. *store.Users
// implements it.
type UserStore interface {
	Create(ctx context.Context, username, email, passwordHash string, roles auth.RoleSet) (int64, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	FindByUsername(ctx context.Context, username string) (*store.User, error)
	List(ctx context.Context) ([]store.User, error)
	ToggleEnabled(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error
}

// RoleStore is the role catalog surface. *store.Roles implements it.
type RoleStore interface {
	List(ctx context.Context) ([]store.Role, error)
}

// LoginLimiter throttles login attempts. *ratelimit.Limiter implements it.
type LoginLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// API holds the user-service handlers and their dependencies.
type API struct {
	users    UserStore
	roles    RoleStore
	codec    *auth.Codec
	verifier auth.CredentialVerifier
	limiter  LoginLimiter
	logger   *zap.Logger

	requirements auth.Requirements
}

// New creates the user-service API.
func New(users UserStore, roles RoleStore, codec *auth.Codec, verifier auth.CredentialVerifier, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		users:    users,
		roles:    roles,
		codec:    codec,
		verifier: verifier,
		logger:   logger,
		requirements: auth.Requirements{
			"roles.list":    auth.NewRoleSet(), // any authenticated principal
			"user.profile":  auth.NewRoleSet(auth.RoleAdmin, auth.RoleSuperAdmin),
			"user.list":     auth.NewRoleSet(auth.RoleSuperAdmin),
			"user.toggle":   auth.NewRoleSet(auth.RoleSuperAdmin),
			"user.delete":   auth.NewRoleSet(auth.RoleSuperAdmin),
			"admin.profile": auth.NewRoleSet(auth.RoleAdmin),
			"admin.lookup":  auth.NewRoleSet(auth.RoleSuperAdmin),
		},
	}
}

// UseLoginLimiter enables login attempt throttling. A nil limiter leaves
// the endpoint unthrottled.
func (a *API) UseLoginLimiter(l LoginLimiter) {
	a.limiter = l
}

// Router assembles the /api route tree with authentication and per-route
// role guards applied.
func (a *API) Router(authn *auth.Authenticator) *mux.Router {
	r := mux.NewRouter()
	r.Use(authn.Handler)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/test", a.authTest).Methods(http.MethodGet)
	api.HandleFunc("/auth/register", a.register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", a.login).Methods(http.MethodPost)

	api.Handle("/roles",
		a.guard("roles.list", a.listRoles)).Methods(http.MethodGet)

	api.Handle("/user/profile",
		a.guard("user.profile", a.userProfile)).Methods(http.MethodGet)
	api.Handle("/user/all",
		a.guard("user.list", a.listUsers)).Methods(http.MethodGet)
	api.Handle("/user/{id:[0-9]+}/toggle",
		a.guard("user.toggle", a.toggleUser)).Methods(http.MethodPut)
	api.Handle("/user/{id:[0-9]+}",
		a.guard("user.delete", a.deleteUser)).Methods(http.MethodDelete)

	api.Handle("/admin/profile",
		a.guard("admin.profile", a.adminProfile)).Methods(http.MethodGet)
	api.Handle("/admin/user/{username}",
		a.guard("admin.lookup", a.lookupUser)).Methods(http.MethodGet)

	return r
}

// guard wraps a handler with the role requirement registered for the
// operation.
func (a *API) guard(operation string, h http.HandlerFunc) http.Handler {
	return auth.RequireRoles(a.requirements.For(operation))(h)
}
