package userapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/simpleecom/services/internal/auth"
	"github.com/simpleecom/services/internal/httpx"
	"github.com/simpleecom/services/internal/store"
)

// ToggleResponse reports the new enabled state after a toggle.
type ToggleResponse struct {
	Message string `json:"message"`
	Enabled bool   `json:"enabled"`
}

func (a *API) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := a.roles.List(r.Context())
	if err != nil {
		a.internalError(w, "role listing failed", err)
		return
	}
	if roles == nil {
		roles = []store.Role{}
	}
	httpx.WriteJSON(w, http.StatusOK, roles)
}

// userProfile returns the caller's own account. The guard has already
// established an authenticated principal.
func (a *API) userProfile(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFromContext(r.Context())
	u, err := a.users.FindByUsername(r.Context(), p.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		a.internalError(w, "profile lookup failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u)
}

func (a *API) adminProfile(w http.ResponseWriter, r *http.Request) {
	a.userProfile(w, r)
}

// listUsers returns every account with display-form role names.
func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.users.List(r.Context())
	if err != nil {
		a.internalError(w, "user listing failed", err)
		return
	}
	for i := range users {
		for j, role := range users[i].Roles {
			users[i].Roles[j] = auth.DisplayRole(role)
		}
	}
	if users == nil {
		users = []store.User{}
	}
	httpx.WriteJSON(w, http.StatusOK, users)
}

func (a *API) toggleUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid user id")
		return
	}

	enabled, err := a.users.ToggleEnabled(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		a.internalError(w, "user toggle failed", err)
		return
	}

	a.logger.Info("user toggled", zap.Int64("id", id), zap.Bool("enabled", enabled))
	msg := "User disabled successfully"
	if enabled {
		msg = "User enabled successfully"
	}
	httpx.WriteJSON(w, http.StatusOK, ToggleResponse{Message: msg, Enabled: enabled})
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid user id")
		return
	}

	if err := a.users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		a.internalError(w, "user deletion failed", err)
		return
	}

	a.logger.Info("user deleted", zap.Int64("id", id))
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "User deleted successfully"})
}

func (a *API) lookupUser(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	u, err := a.users.FindByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		a.internalError(w, "user lookup failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u)
}
