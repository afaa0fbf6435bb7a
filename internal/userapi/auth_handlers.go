package userapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/simpleecom/services/internal/auth"
	"github.com/simpleecom/services/internal/httpx"
	"github.com/simpleecom/services/internal/store"
)

// RegisterRequest is the signup payload. Roles is optional; unrecognized
// role identifiers fall back to the base user role.
type RegisterRequest struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Roles    []string `json:"roles,omitempty"`
}

// LoginRequest is the credential payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token     string    `json:"token"`
	Type      string    `json:"type"`
	Username  string    `json:"username"`
	Roles     []string  `json:"roles"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// MessageResponse is a simple confirmation body.
type MessageResponse struct {
	Message string `json:"message"`
}

func (a *API) authTest(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "User service is running"})
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "username, email and password are required")
		return
	}

	ctx := r.Context()
	if taken, err := a.users.ExistsByUsername(ctx, req.Username); err != nil {
		a.internalError(w, "username check failed", err)
		return
	} else if taken {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Error: Username is already taken!")
		return
	}
	if taken, err := a.users.ExistsByEmail(ctx, req.Email); err != nil {
		a.internalError(w, "email check failed", err)
		return
	} else if taken {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Error: Email is already in use!")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		a.internalError(w, "password hashing failed", err)
		return
	}

	roles := auth.ResolveRegistrationRoles(req.Roles)
	if _, err := a.users.Create(ctx, req.Username, req.Email, hash, roles); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Error: Username is already taken!")
			return
		}
		a.internalError(w, "user creation failed", err)
		return
	}

	a.logger.Info("user registered",
		zap.String("username", req.Username),
		zap.Strings("roles", roles.Slice()),
	)
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "User registered successfully!"})
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
		return
	}

	if a.limiter != nil {
		allowed, err := a.limiter.Allow(r.Context(), "login:"+req.Username)
		if err != nil {
			a.internalError(w, "rate limit check failed", err)
			return
		}
		if !allowed {
			a.logger.Warn("login throttled", zap.String("username", req.Username))
			httpx.WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many login attempts")
			return
		}
	}

	p, err := a.verifier.VerifyCredentials(r.Context(), req.Username, req.Password)
	if err != nil {
		// All verification failures look identical to the caller.
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "invalid username or password")
		return
	}

	// Tokens carry display-form roles; canonicalization happens again on
	// every verify.
	token, expiresAt, err := a.codec.Issue(p.Subject, p.Authorities.Display())
	if err != nil {
		a.internalError(w, "token issuance failed", err)
		return
	}

	a.logger.Info("user logged in", zap.String("username", p.Subject))
	httpx.WriteJSON(w, http.StatusOK, LoginResponse{
		Token:     token,
		Type:      "Bearer",
		Username:  p.Subject,
		Roles:     p.Authorities.Slice(),
		ExpiresAt: expiresAt,
	})
}

func (a *API) internalError(w http.ResponseWriter, msg string, err error) {
	a.logger.Error(msg, zap.Error(err))
	httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}
