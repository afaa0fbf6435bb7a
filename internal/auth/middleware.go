package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const principalContextKey contextKey = "principal"

// Authenticator resolves the bearer token on incoming requests into a
// Principal attached to the request context. It is deliberately
// fail-open-to-anonymous: a missing, malformed, badly signed or expired
// token never aborts the request by itself — it only removes the chance
// to pass role checks downstream. Verification failures are logged with
// their kind for observability.
type Authenticator struct {
	codec  *Codec
	logger *zap.Logger
}

// NewAuthenticator creates a request authenticator backed by the given codec.
func NewAuthenticator(codec *Codec, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{codec: codec, logger: logger}
}

// Handler returns a net/http middleware that authenticates the request.
// Authentication resolution happens before any downstream authorization
// check or handler runs; the context is written once and then read-only.
func (a *Authenticator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := a.resolve(r); p != nil {
			r = r.WithContext(WithPrincipal(r.Context(), p))
		}
		next.ServeHTTP(w, r)
	})
}

// Gin returns the same authenticator as a gin middleware. The principal is
// attached to the underlying request context so PrincipalFromContext works
// identically for both transports.
func (a *Authenticator) Gin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if p := a.resolve(c.Request); p != nil {
			c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), p))
		}
		c.Next()
	}
}

// resolve extracts and verifies the bearer token, returning the principal
// or nil for an anonymous request.
func (a *Authenticator) resolve(r *http.Request) *Principal {
	token, err := extractBearer(r)
	if err != nil {
		// No token (or wrong scheme): the request proceeds anonymous.
		return nil
	}

	claims, err := a.codec.Verify(token)
	if err != nil {
		a.logger.Warn("token verification failed, continuing as anonymous",
			zap.Error(err),
			zap.String("path", r.URL.Path),
		)
		return nil
	}

	return NewPrincipal(claims.Subject, claims.Roles)
}

// extractBearer extracts the token from the Authorization header.
func extractBearer(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("authorization header must use Bearer scheme")
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", fmt.Errorf("empty token")
	}
	return token, nil
}

// WithPrincipal returns a context carrying the authenticated principal.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext extracts the authenticated principal from a request
// context. ok is false for anonymous requests.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(*Principal)
	return p, ok && p != nil
}
