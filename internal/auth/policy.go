package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Authorize evaluates the access policy for a principal against the roles
// required by an operation. A nil error means the request is allowed.
//
// Semantics are ANY-of-set: the request is allowed iff the principal's
// authority set intersects the required set. An empty required set means
// "any authenticated principal" — anonymous requests are still denied.
func Authorize(p *Principal, required RoleSet) error {
	if p == nil {
		return ErrUnauthenticated
	}
	if len(required) == 0 {
		return nil
	}
	if !p.Authorities.Intersects(required) {
		return ErrInsufficientRole
	}
	return nil
}

// Requirements is the static role-requirement table for a service: one
// entry per protected operation, built once at startup and read-only
// afterwards.
type Requirements map[string]RoleSet

// For returns the role set required by the named operation. A missing
// entry yields an empty set, i.e. "any authenticated principal".
func (r Requirements) For(operation string) RoleSet {
	return r[operation]
}

// RequireRoles returns a net/http guard that evaluates the access policy
// before the handler body runs. On deny the body never executes: anonymous
// requests get 401, authenticated ones without a matching role get 403.
func RequireRoles(required RoleSet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, _ := PrincipalFromContext(r.Context())
			if err := Authorize(p, required); err != nil {
				writeDenied(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRolesGin is the gin flavor of RequireRoles.
func RequireRolesGin(required RoleSet) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := PrincipalFromContext(c.Request.Context())
		if err := Authorize(p, required); err != nil {
			status, body := deniedResponse(err)
			c.AbortWithStatusJSON(status, body)
			return
		}
		c.Next()
	}
}

func deniedResponse(err error) (int, map[string]string) {
	if errors.Is(err, ErrUnauthenticated) {
		return http.StatusUnauthorized, map[string]string{
			"error":   "unauthorized",
			"message": "authentication required",
		}
	}
	return http.StatusForbidden, map[string]string{
		"error":   "forbidden",
		"message": "insufficient permissions",
	}
}

func writeDenied(w http.ResponseWriter, err error) {
	status, _ := deniedResponse(err)
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
		w.WriteHeader(status)
		w.Write([]byte(`{"error":"unauthorized","message":"authentication required"}`))
		return
	}
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"forbidden","message":"insufficient permissions"}`))
}
