// Package auth provides the shared authentication and authorization core:
// token issuance and verification, role normalization, the request
// authenticator middleware and the access policy evaluator.
package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the verified payload carried by a session token.
type Claims struct {
	jwt.RegisteredClaims

	// Roles as embedded at issue time. Not necessarily canonical;
	// consumers normalize through CanonicalRole.
	Roles []string `json:"roles,omitempty"`
}

// HasRole checks if the claims contain a specific role, comparing in
// canonical form.
func (c *Claims) HasRole(role string) bool {
	want := CanonicalRole(role)
	for _, r := range c.Roles {
		if CanonicalRole(r) == want {
			return true
		}
	}
	return false
}

// HasAnyRole checks if the claims contain any of the specified roles.
func (c *Claims) HasAnyRole(roles ...string) bool {
	for _, required := range roles {
		if c.HasRole(required) {
			return true
		}
	}
	return false
}
