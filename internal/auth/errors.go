package auth

import "errors"

var (
	// ErrTokenMalformed is returned when a token is structurally invalid
	ErrTokenMalformed = errors.New("token is malformed")

	// ErrSignatureInvalid is returned when a token signature does not match the signing key
	ErrSignatureInvalid = errors.New("token signature is invalid")

	// ErrTokenExpired is returned when a token is past its expiry
	ErrTokenExpired = errors.New("token has expired")

	// ErrInvalidCredentials is returned when a username/password pair cannot be verified
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthenticated is returned when an operation requires a principal and none is attached
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInsufficientRole is returned when a principal holds none of the required roles
	ErrInsufficientRole = errors.New("insufficient role")
)
