package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CodecConfig contains configuration for the token codec.
type CodecConfig struct {
	// Secret is the deployment-wide symmetric signing key. Required.
	Secret []byte

	// TTL is the lifetime of issued tokens. Required (may be zero only
	// in tests exercising immediate expiry).
	TTL time.Duration
}

// Codec issues and verifies signed session tokens. Tokens are
// self-contained: validity is determined purely by signature and expiry,
// with no server-side session state. The codec is stateless and safe for
// concurrent use; the signing key is set once at construction and never
// mutated.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// NewCodec creates a token codec from the given configuration.
func NewCodec(cfg CodecConfig) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("signing secret is required")
	}
	if cfg.TTL < 0 {
		return nil, fmt.Errorf("token ttl must not be negative")
	}
	return &Codec{secret: cfg.Secret, ttl: cfg.TTL}, nil
}

// TTL returns the configured token lifetime.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue builds claims for the subject and role set, signs them with HS512
// and returns the encoded token plus its expiry. Roles are embedded exactly
// as given; normalization happens on the verify path.
func (c *Codec) Issue(subject string, roles []string) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(c.ttl)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Roles: roles,
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := tok.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify decodes the token, validates its signature against the signing
// key and checks expiry. Failures are distinguishable by kind:
// ErrTokenMalformed, ErrSignatureInvalid or ErrTokenExpired.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrTokenMalformed
	}

	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Only HS512 is accepted (prevent algorithm confusion attacks)
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		if t.Method.Alg() != jwt.SigningMethodHS512.Alg() {
			return nil, fmt.Errorf("unexpected algorithm: %v (expected HS512)", t.Method.Alg())
		}
		return c.secret, nil
	})

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrSignatureInvalid
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			// Structural problems and rejected algorithms
			return nil, ErrTokenMalformed
		}
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}
