package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCodec(t *testing.T) {
	tests := []struct {
		name    string
		config  CodecConfig
		wantErr bool
	}{
		{
			name:    "missing secret",
			config:  CodecConfig{TTL: time.Hour},
			wantErr: true,
		},
		{
			name:    "negative ttl",
			config:  CodecConfig{Secret: []byte("secret"), TTL: -time.Minute},
			wantErr: true,
		},
		{
			name:    "valid config",
			config:  CodecConfig{Secret: []byte("secret"), TTL: time.Hour},
			wantErr: false,
		},
		{
			name:    "zero ttl is allowed",
			config:  CodecConfig{Secret: []byte("secret")},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec, err := NewCodec(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, codec)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, codec)
			}
		})
	}
}

func TestCodecRoundTrip(t *testing.T) {
	codec, err := NewCodec(CodecConfig{Secret: []byte("test-secret"), TTL: time.Hour})
	require.NoError(t, err)

	t.Run("claims survive issue and verify", func(t *testing.T) {
		token, exp, err := codec.Issue("alice", []string{"ADMIN", "USER"})
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.True(t, exp.After(time.Now()))

		claims, err := codec.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Subject)
		assert.ElementsMatch(t, []string{"ADMIN", "USER"}, claims.Roles)
	})

	t.Run("roles embedded exactly as given", func(t *testing.T) {
		token, _, err := codec.Issue("bob", []string{"admin"})
		require.NoError(t, err)

		claims, err := codec.Verify(token)
		require.NoError(t, err)
		// Normalization happens at consumption, not at issue.
		assert.Equal(t, []string{"admin"}, claims.Roles)
		assert.True(t, claims.HasRole("ROLE_ADMIN"))
	})

	t.Run("empty role set", func(t *testing.T) {
		token, _, err := codec.Issue("carol", nil)
		require.NoError(t, err)

		claims, err := codec.Verify(token)
		require.NoError(t, err)
		assert.Empty(t, claims.Roles)
	})
}

func TestCodecVerifyFailures(t *testing.T) {
	codec, err := NewCodec(CodecConfig{Secret: []byte("test-secret"), TTL: time.Hour})
	require.NoError(t, err)

	t.Run("wrong key fails with signature error", func(t *testing.T) {
		other, err := NewCodec(CodecConfig{Secret: []byte("other-secret"), TTL: time.Hour})
		require.NoError(t, err)

		token, _, err := other.Issue("alice", []string{"ADMIN"})
		require.NoError(t, err)

		_, err = codec.Verify(token)
		assert.ErrorIs(t, err, ErrSignatureInvalid)
	})

	t.Run("tampered payload fails with signature error", func(t *testing.T) {
		token, _, err := codec.Issue("alice", []string{"USER"})
		require.NoError(t, err)

		// Flip a character in the payload segment
		tampered := []byte(token)
		mid := len(tampered) / 2
		if tampered[mid] == 'A' {
			tampered[mid] = 'B'
		} else {
			tampered[mid] = 'A'
		}

		_, err = codec.Verify(string(tampered))
		assert.Error(t, err)
	})

	t.Run("garbage fails as malformed", func(t *testing.T) {
		_, err := codec.Verify("garbage")
		assert.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("empty token fails as malformed", func(t *testing.T) {
		_, err := codec.Verify("")
		assert.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("zero ttl expires immediately", func(t *testing.T) {
		instant, err := NewCodec(CodecConfig{Secret: []byte("test-secret")})
		require.NoError(t, err)

		token, _, err := instant.Issue("alice", []string{"USER"})
		require.NoError(t, err)

		_, err = instant.Verify(token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("expired token fails with expiry error", func(t *testing.T) {
		// Hand-craft a token already past its exp with the right key.
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "alice",
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
			Roles: []string{"USER"},
		}
		tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
		signed, err := tok.SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = codec.Verify(signed)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("rejects tokens signed with another HMAC variant key mismatch", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "alice",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := tok.SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = codec.Verify(signed)
		assert.ErrorIs(t, err, ErrTokenMalformed)
	})
}
