package auth

import "context"

// CredentialVerifier validates a username/password pair against stored
// credentials. Implementations must collapse every failure (unknown user,
// wrong password, disabled account, store error) into ErrInvalidCredentials
// so that no internal detail leaks to the caller.
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, username, password string) (*Principal, error)
}
