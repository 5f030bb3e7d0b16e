package auth

import "errors"

// Sentinel errors for authentication and authorization.
var (
	ErrMissingCredentials = errors.New("auth: missing credentials")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrTokenExpired       = errors.New("auth: token expired")
	ErrTokenMalformed     = errors.New("auth: token malformed")
	ErrForbidden          = errors.New("auth: access denied")
	ErrNoSecret           = errors.New("auth: signing secret is empty")
)
