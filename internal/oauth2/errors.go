package oauth2

import "errors"

var (
	ErrStateMismatch       = errors.New("oauth state mismatch")
	ErrMissingCode         = errors.New("no authorization code received")
	ErrAuthorizationDenied = errors.New("authorization denied by user")
	ErrProfileIncomplete   = errors.New("provider profile has no subject")
	ErrRevokeFailed        = errors.New("token revocation failed")
)
