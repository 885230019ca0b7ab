package auth

import "errors"

var (
	// ErrInvalidCredential covers both unknown email and wrong
	// password. The two cases are logged separately but callers must
	// not be able to tell them apart (account enumeration).
	ErrInvalidCredential = errors.New("invalid credentials")

	// ErrEmailTaken is returned on registration with an email that
	// already has an account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrStateMismatch closes the OAuth CSRF window: the state
	// parameter is missing, does not match the saved nonce, or the
	// nonce was already consumed.
	ErrStateMismatch = errors.New("oauth state mismatch")

	// ErrProviderExchange is returned when the provider rejects the
	// code exchange or the profile fetch fails.
	ErrProviderExchange = errors.New("provider exchange failed")

	// ErrTokenExpired is returned for a well-signed stateless token
	// past its expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid is returned for malformed, tampered, or
	// wrongly-signed stateless tokens.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrUserGone is returned when a credential verifies but its
	// subject no longer exists.
	ErrUserGone = errors.New("user no longer exists")
)
