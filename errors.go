package authkit

import (
	goerrors "github.com/goliatone/go-errors"
)

// Text codes for the closed failure taxonomy. HTTP mapping happens at
// the controller boundary only.
const (
	TextCodeTokenExpired        = "TOKEN_EXPIRED"
	TextCodeTokenMalformed      = "TOKEN_MALFORMED"
	TextCodeTransportDecrypt    = "TRANSPORT_DECRYPT_FAILED"
	TextCodePurposeMismatch     = "PURPOSE_MISMATCH"
	TextCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	TextCodeInvalidRefreshToken = "INVALID_REFRESH_TOKEN"
	TextCodeUserNotFound        = "USER_NOT_FOUND"
	TextCodeEmailRegistered     = "EMAIL_ALREADY_REGISTERED"
	TextCodeTokenMissing        = "TOKEN_MISSING"
)

// ErrTokenExpired is returned when a token's exp claim is in the past.
var ErrTokenExpired = goerrors.New("Token expired", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed covers tampered, truncated, or wrongly signed tokens.
var ErrTokenMalformed = goerrors.New("Invalid token", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenMalformed)

// ErrTransportDecrypt is returned when the transport cipher layer cannot
// be removed (wrong key, corrupted ciphertext, bad encoding).
var ErrTransportDecrypt = goerrors.New("Unable to decrypt token", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTransportDecrypt)

// ErrPurposeMismatch is returned when a token decodes fine but carries a
// purpose other than the one the caller expects.
var ErrPurposeMismatch = goerrors.New("Token purpose mismatch", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodePurposeMismatch)

// ErrInvalidCredentials is the single answer the login flow gives for
// unknown email, wrong password, and everything in between.
var ErrInvalidCredentials = goerrors.New("Invalid credentials.", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidCredentials)

// ErrInvalidRefreshToken is returned for refresh tokens that decode but
// fail the purpose or fingerprint checks.
var ErrInvalidRefreshToken = goerrors.New("Invalid refresh token.", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidRefreshToken)

// ErrIdentityNotFound is the not-found error for user lookups.
var ErrIdentityNotFound = goerrors.New("User not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound).
	WithTextCode(TextCodeUserNotFound)

// ErrEmailRegistered rejects registration against an email that already
// has an account.
var ErrEmailRegistered = goerrors.New("Email address already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeEmailRegistered)

// ErrTokenMissing is returned by the guard when no bearer credential is
// present on the request.
var ErrTokenMissing = goerrors.New("Token not provided", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenMissing)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = goerrors.New("value must not be an empty string", goerrors.CategoryBadInput)

// ErrMismatchedHashAndPassword is the bcrypt comparison failure.
var ErrMismatchedHashAndPassword = goerrors.New("password does not match", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// HasTextCode reports whether err carries the given text code.
func HasTextCode(err error, textCode string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == textCode
	}
	return false
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	return HasTextCode(err, TextCodeTokenExpired)
}

// IsTokenMalformedError will check for tampered or undecodable tokens,
// including transport decryption failures.
func IsTokenMalformedError(err error) bool {
	return HasTextCode(err, TextCodeTokenMalformed) ||
		HasTextCode(err, TextCodeTransportDecrypt)
}

// IsPurposeMismatchError will check for purpose mismatches
func IsPurposeMismatchError(err error) bool {
	return HasTextCode(err, TextCodePurposeMismatch)
}
