package authkit

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purpose is the closed-set tag restricting what a token may be used
// for. Every issued token carries exactly one purpose and every
// consumer checks it before trusting any other claim.
type Purpose string

const (
	// PurposeAccess marks short-lived API access tokens
	PurposeAccess Purpose = "access"
	// PurposeRefresh marks tokens that can mint a new pair
	PurposeRefresh Purpose = "refresh"
	// PurposePassword marks password-reset tokens
	PurposePassword Purpose = "password"
	// PurposeEmailVerification marks signup verification tokens
	PurposeEmailVerification Purpose = "email_verification"
)

// ParsePurpose validates a raw claim value against the closed set.
func ParsePurpose(raw string) (Purpose, bool) {
	switch Purpose(raw) {
	case PurposeAccess, PurposeRefresh, PurposePassword, PurposeEmailVerification:
		return Purpose(raw), true
	}
	return "", false
}

// TokenClaims is the claim set carried by every token this package
// issues. Purpose-specific fields stay empty for the purposes that do
// not use them.
type TokenClaims struct {
	jwt.RegisteredClaims
	Purpose Purpose `json:"purpose,omitempty"`
	UserID  string  `json:"user_id,omitempty"`
	// PasswordHash is the user's password hash at issuance time, not
	// the current hash. Consumers compare it against current state;
	// changing the password invalidates every outstanding token that
	// embeds the old hash.
	PasswordHash string `json:"password,omitempty"`
	Email        string `json:"email,omitempty"`
	Name         string `json:"name,omitempty"`
}

// Expires returns the expiration time
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// Issued returns the issued at time
func (c *TokenClaims) Issued() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// Subject returns the sub claim
func (c *TokenClaims) Subject() string {
	return c.RegisteredClaims.Subject
}
