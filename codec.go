package authkit

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// ClaimCodec encodes and decodes signed claim sets. It is the leaf of
// the token stack: it knows nothing about transport encryption or
// purposes, only about signatures and expiry.
type ClaimCodec struct {
	signingKey []byte
	logger     Logger
}

// NewClaimCodec creates a codec signing with HMAC-SHA256.
func NewClaimCodec(signingKey []byte, logger Logger) *ClaimCodec {
	if logger == nil {
		logger = defLogger{}
	}
	return &ClaimCodec{
		signingKey: signingKey,
		logger:     logger,
	}
}

// Encode signs the claim set into a compact token string.
func (c *ClaimCodec) Encode(claims *TokenClaims) (string, error) {
	if claims == nil {
		return "", goerrors.New("claims must not be nil", goerrors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(c.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign claims")
	}

	return signed, nil
}

// Decode verifies the signature and the exp claim, returning the claim
// set. Expiry produces ErrTokenExpired; every other failure, tampering
// included, produces ErrTokenMalformed.
func (c *ClaimCodec) Decode(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			c.logger.Error("ClaimCodec decode encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.signingKey, nil
	})

	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		c.logger.Error("ClaimCodec decode could not map claims")
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
