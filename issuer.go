package authkit

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// ExpiryFormat is the ISO-8601-with-milliseconds UTC layout clients
// consume in token responses.
const ExpiryFormat = "2006-01-02T15:04:05.000Z"

// IssuedToken is one doubly-protected token plus its formatted expiry.
type IssuedToken struct {
	Token  string `json:"token"`
	Expiry string `json:"expiry"`
}

// TokenPair holds an access/refresh pair as returned to clients.
type TokenPair struct {
	AccessToken  IssuedToken `json:"access_token"`
	RefreshToken IssuedToken `json:"refresh_token"`
}

// TokenIssuer builds purpose-scoped claim sets, signs them through the
// ClaimCodec, and wraps the result in the transport cipher.
type TokenIssuer struct {
	codec  *ClaimCodec
	cipher *TransportCipher
	cfg    Config
	logger Logger
	now    func() time.Time
}

// NewTokenIssuer creates an issuer from shared codec and cipher.
func NewTokenIssuer(codec *ClaimCodec, cipher *TransportCipher, cfg Config) *TokenIssuer {
	return &TokenIssuer{
		codec:  codec,
		cipher: cipher,
		cfg:    cfg,
		logger: defLogger{},
		now:    time.Now,
	}
}

// WithLogger overrides the logger used by the issuer.
func (ti *TokenIssuer) WithLogger(logger Logger) *TokenIssuer {
	if logger != nil {
		ti.logger = logger
	}
	return ti
}

// WithClock overrides the time source. Tests use this to pin expiry.
func (ti *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	if now != nil {
		ti.now = now
	}
	return ti
}

// IssueTokenPair mints an access and a refresh token for the user using
// the TTL profile of the given audience. The refresh token embeds the
// user's current password hash so a later password change invalidates
// it without any server-side record.
func (ti *TokenIssuer) IssueTokenPair(user *User, aud Audience) (*TokenPair, error) {
	if user == nil {
		return nil, goerrors.New("user is required", goerrors.CategoryBadInput)
	}

	now := ti.now()
	accessExpiry := now.Add(time.Duration(ti.cfg.GetAccessTTL(aud)) * time.Minute)
	refreshExpiry := now.Add(time.Duration(ti.cfg.GetRefreshTTL(aud)) * time.Minute)

	access, err := ti.seal(&TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ti.cfg.GetIssuer(),
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExpiry),
		},
		Purpose: PurposeAccess,
		UserID:  user.ID.String(),
	})
	if err != nil {
		return nil, err
	}

	refresh, err := ti.seal(&TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ti.cfg.GetIssuer(),
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExpiry),
		},
		Purpose:      PurposeRefresh,
		UserID:       user.ID.String(),
		PasswordHash: user.PasswordHash,
	})
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken: IssuedToken{
			Token:  access,
			Expiry: accessExpiry.UTC().Format(ExpiryFormat),
		},
		RefreshToken: IssuedToken{
			Token:  refresh,
			Expiry: refreshExpiry.UTC().Format(ExpiryFormat),
		},
	}, nil
}

// IssueScopedToken signs and encrypts a caller-supplied claim set. The
// password-reset and email-verification flows use it for their
// single-purpose tokens.
func (ti *TokenIssuer) IssueScopedToken(claims *TokenClaims) (string, error) {
	if claims == nil {
		return "", goerrors.New("claims must not be nil", goerrors.CategoryBadInput)
	}
	if claims.Purpose == "" {
		return "", goerrors.New("claims must carry a purpose", goerrors.CategoryBadInput)
	}

	if claims.RegisteredClaims.IssuedAt == nil {
		claims.RegisteredClaims.IssuedAt = jwt.NewNumericDate(ti.now())
	}
	if claims.RegisteredClaims.Issuer == "" {
		claims.RegisteredClaims.Issuer = ti.cfg.GetIssuer()
	}

	return ti.seal(claims)
}

// Now exposes the issuer clock so flows build exp claims off the same
// time source.
func (ti *TokenIssuer) Now() time.Time {
	return ti.now()
}

func (ti *TokenIssuer) seal(claims *TokenClaims) (string, error) {
	signed, err := ti.codec.Encode(claims)
	if err != nil {
		return "", err
	}

	sealed, err := ti.cipher.EncryptString(signed)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encrypt token for transport")
	}

	return sealed, nil
}
