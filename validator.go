package authkit

// TokenValidator reverses the transport cipher, decodes claims through
// the ClaimCodec, and optionally asserts the token purpose.
type TokenValidator struct {
	codec  *ClaimCodec
	cipher *TransportCipher
	logger Logger
}

// NewTokenValidator creates a validator from shared codec and cipher.
func NewTokenValidator(codec *ClaimCodec, cipher *TransportCipher) *TokenValidator {
	return &TokenValidator{
		codec:  codec,
		cipher: cipher,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the validator.
func (tv *TokenValidator) WithLogger(logger Logger) *TokenValidator {
	if logger != nil {
		tv.logger = logger
	}
	return tv
}

// Open unwraps a transport token and returns its claims. An empty
// expected purpose skips the purpose assertion; callers doing that own
// whatever check replaces it.
func (tv *TokenValidator) Open(transportToken string, expected Purpose) (*TokenClaims, error) {
	signed, err := tv.cipher.DecryptString(transportToken)
	if err != nil {
		return nil, err
	}

	claims, err := tv.codec.Decode(signed)
	if err != nil {
		return nil, err
	}

	if expected != "" && claims.Purpose != expected {
		tv.logger.Debug("token purpose mismatch", "expected", string(expected), "got", string(claims.Purpose))
		return nil, ErrPurposeMismatch
	}

	return claims, nil
}
