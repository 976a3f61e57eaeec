package authkit_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/contactkit/authkit"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func newTestConfig() authkit.SimpleConfig {
	return authkit.SimpleConfig{
		SigningKey:   "test-signing-key",
		TransportKey: "test-transport-key",
		Issuer:       "authkit-test",
		AppKey:       "test-app-key",
		BaseURL:      "http://localhost:3000",
	}
}

// newTokenStack builds a shared codec/cipher pair plus the issuer and
// validator most tests need.
func newTokenStack(t *testing.T, cfg authkit.Config) (*authkit.TokenIssuer, *authkit.TokenValidator) {
	t.Helper()

	codec := authkit.NewClaimCodec([]byte(cfg.GetSigningKey()), testLogger{})

	cipher, err := authkit.NewTransportCipher(cfg.GetTransportKey())
	require.NoError(t, err)

	issuer := authkit.NewTokenIssuer(codec, cipher, cfg).WithLogger(testLogger{})
	validator := authkit.NewTokenValidator(codec, cipher).WithLogger(testLogger{})

	return issuer, validator
}

// passthroughTx wires the repository mock so RunInTx executes its
// closure against a zero-value bun.Tx.
func passthroughTx(t *testing.T, repo *MockRepositoryManager) {
	t.Helper()

	repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).
		Return(nil).
		Run(func(args mock.Arguments) {
			fn := args.Get(2).(func(context.Context, bun.Tx) error)
			require.NoError(t, fn(args.Get(0).(context.Context), bun.Tx{}))
		})
}
