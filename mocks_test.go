package authkit_test

import (
	"context"
	"database/sql"

	"github.com/contactkit/authkit"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// MockRepositoryManager implements authkit.RepositoryManager
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(context.Context, bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	return args.Error(0)
}

func (m *MockRepositoryManager) Users() authkit.Users {
	args := m.Called()
	return args.Get(0).(authkit.Users)
}

// MockUsers implements authkit.Users. The embedded repository interface
// covers the surface these tests never touch; calls to it would panic.
type MockUsers struct {
	mock.Mock
	repository.Repository[*authkit.User]
}

func (m *MockUsers) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*authkit.User, error) {
	args := m.Called(ctx, id)
	if user, ok := args.Get(0).(*authkit.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*authkit.User, error) {
	args := m.Called(ctx, email)
	if user, ok := args.Get(0).(*authkit.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*authkit.User, error) {
	args := m.Called(ctx, tx, email)
	if user, ok := args.Get(0).(*authkit.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) GetByIDAndPasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) (*authkit.User, error) {
	args := m.Called(ctx, id, passwordHash)
	if user, ok := args.Get(0).(*authkit.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsers) EmailExistsTx(ctx context.Context, tx bun.IDB, email string) (bool, error) {
	args := m.Called(ctx, tx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *authkit.User, criteria ...repository.InsertCriteria) (*authkit.User, error) {
	args := m.Called(ctx, tx, record)
	if user, ok := args.Get(0).(*authkit.User); ok {
		return user, args.Error(1)
	}
	if args.Error(1) == nil {
		// echo the record back, like the real repository does
		return record, nil
	}
	return nil, args.Error(1)
}

func (m *MockUsers) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUsers) UpdatePasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, tx, id, passwordHash)
	return args.Error(0)
}

// MockNotifier implements authkit.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendPasswordReset(ctx context.Context, email, resetURL string) error {
	args := m.Called(ctx, email, resetURL)
	return args.Error(0)
}

func (m *MockNotifier) SendEmailVerification(ctx context.Context, email, verifyURL string) error {
	args := m.Called(ctx, email, verifyURL)
	return args.Error(0)
}
