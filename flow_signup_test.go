package authkit_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/contactkit/authkit"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func TestSignupVerificationHandler(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig()
	issuer, validator := newTokenStack(t, cfg)

	t.Run("mails a verification link carrying the email", func(t *testing.T) {
		notifier := &MockNotifier{}

		var sentURL string
		notifier.On("SendEmailVerification", mock.Anything, "new@example.com", mock.Anything).
			Return(nil).
			Run(func(args mock.Arguments) {
				sentURL = args.String(2)
			}).Once()

		var res *authkit.SignupVerificationResponse
		handler := authkit.NewSignupVerificationHandler(issuer, notifier, cfg).WithLogger(testLogger{})

		err := handler.Execute(ctx, authkit.SignupVerificationMessage{
			Email:    "new@example.com",
			Audience: authkit.AudienceWeb,
			OnResponse: func(r *authkit.SignupVerificationResponse) {
				res = r
			},
		})

		require.NoError(t, err)
		require.NotNil(t, res)
		assert.Equal(t, authkit.StageAccepted, res.Stage)
		assert.Equal(t, res.VerifyURL, sentURL)

		prefix := cfg.BaseURL + "/api/signup/email/"
		require.True(t, strings.HasPrefix(sentURL, prefix))

		claims, err := validator.Open(strings.TrimPrefix(sentURL, prefix), authkit.PurposeEmailVerification)
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", claims.Email)
		assert.Equal(t, "new@example.com", claims.Subject())

		notifier.AssertExpectations(t)
	})

	t.Run("notifier failure aborts the flow", func(t *testing.T) {
		notifier := &MockNotifier{}
		notifier.On("SendEmailVerification", mock.Anything, mock.Anything, mock.Anything).
			Return(assert.AnError).Once()

		handler := authkit.NewSignupVerificationHandler(issuer, notifier, cfg).WithLogger(testLogger{})

		err := handler.Execute(ctx, authkit.SignupVerificationMessage{
			Email: "new@example.com",
		})

		assert.Error(t, err)
	})
}

func TestVerifyEmailHandler(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig()
	issuer, validator := newTokenStack(t, cfg)

	issueVerification := func(t *testing.T, email string, expiry time.Time) string {
		t.Helper()
		token, err := issuer.IssueScopedToken(&authkit.TokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   email,
				ExpiresAt: jwt.NewNumericDate(expiry),
			},
			Purpose: authkit.PurposeEmailVerification,
			Email:   email,
		})
		require.NoError(t, err)
		return token
	}

	t.Run("echoes the embedded email", func(t *testing.T) {
		token := issueVerification(t, "new@example.com", time.Now().Add(time.Hour))

		var res *authkit.VerifyEmailResponse
		handler := authkit.NewVerifyEmailHandler(validator).WithLogger(testLogger{})

		err := handler.Execute(ctx, authkit.VerifyEmailMessage{
			EmailToken: token,
			OnResponse: func(r *authkit.VerifyEmailResponse) {
				res = r
			},
		})

		require.NoError(t, err)
		require.NotNil(t, res)
		assert.Equal(t, "new@example.com", res.Email)
		assert.Equal(t, authkit.StageAccepted, res.Stage)
	})

	t.Run("falls back to the sub claim", func(t *testing.T) {
		token, err := issuer.IssueScopedToken(&authkit.TokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "sub-only@example.com",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			Purpose: authkit.PurposeEmailVerification,
		})
		require.NoError(t, err)

		var res *authkit.VerifyEmailResponse
		handler := authkit.NewVerifyEmailHandler(validator).WithLogger(testLogger{})

		err = handler.Execute(ctx, authkit.VerifyEmailMessage{
			EmailToken: token,
			OnResponse: func(r *authkit.VerifyEmailResponse) {
				res = r
			},
		})

		require.NoError(t, err)
		assert.Equal(t, "sub-only@example.com", res.Email)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		token := issueVerification(t, "new@example.com", time.Now().Add(-time.Minute))

		handler := authkit.NewVerifyEmailHandler(validator).WithLogger(testLogger{})

		err := handler.Execute(ctx, authkit.VerifyEmailMessage{EmailToken: token})
		assert.True(t, authkit.IsTokenExpiredError(err))
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		handler := authkit.NewVerifyEmailHandler(validator).WithLogger(testLogger{})

		err := handler.Execute(ctx, authkit.VerifyEmailMessage{EmailToken: "garbage"})
		assert.True(t, authkit.IsTokenMalformedError(err))
	})
}

func TestRegisterUserHandler(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig()
	issuer, validator := newTokenStack(t, cfg)

	issueVerification := func(t *testing.T, email string) string {
		t.Helper()
		token, err := issuer.IssueScopedToken(&authkit.TokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   email,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			Purpose: authkit.PurposeEmailVerification,
			Email:   email,
		})
		require.NoError(t, err)
		return token
	}

	t.Run("creates the user and issues the first pair atomically", func(t *testing.T) {
		token := issueVerification(t, "new@example.com")

		repo := &MockRepositoryManager{}
		users := &MockUsers{}
		repo.On("Users").Return(users)
		passthroughTx(t, repo)

		users.On("EmailExists", mock.Anything, "new@example.com").Return(false, nil).Once()
		users.On("CreateTx", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, nil).
			Run(func(args mock.Arguments) {
				record := args.Get(2).(*authkit.User)
				record.ID = uuid.New()
			}).Once()

		var res *authkit.RegisterUserResponse
		handler := authkit.NewRegisterUserHandler(repo, issuer, validator).WithLogger(testLogger{})

		err := handler.Execute(ctx, authkit.RegisterUserMessage{
			EmailToken: token,
			Name:       "New User",
			Password:   "password123",
			Audience:   authkit.AudienceWeb,
			OnResponse: func(r *authkit.RegisterUserResponse) {
				res = r
			},
		})

		require.NoError(t, err)
		require.NotNil(t, res)
		assert.Equal(t, authkit.StageAccepted, res.Stage)
		require.NotNil(t, res.User)
		assert.Equal(t, "new@example.com", res.User.Email)
		assert.Equal(t, authkit.StatusActive, res.User.Status)
		assert.NoError(t, authkit.ComparePasswordAndHash("password123", res.User.PasswordHash))

		require.NotNil(t, res.Tokens)
		claims, err := validator.Open(res.Tokens.AccessToken.Token, authkit.PurposeAccess)
		require.NoError(t, err)
		assert.Equal(t, res.User.ID.String(), claims.UserID)

		users.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("derives a deterministic id from the email when asked", func(t *testing.T) {
		token := issueVerification(t, "stable@example.com")

		repo := &MockRepositoryManager{}
		users := &MockUsers{}
		repo.On("Users").Return(users)
		passthroughTx(t, repo)

		users.On("EmailExists", mock.Anything, "stable@example.com").Return(false, nil).Once()
		users.On("CreateTx", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, nil).Once()

		var res *authkit.RegisterUserResponse
		handler := authkit.NewRegisterUserHandler(repo, issuer, validator).WithLogger(testLogger{})

		err := handler.Execute(ctx, authkit.RegisterUserMessage{
			EmailToken: token,
			Name:       "Stable User",
			Password:   "password123",
			UseHashid:  true,
			OnResponse: func(r *authkit.RegisterUserResponse) {
				res = r
			},
		})

		require.NoError(t, err)
		require.NotNil(t, res)
		require.NotNil(t, res.User)

		want, err := hashid.NewUUID("stable@example.com")
		require.NoError(t, err)
		assert.Equal(t, want, res.User.ID)
	})

	t.Run("rejects an already registered email", func(t *testing.T) {
		token := issueVerification(t, "taken@example.com")

		repo := &MockRepositoryManager{}
		users := &MockUsers{}
		repo.On("Users").Return(users)
		users.On("EmailExists", mock.Anything, "taken@example.com").Return(true, nil).Once()

		handler := authkit.NewRegisterUserHandler(repo, issuer, validator).WithLogger(testLogger{})

		err := handler.Execute(ctx, authkit.RegisterUserMessage{
			EmailToken: token,
			Name:       "New User",
			Password:   "password123",
		})

		assert.True(t, authkit.HasTextCode(err, authkit.TextCodeEmailRegistered))
		repo.AssertNotCalled(t, "RunInTx")
	})

	t.Run("rejects an expired verification token", func(t *testing.T) {
		token, err := issuer.IssueScopedToken(&authkit.TokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "late@example.com",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
			Purpose: authkit.PurposeEmailVerification,
			Email:   "late@example.com",
		})
		require.NoError(t, err)

		repo := &MockRepositoryManager{}
		handler := authkit.NewRegisterUserHandler(repo, issuer, validator).WithLogger(testLogger{})

		err = handler.Execute(ctx, authkit.RegisterUserMessage{
			EmailToken: token,
			Name:       "Late User",
			Password:   "password123",
		})

		assert.True(t, authkit.IsTokenExpiredError(err))
		repo.AssertNotCalled(t, "Users")
	})

	t.Run("create failure rolls the transaction back", func(t *testing.T) {
		token := issueVerification(t, "new@example.com")

		repo := &MockRepositoryManager{}
		users := &MockUsers{}
		repo.On("Users").Return(users)
		users.On("EmailExists", mock.Anything, "new@example.com").Return(false, nil).Once()
		users.On("CreateTx", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, assert.AnError).Once()

		repo.On("RunInTx", mock.Anything, mock.Anything, mock.Anything).
			Return(assert.AnError).
			Run(func(args mock.Arguments) {
				fn := args.Get(2).(func(context.Context, bun.Tx) error)
				assert.Error(t, fn(args.Get(0).(context.Context), bun.Tx{}))
			}).Once()

		handler := authkit.NewRegisterUserHandler(repo, issuer, validator).WithLogger(testLogger{})

		err := handler.Execute(ctx, authkit.RegisterUserMessage{
			EmailToken: token,
			Name:       "New User",
			Password:   "password123",
		})

		assert.Error(t, err)
	})
}
