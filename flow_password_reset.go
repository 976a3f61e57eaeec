package authkit

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ForgotPasswordMessage starts the reset flow for an email address.
type ForgotPasswordMessage struct {
	Email      string `json:"email"`
	Audience   Audience
	OnResponse func(*ForgotPasswordResponse)
}

func (m ForgotPasswordMessage) Type() string { return "auth.forgot_password" }

// ForgotPasswordResponse is handed to OnResponse when the flow accepts.
type ForgotPasswordResponse struct {
	Stage    FlowStage
	ResetURL string
}

// ForgotPasswordHandler issues a password-purpose token embedding the
// user's current hash and hands the reset link to the notifier. No
// reset record is stored anywhere: the token is the whole state.
type ForgotPasswordHandler struct {
	repo     RepositoryManager
	issuer   *TokenIssuer
	notifier Notifier
	cfg      Config
	logger   Logger
}

// NewForgotPasswordHandler creates a handler with sane defaults.
func NewForgotPasswordHandler(repo RepositoryManager, issuer *TokenIssuer, notifier Notifier, cfg Config) *ForgotPasswordHandler {
	return &ForgotPasswordHandler{
		repo:     repo,
		issuer:   issuer,
		notifier: notifier,
		cfg:      cfg,
		logger:   defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *ForgotPasswordHandler) WithLogger(logger Logger) *ForgotPasswordHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ForgotPasswordHandler) Execute(ctx context.Context, event ForgotPasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ForgotPasswordHandler) execute(ctx context.Context, event ForgotPasswordMessage) error {
	resp := &ForgotPasswordResponse{Stage: StageReceived}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByEmail(ctx, event.Email)
	if err != nil {
		resp.Stage = StageRejected
		if goerrors.IsNotFound(err) {
			return ErrIdentityNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	resp.Stage = StageValidated

	now := h.issuer.Now()
	expiry := now.Add(time.Duration(h.cfg.GetPasswordResetTTL()) * time.Minute)

	token, err := h.issuer.IssueScopedToken(&TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
		Purpose:      PurposePassword,
		UserID:       user.ID.String(),
		PasswordHash: user.PasswordHash,
	})
	if err != nil {
		resp.Stage = StageRejected
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue password reset token")
	}

	resp.ResetURL = PasswordResetURL(h.cfg.GetBaseURL(), token, event.Audience)

	if err := h.notifier.SendPasswordReset(ctx, user.Email, resp.ResetURL); err != nil {
		resp.Stage = StageRejected
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to send password reset notification")
	}

	resp.Stage = StageAccepted

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

// ResetPasswordMessage completes the reset flow with a token and the
// new password.
type ResetPasswordMessage struct {
	EmailToken string `json:"email_token"`
	Password   string `json:"password"`
	OnResponse func(*ResetPasswordResponse)
}

func (m ResetPasswordMessage) Type() string { return "auth.reset_password" }

// ResetPasswordResponse is handed to OnResponse when the flow accepts.
type ResetPasswordResponse struct {
	Stage  FlowStage
	UserID uuid.UUID
}

// ResetPasswordHandler updates the stored hash when the presented token
// still fingerprints it. Updating the hash is also what invalidates
// every other outstanding refresh/reset token for the account.
type ResetPasswordHandler struct {
	repo      RepositoryManager
	validator *TokenValidator
	logger    Logger
}

// NewResetPasswordHandler creates a handler with sane defaults.
func NewResetPasswordHandler(repo RepositoryManager, validator *TokenValidator) *ResetPasswordHandler {
	return &ResetPasswordHandler{
		repo:      repo,
		validator: validator,
		logger:    defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *ResetPasswordHandler) WithLogger(logger Logger) *ResetPasswordHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ResetPasswordHandler) Execute(ctx context.Context, event ResetPasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResetPasswordHandler) execute(ctx context.Context, event ResetPasswordMessage) error {
	resp := &ResetPasswordResponse{Stage: StageReceived}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	// Purpose is intentionally not asserted here, matching the system
	// this replaces: any decodable token passes, and the embedded hash
	// comparison below is the check that gates the reset.
	claims, err := h.validator.Open(event.EmailToken, "")
	if err != nil {
		resp.Stage = StageRejected
		return err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		resp.Stage = StageRejected
		return ErrTokenMalformed
	}

	user, err := h.repo.Users().GetByIDAndPasswordHash(ctx, userID, claims.PasswordHash)
	if err != nil {
		resp.Stage = StageRejected
		if goerrors.IsNotFound(err) {
			// already reset, or the account is gone
			return ErrIdentityNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	resp.Stage = StageValidated

	passwordHash, err := HashPassword(event.Password)
	if err != nil {
		resp.Stage = StageRejected
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return h.repo.Users().UpdatePasswordTx(ctx, tx, user.ID, passwordHash)
	})

	if err != nil {
		resp.Stage = StageRejected
		if goerrors.IsNotFound(err) {
			return ErrIdentityNotFound
		}
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user password")
	}

	resp.UserID = user.ID
	resp.Stage = StageAccepted

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
