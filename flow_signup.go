package authkit

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// SignupVerificationMessage starts signup by mailing a verification
// token to the given address.
type SignupVerificationMessage struct {
	Email      string `json:"email"`
	Audience   Audience
	OnResponse func(*SignupVerificationResponse)
}

func (m SignupVerificationMessage) Type() string { return "signup.verification_request" }

// SignupVerificationResponse is handed to OnResponse when the flow accepts.
type SignupVerificationResponse struct {
	Stage     FlowStage
	VerifyURL string
}

// SignupVerificationHandler issues an email-verification token and
// hands the registration link to the notifier. No uniqueness check
// happens at this step; registration owns that.
type SignupVerificationHandler struct {
	issuer   *TokenIssuer
	notifier Notifier
	cfg      Config
	logger   Logger
}

// NewSignupVerificationHandler creates a handler with sane defaults.
func NewSignupVerificationHandler(issuer *TokenIssuer, notifier Notifier, cfg Config) *SignupVerificationHandler {
	return &SignupVerificationHandler{
		issuer:   issuer,
		notifier: notifier,
		cfg:      cfg,
		logger:   defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *SignupVerificationHandler) WithLogger(logger Logger) *SignupVerificationHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *SignupVerificationHandler) Execute(ctx context.Context, event SignupVerificationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during signup verification request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SignupVerificationHandler) execute(ctx context.Context, event SignupVerificationMessage) error {
	resp := &SignupVerificationResponse{Stage: StageReceived}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	now := h.issuer.Now()
	expiry := now.Add(time.Duration(h.cfg.GetSignupTTL()) * time.Minute)

	token, err := h.issuer.IssueScopedToken(&TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   event.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
		Purpose: PurposeEmailVerification,
		Email:   event.Email,
	})
	if err != nil {
		resp.Stage = StageRejected
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue email verification token")
	}

	resp.VerifyURL = EmailVerificationURL(h.cfg.GetBaseURL(), token, event.Audience)

	if err := h.notifier.SendEmailVerification(ctx, event.Email, resp.VerifyURL); err != nil {
		resp.Stage = StageRejected
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to send email verification notification")
	}

	resp.Stage = StageAccepted

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

// VerifyEmailMessage checks a verification token and echoes its email.
type VerifyEmailMessage struct {
	EmailToken string `json:"email_token"`
	OnResponse func(*VerifyEmailResponse)
}

func (m VerifyEmailMessage) Type() string { return "signup.verify_email" }

// VerifyEmailResponse is handed to OnResponse when the flow accepts.
type VerifyEmailResponse struct {
	Stage FlowStage
	Email string
}

// VerifyEmailHandler confirms a token is well-formed and unexpired and
// returns the embedded email. It mutates nothing.
type VerifyEmailHandler struct {
	validator *TokenValidator
	logger    Logger
}

// NewVerifyEmailHandler creates a handler with sane defaults.
func NewVerifyEmailHandler(validator *TokenValidator) *VerifyEmailHandler {
	return &VerifyEmailHandler{
		validator: validator,
		logger:    defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *VerifyEmailHandler) WithLogger(logger Logger) *VerifyEmailHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email verification",
		)
	default:
		return h.execute(event)
	}
}

func (h *VerifyEmailHandler) execute(event VerifyEmailMessage) error {
	resp := &VerifyEmailResponse{Stage: StageReceived}

	claims, err := h.validator.Open(event.EmailToken, "")
	if err != nil {
		resp.Stage = StageRejected
		return err
	}

	email := claims.Email
	if email == "" {
		email = claims.Subject()
	}
	if email == "" {
		resp.Stage = StageRejected
		return ErrTokenMalformed
	}

	resp.Email = email
	resp.Stage = StageAccepted

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

// RegisterUserMessage completes signup: the verification token proves
// email ownership, the rest of the fields build the account.
type RegisterUserMessage struct {
	EmailToken string `json:"email_token"`
	Name       string `json:"name"`
	Password   string `json:"password"`
	Audience   Audience
	UseHashid  bool
	OnResponse func(*RegisterUserResponse)
}

func (m RegisterUserMessage) Type() string { return "signup.register" }

// RegisterUserResponse is handed to OnResponse when the flow accepts.
type RegisterUserResponse struct {
	Stage  FlowStage
	User   *User
	Tokens *TokenPair
}

// RegisterUserHandler creates the user record and issues the first
// token pair inside one transaction; a failure in either rolls back
// both.
type RegisterUserHandler struct {
	repo      RepositoryManager
	issuer    *TokenIssuer
	validator *TokenValidator
	logger    Logger
}

// NewRegisterUserHandler creates a handler with sane defaults.
func NewRegisterUserHandler(repo RepositoryManager, issuer *TokenIssuer, validator *TokenValidator) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:      repo,
		issuer:    issuer,
		validator: validator,
		logger:    defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	resp := &RegisterUserResponse{Stage: StageReceived}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	claims, err := h.validator.Open(event.EmailToken, "")
	if err != nil {
		resp.Stage = StageRejected
		return err
	}

	email := claims.Email
	if email == "" {
		resp.Stage = StageRejected
		return ErrTokenMalformed
	}

	exists, err := h.repo.Users().EmailExists(ctx, email)
	if err != nil {
		resp.Stage = StageRejected
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email uniqueness")
	}
	if exists {
		resp.Stage = StageRejected
		return ErrEmailRegistered
	}

	resp.Stage = StageValidated

	user := &User{
		Name:   event.Name,
		Email:  email,
		Status: StatusActive,
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password provided")
		}
		user.PasswordHash = hash

		if event.UseHashid {
			if id, err := hashid.NewUUID(email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		tokens, err := h.issuer.IssueTokenPair(user, event.Audience)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue token pair for new user")
		}
		resp.Tokens = tokens

		return nil
	})

	if err != nil {
		resp.Stage = StageRejected
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	resp.User = user
	resp.Stage = StageAccepted

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
