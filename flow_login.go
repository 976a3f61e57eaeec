package authkit

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// LoginMessage carries the credentials presented to the login flow.
type LoginMessage struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Audience   Audience
	OnResponse func(*LoginResponse)
}

func (m LoginMessage) Type() string { return "auth.login" }

// LoginResponse is handed to OnResponse when the flow accepts.
type LoginResponse struct {
	Stage  FlowStage
	Tokens *TokenPair
}

// LoginHandler verifies email+password and mints a token pair. Every
// rejection it returns is ErrInvalidCredentials: callers cannot tell an
// unknown email from a wrong password.
type LoginHandler struct {
	repo   RepositoryManager
	issuer *TokenIssuer
	logger Logger
}

// NewLoginHandler creates a handler with sane defaults.
func NewLoginHandler(repo RepositoryManager, issuer *TokenIssuer) *LoginHandler {
	return &LoginHandler{
		repo:   repo,
		issuer: issuer,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *LoginHandler) WithLogger(logger Logger) *LoginHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *LoginHandler) Execute(ctx context.Context, event LoginMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during login",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *LoginHandler) execute(ctx context.Context, event LoginMessage) error {
	resp := &LoginResponse{Stage: StageReceived}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByEmail(ctx, event.Email)
	if err != nil {
		resp.Stage = StageRejected
		if goerrors.IsNotFound(err) {
			// burn a comparison so unknown emails take as long as
			// wrong passwords
			_ = ComparePasswordAndHash(event.Password, dummyComparisonHash())
			return ErrInvalidCredentials
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during login")
	}

	if err := ComparePasswordAndHash(event.Password, user.PasswordHash); err != nil {
		resp.Stage = StageRejected
		return ErrInvalidCredentials
	}

	resp.Stage = StageValidated

	tokens, err := h.issuer.IssueTokenPair(user, event.Audience)
	if err != nil {
		resp.Stage = StageRejected
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue token pair during login")
	}

	resp.Tokens = tokens
	resp.Stage = StageAccepted

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
