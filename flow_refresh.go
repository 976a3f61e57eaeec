package authkit

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// RefreshMessage carries a refresh-purpose transport token.
type RefreshMessage struct {
	RefreshToken string `json:"refresh_token"`
	Audience     Audience
	OnResponse   func(*RefreshResponse)
}

func (m RefreshMessage) Type() string { return "auth.refresh" }

// RefreshResponse is handed to OnResponse when the flow accepts.
type RefreshResponse struct {
	Stage  FlowStage
	Tokens *TokenPair
}

// RefreshHandler validates a refresh token and mints a fresh pair.
// Tokens are not rotated as a family: each call mints an independent
// pair and the presented token stays valid until expiry. Revocation
// happens through the embedded password hash: once the user's stored
// hash changes, the fingerprint lookup stops matching.
type RefreshHandler struct {
	repo      RepositoryManager
	issuer    *TokenIssuer
	validator *TokenValidator
	logger    Logger
}

// NewRefreshHandler creates a handler with sane defaults.
func NewRefreshHandler(repo RepositoryManager, issuer *TokenIssuer, validator *TokenValidator) *RefreshHandler {
	return &RefreshHandler{
		repo:      repo,
		issuer:    issuer,
		validator: validator,
		logger:    defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *RefreshHandler) WithLogger(logger Logger) *RefreshHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RefreshHandler) Execute(ctx context.Context, event RefreshMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during token refresh",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RefreshHandler) execute(ctx context.Context, event RefreshMessage) error {
	resp := &RefreshResponse{Stage: StageReceived}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	claims, err := h.validator.Open(event.RefreshToken, PurposeRefresh)
	if err != nil {
		resp.Stage = StageRejected
		if IsPurposeMismatchError(err) {
			return ErrInvalidRefreshToken
		}
		// expired, tampered, or undecryptable
		return err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		resp.Stage = StageRejected
		return ErrInvalidRefreshToken
	}

	user, err := h.repo.Users().GetByIDAndPasswordHash(ctx, userID, claims.PasswordHash)
	if err != nil {
		resp.Stage = StageRejected
		if goerrors.IsNotFound(err) {
			// gone, or the password changed after issuance
			return ErrInvalidRefreshToken
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during token refresh")
	}

	resp.Stage = StageValidated

	tokens, err := h.issuer.IssueTokenPair(user, event.Audience)
	if err != nil {
		resp.Stage = StageRejected
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue token pair during refresh")
	}

	resp.Tokens = tokens
	resp.Stage = StageAccepted

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
