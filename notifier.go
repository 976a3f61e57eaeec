package authkit

import (
	"context"
	"net/url"
	"strings"
)

// Notifier delivers ready-made URLs to users. Delivery itself is an
// external concern; the flows only hand over the final link.
type Notifier interface {
	SendPasswordReset(ctx context.Context, email, resetURL string) error
	SendEmailVerification(ctx context.Context, email, verifyURL string) error
}

// PasswordResetURL builds the opaque reset link for the audience
// profile. App clients land on the /app/ alias.
func PasswordResetURL(baseURL, token string, aud Audience) string {
	if aud == AudienceApp {
		return joinURL(baseURL, "/api/app/reset-password") + "?email_token=" + url.QueryEscape(token)
	}
	return joinURL(baseURL, "/api/reset-password") + "?email_token=" + url.QueryEscape(token)
}

// EmailVerificationURL builds the signup verification link for the
// audience profile.
func EmailVerificationURL(baseURL, token string, aud Audience) string {
	if aud == AudienceApp {
		return joinURL(baseURL, "/api/app/signup/email/") + url.PathEscape(token)
	}
	return joinURL(baseURL, "/api/signup/email/") + url.PathEscape(token)
}

func joinURL(baseURL, path string) string {
	return strings.TrimSuffix(baseURL, "/") + path
}

// LogNotifier writes notifications to the logger instead of sending
// email. It is the default wiring for development and tests.
type LogNotifier struct {
	logger Logger
}

var _ Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a Notifier that only logs.
func NewLogNotifier(logger Logger) *LogNotifier {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendPasswordReset(ctx context.Context, email, resetURL string) error {
	n.logger.Info("password reset notification", "to", email, "link", resetURL)
	return nil
}

func (n *LogNotifier) SendEmailVerification(ctx context.Context, email, verifyURL string) error {
	n.logger.Info("email verification notification", "to", email, "link", verifyURL)
	return nil
}
