package authkit

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// NewAuthGuard gates protected routes. It extracts the bearer
// credential, opens it with purpose access, and requires the referenced
// user to still exist before attaching identity to the request.
func NewAuthGuard(validator *TokenValidator, repo RepositoryManager, logger Logger) fiber.Handler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Token not provided",
			})
		}

		claims, err := validator.Open(token, PurposeAccess)
		if err != nil {
			if IsPurposeMismatchError(err) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid token",
				})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Token not valid",
			})
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Token not valid",
			})
		}

		user, err := repo.Users().GetByID(c.UserContext(), userID.String())
		if err != nil {
			if !goerrors.IsNotFound(err) {
				logger.Error("auth guard user lookup failed", "error", err)
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Token not valid",
			})
		}

		c.Locals(LocalsUserKey, user)
		c.Locals(LocalsClaimsKey, claims)

		ctx := WithContext(c.UserContext(), user)
		ctx = WithClaimsContext(ctx, claims)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// ValidateAppKey selects the audience profile from the x-app-key
// header. A present-but-wrong key is rejected; an absent header means
// the web profile.
func ValidateAppKey(cfg Config, logger Logger) fiber.Handler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx) error {
		key := c.Get("x-app-key")
		if key == "" {
			c.Locals(LocalsAudienceKey, AudienceWeb)
			return c.Next()
		}

		if key != cfg.GetAppKey() {
			logger.Warn("request with invalid app key", "path", c.Path())
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Invalid App Key",
			})
		}

		c.Locals(LocalsAudienceKey, AudienceApp)
		return c.Next()
	}
}

// AudienceFromCtx reads the audience profile the app-key middleware
// stored. Routes without that middleware get the web profile.
func AudienceFromCtx(c *fiber.Ctx) Audience {
	if aud, ok := c.Locals(LocalsAudienceKey).(Audience); ok {
		return aud
	}
	return AudienceWeb
}

// UserFromCtx reads the user the guard resolved for this request.
func UserFromCtx(c *fiber.Ctx) (*User, bool) {
	user, ok := c.Locals(LocalsUserKey).(*User)
	return user, ok
}

// ClaimsFromCtx reads the claims the guard resolved for this request.
func ClaimsFromCtx(c *fiber.Ctx) (*TokenClaims, bool) {
	claims, ok := c.Locals(LocalsClaimsKey).(*TokenClaims)
	return claims, ok
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
