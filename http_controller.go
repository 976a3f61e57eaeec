package authkit

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
)

// AuthController wires the credential flows to their HTTP surface. All
// status-code and body mapping lives here; the flows below it only
// return typed errors.
type AuthController struct {
	Debug     bool
	Logger    Logger
	Repo      RepositoryManager
	Issuer    *TokenIssuer
	Validator *TokenValidator
	Notifier  Notifier
	Config    Config
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Issuer == nil || c.Validator == nil {
		panic("Missing token issuer/validator in auth controller...")
	}

	if c.Config == nil {
		panic("Missing Config in auth controller...")
	}

	if c.Notifier == nil {
		c.Notifier = NewLogNotifier(c.Logger)
	}

	return c
}

// WithControllerLogger sets the controller logger.
func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// WithControllerRepo sets the repository manager.
func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

// WithControllerTokens sets the issuer and validator pair.
func WithControllerTokens(issuer *TokenIssuer, validator *TokenValidator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Issuer = issuer
		c.Validator = validator
		return c
	}
}

// WithControllerNotifier sets the outbound notifier.
func WithControllerNotifier(n Notifier) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Notifier = n
		return c
	}
}

// WithControllerConfig sets the auth configuration.
func WithControllerConfig(cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Config = cfg
		return c
	}
}

// WithControllerDebug toggles debug payload printing.
func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

// RegisterAuthRoutes mounts the credential endpoints under /api. The
// verify-email and reset-password routes also get /app/ aliases so
// mailed links can land on either profile without the app key header.
func RegisterAuthRoutes(app *fiber.App, controller *AuthController) {
	appKey := ValidateAppKey(controller.Config, controller.Logger)
	guard := NewAuthGuard(controller.Validator, controller.Repo, controller.Logger)

	api := app.Group("/api")

	api.Post("/signup/email", appKey, controller.SendVerificationEmail)
	api.Get("/signup/email/:token", controller.VerifyEmail)
	api.Get("/app/signup/email/:token", controller.VerifyEmail)
	api.Post("/signup", appKey, controller.Register)

	api.Post("/login", appKey, controller.Login)
	api.Put("/login", appKey, controller.RefreshAccessToken)

	api.Post("/forgot-password", appKey, controller.ForgotPassword)
	api.Post("/reset-password", controller.ResetPassword)
	api.Post("/app/reset-password", controller.ResetPassword)

	api.Get("/users", guard, controller.UserDetails)
}

// LoginPayload is the login request body
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) Login(c *fiber.Ctx) error {
	payload := new(LoginPayload)

	if err := c.BodyParser(payload); err != nil {
		return a.badPayload(c, err)
	}

	if err := payload.Validate(); err != nil {
		return a.failedValidation(c, err)
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=========================")
	}

	var res *LoginResponse
	msg := LoginMessage{
		Email:    payload.Email,
		Password: payload.Password,
		Audience: AudienceFromCtx(c),
		OnResponse: func(r *LoginResponse) {
			res = r
		},
	}

	login := NewLoginHandler(a.Repo, a.Issuer).WithLogger(a.Logger)

	if err := login.Execute(c.UserContext(), msg); err != nil {
		if HasTextCode(err, TextCodeInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid credentials.",
			})
		}
		a.Logger.Error("login failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Login failed. Please try again.",
		})
	}

	return c.JSON(res.Tokens)
}

// RefreshPayload is the refresh request body
type RefreshPayload struct {
	RefreshToken string `json:"refresh_token"`
}

// Validate will run validation rules
func (r RefreshPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

func (a *AuthController) RefreshAccessToken(c *fiber.Ctx) error {
	payload := new(RefreshPayload)

	if err := c.BodyParser(payload); err != nil {
		return a.badPayload(c, err)
	}

	if err := payload.Validate(); err != nil {
		return a.failedValidation(c, err)
	}

	var res *RefreshResponse
	msg := RefreshMessage{
		RefreshToken: payload.RefreshToken,
		Audience:     AudienceFromCtx(c),
		OnResponse: func(r *RefreshResponse) {
			res = r
		},
	}

	refresh := NewRefreshHandler(a.Repo, a.Issuer, a.Validator).WithLogger(a.Logger)

	if err := refresh.Execute(c.UserContext(), msg); err != nil {
		if HasTextCode(err, TextCodeInvalidRefreshToken) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid refresh token.",
			})
		}
		a.Logger.Error("refresh token failed", "error", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Refresh token is invalid or expired.",
		})
	}

	return c.JSON(res.Tokens)
}

// ForgotPasswordPayload is the forgot-password request body
type ForgotPasswordPayload struct {
	Email string `json:"email"`
}

// Validate will run validation rules
func (r ForgotPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AuthController) ForgotPassword(c *fiber.Ctx) error {
	payload := new(ForgotPasswordPayload)

	if err := c.BodyParser(payload); err != nil {
		return a.badPayload(c, err)
	}

	if err := payload.Validate(); err != nil {
		return a.failedValidation(c, err)
	}

	msg := ForgotPasswordMessage{
		Email:    payload.Email,
		Audience: AudienceFromCtx(c),
	}

	forgot := NewForgotPasswordHandler(a.Repo, a.Issuer, a.Notifier, a.Config).WithLogger(a.Logger)

	if err := forgot.Execute(c.UserContext(), msg); err != nil {
		if HasTextCode(err, TextCodeUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}
		// The original API reports unexpected failures here as 404 as
		// well; replicated so existing clients keep their handling.
		a.Logger.Error("forgot password failed", "error", err)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Failed. Please try again.",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Password reset email sent",
	})
}

// ResetPasswordPayload is the reset-password request body
type ResetPasswordPayload struct {
	EmailToken string `json:"email_token"`
	Password   string `json:"password"`
}

// Validate will run validation rules
func (r ResetPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.EmailToken, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}

func (a *AuthController) ResetPassword(c *fiber.Ctx) error {
	payload := new(ResetPasswordPayload)

	if err := c.BodyParser(payload); err != nil {
		return a.badPayload(c, err)
	}

	if err := payload.Validate(); err != nil {
		return a.failedValidation(c, err)
	}

	msg := ResetPasswordMessage{
		EmailToken: payload.EmailToken,
		Password:   payload.Password,
	}

	reset := NewResetPasswordHandler(a.Repo, a.Validator).WithLogger(a.Logger)

	if err := reset.Execute(c.UserContext(), msg); err != nil {
		switch {
		case IsTokenExpiredError(err):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "reset token expired",
			})
		case IsTokenMalformedError(err):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid reset token",
			})
		case HasTextCode(err, TextCodeUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found or token expired",
			})
		}
		a.Logger.Error("reset password failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Reset password failed",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Password updated",
	})
}

// SignupVerificationPayload is the signup initiation body
type SignupVerificationPayload struct {
	Email string `json:"email"`
}

// Validate will run validation rules
func (r SignupVerificationPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AuthController) SendVerificationEmail(c *fiber.Ctx) error {
	payload := new(SignupVerificationPayload)

	if err := c.BodyParser(payload); err != nil {
		return a.badPayload(c, err)
	}

	if err := payload.Validate(); err != nil {
		return a.failedValidation(c, err)
	}

	msg := SignupVerificationMessage{
		Email:    payload.Email,
		Audience: AudienceFromCtx(c),
	}

	verification := NewSignupVerificationHandler(a.Issuer, a.Notifier, a.Config).WithLogger(a.Logger)

	if err := verification.Execute(c.UserContext(), msg); err != nil {
		a.Logger.Error("email verification send failed", "email", payload.Email, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to send email. Please try again.",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Verification initiated",
	})
}

func (a *AuthController) VerifyEmail(c *fiber.Ctx) error {
	token := c.Params("token")

	var res *VerifyEmailResponse
	msg := VerifyEmailMessage{
		EmailToken: token,
		OnResponse: func(r *VerifyEmailResponse) {
			res = r
		},
	}

	verify := NewVerifyEmailHandler(a.Validator).WithLogger(a.Logger)

	if err := verify.Execute(c.UserContext(), msg); err != nil {
		switch {
		case IsTokenExpiredError(err):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"email_token": "Token expired",
			})
		case IsTokenMalformedError(err):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"email_token": "Invalid email token",
			})
		}
		a.Logger.Error("verify email failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Verification failed. Please try again.",
		})
	}

	return c.JSON(fiber.Map{
		"email": res.Email,
	})
}

// RegisterPayload is the registration request body
type RegisterPayload struct {
	EmailToken string `json:"email_token"`
	Name       string `json:"name"`
	Password   string `json:"password"`
}

// Validate will run validation rules
func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.EmailToken, validation.Required),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}

func (a *AuthController) Register(c *fiber.Ctx) error {
	payload := new(RegisterPayload)

	if err := c.BodyParser(payload); err != nil {
		return a.badPayload(c, err)
	}

	if err := payload.Validate(); err != nil {
		return a.failedValidation(c, err)
	}

	var res *RegisterUserResponse
	msg := RegisterUserMessage{
		EmailToken: payload.EmailToken,
		Name:       payload.Name,
		Password:   payload.Password,
		Audience:   AudienceFromCtx(c),
		OnResponse: func(r *RegisterUserResponse) {
			res = r
		},
	}

	register := NewRegisterUserHandler(a.Repo, a.Issuer, a.Validator).WithLogger(a.Logger)

	if err := register.Execute(c.UserContext(), msg); err != nil {
		switch {
		case IsTokenExpiredError(err):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"email": "Token expired",
			})
		case IsTokenMalformedError(err):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"email": "Invalid email token",
			})
		case HasTextCode(err, TextCodeEmailRegistered):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"email": "Email address already registered",
			})
		}
		a.Logger.Error("register failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed. Please try again.",
		})
	}

	return c.JSON(res.Tokens)
}

func (a *AuthController) UserDetails(c *fiber.Ctx) error {
	user, ok := UserFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Token not valid",
		})
	}

	return c.JSON(fiber.Map{
		"user": user,
	})
}

func (a *AuthController) badPayload(c *fiber.Ctx, err error) error {
	a.Logger.Error("failed to parse request payload", "error", err)
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Failed to parse request body",
	})
}

func (a *AuthController) failedValidation(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"errors": FormatValidationErrorToMap(err),
	})
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field -> message map.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["error"] = err.Error()
	return out
}
