package users

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-users/middleware/jwtware"
)

// AuthController exposes the credential flows over HTTP.
type AuthController struct {
	auther     *Auther
	register   *RegisterUserHandler
	verify     *VerifyEmailHandler
	resetInit  *InitializePasswordResetHandler
	resetFin   *FinalizePasswordResetHandler
	resend     *ResendVerificationHandler
	logger     Logger
	rawToken   string
	contextKey string
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(repo RepositoryManager, auther *Auther, mailer Mailer, opts ...AuthControllerOption) *AuthController {
	logger := defLogger{}

	controller := &AuthController{
		auther:     auther,
		register:   NewRegisterUserHandler(repo, auther.TokenService(), mailer, logger),
		verify:     NewVerifyEmailHandler(repo),
		resetInit:  NewInitializePasswordResetHandler(repo, mailer, logger),
		resetFin:   NewFinalizePasswordResetHandler(repo),
		resend:     NewResendVerificationHandler(repo, mailer, logger),
		logger:     logger,
		rawToken:   "user_token",
		contextKey: "user",
	}

	for _, opt := range opts {
		if opt != nil {
			controller = opt(controller)
		}
	}

	return controller
}

func WithAuthLogger(logger Logger) AuthControllerOption {
	return func(a *AuthController) *AuthController {
		if logger != nil {
			a.logger = logger
		}
		return a
	}
}

// RegisterAuthRoutes mounts the auth endpoints. The gate handler
// protects the routes that act on an authenticated user.
func RegisterAuthRoutes(app fiber.Router, controller *AuthController, gate fiber.Handler) {
	auth := app.Group("/auth")

	auth.Post("/register", controller.Register)
	auth.Post("/login", controller.Login)
	auth.Post("/verify-email", controller.VerifyEmail)
	auth.Post("/forgot-password", controller.ForgotPassword)
	auth.Post("/reset-password", controller.ResetPassword)

	auth.Post("/logout", gate, controller.Logout)
	auth.Post("/change-password", gate, controller.ChangePassword)
	auth.Post("/resend-verification", gate, controller.ResendVerification)
}

type RegisterPayload struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Validate will validate the payload
func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
	)
}

func (a *AuthController) Register(c *fiber.Ctx) error {
	payload := new(RegisterPayload)
	if err := c.BodyParser(payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body").
			WithCode(fiber.StatusBadRequest)
	}

	if err := payload.Validate(); err != nil {
		return validationError(err)
	}

	var resp *RegisterUserResponse
	err := a.register.Execute(c.Context(), RegisterUserMessage{
		Email:     payload.Email,
		Password:  payload.Password,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		OnResponse: func(r *RegisterUserResponse) {
			resp = r
		},
	})
	if err != nil {
		return err
	}

	return respondSuccess(c, fiber.StatusCreated,
		"User registered successfully. Please check your email to verify your account.",
		fiber.Map{
			"user":  resp.User,
			"token": resp.Token,
		})
}

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
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body").
			WithCode(fiber.StatusBadRequest)
	}

	if err := payload.Validate(); err != nil {
		return validationError(err)
	}

	user, token, err := a.auther.Login(c.Context(), payload.Email, payload.Password)
	if err != nil {
		return err
	}

	return respondSuccess(c, fiber.StatusOK, "Login successful", fiber.Map{
		"user":  user,
		"token": token,
	})
}

type VerifyEmailPayload struct {
	Token string `json:"token"`
}

func (r VerifyEmailPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
	)
}

func (a *AuthController) VerifyEmail(c *fiber.Ctx) error {
	payload := new(VerifyEmailPayload)
	if err := c.BodyParser(payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body").
			WithCode(fiber.StatusBadRequest)
	}

	if err := payload.Validate(); err != nil {
		return validationError(err)
	}

	if err := a.verify.Execute(c.Context(), VerifyEmailMessage{Token: payload.Token}); err != nil {
		return err
	}

	return respondSuccess(c, fiber.StatusOK, "Email verified successfully", nil)
}

type ForgotPasswordPayload struct {
	Email string `json:"email"`
}

func (r ForgotPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AuthController) ForgotPassword(c *fiber.Ctx) error {
	payload := new(ForgotPasswordPayload)
	if err := c.BodyParser(payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body").
			WithCode(fiber.StatusBadRequest)
	}

	if err := payload.Validate(); err != nil {
		return validationError(err)
	}

	if err := a.resetInit.Execute(c.Context(), InitializePasswordResetMessage{Email: payload.Email}); err != nil {
		return err
	}

	return respondSuccess(c, fiber.StatusOK,
		"If the email exists, a password reset link has been sent", nil)
}

type ResetPasswordPayload struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (r ResetPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
	)
}

func (a *AuthController) ResetPassword(c *fiber.Ctx) error {
	payload := new(ResetPasswordPayload)
	if err := c.BodyParser(payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body").
			WithCode(fiber.StatusBadRequest)
	}

	if err := payload.Validate(); err != nil {
		return validationError(err)
	}

	err := a.resetFin.Execute(c.Context(), FinalizePasswordResetMessage{
		Token:       payload.Token,
		NewPassword: payload.Password,
	})
	if err != nil {
		return err
	}

	return respondSuccess(c, fiber.StatusOK, "Password reset successfully", nil)
}

type ChangePasswordPayload struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (r ChangePasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(6, 100)),
	)
}

func (a *AuthController) ChangePassword(c *fiber.Ctx) error {
	user := CurrentUser(c)
	if user == nil {
		return ErrUnauthorized
	}

	payload := new(ChangePasswordPayload)
	if err := c.BodyParser(payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body").
			WithCode(fiber.StatusBadRequest)
	}

	if err := payload.Validate(); err != nil {
		return validationError(err)
	}

	if err := a.auther.ChangePassword(c.Context(), user.ID, payload.CurrentPassword, payload.NewPassword); err != nil {
		return err
	}

	return respondSuccess(c, fiber.StatusOK, "Password changed successfully", nil)
}

func (a *AuthController) ResendVerification(c *fiber.Ctx) error {
	user := CurrentUser(c)
	if user == nil {
		return ErrUnauthorized
	}

	if err := a.resend.Execute(c.Context(), ResendVerificationMessage{UserID: user.ID}); err != nil {
		return err
	}

	return respondSuccess(c, fiber.StatusOK, "Verification email sent successfully", nil)
}

func (a *AuthController) Logout(c *fiber.Ctx) error {
	user := CurrentUser(c)
	if user == nil {
		return ErrUnauthorized
	}

	raw := jwtware.RawTokenFromContext(c, a.rawToken)
	if err := a.auther.Logout(c.Context(), raw, user.ID); err != nil {
		return err
	}

	return respondSuccess(c, fiber.StatusOK, "Logout successful", nil)
}
