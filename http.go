package users

import (
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// APIResponse is the envelope every endpoint returns.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func respondSuccess(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func respondError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(APIResponse{
		Success: false,
		Message: message,
	})
}

// ErrorHandler translates errors escaping the handlers into envelope
// responses. Untyped errors become a generic 500 so internals never
// leak to callers.
func ErrorHandler(logger Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx, err error) error {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			status := HTTPStatus(err)
			if status >= fiber.StatusInternalServerError {
				logger.Error("request failed: %v", err)
			}
			return respondError(c, status, richErr.Message)
		}

		var fiberErr *fiber.Error
		if goerrors.As(err, &fiberErr) {
			return respondError(c, fiberErr.Code, fiberErr.Message)
		}

		logger.Error("unhandled error: %v", err)
		return respondError(c, fiber.StatusInternalServerError, "Internal server error")
	}
}

// validationError wraps an ozzo validation failure so the error
// handler renders it as a 400 with field details.
func validationError(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, "validation failed").
		WithCode(fiber.StatusBadRequest).
		WithTextCode("VALIDATION_ERROR").
		WithMetadata(map[string]any{
			"details": err.Error(),
		})
}

// CurrentUser returns the account resolved by the auth gate, or nil.
func CurrentUser(c *fiber.Ctx, keys ...string) *User {
	key := "current_user"
	if len(keys) > 0 && keys[0] != "" {
		key = keys[0]
	}
	user, _ := c.Locals(key).(*User)
	return user
}
