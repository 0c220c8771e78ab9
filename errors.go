package users

import (
	goerrors "github.com/goliatone/go-errors"
)

// Stable text codes surfaced to API clients alongside the HTTP status.
const (
	TextCodeEmailExists    = "EMAIL_ALREADY_EXISTS"
	TextCodeBadCredentials = "INVALID_CREDENTIALS"
	TextCodeBadToken       = "INVALID_OR_EXPIRED_TOKEN"
	TextCodeBadPassword    = "INCORRECT_CURRENT_PASSWORD"
	TextCodeVerified       = "ALREADY_VERIFIED"
	TextCodeNoToken        = "NO_TOKEN_PROVIDED"
	TextCodeUnauthorized   = "UNAUTHORIZED"
	TextCodeForbidden      = "FORBIDDEN"
	TextCodeUserNotFound   = "USER_NOT_FOUND"
	TextCodeDeleteSelf     = "CANNOT_DELETE_SELF"
	TextCodeNotifyFailed   = "NOTIFICATION_DELIVERY_FAILURE"
	TextCodeTokenExpired   = "TOKEN_EXPIRED"
	TextCodeTokenMalformed = "TOKEN_MALFORMED"
)

// ErrEmailAlreadyExists is returned when registering or creating an
// account with an email that is already taken, regardless of case.
var ErrEmailAlreadyExists = goerrors.New("user with this email already exists", goerrors.CategoryConflict).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode(TextCodeEmailExists)

// ErrInvalidCredentials is the single login failure. Unknown email and
// wrong password deliberately produce the same value so callers cannot
// probe which accounts exist.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeBadCredentials)

// ErrInvalidOrExpiredToken covers both "token not found" and "token
// expired" for single use tokens; the two cases are not distinguished.
var ErrInvalidOrExpiredToken = goerrors.New("invalid or expired token", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode(TextCodeBadToken)

// ErrIncorrectPassword is returned by change-password when the current
// password does not verify.
var ErrIncorrectPassword = goerrors.New("current password is incorrect", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode(TextCodeBadPassword)

// ErrAlreadyVerified rejects a verification resend for a verified account.
var ErrAlreadyVerified = goerrors.New("email is already verified", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode(TextCodeVerified)

// ErrNoTokenProvided is returned by logout when no raw token accompanies
// the call.
var ErrNoTokenProvided = goerrors.New("no token provided", goerrors.CategoryBadInput).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode(TextCodeNoToken)

// ErrUnauthorized covers every gate failure before role checks: missing
// bearer token, revoked token, failed validation, missing or inactive user.
var ErrUnauthorized = goerrors.New("authentication required", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeUnauthorized)

// ErrForbidden is the role/ownership policy failure.
var ErrForbidden = goerrors.New("insufficient permissions", goerrors.CategoryAuthz).
	WithCode(goerrors.CodeForbidden).
	WithTextCode(TextCodeForbidden)

// ErrUserNotFound is returned when a target user is absent or inactive.
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound).
	WithTextCode(TextCodeUserNotFound)

// ErrCannotDeleteSelf keeps admins from soft-deleting their own account.
var ErrCannotDeleteSelf = goerrors.New("cannot delete your own account", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode(TextCodeDeleteSelf)

// ErrNotificationDelivery is fatal only on the forgot-password path;
// everywhere else delivery failures are logged and swallowed.
var ErrNotificationDelivery = goerrors.New("failed to deliver notification", goerrors.CategoryInternal).
	WithCode(goerrors.CodeInternal).
	WithTextCode(TextCodeNotifyFailed)

// ErrTokenExpired is the access token expiry failure from Validate.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed covers every other access token validation failure.
var ErrTokenMalformed = goerrors.New("token is malformed or invalid", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenMalformed)

// HTTPStatus resolves the status code for an error following the boundary
// policy: rich errors carry their own code, anything else is a 500.
func HTTPStatus(err error) int {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Code > 0 {
		return richErr.Code
	}
	return goerrors.CodeInternal
}
