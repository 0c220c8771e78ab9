package users

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetIssuer() string
	GetAudience() []string
	GetContextKey() string
	GetTokenLookup() string
	GetAuthScheme() string
}

// TokenService signs and validates access tokens. TTL policy for single
// use tokens lives with the auth flows, not here.
type TokenService interface {
	Generate(user *User) (string, error)
	Validate(raw string) (AuthClaims, error)
	// DecodeExpiry extracts the expiry claim without verifying the
	// signature. Only used to size blacklist retention, never for trust.
	DecodeExpiry(raw string) (time.Time, error)
}

// Mailer is the outbound notification sink. Delivery is best effort:
// except for the forgot-password flow, a failed send never fails the
// operation that triggered it.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, user *User, token string) error
	SendPasswordResetEmail(ctx context.Context, user *User, token string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] USERS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] USERS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] USERS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] USERS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
