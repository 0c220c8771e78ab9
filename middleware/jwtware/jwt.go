package jwtware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var (
	defaultTokenLookup       = "header:" + fiber.HeaderAuthorization
	ErrJWTMissingOrMalformed = errors.New("missing or malformed JWT")
	ErrTokenRevoked          = errors.New("token has been revoked")
)

// TokenValidator interface for validating tokens without import cycles.
// This mirrors the TokenService.Validate method from the users package.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// AuthClaims interface for structured claims without import cycles.
// This mirrors the AuthClaims interface from the users package.
type AuthClaims interface {
	Subject() string
	UserID() string
	Role() string
	HasRole(role string) bool
}

// RoleHolder is implemented by loaded accounts that carry a role. Role
// checks prefer it over the token claim, so a role change takes effect
// on the next request instead of at token expiry.
type RoleHolder interface {
	HasRole(role string) bool
}

// Blacklist answers whether a raw token has been revoked.
type Blacklist interface {
	IsBlacklisted(ctx context.Context, token string) (bool, error)
}

// UserLoader resolves validated claims to a live account. Returning an
// error rejects the request, which is how deactivated accounts lose
// access before their tokens expire.
type UserLoader func(ctx context.Context, claims AuthClaims) (any, error)

type Config struct {
	Filter         func(*fiber.Ctx) bool
	SuccessHandler fiber.Handler
	ErrorHandler   fiber.ErrorHandler

	// TokenValidator is required for token validation
	TokenValidator TokenValidator

	// Blacklist is consulted before signature validation; revoked
	// tokens never reach the validator.
	Blacklist Blacklist

	// UserLoader, when set, resolves claims to an account stored under
	// UserKey.
	UserLoader UserLoader

	ContextKey  string
	RawTokenKey string
	UserKey     string
	TokenLookup string
	AuthScheme  string

	// RequiredRole specifies an exact role that must be present
	RequiredRole string
	// AdminRole names the role that bypasses ownership checks
	AdminRole string
}

// New returns a handler enforcing the full gate pipeline: extract,
// blacklist check, validate, load user, authorize.
func New(config ...Config) fiber.Handler {
	cfg := GetDefaultConfig(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, err := ExtractRawToken(c, cfg.getExtractors())
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		if cfg.Blacklist != nil {
			revoked, err := cfg.Blacklist.IsBlacklisted(c.Context(), raw)
			if err != nil {
				return cfg.ErrorHandler(c, err)
			}
			if revoked {
				return cfg.ErrorHandler(c, ErrTokenRevoked)
			}
		}

		claims, err := cfg.TokenValidator.Validate(raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(cfg.ContextKey, claims)
		c.Locals(cfg.RawTokenKey, raw)

		if cfg.UserLoader != nil {
			user, err := cfg.UserLoader(c.Context(), claims)
			if err != nil {
				return cfg.ErrorHandler(c, err)
			}
			c.Locals(cfg.UserKey, user)
		}

		if cfg.RequiredRole != "" && !hasRole(c, cfg, cfg.RequiredRole) {
			return cfg.ErrorHandler(c, fiber.ErrForbidden)
		}

		return cfg.SuccessHandler(c)
	}
}

// RequireRole gates a route on an exact role match. Run after New.
func RequireRole(role string, cfg ...Config) fiber.Handler {
	conf := GetDefaultConfig(cfg...)
	return func(c *fiber.Ctx) error {
		if FromContext(c, conf.ContextKey) == nil {
			return conf.ErrorHandler(c, fiber.ErrUnauthorized)
		}
		if !hasRole(c, conf, role) {
			return conf.ErrorHandler(c, fiber.ErrForbidden)
		}
		return c.Next()
	}
}

// RequireRoleOrOwner allows admins through unconditionally and other
// callers only when the named route param matches their own user ID.
// Run after New.
func RequireRoleOrOwner(param string, cfg ...Config) fiber.Handler {
	conf := GetDefaultConfig(cfg...)
	return func(c *fiber.Ctx) error {
		claims := FromContext(c, conf.ContextKey)
		if claims == nil {
			return conf.ErrorHandler(c, fiber.ErrUnauthorized)
		}
		if hasRole(c, conf, conf.AdminRole) {
			return c.Next()
		}
		if claims.UserID() != "" && claims.UserID() == c.Params(param) {
			return c.Next()
		}
		return conf.ErrorHandler(c, fiber.ErrForbidden)
	}
}

// hasRole answers the role check against the account UserLoader stored
// under UserKey, falling back to the token claim when no loader ran.
func hasRole(c *fiber.Ctx, conf Config, role string) bool {
	if holder, ok := c.Locals(conf.UserKey).(RoleHolder); ok {
		return holder.HasRole(role)
	}
	if claims := FromContext(c, conf.ContextKey); claims != nil {
		return claims.HasRole(role)
	}
	return false
}

// FromContext retrieves validated claims stored by New, or nil.
func FromContext(c *fiber.Ctx, keys ...string) AuthClaims {
	key := "user"
	if len(keys) > 0 && keys[0] != "" {
		key = keys[0]
	}
	claims, _ := c.Locals(key).(AuthClaims)
	return claims
}

// RawTokenFromContext retrieves the raw bearer token stored by New.
func RawTokenFromContext(c *fiber.Ctx, keys ...string) string {
	key := "user_token"
	if len(keys) > 0 && keys[0] != "" {
		key = keys[0]
	}
	raw, _ := c.Locals(key).(string)
	return raw
}

func ExtractRawToken(c *fiber.Ctx, extractors []JWTExtractor) (string, error) {
	var raw string
	var err error

	for _, extractor := range extractors {
		raw, err = extractor(c)
		if raw != "" && err == nil {
			break
		}
	}

	return raw, err
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
			if errors.Is(err, ErrJWTMissingOrMalformed) {
				return c.Status(fiber.StatusBadRequest).SendString(ErrJWTMissingOrMalformed.Error())
			}
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				return c.Status(fiberErr.Code).SendString(fiberErr.Message)
			}
			return c.Status(fiber.StatusUnauthorized).SendString("Invalid or expired token")
		}
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.RawTokenKey == "" {
		cfg.RawTokenKey = "user_token"
	}

	if cfg.UserKey == "" {
		cfg.UserKey = "current_user"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.AdminRole == "" {
		cfg.AdminRole = "admin"
	}

	return cfg
}

func (cfg *Config) getExtractors() []JWTExtractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

func GetExtractors(tokenLookup string, authSchemes ...string) []JWTExtractor {
	extractors := make([]JWTExtractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 {
		authScheme = authSchemes[0]
	}

	// header:Authorization,cookie:jwt,query:auth_token,param:token
	rootParts := strings.Split(tokenLookup, ",")
	for _, rootPart := range rootParts {
		//header:Authorization
		parts := strings.Split(strings.TrimSpace(rootPart), ":")

		for i, el := range parts {
			parts[i] = strings.TrimSpace(el)
		}

		switch parts[0] {
		case "header":
			extractors = append(extractors, jwtFromHeader(parts[1], authScheme))
		case "query":
			extractors = append(extractors, jwtFromQuery(parts[1]))
		case "param":
			extractors = append(extractors, jwtFromParam(parts[1]))
		case "cookie":
			extractors = append(extractors, jwtFromCookie(parts[1]))
		}
	}

	return extractors
}

type JWTExtractor func(c *fiber.Ctx) (string, error)

// jwtFromHeader returns a function that extracts token from the request header.
func jwtFromHeader(header string, authScheme string) JWTExtractor {
	return func(c *fiber.Ctx) (string, error) {
		a := c.Get(header)
		l := len(authScheme)
		if l == 0 {
			return "", ErrJWTMissingOrMalformed
		}
		authScheme = strings.TrimSpace(authScheme)
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) {
			return strings.TrimSpace(a[l:]), nil
		}
		return "", ErrJWTMissingOrMalformed
	}
}

// jwtFromQuery returns a function that extracts token from the query string.
func jwtFromQuery(param string) JWTExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Query(param)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}

// jwtFromParam returns a function that extracts token from the url param string.
func jwtFromParam(param string) JWTExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Params(param)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}

// jwtFromCookie returns a function that extracts token from the named cookie.
func jwtFromCookie(name string) JWTExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}
