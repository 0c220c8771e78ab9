package jwtware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-users/middleware/jwtware"
)

type stubClaims struct {
	subject string
	role    string
}

func (c stubClaims) Subject() string          { return c.subject }
func (c stubClaims) UserID() string           { return c.subject }
func (c stubClaims) Role() string             { return c.role }
func (c stubClaims) HasRole(role string) bool { return c.role == role }

type stubValidator struct {
	claims map[string]jwtware.AuthClaims
}

func (v stubValidator) Validate(raw string) (jwtware.AuthClaims, error) {
	if claims, ok := v.claims[raw]; ok {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

type stubBlacklist struct {
	revoked map[string]bool
}

func (b stubBlacklist) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	return b.revoked[token], nil
}

func newTestApp(cfg jwtware.Config) *fiber.App {
	app := fiber.New()
	app.Get("/protected", jwtware.New(cfg), func(c *fiber.Ctx) error {
		claims := jwtware.FromContext(c, cfg.ContextKey)
		return c.JSON(fiber.Map{
			"subject": claims.Subject(),
			"raw":     jwtware.RawTokenFromContext(c, cfg.RawTokenKey),
		})
	})
	return app
}

func validatorWith(tokens ...string) stubValidator {
	claims := map[string]jwtware.AuthClaims{}
	for _, token := range tokens {
		claims[token] = stubClaims{subject: "user-" + token, role: "user"}
	}
	return stubValidator{claims: claims}
}

func TestGateAcceptsValidToken(t *testing.T) {
	app := newTestApp(jwtware.Config{
		TokenValidator: validatorWith("good"),
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good")

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestGateRejectsMissingToken(t *testing.T) {
	app := newTestApp(jwtware.Config{
		TokenValidator: validatorWith("good"),
	})

	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/protected", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestGateRejectsInvalidToken(t *testing.T) {
	app := newTestApp(jwtware.Config{
		TokenValidator: validatorWith("good"),
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer bad")

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestGateRejectsRevokedToken(t *testing.T) {
	app := newTestApp(jwtware.Config{
		TokenValidator: validatorWith("good"),
		Blacklist:      stubBlacklist{revoked: map[string]bool{"good": true}},
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good")

	// The token would validate, but revocation wins.
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestGateUserLoaderFailureRejects(t *testing.T) {
	app := newTestApp(jwtware.Config{
		TokenValidator: validatorWith("good"),
		UserLoader: func(ctx context.Context, claims jwtware.AuthClaims) (any, error) {
			return nil, errors.New("account deactivated")
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good")

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestRequireRole(t *testing.T) {
	cfg := jwtware.Config{
		TokenValidator: stubValidator{claims: map[string]jwtware.AuthClaims{
			"admin-token": stubClaims{subject: "admin-1", role: "admin"},
			"user-token":  stubClaims{subject: "user-1", role: "user"},
		}},
	}

	app := fiber.New()
	app.Get("/admin", jwtware.New(cfg), jwtware.RequireRole("admin", cfg), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	res, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

type stubAccount struct {
	role string
}

func (a stubAccount) HasRole(role string) bool { return a.role == role }

func TestRequireRoleUsesLoadedAccount(t *testing.T) {
	cfg := jwtware.Config{
		TokenValidator: stubValidator{claims: map[string]jwtware.AuthClaims{
			"stale-admin": stubClaims{subject: "admin-1", role: "admin"},
		}},
		UserLoader: func(ctx context.Context, claims jwtware.AuthClaims) (any, error) {
			return stubAccount{role: "user"}, nil
		},
	}

	app := fiber.New()
	app.Get("/admin", jwtware.New(cfg), jwtware.RequireRole("admin", cfg), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	// The token claim still says admin, but the stored account was
	// demoted since the token was issued.
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer stale-admin")
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestRequireRoleOrOwner(t *testing.T) {
	cfg := jwtware.Config{
		TokenValidator: stubValidator{claims: map[string]jwtware.AuthClaims{
			"admin-token": stubClaims{subject: "admin-1", role: "admin"},
			"owner-token": stubClaims{subject: "user-1", role: "user"},
			"other-token": stubClaims{subject: "user-2", role: "user"},
		}},
	}

	app := fiber.New()
	app.Get("/users/:id", jwtware.New(cfg), jwtware.RequireRoleOrOwner("id", cfg), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	cases := []struct {
		name   string
		token  string
		path   string
		status int
	}{
		{"admin reads anyone", "admin-token", "/users/user-1", http.StatusOK},
		{"owner reads self", "owner-token", "/users/user-1", http.StatusOK},
		{"other user forbidden", "other-token", "/users/user-1", http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			req.Header.Set("Authorization", "Bearer "+tc.token)

			res, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, res.StatusCode)
		})
	}
}

func TestExtractorsFromQueryAndCookie(t *testing.T) {
	app := newTestApp(jwtware.Config{
		TokenValidator: validatorWith("good"),
		TokenLookup:    "query:auth_token,cookie:jwt",
	})

	req := httptest.NewRequest(http.MethodGet, "/protected?auth_token=good", nil)
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: "good"})
	res, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}
