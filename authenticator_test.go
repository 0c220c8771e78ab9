package users_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-repository-bun"
	users "github.com/goliatone/go-users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testConfig struct{}

func (testConfig) GetSigningKey() string   { return string(testSigningKey) }
func (testConfig) GetTokenExpiration() int { return 1 }
func (testConfig) GetIssuer() string       { return "test-issuer" }
func (testConfig) GetAudience() []string   { return nil }
func (testConfig) GetContextKey() string   { return "user" }
func (testConfig) GetTokenLookup() string  { return "header:Authorization" }
func (testConfig) GetAuthScheme() string   { return "Bearer" }

func activeUser(t *testing.T, password string) *users.User {
	t.Helper()
	hash, err := users.HashPassword(password)
	require.NoError(t, err)

	user := testUser()
	user.PasswordHash = hash
	return user
}

func TestLoginSuccess(t *testing.T) {
	repo := NewMockRepositoryManager()
	auther := users.NewAuthenticator(repo, testConfig{})

	user := activeUser(t, "sup3rs3cret")
	repo.users.On("GetActiveByEmail", mock.Anything, user.Email).Return(user, nil)
	repo.users.On("TrackSuccessfulLogin", mock.Anything, user).Return(nil)

	got, token, err := auther.Login(context.Background(), user.Email, "sup3rs3cret")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, user.ID, got.ID)

	claims, err := auther.TokenService().Validate(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID())

	repo.users.AssertExpectations(t)
}

func TestLoginUnknownEmail(t *testing.T) {
	repo := NewMockRepositoryManager()
	auther := users.NewAuthenticator(repo, testConfig{})

	repo.users.On("GetActiveByEmail", mock.Anything, "nobody@example.com").
		Return(nil, repository.NewRecordNotFound())

	_, _, err := auther.Login(context.Background(), "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, users.ErrInvalidCredentials)
}

func TestLoginStoreFailureIsNotCredentialFailure(t *testing.T) {
	repo := NewMockRepositoryManager()
	auther := users.NewAuthenticator(repo, testConfig{})

	repo.users.On("GetActiveByEmail", mock.Anything, "pepe.rone@example.com").
		Return(nil, errors.New("connection refused"))

	// A broken store is a 500, not a bad-credentials 401.
	_, _, err := auther.Login(context.Background(), "pepe.rone@example.com", "sup3rs3cret")
	require.Error(t, err)
	assert.NotErrorIs(t, err, users.ErrInvalidCredentials)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := NewMockRepositoryManager()
	auther := users.NewAuthenticator(repo, testConfig{})

	user := activeUser(t, "sup3rs3cret")
	repo.users.On("GetActiveByEmail", mock.Anything, user.Email).Return(user, nil)

	_, _, err := auther.Login(context.Background(), user.Email, "wrong-password")
	// Same error as an unknown email so callers cannot tell them apart.
	assert.ErrorIs(t, err, users.ErrInvalidCredentials)
}

func TestLoginTrackingFailureIsNotFatal(t *testing.T) {
	repo := NewMockRepositoryManager()
	auther := users.NewAuthenticator(repo, testConfig{})

	user := activeUser(t, "sup3rs3cret")
	repo.users.On("GetActiveByEmail", mock.Anything, user.Email).Return(user, nil)
	repo.users.On("TrackSuccessfulLogin", mock.Anything, user).
		Return(assert.AnError)

	_, token, err := auther.Login(context.Background(), user.Email, "sup3rs3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestLogout(t *testing.T) {
	repo := NewMockRepositoryManager()
	auther := users.NewAuthenticator(repo, testConfig{})

	user := activeUser(t, "sup3rs3cret")
	token, err := auther.TokenService().Generate(user)
	require.NoError(t, err)

	repo.blacklist.On("Add",
		mock.Anything, nil, token, user.ID,
		mock.MatchedBy(func(expiresAt time.Time) bool {
			return expiresAt.After(time.Now())
		}),
		"logout",
	).Return(nil)

	require.NoError(t, auther.Logout(context.Background(), token, user.ID))
	repo.blacklist.AssertExpectations(t)
}

func TestLogoutNoToken(t *testing.T) {
	repo := NewMockRepositoryManager()
	auther := users.NewAuthenticator(repo, testConfig{})

	err := auther.Logout(context.Background(), "", uuid.New())
	assert.ErrorIs(t, err, users.ErrNoTokenProvided)
}

func TestLogoutUndecodableToken(t *testing.T) {
	repo := NewMockRepositoryManager()
	auther := users.NewAuthenticator(repo, testConfig{})

	err := auther.Logout(context.Background(), "garbage", uuid.New())
	require.Error(t, err)
}

func TestChangePassword(t *testing.T) {
	repo := NewMockRepositoryManager()
	auther := users.NewAuthenticator(repo, testConfig{})

	user := activeUser(t, "old-password")
	repo.users.On("GetActiveByID", mock.Anything, user.ID).Return(user, nil)
	repo.users.On("UpdatePassword", mock.Anything, user.ID,
		mock.MatchedBy(func(hash string) bool {
			return users.ComparePasswordAndHash("new-password", hash) == nil
		}),
	).Return(nil)

	err := auther.ChangePassword(context.Background(), user.ID, "old-password", "new-password")
	require.NoError(t, err)
	repo.users.AssertExpectations(t)
}

func TestChangePasswordIncorrectCurrent(t *testing.T) {
	repo := NewMockRepositoryManager()
	auther := users.NewAuthenticator(repo, testConfig{})

	user := activeUser(t, "old-password")
	repo.users.On("GetActiveByID", mock.Anything, user.ID).Return(user, nil)

	err := auther.ChangePassword(context.Background(), user.ID, "not-the-password", "new-password")
	assert.ErrorIs(t, err, users.ErrIncorrectPassword)
}

func TestChangePasswordStoreFailureIsNotUserNotFound(t *testing.T) {
	repo := NewMockRepositoryManager()
	auther := users.NewAuthenticator(repo, testConfig{})

	id := uuid.New()
	repo.users.On("GetActiveByID", mock.Anything, id).
		Return(nil, errors.New("connection refused"))

	err := auther.ChangePassword(context.Background(), id, "old-password", "new-password")
	require.Error(t, err)
	assert.NotErrorIs(t, err, users.ErrUserNotFound)
}
