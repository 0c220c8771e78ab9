package users

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// Auther implements the credential-facing auth operations: login,
// logout, and password changes for an authenticated user.
type Auther struct {
	repos        RepositoryManager
	tokenService TokenService
	logger       Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(repos RepositoryManager, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		repos:        repos,
		tokenService: tokenService,
		logger:       defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

func (s *Auther) WithTokenService(ts TokenService) *Auther {
	if ts != nil {
		s.tokenService = ts
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies credentials and issues an access token. Every failure
// path collapses to ErrInvalidCredentials so callers cannot tell an
// unknown email from a wrong password or a deactivated account.
func (s *Auther) Login(ctx context.Context, email, password string) (*User, string, error) {
	user, err := s.repos.Users().GetActiveByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			s.logger.Debug("Login lookup failed for %s: %v", email, err)
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", errors.Wrap(err, errors.CategoryInternal, "failed to look up user")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		s.logger.Debug("Login password mismatch for %s", email)
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokenService.Generate(user)
	if err != nil {
		return nil, "", errors.Wrap(err, errors.CategoryInternal, "failed to issue access token")
	}

	// Login timestamp tracking is best effort, not part of the auth
	// decision.
	if err := s.repos.Users().TrackSuccessfulLogin(ctx, user); err != nil {
		s.logger.Warn("Login failed to track login for %s: %v", user.ID, err)
	}

	return user, token, nil
}

// Logout revokes a bearer token by blacklisting it until its natural
// expiry. The token is decoded without signature verification; a token
// we cannot decode at all is rejected.
func (s *Auther) Logout(ctx context.Context, rawToken string, userID uuid.UUID) error {
	if rawToken == "" {
		return ErrNoTokenProvided
	}

	expiresAt, err := s.tokenService.DecodeExpiry(rawToken)
	if err != nil {
		return err
	}

	return s.repos.BlacklistedTokens().Add(ctx, nil, rawToken, userID, expiresAt, "logout")
}

// ChangePassword verifies the current password before replacing it.
func (s *Auther) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.repos.Users().GetActiveByID(ctx, userID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrUserNotFound
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to load user")
	}

	if err := ComparePasswordAndHash(currentPassword, user.PasswordHash); err != nil {
		return ErrIncorrectPassword
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}

	return s.repos.Users().UpdatePassword(ctx, user.ID, hash)
}
