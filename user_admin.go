package users

import (
	"context"
	"math"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// Pagination describes the page window returned by List.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalUsers  int  `json:"totalUsers"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

// UserUpdate carries a partial profile update; nil fields are left
// untouched. Role is applied only when the actor is an admin.
type UserUpdate struct {
	FirstName *string
	LastName  *string
	Role      *UserRole
}

// UserAdmin is the administration surface over user records. Access
// rules live here rather than in the HTTP layer so every caller gets
// the same policy.
type UserAdmin struct {
	repo   RepositoryManager
	logger Logger
}

func NewUserAdmin(repo RepositoryManager) *UserAdmin {
	return &UserAdmin{
		repo:   repo,
		logger: defLogger{},
	}
}

func (s *UserAdmin) WithLogger(logger Logger) *UserAdmin {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// List returns a page of active users, newest first. Admin only.
func (s *UserAdmin) List(ctx context.Context, actor *User, page, perPage int) ([]*User, *Pagination, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, nil, ErrForbidden
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	records, total, err := s.repo.Users().ListActive(ctx, page, perPage)
	if err != nil {
		return nil, nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list users")
	}

	totalPages := int(math.Ceil(float64(total) / float64(perPage)))

	return records, &Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalUsers:  total,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}, nil
}

// Get returns a single active user. Admins see anyone, everyone else
// only themselves.
func (s *UserAdmin) Get(ctx context.Context, actor *User, id uuid.UUID) (*User, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if !actor.IsAdmin() && actor.ID != id {
		return nil, ErrForbidden
	}

	user, err := s.repo.Users().GetActiveByID(ctx, id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user")
	}
	return user, nil
}

// Update applies a partial profile update. A role change requested by
// a non-admin actor is dropped without error; the rest of the update
// still applies.
func (s *UserAdmin) Update(ctx context.Context, actor *User, id uuid.UUID, update UserUpdate) (*User, error) {
	user, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if update.FirstName != nil {
		user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		user.LastName = *update.LastName
	}
	if update.Role != nil && actor.IsAdmin() {
		user.Role = *update.Role
	}

	updated, err := s.repo.Users().Update(ctx, user, repository.UpdateByID(user.ID.String()))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user")
	}
	return updated, nil
}

// UserCreate carries the fields for an admin-created account.
type UserCreate struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      UserRole
}

// Create provisions an account directly, without the registration
// email flow. Admin only.
func (s *UserAdmin) Create(ctx context.Context, actor *User, input UserCreate) (*User, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	if _, err := s.repo.Users().GetByEmail(ctx, input.Email); err == nil {
		return nil, ErrEmailAlreadyExists
	} else if !repository.IsRecordNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing user")
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	user := &User{
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         input.Role,
		IsActive:     true,
	}

	created, err := s.repo.Users().Create(ctx, user)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
	}
	return created, nil
}

// UpdateProfile is the self-service subset of Update: names only,
// never the role.
func (s *UserAdmin) UpdateProfile(ctx context.Context, actor *User, firstName, lastName *string) (*User, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}

	if firstName != nil {
		actor.FirstName = *firstName
	}
	if lastName != nil {
		actor.LastName = *lastName
	}

	updated, err := s.repo.Users().Update(ctx, actor, repository.UpdateByID(actor.ID.String()))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update profile")
	}
	return updated, nil
}

// DeactivateAccount soft deletes the acting user's own account.
func (s *UserAdmin) DeactivateAccount(ctx context.Context, actor *User) error {
	if actor == nil {
		return ErrUnauthorized
	}
	if err := s.repo.Users().Deactivate(ctx, actor.ID); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to deactivate account")
	}
	return nil
}

// Delete soft deletes a user. Admin only, and never against the
// admin's own account.
func (s *UserAdmin) Delete(ctx context.Context, actor *User, id uuid.UUID) error {
	if actor == nil || !actor.IsAdmin() {
		return ErrForbidden
	}
	if actor.ID == id {
		return ErrCannotDeleteSelf
	}

	if err := s.repo.Users().Deactivate(ctx, id); err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrUserNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to deactivate user")
	}
	return nil
}
