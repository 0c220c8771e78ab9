package users_test

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-repository-bun"
	users "github.com/goliatone/go-users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockUsers implements users.Users. The embedded repository interface
// covers the generic methods we never call; anything unexpected panics.
type MockUsers struct {
	mock.Mock
	repository.Repository[*users.User]
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*users.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*users.User, error) {
	args := m.Called(ctx, tx, email)
	user, _ := args.Get(0).(*users.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetActiveByEmail(ctx context.Context, email string) (*users.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*users.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetActiveByID(ctx context.Context, id uuid.UUID) (*users.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*users.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetActiveByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*users.User, error) {
	args := m.Called(ctx, tx, id)
	user, _ := args.Get(0).(*users.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByVerificationToken(ctx context.Context, tx bun.IDB, token string) (*users.User, error) {
	args := m.Called(ctx, tx, token)
	user, _ := args.Get(0).(*users.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByResetToken(ctx context.Context, tx bun.IDB, token string) (*users.User, error) {
	args := m.Called(ctx, tx, token)
	user, _ := args.Get(0).(*users.User)
	return user, args.Error(1)
}

func (m *MockUsers) ListActive(ctx context.Context, page, perPage int) ([]*users.User, int, error) {
	args := m.Called(ctx, page, perPage)
	records, _ := args.Get(0).([]*users.User)
	return records, args.Int(1), args.Error(2)
}

func (m *MockUsers) TrackSuccessfulLogin(ctx context.Context, user *users.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUsers) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUsers) Deactivate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Create and friends echo the input record back when the expectation
// does not provide one, matching how the real repository returns the
// persisted row.
func (m *MockUsers) Create(ctx context.Context, record *users.User, criteria ...repository.InsertCriteria) (*users.User, error) {
	args := m.Called(ctx, record)
	user, _ := args.Get(0).(*users.User)
	if user == nil && args.Error(1) == nil {
		user = record
	}
	return user, args.Error(1)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *users.User, criteria ...repository.InsertCriteria) (*users.User, error) {
	args := m.Called(ctx, tx, record)
	user, _ := args.Get(0).(*users.User)
	if user == nil && args.Error(1) == nil {
		user = record
	}
	return user, args.Error(1)
}

func (m *MockUsers) Update(ctx context.Context, record *users.User, criteria ...repository.UpdateCriteria) (*users.User, error) {
	args := m.Called(ctx, record)
	user, _ := args.Get(0).(*users.User)
	if user == nil && args.Error(1) == nil {
		user = record
	}
	return user, args.Error(1)
}

// MockBlacklistedTokens implements users.BlacklistedTokens
type MockBlacklistedTokens struct {
	mock.Mock
}

func (m *MockBlacklistedTokens) Add(ctx context.Context, tx bun.IDB, token string, userID uuid.UUID, expiresAt time.Time, reason string) error {
	args := m.Called(ctx, tx, token, userID, expiresAt, reason)
	return args.Error(0)
}

func (m *MockBlacklistedTokens) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}

func (m *MockBlacklistedTokens) PruneExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockRepositoryManager implements users.RepositoryManager
type MockRepositoryManager struct {
	mock.Mock
	users     *MockUsers
	blacklist *MockBlacklistedTokens
}

func NewMockRepositoryManager() *MockRepositoryManager {
	return &MockRepositoryManager{
		users:     &MockUsers{},
		blacklist: &MockBlacklistedTokens{},
	}
}

func (m *MockRepositoryManager) Users() users.Users                         { return m.users }
func (m *MockRepositoryManager) BlacklistedTokens() users.BlacklistedTokens { return m.blacklist }

func (m *MockRepositoryManager) Validate() error {
	return nil
}

func (m *MockRepositoryManager) MustValidate() {}

// RunInTx invokes the transaction body with a zero bun.Tx; bodies under
// test only touch mocked repositories on the exercised paths.
func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	var tx bun.Tx
	return f(ctx, tx)
}

// MockMailer implements users.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendVerificationEmail(ctx context.Context, user *users.User, token string) error {
	args := m.Called(ctx, user, token)
	return args.Error(0)
}

func (m *MockMailer) SendPasswordResetEmail(ctx context.Context, user *users.User, token string) error {
	args := m.Called(ctx, user, token)
	return args.Error(0)
}
