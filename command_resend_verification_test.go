package users_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-repository-bun"
	users "github.com/goliatone/go-users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestResendVerificationAlreadyVerified(t *testing.T) {
	repo := NewMockRepositoryManager()
	mailer := &MockMailer{}
	handler := users.NewResendVerificationHandler(repo, mailer, nil)

	user := testUser()
	user.IsEmailVerified = true
	repo.users.On("GetActiveByIDTx", mock.Anything, mock.Anything, user.ID).Return(user, nil)

	err := handler.Execute(context.Background(), users.ResendVerificationMessage{UserID: user.ID})
	assert.ErrorIs(t, err, users.ErrAlreadyVerified)
	mailer.AssertNotCalled(t, "SendVerificationEmail", mock.Anything, mock.Anything, mock.Anything)
}

func TestResendVerificationUnknownUser(t *testing.T) {
	repo := NewMockRepositoryManager()
	handler := users.NewResendVerificationHandler(repo, &MockMailer{}, nil)

	id := uuid.New()
	repo.users.On("GetActiveByIDTx", mock.Anything, mock.Anything, id).
		Return(nil, repository.NewRecordNotFound())

	err := handler.Execute(context.Background(), users.ResendVerificationMessage{UserID: id})
	assert.ErrorIs(t, err, users.ErrUserNotFound)
}
