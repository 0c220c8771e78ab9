package users

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// ResetTokenTTL bounds how long a password reset token stays
// redeemable.
const ResetTokenTTL = time.Hour

type InitializePasswordResetMessage struct {
	Email string `json:"email"`
}

func (p InitializePasswordResetMessage) Type() string { return "user.password_reset_initialize" }

type InitializePasswordResetHandler struct {
	repo   RepositoryManager
	mailer Mailer
	logger Logger
}

func NewInitializePasswordResetHandler(repo RepositoryManager, mailer Mailer, logger Logger) *InitializePasswordResetHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &InitializePasswordResetHandler{
		repo:   repo,
		mailer: mailer,
		logger: logger,
	}
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	user := &User{}
	resetToken := ""
	found := true

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		if user, err = h.repo.Users().GetByEmailTx(ctx, tx, event.Email); err != nil {
			// Unknown emails succeed silently so the endpoint cannot
			// be used to probe for accounts.
			if repository.IsRecordNotFound(err) {
				found = false
				return nil
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
		}

		if !user.IsActive {
			found = false
			return nil
		}

		if resetToken, err = NewSingleUseToken(); err != nil {
			return err
		}

		expires := time.Now().Add(ResetTokenTTL)
		if _, err = tx.NewUpdate().
			Model((*User)(nil)).
			Set("password_reset_token = ?", resetToken).
			Set("password_reset_expires = ?", expires).
			Where("id = ?", user.ID).
			Exec(ctx); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store reset token")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "password reset transaction failed")
	}

	if !found {
		return nil
	}

	// Unlike registration, a reset request the user never receives is
	// worthless, so delivery failure surfaces to the caller.
	if err := h.mailer.SendPasswordResetEmail(ctx, user, resetToken); err != nil {
		h.logger.Error("InitializePasswordReset failed to send email to %s: %v", user.Email, err)
		return ErrNotificationDelivery
	}

	return nil
}
