package users

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type ResendVerificationMessage struct {
	UserID uuid.UUID `json:"user_id"`
}

func (e ResendVerificationMessage) Type() string { return "user.resend_verification" }

type ResendVerificationHandler struct {
	repo   RepositoryManager
	mailer Mailer
	logger Logger
}

func NewResendVerificationHandler(repo RepositoryManager, mailer Mailer, logger Logger) *ResendVerificationHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &ResendVerificationHandler{
		repo:   repo,
		mailer: mailer,
		logger: logger,
	}
}

func (h *ResendVerificationHandler) Execute(ctx context.Context, event ResendVerificationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during verification resend",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResendVerificationHandler) execute(ctx context.Context, event ResendVerificationMessage) error {
	user := &User{}
	verificationToken := ""

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		if user, err = h.repo.Users().GetActiveByIDTx(ctx, tx, event.UserID); err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrUserNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user")
		}

		if user.IsEmailVerified {
			return ErrAlreadyVerified
		}

		if verificationToken, err = NewSingleUseToken(); err != nil {
			return err
		}

		expires := time.Now().Add(VerificationTokenTTL)
		if _, err = tx.NewUpdate().
			Model((*User)(nil)).
			Set("email_verification_token = ?", verificationToken).
			Set("email_verification_expires = ?", expires).
			Where("id = ?", user.ID).
			Exec(ctx); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store verification token")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "verification resend transaction failed")
	}

	// Same policy as registration: the mail going missing is not an
	// API failure.
	if err := h.mailer.SendVerificationEmail(ctx, user, verificationToken); err != nil {
		h.logger.Warn("ResendVerification failed to send email to %s: %v", user.Email, err)
	}

	return nil
}
