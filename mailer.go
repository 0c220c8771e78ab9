package users

import "context"

// LogMailer writes outgoing notifications to the logger instead of
// delivering them. Useful for local development.
type LogMailer struct {
	Logger Logger
}

var _ Mailer = (*LogMailer)(nil)

func NewLogMailer(logger Logger) *LogMailer {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogMailer{Logger: logger}
}

func (m *LogMailer) SendVerificationEmail(ctx context.Context, user *User, token string) error {
	m.Logger.Info("verification email for %s token=%s", user.Email, token)
	return nil
}

func (m *LogMailer) SendPasswordResetEmail(ctx context.Context, user *User, token string) error {
	m.Logger.Info("password reset email for %s token=%s", user.Email, token)
	return nil
}

// NoopMailer drops notifications on the floor.
type NoopMailer struct{}

var _ Mailer = (*NoopMailer)(nil)

func (NoopMailer) SendVerificationEmail(ctx context.Context, user *User, token string) error {
	return nil
}

func (NoopMailer) SendPasswordResetEmail(ctx context.Context, user *User, token string) error {
	return nil
}
