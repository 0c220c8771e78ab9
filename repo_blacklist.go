package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BlacklistedTokens stores revoked access tokens until their natural
// expiry, after which PruneExpired may drop them.
type BlacklistedTokens interface {
	Add(ctx context.Context, tx bun.IDB, token string, userID uuid.UUID, expiresAt time.Time, reason string) error
	IsBlacklisted(ctx context.Context, token string) (bool, error)
	PruneExpired(ctx context.Context) (int64, error)
}

type blacklistRepo struct {
	db *bun.DB
}

var _ BlacklistedTokens = (*blacklistRepo)(nil)

func NewBlacklistedTokensRepository(db *bun.DB) BlacklistedTokens {
	return &blacklistRepo{db: db}
}

func (b *blacklistRepo) Add(ctx context.Context, tx bun.IDB, token string, userID uuid.UUID, expiresAt time.Time, reason string) error {
	if tx == nil {
		tx = b.db
	}

	record := &BlacklistedToken{
		ID:        uuid.New(),
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
		Reason:    reason,
	}

	_, err := tx.NewInsert().
		Model(record).
		On("CONFLICT (token) DO NOTHING").
		Exec(ctx)

	return err
}

func (b *blacklistRepo) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	return b.db.NewSelect().
		Model((*BlacklistedToken)(nil)).
		Where("?TableAlias.token = ?", token).
		Exists(ctx)
}

// PruneExpired removes entries whose tokens could no longer pass
// signature validation anyway.
func (b *blacklistRepo) PruneExpired(ctx context.Context) (int64, error) {
	res, err := b.db.NewDelete().
		Model((*BlacklistedToken)(nil)).
		Where("?TableAlias.expires_at <= ?", time.Now()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return affected, nil
}
