package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ResetTokens persists password reset tokens. Rows are never deleted, only
// marked used or invalidated.
type ResetTokens interface {
	repository.Repository[*PasswordResetToken]

	GetByToken(ctx context.Context, token string) (*PasswordResetToken, error)
	GetByTokenTx(ctx context.Context, tx bun.IDB, token string) (*PasswordResetToken, error)

	// InvalidateActiveTx sets invalidated_at on every currently-active token
	// for the user in a single statement. Run inside the same transaction
	// that creates the superseding token.
	InvalidateActiveTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, now time.Time) (int64, error)

	// MarkUsedTx conditionally stamps used_at. It reports false when the
	// token was already used or invalidated by a concurrent request, so
	// a single token can never be redeemed twice.
	MarkUsedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, now time.Time) (bool, error)
}

type resetTokens struct {
	repository.Repository[*PasswordResetToken]
	db *bun.DB
}

var _ ResetTokens = (*resetTokens)(nil)

func NewResetTokensRepository(db *bun.DB) ResetTokens {
	repo := repository.NewRepository[*PasswordResetToken](db, repository.ModelHandlers[*PasswordResetToken]{
		NewRecord: func() *PasswordResetToken { return &PasswordResetToken{} },
		GetID: func(r *PasswordResetToken) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *PasswordResetToken, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
		GetIdentifier: func() string {
			return "token"
		},
	})

	return &resetTokens{
		Repository: repo,
		db:         db,
	}
}

func (r *resetTokens) GetByToken(ctx context.Context, token string) (*PasswordResetToken, error) {
	return r.GetByTokenTx(ctx, r.db, token)
}

func (r *resetTokens) GetByTokenTx(ctx context.Context, tx bun.IDB, token string) (*PasswordResetToken, error) {
	record := &PasswordResetToken{}

	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.token = ?", token).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound()
		}
		return nil, err
	}

	return record, nil
}

func (r *resetTokens) InvalidateActiveTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, now time.Time) (int64, error) {
	res, err := tx.NewUpdate().
		Model((*PasswordResetToken)(nil)).
		Set("invalidated_at = ?", now).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.used_at IS NULL").
		Where("?TableAlias.invalidated_at IS NULL").
		Where("?TableAlias.expires_at > ?", now).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func (r *resetTokens) MarkUsedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, now time.Time) (bool, error) {
	res, err := tx.NewUpdate().
		Model((*PasswordResetToken)(nil)).
		Set("used_at = ?", now).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.used_at IS NULL").
		Where("?TableAlias.invalidated_at IS NULL").
		Exec(ctx)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows == 1, nil
}
