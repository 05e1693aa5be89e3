package auth

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator

	Users() Users
	PasswordResetTokens() ResetTokens
	PasswordHistory() repository.Repository[*PasswordHistory]

	RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error
}

func NewPasswordHistoryRepository(db *bun.DB) repository.Repository[*PasswordHistory] {
	handlers := repository.ModelHandlers[*PasswordHistory]{
		NewRecord: func() *PasswordHistory {
			return &PasswordHistory{}
		},
		GetID: func(record *PasswordHistory) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *PasswordHistory, id uuid.UUID) {
			record.ID = id
		},
	}
	return repository.NewRepository(db, handlers)
}

type mngr struct {
	db              *bun.DB
	users           Users
	resetTokens     ResetTokens
	passwordHistory repository.Repository[*PasswordHistory]
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:              db,
		users:           NewUsersRepository(db),
		resetTokens:     NewResetTokensRepository(db),
		passwordHistory: NewPasswordHistoryRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.resetTokens == nil {
		return errors.New("repository password reset tokens should be initialized")
	}

	if m.passwordHistory == nil {
		return errors.New("repository password history should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) PasswordResetTokens() ResetTokens {
	return m.resetTokens
}

func (m mngr) PasswordHistory() repository.Repository[*PasswordHistory] {
	return m.passwordHistory
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error {
	return m.db.RunInTx(ctx, opts, fn)
}
