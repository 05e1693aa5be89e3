package auth_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/coolkeep/go-auth"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	sqliteCreateUsers = `CREATE TABLE users (
    id TEXT NOT NULL PRIMARY KEY,
    user_role TEXT NOT NULL,
    first_name TEXT,
    last_name TEXT,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL UNIQUE,
    phone_number TEXT,
    password_hash TEXT,
    login_attempts INTEGER DEFAULT 0,
    login_attempt_at TIMESTAMP,
    loggedin_at TIMESTAMP,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP,
    deleted_at TIMESTAMP
);`
	sqliteCreateResetTokens = `CREATE TABLE password_reset_tokens (
    id TEXT NOT NULL PRIMARY KEY,
    user_id TEXT NOT NULL,
    token TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    expires_at TIMESTAMP NOT NULL,
    used_at TIMESTAMP,
    invalidated_at TIMESTAMP,
    FOREIGN KEY (user_id) REFERENCES users (id)
);`
	sqliteCreatePasswordHistory = `CREATE TABLE password_history (
    id TEXT NOT NULL PRIMARY KEY,
    user_id TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`
)

func setupRepoManager(t *testing.T) (auth.RepositoryManager, *bun.DB) {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	for _, stmt := range []string{sqliteCreateUsers, sqliteCreateResetTokens, sqliteCreatePasswordHistory} {
		_, err = bunDB.Exec(stmt)
		require.NoError(t, err)
	}

	t.Cleanup(func() {
		_ = bunDB.Close()
		_ = db.Close()
	})

	repo := auth.NewRepositoryManager(bunDB)
	require.NoError(t, repo.Validate())

	return repo, bunDB
}

func withdrawUser(t *testing.T, db *bun.DB, user *auth.User) {
	t.Helper()

	_, err := db.NewUpdate().
		Model((*auth.User)(nil)).
		Set("deleted_at = ?", time.Now()).
		Where("id = ?", user.ID).
		Exec(context.Background())
	require.NoError(t, err)
}

func registerTestUser(t *testing.T, repo auth.RepositoryManager, email, password string) *auth.User {
	t.Helper()

	user, err := auth.NewRegisterUserHandler(repo).Execute(context.Background(), auth.RegisterUserMessage{
		FirstName: "Test",
		LastName:  "Member",
		Email:     email,
		Password:  password,
	})
	require.NoError(t, err)
	require.NotNil(t, user)

	return user
}
