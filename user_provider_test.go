package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/coolkeep/go-auth"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func activeUser(t *testing.T, password string) *auth.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	return &auth.User{
		ID:           uuid.New(),
		Role:         auth.RoleMember,
		Username:     "testuser",
		Email:        "test@example.com",
		PasswordHash: hash,
	}
}

func TestVerifyIdentity(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		store := new(MockUserTracker)
		provider := auth.NewUserProvider(store).WithLogger(testLogger{})

		user := activeUser(t, "password123")
		store.On("GetByIdentifier", ctx, "test@example.com").Return(user, nil).Once()
		store.On("TrackSuccessfulLogin", ctx, user).Return(nil).Once()

		identity, err := provider.VerifyIdentity(ctx, "test@example.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), identity.ID())
		assert.Equal(t, string(auth.RoleMember), identity.Role())

		store.AssertExpectations(t)
	})

	t.Run("unknown identifier maps to invalid credentials", func(t *testing.T) {
		store := new(MockUserTracker)
		provider := auth.NewUserProvider(store).WithLogger(testLogger{})

		store.On("GetByIdentifier", ctx, "nobody@example.com").
			Return(nil, repository.NewRecordNotFound()).Once()

		_, err := provider.VerifyIdentity(ctx, "nobody@example.com", "password123")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("wrong password maps to the same invalid credentials error", func(t *testing.T) {
		store := new(MockUserTracker)
		provider := auth.NewUserProvider(store).WithLogger(testLogger{})

		user := activeUser(t, "password123")
		store.On("GetByIdentifier", ctx, "test@example.com").Return(user, nil).Once()
		store.On("TrackAttemptedLogin", ctx, user).Return(nil).Once()

		_, err := provider.VerifyIdentity(ctx, "test@example.com", "not-the-password")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

		// failed attempt was recorded
		store.AssertExpectations(t)
	})

	t.Run("withdrawn account is surfaced distinctly", func(t *testing.T) {
		store := new(MockUserTracker)
		provider := auth.NewUserProvider(store).WithLogger(testLogger{})

		user := activeUser(t, "password123")
		deletedAt := time.Now().Add(-24 * time.Hour)
		user.DeletedAt = &deletedAt

		store.On("GetByIdentifier", ctx, "test@example.com").Return(user, nil).Once()

		_, err := provider.VerifyIdentity(ctx, "test@example.com", "password123")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrAccountWithdrawn)
	})

	t.Run("withdrawn account with wrong password still reports withdrawn", func(t *testing.T) {
		store := new(MockUserTracker)
		provider := auth.NewUserProvider(store).WithLogger(testLogger{})

		user := activeUser(t, "password123")
		deletedAt := time.Now()
		user.DeletedAt = &deletedAt

		store.On("GetByIdentifier", ctx, "test@example.com").Return(user, nil).Once()

		_, err := provider.VerifyIdentity(ctx, "test@example.com", "not-the-password")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrAccountWithdrawn)
	})

	t.Run("too many recent attempts trip the cooldown", func(t *testing.T) {
		store := new(MockUserTracker)
		provider := auth.NewUserProvider(store).WithLogger(testLogger{})

		user := activeUser(t, "password123")
		lastAttempt := time.Now().Add(-1 * time.Hour)
		user.LoginAttemptAt = &lastAttempt
		user.LoginAttempts = auth.MaxLoginAttempts + 1

		store.On("GetByIdentifier", ctx, "test@example.com").Return(user, nil).Once()

		_, err := provider.VerifyIdentity(ctx, "test@example.com", "password123")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrTooManyLoginAttempts)
	})

	t.Run("attempt counter resets after the cooldown window", func(t *testing.T) {
		store := new(MockUserTracker)
		provider := auth.NewUserProvider(store).WithLogger(testLogger{})

		user := activeUser(t, "password123")
		lastAttempt := time.Now().Add(-48 * time.Hour)
		user.LoginAttemptAt = &lastAttempt
		user.LoginAttempts = auth.MaxLoginAttempts + 1

		store.On("GetByIdentifier", ctx, "test@example.com").Return(user, nil).Once()
		store.On("TrackSuccessfulLogin", ctx, user).Return(nil).Once()

		identity, err := provider.VerifyIdentity(ctx, "test@example.com", "password123")
		require.NoError(t, err)
		assert.NotNil(t, identity)
	})

	t.Run("invalid role fails validation", func(t *testing.T) {
		store := new(MockUserTracker)
		provider := auth.NewUserProvider(store).WithLogger(testLogger{})

		user := activeUser(t, "password123")
		user.Role = auth.UserRole("superhero")

		store.On("GetByIdentifier", ctx, "test@example.com").Return(user, nil).Once()
		store.On("TrackSuccessfulLogin", ctx, user).Return(nil).Once()

		_, err := provider.VerifyIdentity(ctx, "test@example.com", "password123")
		require.Error(t, err)
	})
}

func TestFindIdentityByIdentifier(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		store := new(MockUserTracker)
		provider := auth.NewUserProvider(store)

		user := activeUser(t, "password123")
		store.On("GetByIdentifier", ctx, user.ID.String()).Return(user, nil).Once()

		identity, err := provider.FindIdentityByIdentifier(ctx, user.ID.String())
		require.NoError(t, err)
		assert.Equal(t, user.Email, identity.Email())
	})

	t.Run("not found", func(t *testing.T) {
		store := new(MockUserTracker)
		provider := auth.NewUserProvider(store)

		store.On("GetByIdentifier", ctx, mock.Anything).
			Return(nil, repository.NewRecordNotFound()).Once()

		_, err := provider.FindIdentityByIdentifier(ctx, uuid.New().String())
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
	})
}
