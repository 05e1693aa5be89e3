package auth_test

import (
	"testing"
	"time"

	"github.com/coolkeep/go-auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func TestJWTClaims(t *testing.T) {
	t.Run("UserID prefers the uid claim", func(t *testing.T) {
		claims := &auth.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "subject-1"},
			UID:              "uid-1",
		}
		assert.Equal(t, "uid-1", claims.UserID())
	})

	t.Run("UserID falls back to the subject", func(t *testing.T) {
		claims := &auth.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "subject-1"},
		}
		assert.Equal(t, "subject-1", claims.UserID())
	})

	t.Run("HasRole is an exact match", func(t *testing.T) {
		claims := &auth.JWTClaims{UserRole: "admin"}
		assert.True(t, claims.HasRole("admin"))
		assert.False(t, claims.HasRole("owner"))
	})

	t.Run("IsAtLeast follows the role hierarchy", func(t *testing.T) {
		claims := &auth.JWTClaims{UserRole: "admin"}
		assert.True(t, claims.IsAtLeast("member"))
		assert.True(t, claims.IsAtLeast("admin"))
		assert.False(t, claims.IsAtLeast("owner"))
	})

	t.Run("Expires is zero without an exp claim", func(t *testing.T) {
		claims := &auth.JWTClaims{}
		assert.True(t, claims.Expires().IsZero())

		expiry := time.Now().Add(time.Hour)
		claims.RegisteredClaims.ExpiresAt = jwt.NewNumericDate(expiry)
		assert.WithinDuration(t, expiry, claims.Expires(), time.Second)
	})
}
