package jwtware_test

import (
	"testing"
	"time"

	auth "github.com/coolkeep/go-auth"
	"github.com/coolkeep/go-auth/middleware/jwtware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSigningKey = "0123456789abcdef0123456789abcdef"

type quietLogger struct{}

func (quietLogger) Debug(string, ...any) {}
func (quietLogger) Info(string, ...any)  {}
func (quietLogger) Warn(string, ...any)  {}
func (quietLogger) Error(string, ...any) {}

// pathMock overrides Path() from the base MockContext.
type pathMock struct {
	*router.MockContext
	pathOverride string
}

func (m *pathMock) Path() string {
	return m.pathOverride
}

func newPathContext(path string) *pathMock {
	return &pathMock{
		MockContext:  router.NewMockContext(),
		pathOverride: path,
	}
}

func newTestValidator(t *testing.T) jwtware.TokenValidator {
	t.Helper()

	svc, err := auth.NewTokenService(testSigningKey, 24, "test-issuer", nil, quietLogger{})
	require.NoError(t, err)

	return auth.ValidatorAdapter(svc)
}

func issueToken(t *testing.T, role string, expiry time.Time) string {
	t.Helper()

	claims := &auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
		UID:      "user-1",
		UserRole: role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSigningKey))
	require.NoError(t, err)
	return signed
}

func gateConfig(t *testing.T, overrides func(*jwtware.Config)) jwtware.Config {
	t.Helper()

	cfg := jwtware.Config{
		SigningKey: jwtware.SigningKey{
			Key:    []byte(testSigningKey),
			JWTAlg: jwt.SigningMethodHS256.Alg(),
		},
		TokenValidator: newTestValidator(t),
		ErrorHandler: func(c router.Context, err error) error {
			return err
		},
	}

	if overrides != nil {
		overrides(&cfg)
	}

	return cfg
}

func TestGateAcceptsValidToken(t *testing.T) {
	handler := jwtware.New(gateConfig(t, nil))(func(c router.Context) error {
		return c.Next()
	})

	token := issueToken(t, "member", time.Now().Add(time.Hour))

	ctx := newPathContext("/protected")
	ctx.HeadersM["Authorization"] = "Bearer " + token
	ctx.On("GetString", "Authorization", "").Return("Bearer " + token)
	ctx.On("Locals", "user", mock.Anything).Return(nil)

	require.NoError(t, handler(ctx))
	require.True(t, ctx.NextCalled)
}

func TestGateRejectsMissingToken(t *testing.T) {
	handler := jwtware.New(gateConfig(t, nil))(func(c router.Context) error {
		return c.Next()
	})

	ctx := newPathContext("/protected")
	ctx.On("GetString", "Authorization", "").Return("")

	err := handler(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), jwtware.ErrJWTMissingOrMalformed.Error())
	require.False(t, ctx.NextCalled)
}

func TestGateRejectsExpiredToken(t *testing.T) {
	handler := jwtware.New(gateConfig(t, nil))(func(c router.Context) error {
		return c.Next()
	})

	token := issueToken(t, "member", time.Now().Add(-time.Hour))

	ctx := newPathContext("/protected")
	ctx.HeadersM["Authorization"] = "Bearer " + token
	ctx.On("GetString", "Authorization", "").Return("Bearer " + token)

	err := handler(ctx)
	require.Error(t, err)
	require.True(t, auth.IsTokenExpiredError(err))
	require.False(t, ctx.NextCalled)
}

func TestGateRejectsBlacklistedToken(t *testing.T) {
	blacklist := auth.NewTokenBlacklist()
	token := issueToken(t, "member", time.Now().Add(time.Hour))
	blacklist.Revoke(token, time.Now().Add(time.Hour))

	handler := jwtware.New(gateConfig(t, func(cfg *jwtware.Config) {
		cfg.Revocations = blacklist
	}))(func(c router.Context) error {
		return c.Next()
	})

	ctx := newPathContext("/protected")
	ctx.HeadersM["Authorization"] = "Bearer " + token
	ctx.On("GetString", "Authorization", "").Return("Bearer " + token)

	err := handler(ctx)
	require.ErrorIs(t, err, jwtware.ErrTokenBlacklisted)
	require.False(t, ctx.NextCalled)
}

func TestGateBypassPrefixes(t *testing.T) {
	blacklist := auth.NewTokenBlacklist()
	revoked := issueToken(t, "member", time.Now().Add(time.Hour))
	blacklist.Revoke(revoked, time.Now().Add(time.Hour))

	mw := jwtware.New(gateConfig(t, func(cfg *jwtware.Config) {
		cfg.Revocations = blacklist
		cfg.BypassPrefixes = []string{"/auth/login", "/auth/logout"}
	}))
	handler := mw(func(c router.Context) error {
		return c.Next()
	})

	t.Run("logout stays reachable with a revoked token", func(t *testing.T) {
		ctx := newPathContext("/auth/logout")
		ctx.HeadersM["Authorization"] = "Bearer " + revoked

		require.NoError(t, handler(ctx))
		require.True(t, ctx.NextCalled)
	})

	t.Run("login needs no token at all", func(t *testing.T) {
		ctx := newPathContext("/auth/login")

		require.NoError(t, handler(ctx))
		require.True(t, ctx.NextCalled)
	})

	t.Run("prefix match covers sub paths", func(t *testing.T) {
		ctx := newPathContext("/auth/login/sso")

		require.NoError(t, handler(ctx))
		require.True(t, ctx.NextCalled)
	})

	t.Run("non bypassed paths still hit the gate", func(t *testing.T) {
		ctx := newPathContext("/protected")
		ctx.On("GetString", "Authorization", "").Return("Bearer " + revoked)

		err := handler(ctx)
		require.ErrorIs(t, err, jwtware.ErrTokenBlacklisted)
	})
}

func TestGateRoleChecks(t *testing.T) {
	t.Run("minimum role satisfied", func(t *testing.T) {
		handler := jwtware.New(gateConfig(t, func(cfg *jwtware.Config) {
			cfg.MinimumRole = "member"
		}))(func(c router.Context) error {
			return c.Next()
		})

		token := issueToken(t, "admin", time.Now().Add(time.Hour))

		ctx := newPathContext("/protected")
		ctx.HeadersM["Authorization"] = "Bearer " + token
		ctx.On("GetString", "Authorization", "").Return("Bearer " + token)
		ctx.On("Locals", "user", mock.Anything).Return(nil)

		require.NoError(t, handler(ctx))
	})

	t.Run("minimum role not met", func(t *testing.T) {
		handler := jwtware.New(gateConfig(t, func(cfg *jwtware.Config) {
			cfg.MinimumRole = "admin"
		}))(func(c router.Context) error {
			return c.Next()
		})

		token := issueToken(t, "member", time.Now().Add(time.Hour))

		ctx := newPathContext("/protected")
		ctx.HeadersM["Authorization"] = "Bearer " + token
		ctx.On("GetString", "Authorization", "").Return("Bearer " + token)

		err := handler(ctx)
		require.Error(t, err)
		require.Contains(t, err.Error(), "minimum role")
	})
}

func TestGateValidationListeners(t *testing.T) {
	var seen jwtware.AuthClaims

	cfg := gateConfig(t, func(cfg *jwtware.Config) {
		cfg.ValidationListeners = []jwtware.ValidationListener{
			func(ctx router.Context, claims jwtware.AuthClaims) error {
				seen = claims
				return nil
			},
		}
	})

	handler := jwtware.New(cfg)(func(c router.Context) error {
		return c.Next()
	})

	token := issueToken(t, "member", time.Now().Add(time.Hour))

	ctx := newPathContext("/protected")
	ctx.HeadersM["Authorization"] = "Bearer " + token
	ctx.On("GetString", "Authorization", "").Return("Bearer " + token)
	ctx.On("Locals", "user", mock.Anything).Return(nil)

	require.NoError(t, handler(ctx))
	require.NotNil(t, seen)
	require.Equal(t, "user-1", seen.UserID())
	require.Equal(t, "member", seen.Role())
}
