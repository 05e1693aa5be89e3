package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Session holds attributes that are part of an auth session
type Session interface {
	GetUserID() string
	GetUserUUID() (uuid.UUID, error)
	GetAudience() []string
	GetIssuer() string
	GetIssuedAt() *time.Time
	GetData() map[string]any
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (string, error)
	Logout(ctx context.Context, rawToken string) error
	SessionFromToken(token string) (Session, error)
	IdentityFromSession(ctx context.Context, session Session) (Identity, error)
}

type LoginPayload interface {
	GetIdentifier() string
	GetPassword() string
}

// Identity holds the attributes of an identity
type Identity interface {
	ID() string
	Username() string
	Email() string
	Role() string
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetContextKey() string
	GetTokenExpiration() int
	GetResetTokenExpiration() int
	GetTokenLookup() string
	GetAuthScheme() string
	GetIssuer() string
	GetAudience() []string
	GetBypassRoutes() []string
}

// BasicConfig is a plain-struct Config implementation for services that
// load their settings from flat configuration.
type BasicConfig struct {
	SigningKey           string
	SigningMethod        string
	ContextKey           string
	TokenExpiration      int
	ResetTokenExpiration int
	TokenLookup          string
	AuthScheme           string
	Issuer               string
	Audience             []string
	BypassRoutes         []string
}

func (c BasicConfig) GetSigningKey() string    { return c.SigningKey }
func (c BasicConfig) GetSigningMethod() string { return c.SigningMethod }

func (c BasicConfig) GetContextKey() string {
	if c.ContextKey == "" {
		return "user"
	}
	return c.ContextKey
}

func (c BasicConfig) GetTokenExpiration() int { return c.TokenExpiration }

func (c BasicConfig) GetResetTokenExpiration() int {
	if c.ResetTokenExpiration == 0 {
		return 30
	}
	return c.ResetTokenExpiration
}

func (c BasicConfig) GetTokenLookup() string {
	if c.TokenLookup == "" {
		return "header:Authorization"
	}
	return c.TokenLookup
}

func (c BasicConfig) GetAuthScheme() string {
	if c.AuthScheme == "" {
		return "Bearer"
	}
	return c.AuthScheme
}

func (c BasicConfig) GetIssuer() string     { return c.Issuer }
func (c BasicConfig) GetAudience() []string { return c.Audience }

func (c BasicConfig) GetBypassRoutes() []string {
	if c.BypassRoutes == nil {
		return DefaultBypassRoutes
	}
	return c.BypassRoutes
}

// DefaultBypassRoutes lists the path prefixes the request gate skips the
// revocation check for. Logout has to stay reachable with a token that is
// about to be (or already is) revoked, and login must never be blocked by
// blacklist state. Keep this a central allow-list: a missing entry is a
// functional bug, an extra one is a security gap.
var DefaultBypassRoutes = []string{"/auth/login", "/auth/logout"}

// IdentityProvider ensure we have a store to retrieve auth identity
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error)
	FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// TokenService issues and validates bearer tokens.
type TokenService interface {
	Generate(identity Identity) (string, error)
	SignClaims(claims *JWTClaims) (string, error)
	Validate(tokenString string) (AuthClaims, error)
	ExpiryOf(tokenString string) (time.Time, error)
}

// TokenValidator validates token strings into claims. Satisfied by
// TokenService and by external validators.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// RevocationRegistry is the mutable overlay layered on top of otherwise
// stateless tokens. Implementations must be safe for concurrent use.
type RevocationRegistry interface {
	Revoke(token string, expiry time.Time)
	IsRevoked(token string) bool
}

// Mailer delivers password reset tokens. Delivery mechanics are an
// external collaborator concern.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
