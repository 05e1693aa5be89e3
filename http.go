package auth

import (
	"strings"

	"github.com/coolkeep/go-auth/middleware/jwtware"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// Middleware is the request gate surface exposed to route registration.
type Middleware interface {
	ProtectedRoute(errorHandler func(router.Context, error) error) router.MiddlewareFunc
}

// RouteAuthenticator wires the Auther, the revocation registry, and the
// request gate into a router-facing surface.
type RouteAuthenticator struct {
	auth         *Auther
	cfg          Config
	revocations  jwtware.RevocationChecker
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

var _ Middleware = (*RouteAuthenticator)(nil)

func NewHTTPAuthenticator(auther *Auther, revocations jwtware.RevocationChecker, cfg Config) (*RouteAuthenticator, error) {
	a := &RouteAuthenticator{
		cfg:         cfg,
		auth:        auther,
		revocations: revocations,
		Logger:      defLogger{},
	}

	a.ErrorHandler = a.defaultAuthErrHandler

	return a, nil
}

// Auther exposes the underlying session orchestrator.
func (a *RouteAuthenticator) Auther() *Auther {
	return a.auth
}

// Config exposes the configuration this authenticator was built with.
func (a *RouteAuthenticator) Config() Config {
	return a.cfg
}

// ProtectedRoute builds the request gate middleware: bypass allow-list,
// revocation check, then token validation. Revoked tokens never reach
// controller logic.
func (a *RouteAuthenticator) ProtectedRoute(errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	if errorHandler == nil {
		errorHandler = a.ErrorHandler
	}

	return jwtware.New(jwtware.Config{
		ErrorHandler: errorHandler,
		SigningKey: jwtware.SigningKey{
			Key:    []byte(a.cfg.GetSigningKey()),
			JWTAlg: a.cfg.GetSigningMethod(),
		},
		AuthScheme:      a.cfg.GetAuthScheme(),
		ContextKey:      a.cfg.GetContextKey(),
		TokenLookup:     a.cfg.GetTokenLookup(),
		BypassPrefixes:  a.cfg.GetBypassRoutes(),
		Revocations:     a.revocations,
		TokenValidator:  ValidatorAdapter(a.auth.TokenService()),
		ContextEnricher: ContextEnricherAdapter,
	})
}

// MakeAuthErrorHandler translates gate and validator errors into rich
// errors with stable machine-readable codes before responding.
func (a *RouteAuthenticator) MakeAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if IsBlacklistedError(err) {
			richErr = ErrTokenRevoked
		} else if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if isMissingHeaderError(err) {
			richErr = ErrMalformedAuthHeader
		} else if IsMalformedError(err) {
			richErr = ErrTokenMalformed
		} else {
			richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		if optional {
			a.Logger.Info("Optional auth failed, proceeding", "error", richErr.Message)
			return ctx.Next()
		}

		return WriteJSONError(ctx, richErr)
	}
}

func (a *RouteAuthenticator) defaultAuthErrHandler(c router.Context, err error) error {
	return a.MakeAuthErrorHandler(false)(c, err)
}

func isMissingHeaderError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "missing or malformed JWT")
}

// WriteJSONError recovers a rich error at the boundary and renders it as a
// structured JSON response. Internal details never leak: unknown errors
// become a generic 500.
func WriteJSONError(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected error occurred").
			WithCode(router.StatusInternalServerError)
	}

	status := richErr.Code
	if status == 0 {
		status = router.StatusInternalServerError
	}

	body := map[string]any{
		"error": richErr.Message,
	}
	if richErr.TextCode != "" {
		body["code"] = richErr.TextCode
	}

	return c.JSON(status, body)
}

// BearerFromContext extracts the raw bearer token from the Authorization
// header. A missing or badly formed header is a client error, distinct from
// any token state.
func BearerFromContext(c router.Context, scheme string) (string, error) {
	if scheme == "" {
		scheme = "Bearer"
	}

	header := c.GetString(router.HeaderAuthorization, "")
	l := len(scheme)
	if len(header) > l+1 && strings.EqualFold(header[:l], scheme) {
		token := strings.TrimSpace(header[l:])
		if token != "" {
			return token, nil
		}
	}

	return "", ErrMalformedAuthHeader
}

// ValidatorAdapter bridges the auth package validator to the jwtware
// middleware contract.
func ValidatorAdapter(v TokenValidator) jwtware.TokenValidator {
	return validatorAdapter{v: v}
}

type validatorAdapter struct {
	v TokenValidator
}

func (a validatorAdapter) Validate(raw string) (jwtware.AuthClaims, error) {
	claims, err := a.v.Validate(raw)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
