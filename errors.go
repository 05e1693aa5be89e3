package auth

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCredentials    = "INVALID_CREDENTIALS"
	TextCodeAccountWithdrawn      = "ACCOUNT_WITHDRAWN"
	TextCodeMalformedAuthHeader   = "MALFORMED_AUTH_HEADER"
	TextCodeTokenBlacklisted      = "TOKEN_BLACKLISTED"
	TextCodeTokenExpired          = "TOKEN_EXPIRED"
	TextCodeTokenMalformed        = "TOKEN_MALFORMED"
	TextCodeSigningKeyTooShort    = "SIGNING_KEY_TOO_SHORT"
	TextCodeResetTokenNotFound    = "TOKEN_NOT_FOUND"
	TextCodeResetTokenUsed        = "TOKEN_ALREADY_USED"
	TextCodeResetTokenInvalidated = "TOKEN_INVALIDATED"
	TextCodeTooManyLoginAttempts  = "TOO_MANY_LOGIN_ATTEMPTS"
)

// ErrInvalidCredentials covers both unknown identifiers and password
// mismatches so responses never reveal which one failed.
var ErrInvalidCredentials = goerrors.New("invalid email or password", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountWithdrawn is returned when a soft-deleted member tries to log in.
var ErrAccountWithdrawn = goerrors.New("account has been withdrawn", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountWithdrawn).
	WithCode(goerrors.CodeUnauthorized)

// ErrMalformedAuthHeader is a client error, distinct from any token state.
var ErrMalformedAuthHeader = goerrors.New("missing or malformed Authorization header", goerrors.CategoryBadInput).
	WithTextCode(TextCodeMalformedAuthHeader).
	WithCode(goerrors.CodeBadRequest)

// ErrTokenRevoked signals explicit revocation, distinct from natural expiry,
// so clients stop retrying with that token.
var ErrTokenRevoked = goerrors.New("token has been blacklisted", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenBlacklisted).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned for tokens past their encoded expiry.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for unparseable tokens or signature mismatch.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrSigningKeyTooShort is fatal at startup. Never serve traffic with an
// insecure signing key.
var ErrSigningKeyTooShort = goerrors.New("signing key material is too short", goerrors.CategoryValidation).
	WithTextCode(TextCodeSigningKeyTooShort).
	WithCode(goerrors.CodeBadRequest)

var ErrResetTokenNotFound = goerrors.New("password reset token not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeResetTokenNotFound).
	WithCode(goerrors.CodeNotFound)

var ErrResetTokenExpired = goerrors.New("password reset token has expired", goerrors.CategoryValidation).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeBadRequest)

var ErrResetTokenUsed = goerrors.New("password reset token has already been used", goerrors.CategoryConflict).
	WithTextCode(TextCodeResetTokenUsed).
	WithCode(goerrors.CodeConflict)

var ErrResetTokenInvalidated = goerrors.New("password reset token has been superseded", goerrors.CategoryConflict).
	WithTextCode(TextCodeResetTokenInvalidated).
	WithCode(goerrors.CodeConflict)

var ErrTooManyLoginAttempts = goerrors.New("too many login attempts, try again later", goerrors.CategoryAuth).
	WithTextCode(TextCodeTooManyLoginAttempts).
	WithCode(goerrors.CodeUnauthorized)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrNoEmptyString rejects empty passwords before hashing
var ErrNoEmptyString = goerrors.New("value must not be empty", goerrors.CategoryBadInput).
	WithCode(goerrors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the bcrypt-level mismatch error
var ErrMismatchedHashAndPassword = goerrors.New("password does not match", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnableToDecodeSession unable to decode JWT claims
var ErrUnableToDecodeSession = goerrors.New("unable to decode session", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnableToParseData parse error
var ErrUnableToParseData = goerrors.New("unable to parse data", goerrors.CategoryBadInput).
	WithCode(goerrors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsBlacklistedError will check for revoked token errors coming out of the
// request gate.
func IsBlacklistedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is blacklisted") ||
		strings.Contains(err.Error(), "token has been blacklisted")
}
