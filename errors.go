package accounts

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

// Text codes surfaced to API clients alongside categorized errors.
const (
	TextCodeInvalidCreds       = "INVALID_CREDENTIALS"
	TextCodeEmptyPassword      = "EMPTY_PASSWORD"
	TextCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeTokenRevoked       = "TOKEN_REVOKED"
	TextCodeTokenTypeMismatch  = "TOKEN_TYPE_MISMATCH"
	TextCodeRefreshNotFound    = "REFRESH_TOKEN_NOT_FOUND"
	TextCodeSessionDecodeError = "SESSION_DECODE_ERROR"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound)

// ErrMismatchedHashAndPassword covers both an unknown email and a wrong
// password. Callers must not be able to tell the two apart.
var ErrMismatchedHashAndPassword = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString rejects empty passwords before they reach bcrypt
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword)

// ErrDuplicateEmail signals a registration against an already taken email
var ErrDuplicateEmail = goerrors.New("email is already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail)

// ErrTokenExpired is returned when a token's exp claim has passed
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned when a token fails to parse or its
// signature does not verify
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenRevoked is returned when a refresh token's jti is present in the
// revocation ledger
var ErrTokenRevoked = goerrors.New("token has been revoked", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenRevoked).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenTypeMismatch is returned when an access token is presented where a
// refresh token is expected, or the other way around
var ErrTokenTypeMismatch = goerrors.New("unexpected token type", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenTypeMismatch).
	WithCode(goerrors.CodeUnauthorized)

// ErrRefreshTokenNotFound is returned when the refresh cookie is absent
var ErrRefreshTokenNotFound = goerrors.New("refresh token not found", goerrors.CategoryAuth).
	WithTextCode(TextCodeRefreshNotFound).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnableToDecodeSession unable to decode claims from a validated token
var ErrUnableToDecodeSession = goerrors.New("unable to decode session", goerrors.CategoryAuth).
	WithTextCode(TextCodeSessionDecodeError).
	WithCode(goerrors.CodeUnauthorized)

// IsTokenExpiredError will check for expired tokens, including legacy
// string-matched wrappers coming from the JWT library.
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsTokenError reports whether err is one of the token verification
// failures a caller may safely swallow during logout: parse, signature,
// expiry, type, or revocation problems. Store failures are not token errors.
func IsTokenError(err error) bool {
	if err == nil {
		return false
	}
	return goerrors.Is(err, ErrTokenExpired) ||
		goerrors.Is(err, ErrTokenMalformed) ||
		goerrors.Is(err, ErrTokenRevoked) ||
		goerrors.Is(err, ErrTokenTypeMismatch) ||
		goerrors.Is(err, ErrUnableToDecodeSession) ||
		IsTokenExpiredError(err) ||
		IsMalformedError(err)
}

// FormatValidationErrorToMap flattens an ozzo-validation error into a
// field -> message map suitable for a 400 response body.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["error"] = err.Error()
	return out
}
