package accounts

import (
	"context"

	"github.com/goliatone/go-accounts/middleware/jwtware"
)

// ValidationListener aliases the jwtware listener so consumers can use accounts helpers directly.
type ValidationListener = jwtware.ValidationListener

type claimsContextKey struct{}

// WithClaimsContext stores validated claims in the standard context.
func WithClaimsContext(c context.Context, claims AuthClaims) context.Context {
	return context.WithValue(c, claimsContextKey{}, claims)
}

// ClaimsFromContext retrieves claims stored by the protected-route middleware.
// Returns nil when the request was not authenticated.
func ClaimsFromContext(c context.Context) AuthClaims {
	claims, ok := c.Value(claimsContextKey{}).(AuthClaims)
	if !ok {
		return nil
	}
	return claims
}

// ContextEnricherAdapter adapts jwtware.AuthClaims to accounts.AuthClaims and
// stores them in the standard context for downstream handler usage.
func ContextEnricherAdapter(c context.Context, claims jwtware.AuthClaims) context.Context {
	authClaims, ok := claims.(AuthClaims)
	if !ok {
		return c
	}

	return WithClaimsContext(c, authClaims)
}

// RegisterValidationListeners appends listeners to a jwtware.Config in a safe, reusable way.
func RegisterValidationListeners(cfg *jwtware.Config, listeners ...ValidationListener) {
	if cfg == nil || len(listeners) == 0 {
		return
	}
	cfg.ValidationListeners = append(cfg.ValidationListeners, listeners...)
}
