package accounts

import (
	"time"

	"github.com/goliatone/go-accounts/middleware/jwtware"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RouteAuthenticator owns the HTTP side of the session: it moves refresh
// tokens in and out of the session cookie and guards protected routes with
// access-token middleware. Access tokens never touch cookies.
type RouteAuthenticator struct {
	tokens           TokenService
	cfg              Config
	cookieName       string
	cookieDuration   time.Duration
	Logger           Logger
	AuthErrorHandler func(c router.Context, err error) error
	ErrorHandler     func(c router.Context, err error) error
}

func NewHTTPAuthenticator(tokens TokenService, cfg Config) (*RouteAuthenticator, error) {
	if tokens == nil {
		return nil, goerrors.New("token service must not be nil", goerrors.CategoryBadInput)
	}

	cookieName := cfg.GetRefreshCookieName()
	if cookieName == "" {
		cookieName = DefaultRefreshCookieName
	}

	cookieDuration := cfg.GetRefreshTokenExpiration()
	if cookieDuration <= 0 {
		cookieDuration = DefaultRefreshTokenExpiration
	}

	a := &RouteAuthenticator{
		cfg:            cfg,
		tokens:         tokens,
		Logger:         defLogger{},
		cookieName:     cookieName,
		cookieDuration: cookieDuration,
	}

	a.ErrorHandler = a.defaultErrHandler
	a.AuthErrorHandler = a.defaultAuthErrHandler

	return a, nil
}

func (a RouteAuthenticator) GetCookieDuration() time.Duration {
	return a.cookieDuration
}

func (a RouteAuthenticator) GetCookieName() string {
	return a.cookieName
}

// ProtectedRoute returns middleware that rejects requests without a valid
// access token. Claims are validated against the same service that minted
// them, so a refresh token in the Authorization header will not pass.
func (a *RouteAuthenticator) ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return jwtware.New(jwtware.Config{
			ErrorHandler: errorHandler,
			SigningKey: jwtware.SigningKey{
				Key:    []byte(cfg.GetSigningKey()),
				JWTAlg: cfg.GetSigningMethod(),
			},
			AuthScheme:      cfg.GetAuthScheme(),
			ContextKey:      cfg.GetContextKey(),
			TokenLookup:     cfg.GetTokenLookup(),
			TokenValidator:  jwtValidatorAdapter{tokens: a.tokens},
			ContextEnricher: ContextEnricherAdapter,
		})
	}
}

// jwtValidatorAdapter bridges the accounts TokenValidator to the reduced
// claims surface the middleware works with.
type jwtValidatorAdapter struct {
	tokens TokenValidator
}

func (v jwtValidatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := v.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// SetSession writes the refresh token to the session cookie. HttpOnly keeps
// scripts out, Secure keeps it off plaintext transports, and Strict SameSite
// keeps it off cross-site requests.
func (a *RouteAuthenticator) SetSession(ctx router.Context, pair *TokenPair) {
	ctx.Cookie(&router.Cookie{
		Name:     a.cookieName,
		Value:    pair.RefreshToken,
		Expires:  pair.RefreshExpiresAt,
		MaxAge:   int(a.cookieDuration.Seconds()),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Strict",
	})
}

// GetSession reads the refresh token out of the session cookie. It returns
// ErrRefreshTokenNotFound when no cookie was sent; it does not validate the
// token itself.
func (a *RouteAuthenticator) GetSession(ctx router.Context) (string, error) {
	token := ctx.Cookies(a.cookieName)
	if token == "" {
		return "", ErrRefreshTokenNotFound
	}
	return token, nil
}

// ClearSession expires the session cookie. The attributes must match the
// ones used on set or some user agents will keep the stale cookie around.
func (a *RouteAuthenticator) ClearSession(ctx router.Context) {
	ctx.Cookie(&router.Cookie{
		Name:     a.cookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Strict",
	})
}

// MakeClientRouteAuthErrorHandler builds the error handler wired into the
// protected-route middleware. With optional set the request proceeds
// unauthenticated instead of failing.
func (a *RouteAuthenticator) MakeClientRouteAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *goerrors.Error

		if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if IsMalformedError(err) {
			richErr = ErrTokenMalformed
		} else {
			richErr = goerrors.Wrap(err, goerrors.CategoryAuth, "Invalid authentication token").
				WithCode(goerrors.CodeUnauthorized)
		}

		if optional {
			a.Logger.Info("Optional auth failed, proceeding", "error", richErr.Message)
			return ctx.Next()
		}

		return a.AuthErrorHandler(ctx, richErr)
	}
}

func (a *RouteAuthenticator) defaultAuthErrHandler(c router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryAuth, "An unexpected authentication error").
			WithCode(goerrors.CodeUnauthorized)
	}

	a.Logger.Info(
		"Authentication error",
		"error", richErr.Message,
		"text_code", richErr.TextCode,
		"path", c.OriginalURL(),
	)

	return c.JSON(goerrors.CodeUnauthorized, map[string]string{
		"error": "Authentication credentials were not provided or are invalid",
	})
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	a.Logger.Info(
		"Middleware error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	switch richErr.Category {
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return a.AuthErrorHandler(c, richErr)
	default:
		return c.JSON(richErr.Code, map[string]string{
			"error": richErr.Message,
		})
	}
}
