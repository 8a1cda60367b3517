package accounts

import "time"

// Default token lifetimes: access tokens live minutes, refresh tokens days.
const (
	DefaultAccessTokenExpiration  = 5 * time.Minute
	DefaultRefreshTokenExpiration = 7 * 24 * time.Hour
	DefaultRefreshCookieName      = "refreshToken"
)

// SimpleConfig is a plain immutable Config implementation. Fill it once and
// hand it to the services; there is no ambient global configuration.
type SimpleConfig struct {
	SigningKey             string
	SigningMethod          string
	Issuer                 string
	Audience               []string
	ContextKey             string
	TokenLookup            string
	AuthScheme             string
	AccessTokenExpiration  time.Duration
	RefreshTokenExpiration time.Duration
	RefreshCookieName      string
}

var _ Config = SimpleConfig{}

func (c SimpleConfig) GetSigningKey() string {
	return c.SigningKey
}

func (c SimpleConfig) GetSigningMethod() string {
	if c.SigningMethod == "" {
		return "HS256"
	}
	return c.SigningMethod
}

func (c SimpleConfig) GetIssuer() string {
	return c.Issuer
}

func (c SimpleConfig) GetAudience() []string {
	return c.Audience
}

func (c SimpleConfig) GetContextKey() string {
	if c.ContextKey == "" {
		return "user"
	}
	return c.ContextKey
}

func (c SimpleConfig) GetTokenLookup() string {
	if c.TokenLookup == "" {
		return "header:Authorization"
	}
	return c.TokenLookup
}

func (c SimpleConfig) GetAuthScheme() string {
	if c.AuthScheme == "" {
		return "Bearer"
	}
	return c.AuthScheme
}

func (c SimpleConfig) GetAccessTokenExpiration() time.Duration {
	if c.AccessTokenExpiration <= 0 {
		return DefaultAccessTokenExpiration
	}
	return c.AccessTokenExpiration
}

func (c SimpleConfig) GetRefreshTokenExpiration() time.Duration {
	if c.RefreshTokenExpiration <= 0 {
		return DefaultRefreshTokenExpiration
	}
	return c.RefreshTokenExpiration
}

func (c SimpleConfig) GetRefreshCookieName() string {
	if c.RefreshCookieName == "" {
		return DefaultRefreshCookieName
	}
	return c.RefreshCookieName
}
