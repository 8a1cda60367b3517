package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	ledger     RevocationLedger
	logger     Logger
}

// NewTokenService creates a new TokenService instance. The ledger is
// consulted on every refresh-token verification and written on Blacklist.
func NewTokenService(cfg Config, ledger RevocationLedger, logger Logger) *TokenServiceImpl {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		signingKey: []byte(cfg.GetSigningKey()),
		accessTTL:  cfg.GetAccessTokenExpiration(),
		refreshTTL: cfg.GetRefreshTokenExpiration(),
		issuer:     cfg.GetIssuer(),
		audience:   jwt.ClaimStrings(cfg.GetAudience()),
		ledger:     ledger,
		logger:     logger,
	}
}

var _ TokenService = (*TokenServiceImpl)(nil)

// WithLogger replaces the service logger
func (ts *TokenServiceImpl) WithLogger(logger Logger) *TokenServiceImpl {
	if logger != nil {
		ts.logger = logger
	}
	return ts
}

// IssuePair mints an access/refresh token pair bound to the identity. Each
// token carries its own expiry and jti; the refresh token starts out valid
// and stays so until expiry or an explicit Blacklist.
func (ts *TokenServiceImpl) IssuePair(ctx context.Context, identity Identity) (*TokenPair, error) {
	if identity == nil {
		return nil, goerrors.New("identity must not be nil", goerrors.CategoryBadInput)
	}

	now := time.Now()

	accessClaims := ts.newClaims(identity.ID(), TokenTypeAccess, now, ts.accessTTL)
	access, err := ts.SignClaims(accessClaims)
	if err != nil {
		return nil, err
	}

	refreshClaims := ts.newClaims(identity.ID(), TokenTypeRefresh, now, ts.refreshTTL)
	refresh, err := ts.SignClaims(refreshClaims)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessClaims.Expires(),
		RefreshExpiresAt: refreshClaims.Expires(),
	}, nil
}

// VerifyRefresh checks signature, expiry, token type, and the revocation
// ledger. It does not mutate any state.
func (ts *TokenServiceImpl) VerifyRefresh(ctx context.Context, refreshToken string) (AuthClaims, error) {
	claims, err := ts.parse(refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	tokenID, err := uuid.Parse(claims.TokenID())
	if err != nil {
		ts.logger.Error("TokenService refresh token carries an invalid jti", "error", err)
		return nil, ErrTokenMalformed
	}

	revoked, err := ts.ledger.Exists(ctx, tokenID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consult revocation ledger")
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

// RefreshAccess verifies the refresh token and mints a fresh access token
// for the same user. The refresh token itself is untouched: no rotation, no
// cookie re-issue, valid until its own expiry or an explicit logout.
func (ts *TokenServiceImpl) RefreshAccess(ctx context.Context, refreshToken string) (string, error) {
	claims, err := ts.VerifyRefresh(ctx, refreshToken)
	if err != nil {
		return "", err
	}

	accessClaims := ts.newClaims(claims.UserID(), TokenTypeAccess, time.Now(), ts.accessTTL)
	return ts.SignClaims(accessClaims)
}

// Blacklist records the refresh token's jti in the revocation ledger,
// permanently invalidating that token. Already revoked tokens are accepted
// without a second insert.
func (ts *TokenServiceImpl) Blacklist(ctx context.Context, refreshToken string) error {
	claims, err := ts.parse(refreshToken, TokenTypeRefresh)
	if err != nil {
		return err
	}

	tokenID, err := uuid.Parse(claims.TokenID())
	if err != nil {
		return ErrTokenMalformed
	}

	revoked, err := ts.ledger.Exists(ctx, tokenID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consult revocation ledger")
	}
	if revoked {
		return nil
	}

	userID, err := uuid.Parse(claims.UserID())
	if err != nil {
		return ErrTokenMalformed
	}

	expiresAt := claims.Expires()
	entry := &RevokedToken{
		TokenID:   tokenID,
		UserID:    userID,
		ExpiresAt: &expiresAt,
	}

	if _, err := ts.ledger.Insert(ctx, entry); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to record token revocation")
	}

	return nil
}

// Validate parses and validates an access token string, returning structured
// claims. Access tokens never consult the ledger; they are verified by
// signature and expiry alone.
func (ts *TokenServiceImpl) Validate(tokenString string) (AuthClaims, error) {
	return ts.parse(tokenString, TokenTypeAccess)
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", goerrors.New("claims must not be nil", goerrors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

func (ts *TokenServiceImpl) newClaims(userID, tokenType string, now time.Time, ttl time.Duration) *JWTClaims {
	var aud jwt.ClaimStrings
	if len(ts.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(ts.audience))
		copy(aud, ts.audience)
	}

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   userID,
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UID:  userID,
		Type: tokenType,
	}

	ensureTokenID(&claims.RegisteredClaims)

	return claims
}

func (ts *TokenServiceImpl) parse(tokenString, expectedType string) (*JWTClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService validate could not decode or validate claims")
		return nil, ErrUnableToDecodeSession
	}

	if claims.TokenType() != expectedType {
		return nil, ErrTokenTypeMismatch
	}

	return claims, nil
}
