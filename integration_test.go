package accounts_test

import (
	"net/http"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSessionLifecycle walks one user through the whole session flow:
// register, login, refresh, authenticated logout, then a refresh attempt
// with the revoked cookie.
func TestSessionLifecycle(t *testing.T) {
	f := newControllerFixture(t)

	guard := f.auther.ProtectedRoute(
		testConfig(),
		f.auther.MakeClientRouteAuthErrorHandler(false),
	)(func(c router.Context) error { return nil })

	// register
	register := NewMockContext().WithJSONBody(t, map[string]any{
		"first_name": "Grace",
		"last_name":  "Hopper",
		"email":      "grace@example.com",
		"password":   "longenough1",
	})
	require.NoError(t, f.controller.Register(register))
	require.Equal(t, http.StatusCreated, register.JSONCode)
	user := register.JSONBody.(*accounts.User)

	// login
	login := NewMockContext().WithJSONBody(t, map[string]any{
		"email":    "grace@example.com",
		"password": "longenough1",
	})
	require.NoError(t, f.controller.Login(login))
	require.Equal(t, http.StatusOK, login.JSONCode)

	loginBody := login.JSONBody.(map[string]any)
	accessToken := loginBody["accessToken"].(string)
	refreshCookie := login.lastCookie(accounts.DefaultRefreshCookieName)
	require.NotNil(t, refreshCookie)

	// refresh mints a fresh access token off the cookie
	refresh := NewMockContext()
	refresh.CookiesIn[accounts.DefaultRefreshCookieName] = refreshCookie.Value
	require.NoError(t, f.controller.Refresh(refresh))
	require.Equal(t, http.StatusOK, refresh.JSONCode)

	refreshed := refresh.JSONBody.(map[string]string)["accessToken"]
	require.NotEmpty(t, refreshed)

	claims, err := f.tokens.Validate(refreshed)
	require.NoError(t, err)
	assert.Equal(t, accounts.TokenTypeAccess, claims.TokenType())
	assert.Equal(t, user.ID.String(), claims.Subject())

	// logout is guarded: no credentials means no handler
	anonymous := NewMockContext()
	require.NoError(t, guard(anonymous))
	assert.False(t, anonymous.NextCalled)
	assert.Equal(t, http.StatusUnauthorized, anonymous.JSONCode)

	// a refresh token in the Authorization header is not an access token
	smuggled := NewMockContext()
	smuggled.HeadersM["Authorization"] = "Bearer " + refreshCookie.Value
	require.NoError(t, guard(smuggled))
	assert.False(t, smuggled.NextCalled)
	assert.Equal(t, http.StatusUnauthorized, smuggled.JSONCode)

	// authenticated logout revokes the session
	logout := NewMockContext()
	logout.HeadersM["Authorization"] = "Bearer " + accessToken
	logout.CookiesIn[accounts.DefaultRefreshCookieName] = refreshCookie.Value

	require.NoError(t, guard(logout))
	require.True(t, logout.NextCalled)

	// the guard left the validated claims on the request context
	ctxClaims := accounts.ClaimsFromContext(logout.Context())
	require.NotNil(t, ctxClaims)
	assert.Equal(t, user.ID.String(), ctxClaims.UserID())

	require.NoError(t, f.controller.Logout(logout))
	assert.Equal(t, http.StatusOK, logout.JSONCode)

	// the cookie is gone and the refresh token is dead
	cleared := logout.lastCookie(accounts.DefaultRefreshCookieName)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	replay := NewMockContext()
	replay.CookiesIn[accounts.DefaultRefreshCookieName] = refreshCookie.Value
	require.NoError(t, f.controller.Refresh(replay))
	assert.Equal(t, http.StatusUnauthorized, replay.JSONCode)
	assert.Equal(t, map[string]string{"error": "Invalid refresh token"}, replay.JSONBody)

	// access tokens are stateless and survive logout
	still := NewMockContext()
	still.HeadersM["Authorization"] = "Bearer " + accessToken
	require.NoError(t, guard(still))
	assert.True(t, still.NextCalled)
}
