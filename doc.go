// Package accounts provides a minimal registration and session layer:
// account creation, email/password login, access-token refresh, logout, and
// newsletter opt-in.
//
// Token lifecycle:
//   - TokenService issues access/refresh JWT pairs bound to an Identity.
//     Access tokens are short-lived and stateless; they are never persisted
//     and never individually revocable.
//   - Refresh tokens carry a jti and stay valid until expiry or until their
//     jti is written to the revocation ledger (Blacklist). Refreshing an
//     access token never rotates the refresh token.
//
// Persistence:
//   - User, RevokedToken, and NewsletterSubscriber are Bun models exposed
//     through small repositories behind a RepositoryManager.
//
// HTTP:
//   - AuthController mounts the JSON endpoints (register, login, refresh,
//     logout, newsletter subscribe) on a go-router Router. The refresh token
//     travels only in an HttpOnly, Secure, SameSite=Strict cookie; access
//     tokens are returned in response bodies for the client to hold.
package accounts
