package auth

import (
	jwt "github.com/golang-jwt/jwt/v5"
)

// RefreshTokenScope marks a claim as belonging to a refresh token. It
// must never appear in any user's role set, so a refresh token can
// never pass for an access token when inspected.
const RefreshTokenScope = "REFRESH_TOKEN"

// Claims is the decrypted payload of a token. The registered claims
// contribute the standard wire fields: sub (subject), exp (expiry in
// seconds since epoch) and jti (fresh random token id). Scopes carries
// the caller's roles for access tokens and the refresh marker for
// refresh tokens.
//
// Claims exist only transiently inside the codec boundary; they are
// never persisted.
type Claims struct {
	Scopes []string `json:"scopes"`
	jwt.RegisteredClaims
}

// IsRefresh reports whether the claim carries the refresh marker.
func (c *Claims) IsRefresh() bool {
	for _, scope := range c.Scopes {
		if scope == RefreshTokenScope {
			return true
		}
	}
	return false
}
