package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/auth-token-service/internal/config"
	"github.com/spec-kit/auth-token-service/internal/domain"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		RefreshTokenSecret:       "test-refresh-secret",
		AccessTokenSecret:        "test-access-secret",
		RefreshTokenExpireDays:   30,
		AccessTokenExpireMinutes: 15,
		UnverifiedEmailMessage:   "the email address %s has not been verified yet",
		UnactivatedMessage:       "the registration for %s has not been approved yet",
	}
}

func newTestTokenManager(t *testing.T) *TokenManager {
	t.Helper()
	tm, err := NewTokenManager(testAuthConfig(), nil)
	require.NoError(t, err)
	return tm
}

func approvedUser() *domain.User {
	return &domain.User{
		ID:                 uuid.NewString(),
		Email:              "alice@example.com",
		Roles:              []string{"member", "admin"},
		EmailStatus:        domain.ApprovalStatusApproved,
		RegistrationStatus: domain.ApprovalStatusApproved,
	}
}

func TestNewTokenManagerRejectsSharedSecret(t *testing.T) {
	t.Parallel()

	cfg := testAuthConfig()
	cfg.AccessTokenSecret = cfg.RefreshTokenSecret
	_, err := NewTokenManager(cfg, nil)
	require.Error(t, err)
}

func TestNewRefreshClaims(t *testing.T) {
	t.Parallel()

	tm := newTestTokenManager(t)
	user := approvedUser()
	now := time.Now()

	claims := tm.NewRefreshClaims(user, now)

	require.Equal(t, user.Email, claims.Subject)
	require.Equal(t, []string{RefreshTokenScope}, claims.Scopes)
	require.True(t, claims.IsRefresh())
	require.Equal(t, now.Add(30*24*time.Hour).Unix(), claims.ExpiresAt.Unix())

	_, err := uuid.Parse(claims.ID)
	require.NoError(t, err)
	require.Equal(t, claims.ID, user.RefreshTokenID, "token id must be recorded on the user")
}

func TestNewRefreshClaimsRotatesTokenID(t *testing.T) {
	t.Parallel()

	tm := newTestTokenManager(t)
	user := approvedUser()
	now := time.Now()

	first := tm.NewRefreshClaims(user, now)
	second := tm.NewRefreshClaims(user, now)

	require.NotEqual(t, first.ID, second.ID)
	require.Equal(t, second.ID, user.RefreshTokenID, "latest issuance supersedes the previous token")
}

func TestNewAccessClaims(t *testing.T) {
	t.Parallel()

	tm := newTestTokenManager(t)
	user := approvedUser()
	now := time.Now()

	claims := tm.NewAccessClaims(user, now)

	require.Equal(t, user.Email, claims.Subject)
	require.Equal(t, user.Roles, claims.Scopes)
	require.False(t, claims.IsRefresh())
	require.Equal(t, now.Add(15*time.Minute).Unix(), claims.ExpiresAt.Unix())
	require.NotEqual(t, claims.ID, user.RefreshTokenID, "access token ids are never stored")
}

func TestIssueTokenResponse(t *testing.T) {
	t.Parallel()

	tm := newTestTokenManager(t)
	user := approvedUser()
	now := time.Now()

	resp, err := tm.IssueTokenResponse(user, now)
	require.NoError(t, err)
	require.Equal(t, user.ID, resp.UserID)
	require.NotEmpty(t, resp.RefreshToken)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEqual(t, resp.RefreshToken, resp.AccessToken)

	refreshClaims, err := tm.ParseRefreshToken(resp.RefreshToken, now)
	require.NoError(t, err)
	require.Equal(t, user.RefreshTokenID, refreshClaims.ID)

	accessClaims, err := tm.ParseAccessToken(resp.AccessToken, now)
	require.NoError(t, err)
	require.Equal(t, user.Roles, accessClaims.Scopes)
}

func TestParseRejectsCrossClassTokens(t *testing.T) {
	t.Parallel()

	tm := newTestTokenManager(t)
	user := approvedUser()
	now := time.Now()

	resp, err := tm.IssueTokenResponse(user, now)
	require.NoError(t, err)

	t.Run("refresh token on access path", func(t *testing.T) {
		_, err := tm.ParseAccessToken(resp.RefreshToken, now)
		require.Equal(t, ReasonInvalidToken, ReasonOf(err))
	})

	t.Run("access token on refresh path", func(t *testing.T) {
		_, err := tm.ParseRefreshToken(resp.AccessToken, now)
		require.Equal(t, ReasonInvalidToken, ReasonOf(err))
	})

	t.Run("refresh marker sealed under access key", func(t *testing.T) {
		token, err := tm.accessCodec.Encode(tm.NewRefreshClaims(approvedUser(), now))
		require.NoError(t, err)
		_, err = tm.ParseAccessToken(token, now)
		require.Equal(t, ReasonInvalidToken, ReasonOf(err))
	})
}

func TestParseExpiryBoundary(t *testing.T) {
	t.Parallel()

	tm := newTestTokenManager(t)
	expiry := time.Now().Truncate(time.Second)

	claims := &Claims{
		Scopes: []string{"member"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice@example.com",
			ExpiresAt: jwt.NewNumericDate(expiry),
			ID:        uuid.NewString(),
		},
	}
	token, err := tm.accessCodec.Encode(claims)
	require.NoError(t, err)

	t.Run("valid before expiry", func(t *testing.T) {
		_, err := tm.ParseAccessToken(token, expiry.Add(-time.Second))
		require.NoError(t, err)
	})

	t.Run("still valid at the expiry instant", func(t *testing.T) {
		_, err := tm.ParseAccessToken(token, expiry)
		require.NoError(t, err)
	})

	t.Run("expired once now exceeds expiry", func(t *testing.T) {
		_, err := tm.ParseAccessToken(token, expiry.Add(time.Second))
		require.Equal(t, ReasonTokenExpired, ReasonOf(err))
	})
}

func TestParseGarbageToken(t *testing.T) {
	t.Parallel()

	tm := newTestTokenManager(t)
	now := time.Now()

	for _, token := range []string{"", "garbage", "abc.def.ghi"} {
		_, err := tm.ParseAccessToken(token, now)
		require.Equal(t, ReasonInvalidToken, ReasonOf(err), "token %q", token)
		_, err = tm.ParseRefreshToken(token, now)
		require.Equal(t, ReasonInvalidToken, ReasonOf(err), "token %q", token)
	}
}
