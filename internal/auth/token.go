package auth

import (
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-token-service/internal/config"
	"github.com/spec-kit/auth-token-service/internal/domain"
)

// TokenManager issues and parses the two token classes. It holds one
// codec per class; a token sealed under one key never opens under the
// other.
type TokenManager struct {
	refreshCodec *Codec
	accessCodec  *Codec
	refreshTTL   time.Duration
	accessTTL    time.Duration
	logger       *zap.Logger
}

// NewTokenManager builds a manager from immutable auth configuration.
func NewTokenManager(cfg config.AuthConfig, logger *zap.Logger) (*TokenManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	refreshCodec, err := NewCodec(cfg.RefreshTokenSecret)
	if err != nil {
		return nil, err
	}
	accessCodec, err := NewCodec(cfg.AccessTokenSecret)
	if err != nil {
		return nil, err
	}

	return &TokenManager{
		refreshCodec: refreshCodec,
		accessCodec:  accessCodec,
		refreshTTL:   cfg.RefreshTokenTTL(),
		accessTTL:    cfg.AccessTokenTTL(),
		logger:       logger,
	}, nil
}

// NewRefreshClaims builds the claims for a refresh token. The fresh
// token id is written to user.RefreshTokenID; the caller must persist
// that change as part of the same logical operation that returns the
// token, since it is the revocation state for all earlier refresh
// tokens.
func (tm *TokenManager) NewRefreshClaims(user *domain.User, now time.Time) *Claims {
	claims := &Claims{
		Scopes: []string{RefreshTokenScope},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.refreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	user.RefreshTokenID = claims.ID
	return claims
}

// NewAccessClaims builds the claims for an access token carrying the
// user's current roles. The token id is fresh but never checked against
// stored state; access tokens are only invalidated by expiry.
func (tm *TokenManager) NewAccessClaims(user *domain.User, now time.Time) *Claims {
	return &Claims{
		Scopes: user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
}

// IssueTokenResponse mints a refresh and access token pair for the
// user, each sealed under its own key.
func (tm *TokenManager) IssueTokenResponse(user *domain.User, now time.Time) (*domain.TokenResponse, error) {
	refreshToken, err := tm.refreshCodec.Encode(tm.NewRefreshClaims(user, now))
	if err != nil {
		return nil, err
	}
	accessToken, err := tm.accessCodec.Encode(tm.NewAccessClaims(user, now))
	if err != nil {
		return nil, err
	}
	return &domain.TokenResponse{
		RefreshToken: refreshToken,
		AccessToken:  accessToken,
		UserID:       user.ID,
	}, nil
}

// ParseAccessToken decodes an access token and enforces expiry.
func (tm *TokenManager) ParseAccessToken(token string, now time.Time) (*Claims, error) {
	return tm.parse(tm.accessCodec, token, now, false)
}

// ParseRefreshToken decodes a refresh token and enforces expiry.
func (tm *TokenManager) ParseRefreshToken(token string, now time.Time) (*Claims, error) {
	return tm.parse(tm.refreshCodec, token, now, true)
}

// parse maps every codec failure to a uniform invalid-token reason so
// callers cannot probe which cryptographic check rejected a token; the
// underlying detail is only logged. Expiry semantics: a token is
// expired once now exceeds its expiry instant, and still valid at the
// instant itself.
func (tm *TokenManager) parse(codec *Codec, token string, now time.Time, wantRefresh bool) (*Claims, error) {
	claims, err := codec.Decode(token)
	if err != nil {
		tm.logger.Debug("token rejected", zap.Error(err))
		return nil, WrapError(ReasonInvalidToken, "invalid token", err)
	}
	if claims.ExpiresAt == nil {
		return nil, NewError(ReasonInvalidToken, "invalid token")
	}
	if now.After(claims.ExpiresAt.Time) {
		return nil, NewError(ReasonTokenExpired, "token expired")
	}
	if claims.IsRefresh() != wantRefresh {
		return nil, NewError(ReasonInvalidToken, "invalid token")
	}
	return claims, nil
}
