package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-token-service/internal/auth"
	"github.com/spec-kit/auth-token-service/internal/config"
	"github.com/spec-kit/auth-token-service/internal/domain"
	"github.com/spec-kit/auth-token-service/internal/events"
	"github.com/spec-kit/auth-token-service/internal/repository"
)

// DefaultRole is assigned to newly registered accounts.
const DefaultRole = "member"

// AuthService coordinates login, refresh rotation and identity
// resolution on top of the token manager and validator.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	validator  *auth.Validator
	creds      auth.CredentialChecker
	bcryptCost int
	logger     *zap.Logger
	clock      func() time.Time
}

// AuthDependencies encapsulates collaborator requirements for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Creds      auth.CredentialChecker
	Logger     *zap.Logger
}

// NewAuthService builds the service. Construction fails only on key
// misconfiguration, which is not recoverable at runtime.
func NewAuthService(cfg config.Config, deps AuthDependencies) (*AuthService, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	tokens, err := auth.NewTokenManager(cfg.Auth, logger)
	if err != nil {
		return nil, err
	}

	creds := deps.Creds
	if creds == nil {
		creds = auth.NewBcryptChecker()
	}

	return &AuthService{
		users:      deps.UserRepo,
		tokens:     tokens,
		validator:  auth.NewValidator(tokens, deps.UserRepo, deps.Dispatcher, cfg.Auth, logger),
		creds:      creds,
		bcryptCost: cfg.Auth.BcryptCost,
		logger:     logger,
		clock:      time.Now,
	}, nil
}

// RegisterUser creates a new account with pending approval states. No
// tokens are minted here; the account cannot authenticate until both
// approvals land.
func (s *AuthService) RegisterUser(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errors.New("email and password required")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, errors.New("email already registered")
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:              email,
		PasswordHash:       hash,
		Roles:              []string{DefaultRole},
		EmailStatus:        domain.ApprovalStatusPending,
		RegistrationStatus: domain.ApprovalStatusPending,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateRefreshTokenResponse authenticates credentials and mints the
// initial refresh and access token pair. The fresh refresh token id is
// persisted on the user in the same logical operation, superseding any
// earlier refresh token.
func (s *AuthService) CreateRefreshTokenResponse(ctx context.Context, email, password string) (*domain.TokenResponse, error) {
	if email == "" {
		return nil, auth.NewError(auth.ReasonInvalidCredentials, "invalid credentials")
	}

	user, err := s.validator.ResolveUser(ctx, email)
	if err != nil {
		// A missing account is indistinguishable from a wrong password
		// at the login surface; approval failures keep their own reason.
		if auth.ReasonOf(err) == auth.ReasonUserNotFound {
			return nil, auth.NewError(auth.ReasonInvalidCredentials, "invalid credentials")
		}
		return nil, err
	}

	if err := s.creds.Verify(ctx, user, password); err != nil {
		s.logger.Info("login rejected", zap.String("email", user.Email))
		return nil, auth.NewError(auth.ReasonInvalidCredentials, "invalid credentials")
	}

	resp, err := s.tokens.IssueTokenResponse(user, s.clock())
	if err != nil {
		return nil, err
	}
	if err := s.users.SetRefreshTokenID(ctx, user.ID, user.RefreshTokenID); err != nil {
		return nil, err
	}
	return resp, nil
}

// CreateAccessTokenResponse exchanges a live refresh token for a brand
// new pair, rotating the refresh token: the presented token is
// superseded the moment the exchange succeeds. Only the refresh token
// whose id matches the user's stored id may be exchanged.
func (s *AuthService) CreateAccessTokenResponse(ctx context.Context, refreshToken string) (*domain.TokenResponse, error) {
	now := s.clock()

	claims, err := s.tokens.ParseRefreshToken(refreshToken, now)
	if err != nil {
		return nil, err
	}

	user, err := s.validator.ResolveUser(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(claims.ID, user.RefreshTokenID) {
		return nil, auth.NewError(auth.ReasonRefreshTokenRevoked, "refresh token has been superseded")
	}

	resp, err := s.tokens.IssueTokenResponse(user, now)
	if err != nil {
		return nil, err
	}

	// Compare-and-swap against the presented id: a concurrent exchange
	// that already rotated the token makes this one fail instead of
	// silently invalidating the winner's freshly issued pair.
	if err := s.users.RotateRefreshTokenID(ctx, user.ID, claims.ID, user.RefreshTokenID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.NewError(auth.ReasonRefreshTokenRevoked, "refresh token has been superseded")
		}
		return nil, err
	}
	return resp, nil
}

// GetAuthenticatedUser resolves an Authorization header value to the
// verified caller identity using the access-token key.
func (s *AuthService) GetAuthenticatedUser(ctx context.Context, header string) (*domain.User, error) {
	return s.validator.GetAuthenticatedUser(ctx, header, s.clock())
}

// Validator exposes the underlying validator for middleware usage.
func (s *AuthService) Validator() *auth.Validator {
	return s.validator
}
