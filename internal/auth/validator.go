package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-token-service/internal/config"
	"github.com/spec-kit/auth-token-service/internal/domain"
	"github.com/spec-kit/auth-token-service/internal/events"
)

// UserLookup is the slice of the user store the validator needs.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Validator turns a raw bearer value into a verified identity.
type Validator struct {
	tokens     *TokenManager
	users      UserLookup
	dispatcher events.Dispatcher
	cfg        config.AuthConfig
	logger     *zap.Logger
}

// NewValidator wires the validator with its collaborators.
func NewValidator(tokens *TokenManager, users UserLookup, dispatcher events.Dispatcher, cfg config.AuthConfig, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{tokens: tokens, users: users, dispatcher: dispatcher, cfg: cfg, logger: logger}
}

// ExtractBearerToken pulls the token out of an Authorization header
// value of the form "Bearer <token>": the scheme prefix is
// case-sensitive and must be followed by at least one whitespace
// character and a non-empty remainder.
func ExtractBearerToken(header string) (string, bool) {
	rest, ok := strings.CutPrefix(header, "Bearer")
	if !ok {
		return "", false
	}
	token := strings.TrimLeft(rest, " \t")
	if token == rest || token == "" {
		return "", false
	}
	return token, true
}

// ResolveUser looks up the token subject in the user store. Subjects
// are case-insensitive identifiers, so the lookup is lowercased.
// Approval-status failures fire a notification event before the error
// is returned, giving the surrounding system a chance to react.
func (v *Validator) ResolveUser(ctx context.Context, subject string) (*domain.User, error) {
	user, err := v.users.GetByEmail(ctx, strings.ToLower(subject))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NewError(ReasonUserNotFound, "user not found")
		}
		return nil, err
	}

	if user.EmailStatus != domain.ApprovalStatusApproved {
		v.notify(ctx, events.EventUnverifiedEmail, user)
		return nil, NewError(ReasonEmailUnverified, fmt.Sprintf(v.cfg.UnverifiedEmailMessage, user.Email))
	}
	if user.RegistrationStatus != domain.ApprovalStatusApproved {
		v.notify(ctx, events.EventRegistrationUnactivated, user)
		return nil, NewError(ReasonRegistrationNotApproved, fmt.Sprintf(v.cfg.UnactivatedMessage, user.Email))
	}
	return user, nil
}

// GetAuthenticatedUser resolves an Authorization header value to the
// authenticated user via the access-token key.
func (v *Validator) GetAuthenticatedUser(ctx context.Context, header string, now time.Time) (*domain.User, error) {
	token, ok := ExtractBearerToken(header)
	if !ok {
		return nil, NewError(ReasonNoToken, "no bearer token provided")
	}

	claims, err := v.tokens.ParseAccessToken(token, now)
	if err != nil {
		return nil, err
	}
	return v.ResolveUser(ctx, claims.Subject)
}

func (v *Validator) notify(ctx context.Context, eventType events.EventType, user *domain.User) {
	if v.dispatcher == nil {
		return
	}
	err := v.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    user.ID,
		Email:     user.Email,
		Timestamp: time.Now(),
	})
	if err != nil {
		v.logger.Warn("publish approval event", zap.String("event", string(eventType)), zap.Error(err))
	}
}
