package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/auth-token-service/internal/domain"
	"github.com/spec-kit/auth-token-service/internal/events"
)

type fakeUserLookup struct {
	users map[string]*domain.User
}

func (f *fakeUserLookup) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if user, ok := f.users[strings.ToLower(email)]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (r *recordingDispatcher) recorded() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event{}, r.events...)
}

func newTestValidator(t *testing.T, users ...*domain.User) (*Validator, *TokenManager, *recordingDispatcher) {
	t.Helper()

	lookup := &fakeUserLookup{users: map[string]*domain.User{}}
	for _, user := range users {
		lookup.users[strings.ToLower(user.Email)] = user
	}

	tm := newTestTokenManager(t)
	dispatcher := &recordingDispatcher{}
	return NewValidator(tm, lookup, dispatcher, testAuthConfig(), nil), tm, dispatcher
}

func TestExtractBearerToken(t *testing.T) {
	t.Parallel()

	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"Bearer   abc.def.ghi", "abc.def.ghi", true},
		{"Bearer\tabc", "abc", true},
		{"", "", false},
		{"Token abc", "", false},
		{"bearer abc", "", false},
		{"Bearer", "", false},
		{"Bearer   ", "", false},
		{"BearerToken abc", "", false},
	}

	for _, tc := range cases {
		token, ok := ExtractBearerToken(tc.header)
		require.Equal(t, tc.ok, ok, "header %q", tc.header)
		require.Equal(t, tc.token, token, "header %q", tc.header)
	}
}

func TestResolveUser(t *testing.T) {
	t.Parallel()

	t.Run("subject lookup is case-insensitive", func(t *testing.T) {
		validator, _, _ := newTestValidator(t, approvedUser())

		user, err := validator.ResolveUser(context.Background(), "Alice@Example.COM")
		require.NoError(t, err)
		require.Equal(t, "alice@example.com", user.Email)
	})

	t.Run("unknown subject", func(t *testing.T) {
		validator, _, dispatcher := newTestValidator(t)

		_, err := validator.ResolveUser(context.Background(), "ghost@example.com")
		require.Equal(t, ReasonUserNotFound, ReasonOf(err))
		require.Empty(t, dispatcher.recorded())
	})

	t.Run("unverified email fires event before failing", func(t *testing.T) {
		user := approvedUser()
		user.EmailStatus = domain.ApprovalStatusPending
		validator, _, dispatcher := newTestValidator(t, user)

		_, err := validator.ResolveUser(context.Background(), user.Email)
		require.Equal(t, ReasonEmailUnverified, ReasonOf(err))
		require.Contains(t, err.Error(), fmt.Sprintf("the email address %s has not been verified yet", user.Email))

		recorded := dispatcher.recorded()
		require.Len(t, recorded, 1)
		require.Equal(t, events.EventUnverifiedEmail, recorded[0].Type)
		require.Equal(t, user.Email, recorded[0].Email)
	})

	t.Run("unapproved registration fires event before failing", func(t *testing.T) {
		user := approvedUser()
		user.RegistrationStatus = domain.ApprovalStatusPending
		validator, _, dispatcher := newTestValidator(t, user)

		_, err := validator.ResolveUser(context.Background(), user.Email)
		require.Equal(t, ReasonRegistrationNotApproved, ReasonOf(err))
		require.Contains(t, err.Error(), user.Email)

		recorded := dispatcher.recorded()
		require.Len(t, recorded, 1)
		require.Equal(t, events.EventRegistrationUnactivated, recorded[0].Type)
	})
}

func TestGetAuthenticatedUser(t *testing.T) {
	t.Parallel()

	user := approvedUser()
	validator, tm, _ := newTestValidator(t, user)
	now := time.Now()

	resp, err := tm.IssueTokenResponse(user, now)
	require.NoError(t, err)

	t.Run("valid access token resolves the caller", func(t *testing.T) {
		resolved, err := validator.GetAuthenticatedUser(context.Background(), "Bearer "+resp.AccessToken, now)
		require.NoError(t, err)
		require.Equal(t, user.ID, resolved.ID)
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := validator.GetAuthenticatedUser(context.Background(), "", now)
		require.Equal(t, ReasonNoToken, ReasonOf(err))
	})

	t.Run("wrong scheme", func(t *testing.T) {
		_, err := validator.GetAuthenticatedUser(context.Background(), "Token "+resp.AccessToken, now)
		require.Equal(t, ReasonNoToken, ReasonOf(err))
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := validator.GetAuthenticatedUser(context.Background(), "Bearer garbage", now)
		require.Equal(t, ReasonInvalidToken, ReasonOf(err))
	})

	t.Run("refresh token is refused on the access path", func(t *testing.T) {
		_, err := validator.GetAuthenticatedUser(context.Background(), "Bearer "+resp.RefreshToken, now)
		require.Equal(t, ReasonInvalidToken, ReasonOf(err))
	})

	t.Run("expired access token", func(t *testing.T) {
		_, err := validator.GetAuthenticatedUser(context.Background(), "Bearer "+resp.AccessToken, now.Add(16*time.Minute))
		require.Equal(t, ReasonTokenExpired, ReasonOf(err))
	})
}
