package auth

import (
	"encoding/base64"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T, secret string) *Codec {
	t.Helper()
	codec, err := NewCodec(secret)
	require.NoError(t, err)
	return codec
}

func sampleClaims(scopes []string) *Claims {
	return &Claims{
		Scopes: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice@example.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.NewString(),
		},
	}
}

func TestCodecRoundTrip(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, "round-trip-secret")
	claims := sampleClaims([]string{"member", "admin"})

	token, err := codec.Encode(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	decoded, err := codec.Decode(token)
	require.NoError(t, err)
	require.Equal(t, claims.Subject, decoded.Subject)
	require.Equal(t, claims.Scopes, decoded.Scopes)
	require.Equal(t, claims.ID, decoded.ID)
	require.Equal(t, claims.ExpiresAt.Unix(), decoded.ExpiresAt.Unix())
}

func TestCodecNoncesDiffer(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, "nonce-secret")
	claims := sampleClaims([]string{"member"})

	first, err := codec.Encode(claims)
	require.NoError(t, err)
	second, err := codec.Encode(claims)
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestCodecTamperSensitivity(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, "tamper-secret")
	other := newTestCodec(t, "tamper-secret-other")

	token, err := codec.Encode(sampleClaims([]string{"member"}))
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)

	for i := range raw {
		mutated := make([]byte, len(raw))
		copy(mutated, raw)
		mutated[i] ^= 1 << (i % 8)
		forged := base64.RawURLEncoding.EncodeToString(mutated)

		_, err := codec.Decode(forged)
		require.ErrorIs(t, err, ErrDecode, "flipped bit in byte %d must fail", i)
		_, err = other.Decode(forged)
		require.ErrorIs(t, err, ErrDecode, "flipped bit in byte %d must fail for every key", i)
	}
}

func TestCodecCrossKeyIsolation(t *testing.T) {
	t.Parallel()

	refreshCodec := newTestCodec(t, "refresh-secret")
	accessCodec := newTestCodec(t, "access-secret")

	refreshToken, err := refreshCodec.Encode(sampleClaims([]string{RefreshTokenScope}))
	require.NoError(t, err)
	accessToken, err := accessCodec.Encode(sampleClaims([]string{"member"}))
	require.NoError(t, err)

	_, err = accessCodec.Decode(refreshToken)
	require.ErrorIs(t, err, ErrDecode)
	_, err = refreshCodec.Decode(accessToken)
	require.ErrorIs(t, err, ErrDecode)
}

func TestCodecMalformedInput(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, "malformed-secret")

	for _, token := range []string{
		"",
		"%%%not-base64%%%",
		base64.RawURLEncoding.EncodeToString([]byte("short")),
		base64.RawURLEncoding.EncodeToString(make([]byte, 64)),
	} {
		_, err := codec.Decode(token)
		require.ErrorIs(t, err, ErrDecode, "token %q", token)
	}
}

func TestNewCodecRejectsEmptySecret(t *testing.T) {
	t.Parallel()

	_, err := NewCodec("")
	require.Error(t, err)
}
