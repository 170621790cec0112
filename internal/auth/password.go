package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/auth-token-service/internal/domain"
)

// CredentialChecker verifies a caller-supplied password against a
// resolved user. It is the seam for the external credential store; the
// token core never inspects password material itself.
type CredentialChecker interface {
	Verify(ctx context.Context, user *domain.User, password string) error
}

type bcryptChecker struct{}

// NewBcryptChecker returns the default checker backed by bcrypt hashes
// on the user record.
func NewBcryptChecker() CredentialChecker {
	return bcryptChecker{}
}

func (bcryptChecker) Verify(_ context.Context, user *domain.User, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
}

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
