package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-token-service/internal/domain"
)

const principalKey = "auth_principal"

// AuthMiddleware validates bearer tokens and loads the caller identity.
type AuthMiddleware struct {
	validator *Validator
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(validator *Validator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	user, err := m.validator.GetAuthenticatedUser(c.UserContext(), c.Get(fiber.HeaderAuthorization), time.Now())
	if err != nil {
		return err
	}
	c.Locals(principalKey, user)
	return c.Next()
}

// UserFromContext retrieves the authenticated user.
func UserFromContext(c *fiber.Ctx) (*domain.User, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	user, ok := val.(*domain.User)
	return user, ok
}
