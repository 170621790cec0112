package auth

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-token-service/internal/domain"
)

// AccessChecker decides whether a user holds a permission. Calls are
// delegated verbatim to whatever authorization engine backs the
// service; the default implementation checks role membership.
type AccessChecker interface {
	CheckAccess(ctx context.Context, permission string, user *domain.User) error
}

type roleAccessChecker struct{}

// NewRoleAccessChecker grants a permission when it appears in the
// user's role set.
func NewRoleAccessChecker() AccessChecker {
	return roleAccessChecker{}
}

func (roleAccessChecker) CheckAccess(_ context.Context, permission string, user *domain.User) error {
	for _, role := range user.Roles {
		if role == permission {
			return nil
		}
	}
	return fiber.NewError(http.StatusForbidden, "insufficient role")
}

// RequireRole gates a route on the given permission.
func RequireRole(checker AccessChecker, permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := UserFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if err := checker.CheckAccess(c.UserContext(), permission, user); err != nil {
			return err
		}
		return c.Next()
	}
}
