package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/taskdist/distribution-service/pkg/util/errorutil"
)

// RequireAdmin ensures the session carries admin claims.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, ok := SessionFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized(unauthorizedMessage)
		}
		if !session.IsAdmin() {
			return apperrors.NewForbidden("admin access required")
		}
		return c.Next()
	}
}

// RequireAgent ensures the session carries agent claims.
func RequireAgent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, ok := SessionFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized(unauthorizedMessage)
		}
		if !session.IsAgent() {
			return apperrors.NewForbidden("agent access required")
		}
		return c.Next()
	}
}

// RequireAnyRole ensures caller is authenticated as either role.
func RequireAnyRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := SessionFromContext(c); !ok {
			return apperrors.NewUnauthorized(unauthorizedMessage)
		}
		return c.Next()
	}
}
