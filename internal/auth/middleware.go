package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/taskdist/distribution-service/internal/domain"
	apperrors "github.com/taskdist/distribution-service/pkg/util/errorutil"
)

const sessionKey = "auth_session"

// unauthorizedMessage is shared by every authentication failure so callers
// cannot tell which check rejected them.
const unauthorizedMessage = "unauthorized"

// AuthMiddleware validates bearer tokens and attaches the decoded session.
type AuthMiddleware struct {
	tokens *TokenManager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return apperrors.NewUnauthorized(unauthorizedMessage)
	}

	session, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized(unauthorizedMessage)
	}

	c.Locals(sessionKey, session)
	return c.Next()
}

// SessionFromContext retrieves the authenticated session.
func SessionFromContext(c *fiber.Ctx) (*domain.Session, bool) {
	session, ok := c.Locals(sessionKey).(*domain.Session)
	return session, ok && session != nil
}
