package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdist/distribution-service/internal/domain"
	apperrors "github.com/taskdist/distribution-service/pkg/util/errorutil"
)

func newTestApp(tm *TokenManager) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var de *apperrors.DomainError
			if errors.As(err, &de) {
				return c.Status(de.HTTPStatus).SendString(de.Message)
			}
			return c.SendStatus(http.StatusInternalServerError)
		},
	})
	mw := NewAuthMiddleware(tm)
	app.Get("/admin", mw.Handle, RequireAdmin(), func(c *fiber.Ctx) error {
		session, _ := SessionFromContext(c)
		return c.SendString(session.Admin.UserID)
	})
	app.Get("/agent", mw.Handle, RequireAgent(), func(c *fiber.Ctx) error {
		session, _ := SessionFromContext(c)
		return c.SendString(session.Agent.AgentID)
	})
	return app
}

func doGet(t *testing.T, app *fiber.App, path, authorization string) (int, string) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	buf := make([]byte, 256)
	n, _ := resp.Body.Read(buf)
	return resp.StatusCode, string(buf[:n])
}

func TestAuthMiddleware_Roles(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	app := newTestApp(tm)

	adminToken, _, err := tm.IssueAdminToken(domain.AdminClaims{UserID: "adm-1"})
	require.NoError(t, err)
	agentToken, _, err := tm.IssueAgentToken(domain.AgentClaims{AgentID: "ag-1", UserID: "adm-1"})
	require.NoError(t, err)

	status, body := doGet(t, app, "/admin", "Bearer "+adminToken)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "adm-1", body)

	status, body = doGet(t, app, "/agent", "bearer "+agentToken)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ag-1", body)

	status, _ = doGet(t, app, "/admin", "Bearer "+agentToken)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = doGet(t, app, "/agent", "Bearer "+adminToken)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestAuthMiddleware_UniformUnauthorized(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	app := newTestApp(tm)

	expired := NewTokenManager(testSecret, time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, _, err := expired.IssueAdminToken(domain.AdminClaims{UserID: "adm-1"})
	require.NoError(t, err)

	for _, header := range []string{"", "Bearer", "Basic abc", "Bearer not-a-jwt", "Bearer " + expiredToken} {
		status, body := doGet(t, app, "/admin", header)
		assert.Equal(t, http.StatusUnauthorized, status, header)
		assert.Equal(t, "unauthorized", body, header)
	}
}
