package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdist/distribution-service/internal/domain"
)

const testSecret = "test-secret-key-minimum-32-characters-long"

func TestTokenManager_AdminRoundTrip(t *testing.T) {
	tm := NewTokenManager(testSecret, 0)
	token, exp, err := tm.IssueAdminToken(domain.AdminClaims{UserID: "adm-1", Email: "boss@example.com"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), exp, time.Minute)

	session, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.True(t, session.IsAdmin())
	assert.False(t, session.IsAgent())
	assert.Equal(t, &domain.AdminClaims{UserID: "adm-1", Email: "boss@example.com"}, session.Admin)
	assert.Nil(t, session.Agent)
}

func TestTokenManager_AgentRoundTrip(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	claims := domain.AgentClaims{
		AgentID:    "ag-1",
		UserID:     "adm-1",
		Email:      "agent@example.com",
		Name:       "Asha",
		AdminEmail: "boss@example.com",
	}
	token, _, err := tm.IssueAgentToken(claims)
	require.NoError(t, err)

	session, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAgent, session.Role)
	assert.Equal(t, &claims, session.Agent)
	assert.Nil(t, session.Admin)
}

func TestTokenManager_Expired(t *testing.T) {
	tm := NewTokenManager(testSecret, 24*time.Hour)
	issued := time.Now().Add(-25 * time.Hour)
	tm.now = func() time.Time { return issued }
	token, _, err := tm.IssueAdminToken(domain.AdminClaims{UserID: "adm-1"})
	require.NoError(t, err)

	tm.now = time.Now
	_, err = tm.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	token, _, err := NewTokenManager(testSecret, time.Hour).IssueAdminToken(domain.AdminClaims{UserID: "adm-1"})
	require.NoError(t, err)

	_, err = NewTokenManager("another-secret", time.Hour).ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_RejectsMalformedClaims(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	sign := func(c *Claims) string {
		c.RegisteredClaims = jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return s
	}

	cases := map[string]*Claims{
		"unknown role":         {Role: "owner", UserID: "adm-1"},
		"agent without agent":  {Role: domain.RoleAgent, UserID: "adm-1"},
		"agent without admin":  {Role: domain.RoleAgent, AgentID: "ag-1"},
		"admin with agent id":  {Role: domain.RoleAdmin, UserID: "adm-1", AgentID: "ag-1"},
		"admin without userId": {Role: domain.RoleAdmin},
	}
	for name, claims := range cases {
		_, err := tm.ParseToken(sign(claims))
		assert.ErrorIs(t, err, ErrInvalidToken, name)
	}
}

func TestTokenManager_RejectsMissingExpiry(t *testing.T) {
	claims := &Claims{Role: domain.RoleAdmin, UserID: "adm-1"}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = NewTokenManager(testSecret, time.Hour).ParseToken(s)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_Garbage(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	for _, token := range []string{"", "invalid.token.here", "abc"} {
		_, err := tm.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestPassword_HashAndCompare(t *testing.T) {
	hash, err := HashPassword("secret123", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)
	assert.NoError(t, ComparePassword(hash, "secret123"))
	assert.Error(t, ComparePassword(hash, "secret124"))
}
