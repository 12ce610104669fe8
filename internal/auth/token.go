package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/taskdist/distribution-service/internal/domain"
)

// ErrInvalidToken covers every decode failure: bad signature, expiry,
// unknown role or missing claims.
var ErrInvalidToken = errors.New("invalid token")

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a new manager. A non-positive ttl falls back to 24h.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Claims is the wire payload shared by both roles; role decides which
// fields are meaningful.
type Claims struct {
	Role       domain.Role `json:"role"`
	UserID     string      `json:"userId"`
	AgentID    string      `json:"agentId,omitempty"`
	Email      string      `json:"email"`
	Name       string      `json:"name,omitempty"`
	AdminEmail string      `json:"adminEmail,omitempty"`
	jwt.RegisteredClaims
}

// IssueAdminToken signs admin claims.
func (tm *TokenManager) IssueAdminToken(c domain.AdminClaims) (string, time.Time, error) {
	return tm.sign(&Claims{
		Role:   domain.RoleAdmin,
		UserID: c.UserID,
		Email:  c.Email,
	}, c.UserID)
}

// IssueAgentToken signs agent claims.
func (tm *TokenManager) IssueAgentToken(c domain.AgentClaims) (string, time.Time, error) {
	return tm.sign(&Claims{
		Role:       domain.RoleAgent,
		UserID:     c.UserID,
		AgentID:    c.AgentID,
		Email:      c.Email,
		Name:       c.Name,
		AdminEmail: c.AdminEmail,
	}, c.AgentID)
}

func (tm *TokenManager) sign(claims *Claims, subject string) (string, time.Time, error) {
	issuedAt := tm.now()
	expiresAt := issuedAt.Add(tm.ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates the token and returns the role-tagged session.
func (tm *TokenManager) ParseToken(tokenStr string) (*domain.Session, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims.session()
}

func (c *Claims) session() (*domain.Session, error) {
	session := &domain.Session{Role: c.Role}
	if c.ExpiresAt != nil {
		session.ExpiresAt = c.ExpiresAt.Time
	}

	switch c.Role {
	case domain.RoleAdmin:
		if c.UserID == "" || c.AgentID != "" {
			return nil, ErrInvalidToken
		}
		session.Admin = &domain.AdminClaims{UserID: c.UserID, Email: c.Email}
	case domain.RoleAgent:
		if c.UserID == "" || c.AgentID == "" {
			return nil, ErrInvalidToken
		}
		session.Agent = &domain.AgentClaims{
			AgentID:    c.AgentID,
			UserID:     c.UserID,
			Email:      c.Email,
			Name:       c.Name,
			AdminEmail: c.AdminEmail,
		}
	default:
		return nil, ErrInvalidToken
	}
	return session, nil
}
