package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Gioaltam/Inspection-agent/internal/domain/portal"
)

// Sessions issues and verifies the bearer tokens the dashboard uses after
// a magic-link login.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	clock  func() time.Time
}

func NewSessions(secret string, ttl time.Duration) *Sessions {
	return &Sessions{secret: []byte(secret), ttl: ttl, clock: time.Now}
}

func (s *Sessions) Issue(ownerID string) (string, error) {
	now := s.clock()
	claims := jwt.MapClaims{
		"sub": ownerID,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify returns the owner id for a valid token, ErrUnauthorized for
// anything else.
func (s *Sessions) Verify(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(s.clock))
	if err != nil || !parsed.Valid {
		return "", portal.ErrUnauthorized
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", portal.ErrUnauthorized
	}
	return sub, nil
}
