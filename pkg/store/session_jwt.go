package store

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	sessionIssuer   = "studyhub-auth"
	sessionAudience = "studyhub-api"
	defaultLeeway   = 30 * time.Second
	defaultTTL      = 24 * time.Hour
)

var errUnexpectedSigning = errors.New("unexpected token signing method")

// JWTSessionStore issues and verifies HS256 session tokens. Logout is
// stateless: DeleteSession is a no-op and tokens expire by TTL.
type JWTSessionStore struct {
	secret []byte
	ttl    time.Duration
	leeway time.Duration
	now    func() time.Time
}

// NewJWTSessionStore creates a session store signing with secret.
func NewJWTSessionStore(secret string, ttl time.Duration) (*JWTSessionStore, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("session store requires a signing secret")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &JWTSessionStore{
		secret: []byte(secret),
		ttl:    ttl,
		leeway: defaultLeeway,
		now:    time.Now,
	}, nil
}

// NewSession issues a signed token for the user.
func (s *JWTSessionStore) NewSession(userID string) (string, error) {
	now := s.now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		Audience:  jwt.ClaimStrings{sessionAudience},
		Subject:   userID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// GetUserIDByToken verifies the token and returns its subject.
func (s *JWTSessionStore) GetUserIDByToken(token string) (string, bool, error) {
	claims := jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errUnexpectedSigning
		}
		return s.secret, nil
	},
		jwt.WithIssuer(sessionIssuer),
		jwt.WithAudience(sessionAudience),
		jwt.WithLeeway(s.leeway),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !parsed.Valid {
		return "", false, nil
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", false, nil
	}
	return subject, true, nil
}

// DeleteSession is a no-op for stateless tokens.
func (s *JWTSessionStore) DeleteSession(string) error {
	return nil
}
