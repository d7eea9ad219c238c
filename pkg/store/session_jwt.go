package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"barbari/internal/util"
)

const defaultSessionTTL = 12 * time.Hour

var defaultJWTLeeway = 30 * time.Second

// JWTSessionStore issues and validates HS256 admin session tokens.
// Logout is honored through the revoker: a signed token stays invalid once
// its jti has been revoked, until it would have expired anyway.
type JWTSessionStore struct {
	secret  []byte
	ttl     time.Duration
	issuer  string
	revoker TokenRevoker
}

// NewJWTSessionStore builds an HS256 session store.
func NewJWTSessionStore(secret string, ttl time.Duration, issuer string, revoker TokenRevoker) (*JWTSessionStore, error) {
	secret = strings.TrimSpace(secret)
	if len(secret) < 32 {
		return nil, errors.New("jwt secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if strings.TrimSpace(issuer) == "" {
		issuer = "barbari-admin"
	}
	return &JWTSessionStore{
		secret:  []byte(secret),
		ttl:     ttl,
		issuer:  issuer,
		revoker: revoker,
	}, nil
}

// NewSession issues a signed token for the given user.
func (s *JWTSessionStore) NewSession(userID string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		ID:        util.NewID(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// GetUserIDByToken validates a token and resolves the user ID.
func (s *JWTSessionStore) GetUserIDByToken(token string) (string, bool, error) {
	claims := jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unsupported signing method")
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(defaultJWTLeeway),
	)
	if err != nil || !parsed.Valid {
		return "", false, nil
	}
	if strings.TrimSpace(claims.Subject) == "" || claims.ID == "" {
		return "", false, nil
	}
	if s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(claims.ID)
		if err != nil {
			return "", false, err
		}
		if revoked {
			return "", false, nil
		}
	}
	return claims.Subject, true, nil
}

// DeleteSession revokes the token's jti for the remainder of its lifetime.
func (s *JWTSessionStore) DeleteSession(token string) error {
	if s.revoker == nil {
		return nil
	}
	claims := jwt.RegisteredClaims{}
	// Parse without strict validation so an already-expired token logs out cleanly.
	_, _, err := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})).ParseUnverified(token, &claims)
	if err != nil || claims.ID == "" {
		return nil
	}
	ttl := s.ttl
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}
	return s.revoker.Revoke(claims.ID, ttl)
}
