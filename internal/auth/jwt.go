package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenIssuer mints and verifies the HS256 session tokens. Each token
// carries a unique jti so signout can revoke a single session without
// touching the user's other devices.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttlMin int) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttlMin <= 0 {
		ttlMin = 24 * 60
	}

	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    time.Duration(ttlMin) * time.Minute,
	}, nil
}

// Issue returns a signed token for the user along with its jti.
func (t *TokenIssuer) Issue(userID int64) (token string, jti string, err error) {
	now := time.Now()
	jti = uuid.NewString()

	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, jti, nil
}

// Claims is the session material a verified token carries.
type Claims struct {
	UserID    int64
	JTI       string
	ExpiresAt time.Time
}

// Verify parses and validates a token.
func (t *TokenIssuer) Verify(token string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid token claims")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return Claims{}, fmt.Errorf("invalid token subject: %w", err)
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return Claims{UserID: userID, JTI: claims.ID, ExpiresAt: expiresAt}, nil
}

// TTL reports the configured session lifetime.
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}
