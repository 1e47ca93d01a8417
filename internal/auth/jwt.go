package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// clockSkew tolerates small clock differences with the identity service.
const clockSkew = 30 * time.Second

// Claims defines the JWT claims we read from a token.
type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager manages JWT access token creation and validation.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
	parser *jwt.Parser
}

// NewJWTManager creates a new JWT manager.
func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	return &JWTManager{
		secret: []byte(secret),
		ttl:    ttl,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(clockSkew),
		),
	}
}

// GenerateAccessToken creates a signed JWT for the given member.
// Production tokens come from the identity service; this is used by tooling and tests
// that share the signing secret.
func (m *JWTManager) GenerateAccessToken(memberID string, role Role) (string, error) {
	now := time.Now().UTC()

	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   memberID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign jwt: %w", err)
	}

	return signed, nil
}

// ParseAndValidate validates a JWT and returns the principal it describes.
// Only HS256 tokens with an expiry are accepted; a missing role means member.
func (m *JWTManager) ParseAndValidate(tokenStr string) (Principal, error) {
	var claims Claims
	_, err := m.parser.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return Principal{}, fmt.Errorf("failed to parse jwt: %w", err)
	}
	if claims.Subject == "" {
		return Principal{}, errors.New("jwt has no subject")
	}

	role := claims.Role
	if role == "" {
		role = RoleMember
	}
	if !role.Valid() {
		return Principal{}, fmt.Errorf("unknown role %q", role)
	}

	return Principal{MemberID: claims.Subject, Role: role}, nil
}
