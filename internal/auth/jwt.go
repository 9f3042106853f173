package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// HeaderExpiry is the protected header field carrying the token expiry in
// milliseconds since the Unix epoch. Downstream units read expiry from the
// header, so the payload holds identity claims only.
const HeaderExpiry = "exp"

var (
	ErrEmptySecret  = errors.New("jwt secret must not be empty")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims is the identity asserted by an issued token.
type Claims struct {
	Email     string
	Name      string
	ExpiresAt time.Time
}

type JWTManager struct {
	secretKey     []byte
	tokenDuration time.Duration
	now           func() time.Time
}

func NewJWTManager(secretKey string, tokenDuration time.Duration) (*JWTManager, error) {
	if secretKey == "" {
		return nil, ErrEmptySecret
	}
	return &JWTManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
		now:           time.Now,
	}, nil
}

func (m *JWTManager) TokenDuration() time.Duration {
	return m.tokenDuration
}

// GenerateToken signs an HS256 token whose payload is exactly {email, name}
// and whose header expiry is now + token duration.
func (m *JWTManager) GenerateToken(email, name string) (string, time.Time, error) {
	expiresAt := m.now().Add(m.tokenDuration)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"name":  name,
	})
	token.Header[HeaderExpiry] = expiresAt.UnixMilli()

	signed, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// ValidateToken verifies the signature and header expiry of tokenString the
// same way the application unit does.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, jwt.MapClaims{}, func(t *jwt.Token) (interface{}, error) {
		return m.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	rawExp, ok := token.Header[HeaderExpiry].(float64)
	if !ok {
		return nil, fmt.Errorf("%w: missing expiry header", ErrInvalidToken)
	}
	expiresAt := time.UnixMilli(int64(rawExp))
	if !m.now().Before(expiresAt) {
		return nil, ErrTokenExpired
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	email, _ := mapClaims["email"].(string)
	name, _ := mapClaims["name"].(string)

	return &Claims{
		Email:     email,
		Name:      name,
		ExpiresAt: expiresAt,
	}, nil
}
