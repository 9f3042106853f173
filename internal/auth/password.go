package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 10

// MaxPasswordLength is the longest password bcrypt hashes without truncation.
const MaxPasswordLength = 72

var (
	ErrPasswordMismatch = errors.New("password does not match")
	ErrMalformedHash    = errors.New("stored password hash is malformed")
)

// PasswordHasher hashes and verifies passwords with bcrypt at a fixed cost.
// It holds no mutable state and is safe for concurrent use.
type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("invalid bcrypt cost %d", cost)
	}
	return &PasswordHasher{cost: cost}, nil
}

func (h *PasswordHasher) Cost() int {
	return h.cost
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// Verify checks password against hashedPassword. It returns nil on a match,
// ErrPasswordMismatch on a wrong password and ErrMalformedHash when the stored
// hash cannot be parsed. Passwords longer than MaxPasswordLength never match,
// since Hash refuses them. Comparison is bcrypt's constant-time one.
func (h *PasswordHasher) Verify(hashedPassword, password string) error {
	if len(password) > MaxPasswordLength {
		return ErrPasswordMismatch
	}

	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrPasswordMismatch
	default:
		return fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
}

// Compare reports whether password matches hashedPassword. A malformed hash
// never matches.
func (h *PasswordHasher) Compare(password, hashedPassword string) bool {
	return h.Verify(hashedPassword, password) == nil
}
