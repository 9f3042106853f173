package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/Varun5711/authlocal/internal/database"
	usermodel "github.com/Varun5711/authlocal/internal/models/user"
	"github.com/jackc/pgx/v5"
)

type UserStorage struct {
	db database.Querier
}

func NewUserStorage(db database.Querier) *UserStorage {
	return &UserStorage{db: db}
}

// GetUserByEmail matches the stored key exactly; email comparison is case
// sensitive.
func (s *UserStorage) GetUserByEmail(ctx context.Context, email string) (*usermodel.User, error) {
	query := `
		SELECT email, name, password_hash
		FROM users
		WHERE email = $1
	`

	var user usermodel.User
	err := s.db.QueryRow(ctx, query, email).Scan(
		&user.Email,
		&user.Name,
		&user.PasswordHash,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}
