package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/Varun5711/authlocal/internal/database"
	usermodel "github.com/Varun5711/authlocal/internal/models/user"
	"github.com/jackc/pgx/v5"
)

type GroupStorage struct {
	db database.Querier
}

func NewGroupStorage(db database.Querier) *GroupStorage {
	return &GroupStorage{db: db}
}

func (s *GroupStorage) GetRootGroup(ctx context.Context) (*usermodel.Group, error) {
	query := `
		SELECT id, name, owner_email, owner_name
		FROM groups
		WHERE is_root
		LIMIT 1
	`

	var group usermodel.Group
	err := s.db.QueryRow(ctx, query).Scan(
		&group.ID,
		&group.Name,
		&group.Owner.Email,
		&group.Owner.Name,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRootGroupNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get root group: %w", err)
	}

	return &group, nil
}
