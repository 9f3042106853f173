package storage

import (
	"context"
	"errors"

	usermodel "github.com/Varun5711/authlocal/internal/models/user"
)

var ErrRootGroupNotFound = errors.New("root group not found")

// UserStore looks up credential records. GetUserByEmail returns (nil, nil)
// when no record matches; an error always means the store itself failed.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*usermodel.User, error)
}

// GroupStore resolves the root group whose owner is published as the
// contact for access requests.
type GroupStore interface {
	GetRootGroup(ctx context.Context) (*usermodel.Group, error)
}
