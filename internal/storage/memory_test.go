package storage

import (
	"context"
	"strings"
	"testing"

	usermodel "github.com/Varun5711/authlocal/internal/models/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage_GetUserByEmail(t *testing.T) {
	store := NewMemoryStorage()
	store.AddUser(usermodel.User{Email: "a@b.com", Name: "Ann", PasswordHash: "h"})

	got, err := store.GetUserByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ann", got.Name)

	got, err = store.GetUserByEmail(context.Background(), "A@B.COM")
	require.NoError(t, err)
	assert.Nil(t, got, "lookup must be case sensitive")

	got, err = store.GetUserByEmail(context.Background(), "missing@b.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStorage_ReturnsCopies(t *testing.T) {
	store := NewMemoryStorage()
	store.AddUser(usermodel.User{Email: "a@b.com", Name: "Ann", PasswordHash: "h"})

	got, err := store.GetUserByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	got.Name = "Mallory"

	again, err := store.GetUserByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "Ann", again.Name)
}

func TestMemoryStorage_RootGroup(t *testing.T) {
	store := NewMemoryStorage()

	_, err := store.GetRootGroup(context.Background())
	assert.ErrorIs(t, err, ErrRootGroupNotFound)

	store.SetRootGroup(usermodel.Group{ID: "root", Owner: usermodel.Contact{Name: "Admin", Email: "admin@b.com"}})
	group, err := store.GetRootGroup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "admin@b.com", group.Owner.Email)
}

func TestMemoryStorage_LoadUsers(t *testing.T) {
	store := NewMemoryStorage()

	n, err := store.LoadUsers(strings.NewReader(`[
		{"email": "a@b.com", "name": "Ann", "passwordHash": "h1"},
		{"email": "c@d.com", "name": "Cid", "passwordHash": "h2"}
	]`))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := store.GetUserByEmail(context.Background(), "c@d.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "h2", got.PasswordHash)
}

func TestMemoryStorage_LoadUsersRejectsIncompleteRecords(t *testing.T) {
	store := NewMemoryStorage()

	_, err := store.LoadUsers(strings.NewReader(`[{"email": "a@b.com", "name": "Ann"}]`))
	require.Error(t, err)

	got, err := store.GetUserByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Nil(t, got, "a rejected file must not be partially loaded")

	_, err = store.LoadUsers(strings.NewReader(`{not json`))
	assert.Error(t, err)
}
