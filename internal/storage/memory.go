package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	usermodel "github.com/Varun5711/authlocal/internal/models/user"
)

// MemoryStorage keeps users and the root group in process memory. It backs
// local development and tests.
type MemoryStorage struct {
	mu        sync.RWMutex
	users     map[string]*usermodel.User
	rootGroup *usermodel.Group
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users: make(map[string]*usermodel.User),
	}
}

// AddUser stores a copy of u keyed by its email, replacing any previous record.
func (s *MemoryStorage) AddUser(u usermodel.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[u.Email] = &u
}

type seedUser struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"passwordHash"`
}

// LoadUsers reads a JSON array of {email, name, passwordHash} objects and adds
// each of them.
func (s *MemoryStorage) LoadUsers(r io.Reader) (int, error) {
	var seeds []seedUser
	if err := json.NewDecoder(r).Decode(&seeds); err != nil {
		return 0, fmt.Errorf("failed to decode users: %w", err)
	}

	for i, seed := range seeds {
		if seed.Email == "" || seed.PasswordHash == "" {
			return 0, fmt.Errorf("user %d: email and passwordHash are required", i)
		}
	}

	for _, seed := range seeds {
		s.AddUser(usermodel.User{
			Email:        seed.Email,
			Name:         seed.Name,
			PasswordHash: seed.PasswordHash,
		})
	}

	return len(seeds), nil
}

func (s *MemoryStorage) SetRootGroup(g usermodel.Group) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rootGroup = &g
}

func (s *MemoryStorage) GetUserByEmail(ctx context.Context, email string) (*usermodel.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[email]
	if !exists {
		return nil, nil
	}

	copied := *user
	return &copied, nil
}

func (s *MemoryStorage) GetRootGroup(ctx context.Context) (*usermodel.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.rootGroup == nil {
		return nil, ErrRootGroupNotFound
	}

	copied := *s.rootGroup
	return &copied, nil
}
