// Package users implements the credential store and the register/login
// flows built on it.
package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/medchat/internal/common"
	"github.com/dmitrijs2005/medchat/internal/cryptox"
	"github.com/dmitrijs2005/medchat/internal/server/snapshot"
)

// Store keeps every account in memory and rewrites the users snapshot on
// each registration.
type Store struct {
	mu    sync.RWMutex
	users map[string]User
	snap  snapshot.Store
	salt  string
	now   func() time.Time
}

func NewStore(snap snapshot.Store, salt string) *Store {
	return &Store{
		users: make(map[string]User),
		snap:  snap,
		salt:  salt,
		now:   time.Now,
	}
}

// Load replaces the in-memory state with the persisted snapshot.
// A missing snapshot leaves the store empty and is not an error.
func (s *Store) Load(ctx context.Context) error {
	b, err := s.snap.Load(ctx, snapshot.NameUsers)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return err
	}

	loaded := make(map[string]User)
	if err := json.Unmarshal(b, &loaded); err != nil {
		return fmt.Errorf("decode users snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[string]User, len(loaded))
	for _, u := range loaded {
		s.users[NormalizeUsername(u.Username)] = u
	}
	return nil
}

// Create registers a new account and persists it before returning.
func (s *Store) Create(ctx context.Context, username, password string) (*User, error) {
	name := NormalizeUsername(username)
	if name == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrorValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[name]; ok {
		return nil, common.ErrorAlreadyExists
	}

	u := User{
		Username:     name,
		PasswordHash: cryptox.HashPassword(password, s.salt),
		CreatedAt:    s.now().UTC(),
	}
	s.users[name] = u

	if err := s.persistLocked(ctx); err != nil {
		delete(s.users, name)
		return nil, err
	}

	return &u, nil
}

// Verify reports whether password matches the stored hash for username.
// Unknown users simply fail verification.
func (s *Store) Verify(username, password string) bool {
	s.mu.RLock()
	u, ok := s.users[NormalizeUsername(username)]
	s.mu.RUnlock()

	if !ok {
		return false
	}
	return cryptox.VerifyPassword(password, s.salt, u.PasswordHash)
}

// Get returns the account for username or common.ErrorNotFound.
func (s *Store) Get(username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[NormalizeUsername(username)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

// Count returns the number of registered accounts.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

func (s *Store) persistLocked(ctx context.Context) error {
	b, err := json.Marshal(s.users)
	if err != nil {
		return fmt.Errorf("encode users snapshot: %w", err)
	}
	if err := s.snap.Save(ctx, snapshot.NameUsers, b); err != nil {
		return fmt.Errorf("save users snapshot: %w", err)
	}
	return nil
}
