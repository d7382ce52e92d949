// Package memstore keeps users and transcripts in process memory. It backs
// the server when no database is configured.
package memstore

import (
	"context"
	"sync"
	"time"

	"rebelchat/rebelchat/sources/psql/models"

	"github.com/google/uuid"
)

type UserStore struct {
	mu    sync.RWMutex
	users map[string]models.User
	now   func() time.Time
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]models.User), now: time.Now}
}

func (s *UserStore) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *UserStore) GetUserByCognitoSub(_ context.Context, sub string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(func(u models.User) bool { return u.CognitoSub == sub }), nil
}

func (s *UserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(func(u models.User) bool { return u.Email == email }), nil
}

func (s *UserStore) CreateUser(_ context.Context, in models.InsertUser) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(in), nil
}

func (s *UserStore) UpsertUser(_ context.Context, in models.InsertUser) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.findLocked(func(u models.User) bool { return u.CognitoSub == in.CognitoSub })
	if existing == nil {
		return s.createLocked(in), nil
	}
	existing.Email = in.Email
	existing.Name = in.Name
	existing.LastLogin = s.now()
	s.users[existing.ID] = *existing
	return existing, nil
}

func (s *UserStore) UpdateUserLastLogin(_ context.Context, sub string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.findLocked(func(u models.User) bool { return u.CognitoSub == sub }); u != nil {
		u.LastLogin = s.now()
		s.users[u.ID] = *u
	}
	return nil
}

// Len reports how many users are stored.
func (s *UserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

func (s *UserStore) findLocked(match func(models.User) bool) *models.User {
	for _, u := range s.users {
		if match(u) {
			return &u
		}
	}
	return nil
}

func (s *UserStore) createLocked(in models.InsertUser) *models.User {
	u := models.User{
		ID:         uuid.NewString(),
		CognitoSub: in.CognitoSub,
		Email:      in.Email,
		Name:       in.Name,
		LastLogin:  s.now(),
	}
	s.users[u.ID] = u
	return &u
}
